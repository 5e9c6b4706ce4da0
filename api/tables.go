package api

import (
	"net/http"
	"strconv"

	"foodscan/models"
	"foodscan/validation"
)

func tableID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("tableId"), 10, 64)
	if err != nil {
		return 0, badRequest("tableId must be an integer")
	}
	return id, nil
}

func (s *Server) listTables(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := ownsRestaurant(r, id); err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.backend.ListTables(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, out)
}

func (s *Server) createTable(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := ownsRestaurant(r, id); err != nil {
		s.fail(w, r, err)
		return
	}
	var req models.CreateTableRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := validation.Table(req); err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.backend.CreateTable(r.Context(), id, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, out)
}

func (s *Server) deleteTable(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := ownsRestaurant(r, id); err != nil {
		s.fail(w, r, err)
		return
	}
	tid, err := tableID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.backend.DeleteTable(r.Context(), id, tid); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toggleTable(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := ownsRestaurant(r, id); err != nil {
		s.fail(w, r, err)
		return
	}
	tid, err := tableID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.backend.ToggleTable(r.Context(), id, tid)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, out)
}

func (s *Server) generateQR(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateQRRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.RestaurantID == "" {
		s.fail(w, r, badRequest("restaurantId is required"))
		return
	}
	if err := ownsRestaurant(r, req.RestaurantID); err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.backend.GenerateQRCode(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, out)
}

func (s *Server) scanQR(w http.ResponseWriter, r *http.Request) {
	out, err := s.backend.ScanQRCode(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, out)
}
