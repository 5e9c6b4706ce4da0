package api

import (
	"net/http"
	"strconv"
	"strings"

	"foodscan/models"
	"foodscan/validation"

	"github.com/shopspring/decimal"
)

func (s *Server) listRestaurants(w http.ResponseWriter, r *http.Request) {
	out, err := s.backend.ListRestaurants(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, out)
}

func (s *Server) getRestaurant(w http.ResponseWriter, r *http.Request) {
	out, err := s.backend.GetRestaurant(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, out)
}

func (s *Server) createRestaurant(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRestaurantRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := validation.Restaurant(req); err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.backend.CreateRestaurant(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, out)
}

func (s *Server) updateRestaurant(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := ownsRestaurant(r, id); err != nil {
		s.fail(w, r, err)
		return
	}
	var req models.CreateRestaurantRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := validation.Restaurant(req); err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.backend.UpdateRestaurant(r.Context(), id, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, out)
}

func (s *Server) deleteRestaurant(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := ownsRestaurant(r, id); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.backend.DeleteRestaurant(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// menuFilter parses category, search, available, minPrice, maxPrice, sort and dir.
func menuFilter(r *http.Request) (models.MenuFilter, error) {
	q := r.URL.Query()
	f := models.MenuFilter{
		Category:  q.Get("category"),
		Search:    q.Get("search"),
		SortField: q.Get("sort"),
		SortDesc:  strings.EqualFold(q.Get("dir"), "desc"),
	}
	if v := q.Get("available"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, badRequest("available must be true or false")
		}
		f.Available = &b
	}
	for _, p := range []struct {
		name string
		dst  **decimal.Decimal
	}{{"minPrice", &f.MinPrice}, {"maxPrice", &f.MaxPrice}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f, badRequest(p.name + " must be a number")
		}
		*p.dst = &d
	}
	return f, nil
}

func (s *Server) listMenu(w http.ResponseWriter, r *http.Request) {
	f, err := menuFilter(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.backend.ListMenu(r.Context(), r.PathValue("id"), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, out)
}

// menuItemIn loads an item and checks it belongs to the restaurant in the path.
func (s *Server) menuItemIn(r *http.Request) (models.MenuItem, error) {
	item, err := s.backend.GetMenuItem(r.Context(), r.PathValue("itemId"))
	if err != nil {
		return models.MenuItem{}, err
	}
	if item.RestaurantID != r.PathValue("id") {
		return models.MenuItem{}, notFoundErr("menu item")
	}
	return item, nil
}

func (s *Server) getMenuItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.menuItemIn(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

func (s *Server) createMenuItem(w http.ResponseWriter, r *http.Request) {
	restaurantID := r.PathValue("id")
	if err := ownsRestaurant(r, restaurantID); err != nil {
		s.fail(w, r, err)
		return
	}
	var req models.CreateMenuItemRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := validation.MenuItem(req); err != nil {
		s.fail(w, r, err)
		return
	}
	item, err := s.backend.CreateMenuItem(r.Context(), restaurantID, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

func (s *Server) updateMenuItem(w http.ResponseWriter, r *http.Request) {
	if err := ownsRestaurant(r, r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.menuItemIn(r); err != nil {
		s.fail(w, r, err)
		return
	}
	var req models.CreateMenuItemRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := validation.MenuItem(req); err != nil {
		s.fail(w, r, err)
		return
	}
	item, err := s.backend.UpdateMenuItem(r.Context(), r.PathValue("itemId"), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

func (s *Server) deleteMenuItem(w http.ResponseWriter, r *http.Request) {
	if err := ownsRestaurant(r, r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := s.menuItemIn(r); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.backend.DeleteMenuItem(r.Context(), r.PathValue("itemId")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type availabilityRequest struct {
	Available *bool `json:"available"`
}

// setAvailability sets availability from the body, or flips it when the body omits it.
func (s *Server) setAvailability(w http.ResponseWriter, r *http.Request) {
	if err := ownsRestaurant(r, r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	item, err := s.menuItemIn(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req availabilityRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	available := !item.Available
	if req.Available != nil {
		available = *req.Available
	}
	out, err := s.backend.SetMenuItemAvailability(r.Context(), item.ID, available)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, out)
}
