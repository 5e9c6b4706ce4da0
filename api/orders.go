package api

import (
	"net/http"

	"foodscan/models"
	"foodscan/services"
	"foodscan/validation"
)

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := validation.CreateOrder(req); err != nil {
		s.fail(w, r, err)
		return
	}
	req.Status = models.StatusPending
	order, err := s.backend.CreateOrder(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, order)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.backend.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, order)
}

func orderQuery(r *http.Request, restaurantID string) (services.OrderQuery, error) {
	q := services.OrderQuery{RestaurantID: restaurantID}
	if v := r.URL.Query().Get("status"); v != "" {
		st := models.OrderStatus(v)
		if !st.Valid() {
			return q, badRequest("unknown status " + v)
		}
		q.Status = st
	}
	return q, nil
}

// listOrders returns the authenticated owner's orders.
func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	owner, _ := ownerFrom(r.Context())
	s.writeOrders(w, r, owner.RestaurantID)
}

func (s *Server) restaurantOrders(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := ownsRestaurant(r, id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeOrders(w, r, id)
}

func (s *Server) writeOrders(w http.ResponseWriter, r *http.Request, restaurantID string) {
	q, err := orderQuery(r, restaurantID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	orders, err := s.backend.ListOrders(r.Context(), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, orders)
}

func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req models.UpdateOrderStatusRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if !req.Status.Valid() {
		s.fail(w, r, badRequest("unknown status "+string(req.Status)))
		return
	}
	order, err := s.backend.GetOrder(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := ownsRestaurant(r, order.RestaurantID); err != nil {
		s.fail(w, r, err)
		return
	}
	owner, _ := ownerFrom(r.Context())
	change, err := s.backend.UpdateOrderStatus(r.Context(), id, req.Status, owner.Email)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	order.Status = change.NewStatus
	order.UpdatedAt = change.ChangedAt
	jsonResponse(w, http.StatusOK, order)
}

func (s *Server) orderHistory(w http.ResponseWriter, r *http.Request) {
	logs, err := s.backend.OrderHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, logs)
}
