package api

import (
	"net/http"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

func (s *Server) restaurantStats(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := ownsRestaurant(r, id); err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.backend.GetRestaurantStats(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, out)
}

// dateRange reads startDate and endDate, defaulting to the last 30 days.
func dateRange(r *http.Request, now time.Time) (string, string, error) {
	q := r.URL.Query()
	end := now.Format(dateLayout)
	start := now.AddDate(0, 0, -29).Format(dateLayout)
	if v := q.Get("startDate"); v != "" {
		start = v
	}
	if v := q.Get("endDate"); v != "" {
		end = v
	}
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return "", "", badRequest("startDate must be YYYY-MM-DD")
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return "", "", badRequest("endDate must be YYYY-MM-DD")
	}
	if e.Before(s) {
		return "", "", badRequest("endDate is before startDate")
	}
	return start, end, nil
}

func (s *Server) orderStats(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := ownsRestaurant(r, id); err != nil {
		s.fail(w, r, err)
		return
	}
	start, end, err := dateRange(r, time.Now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.backend.GetOrderStats(r.Context(), id, start, end)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, out)
}

func (s *Server) popularItems(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := ownsRestaurant(r, id); err != nil {
		s.fail(w, r, err)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			s.fail(w, r, badRequest("limit must be between 1 and 100"))
			return
		}
		limit = n
	}
	out, err := s.backend.GetPopularItems(r.Context(), id, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, out)
}

func (s *Server) listCustomers(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := ownsRestaurant(r, id); err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.backend.ListCustomers(r.Context(), id, r.URL.Query().Get("search"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, out)
}
