package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"foodscan/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	ownerKey
)

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func ownerFrom(ctx context.Context) (models.OwnerUser, bool) {
	u, ok := ctx.Value(ownerKey).(models.OwnerUser)
	return u, ok
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// logRequests tags every request with an id (X-Request-ID if the client sent one) and logs it
// when it completes. Panics are turned into 500s.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		defer func() {
			if p := recover(); p != nil {
				s.log.Error("panic in handler", zap.String("request_id", id), zap.Any("panic", p))
				jsonError(rec, http.StatusInternalServerError, "internal server error")
			}
			s.log.Info("http request",
				zap.String("request_id", id),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		}()
		next.ServeHTTP(rec, r.WithContext(ctx))
	})
}

// requireOwner resolves the bearer token to an owner or answers 401.
func (s *Server) requireOwner(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			jsonError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		owner, err := s.backend.OwnerBySession(r.Context(), strings.TrimSpace(token))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ownerKey, owner)))
	}
}

// ownsRestaurant checks the authenticated owner against a restaurant id from the path.
func ownsRestaurant(r *http.Request, restaurantID string) error {
	owner, ok := ownerFrom(r.Context())
	if !ok || owner.RestaurantID != restaurantID {
		return errForbidden
	}
	return nil
}
