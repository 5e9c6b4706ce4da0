package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"foodscan/checkout"
	"foodscan/models"
	"foodscan/services"
	"foodscan/validation"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

var (
	errForbidden  = errors.New("forbidden")
	errBadRequest = errors.New("bad request")
)

func jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// jsonError writes the error envelope. Validation problems are listed in errors.
func jsonError(w http.ResponseWriter, status int, message string, problems ...string) {
	jsonResponse(w, status, models.APIResponse{Success: false, Message: message, Errors: problems})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, validation.ErrInvalid),
		errors.Is(err, errBadRequest),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrMixedRestaurants),
		errors.Is(err, services.ErrPasswordMismatch),
		errors.Is(err, services.ErrWeakPassword):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrNoAccess), errors.Is(err, errForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, services.ErrPasswordSet):
		return http.StatusConflict
	case errors.Is(err, services.ErrThrottled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// fail logs and writes err. Internal errors are logged at error level and hidden from the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	log := s.log.With(zap.String("request_id", requestID(r.Context())), zap.String("path", r.URL.Path))
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
		jsonError(w, status, "internal server error")
		return
	}
	var throttled *services.ThrottledError
	if errors.As(err, &throttled) {
		w.Header().Set("Retry-After", strconv.Itoa(throttled.WaitSeconds))
	}
	log.Debug("request rejected", zap.Int("status", status), zap.Error(err))
	jsonError(w, status, err.Error(), validation.Problems(err)...)
}

// decode reads a JSON body into dst.
func decode(r *http.Request, dst any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON payload: %v: %w", err, errBadRequest)
	}
	return nil
}

func badRequest(msg string) error {
	return fmt.Errorf("%s: %w", msg, errBadRequest)
}

func notFoundErr(what string) error {
	return fmt.Errorf("%s: %w", what, services.ErrNotFound)
}
