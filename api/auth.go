package api

import (
	"net/http"

	"foodscan/models"
)

func (s *Server) verifyAccess(w http.ResponseWriter, r *http.Request) {
	var req models.AccessVerificationRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Email == "" {
		s.fail(w, r, badRequest("email is required"))
		return
	}
	out, err := s.backend.VerifyAccess(r.Context(), req.Email)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, out)
}

func (s *Server) createPassword(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePasswordRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.backend.CreatePassword(r.Context(), req); err != nil {
		s.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, models.APIResponse{Success: true, Message: "password created"})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.backend.Login(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, out)
}
