package handlers

import (
	"errors"
	"log"
	"net/http"

	"choiros-backend/internal/models"
	"choiros-backend/internal/services"
)

type AuthHandler struct {
	Service *services.AuthService
}

func NewAuthHandler(service *services.AuthService) *AuthHandler {
	return &AuthHandler{Service: service}
}

// Login exchanges email and password for a bearer token.
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.Service.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, models.ErrCodeUnauthorized, "Invalid email or password")
			return
		}
		log.Printf("[Auth] Login failed: %v", err)
		writeError(w, http.StatusInternalServerError, models.ErrCodeInternal, "Login failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
