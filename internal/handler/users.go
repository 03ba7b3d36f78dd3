package handler

import (
	"net/http"

	"github.com/Dan9191/recipe-service/internal/models"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.svc.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, user.Profile())
}

// CreateToken handles user authentication
func (h *Handler) CreateToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token, err := h.svc.IssueToken(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Me returns the authenticated user's profile
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.Me(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// UpdateMe handles PUT and PATCH of the authenticated user's profile
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var patch models.UserPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	profile, err := h.svc.UpdateMe(r.Context(), patch, r.Method == http.MethodPatch)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}
