package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Dan9191/recipe-service/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	svc *service.Service
	db  Pinger
	log *logrus.Logger
}

func NewHandler(svc *service.Service, db Pinger, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, db: db, log: log}
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

// respondServiceError maps service errors to HTTP status codes
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid input", Fields: verr.Fields})
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, err.Error())
	default:
		h.log.Errorf("%s %s failed: %v", r.Method, r.URL.Path, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

// pathID returns the {id} route variable; the route pattern only admits digits
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusNotFound, "not found")
		return 0, false
	}
	return id, true
}

// Health reports liveness and database connectivity
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status, code := "connected", http.StatusOK
	if err := h.db.Ping(r.Context()); err != nil {
		h.log.Warnf("Health check ping failed: %v", err)
		status, code = "disconnected", http.StatusServiceUnavailable
	}
	respondJSON(w, code, map[string]string{"status": "ok", "database": status})
}
