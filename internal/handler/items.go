package handler

import (
	"net/http"

	"github.com/Dan9191/recipe-service/internal/models"
)

type itemRequest struct {
	Name *string `json:"name"`
}

func parseAssignedOnly(raw string) (bool, bool) {
	switch raw {
	case "", "0", "false":
		return false, true
	case "1", "true":
		return true, true
	}
	return false, false
}

// ListItems returns the caller's tags or ingredients
func (h *Handler) ListItems(kind models.ItemKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assignedOnly, ok := parseAssignedOnly(r.URL.Query().Get("assigned_only"))
		if !ok {
			respondJSON(w, http.StatusBadRequest, errorResponse{
				Error:  "invalid filter",
				Fields: map[string]string{"assigned_only": "expected 0 or 1"},
			})
			return
		}
		items, err := h.svc.ListItems(r.Context(), kind, assignedOnly)
		if err != nil {
			h.respondServiceError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, items)
	}
}

// UpdateItem renames a tag or ingredient
func (h *Handler) UpdateItem(kind models.ItemKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var req itemRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Name == nil {
			if r.Method == http.MethodPatch {
				h.currentItem(w, r, kind, id)
				return
			}
			respondJSON(w, http.StatusBadRequest, errorResponse{
				Error:  "invalid input",
				Fields: map[string]string{"name": "this field is required"},
			})
			return
		}
		item, err := h.svc.UpdateItem(r.Context(), kind, id, *req.Name)
		if err != nil {
			h.respondServiceError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, item)
	}
}

// currentItem answers an empty PATCH with the item unchanged
func (h *Handler) currentItem(w http.ResponseWriter, r *http.Request, kind models.ItemKind, id int64) {
	items, err := h.svc.ListItems(r.Context(), kind, false)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	for _, item := range items {
		if item.ID == id {
			respondJSON(w, http.StatusOK, item)
			return
		}
	}
	respondError(w, http.StatusNotFound, "not found")
}

// DeleteItem removes a tag or ingredient
func (h *Handler) DeleteItem(kind models.ItemKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := h.svc.DeleteItem(r.Context(), kind, id); err != nil {
			h.respondServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
