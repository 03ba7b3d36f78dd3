package handler

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dan9191/recipe-service/internal/export"
	"github.com/Dan9191/recipe-service/internal/models"
)

// maxUploadSize bounds multipart image uploads
const maxUploadSize = 10 << 20

// parseIDs reads a comma-separated id list such as "1,2,3"
func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, errors.New("expected a comma-separated list of ids")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseRecipeFilter(r *http.Request) (models.RecipeFilter, map[string]string) {
	var filter models.RecipeFilter
	fields := map[string]string{}
	q := r.URL.Query()

	var err error
	if filter.TagIDs, err = parseIDs(q.Get("tags")); err != nil {
		fields["tags"] = err.Error()
	}
	if filter.IngredientIDs, err = parseIDs(q.Get("ingredients")); err != nil {
		fields["ingredients"] = err.Error()
	}
	return filter, fields
}

// ListRecipes returns the caller's recipes in list form
func (h *Handler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	filter, fields := parseRecipeFilter(r)
	if len(fields) > 0 {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid filter", Fields: fields})
		return
	}

	recipes, err := h.svc.ListRecipes(r.Context(), filter)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	out := make([]models.RecipeSummary, len(recipes))
	for i := range recipes {
		out[i] = recipes[i].Summary()
	}
	respondJSON(w, http.StatusOK, out)
}

// CreateRecipe stores a recipe for the caller
func (h *Handler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	var in models.RecipeInput
	if !decodeJSON(w, r, &in) {
		return
	}
	recipe, err := h.svc.CreateRecipe(r.Context(), in)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, recipe)
}

// GetRecipe returns one recipe in detail form
func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	recipe, err := h.svc.GetRecipe(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, recipe)
}

// UpdateRecipe handles PUT and PATCH of a recipe
func (h *Handler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in models.RecipeInput
	if !decodeJSON(w, r, &in) {
		return
	}
	recipe, err := h.svc.UpdateRecipe(r.Context(), id, in, r.Method == http.MethodPatch)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, recipe)
}

// DeleteRecipe removes a recipe
func (h *Handler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteRecipe(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage attaches the multipart "image" file to a recipe
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "invalid input",
			Fields: map[string]string{"image": "expected a multipart upload"},
		})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("image")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "invalid input",
			Fields: map[string]string{"image": "no file was submitted"},
		})
		return
	}
	defer file.Close()

	img, err := h.svc.UploadImage(r.Context(), id, file)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, img)
}

// ExportRecipes returns all of the caller's recipes as XML
func (h *Handler) ExportRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.svc.ListRecipes(r.Context(), models.RecipeFilter{})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteRecipesXML(&buf, recipes); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="recipes.xml"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
