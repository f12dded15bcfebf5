package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/isdelr/webempresa/internal/auth"
	"github.com/isdelr/webempresa/internal/models"
	"github.com/isdelr/webempresa/internal/services"
)

// NewsHandler handles HTTP requests for news articles.
type NewsHandler struct {
	service services.NewsServiceProvider
}

// NewNewsHandler creates a new NewsHandler.
func NewNewsHandler(service services.NewsServiceProvider) *NewsHandler {
	return &NewsHandler{service: service}
}

// ListPublic returns published articles, newest first.
func (h *NewsHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	articles, err := h.service.ListNews(r.Context(), models.NewsFilter{
		Published: true,
		Featured:  queryBool(r, "featured"),
		Page:      queryInt(r, "page", 1),
		Limit:     queryInt(r, "limit", 10),
	})
	if err != nil {
		respondServiceError(w, r, err, "Failed to retrieve news")
		return
	}
	respondJSON(w, http.StatusOK, articles)
}

// GetBySlug returns a published article and counts the view.
func (h *NewsHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	article, err := h.service.GetNewsBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to retrieve article")
		return
	}
	respondJSON(w, http.StatusOK, article)
}

// List returns articles of any status, optionally filtered by ?status_filter=.
func (h *NewsHandler) List(w http.ResponseWriter, r *http.Request) {
	articles, err := h.service.ListNews(r.Context(), models.NewsFilter{
		Status:   r.URL.Query().Get("status_filter"),
		Featured: queryBool(r, "featured"),
		Page:     queryInt(r, "page", 1),
		Limit:    queryInt(r, "limit", 20),
	})
	if err != nil {
		respondServiceError(w, r, err, "Failed to retrieve news")
		return
	}
	respondJSON(w, http.StatusOK, articles)
}

func (h *NewsHandler) Get(w http.ResponseWriter, r *http.Request) {
	article, err := h.service.GetNews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to retrieve article")
		return
	}
	respondJSON(w, http.StatusOK, article)
}

// Create stores an article authored by the current user.
func (h *NewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload models.NewsInput
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	me, _ := auth.UserFromContext(r.Context())
	article, err := h.service.CreateNews(r.Context(), payload, me.ID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to create article")
		return
	}
	respondJSON(w, http.StatusCreated, article)
}

func (h *NewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload models.NewsInput
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	article, err := h.service.UpdateNews(r.Context(), chi.URLParam(r, "id"), payload)
	if err != nil {
		respondServiceError(w, r, err, "Failed to update article")
		return
	}
	respondJSON(w, http.StatusOK, article)
}

func (h *NewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteNews(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err, "Failed to delete article")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
