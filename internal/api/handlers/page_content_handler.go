package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/isdelr/webempresa/internal/models"
	"github.com/isdelr/webempresa/internal/services"
)

// PageContentHandler handles the editable page content endpoints.
type PageContentHandler struct {
	service services.PageContentServiceProvider
}

// NewPageContentHandler creates a new PageContentHandler.
func NewPageContentHandler(service services.PageContentServiceProvider) *PageContentHandler {
	return &PageContentHandler{service: service}
}

// GetPublic returns an active page for the public site.
func (h *PageContentHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.GetPublicPage(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to retrieve page")
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// List returns every page.
func (h *PageContentHandler) List(w http.ResponseWriter, r *http.Request) {
	pages, err := h.service.ListPages(r.Context())
	if err != nil {
		respondServiceError(w, r, err, "Failed to retrieve pages")
		return
	}
	respondJSON(w, http.StatusOK, pages)
}

// Get returns a page regardless of its active flag.
func (h *PageContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.GetPage(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to retrieve page")
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// Create stores a new page.
func (h *PageContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload models.PageContentCreate
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	page, err := h.service.CreatePage(r.Context(), payload)
	if err != nil {
		respondServiceError(w, r, err, "Failed to create page")
		return
	}
	respondJSON(w, http.StatusCreated, page)
}

// Update applies a partial update to a page.
func (h *PageContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload models.PageContentUpdate
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	page, err := h.service.UpdatePage(r.Context(), chi.URLParam(r, "key"), payload)
	if err != nil {
		respondServiceError(w, r, err, "Failed to update page")
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// UpdateSection replaces one section of a page. The body is the section object.
func (h *PageContentHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	var data map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		respondError(w, http.StatusBadRequest, "Section data must be a JSON object")
		return
	}
	page, err := h.service.UpdateSection(r.Context(), chi.URLParam(r, "key"), chi.URLParam(r, "section"), data)
	if err != nil {
		respondServiceError(w, r, err, "Failed to update section")
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// Delete removes a page.
func (h *PageContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePage(r.Context(), chi.URLParam(r, "key")); err != nil {
		respondServiceError(w, r, err, "Failed to delete page")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
