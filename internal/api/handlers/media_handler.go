package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/isdelr/webempresa/internal/models"
	"github.com/isdelr/webempresa/internal/services"
)

// MediaHandler handles HTTP requests for the media library.
type MediaHandler struct {
	service services.MediaServiceProvider
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(service services.MediaServiceProvider) *MediaHandler {
	return &MediaHandler{service: service}
}

// List returns a page of media files. Filters: ?file_type=, ?search=, ?category_ids=a,b.
func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.MediaFilter{
		FileType: q.Get("file_type"),
		Search:   q.Get("search"),
		Page:     queryInt(r, "page", 1),
		PerPage:  queryInt(r, "per_page", 20),
	}
	if raw := q.Get("category_ids"); raw != "" {
		filter.CategoryIDs = strings.Split(raw, ",")
	}
	list, err := h.service.ListMedia(r.Context(), filter)
	if err != nil {
		respondServiceError(w, r, err, "Failed to retrieve media")
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// Upload stores a multipart "file" part with optional alt_text, description,
// is_public and category_ids form values.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(services.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	part, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer part.Close()

	upload := models.MediaUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		AltText:     r.FormValue("alt_text"),
		Description: r.FormValue("description"),
		IsPublic:    true,
	}
	if raw := r.FormValue("is_public"); raw != "" {
		upload.IsPublic, _ = strconv.ParseBool(raw)
	}
	if raw := r.FormValue("category_ids"); raw != "" {
		upload.CategoryIDs = strings.Split(raw, ",")
	}

	file, err := h.service.Upload(r.Context(), upload, part)
	if err != nil {
		respondServiceError(w, r, err, "Failed to upload file")
		return
	}
	respondJSON(w, http.StatusCreated, file)
}

// AddURL registers an externally hosted file.
func (h *MediaHandler) AddURL(w http.ResponseWriter, r *http.Request) {
	var payload models.MediaURLInput
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	file, err := h.service.AddURL(r.Context(), payload)
	if err != nil {
		respondServiceError(w, r, err, "Failed to add media URL")
		return
	}
	respondJSON(w, http.StatusCreated, file)
}

func (h *MediaHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload models.MediaUpdate
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	file, err := h.service.UpdateMedia(r.Context(), chi.URLParam(r, "id"), payload)
	if err != nil {
		respondServiceError(w, r, err, "Failed to update media file")
		return
	}
	respondJSON(w, http.StatusOK, file)
}

func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteMedia(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err, "Failed to delete media file")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Media file deleted successfully"})
}

// Serve streams a public local file or redirects to an external one.
func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	file, f, err := h.service.OpenMedia(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to serve media file")
		return
	}
	if f == nil {
		http.Redirect(w, r, file.FileURL, http.StatusFound)
		return
	}
	defer f.Close()

	modified := file.CreatedAt
	if file.UpdatedAt != nil {
		modified = *file.UpdatedAt
	}
	w.Header().Set("Content-Type", file.MimeType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Content-Disposition", "inline; filename=\""+strings.ReplaceAll(file.OriginalFilename, "\"", "")+"\"")
	http.ServeContent(w, r, file.Filename, modified, f)
}

func (h *MediaHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		respondServiceError(w, r, err, "Failed to retrieve media categories")
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

func (h *MediaHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var payload models.MediaCategoryInput
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	category, err := h.service.CreateCategory(r.Context(), payload)
	if err != nil {
		respondServiceError(w, r, err, "Failed to create media category")
		return
	}
	respondJSON(w, http.StatusCreated, category)
}
