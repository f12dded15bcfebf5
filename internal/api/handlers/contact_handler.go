package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/isdelr/webempresa/internal/models"
	"github.com/isdelr/webempresa/internal/services"
)

// ContactHandler handles the contact form and its admin inbox.
type ContactHandler struct {
	service services.ContactServiceProvider
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(service services.ContactServiceProvider) *ContactHandler {
	return &ContactHandler{service: service}
}

// Submit stores a message from the public contact form.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var payload models.ContactInput
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	msg, err := h.service.SubmitMessage(r.Context(), payload)
	if err != nil {
		respondServiceError(w, r, err, "Failed to send message")
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}

// List returns the inbox, optionally filtered by ?status_filter=.
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	messages, err := h.service.ListMessages(r.Context(), r.URL.Query().Get("status_filter"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to retrieve messages")
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

// Get opens a message.
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	msg, err := h.service.GetMessage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to retrieve message")
		return
	}
	respondJSON(w, http.StatusOK, msg)
}

// Update changes the status or the response of a message.
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload models.ContactUpdate
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	msg, err := h.service.UpdateMessage(r.Context(), chi.URLParam(r, "id"), payload)
	if err != nil {
		respondServiceError(w, r, err, "Failed to update message")
		return
	}
	respondJSON(w, http.StatusOK, msg)
}

// Delete removes a message.
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteMessage(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err, "Failed to delete message")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
