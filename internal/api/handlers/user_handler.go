package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/webempresa/internal/auth"
	"github.com/isdelr/webempresa/internal/models"
	"github.com/isdelr/webempresa/internal/services"
)

// UserHandler handles HTTP requests for user management.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// List returns a page of users, optionally filtered by search text and role.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListUsers(r.Context(), models.UserFilter{
		Page:    queryInt(r, "page", 1),
		PerPage: queryInt(r, "per_page", 20),
		Search:  r.URL.Query().Get("search"),
		Role:    r.URL.Query().Get("role"),
	})
	if err != nil {
		respondServiceError(w, r, err, "Failed to retrieve users")
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// Create handles new user creation by an admin.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload services.UserInput
	if !decodeAndValidate(w, r, &payload) {
		return
	}

	user, err := h.service.CreateUser(r.Context(), payload)
	if err != nil {
		respondServiceError(w, r, err, "Failed to create user")
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

// Get handles retrieving a user by their ID.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.service.GetUserByID(r.Context(), id)
	if err != nil {
		log.Warn().Err(err).Str("user_id", id).Msg("Failed to get user by ID")
		respondServiceError(w, r, err, "Failed to retrieve user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// Update handles updating a user's profile information.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var payload services.UserUpdate
	if !decodeAndValidate(w, r, &payload) {
		return
	}

	user, err := h.service.UpdateUser(r.Context(), id, payload)
	if err != nil {
		respondServiceError(w, r, err, "Failed to update user")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// Delete handles the permanent deletion of a user account.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	me, _ := auth.UserFromContext(r.Context())
	if err := h.service.DeleteUser(r.Context(), id, me.ID); err != nil {
		respondServiceError(w, r, err, "Failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleStatus activates or deactivates an account.
func (h *UserHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	me, _ := auth.UserFromContext(r.Context())
	user, err := h.service.ToggleStatus(r.Context(), id, me.ID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to change user status")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// ChangePasswordPayload is the body of a password change.
type ChangePasswordPayload struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// ChangePassword handles changing the authenticated user's password.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.UserFromContext(r.Context())
	var payload ChangePasswordPayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}

	if err := h.service.UpdatePassword(r.Context(), me.ID, payload.CurrentPassword, payload.NewPassword); err != nil {
		log.Warn().Err(err).Str("user_id", me.ID).Msg("Failed to change password")
		respondServiceError(w, r, err, "Failed to change password")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}
