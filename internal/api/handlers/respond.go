package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/webempresa/internal/services"
)

// respondJSON writes v as JSON with the given status.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondError writes {"detail": detail}.
func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}

// respondServiceError maps the service sentinel errors to HTTP answers and
// logs anything unexpected.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		respondError(w, http.StatusNotFound, capitalize(err.Error()))
	case errors.Is(err, services.ErrConflict):
		respondError(w, http.StatusConflict, capitalize(err.Error()))
	case errors.Is(err, services.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, capitalize(err.Error()))
	case errors.Is(err, services.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", "Bearer")
		respondError(w, http.StatusUnauthorized, "Incorrect username or password")
	case errors.Is(err, services.ErrTooLarge):
		respondError(w, http.StatusRequestEntityTooLarge, capitalize(err.Error()))
	case errors.Is(err, services.ErrInactiveUser):
		respondError(w, http.StatusBadRequest, "Inactive user")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg(msg)
		respondError(w, http.StatusInternalServerError, msg)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if c := s[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + s[1:]
	}
	return s
}

// queryInt reads an integer query parameter, returning def when absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return v
}

// queryBool reads an optional boolean query parameter.
func queryBool(r *http.Request, name string) *bool {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &b
}
