package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/webempresa/internal/auth"
	"github.com/isdelr/webempresa/internal/services"
)

// cookieMaxAge is how long the browser keeps the token cookie.
const cookieMaxAge = 7 * 24 * time.Hour

// AuthHandler handles login, logout and the current-user endpoint.
type AuthHandler struct {
	users         services.UserServiceProvider
	tokens        *auth.Tokenizer
	secureCookies bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users services.UserServiceProvider, tokens *auth.Tokenizer, secureCookies bool) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, secureCookies: secureCookies}
}

// LoginPayload defines the structure for login requests. Username may also be an email.
type LoginPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is the answer of a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Login authenticates the user, returns a bearer token and sets the token cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}

	user, err := h.users.AuthenticateUser(r.Context(), payload.Username, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Msg("Failed authentication attempt")
		respondServiceError(w, r, err, "Failed to authenticate")
		return
	}

	token, err := h.tokens.GenerateJWT(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	log.Info().Str("username", user.Username).Msg("Login successful")
	respondJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(h.tokens.TTL().Seconds()),
	})
}

// Logout clears the token cookies. Tokens are stateless, so nothing is revoked.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{auth.CookieName, auth.LegacyCookieName} {
		http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1, SameSite: http.SameSiteLaxMode})
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// GetMe returns the authenticated user.
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user from context")
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	user.PrepareForAPI()
	respondJSON(w, http.StatusOK, user)
}
