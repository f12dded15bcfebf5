package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/webempresa/internal/models"
	"github.com/isdelr/webempresa/internal/services"
)

// Cookie names holding the access token, in lookup order.
const (
	CookieName       = "authToken"
	LegacyCookieName = "access_token"
)

type contextKey string

// userKey is the context key for the authenticated user.
const userKey = contextKey("user")

// UserLoader loads the account a token belongs to.
type UserLoader interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
}

// UserFromContext returns the user stored by JWTMiddleware.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey).(models.User)
	return user, ok
}

// WithUser stores user in ctx the way JWTMiddleware does.
func WithUser(ctx context.Context, user models.User) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return services.WithActor(ctx, user.ID)
}

// TokenFromRequest reads the bearer token, falling back to the auth cookies.
func TokenFromRequest(r *http.Request) string {
	// 1. Try to get the token from the Authorization header
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok && strings.TrimSpace(token) != "" {
			return strings.TrimSpace(token)
		}
	}

	// 2. If not in header, fall back to the cookies
	for _, name := range []string{CookieName, LegacyCookieName} {
		if cookie, err := r.Cookie(name); err == nil && cookie.Value != "" {
			return cookie.Value
		}
	}
	return ""
}

// JWTMiddleware rejects requests without a valid token for an existing, active user.
func JWTMiddleware(tokens *Tokenizer, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := TokenFromRequest(r)
			if tokenStr == "" {
				writeDetail(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			claims, err := tokens.ValidateJWT(tokenStr)
			if err != nil {
				writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
				return
			}

			user, err := users.GetUserByID(r.Context(), claims.UserID)
			if err != nil {
				if !errors.Is(err, services.ErrNotFound) {
					log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to load token user")
				}
				writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
				return
			}
			if !user.IsActive {
				writeDetail(w, http.StatusBadRequest, "Inactive user")
				return
			}

			log.Debug().Str("username", user.Username).Str("user_id", user.ID).Msg("Authenticated request")
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireAdmin answers 403 unless the authenticated user is an admin.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		if !user.Admin() {
			writeDetail(w, http.StatusForbidden, "Not enough permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
