package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/webempresa/internal/models"
	"github.com/isdelr/webempresa/internal/services"
)

type stubUsers map[string]models.User

func (s stubUsers) GetUserByID(_ context.Context, id string) (models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return models.User{}, services.ErrNotFound
}

var (
	admin    = models.User{ID: "u-admin", Username: "admin", Role: models.RoleAdmin, IsActive: true}
	viewer   = models.User{ID: "u-viewer", Username: "viewer", Role: models.RoleViewer, IsActive: true}
	inactive = models.User{ID: "u-off", Username: "off", IsActive: false}
)

func protected(tokens *Tokenizer) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := UserFromContext(r.Context())
		actor := services.ActorFrom(r.Context())
		if actor == nil || *actor != user.ID {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return JWTMiddleware(tokens, stubUsers{admin.ID: admin, viewer.ID: viewer, inactive.ID: inactive})(RequireAdmin(ok))
}

func TestTokenizer_RoundTrip(t *testing.T) {
	tokens := NewTokenizer("secret", time.Hour)
	token, err := tokens.GenerateJWT(admin)
	require.NoError(t, err)

	claims, err := tokens.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, admin.ID, claims.UserID)
	assert.True(t, claims.IsAdmin)

	_, err = NewTokenizer("other", time.Hour).ValidateJWT(token)
	assert.Error(t, err)
}

func TestTokenizer_Expired(t *testing.T) {
	tokens := NewTokenizer("secret", time.Minute)
	tokens.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := tokens.GenerateJWT(admin)
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.ValidateJWT(token)
	assert.Error(t, err)
}

func TestJWTMiddleware(t *testing.T) {
	tokens := NewTokenizer("secret", time.Hour)
	sign := func(u models.User) string {
		tok, err := tokens.GenerateJWT(u)
		require.NoError(t, err)
		return tok
	}
	h := protected(tokens)

	tests := []struct {
		name     string
		prepare  func(r *http.Request)
		wantCode int
	}{
		{"no token", func(r *http.Request) {}, http.StatusUnauthorized},
		{"garbage token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"unknown user", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+sign(models.User{ID: "ghost", Username: "ghost"}))
		}, http.StatusUnauthorized},
		{"inactive user", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+sign(inactive)) }, http.StatusBadRequest},
		{"non admin", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+sign(viewer)) }, http.StatusForbidden},
		{"admin header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+sign(admin)) }, http.StatusNoContent},
		{"admin cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: sign(admin)}) }, http.StatusNoContent},
		{"admin legacy cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: LegacyCookieName, Value: sign(admin)})
		}, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/news/", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode >= 400 {
				assert.Contains(t, rec.Body.String(), `"detail"`)
			}
		})
	}
}
