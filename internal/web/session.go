package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/webempresa/internal/apiclient"
	"github.com/isdelr/webempresa/internal/auth"
	"github.com/isdelr/webempresa/internal/models"
)

// Cookie names of the site.
const (
	userCookie     = "user"
	editModeCookie = "editMode"
	loginPath      = "/admin/login"
)

type session struct {
	User   models.User
	Client *apiclient.Client
}

type sessionKey struct{}

func sessionFrom(ctx context.Context) *session {
	s, _ := ctx.Value(sessionKey{}).(*session)
	return s
}

// tokenCookie returns the API token carried by the authToken cookie, or the
// access_token cookie when that one is missing.
func tokenCookie(r *http.Request) string {
	for _, name := range []string{auth.CookieName, auth.LegacyCookieName} {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return c.Value
		}
	}
	return ""
}

// AdminGate redirects /admin/* requests without a token cookie to the login page.
func AdminGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if (p == "/admin" || strings.HasPrefix(p, "/admin/")) && p != loginPath && tokenCookie(r) == "" {
			http.Redirect(w, r, loginPath, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loadSession resolves the cookie token into a user through the API.
func (s *Server) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.resolve(r)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if !sess.User.Admin() {
			clearSession(w)
			s.render(w, r, http.StatusForbidden, "error", pageData{Title: "Acceso denegado", Error: "No tienes permisos para acceder al panel."})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	})
}

func (s *Server) resolve(r *http.Request) (*session, error) {
	token := tokenCookie(r)
	if token == "" {
		return nil, apiclient.ErrUnauthorized
	}
	client := s.api.WithToken(token)
	user, err := client.Me(r.Context())
	if err != nil {
		return nil, err
	}
	return &session{User: user, Client: client}, nil
}

// optionalSession returns the visitor's session, or nil for anonymous visitors and
// any lookup failure.
func (s *Server) optionalSession(r *http.Request) *session {
	sess, err := s.resolve(r)
	if err != nil {
		return nil
	}
	return sess
}

// editing reports whether inline edit links should show. The cookie is only
// honoured for admins.
func (s *Server) editing(r *http.Request) (*session, bool) {
	c, err := r.Cookie(editModeCookie)
	if err != nil || c.Value != "true" {
		return nil, false
	}
	sess := s.optionalSession(r)
	if sess == nil || !sess.User.Admin() {
		return nil, false
	}
	return sess, true
}

func (s *Server) toggleEditMode(w http.ResponseWriter, r *http.Request) {
	on := true
	if c, err := r.Cookie(editModeCookie); err == nil && c.Value == "true" {
		on = false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     editModeCookie,
		Value:    map[bool]string{true: "true", false: "false"}[on],
		Path:     "/",
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, safeReturn(r.FormValue("next"), "/"), http.StatusSeeOther)
}

func (s *Server) setSession(w http.ResponseWriter, token string, user models.User) {
	for name, value := range map[string]string{auth.CookieName: token, userCookie: url.QueryEscape(user.Username)} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			MaxAge:   7 * 24 * 3600,
			Secure:   s.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func clearSession(w http.ResponseWriter) {
	for _, name := range []string{auth.CookieName, auth.LegacyCookieName, userCookie} {
		http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
	}
}

// fail handles an API error on an admin page. A 401 ends the session.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, apiclient.ErrUnauthorized) {
		clearSession(w)
		http.Redirect(w, r, loginPath, http.StatusFound)
		return
	}

	status := http.StatusBadGateway
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.Code
	} else {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("API call failed")
	}
	s.render(w, r, status, "error", pageData{Title: "Error", Error: message(err, "No se pudo completar la operación.")})
}

// message returns the API's detail for err, or fallback.
func message(err error, fallback string) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		if fields := apiErr.FieldErrors(); len(fields) > 0 {
			parts := make([]string, 0, len(fields))
			for k, v := range fields {
				parts = append(parts, k+": "+v)
			}
			sort.Strings(parts)
			return apiErr.Message + " (" + strings.Join(parts, "; ") + ")"
		}
		return apiErr.Message
	}
	return fallback
}

// safeReturn only allows local paths as redirect targets.
func safeReturn(next, fallback string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return fallback
}
