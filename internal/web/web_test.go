package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/webempresa/internal/apiclient"
	"github.com/isdelr/webempresa/internal/auth"
	"github.com/isdelr/webempresa/internal/models"
)

// fakeAPI answers the content API calls the site makes.
type fakeAPI struct {
	mu       sync.Mutex
	sections map[string]map[string]interface{}
	failing  map[string]bool
	contacts []models.ContactInput

	news      map[string]models.NewsArticle
	newsSeq   int
	plans     []models.PlanInput
	userSaves []map[string]interface{}
	passwords []map[string]string
	company   *models.CompanyInput
	media     []models.MediaFile
	uploads   []string // "filename|alt_text|content"
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) user(r *http.Request) (models.User, bool) {
	switch strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ") {
	case "admin-token":
		return models.User{ID: "1", Username: "admin", Role: models.RoleAdmin, IsActive: true, IsAdmin: true}, true
	case "viewer-token":
		return models.User{ID: "2", Username: "viewer", Role: models.RoleViewer, IsActive: true}, true
	}
	return models.User{}, false
}

func (f *fakeAPI) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := f.user(r); !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
			return
		}
		if f.failing[r.URL.Path] {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "boom"})
			return
		}
		next(w, r)
	}
}

func (f *fakeAPI) routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/api/v1/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["username"] != "admin" || body["password"] != "secret123" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect username or password"})
			return
		}
		writeJSON(w, http.StatusOK, apiclient.Token{AccessToken: "admin-token", TokenType: "bearer", ExpiresIn: 3600})
	})
	r.Get("/api/v1/auth/me/", f.authed(func(w http.ResponseWriter, r *http.Request) {
		u, _ := f.user(r)
		writeJSON(w, http.StatusOK, u)
	}))
	r.Get("/api/v1/dashboard/stats/", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []models.StatCard{{Key: "news", Title: "Noticias", Value: "3"}})
	}))
	r.Get("/api/v1/dashboard/activity/", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []models.Event{{ID: "e1", Level: "info", Message: "Page 'about' updated."}})
	}))
	r.Get("/api/v1/dashboard/health/", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.HealthSnapshot{Hostname: "web-1", Status: "healthy"})
	}))
	r.Get("/api/v1/dashboard/infrastructure/", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.InfrastructureStatus{})
	}))
	r.Get("/api/v1/plans/public/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []models.ServicePlan{{ID: "p1", Name: "Plan Básico", PriceMonthly: 29, IsActive: true}})
	})
	r.Get("/api/public/news/{slug}/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Article not found"})
	})
	r.Post("/api/v1/contact/public/", func(w http.ResponseWriter, r *http.Request) {
		var in models.ContactInput
		json.NewDecoder(r.Body).Decode(&in)
		if in.Email == "" {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"detail": "Validation failed",
				"errors": map[string]string{"email": "email is required"},
			})
			return
		}
		f.mu.Lock()
		f.contacts = append(f.contacts, in)
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, models.ContactMessage{ID: "c1", Name: in.Name, Status: models.ContactNew})
	})
	f.editorRoutes(r)
	f.mediaRoutes(r)
	r.Get("/api/v1/page-content/public/{key}/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, f.page(chi.URLParam(r, "key")))
	})
	r.Get("/api/v1/page-content/admin/{key}/", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, f.page(chi.URLParam(r, "key")))
	}))
	r.Put("/api/v1/page-content/admin/{key}/sections/{section}/", f.authed(func(w http.ResponseWriter, r *http.Request) {
		var data map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Invalid JSON"})
			return
		}
		f.mu.Lock()
		f.sections[chi.URLParam(r, "section")] = data
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, f.page(chi.URLParam(r, "key")))
	}))
	return r
}

func validationFailed(w http.ResponseWriter, field, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
		"detail": "Validation failed",
		"errors": map[string]string{field: msg},
	})
}

func (f *fakeAPI) editorRoutes(r chi.Router) {
	r.Get("/api/admin/news/", f.authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		out := []models.NewsArticle{}
		for _, a := range f.news {
			out = append(out, a)
		}
		writeJSON(w, http.StatusOK, out)
	}))
	r.Post("/api/admin/news/", f.authed(func(w http.ResponseWriter, r *http.Request) {
		var in models.NewsInput
		json.NewDecoder(r.Body).Decode(&in)
		if in.Title == "" {
			validationFailed(w, "title", "title is required")
			return
		}
		f.mu.Lock()
		f.newsSeq++
		a := models.NewsArticle{ID: fmt.Sprintf("n%d", f.newsSeq), Title: in.Title, Content: in.Content, Status: in.Status,
			Featured: in.Featured, FeaturedImage: in.FeaturedImage}
		f.news[a.ID] = a
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, a)
	}))
	r.Get("/api/admin/news/{id}/", f.authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		a, ok := f.news[chi.URLParam(r, "id")]
		f.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Article not found"})
			return
		}
		writeJSON(w, http.StatusOK, a)
	}))
	r.Put("/api/admin/news/{id}/", f.authed(func(w http.ResponseWriter, r *http.Request) {
		var in models.NewsInput
		json.NewDecoder(r.Body).Decode(&in)
		if in.Title == "" {
			validationFailed(w, "title", "title is required")
			return
		}
		f.mu.Lock()
		a := f.news[chi.URLParam(r, "id")]
		a.Title, a.Content, a.Status, a.Featured = in.Title, in.Content, in.Status, in.Featured
		f.news[a.ID] = a
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, a)
	}))
	r.Delete("/api/admin/news/{id}/", f.authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		delete(f.news, chi.URLParam(r, "id"))
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
	}))

	r.Post("/api/v1/plans/admin/", f.authed(func(w http.ResponseWriter, r *http.Request) {
		var in models.PlanInput
		json.NewDecoder(r.Body).Decode(&in)
		f.mu.Lock()
		f.plans = append(f.plans, in)
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, models.ServicePlan{ID: "p2", Name: in.Name})
	}))

	r.Get("/api/v1/users/{id}/", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.User{ID: chi.URLParam(r, "id"), Username: "root", Email: "root@example.com",
			Role: models.RoleSuperAdmin, IsActive: true, IsStaff: true, IsSuperuser: true})
	}))
	r.Put("/api/v1/users/me/password/", f.authed(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["current_password"] != "secret123" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Incorrect password"})
			return
		}
		f.mu.Lock()
		f.passwords = append(f.passwords, body)
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
	}))
	r.Put("/api/v1/users/{id}/", f.authed(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.userSaves = append(f.userSaves, body)
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, models.User{ID: chi.URLParam(r, "id")})
	}))

	r.Get("/api/admin/company/", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.CompanyInfo{CompanyName: "Web Empresa", Email: "info@webempresa.com"})
	}))
	r.Put("/api/admin/company/", f.authed(func(w http.ResponseWriter, r *http.Request) {
		var in models.CompanyInput
		json.NewDecoder(r.Body).Decode(&in)
		if !strings.Contains(in.Email, "@") {
			validationFailed(w, "email", "email must be a valid email address")
			return
		}
		f.mu.Lock()
		f.company = &in
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, models.CompanyInfo{CompanyName: in.CompanyName})
	}))
}

func (f *fakeAPI) mediaRoutes(r chi.Router) {
	r.Get("/api/media/", f.authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		files := []models.MediaFile{}
		for _, m := range f.media {
			if t := r.URL.Query().Get("file_type"); t == "" || t == m.FileType {
				files = append(files, m)
			}
		}
		writeJSON(w, http.StatusOK, models.MediaList{Files: files, Total: len(files), Page: 1, PerPage: 50, TotalPages: 1})
	}))
	r.Post("/api/media/upload", f.authed(func(w http.ResponseWriter, r *http.Request) {
		part, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "File is required"})
			return
		}
		defer part.Close()
		data, _ := io.ReadAll(part)
		if strings.HasSuffix(header.Filename, ".txt") {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Invalid input: file type text/plain is not allowed"})
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.uploads = append(f.uploads, header.Filename+"|"+r.FormValue("alt_text")+"|"+string(data))
		m := models.MediaFile{ID: fmt.Sprintf("m%d", len(f.media)+1), OriginalFilename: header.Filename, FileType: models.MediaImage,
			IsImage: true, PublicURL: "http://api.test/api/media/" + fmt.Sprintf("m%d", len(f.media)+1)}
		f.media = append(f.media, m)
		writeJSON(w, http.StatusCreated, m)
	}))
	r.Delete("/api/media/{id}", f.authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		kept := f.media[:0]
		for _, m := range f.media {
			if m.ID != chi.URLParam(r, "id") {
				kept = append(kept, m)
			}
		}
		f.media = kept
		writeJSON(w, http.StatusOK, map[string]string{"message": "Media file deleted successfully"})
	}))
}

func (f *fakeAPI) page(key string) models.PageContent {
	f.mu.Lock()
	defer f.mu.Unlock()
	content := models.JSONMap{}
	for k, v := range f.sections {
		content[k] = v
	}
	return models.PageContent{PageKey: key, Title: "Sobre Nosotros", ContentData: content, IsActive: true}
}

type testSite struct {
	api     *fakeAPI
	handler http.Handler
}

func newSite(t *testing.T) *testSite {
	t.Helper()
	fake := &fakeAPI{
		sections: map[string]map[string]interface{}{
			"hero":    {"title": "Sobre Nosotros", "subtitle": "Conoce nuestra historia"},
			"mission": {"title": "Nuestra Misión", "items": []interface{}{"uno", "dos"}},
		},
		failing: map[string]bool{},
		news:    map[string]models.NewsArticle{},
	}
	ts := httptest.NewServer(fake.routes())
	t.Cleanup(ts.Close)

	site, err := New(apiclient.New(ts.URL, nil), Options{})
	require.NoError(t, err)
	return &testSite{api: fake, handler: site.Routes()}
}

func (s *testSite) do(method, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func token(value string) *http.Cookie {
	return &http.Cookie{Name: auth.CookieName, Value: value}
}

func cookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAdminGate(t *testing.T) {
	site := newSite(t)

	rec := site.do(http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, loginPath, rec.Header().Get("Location"))

	rec = site.do(http.MethodGet, "/admin/news", nil)
	assert.Equal(t, http.StatusFound, rec.Code)

	rec = site.do(http.MethodGet, loginPath, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/admin/login"`)

	rec = site.do(http.MethodGet, "/nosotros", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = site.do(http.MethodGet, "/admin", nil, &http.Cookie{Name: auth.LegacyCookieName, Value: "admin-token"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExpiredTokenClearsSession(t *testing.T) {
	site := newSite(t)

	rec := site.do(http.MethodGet, "/admin", nil, token("stale"))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, loginPath, rec.Header().Get("Location"))

	for _, name := range []string{auth.CookieName, userCookie} {
		c := cookie(rec, name)
		require.NotNil(t, c, name)
		assert.Equal(t, "", c.Value)
		assert.Less(t, c.MaxAge, 0)
	}
}

func TestNonAdminIsRejected(t *testing.T) {
	site := newSite(t)
	rec := site.do(http.MethodGet, "/admin", nil, token("viewer-token"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotNil(t, cookie(rec, auth.CookieName))
}

func TestLogin(t *testing.T) {
	site := newSite(t)

	rec := site.do(http.MethodPost, loginPath, url.Values{"username": {"admin"}, "password": {"secret123"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))
	c := cookie(rec, auth.CookieName)
	require.NotNil(t, c)
	assert.Equal(t, "admin-token", c.Value)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.False(t, c.HttpOnly)
	assert.Equal(t, "admin", cookie(rec, userCookie).Value)
}

func TestLogin_Failure(t *testing.T) {
	site := newSite(t)

	rec := site.do(http.MethodPost, loginPath, url.Values{"username": {"admin"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), loginFailed)
	assert.Nil(t, cookie(rec, auth.CookieName))

	rec = site.do(http.MethodPost, loginPath, url.Values{"username": {"admin"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDashboard_WidgetFailureIsLocal(t *testing.T) {
	site := newSite(t)
	site.api.failing["/api/v1/dashboard/stats/"] = true

	rec := site.do(http.MethodGet, "/admin", nil, token("admin-token"))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "boom")
	assert.Contains(t, body, "web-1")
	assert.Contains(t, body, "Page &#39;about&#39; updated.")
}

func TestEditMode(t *testing.T) {
	site := newSite(t)
	edit := &http.Cookie{Name: editModeCookie, Value: "true"}

	rec := site.do(http.MethodGet, "/nosotros", nil, edit)
	assert.NotContains(t, rec.Body.String(), "edit-link\"")

	rec = site.do(http.MethodGet, "/nosotros", nil, edit, token("viewer-token"))
	assert.NotContains(t, rec.Body.String(), `href="/admin/pages/about#section-hero"`)

	rec = site.do(http.MethodGet, "/nosotros", nil, edit, token("admin-token"))
	body := rec.Body.String()
	assert.Contains(t, body, `href="/admin/pages/about#section-hero"`)
	assert.Contains(t, body, `href="/admin/pages/about#section-mission"`)
	assert.Contains(t, body, `name="next" value="/nosotros"`)

	rec = site.do(http.MethodPost, "/admin/edit-mode", url.Values{"next": {"/nosotros"}}, edit, token("admin-token"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/nosotros", rec.Header().Get("Location"))
	assert.Equal(t, "false", cookie(rec, editModeCookie).Value)
}

func TestSectionSave(t *testing.T) {
	site := newSite(t)

	rec := site.do(http.MethodPost, "/admin/pages/about/sections/mission", url.Values{
		"f.title": {"Misión renovada"},
		"j.items": {`["uno", "dos", "tres"]`},
	}, token("admin-token"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/admin/pages/about", loc.Path)
	assert.Equal(t, "Sección guardada", loc.Query().Get("ok"))

	site.api.mu.Lock()
	saved := site.api.sections["mission"]
	site.api.mu.Unlock()
	assert.Equal(t, "Misión renovada", saved["title"])
	assert.Equal(t, []interface{}{"uno", "dos", "tres"}, saved["items"])
}

func TestSectionSave_InvalidJSON(t *testing.T) {
	site := newSite(t)

	rec := site.do(http.MethodPost, "/admin/pages/about/sections/mission", url.Values{
		"f.title": {"Misión"},
		"j.items": {`["uno",`},
	}, token("admin-token"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "no es JSON válido")

	site.api.mu.Lock()
	assert.Equal(t, "Nuestra Misión", site.api.sections["mission"]["title"])
	site.api.mu.Unlock()
}

func TestNotFoundPage(t *testing.T) {
	site := newSite(t)
	rec := site.do(http.MethodGet, "/no-existe", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Página no encontrada")
}

func TestPublicPages_RenderWithoutOptionalParts(t *testing.T) {
	site := newSite(t)

	// The fake answers neither the homepage aggregate nor the stats.
	rec := site.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sobre Nosotros")

	rec = site.do(http.MethodGet, "/precios", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Plan Básico")
}

func TestContactSubmit(t *testing.T) {
	site := newSite(t)

	form := url.Values{"name": {"Ana"}, "email": {"ana@example.com"}, "subject": {"Demo"}, "message": {"Hola"}}
	rec := site.do(http.MethodPost, "/contacto", form)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/contacto?ok="))
	require.Len(t, site.api.contacts, 1)
	assert.Equal(t, "Demo", site.api.contacts[0].Subject)
}

func TestContactSubmit_KeepsValuesOnError(t *testing.T) {
	site := newSite(t)

	form := url.Values{"name": {"Ana"}, "subject": {"Demo"}, "message": {"Hola"}}
	rec := site.do(http.MethodPost, "/contacto", form)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Validation failed (email: email is required)")
	assert.Contains(t, body, `value="Ana"`)
	assert.Empty(t, site.api.contacts)
}

func TestNewsDetail_Missing(t *testing.T) {
	site := newSite(t)

	rec := site.do(http.MethodGet, "/noticias/no-existe", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "La noticia que buscas no existe.")
}

func TestNewsEditor_RoundTrip(t *testing.T) {
	site := newSite(t)
	admin := token("admin-token")

	rec := site.do(http.MethodPost, "/admin/news/new", url.Values{
		"title": {"Lanzamiento"}, "content": {"Texto"}, "status": {models.NewsPublished}, "featured": {"true"},
	}, admin)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/admin/news?ok=Guardado", rec.Header().Get("Location"))
	require.Contains(t, site.api.news, "n1")
	assert.True(t, site.api.news["n1"].Featured)

	rec = site.do(http.MethodGet, "/admin/news", nil, admin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Lanzamiento")

	rec = site.do(http.MethodGet, "/admin/news/n1", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="Lanzamiento"`)
	assert.Contains(t, rec.Body.String(), `action="/admin/news/n1/delete"`)

	rec = site.do(http.MethodPost, "/admin/news/n1", url.Values{"title": {"Lanzamiento 2025"}, "content": {"Texto"}}, admin)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "Lanzamiento 2025", site.api.news["n1"].Title)
	assert.False(t, site.api.news["n1"].Featured, "an unchecked box clears the flag")

	rec = site.do(http.MethodPost, "/admin/news/n1/delete", url.Values{}, admin)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/news?ok=Eliminado", rec.Header().Get("Location"))
	assert.Empty(t, site.api.news)
}

func TestNewsEditor_RejectedSaveKeepsInput(t *testing.T) {
	site := newSite(t)

	rec := site.do(http.MethodPost, "/admin/news/new", url.Values{"title": {""}, "content": {"Texto largo sin título"}}, token("admin-token"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Validation failed (title: title is required)")
	assert.Contains(t, body, "Texto largo sin título")
	assert.Contains(t, body, `action="/admin/news/new"`)
	assert.Empty(t, site.api.news)
}

func TestPlanEditor_ParsesForm(t *testing.T) {
	site := newSite(t)

	rec := site.do(http.MethodPost, "/admin/plans/new", url.Values{
		"name":          {"Plan Pro"},
		"price_monthly": {"29,99"},
		"price_yearly":  {""},
		"features":      {" Soporte 24/7 \n\n Usuarios ilimitados "},
		"is_active":     {"on"},
		"max_users":     {"50"},
	}, token("admin-token"))
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/admin/plans?ok=Guardado", rec.Header().Get("Location"))

	require.Len(t, site.api.plans, 1)
	plan := site.api.plans[0]
	assert.InDelta(t, 29.99, plan.PriceMonthly, 0.001)
	assert.Nil(t, plan.PriceYearly)
	assert.Equal(t, []string{"Soporte 24/7", "Usuarios ilimitados"}, []string(plan.Features))
	assert.True(t, plan.IsActive)
	assert.False(t, plan.IsPopular)
	assert.Equal(t, 50, plan.MaxUsers)
}

func TestUserEditor_SendsOnlyEditedFields(t *testing.T) {
	site := newSite(t)

	rec := site.do(http.MethodGet, "/admin/users/u9", nil, token("admin-token"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="root@example.com"`)

	rec = site.do(http.MethodPost, "/admin/users/u9", url.Values{
		"username": {"root"}, "email": {"root@example.com"}, "first_name": {"Raíz"},
		"role": {models.RoleSuperAdmin}, "is_active": {"true"}, "is_staff": {"true"}, "password": {""},
	}, token("admin-token"))
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	require.Len(t, site.api.userSaves, 1)
	saved := site.api.userSaves[0]
	assert.Equal(t, "Raíz", saved["first_name"])
	assert.Equal(t, true, saved["is_active"])
	assert.NotContains(t, saved, "is_superuser")
	assert.NotContains(t, saved, "password")
}

func TestPasswordChange(t *testing.T) {
	site := newSite(t)
	admin := token("admin-token")

	rec := site.do(http.MethodPost, "/admin/password", url.Values{
		"current_password": {"secret123"}, "new_password": {"nueva-clave-1"}, "confirm_password": {"otra-clave"},
	}, admin)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Las contraseñas no coinciden")
	assert.Empty(t, site.api.passwords)

	rec = site.do(http.MethodPost, "/admin/password", url.Values{
		"current_password": {"wrong"}, "new_password": {"nueva-clave-1"}, "confirm_password": {"nueva-clave-1"},
	}, admin)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Incorrect password")
	assert.Empty(t, site.api.passwords)

	rec = site.do(http.MethodPost, "/admin/password", url.Values{
		"current_password": {"secret123"}, "new_password": {"nueva-clave-1"}, "confirm_password": {"nueva-clave-1"},
	}, admin)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/admin", loc.Path)
	assert.Equal(t, "Contraseña actualizada", loc.Query().Get("ok"))
	require.Len(t, site.api.passwords, 1)
	assert.Equal(t, "nueva-clave-1", site.api.passwords[0]["new_password"])
}

func TestCompanyEditor(t *testing.T) {
	site := newSite(t)
	admin := token("admin-token")
	site.api.media = []models.MediaFile{{ID: "m1", OriginalFilename: "logo.png", FileType: models.MediaImage,
		PublicURL: "http://api.test/api/media/m1"}}

	rec := site.do(http.MethodGet, "/admin/company", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `value="Web Empresa"`)
	assert.Contains(t, body, `list="media-library"`)
	assert.Contains(t, body, `<option value="http://api.test/api/media/m1">logo.png</option>`)

	rec = site.do(http.MethodPost, "/admin/company", url.Values{"company_name": {"Nueva Empresa"}, "email": {"sin-arroba"}}, admin)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "email: email must be a valid email address")
	assert.Contains(t, body, `value="Nueva Empresa"`)
	assert.Nil(t, site.api.company)

	rec = site.do(http.MethodPost, "/admin/company", url.Values{
		"company_name": {"Nueva Empresa"}, "email": {"hola@nueva.com"}, "logo": {"http://api.test/api/media/m1"},
	}, admin)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/company?ok=Guardado", rec.Header().Get("Location"))
	require.NotNil(t, site.api.company)
	assert.Equal(t, "http://api.test/api/media/m1", site.api.company.Logo)
}

func TestNewsForm_PickerFailureIsIgnored(t *testing.T) {
	site := newSite(t)
	site.api.failing["/api/media/"] = true

	rec := site.do(http.MethodGet, "/admin/news/new", nil, token("admin-token"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="featured_image"`)
	assert.NotContains(t, rec.Body.String(), "<datalist")
}

func multipartUpload(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestMediaLibrary(t *testing.T) {
	site := newSite(t)

	body, contentType := multipartUpload(t, "portada.png", "bytes-de-imagen", map[string]string{"alt_text": "Portada"})
	req := httptest.NewRequest(http.MethodPost, "/admin/media/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(token("admin-token"))
	rec := httptest.NewRecorder()
	site.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/admin/media?ok="))
	assert.Equal(t, []string{"portada.png|Portada|bytes-de-imagen"}, site.api.uploads)

	rec = site.do(http.MethodGet, "/admin/media", nil, token("admin-token"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "portada.png")
	assert.Contains(t, rec.Body.String(), `enctype="multipart/form-data"`)

	// the news form now suggests the uploaded image
	rec = site.do(http.MethodGet, "/admin/news/new", nil, token("admin-token"))
	assert.Contains(t, rec.Body.String(), `<option value="http://api.test/api/media/m1">portada.png</option>`)

	rec = site.do(http.MethodPost, "/admin/media/m1/delete", url.Values{}, token("admin-token"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, site.api.media)
}

func TestMediaLibrary_RejectedUpload(t *testing.T) {
	site := newSite(t)

	body, contentType := multipartUpload(t, "notas.txt", "texto", nil)
	req := httptest.NewRequest(http.MethodPost, "/admin/media/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.AddCookie(token("admin-token"))
	rec := httptest.NewRecorder()
	site.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "file type text/plain is not allowed")
	assert.Empty(t, site.api.uploads)
}
