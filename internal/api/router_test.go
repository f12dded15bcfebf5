package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/webempresa/internal/auth"
	"github.com/isdelr/webempresa/internal/database"
	"github.com/isdelr/webempresa/internal/mail"
	"github.com/isdelr/webempresa/internal/models"
	"github.com/isdelr/webempresa/internal/services"
	"github.com/isdelr/webempresa/internal/websocket"
)

type fakeHealth struct{}

func (fakeHealth) Latest(context.Context) (models.HealthSnapshot, error) {
	return models.HealthSnapshot{Hostname: "test", Status: "healthy"}, nil
}

type testAPI struct {
	handler http.Handler
	users   services.UserServiceProvider
	mailer  *mail.Console
}

func setup(t *testing.T) *testAPI {
	t.Helper()
	db, err := database.New("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	events := services.NewEventService(db, nil)
	company := services.NewCompanyService(db, events)
	mailer := mail.NewConsoleMock()
	users := services.NewUserService(db, events)

	svc := Services{
		Users:        users,
		News:         services.NewNewsService(db, events),
		Plans:        services.NewPlanService(db, events),
		Testimonials: services.NewTestimonialService(db, events),
		FAQs:         services.NewFAQService(db, events),
		Company:      company,
		Contact:      services.NewContactService(db, events, mailer, "admin@example.com"),
		Pages:        services.NewPageContentService(db, events),
		Dashboard:    services.NewDashboardService(db, events, company),
		Media:        services.NewMediaService(db, events, t.TempDir(), "http://api.test"),
		Health:       fakeHealth{},
	}
	router := NewRouter(svc, Options{Tokens: auth.NewTokenizer("test-secret", time.Hour), Hub: hub})
	return &testAPI{handler: router, users: users, mailer: mailer}
}

func (a *testAPI) createUser(t *testing.T, email, password string, admin bool) models.User {
	t.Helper()
	role := models.RoleViewer
	if admin {
		role = models.RoleAdmin
	}
	user, err := a.users.CreateUser(context.Background(), services.UserInput{Email: email, Password: password, Role: role})
	require.NoError(t, err)
	return user
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/auth/login/", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tok map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	return tok["access_token"].(string)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestLogin(t *testing.T) {
	a := setup(t)
	a.createUser(t, "admin@example.com", "password123", true)

	rec := a.do(t, http.MethodPost, "/api/v1/auth/login/", "", map[string]string{"username": "admin@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code)

	var tok map[string]interface{}
	decode(t, rec, &tok)
	assert.Equal(t, "bearer", tok["token_type"])
	assert.EqualValues(t, 3600, tok["expires_in"])

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Equal(t, tok["access_token"], cookie.Value)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	me := a.do(t, http.MethodGet, "/api/v1/auth/me/", tok["access_token"].(string), nil)
	require.Equal(t, http.StatusOK, me.Code)
	var user models.User
	decode(t, me, &user)
	assert.Equal(t, "admin@example.com", user.Email)
	assert.True(t, user.IsAdmin)
	assert.NotContains(t, me.Body.String(), "password")
}

func TestLogin_Failures(t *testing.T) {
	a := setup(t)
	u := a.createUser(t, "viewer@example.com", "password123", false)
	_, err := a.users.ToggleStatus(context.Background(), u.ID, "someone-else")
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		password string
		status   int
	}{
		{"wrong password", "viewer@example.com", "nope-nope", http.StatusUnauthorized},
		{"unknown user", "ghost@example.com", "password123", http.StatusUnauthorized},
		{"inactive user", "viewer@example.com", "password123", http.StatusBadRequest},
		{"missing password", "viewer@example.com", "", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, http.MethodPost, "/api/v1/auth/login/", "", map[string]string{"username": tt.username, "password": tt.password})
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"detail"`)
		})
	}
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	a := setup(t)
	a.createUser(t, "viewer@example.com", "password123", false)
	token := a.login(t, "viewer@example.com", "password123")

	for _, path := range []string{"/api/v1/users/", "/api/admin/news/", "/api/v1/dashboard/stats/", "/api/v1/page-content/admin/"} {
		assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodGet, path, token, nil).Code, path)
		assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, path, "", nil).Code, path)
	}
	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, "/api/v1/auth/me/", "garbage", nil).Code)
}

func TestChangePassword(t *testing.T) {
	a := setup(t)
	a.createUser(t, "viewer@example.com", "password123", false)
	token := a.login(t, "viewer@example.com", "password123")

	rec := a.do(t, http.MethodPut, "/api/v1/users/me/password/", token,
		map[string]string{"current_password": "wrong-one", "new_password": "newpassword1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPut, "/api/v1/users/me/password/", token,
		map[string]string{"current_password": "password123", "new_password": "newpassword1"})
	assert.Equal(t, http.StatusOK, rec.Code)
	a.login(t, "viewer@example.com", "newpassword1")
}

func TestNews_AdminAndPublic(t *testing.T) {
	a := setup(t)
	a.createUser(t, "admin@example.com", "password123", true)
	token := a.login(t, "admin@example.com", "password123")

	rec := a.do(t, http.MethodPost, "/api/admin/news/", token, models.NewsInput{Title: "Lanzamos la versión 2", Content: "..."})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var draft models.NewsArticle
	decode(t, rec, &draft)
	assert.Equal(t, "lanzamos-la-version-2", draft.Slug)

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/api/public/news/"+draft.Slug+"/", "", nil).Code)

	rec = a.do(t, http.MethodPut, "/api/admin/news/"+draft.ID+"/", token,
		models.NewsInput{Title: draft.Title, Content: "...", Status: models.NewsPublished})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/public/news/"+draft.Slug+"/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var published models.NewsArticle
	decode(t, rec, &published)
	assert.NotNil(t, published.PublishedAt)

	var list []models.NewsArticle
	decode(t, a.do(t, http.MethodGet, "/api/public/news/", "", nil), &list)
	assert.Len(t, list, 1)

	rec = a.do(t, http.MethodPost, "/api/admin/news/", token, map[string]string{"content": "no title"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var verr map[string]interface{}
	decode(t, rec, &verr)
	assert.Contains(t, verr["errors"], "title")
}

func TestPageContent_SectionUpdate(t *testing.T) {
	a := setup(t)
	a.createUser(t, "admin@example.com", "password123", true)
	token := a.login(t, "admin@example.com", "password123")

	rec := a.do(t, http.MethodPost, "/api/v1/page-content/admin/", token, models.PageContentCreate{
		PageKey: "homepage",
		Title:   "Inicio",
		ContentData: map[string]interface{}{
			"hero":  map[string]interface{}{"title": "Hola"},
			"about": map[string]interface{}{"title": "Nosotros"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/api/v1/page-content/admin/", token, models.PageContentCreate{PageKey: "blog", Title: "Blog"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPut, "/api/v1/page-content/admin/homepage/sections/hero/", token, map[string]interface{}{"title": "Adiós"})
	require.Equal(t, http.StatusOK, rec.Code)

	var page models.PageContent
	decode(t, a.do(t, http.MethodGet, "/api/v1/page-content/public/homepage/", "", nil), &page)
	assert.Equal(t, "Adiós", page.Section("hero")["title"])
	assert.Equal(t, "Nosotros", page.Section("about")["title"])
}

func TestContact_Flow(t *testing.T) {
	a := setup(t)
	a.createUser(t, "admin@example.com", "password123", true)
	token := a.login(t, "admin@example.com", "password123")

	rec := a.do(t, http.MethodPost, "/api/v1/contact/public/", "", models.ContactInput{
		Name: "Ana", Email: "ana@example.com", Subject: "Demo", Message: "Quiero una demo",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var msg models.ContactMessage
	decode(t, rec, &msg)
	assert.Equal(t, models.ContactNew, msg.Status)
	assert.Len(t, a.mailer.Sent(), 1)

	decode(t, a.do(t, http.MethodGet, "/api/v1/contact/admin/"+msg.ID+"/", token, nil), &msg)
	assert.Equal(t, models.ContactRead, msg.Status)

	response := "Te escribimos mañana"
	rec = a.do(t, http.MethodPut, "/api/admin/contact-messages/"+msg.ID+"/", token, models.ContactUpdate{AdminResponse: &response})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &msg)
	assert.Equal(t, models.ContactResponded, msg.Status)
	assert.NotNil(t, msg.RespondedAt)
	assert.Len(t, a.mailer.Sent(), 2)

	bad := "lost"
	rec = a.do(t, http.MethodPut, "/api/admin/contact-messages/"+msg.ID+"/", token, models.ContactUpdate{Status: &bad})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDashboardWidgets(t *testing.T) {
	a := setup(t)
	a.createUser(t, "admin@example.com", "password123", true)
	token := a.login(t, "admin@example.com", "password123")

	var cards []models.StatCard
	decode(t, a.do(t, http.MethodGet, "/api/v1/dashboard/stats/", token, nil), &cards)
	assert.Len(t, cards, 4)

	var snap models.HealthSnapshot
	decode(t, a.do(t, http.MethodGet, "/api/v1/dashboard/health/", token, nil), &snap)
	assert.Equal(t, "healthy", snap.Status)

	var infra models.InfrastructureStatus
	decode(t, a.do(t, http.MethodGet, "/api/v1/dashboard/infrastructure/", token, nil), &infra)
	assert.False(t, infra.Available)
	assert.NotNil(t, infra.Containers)

	var events []models.Event
	decode(t, a.do(t, http.MethodGet, "/api/v1/dashboard/activity/?limit=5", token, nil), &events)
	assert.NotEmpty(t, events)
}

func TestPublicEndpoints(t *testing.T) {
	a := setup(t)

	var info models.CompanyInfo
	rec := a.do(t, http.MethodGet, "/api/public/company/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &info)
	assert.NotEmpty(t, info.CompanyName)

	var home models.HomepageContent
	decode(t, a.do(t, http.MethodGet, "/api/public/homepage/", "", nil), &home)
	require.NotNil(t, home.CompanyInfo)

	var stats models.PublicStats
	decode(t, a.do(t, http.MethodGet, "/api/public/stats/", "", nil), &stats)
	assert.Zero(t, stats.TotalArticles)

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodPost, "/api/public/faq/missing/helpful/", "", nil).Code)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/health", "", nil).Code)
}

func TestAdminLists_StatusFilter(t *testing.T) {
	a := setup(t)
	a.createUser(t, "admin@example.com", "password123", true)
	token := a.login(t, "admin@example.com", "password123")

	rec := a.do(t, http.MethodPost, "/api/admin/news/", token, models.NewsInput{Title: "Borrador", Content: "..."})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	for _, subject := range []string{"Uno", "Dos"} {
		rec = a.do(t, http.MethodPost, "/api/v1/contact/public/", "", models.ContactInput{
			Name: "Ana", Email: "ana@example.com", Subject: subject, Message: "Hola",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	var articles []models.NewsArticle
	decode(t, a.do(t, http.MethodGet, "/api/admin/news/?status_filter=published", token, nil), &articles)
	assert.Empty(t, articles)
	decode(t, a.do(t, http.MethodGet, "/api/admin/news/?status_filter=draft", token, nil), &articles)
	assert.Len(t, articles, 1)

	var messages []models.ContactMessage
	decode(t, a.do(t, http.MethodGet, "/api/v1/contact/admin/?status_filter=closed", token, nil), &messages)
	assert.Empty(t, messages)
	decode(t, a.do(t, http.MethodGet, "/api/v1/contact/admin/?status_filter=new", token, nil), &messages)
	assert.Len(t, messages, 2)
	decode(t, a.do(t, http.MethodGet, "/api/v1/contact/admin/", token, nil), &messages)
	assert.Len(t, messages, 2)
}

func TestUsers_PartialUpdateAndSelfProtection(t *testing.T) {
	a := setup(t)
	admin := a.createUser(t, "admin@example.com", "password123", true)
	token := a.login(t, "admin@example.com", "password123")

	rec := a.do(t, http.MethodPut, "/api/v1/users/"+admin.ID+"/", token, map[string]string{"first_name": "Alba"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var user models.User
	decode(t, rec, &user)
	assert.Equal(t, "Alba", user.FirstName)
	assert.Equal(t, "admin@example.com", user.Email)
	assert.Equal(t, models.RoleAdmin, user.Role)

	rec = a.do(t, http.MethodPut, "/api/v1/users/"+admin.ID+"/", token, map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodDelete, "/api/v1/users/"+admin.ID+"/", token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPut, "/api/v1/users/"+admin.ID+"/toggle-status/", token, nil).Code)
}

func TestMedia_UploadServeAndDelete(t *testing.T) {
	a := setup(t)
	a.createUser(t, "admin@example.com", "password123", true)
	a.createUser(t, "viewer@example.com", "password123", false)
	admin := a.login(t, "admin@example.com", "password123")
	viewer := a.login(t, "viewer@example.com", "password123")

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewGray(image.Rect(0, 0, 8, 5))))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "banner.png")
	require.NoError(t, err)
	_, err = part.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("alt_text", "Banner"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/media/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+viewer)
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var file models.MediaFile
	decode(t, rec, &file)
	assert.Equal(t, "image/png", file.MimeType)
	assert.Equal(t, "Banner", file.AltText)
	assert.Equal(t, "http://api.test/api/media/"+file.ID, file.PublicURL)
	require.NotNil(t, file.Width)
	assert.Equal(t, 8, *file.Width)

	// served without authentication
	rec = a.do(t, http.MethodGet, "/api/media/"+file.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, img.Bytes(), rec.Body.Bytes())

	var list models.MediaList
	decode(t, a.do(t, http.MethodGet, "/api/media/?file_type=image", viewer, nil), &list)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, "/api/media/", "", nil).Code)

	rec = a.do(t, http.MethodPost, "/api/media/url", viewer, map[string]string{"url": "not a url", "file_type": "image"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodDelete, "/api/media/"+file.ID, viewer, nil).Code)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodDelete, "/api/media/"+file.ID, admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/api/media/"+file.ID, "", nil).Code)

	rec = a.do(t, http.MethodPost, "/api/media/categories/", admin, map[string]string{"name": "Logos", "color": "#112233"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = a.do(t, http.MethodPost, "/api/media/categories/", admin, map[string]string{"name": "Logos"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestMedia_RejectsDisallowedType(t *testing.T) {
	a := setup(t)
	a.createUser(t, "admin@example.com", "password123", true)
	token := a.login(t, "admin@example.com", "password123")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "notas.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("solo texto"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/media/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}
