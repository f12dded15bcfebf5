// Package web serves the public site and the admin dashboard. Every read and
// write goes through the content API.
package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/webempresa/internal/api"
	"github.com/isdelr/webempresa/internal/apiclient"
)

//go:embed templates/*.html
var templateFS embed.FS

// Options configures the site.
type Options struct {
	SecureCookies bool
}

// Server renders the site pages.
type Server struct {
	api    *apiclient.Client
	pages  map[string]*template.Template
	secure bool
}

// New parses the templates and returns a site backed by client.
func New(client *apiclient.Client, opts Options) (*Server, error) {
	pages, err := parseTemplates(templateFS)
	if err != nil {
		return nil, err
	}
	return &Server{api: client, pages: pages, secure: opts.SecureCookies}, nil
}

func parseTemplates(fsys fs.FS) (map[string]*template.Template, error) {
	names, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template)
	for _, name := range names {
		base := strings.TrimPrefix(name, "templates/")
		if base == "layout.html" {
			continue
		}
		t, err := template.New(base).Funcs(funcs).ParseFS(fsys, "templates/layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		pages[strings.TrimSuffix(base, ".html")] = t
	}
	return pages, nil
}

// Routes builds the site router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(AdminGate)

	r.Get("/", s.home)
	r.Get("/nosotros", s.publicPage("about", "about"))
	r.Get("/historia", s.publicPage("history", "history"))
	r.Get("/clientes", s.clients)
	r.Get("/precios", s.prices)
	r.Get("/contacto", s.contactForm)
	r.Post("/contacto", s.contactSubmit)
	r.Get("/noticias", s.newsList)
	r.Get("/noticias/{slug}", s.newsDetail)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/login", s.loginPage)
		r.Post("/login", s.login)

		r.Group(func(r chi.Router) {
			r.Use(s.loadSession)
			r.Post("/logout", s.logout)
			r.Post("/edit-mode", s.toggleEditMode)
			r.Get("/", s.dashboard)
			r.Get("/company", s.companyForm)
			r.Post("/company", s.companySave)
			r.Get("/pages", s.pageList)
			r.Get("/pages/{key}", s.pageEditor)
			r.Post("/pages/{key}/sections/{section}", s.sectionSave)
			r.Get("/password", s.passwordForm)
			r.Post("/password", s.passwordSave)
			r.Get("/media", s.mediaLibrary)
			r.Post("/media/upload", s.mediaUpload)
			r.Post("/media/url", s.mediaAddURL)
			r.Post("/media/{id}/delete", s.mediaDelete)

			newsResource().mount(r, s)
			planResource().mount(r, s)
			testimonialResource().mount(r, s)
			faqResource().mount(r, s)
			userResource().mount(r, s)
			contactResource().mount(r, s)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, http.StatusNotFound, "error", pageData{Title: "Página no encontrada", Error: "La página que buscas no existe."})
	})
	return r
}

// pageData is what every template receives.
type pageData struct {
	Title    string
	Session  *session
	EditMode bool
	Flash    string
	Error    string
	Path     string // current request, the edit-mode toggle returns here
	Data     interface{}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	t, ok := s.pages[page]
	if !ok {
		log.Error().Str("page", page).Msg("Unknown template")
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	if data.Session == nil {
		data.Session = sessionFrom(r.Context())
	}
	if data.Flash == "" {
		data.Flash = r.URL.Query().Get("ok")
	}
	if data.Path == "" {
		data.Path = r.URL.Path
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		log.Error().Err(err).Str("page", page).Msg("Failed to render template")
	}
}

var funcs = template.FuncMap{
	"str": func(v interface{}) string {
		if v == nil {
			return ""
		}
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	},
	"date": func(t interface{}) string {
		switch v := t.(type) {
		case time.Time:
			return v.Format("02/01/2006")
		case *time.Time:
			if v != nil {
				return v.Format("02/01/2006")
			}
		}
		return ""
	},
	"datetime": func(t time.Time) string { return t.Format("02/01/2006 15:04") },
	"sections": orderedSections,
	"text": func(section map[string]interface{}, key string) string {
		if s, ok := section[key].(string); ok {
			return s
		}
		return ""
	},
	"list": func(section map[string]interface{}, key string) []interface{} {
		l, _ := section[key].([]interface{})
		return l
	},
	"asMap": func(v interface{}) map[string]interface{} {
		m, _ := v.(map[string]interface{})
		return m
	},
	"paragraphs": func(s string) []string {
		var out []string
		for _, p := range strings.Split(s, "\n") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	},
	"stars": func(n int) string { return strings.Repeat("★", n) + strings.Repeat("☆", 5-n) },
	"add":   func(a, b int) int { return a + b },
	"deref": func(f *float64) float64 {
		if f == nil {
			return 0
		}
		return *f
	},
}

// Section is one top-level key of a page's content.
type Section struct {
	Name string
	Data map[string]interface{}
}

// orderedSections lists the object sections of content, hero first then by name.
func orderedSections(content map[string]interface{}) []Section {
	var out []Section
	for name, v := range content {
		if m, ok := v.(map[string]interface{}); ok {
			out = append(out, Section{Name: name, Data: m})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if (out[i].Name == "hero") != (out[j].Name == "hero") {
			return out[i].Name == "hero"
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func prettyJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}
