package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/webempresa/internal/api/handlers"
	"github.com/isdelr/webempresa/internal/auth"
	"github.com/isdelr/webempresa/internal/docker"
	"github.com/isdelr/webempresa/internal/services"
	"github.com/isdelr/webempresa/internal/websocket"
)

// Services groups everything the router wires into handlers.
type Services struct {
	Users        services.UserServiceProvider
	News         services.NewsServiceProvider
	Plans        services.PlanServiceProvider
	Testimonials services.TestimonialServiceProvider
	FAQs         services.FAQServiceProvider
	Company      services.CompanyServiceProvider
	Contact      services.ContactServiceProvider
	Pages        services.PageContentServiceProvider
	Dashboard    services.DashboardServiceProvider
	Media        services.MediaServiceProvider
	Health       handlers.HealthSource
	Infra        docker.InfrastructureProvider
}

// Options configures the router.
type Options struct {
	Tokens         *auth.Tokenizer
	Hub            *websocket.Hub
	AllowedOrigins []string
	SecureCookies  bool
}

// NewRouter creates and configures a new Chi router.
func NewRouter(svc Services, opts Options) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(svc.Users, opts.Tokens, opts.SecureCookies)
	userHandler := handlers.NewUserHandler(svc.Users)
	pageHandler := handlers.NewPageContentHandler(svc.Pages)
	contactHandler := handlers.NewContactHandler(svc.Contact)
	planHandler := handlers.NewPlanHandler(svc.Plans)
	newsHandler := handlers.NewNewsHandler(svc.News)
	testimonialHandler := handlers.NewTestimonialHandler(svc.Testimonials)
	faqHandler := handlers.NewFAQHandler(svc.FAQs)
	companyHandler := handlers.NewCompanyHandler(svc.Company)
	dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard, svc.Health, svc.Infra)
	publicHandler := handlers.NewPublicHandler(svc.Dashboard)
	mediaHandler := handlers.NewMediaHandler(svc.Media)
	wsHandler := handlers.NewWebSocketHandler(opts.Hub, opts.AllowedOrigins)

	authenticated := auth.JWTMiddleware(opts.Tokens, svc.Users)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		respond(w, map[string]string{"message": "Web Empresa API", "version": "1.0.0"})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respond(w, map[string]string{"status": "healthy"})
	})

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login/", authHandler.Login)
			r.Post("/logout/", authHandler.Logout)
			r.With(authenticated).Get("/me/", authHandler.GetMe)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authenticated)
			r.Put("/me/password/", userHandler.ChangePassword)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				r.Get("/", userHandler.List)
				r.Post("/", userHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", userHandler.Get)
					r.Put("/", userHandler.Update)
					r.Delete("/", userHandler.Delete)
					r.Put("/toggle-status/", userHandler.ToggleStatus)
				})
			})
		})

		r.Route("/page-content", func(r chi.Router) {
			r.Get("/public/{key}/", pageHandler.GetPublic)
			r.Route("/admin", func(r chi.Router) {
				r.Use(authenticated, auth.RequireAdmin)
				r.Get("/", pageHandler.List)
				r.Post("/", pageHandler.Create)
				r.Route("/{key}", func(r chi.Router) {
					r.Get("/", pageHandler.Get)
					r.Put("/", pageHandler.Update)
					r.Delete("/", pageHandler.Delete)
					r.Put("/sections/{section}/", pageHandler.UpdateSection)
				})
			})
		})

		r.Route("/contact", func(r chi.Router) {
			r.Post("/public/", contactHandler.Submit)
			r.Route("/admin", func(r chi.Router) {
				r.Use(authenticated, auth.RequireAdmin)
				r.Get("/", contactHandler.List)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", contactHandler.Get)
					r.Put("/", contactHandler.Update)
					r.Delete("/", contactHandler.Delete)
				})
			})
		})

		r.Route("/plans", func(r chi.Router) {
			r.Get("/public/", planHandler.ListPublic)
			r.Route("/admin", func(r chi.Router) {
				r.Use(authenticated, auth.RequireAdmin)
				r.Get("/", planHandler.List)
				r.Post("/", planHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", planHandler.Get)
					r.Put("/", planHandler.Update)
					r.Delete("/", planHandler.Delete)
				})
			})
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(authenticated, auth.RequireAdmin)
			r.Get("/stats/", dashboardHandler.Stats)
			r.Get("/activity/", dashboardHandler.Activity)
			r.Get("/health/", dashboardHandler.Health)
			r.Get("/infrastructure/", dashboardHandler.Infrastructure)
			r.Get("/ws", wsHandler.Serve)
		})
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/news/", newsHandler.ListPublic)
		r.Get("/news/{slug}/", newsHandler.GetBySlug)
		r.Get("/testimonials/", testimonialHandler.ListPublic)
		r.Get("/faqs/", faqHandler.ListPublic)
		r.Post("/faq/{id}/helpful/", faqHandler.MarkHelpful)
		r.Get("/company/", companyHandler.Get)
		r.Post("/contact/", contactHandler.Submit)
		r.Get("/homepage/", publicHandler.Homepage)
		r.Get("/stats/", publicHandler.Stats)
	})

	r.Route("/api/media", func(r chi.Router) {
		r.Get("/{id}", mediaHandler.Serve)
		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/", mediaHandler.List)
			r.Post("/upload", mediaHandler.Upload)
			r.Post("/url", mediaHandler.AddURL)
			r.Put("/{id}", mediaHandler.Update)
			r.Get("/categories/", mediaHandler.ListCategories)
			r.With(auth.RequireAdmin).Delete("/{id}", mediaHandler.Delete)
			r.With(auth.RequireAdmin).Post("/categories/", mediaHandler.CreateCategory)
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(authenticated, auth.RequireAdmin)
		crud(r, "/news", newsHandler.List, newsHandler.Create, newsHandler.Get, newsHandler.Update, newsHandler.Delete)
		crud(r, "/plans", planHandler.List, planHandler.Create, planHandler.Get, planHandler.Update, planHandler.Delete)
		crud(r, "/testimonials", testimonialHandler.List, testimonialHandler.Create,
			testimonialHandler.Get, testimonialHandler.Update, testimonialHandler.Delete)
		crud(r, "/faqs", faqHandler.List, faqHandler.Create, faqHandler.Get, faqHandler.Update, faqHandler.Delete)
		r.Get("/company/", companyHandler.Get)
		r.Put("/company/", companyHandler.Update)
		r.Route("/contact-messages", func(r chi.Router) {
			r.Get("/", contactHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", contactHandler.Get)
				r.Put("/", contactHandler.Update)
				r.Delete("/", contactHandler.Delete)
			})
		})
	})

	return r
}

func crud(r chi.Router, prefix string, list, create, get, update, del http.HandlerFunc) {
	r.Route(prefix, func(r chi.Router) {
		r.Get("/", list)
		r.Post("/", create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", get)
			r.Put("/", update)
			r.Delete("/", del)
		})
	})
}

func respond(w http.ResponseWriter, v map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// RequestLogger logs every request with zerolog once it completes.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			event := log.Info()
			switch {
			case ww.Status() >= 500:
				event = log.Error()
			case ww.Status() >= 400:
				event = log.Warn()
			}
			event.
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("HTTP request")
		}()
		next.ServeHTTP(ww, r)
	})
}
