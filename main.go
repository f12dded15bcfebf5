package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/webempresa/internal/api"
	"github.com/isdelr/webempresa/internal/apiclient"
	"github.com/isdelr/webempresa/internal/auth"
	"github.com/isdelr/webempresa/internal/config"
	"github.com/isdelr/webempresa/internal/database"
	"github.com/isdelr/webempresa/internal/docker"
	"github.com/isdelr/webempresa/internal/logger"
	"github.com/isdelr/webempresa/internal/mail"
	"github.com/isdelr/webempresa/internal/monitoring"
	"github.com/isdelr/webempresa/internal/services"
	"github.com/isdelr/webempresa/internal/web"
	"github.com/isdelr/webempresa/internal/websocket"
)

const appName = "Web Empresa"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg)
	defer logger.Close()

	db, err := database.New(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("Failed to initialize database")
	}
	defer db.Close()

	cli := newCommandLine(cfg, db)
	if err := cli.run(os.Args); err != nil {
		if !errors.Is(err, errHelp) {
			log.Error().Err(err).Msg("Command failed")
		}
		db.Close()
		logger.Close()
		os.Exit(1)
	}
}

// serve runs the content API and the site until SIGINT or SIGTERM.
func serve(cfg *config.Config, db *sqlx.DB) error {
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("applying database migrations: %w", err)
	}

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	mailer := mail.New(cfg.SendgridAPIKey, appName, cfg.DefaultFromEmail)
	svc := newServices(cfg, db, services.NewEventService(db, hub), mailer)

	if cfg.SeedFile != "" {
		if err := runSeed(context.Background(), svc, cfg.SeedFile); err != nil {
			return err
		}
	}

	health := monitoring.NewHealthSampler(svc.events, hub, cfg.HealthInterval)
	go health.Run()
	defer health.Stop()

	scheduler := monitoring.NewScheduler(svc.Contact, svc.events, mailer, monitoring.SchedulerConfig{
		DigestCron:     cfg.DigestCron,
		PurgeCron:      cfg.PurgeCron,
		EventRetention: cfg.EventRetention,
		NotifyTo:       cfg.AdminNotifyEmail,
	})
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer scheduler.Stop()

	var infra docker.InfrastructureProvider = docker.Disabled{}
	if cfg.DockerEnabled {
		dockerClient, err := docker.New(cfg.DockerLabel)
		if err != nil {
			log.Warn().Err(err).Msg("Docker unavailable, infrastructure widget disabled")
		} else {
			defer dockerClient.Close()
			infra = dockerClient
		}
	}

	router := api.NewRouter(api.Services{
		Users:        svc.Users,
		News:         svc.News,
		Plans:        svc.Plans,
		Testimonials: svc.Testimonials,
		FAQs:         svc.FAQs,
		Company:      svc.Company,
		Contact:      svc.Contact,
		Pages:        svc.Pages,
		Dashboard:    svc.Dashboard,
		Media:        svc.Media,
		Health:       health,
		Infra:        infra,
	}, api.Options{
		Tokens:         auth.NewTokenizer(cfg.JWTSecret, cfg.TokenTTL),
		Hub:            hub,
		AllowedOrigins: cfg.AllowedOrigins,
		SecureCookies:  cfg.IsProduction(),
	})

	site, err := web.New(apiclient.New(cfg.APIBaseURL, nil), web.Options{SecureCookies: cfg.IsProduction()})
	if err != nil {
		return fmt.Errorf("loading site templates: %w", err)
	}

	servers := []*http.Server{
		{Addr: fmt.Sprintf(":%d", cfg.ServerPort), Handler: router},
		{Addr: fmt.Sprintf(":%d", cfg.SitePort), Handler: site.Routes()},
	}
	errs := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			log.Info().Str("addr", srv.Addr).Msg("Server starting")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- fmt.Errorf("%s: %w", srv.Addr, err)
			}
		}(srv)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	var runErr error
	select {
	case <-quit:
		log.Info().Msg("Shutting down servers...")
	case runErr = <-errs:
		log.Error().Err(runErr).Msg("Server failed, shutting down")
	}
	hub.Broadcast("shutdown", map[string]string{"detail": "Server is shutting down"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Str("addr", srv.Addr).Msg("Server forced to shutdown")
		}
	}

	log.Info().Msg("Servers exited")
	return runErr
}

// appServices are the domain services sharing one database and event log.
type appServices struct {
	events       *services.EventService
	Users        *services.UserService
	News         *services.NewsService
	Plans        *services.PlanService
	Testimonials *services.TestimonialService
	FAQs         *services.FAQService
	Company      *services.CompanyService
	Contact      *services.ContactService
	Pages        *services.PageContentService
	Dashboard    *services.DashboardService
	Media        *services.MediaService
}

func newServices(cfg *config.Config, db *sqlx.DB, events *services.EventService, mailer mail.Mailer) appServices {
	company := services.NewCompanyService(db, events)
	return appServices{
		events:       events,
		Users:        services.NewUserService(db, events),
		News:         services.NewNewsService(db, events),
		Plans:        services.NewPlanService(db, events),
		Testimonials: services.NewTestimonialService(db, events),
		FAQs:         services.NewFAQService(db, events),
		Company:      company,
		Contact:      services.NewContactService(db, events, mailer, cfg.AdminNotifyEmail),
		Pages:        services.NewPageContentService(db, events),
		Dashboard:    services.NewDashboardService(db, events, company),
		Media:        services.NewMediaService(db, events, cfg.MediaDir, cfg.MediaBaseURL),
	}
}
