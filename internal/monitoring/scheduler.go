package monitoring

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/webempresa/internal/mail"
	"github.com/isdelr/webempresa/internal/models"
	"github.com/isdelr/webempresa/internal/services"
)

// SchedulerConfig sets when the maintenance jobs run.
type SchedulerConfig struct {
	DigestCron     string // pending contact digest
	PurgeCron      string // activity log purge
	EventRetention time.Duration
	NotifyTo       string // digest recipients, comma separated
}

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	cron       *cron.Cron
	contactSvc services.ContactServiceProvider
	eventSvc   services.EventServiceProvider
	mailer     mail.Mailer
	cfg        SchedulerConfig
}

// NewScheduler creates a new scheduler instance. Jobs are registered by Start.
func NewScheduler(contactSvc services.ContactServiceProvider, eventSvc services.EventServiceProvider, mailer mail.Mailer, cfg SchedulerConfig) *Scheduler {
	logger := cron.PrintfLogger(&log.Logger)
	return &Scheduler{
		cron:       cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger))),
		contactSvc: contactSvc,
		eventSvc:   eventSvc,
		mailer:     mailer,
		cfg:        cfg,
	}
}

// Start registers the jobs and starts the cron runner in its own goroutine.
func (s *Scheduler) Start() error {
	if s.cfg.DigestCron != "" {
		if _, err := s.cron.AddFunc(s.cfg.DigestCron, s.job("contact digest", s.SendDigest)); err != nil {
			return fmt.Errorf("invalid digest schedule %q: %w", s.cfg.DigestCron, err)
		}
	}
	if s.cfg.PurgeCron != "" {
		if _, err := s.cron.AddFunc(s.cfg.PurgeCron, s.job("event purge", s.PurgeEvents)); err != nil {
			return fmt.Errorf("invalid purge schedule %q: %w", s.cfg.PurgeCron, err)
		}
	}
	log.Info().Int("jobs", len(s.cron.Entries())).Msg("Starting background scheduler...")
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped background scheduler.")
}

func (s *Scheduler) job(name string, fn func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Error().Err(err).Str("job", name).Msg("Scheduler: job failed")
			msg := fmt.Sprintf("Scheduled job '%s' failed: %v", name, err)
			if err := s.eventSvc.CreateEvent(ctx, "schedule.execute.fail", "error", msg); err != nil {
				log.Warn().Err(err).Msg("Scheduler: failed to record job failure")
			}
		}
	}
}

// SendDigest mails the list of contact messages still waiting for an answer.
func (s *Scheduler) SendDigest(ctx context.Context) error {
	if s.mailer == nil || s.cfg.NotifyTo == "" {
		return nil
	}
	pending, err := s.contactSvc.PendingMessages(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	s.mailer.SendMessages(mail.Message{
		To:          mail.ParseAddressList(s.cfg.NotifyTo),
		Subject:     fmt.Sprintf("%d mensajes de contacto pendientes", len(pending)),
		TextContent: digestBody(pending),
	})
	return s.eventSvc.CreateEvent(ctx, "contact.digest", "info",
		fmt.Sprintf("Pending contact digest sent (%d messages).", len(pending)))
}

func digestBody(pending []models.ContactMessage) string {
	var b strings.Builder
	b.WriteString("Mensajes pendientes de respuesta:\n\n")
	for _, m := range pending {
		fmt.Fprintf(&b, "- [%s] %s <%s>: %s (%s)\n",
			m.StatusDisplay, m.Name, m.Email, m.Subject, m.CreatedAt.Format("2006-01-02"))
	}
	return b.String()
}

// PurgeEvents deletes activity older than the retention period.
func (s *Scheduler) PurgeEvents(ctx context.Context) error {
	if s.cfg.EventRetention <= 0 {
		return nil
	}
	n, err := s.eventSvc.PurgeOlderThan(ctx, s.cfg.EventRetention)
	if err != nil {
		return err
	}
	log.Info().Int64("deleted", n).Msg("Scheduler: purged old events")
	return nil
}
