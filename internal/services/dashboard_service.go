package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/isdelr/webempresa/internal/models"
)

// DashboardServiceProvider defines the interface for the admin dashboard and the
// aggregated public endpoints.
type DashboardServiceProvider interface {
	GetStats(ctx context.Context) ([]models.StatCard, error)
	GetRecentActivity(ctx context.Context, limit int) ([]models.Event, error)
	GetPublicStats(ctx context.Context) (models.PublicStats, error)
	GetHomepage(ctx context.Context) (models.HomepageContent, error)
}

// DashboardService computes dashboard figures straight from the tables.
type DashboardService struct {
	db      *sqlx.DB
	events  EventServiceProvider
	company CompanyServiceProvider
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(db *sqlx.DB, events EventServiceProvider, company CompanyServiceProvider) *DashboardService {
	return &DashboardService{db: db, events: events, company: company}
}

func (s *DashboardService) count(ctx context.Context, query string, args ...interface{}) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.db.Rebind(query), args...)
	return n, err
}

// GetStats returns the stats row of the dashboard.
func (s *DashboardService) GetStats(ctx context.Context) ([]models.StatCard, error) {
	now := timeNow()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	published, err := s.count(ctx, "SELECT COUNT(*) FROM news_articles WHERE status = ?", models.NewsPublished)
	if err != nil {
		return nil, err
	}
	publishedThisMonth, err := s.count(ctx, "SELECT COUNT(*) FROM news_articles WHERE status = ? AND published_at >= ?", models.NewsPublished, monthStart)
	if err != nil {
		return nil, err
	}

	pending, err := s.count(ctx, "SELECT COUNT(*) FROM contact_messages WHERE status IN (?, ?)",
		models.ContactNew, models.ContactInProgress)
	if err != nil {
		return nil, err
	}
	newToday, err := s.count(ctx, "SELECT COUNT(*) FROM contact_messages WHERE created_at >= ?", dayStart)
	if err != nil {
		return nil, err
	}

	activeUsers, err := s.count(ctx, "SELECT COUNT(*) FROM users WHERE is_active = ?", true)
	if err != nil {
		return nil, err
	}
	joinedThisMonth, err := s.count(ctx, "SELECT COUNT(*) FROM users WHERE date_joined >= ?", monthStart)
	if err != nil {
		return nil, err
	}

	activePlans, err := s.count(ctx, "SELECT COUNT(*) FROM service_plans WHERE is_active = ?", true)
	if err != nil {
		return nil, err
	}
	popularPlans, err := s.count(ctx, "SELECT COUNT(*) FROM service_plans WHERE is_active = ? AND is_popular = ?", true, true)
	if err != nil {
		return nil, err
	}

	return []models.StatCard{
		growthCard("news", "Noticias Publicadas", "📰", published, publishedThisMonth, "este mes"),
		pendingCard(pending, newToday),
		growthCard("users", "Usuarios Activos", "👥", activeUsers, joinedThisMonth, "este mes"),
		{
			Key:        "plans",
			Title:      "Planes Activos",
			Value:      fmt.Sprint(activePlans),
			Change:     fmt.Sprintf("%d destacados", popularPlans),
			ChangeType: models.ChangeNeutral,
			Icon:       "💳",
		},
	}, nil
}

func growthCard(key, title, icon string, value, added int, period string) models.StatCard {
	card := models.StatCard{Key: key, Title: title, Value: fmt.Sprint(value), Icon: icon}
	if added > 0 {
		card.Change = fmt.Sprintf("+%d %s", added, period)
		card.ChangeType = models.ChangePositive
	} else {
		card.Change = "Sin cambios"
		card.ChangeType = models.ChangeNeutral
	}
	return card
}

func pendingCard(pending, newToday int) models.StatCard {
	card := models.StatCard{Key: "contacts", Title: "Mensajes Pendientes", Value: fmt.Sprint(pending), Icon: "✉️"}
	switch {
	case pending == 0:
		card.Change = "Todo respondido"
		card.ChangeType = models.ChangePositive
	case newToday > 0:
		card.Change = fmt.Sprintf("+%d hoy", newToday)
		card.ChangeType = models.ChangeNegative
	default:
		card.Change = "Sin mensajes nuevos hoy"
		card.ChangeType = models.ChangeNeutral
	}
	return card
}

// GetRecentActivity returns the latest events of the activity log.
func (s *DashboardService) GetRecentActivity(ctx context.Context, limit int) ([]models.Event, error) {
	return s.events.GetRecentEvents(ctx, clamp(limit, 1, 100))
}

// GetPublicStats returns the public counters.
func (s *DashboardService) GetPublicStats(ctx context.Context) (models.PublicStats, error) {
	var stats models.PublicStats
	var err error
	if stats.TotalArticles, err = s.count(ctx, "SELECT COUNT(*) FROM news_articles WHERE status = ?", models.NewsPublished); err != nil {
		return stats, err
	}
	if stats.TotalTestimonials, err = s.count(ctx, "SELECT COUNT(*) FROM testimonials WHERE is_active = ?", true); err != nil {
		return stats, err
	}
	if stats.TotalFAQs, err = s.count(ctx, "SELECT COUNT(*) FROM faqs WHERE is_active = ?", true); err != nil {
		return stats, err
	}
	stats.FeaturedArticles, err = s.count(ctx, "SELECT COUNT(*) FROM news_articles WHERE status = ? AND featured = ?", models.NewsPublished, true)
	return stats, err
}

// GetHomepage returns the three newest featured articles, the first three featured
// testimonials and the company record (nil when not configured).
func (s *DashboardService) GetHomepage(ctx context.Context) (models.HomepageContent, error) {
	home := models.HomepageContent{
		FeaturedArticles:     []models.NewsArticle{},
		FeaturedTestimonials: []models.Testimonial{},
	}

	err := s.db.SelectContext(ctx, &home.FeaturedArticles, s.db.Rebind(
		"SELECT "+newsColumns+" FROM news_articles WHERE status = ? AND featured = ? ORDER BY published_at DESC LIMIT 3"),
		models.NewsPublished, true)
	if err != nil {
		return home, err
	}
	err = s.db.SelectContext(ctx, &home.FeaturedTestimonials, s.db.Rebind(
		"SELECT "+testimonialColumns+" FROM testimonials WHERE is_active = ? AND is_featured = ? ORDER BY display_order LIMIT 3"),
		true, true)
	if err != nil {
		return home, err
	}

	info, err := s.company.GetCompany(ctx)
	switch {
	case err == nil:
		home.CompanyInfo = &info
	case !errors.Is(err, ErrNotFound):
		return home, err
	}
	return home, nil
}
