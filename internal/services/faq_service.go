package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/isdelr/webempresa/internal/models"
)

const faqColumns = `id, question, answer, category, is_active, display_order, views_count, helpful_votes, created_at, updated_at`

// FAQServiceProvider defines the interface for FAQ services.
type FAQServiceProvider interface {
	ListFAQs(ctx context.Context, activeOnly bool, category string) ([]models.FAQ, error)
	GetFAQ(ctx context.Context, id string) (models.FAQ, error)
	CreateFAQ(ctx context.Context, input models.FAQInput) (models.FAQ, error)
	UpdateFAQ(ctx context.Context, id string, input models.FAQInput) (models.FAQ, error)
	DeleteFAQ(ctx context.Context, id string) error
	MarkHelpful(ctx context.Context, id string) (int, error)
}

// FAQService provides business logic for frequently asked questions.
type FAQService struct {
	db     *sqlx.DB
	events EventServiceProvider
}

// NewFAQService creates a new FAQService.
func NewFAQService(db *sqlx.DB, events EventServiceProvider) *FAQService {
	return &FAQService{db: db, events: events}
}

// ListFAQs returns FAQs by category and display order.
func (s *FAQService) ListFAQs(ctx context.Context, activeOnly bool, category string) ([]models.FAQ, error) {
	where := []string{"1 = 1"}
	var args []interface{}
	if activeOnly {
		where = append(where, "is_active = ?")
		args = append(args, true)
	}
	if category != "" {
		where = append(where, "category = ?")
		args = append(args, category)
	}

	faqs := []models.FAQ{}
	err := s.db.SelectContext(ctx, &faqs, s.db.Rebind(
		"SELECT "+faqColumns+" FROM faqs WHERE "+strings.Join(where, " AND ")+" ORDER BY category, display_order, created_at"), args...)
	if err != nil {
		return nil, err
	}
	for i := range faqs {
		faqs[i].PrepareForAPI()
	}
	return faqs, nil
}

// GetFAQ retrieves a single FAQ by its ID.
func (s *FAQService) GetFAQ(ctx context.Context, id string) (models.FAQ, error) {
	var faq models.FAQ
	if err := s.db.GetContext(ctx, &faq, s.db.Rebind("SELECT "+faqColumns+" FROM faqs WHERE id = ?"), id); err != nil {
		return models.FAQ{}, notFound(err, "faq")
	}
	faq.PrepareForAPI()
	return faq, nil
}

// CreateFAQ stores a new FAQ.
func (s *FAQService) CreateFAQ(ctx context.Context, input models.FAQInput) (models.FAQ, error) {
	faq := models.FAQ{ID: uuid.New().String(), CreatedAt: timeNow()}
	applyFAQInput(&faq, input)

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO faqs (id, question, answer, category, is_active, display_order, views_count, helpful_votes, created_at)
		VALUES (:id, :question, :answer, :category, :is_active, :display_order, 0, 0, :created_at)`, faq)
	if err != nil {
		return models.FAQ{}, err
	}

	record(ctx, s.events, "faq.create", "info", fmt.Sprintf("FAQ '%s' created.", faq.Question))
	faq.PrepareForAPI()
	return faq, nil
}

// UpdateFAQ replaces the editable fields of a FAQ.
func (s *FAQService) UpdateFAQ(ctx context.Context, id string, input models.FAQInput) (models.FAQ, error) {
	faq, err := s.GetFAQ(ctx, id)
	if err != nil {
		return models.FAQ{}, err
	}
	applyFAQInput(&faq, input)
	now := timeNow()
	faq.UpdatedAt = &now

	_, err = s.db.NamedExecContext(ctx, `
		UPDATE faqs SET question = :question, answer = :answer, category = :category, is_active = :is_active,
			display_order = :display_order, updated_at = :updated_at
		WHERE id = :id`, faq)
	if err != nil {
		return models.FAQ{}, err
	}

	record(ctx, s.events, "faq.update", "info", fmt.Sprintf("FAQ '%s' updated.", faq.Question))
	faq.PrepareForAPI()
	return faq, nil
}

// DeleteFAQ removes a FAQ.
func (s *FAQService) DeleteFAQ(ctx context.Context, id string) error {
	faq, err := s.GetFAQ(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM faqs WHERE id = ?"), id); err != nil {
		return err
	}
	record(ctx, s.events, "faq.delete", "warn", fmt.Sprintf("FAQ '%s' deleted.", faq.Question))
	return nil
}

// MarkHelpful counts a helpful vote on an active FAQ and returns the new total.
func (s *FAQService) MarkHelpful(ctx context.Context, id string) (int, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		"UPDATE faqs SET helpful_votes = helpful_votes + 1 WHERE id = ? AND is_active = ?"), id, true)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, fmt.Errorf("faq %w", ErrNotFound)
	}

	var votes int
	err = s.db.GetContext(ctx, &votes, s.db.Rebind("SELECT helpful_votes FROM faqs WHERE id = ?"), id)
	return votes, err
}

func applyFAQInput(f *models.FAQ, in models.FAQInput) {
	f.Question = strings.TrimSpace(in.Question)
	f.Answer = in.Answer
	f.Category = in.Category
	if f.Category == "" {
		f.Category = "general"
	}
	f.IsActive = in.IsActive
	f.DisplayOrder = in.DisplayOrder
}
