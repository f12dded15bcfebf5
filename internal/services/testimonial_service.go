package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/isdelr/webempresa/internal/models"
)

const testimonialColumns = `id, client_name, client_position, client_company, client_photo, content, rating,
	is_active, is_featured, display_order, created_at, updated_at`

// TestimonialServiceProvider defines the interface for testimonial services.
type TestimonialServiceProvider interface {
	ListTestimonials(ctx context.Context, activeOnly bool, featured *bool) ([]models.Testimonial, error)
	GetTestimonial(ctx context.Context, id string) (models.Testimonial, error)
	CreateTestimonial(ctx context.Context, input models.TestimonialInput) (models.Testimonial, error)
	UpdateTestimonial(ctx context.Context, id string, input models.TestimonialInput) (models.Testimonial, error)
	DeleteTestimonial(ctx context.Context, id string) error
}

// TestimonialService provides business logic for testimonials.
type TestimonialService struct {
	db     *sqlx.DB
	events EventServiceProvider
}

// NewTestimonialService creates a new TestimonialService.
func NewTestimonialService(db *sqlx.DB, events EventServiceProvider) *TestimonialService {
	return &TestimonialService{db: db, events: events}
}

// ListTestimonials returns testimonials by display order, newest first within the same order.
func (s *TestimonialService) ListTestimonials(ctx context.Context, activeOnly bool, featured *bool) ([]models.Testimonial, error) {
	where := []string{"1 = 1"}
	var args []interface{}
	if activeOnly {
		where = append(where, "is_active = ?")
		args = append(args, true)
	}
	if featured != nil {
		where = append(where, "is_featured = ?")
		args = append(args, *featured)
	}

	items := []models.Testimonial{}
	err := s.db.SelectContext(ctx, &items, s.db.Rebind(
		"SELECT "+testimonialColumns+" FROM testimonials WHERE "+strings.Join(where, " AND ")+
			" ORDER BY display_order, created_at DESC"), args...)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// GetTestimonial retrieves a single testimonial by its ID.
func (s *TestimonialService) GetTestimonial(ctx context.Context, id string) (models.Testimonial, error) {
	var t models.Testimonial
	if err := s.db.GetContext(ctx, &t, s.db.Rebind("SELECT "+testimonialColumns+" FROM testimonials WHERE id = ?"), id); err != nil {
		return models.Testimonial{}, notFound(err, "testimonial")
	}
	return t, nil
}

// CreateTestimonial stores a new testimonial. A zero rating defaults to 5.
func (s *TestimonialService) CreateTestimonial(ctx context.Context, input models.TestimonialInput) (models.Testimonial, error) {
	t := models.Testimonial{ID: uuid.New().String(), CreatedAt: timeNow()}
	if err := applyTestimonialInput(&t, input); err != nil {
		return models.Testimonial{}, err
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO testimonials (id, client_name, client_position, client_company, client_photo, content, rating,
			is_active, is_featured, display_order, created_at)
		VALUES (:id, :client_name, :client_position, :client_company, :client_photo, :content, :rating,
			:is_active, :is_featured, :display_order, :created_at)`, t)
	if err != nil {
		return models.Testimonial{}, err
	}

	record(ctx, s.events, "testimonial.create", "info", fmt.Sprintf("Testimonial from '%s' created.", t.ClientName))
	return t, nil
}

// UpdateTestimonial replaces the editable fields of a testimonial.
func (s *TestimonialService) UpdateTestimonial(ctx context.Context, id string, input models.TestimonialInput) (models.Testimonial, error) {
	t, err := s.GetTestimonial(ctx, id)
	if err != nil {
		return models.Testimonial{}, err
	}
	if err := applyTestimonialInput(&t, input); err != nil {
		return models.Testimonial{}, err
	}
	now := timeNow()
	t.UpdatedAt = &now

	_, err = s.db.NamedExecContext(ctx, `
		UPDATE testimonials SET client_name = :client_name, client_position = :client_position,
			client_company = :client_company, client_photo = :client_photo, content = :content, rating = :rating,
			is_active = :is_active, is_featured = :is_featured, display_order = :display_order, updated_at = :updated_at
		WHERE id = :id`, t)
	if err != nil {
		return models.Testimonial{}, err
	}

	record(ctx, s.events, "testimonial.update", "info", fmt.Sprintf("Testimonial from '%s' updated.", t.ClientName))
	return t, nil
}

// DeleteTestimonial removes a testimonial.
func (s *TestimonialService) DeleteTestimonial(ctx context.Context, id string) error {
	t, err := s.GetTestimonial(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM testimonials WHERE id = ?"), id); err != nil {
		return err
	}
	record(ctx, s.events, "testimonial.delete", "warn", fmt.Sprintf("Testimonial from '%s' deleted.", t.ClientName))
	return nil
}

func applyTestimonialInput(t *models.Testimonial, in models.TestimonialInput) error {
	rating := in.Rating
	if rating == 0 {
		rating = 5
	}
	if rating < 1 || rating > 5 {
		return invalid("rating must be between 1 and 5")
	}
	t.ClientName = strings.TrimSpace(in.ClientName)
	t.ClientPosition = in.ClientPosition
	t.ClientCompany = in.ClientCompany
	t.ClientPhoto = in.ClientPhoto
	t.Content = in.Content
	t.Rating = rating
	t.IsActive = in.IsActive
	t.IsFeatured = in.IsFeatured
	t.DisplayOrder = in.DisplayOrder
	return nil
}
