package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/isdelr/webempresa/internal/models"
	"github.com/isdelr/webempresa/internal/slug"
)

const planColumns = `id, name, slug, description, price_monthly, price_yearly, monthly_savings, max_users,
	max_courses, storage_gb, api_requests_limit, features_json, color_primary, color_secondary,
	is_active, is_popular, display_order, created_at, updated_at`

// PlanServiceProvider defines the interface for service plan services.
type PlanServiceProvider interface {
	ListPlans(ctx context.Context, activeOnly bool) ([]models.ServicePlan, error)
	GetPlan(ctx context.Context, id string) (models.ServicePlan, error)
	CreatePlan(ctx context.Context, input models.PlanInput) (models.ServicePlan, error)
	UpdatePlan(ctx context.Context, id string, input models.PlanInput) (models.ServicePlan, error)
	DeletePlan(ctx context.Context, id string) error
}

// PlanService provides business logic for pricing plans.
type PlanService struct {
	db     *sqlx.DB
	events EventServiceProvider
}

// NewPlanService creates a new PlanService.
func NewPlanService(db *sqlx.DB, events EventServiceProvider) *PlanService {
	return &PlanService{db: db, events: events}
}

// ListPlans returns plans by display order.
func (s *PlanService) ListPlans(ctx context.Context, activeOnly bool) ([]models.ServicePlan, error) {
	query := "SELECT " + planColumns + " FROM service_plans"
	var args []interface{}
	if activeOnly {
		query += " WHERE is_active = ?"
		args = append(args, true)
	}
	query += " ORDER BY display_order, price_monthly"

	plans := []models.ServicePlan{}
	if err := s.db.SelectContext(ctx, &plans, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for i := range plans {
		plans[i].PrepareForAPI()
	}
	return plans, nil
}

// GetPlan retrieves a single plan by its ID.
func (s *PlanService) GetPlan(ctx context.Context, id string) (models.ServicePlan, error) {
	var plan models.ServicePlan
	if err := s.db.GetContext(ctx, &plan, s.db.Rebind("SELECT "+planColumns+" FROM service_plans WHERE id = ?"), id); err != nil {
		return models.ServicePlan{}, notFound(err, "plan")
	}
	plan.PrepareForAPI()
	return plan, nil
}

// CreatePlan stores a new plan. An empty slug is generated from the name.
func (s *PlanService) CreatePlan(ctx context.Context, input models.PlanInput) (models.ServicePlan, error) {
	plan := models.ServicePlan{ID: uuid.New().String(), CreatedAt: timeNow()}
	applyPlanInput(&plan, input)

	var err error
	if plan.Slug, err = s.resolveSlug(ctx, input, ""); err != nil {
		return models.ServicePlan{}, err
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO service_plans (id, name, slug, description, price_monthly, price_yearly, monthly_savings, max_users,
			max_courses, storage_gb, api_requests_limit, features_json, color_primary, color_secondary,
			is_active, is_popular, display_order, created_at)
		VALUES (:id, :name, :slug, :description, :price_monthly, :price_yearly, :monthly_savings, :max_users,
			:max_courses, :storage_gb, :api_requests_limit, :features_json, :color_primary, :color_secondary,
			:is_active, :is_popular, :display_order, :created_at)`, plan)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ServicePlan{}, fmt.Errorf("plan slug %w", ErrConflict)
		}
		return models.ServicePlan{}, err
	}

	record(ctx, s.events, "plan.create", "info", fmt.Sprintf("Plan '%s' created.", plan.Name))
	plan.PrepareForAPI()
	return plan, nil
}

// UpdatePlan replaces the editable fields of a plan.
func (s *PlanService) UpdatePlan(ctx context.Context, id string, input models.PlanInput) (models.ServicePlan, error) {
	plan, err := s.GetPlan(ctx, id)
	if err != nil {
		return models.ServicePlan{}, err
	}

	oldName := plan.Name
	applyPlanInput(&plan, input)
	if input.Slug != "" || plan.Name != oldName {
		if plan.Slug, err = s.resolveSlug(ctx, input, plan.ID); err != nil {
			return models.ServicePlan{}, err
		}
	}
	now := timeNow()
	plan.UpdatedAt = &now

	_, err = s.db.NamedExecContext(ctx, `
		UPDATE service_plans SET name = :name, slug = :slug, description = :description,
			price_monthly = :price_monthly, price_yearly = :price_yearly, monthly_savings = :monthly_savings,
			max_users = :max_users, max_courses = :max_courses, storage_gb = :storage_gb,
			api_requests_limit = :api_requests_limit, features_json = :features_json,
			color_primary = :color_primary, color_secondary = :color_secondary, is_active = :is_active,
			is_popular = :is_popular, display_order = :display_order, updated_at = :updated_at
		WHERE id = :id`, plan)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ServicePlan{}, fmt.Errorf("plan slug %w", ErrConflict)
		}
		return models.ServicePlan{}, err
	}

	record(ctx, s.events, "plan.update", "info", fmt.Sprintf("Plan '%s' updated.", plan.Name))
	plan.PrepareForAPI()
	return plan, nil
}

// DeletePlan removes a plan.
func (s *PlanService) DeletePlan(ctx context.Context, id string) error {
	plan, err := s.GetPlan(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM service_plans WHERE id = ?"), id); err != nil {
		return err
	}
	record(ctx, s.events, "plan.delete", "warn", fmt.Sprintf("Plan '%s' deleted.", plan.Name))
	return nil
}

// resolveSlug keeps an explicit slug as given and generates a unique one from the name otherwise.
func (s *PlanService) resolveSlug(ctx context.Context, input models.PlanInput, selfID string) (string, error) {
	if explicit := slug.Make(input.Slug); explicit != "" {
		return explicit, nil
	}
	return slug.Unique(slug.Make(input.Name), func(candidate string) (bool, error) {
		return exists(ctx, s.db, "SELECT id FROM service_plans WHERE slug = ? AND id <> ?", candidate, selfID)
	})
}

func applyPlanInput(p *models.ServicePlan, in models.PlanInput) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.PriceMonthly = in.PriceMonthly
	p.PriceYearly = in.PriceYearly
	p.MonthlySavings = in.MonthlySavings
	p.MaxUsers = in.MaxUsers
	p.MaxCourses = in.MaxCourses
	p.StorageGB = in.StorageGB
	p.APIRequestsLimit = in.APIRequestsLimit
	p.Features = models.StringList(in.Features)
	if p.Features == nil {
		p.Features = models.StringList{}
	}
	p.ColorPrimary = orDefault(in.ColorPrimary, "#3B82F6")
	p.ColorSecondary = orDefault(in.ColorSecondary, "#1E40AF")
	p.IsActive = in.IsActive
	p.IsPopular = in.IsPopular
	p.DisplayOrder = in.DisplayOrder
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
