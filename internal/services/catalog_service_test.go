package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/webempresa/internal/models"
)

func TestPlanService_SlugAndSavings(t *testing.T) {
	db := setup(t)
	svc := NewPlanService(db, nil)
	ctx := context.Background()

	plan, err := svc.CreatePlan(ctx, models.PlanInput{
		Name: "Plan Básico", Description: "Para empezar", PriceMonthly: 29.99, PriceYearly: floatPtr(299.99),
		Features: []string{"10 cursos", "Soporte email"}, IsActive: true, DisplayOrder: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "plan-basico", plan.Slug)
	assert.Equal(t, 59.89, plan.YearlySavingsAmount)
	assert.Equal(t, "#3B82F6", plan.ColorPrimary)

	_, err = svc.CreatePlan(ctx, models.PlanInput{Name: "Oculto", Description: "x", PriceMonthly: 1})
	require.NoError(t, err)

	public, err := svc.ListPlans(ctx, true)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, models.StringList{"10 cursos", "Soporte email"}, public[0].Features)

	all, err := svc.ListPlans(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	noYearly, err := svc.UpdatePlan(ctx, plan.ID, models.PlanInput{Name: "Plan Básico", Description: "x", PriceMonthly: 10})
	require.NoError(t, err)
	assert.Zero(t, noYearly.YearlySavingsAmount)
	assert.Equal(t, "plan-basico", noYearly.Slug)
}

func TestTestimonialService_Rating(t *testing.T) {
	db := setup(t)
	svc := NewTestimonialService(db, nil)
	ctx := context.Background()

	created, err := svc.CreateTestimonial(ctx, models.TestimonialInput{ClientName: "Ana", Content: "Excelente", IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, 5, created.Rating)

	_, err = svc.CreateTestimonial(ctx, models.TestimonialInput{ClientName: "Luis", Content: "Malo", Rating: 6})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.UpdateTestimonial(ctx, created.ID, models.TestimonialInput{ClientName: "Ana", Content: "x", Rating: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateTestimonial(ctx, models.TestimonialInput{ClientName: "Eva", Content: "Bien", Rating: 4, IsActive: true, IsFeatured: true})
	require.NoError(t, err)

	featured, err := svc.ListTestimonials(ctx, true, boolPtr(true))
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, "Eva", featured[0].ClientName)
}

func TestFAQService_HelpfulOnlyForActive(t *testing.T) {
	db := setup(t)
	svc := NewFAQService(db, nil)
	ctx := context.Background()

	active, err := svc.CreateFAQ(ctx, models.FAQInput{Question: "¿Precio?", Answer: "Desde 29", Category: "pricing", IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, "Precios", active.CategoryDisplay)
	hidden, err := svc.CreateFAQ(ctx, models.FAQInput{Question: "¿Interna?", Answer: "Sí"})
	require.NoError(t, err)
	assert.Equal(t, "general", hidden.Category)

	votes, err := svc.MarkHelpful(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, votes)
	votes, err = svc.MarkHelpful(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, votes)

	_, err = svc.MarkHelpful(ctx, hidden.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	pricing, err := svc.ListFAQs(ctx, true, "pricing")
	require.NoError(t, err)
	assert.Len(t, pricing, 1)
}

func TestCompanyService_GetOrCreateAndUpsert(t *testing.T) {
	db := setup(t)
	svc := NewCompanyService(db, nil)
	ctx := context.Background()

	_, err := svc.GetCompany(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := svc.UpdateCompany(ctx, models.CompanyInput{CompanyName: "Acme Edu", Email: "hola@acme.edu"})
	require.NoError(t, err)
	assert.Equal(t, "Acme Edu", updated.CompanyName)

	again, err := svc.UpdateCompany(ctx, models.CompanyInput{CompanyName: "Acme Educación", Email: "hola@acme.edu"})
	require.NoError(t, err)
	assert.Equal(t, updated.ID, again.ID)

	got, err := svc.GetOrCreateCompany(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Acme Educación", got.CompanyName)
}

func TestCompanyService_DefaultsOnFirstAdminRead(t *testing.T) {
	db := setup(t)
	svc := NewCompanyService(db, nil)
	ctx := context.Background()

	info, err := svc.GetOrCreateCompany(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCompanyInfo().CompanyName, info.CompanyName)

	stored, err := svc.GetCompany(ctx)
	require.NoError(t, err)
	assert.Equal(t, info.ID, stored.ID)
}
