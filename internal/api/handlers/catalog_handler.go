package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/isdelr/webempresa/internal/models"
	"github.com/isdelr/webempresa/internal/services"
)

// PlanHandler handles HTTP requests for service plans.
type PlanHandler struct {
	service services.PlanServiceProvider
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(service services.PlanServiceProvider) *PlanHandler {
	return &PlanHandler{service: service}
}

// ListPublic returns the active plans.
func (h *PlanHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

// List returns every plan.
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *PlanHandler) list(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	plans, err := h.service.ListPlans(r.Context(), activeOnly)
	if err != nil {
		respondServiceError(w, r, err, "Failed to retrieve plans")
		return
	}
	respondJSON(w, http.StatusOK, plans)
}

func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	plan, err := h.service.GetPlan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to retrieve plan")
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload models.PlanInput
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	plan, err := h.service.CreatePlan(r.Context(), payload)
	if err != nil {
		respondServiceError(w, r, err, "Failed to create plan")
		return
	}
	respondJSON(w, http.StatusCreated, plan)
}

func (h *PlanHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload models.PlanInput
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	plan, err := h.service.UpdatePlan(r.Context(), chi.URLParam(r, "id"), payload)
	if err != nil {
		respondServiceError(w, r, err, "Failed to update plan")
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

func (h *PlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePlan(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err, "Failed to delete plan")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TestimonialHandler handles HTTP requests for testimonials.
type TestimonialHandler struct {
	service services.TestimonialServiceProvider
}

// NewTestimonialHandler creates a new TestimonialHandler.
func NewTestimonialHandler(service services.TestimonialServiceProvider) *TestimonialHandler {
	return &TestimonialHandler{service: service}
}

// ListPublic returns active testimonials, optionally only the ?featured= ones.
func (h *TestimonialHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListTestimonials(r.Context(), true, queryBool(r, "featured"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to retrieve testimonials")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *TestimonialHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListTestimonials(r.Context(), false, queryBool(r, "featured"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to retrieve testimonials")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *TestimonialHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetTestimonial(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to retrieve testimonial")
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *TestimonialHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload models.TestimonialInput
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	item, err := h.service.CreateTestimonial(r.Context(), payload)
	if err != nil {
		respondServiceError(w, r, err, "Failed to create testimonial")
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (h *TestimonialHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload models.TestimonialInput
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	item, err := h.service.UpdateTestimonial(r.Context(), chi.URLParam(r, "id"), payload)
	if err != nil {
		respondServiceError(w, r, err, "Failed to update testimonial")
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (h *TestimonialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteTestimonial(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err, "Failed to delete testimonial")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FAQHandler handles HTTP requests for FAQs.
type FAQHandler struct {
	service services.FAQServiceProvider
}

// NewFAQHandler creates a new FAQHandler.
func NewFAQHandler(service services.FAQServiceProvider) *FAQHandler {
	return &FAQHandler{service: service}
}

// ListPublic returns the active FAQs, optionally of one ?category=.
func (h *FAQHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	faqs, err := h.service.ListFAQs(r.Context(), true, r.URL.Query().Get("category"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to retrieve FAQs")
		return
	}
	respondJSON(w, http.StatusOK, faqs)
}

func (h *FAQHandler) List(w http.ResponseWriter, r *http.Request) {
	faqs, err := h.service.ListFAQs(r.Context(), false, r.URL.Query().Get("category"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to retrieve FAQs")
		return
	}
	respondJSON(w, http.StatusOK, faqs)
}

func (h *FAQHandler) Get(w http.ResponseWriter, r *http.Request) {
	faq, err := h.service.GetFAQ(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to retrieve FAQ")
		return
	}
	respondJSON(w, http.StatusOK, faq)
}

func (h *FAQHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload models.FAQInput
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	faq, err := h.service.CreateFAQ(r.Context(), payload)
	if err != nil {
		respondServiceError(w, r, err, "Failed to create FAQ")
		return
	}
	respondJSON(w, http.StatusCreated, faq)
}

func (h *FAQHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload models.FAQInput
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	faq, err := h.service.UpdateFAQ(r.Context(), chi.URLParam(r, "id"), payload)
	if err != nil {
		respondServiceError(w, r, err, "Failed to update FAQ")
		return
	}
	respondJSON(w, http.StatusOK, faq)
}

func (h *FAQHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteFAQ(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, r, err, "Failed to delete FAQ")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkHelpful counts a helpful vote.
func (h *FAQHandler) MarkHelpful(w http.ResponseWriter, r *http.Request) {
	votes, err := h.service.MarkHelpful(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to record vote")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"message": "Gracias por tu feedback", "helpful_votes": votes})
}

// CompanyHandler handles the company info endpoints.
type CompanyHandler struct {
	service services.CompanyServiceProvider
}

// NewCompanyHandler creates a new CompanyHandler.
func NewCompanyHandler(service services.CompanyServiceProvider) *CompanyHandler {
	return &CompanyHandler{service: service}
}

// Get returns the company info, creating the defaults on first access.
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.GetOrCreateCompany(r.Context())
	if err != nil {
		respondServiceError(w, r, err, "Failed to retrieve company info")
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload models.CompanyInput
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	info, err := h.service.UpdateCompany(r.Context(), payload)
	if err != nil {
		respondServiceError(w, r, err, "Failed to update company info")
		return
	}
	respondJSON(w, http.StatusOK, info)
}
