package handlers

import (
	"context"
	"net/http"

	"github.com/isdelr/webempresa/internal/docker"
	"github.com/isdelr/webempresa/internal/models"
	"github.com/isdelr/webempresa/internal/services"
)

// HealthSource returns the latest host health sample.
type HealthSource interface {
	Latest(ctx context.Context) (models.HealthSnapshot, error)
}

// DashboardHandler serves the admin dashboard widgets.
type DashboardHandler struct {
	service services.DashboardServiceProvider
	health  HealthSource
	infra   docker.InfrastructureProvider
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(service services.DashboardServiceProvider, health HealthSource, infra docker.InfrastructureProvider) *DashboardHandler {
	if infra == nil {
		infra = docker.Disabled{}
	}
	return &DashboardHandler{service: service, health: health, infra: infra}
}

// Stats returns the stats cards.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	cards, err := h.service.GetStats(r.Context())
	if err != nil {
		respondServiceError(w, r, err, "Failed to compute stats")
		return
	}
	respondJSON(w, http.StatusOK, cards)
}

// Activity handles the request to get recent activity/events.
func (h *DashboardHandler) Activity(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	if limit <= 0 {
		limit = 20 // Default limit
	}

	events, err := h.service.GetRecentActivity(r.Context(), limit)
	if err != nil {
		respondServiceError(w, r, err, "Failed to retrieve events")
		return
	}
	respondJSON(w, http.StatusOK, events)
}

// Health returns the latest host sample.
func (h *DashboardHandler) Health(w http.ResponseWriter, r *http.Request) {
	snap, err := h.health.Latest(r.Context())
	if err != nil {
		respondServiceError(w, r, err, "Failed to sample system health")
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// Infrastructure returns the container status. An unreachable daemon is not an error.
func (h *DashboardHandler) Infrastructure(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.infra.Status(r.Context()))
}

// PublicHandler serves the aggregate public endpoints.
type PublicHandler struct {
	service services.DashboardServiceProvider
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(service services.DashboardServiceProvider) *PublicHandler {
	return &PublicHandler{service: service}
}

// Stats returns the public counters.
func (h *PublicHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetPublicStats(r.Context())
	if err != nil {
		respondServiceError(w, r, err, "Failed to compute stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Homepage returns the featured articles, testimonials and company info.
func (h *PublicHandler) Homepage(w http.ResponseWriter, r *http.Request) {
	home, err := h.service.GetHomepage(r.Context())
	if err != nil {
		respondServiceError(w, r, err, "Failed to load homepage")
		return
	}
	respondJSON(w, http.StatusOK, home)
}
