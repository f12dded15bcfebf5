package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/webempresa/internal/models"
)

// TopicActivity is the hub topic carrying new events.
const TopicActivity = "activity"

// Publisher pushes payloads to live dashboard subscribers.
type Publisher interface {
	Publish(topic string, payload interface{})
}

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, eventType, level, message string) error
	GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error)
	PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// EventService provides business logic for the activity log.
type EventService struct {
	db        *sqlx.DB
	publisher Publisher
}

// NewEventService creates a new EventService. publisher may be nil.
func NewEventService(db *sqlx.DB, publisher Publisher) *EventService {
	return &EventService{db: db, publisher: publisher}
}

// CreateEvent logs a new event to the database and publishes it.
func (s *EventService) CreateEvent(ctx context.Context, eventType, level, message string) error {
	event := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Level:     level,
		Message:   message,
		ActorID:   ActorFrom(ctx),
		CreatedAt: timeNow(),
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		"INSERT INTO events (id, type, level, message, actor_id, created_at) VALUES (?, ?, ?, ?, ?, ?)"),
		event.ID, event.Type, event.Level, event.Message, event.ActorID, event.CreatedAt)
	if err != nil {
		return err
	}

	if s.publisher != nil {
		s.publisher.Publish(TopicActivity, event)
	}
	return nil
}

// GetRecentEvents retrieves the most recent events from the database.
func (s *EventService) GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	events := []models.Event{}
	err := s.db.SelectContext(ctx, &events, s.db.Rebind(
		"SELECT id, type, level, message, actor_id, created_at FROM events ORDER BY created_at DESC LIMIT ?"), limit)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// PurgeOlderThan deletes events older than age and returns how many went away.
func (s *EventService) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM events WHERE created_at < ?"), timeNow().Add(-age))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// record logs an event and only warns on failure; activity logging never fails a mutation.
func record(ctx context.Context, events EventServiceProvider, eventType, level, message string) {
	if events == nil {
		return
	}
	if err := events.CreateEvent(ctx, eventType, level, message); err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("Failed to record activity event")
	}
}
