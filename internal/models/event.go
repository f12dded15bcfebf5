package models

import "time"

// Event represents a loggable action or alert in the system.
type Event struct {
	ID        string    `json:"id" db:"id"`
	Type      string    `json:"type" db:"type"`   // e.g., "news.create", "system.alert.cpu"
	Level     string    `json:"level" db:"level"` // e.g., "info", "warn", "error"
	Message   string    `json:"message" db:"message"`
	ActorID   *string   `json:"actor_id,omitempty" db:"actor_id"` // Nullable for system events
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
