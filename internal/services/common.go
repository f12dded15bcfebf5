package services

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// timeNow is swapped in tests.
var timeNow = func() time.Time { return time.Now().UTC() }

type actorKey struct{}

// WithActor stores the id of the user performing a request.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFrom returns the id stored by WithActor, if any.
func ActorFrom(ctx context.Context) *string {
	if id, ok := ctx.Value(actorKey{}).(string); ok && id != "" {
		return &id
	}
	return nil
}

// exists runs a "SELECT 1 ... LIMIT 1" style query and reports whether it found a row.
func exists(ctx context.Context, db *sqlx.DB, query string, args ...interface{}) (bool, error) {
	var n int
	err := db.GetContext(ctx, &n, db.Rebind("SELECT COUNT(*) FROM ("+query+") q"), args...)
	return n > 0, err
}

func pageOffset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
