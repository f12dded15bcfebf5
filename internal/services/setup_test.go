package services

import (
	"context"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/webempresa/internal/database"
)

func setup(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.New("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

type recordingPublisher struct {
	mu       sync.Mutex
	payloads []interface{}
}

func (p *recordingPublisher) Publish(topic string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if topic == TopicActivity {
		p.payloads = append(p.payloads, payload)
	}
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}

func createTestUser(t *testing.T, svc *UserService, email, password string, admin bool) string {
	t.Helper()
	input := UserInput{Email: email, Password: password, FirstName: "Test", LastName: "User"}
	if admin {
		input.Role = "admin"
		input.IsStaff = true
	}
	user, err := svc.CreateUser(context.Background(), input)
	require.NoError(t, err)
	return user.ID
}

func boolPtr(b bool) *bool        { return &b }
func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
