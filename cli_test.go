package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/webempresa/internal/config"
	"github.com/isdelr/webempresa/internal/database"
	"github.com/isdelr/webempresa/internal/models"
	"github.com/isdelr/webempresa/internal/services"
)

func setup(t *testing.T) *commandLine {
	t.Helper()
	db, err := database.New("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	cli := newCommandLine(&config.Config{DefaultFromEmail: "noreply@example.com"}, db)
	cli.out = &bytes.Buffer{}
	return cli
}

func withPassword(t *testing.T, pwd string) {
	t.Helper()
	prev := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = prev })
}

func TestRun_DefaultsToServe(t *testing.T) {
	cli := setup(t)
	called := 0
	prev := serveFunc
	serveFunc = func(*config.Config, *sqlx.DB) error { called++; return nil }
	t.Cleanup(func() { serveFunc = prev })

	require.NoError(t, cli.run([]string{"webempresa"}))
	require.NoError(t, cli.run([]string{"webempresa", "serve"}))
	assert.Equal(t, 2, called)
}

func TestRun_Usage(t *testing.T) {
	cli := setup(t)
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown command", args: []string{"lol"}},
		{name: "createadmin without email", args: []string{"createadmin", "-username", "root"}},
		{name: "resetpassword without username", args: []string{"resetpassword"}},
		{name: "migrate unknown", args: []string{"migrate", "down"}},
		{name: "seed bad flag", args: []string{"seed", "-nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, cli.run(append([]string{"webempresa"}, tt.args...)), errHelp)
		})
	}
}

func TestRun_MigrateVersion(t *testing.T) {
	cli := setup(t)
	require.NoError(t, cli.run([]string{"webempresa", "migrate"}))
	require.NoError(t, cli.run([]string{"webempresa", "migrate", "version"}))
	assert.Contains(t, cli.out.(*bytes.Buffer).String(), "schema version")
}

func TestRun_CreateAdmin(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	withPassword(t, "")
	assert.ErrorIs(t, cli.run([]string{"webempresa", "createadmin", "-username", "root", "-email", "root@example.com"}), errHelp)

	withPassword(t, "s3cret-pass")
	require.NoError(t, cli.run([]string{"webempresa", "createadmin", "-username", "root", "-email", "root@example.com"}))

	usr, err := cli.svc.Users.AuthenticateUser(ctx, "root", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, usr.Role)
	assert.True(t, usr.Admin())

	// Running it again promotes and resets the same account.
	withPassword(t, "another-pass")
	require.NoError(t, cli.run([]string{"webempresa", "createadmin", "-username", "root", "-email", "root@example.com"}))
	_, err = cli.svc.Users.AuthenticateUser(ctx, "root", "another-pass")
	require.NoError(t, err)
	list, err := cli.svc.Users.ListUsers(ctx, models.UserFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
}

func TestRun_ResetPassword(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()
	_, err := cli.svc.Users.CreateUser(ctx, services.UserInput{Username: "editor", Email: "editor@example.com", Password: "old-password"})
	require.NoError(t, err)

	withPassword(t, "lol-lol-lol")
	assert.ErrorIs(t, cli.run([]string{"webempresa", "resetpassword", "-username", "nobody"}), services.ErrNotFound)

	require.NoError(t, cli.run([]string{"webempresa", "resetpassword", "-username", "editor@example.com"}))
	_, err = cli.svc.Users.AuthenticateUser(ctx, "editor", "lol-lol-lol")
	assert.NoError(t, err)
	_, err = cli.svc.Users.AuthenticateUser(ctx, "editor", "old-password")
	assert.Error(t, err)
}

func TestRun_SeedIsIdempotent(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	require.NoError(t, cli.run([]string{"webempresa", "seed"}))
	require.NoError(t, cli.run([]string{"webempresa", "seed"}))

	pages, err := cli.svc.Pages.ListPages(ctx)
	require.NoError(t, err)
	assert.Len(t, pages, len(models.PageKeys))

	plans, err := cli.svc.Plans.ListPlans(ctx, false)
	require.NoError(t, err)
	assert.Len(t, plans, 3)

	assert.Error(t, cli.run([]string{"webempresa", "seed", "-file", "does-not-exist.yaml"}))
}
