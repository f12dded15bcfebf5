package database

import (
	"embed"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed migrations/*.sql
var migrations embed.FS

// New creates a new database connection pool for the given driver ("sqlite" or "postgres").
func New(driver, dataSourceName string) (*sqlx.DB, error) {
	switch driver {
	case "sqlite":
		dsn := dataSourceName
		if !strings.Contains(dsn, "?") {
			dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
		}
		db, err := sqlx.Open("sqlite", dsn)
		if err != nil {
			return nil, err
		}
		// SQLite serializes writers anyway, and every :memory: connection is its own database.
		db.SetMaxOpenConns(1)
		if err = db.Ping(); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	case "postgres":
		db, err := sqlx.Open("postgres", dataSourceName)
		if err != nil {
			return nil, err
		}
		if err = db.Ping(); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate applies every pending schema migration.
func Migrate(db *sqlx.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect(db)); err != nil {
		return err
	}
	return goose.Up(db.DB, "migrations")
}

// Version returns the current schema version.
func Version(db *sqlx.DB) (int64, error) {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(dialect(db)); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(db.DB)
}

func dialect(db *sqlx.DB) string {
	if db.DriverName() == "postgres" {
		return "postgres"
	}
	return "sqlite3"
}
