package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultJWTSecret is only acceptable outside production.
const DefaultJWTSecret = "webempresa-dev-secret-change-me"

// Config holds the application configuration.
type Config struct {
	Env            string
	ServerPort     int // content API
	SitePort       int // public site + admin dashboard
	DatabaseDriver string
	DatabaseURL    string
	JWTSecret      string
	TokenTTL       time.Duration
	AllowedOrigins []string
	APIBaseURL     string // where the site reaches the API
	MediaDir       string
	MediaBaseURL   string // prefix of public media links

	SendgridAPIKey   string
	DefaultFromEmail string
	AdminNotifyEmail string
	RollbarToken     string

	SeedFile       string
	DockerEnabled  bool
	DockerLabel    string
	DigestCron     string
	PurgeCron      string
	EventRetention time.Duration
	HealthInterval time.Duration
	LogLevel       string
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load loads configuration from an optional .env file, environment variables, and defaults.
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("config: loading %s: %w", envFile, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: stat %s: %w", envFile, err)
	}

	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", 8002)
	v.SetDefault("SITE_PORT", 3001)
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_URL", "./webempresa.db")
	v.SetDefault("JWT_SECRET", DefaultJWTSecret)
	v.SetDefault("TOKEN_TTL", 24*time.Hour)
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3001,http://127.0.0.1:3001")
	v.SetDefault("API_BASE_URL", "")
	v.SetDefault("MEDIA_DIR", "./media")
	v.SetDefault("MEDIA_BASE_URL", "")
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("DEFAULT_FROM_EMAIL", "noreply@webempresa.com")
	v.SetDefault("ADMIN_NOTIFY_EMAIL", "")
	v.SetDefault("ROLLBAR_TOKEN", "")
	v.SetDefault("SEED_FILE", "")
	v.SetDefault("DOCKER_ENABLED", false)
	v.SetDefault("DOCKER_LABEL", "com.webempresa.stack")
	v.SetDefault("DIGEST_CRON", "0 8 * * *")
	v.SetDefault("PURGE_CRON", "30 3 * * *")
	v.SetDefault("EVENT_RETENTION", 90*24*time.Hour)
	v.SetDefault("HEALTH_INTERVAL", 15*time.Second)
	v.SetDefault("LOG_LEVEL", "info")

	v.AutomaticEnv()
	return v
}

// FromViper builds a Config out of an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:              strings.ToLower(v.GetString("APP_ENV")),
		ServerPort:       v.GetInt("PORT"),
		SitePort:         v.GetInt("SITE_PORT"),
		DatabaseDriver:   strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseURL:      v.GetString("DATABASE_URL"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		TokenTTL:         v.GetDuration("TOKEN_TTL"),
		AllowedOrigins:   splitList(v.GetString("ALLOWED_ORIGINS")),
		APIBaseURL:       strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
		MediaDir:         v.GetString("MEDIA_DIR"),
		MediaBaseURL:     strings.TrimRight(v.GetString("MEDIA_BASE_URL"), "/"),
		SendgridAPIKey:   v.GetString("SENDGRID_API_KEY"),
		DefaultFromEmail: v.GetString("DEFAULT_FROM_EMAIL"),
		AdminNotifyEmail: v.GetString("ADMIN_NOTIFY_EMAIL"),
		RollbarToken:     v.GetString("ROLLBAR_TOKEN"),
		SeedFile:         v.GetString("SEED_FILE"),
		DockerEnabled:    v.GetBool("DOCKER_ENABLED"),
		DockerLabel:      v.GetString("DOCKER_LABEL"),
		DigestCron:       v.GetString("DIGEST_CRON"),
		PurgeCron:        v.GetString("PURGE_CRON"),
		EventRetention:   v.GetDuration("EVENT_RETENTION"),
		HealthInterval:   v.GetDuration("HEALTH_INTERVAL"),
		LogLevel:         v.GetString("LOG_LEVEL"),
	}

	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = fmt.Sprintf("http://localhost:%d", cfg.ServerPort)
	}
	if cfg.MediaBaseURL == "" {
		cfg.MediaBaseURL = cfg.APIBaseURL
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.ServerPort <= 0 || c.SitePort <= 0 {
		return fmt.Errorf("config: ports must be positive (PORT=%d, SITE_PORT=%d)", c.ServerPort, c.SitePort)
	}
	if c.ServerPort == c.SitePort {
		return fmt.Errorf("config: PORT and SITE_PORT must differ")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("config: TOKEN_TTL must be positive")
	}
	if c.HealthInterval <= 0 {
		return fmt.Errorf("config: HEALTH_INTERVAL must be positive")
	}
	if c.EventRetention < 0 {
		return fmt.Errorf("config: EVENT_RETENTION cannot be negative")
	}
	if c.MediaDir == "" {
		return fmt.Errorf("config: MEDIA_DIR cannot be empty")
	}
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == DefaultJWTSecret) {
		return fmt.Errorf("config: JWT_SECRET must be set in production")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
