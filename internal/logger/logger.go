// internal/logger/logger.go
package logger

import (
	"os"
	"time"

	"github.com/rollbar/rollbar-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/webempresa/internal/config"
)

// Init configures the global zerolog logger for the given configuration.
func Init(cfg *config.Config) {
	if cfg.IsProduction() {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		// Use ConsoleWriter for human-readable, colorized output in development
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Add a hook to include the caller's file and line number
	log.Logger = log.With().Caller().Logger()

	if cfg.RollbarToken != "" {
		rollbar.SetToken(cfg.RollbarToken)
		rollbar.SetEnvironment(cfg.Env)
		rollbar.SetServerRoot("github.com/isdelr/webempresa")
		log.Logger = log.Hook(RollbarHook{})
		log.Info().Msg("Rollbar error reporting enabled")
	}
}

// Close flushes pending Rollbar items.
func Close() {
	rollbar.Close()
}

// RollbarHook forwards error and fatal log lines to Rollbar.
type RollbarHook struct{}

// Run implements zerolog.Hook.
func (RollbarHook) Run(_ *zerolog.Event, level zerolog.Level, msg string) {
	switch level {
	case zerolog.ErrorLevel:
		rollbar.Error(msg)
	case zerolog.FatalLevel, zerolog.PanicLevel:
		rollbar.Critical(msg)
	}
}
