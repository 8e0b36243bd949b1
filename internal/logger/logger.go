package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/jwebster45206/adventure-engine/internal/config"
)

// Setup configures the global slog logger based on environment. The returned
// LevelVar lets the session raise verbosity at runtime.
func Setup(cfg *config.Config) (*slog.Logger, *slog.LevelVar) {
	return SetupWriter(cfg, os.Stdout)
}

// SetupWriter is Setup writing to w.
func SetupWriter(cfg *config.Config, w io.Writer) (*slog.Logger, *slog.LevelVar) {
	var handler slog.Handler

	level := new(slog.LevelVar)
	level.Set(cfg.LogLevel)
	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.Environment == "production" {
		// JSON format for production
		handler = slog.NewJSONHandler(w, opts)
	} else {
		// Text format for development
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)

	// Set as default logger
	slog.SetDefault(logger)

	return logger, level
}

// WithSessionID adds the session ID to logger context
func WithSessionID(logger *slog.Logger, sessionID string) *slog.Logger {
	return logger.With("session_id", sessionID)
}

// WithError adds error to logger context
func WithError(logger *slog.Logger, err error) *slog.Logger {
	return logger.With("error", err.Error())
}
