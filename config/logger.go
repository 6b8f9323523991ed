package config

import (
	"log/slog"
	"os"
)

// NewLogger returns a slog.Logger for the given environment: JSON handler in
// production, text handler otherwise. The level comes from LOG_LEVEL
// (debug, info, warn, error; default info).
func NewLogger(environment string) *slog.Logger {
	var level slog.Level
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
