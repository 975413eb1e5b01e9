// Package logger configures the process-wide log/slog logger.
//
// Production uses a JSON handler for log aggregators; every other
// environment uses the human-readable text handler.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup builds the logger for env and level, installs it as the slog
// default and returns it.
func Setup(env, level string) *slog.Logger {
	return SetupWriter(os.Stdout, env, level)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(w io.Writer, env, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	switch strings.ToLower(env) {
	case "production", "prod":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler)
	slog.SetDefault(l)
	return l
}

// Discard installs a logger that drops everything. Tests call it from
// TestMain.
func Discard() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
