// Package logger provides structured logging setup for taskdesk.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New creates a *slog.Logger writing JSON to stdout with a "service"
// attribute on every record.
func New(level string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler).With("service", "taskdesk")
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
