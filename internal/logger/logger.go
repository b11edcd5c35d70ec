// Package logger provides structured logging configuration for the client and the sandbox server.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogFormat represents the output format for logs
type LogFormat string

const (
	// FormatJSON outputs logs in JSON format (server default)
	FormatJSON LogFormat = "json"
	// FormatText outputs logs in human-readable text format (CLI default)
	FormatText LogFormat = "text"
)

// New creates a structured logger writing to w.
// It reads LOG_LEVEL and LOG_FORMAT from environment variables; fallback is
// used when LOG_FORMAT is unset or unknown.
//
// LOG_LEVEL options: debug, info, warn, error (default: info)
// LOG_FORMAT options: json, text
func New(w io.Writer, fallback LogFormat) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	level := ParseLevel(os.Getenv("LOG_LEVEL"))
	format := ParseFormat(os.Getenv("LOG_FORMAT"), fallback)

	opts := &slog.HandlerOptions{
		Level: level,
		// source locations unless only errors are logged
		AddSource: level <= slog.LevelWarn,
	}

	var handler slog.Handler
	switch format {
	case FormatText:
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

// Discard returns a logger that drops every record. Used by tests and by
// callers that pass a nil logger.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel converts a LOG_LEVEL value into a slog.Level
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// ParseFormat converts a LOG_FORMAT value into a LogFormat
func ParseFormat(s string, fallback LogFormat) LogFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		return FormatText
	case "json":
		return FormatJSON
	default:
		if fallback == "" {
			return FormatJSON
		}
		return fallback
	}
}

// SetDefault sets the given logger as the default slog logger
func SetDefault(logger *slog.Logger) {
	slog.SetDefault(logger)
}
