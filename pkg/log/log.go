// Package log configures the process-wide slog default and hands out
// module-scoped loggers.
package log

import (
	"io"
	"log/slog"
	"os"
)

// Setup installs the default logger. Format is "text" or "json"; anything
// else falls back to text.
func Setup(logLevel, format string) {
	slog.SetDefault(slog.New(NewHandler(os.Stderr, logLevel, format)))
}

// NewHandler builds a slog handler for the given level and format.
func NewHandler(w io.Writer, logLevel, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(logLevel)}

	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}

	return slog.NewTextHandler(w, opts)
}

func parseLevel(logLevel string) slog.Level {
	switch logLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
