// Package logging configures the process-wide structured logger.
// Library packages stay log-free; only the inference runner and the CLI
// emit records, tagged with a component attribute.
package logging

import (
	"log/slog"
	"os"
)

// Setup installs the default slog logger with the given level ("debug",
// "info", "warn", "error") and format ("text" or "json").
func Setup(level, format string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// WithComponent returns the default logger tagged with a component name.
func WithComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

func parseLevel(level string) slog.Level {
	switch level {
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
