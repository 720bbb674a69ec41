package app

import (
	"io"
	"log/slog"
)

// newLogger builds the application logger over the given writer. It does not
// set the global logger, so each App instance logs through its own handler.
func newLogger(level slog.Level, format string, outW io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}
