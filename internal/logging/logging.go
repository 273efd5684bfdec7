// Package logging wraps log/slog with the text/JSON handler toggle used
// across the CLI. Logging always goes to stderr; stdout is reserved for
// the KEY=VALUE summary contract.
package logging

import (
	"log/slog"
	"os"
)

// New builds a logger writing to stderr, text-formatted by default or
// JSON when json is true. verbose lowers the level to Debug.
func New(json bool, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
