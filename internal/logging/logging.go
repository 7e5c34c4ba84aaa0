// Package logging configures slog and the request-logging middleware.
package logging

import (
	"io"
	"log/slog"
)

// Setup installs the default slog logger writing to w.
// Dev mode logs readable text at debug level; otherwise JSON at info.
func Setup(w io.Writer, devMode bool) {
	slog.SetDefault(slog.New(NewHandler(w, devMode)))
}

// NewHandler returns the handler Setup installs.
func NewHandler(w io.Writer, devMode bool) slog.Handler {
	if devMode {
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
}
