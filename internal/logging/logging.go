package logging

import (
	"context"
	"io"
	"log/slog"
)

// New builds the structured JSON logger used across the service.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

type contextKey struct{}

// WithLogger returns a derived context carrying the logger, usually one
// annotated with per-request attributes.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts the logger attached to the context, or nil.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(contextKey{}).(*slog.Logger)
	return logger
}
