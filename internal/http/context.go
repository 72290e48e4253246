package http

import (
	"context"
	"log/slog"

	"github.com/example/facility-scheduler/internal/application"
	"github.com/example/facility-scheduler/internal/logging"
)

type contextKey string

const (
	principalContextKey contextKey = "principal"
	eventIDContextKey   contextKey = "event_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithEventID injects the event identifier resolved from the request path.
func ContextWithEventID(ctx context.Context, eventID string) context.Context {
	return context.WithValue(ctx, eventIDContextKey, eventID)
}

// EventIDFromContext extracts an event identifier previously associated with the context.
func EventIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(eventIDContextKey).(string)
	return id, ok
}

// ContextWithLogger attaches a request scoped logger to the context.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.WithLogger(ctx, logger)
}

// LoggerFromContext extracts the request scoped logger, or nil.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
