package http

import (
	"context"
	"log/slog"
)

// handlerLogger resolves the request-scoped logger and tags it with the
// handler and operation emitting the entry.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(ctx)
	switch {
	case logger != nil:
	case fallback != nil:
		logger = fallback
	default:
		logger = slog.Default()
	}

	tagged := logger.With("handler", handlerName)
	if operation != "" {
		tagged = tagged.With("operation", operation)
	}
	if len(attrs) > 0 {
		tagged = tagged.With(attrs...)
	}
	return tagged
}
