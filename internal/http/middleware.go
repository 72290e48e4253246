package http

import (
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/facility-scheduler/internal/application"
)

// TokenResolver validates presented operator tokens.
type TokenResolver interface {
	Resolve(token string) (application.Principal, error)
}

// RequireOperator rejects requests that carry no valid operator bearer token
// and attaches the resolved principal to the request context.
func RequireOperator(resolver TokenResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingBearerToken)
				return
			}

			principal, err := resolver.Resolve(token)
			if err != nil {
				responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{
					ErrorCode: "AUTH_REQUIRED",
					Message:   "the operator token is not recognized",
				})
				return
			}

			ctx := ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger annotates each request with a logger carrying a request id
// and writes start/completion entries.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "duration", time.Since(start))
		})
	}
}

func extractBearerToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, prefix))
	}
	return ""
}
