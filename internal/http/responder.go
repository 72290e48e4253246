package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/facility-scheduler/internal/application"
)

var (
	errBadRequestBody     = errors.New("invalid request body")
	errInvalidEventID     = errors.New("invalid event id")
	errInvalidEquipmentID = errors.New("invalid equipment id")
	errInvalidWindowBound = errors.New("window bounds must use the YYYY-MM-DD hh:mm:ss format")
	errMissingBearerToken = errors.New("an operator token is required")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_REQUIRED",
			Message:   "a valid operator token is required",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "the requested resource was not found"})
	case errors.Is(err, application.ErrConflict):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "BOOKING_CONFLICT",
			Message:   "the requested window overlaps an existing booking on this resource",
		})
	case errors.Is(err, application.ErrDuplicate):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "DUPLICATE",
			Message:   "the resource already exists",
		})
	case errors.Is(err, application.ErrUnavailable):
		r.writeJSON(ctx, w, http.StatusServiceUnavailable, errorResponse{
			ErrorCode: "RETRY_LATER",
			Message:   "the booking store is temporarily unavailable; retry the request",
		})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "the request contains invalid fields",
				Errors:  vErr.FieldErrors,
			})
			return
		}

		r.loggerFor(ctx).ErrorContext(ctx, "unhandled service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "internal server error"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
