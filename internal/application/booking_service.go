package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/facility-scheduler/internal/persistence"
	"github.com/example/facility-scheduler/internal/recurrence"
	"github.com/example/facility-scheduler/internal/scheduling"
)

// BookingService orchestrates validation and admission for booking
// proposals.
type BookingService struct {
	events      persistence.ScheduledEventRepository
	idGenerator func() string
	logger      *slog.Logger
}

// NewBookingService wires dependencies for booking operations.
func NewBookingService(events persistence.ScheduledEventRepository, idGenerator func() string, logger *slog.Logger) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	return &BookingService{
		events:      events,
		idGenerator: idGenerator,
		logger:      logger,
	}
}

// Propose validates a booking proposal and submits it for admission. The
// returned event is the admitted booking; a Conflict error means an already
// admitted event holds part of the window.
func (s *BookingService) Propose(ctx context.Context, params ProposeEventParams) (Event, error) {
	if s == nil {
		return Event{}, fmt.Errorf("BookingService is nil")
	}
	input := params.Input

	vErr := &ValidationError{}
	kind := validateEventInput(input, vErr)
	if vErr.HasErrors() {
		return Event{}, vErr
	}

	candidate := persistence.ScheduledEvent{
		ID:          s.idGenerator(),
		ResourceID:  strings.TrimSpace(input.ResourceID),
		BookingKind: kind,
		Start:       input.Start,
		End:         input.End,
		OwnerID:     params.Principal.Operator,
		Description: input.Description,
		BookingID:   input.BookingID,
	}

	logger := serviceLogger(ctx, s.logger, "booking", "propose",
		"event_id", candidate.ID,
		"resource_id", candidate.ResourceID,
	)

	admitted, err := s.events.InsertIfNonConflicting(ctx, candidate, params.Replaces)
	if err != nil {
		mapped := mapPersistenceError(err)
		logger.WarnContext(ctx, "booking proposal rejected", "error_kind", ErrorKind(mapped))
		return Event{}, mapped
	}

	logger.InfoContext(ctx, "booking admitted",
		"starts_at", scheduling.FormatTzLess(admitted.Start),
		"ends_at", scheduling.FormatTzLess(admitted.End),
		"replaces", params.Replaces,
	)

	return eventFromPersistence(admitted), nil
}

// ProposeSeries expands a recurring template and admits each window in turn.
// The series is all-or-nothing: when any window is rejected, the windows
// already admitted for it are removed before the error is returned.
func (s *BookingService) ProposeSeries(ctx context.Context, params ProposeEventParams, rule recurrence.Rule) ([]Event, error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}
	if params.Replaces != "" {
		vErr := &ValidationError{}
		vErr.add("replaces", "a series cannot replace an existing event")
		return nil, vErr
	}

	vErr := &ValidationError{}
	validateEventInput(params.Input, vErr)
	if vErr.HasErrors() {
		return nil, vErr
	}

	windows, err := recurrence.Expand(params.Input.Start, params.Input.End, rule)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("series", err.Error())
		return nil, vErr
	}

	logger := serviceLogger(ctx, s.logger, "booking", "propose_series",
		"resource_id", params.Input.ResourceID,
		"windows", len(windows),
	)

	admitted := make([]Event, 0, len(windows))
	for _, window := range windows {
		occurrence := params
		occurrence.Input.Start = window.Start
		occurrence.Input.End = window.End

		event, err := s.Propose(ctx, occurrence)
		if err != nil {
			for _, prior := range admitted {
				if rerr := s.events.RemoveEvent(ctx, prior.ID); rerr != nil {
					logger.ErrorContext(ctx, "failed to roll back series occurrence",
						"event_id", prior.ID, "error", rerr)
				}
			}
			return nil, err
		}
		admitted = append(admitted, event)
	}

	logger.InfoContext(ctx, "series admitted")
	return admitted, nil
}

// Get retrieves a single event by id.
func (s *BookingService) Get(ctx context.Context, id string) (Event, error) {
	event, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return Event{}, mapPersistenceError(err)
	}
	return eventFromPersistence(event), nil
}

// Remove hard-deletes an event, freeing its window immediately.
func (s *BookingService) Remove(ctx context.Context, principal Principal, id string) error {
	logger := serviceLogger(ctx, s.logger, "booking", "remove", "event_id", id)

	if err := s.events.RemoveEvent(ctx, id); err != nil {
		return mapPersistenceError(err)
	}

	logger.InfoContext(ctx, "booking removed", "operator", principal.Operator)
	return nil
}

// AssignEquipment links an equipment unit to an event.
func (s *BookingService) AssignEquipment(ctx context.Context, eventID, equipmentID string) error {
	if err := s.events.AssignEquipment(ctx, eventID, equipmentID); err != nil {
		return mapPersistenceError(err)
	}
	return nil
}

// ReleaseEquipment removes an equipment link from an event.
func (s *BookingService) ReleaseEquipment(ctx context.Context, eventID, equipmentID string) error {
	if err := s.events.ReleaseEquipment(ctx, eventID, equipmentID); err != nil {
		return mapPersistenceError(err)
	}
	return nil
}

func validateEventInput(input EventInput, vErr *ValidationError) scheduling.BookingKind {
	if strings.TrimSpace(input.ResourceID) == "" {
		vErr.add("resourceId", "resource is required")
	}

	kind, err := scheduling.ParseBookingKind(input.BookingKind)
	if err != nil {
		vErr.add("bookingKind", "unknown booking kind")
	}

	switch {
	case input.Start.IsZero():
		vErr.add("startsAt", "start time is required")
	case input.End.IsZero():
		vErr.add("endsAt", "end time is required")
	case !input.Start.Before(input.End):
		vErr.add("endsAt", "end time must be after start time")
	}

	return kind
}

func mapPersistenceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrConflict):
		return ErrConflict
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrDuplicate
	case errors.Is(err, persistence.ErrUnavailable):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr := &ValidationError{}
		vErr.add("input", "constraint violation")
		return vErr
	}
	return err
}

func eventFromPersistence(event persistence.ScheduledEvent) Event {
	return Event{
		ID:          event.ID,
		ResourceID:  event.ResourceID,
		BookingKind: event.BookingKind,
		Start:       event.Start,
		End:         event.End,
		OwnerID:     event.OwnerID,
		Description: event.Description,
		BookingID:   event.BookingID,
		CreatedAt:   event.CreatedAt,
		UpdatedAt:   event.UpdatedAt,
	}
}
