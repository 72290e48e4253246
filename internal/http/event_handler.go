package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/facility-scheduler/internal/application"
	"github.com/example/facility-scheduler/internal/recurrence"
	"github.com/example/facility-scheduler/internal/scheduling"
)

type bookingService interface {
	Propose(ctx context.Context, params application.ProposeEventParams) (application.Event, error)
	ProposeSeries(ctx context.Context, params application.ProposeEventParams, rule recurrence.Rule) ([]application.Event, error)
	Get(ctx context.Context, id string) (application.Event, error)
	Remove(ctx context.Context, principal application.Principal, id string) error
	AssignEquipment(ctx context.Context, eventID, equipmentID string) error
	ReleaseEquipment(ctx context.Context, eventID, equipmentID string) error
}

type calendarService interface {
	Query(ctx context.Context, params application.QueryEventsParams) ([]application.Event, error)
}

// EventHandler serves the /events endpoints.
type EventHandler struct {
	bookings  bookingService
	calendar  calendarService
	responder responder
	logger    *slog.Logger
}

// NewEventHandler wires the booking and calendar services into HTTP handlers.
func NewEventHandler(bookings bookingService, calendar calendarService, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		bookings:  bookings,
		calendar:  calendar,
		responder: newResponder(logger),
		logger:    logger,
	}
}

// Propose handles POST /events.
func (h *EventHandler) Propose(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.bookings == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, vErr := req.toInput()
	if vErr.HasErrors() {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	params := application.ProposeEventParams{
		Principal: principal,
		Input:     input,
		Replaces:  strings.TrimSpace(req.Replaces),
	}

	if req.Recurrence != nil {
		rule, vErr := req.Recurrence.toRule()
		if vErr.HasErrors() {
			h.responder.handleServiceError(r.Context(), w, vErr)
			return
		}

		admitted, err := h.bookings.ProposeSeries(r.Context(), params, rule)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}

		dtos := make([]eventDTO, 0, len(admitted))
		for _, event := range admitted {
			dtos = append(dtos, toEventDTO(event))
		}
		h.responder.writeJSON(r.Context(), w, http.StatusCreated, eventListResponse{Events: dtos})
		return
	}

	event, err := h.bookings.Propose(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toEventDTO(event))
}

// List handles GET /events.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.calendar == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	params := application.QueryEventsParams{
		ResourceID: strings.TrimSpace(query.Get("resource_id")),
	}
	if principal, ok := PrincipalFromContext(r.Context()); ok {
		params.Principal = principal
	}

	if raw := strings.TrimSpace(query.Get("starts_after")); raw != "" {
		bound, err := scheduling.ParseTzLess(raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidWindowBound)
			return
		}
		params.StartsAfter = &bound
	}
	if raw := strings.TrimSpace(query.Get("ends_before")); raw != "" {
		bound, err := scheduling.ParseTzLess(raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidWindowBound)
			return
		}
		params.EndsBefore = &bound
	}
	if raw := strings.TrimSpace(query.Get("equipment_ids")); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				params.EquipmentIDs = append(params.EquipmentIDs, id)
			}
		}
	}

	events, err := h.calendar.Query(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]eventDTO, 0, len(events))
	for _, event := range events {
		dtos = append(dtos, toEventDTO(event))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, eventListResponse{Events: dtos})
}

// Get handles GET /events/{id}.
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	event, err := h.bookings.Get(r.Context(), eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEventDTO(event))
}

// Delete handles DELETE /events/{id}.
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.bookings.Remove(r.Context(), principal, eventID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// AssignEquipment handles POST /events/{id}/equipment.
func (h *EventHandler) AssignEquipment(w http.ResponseWriter, r *http.Request) {
	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	var req assignEquipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	equipmentID := strings.TrimSpace(req.EquipmentID)
	if equipmentID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEquipmentID)
		return
	}

	if err := h.bookings.AssignEquipment(r.Context(), eventID, equipmentID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// ReleaseEquipment handles DELETE /events/{id}/equipment/{eqID}.
func (h *EventHandler) ReleaseEquipment(w http.ResponseWriter, r *http.Request, equipmentID string) {
	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}
	if strings.TrimSpace(equipmentID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEquipmentID)
		return
	}

	if err := h.bookings.ReleaseEquipment(r.Context(), eventID, equipmentID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// eventRequest is the wire payload for booking proposals. Timestamps use the
// timezone-naive "2006-01-02 15:04:05" layout.
type eventRequest struct {
	ResourceID  string  `json:"resource_id"`
	BookingKind string  `json:"booking_kind"`
	StartsAt    string  `json:"starts_at"`
	EndsAt      string  `json:"ends_at"`
	Description *string `json:"description,omitempty"`
	BookingID   *string `json:"booking_id,omitempty"`
	Replaces    string  `json:"replaces,omitempty"`

	// Recurrence turns the proposal into a series template; every expanded
	// window is admitted individually.
	Recurrence *recurrenceRequest `json:"recurrence,omitempty"`
}

// recurrenceRequest is the wire form of a series rule. Until uses the same
// timezone-naive layout as the event timestamps.
type recurrenceRequest struct {
	Frequency string   `json:"frequency"`
	Weekdays  []string `json:"weekdays,omitempty"`
	Until     string   `json:"until"`
}

func (req recurrenceRequest) toRule() (recurrence.Rule, *application.ValidationError) {
	vErr := &application.ValidationError{FieldErrors: map[string]string{}}
	var rule recurrence.Rule

	frequency, err := recurrence.ParseFrequency(strings.TrimSpace(req.Frequency))
	if err != nil {
		vErr.FieldErrors["recurrence.frequency"] = "must be DAILY or WEEKLY"
	}
	rule.Frequency = frequency

	for _, raw := range req.Weekdays {
		day, err := recurrence.ParseWeekday(strings.ToUpper(strings.TrimSpace(raw)))
		if err != nil {
			vErr.FieldErrors["recurrence.weekdays"] = "must use uppercase weekday names such as MONDAY"
			break
		}
		rule.Weekdays = append(rule.Weekdays, day)
	}

	if raw := strings.TrimSpace(req.Until); raw == "" {
		vErr.FieldErrors["recurrence.until"] = "is required"
	} else {
		until, err := scheduling.ParseTzLess(raw)
		if err != nil {
			vErr.FieldErrors["recurrence.until"] = "must use the YYYY-MM-DD hh:mm:ss format"
		} else {
			rule.Until = until
		}
	}

	return rule, vErr
}

func (req eventRequest) toInput() (application.EventInput, *application.ValidationError) {
	vErr := &application.ValidationError{FieldErrors: map[string]string{}}
	input := application.EventInput{
		ResourceID:  strings.TrimSpace(req.ResourceID),
		BookingKind: req.BookingKind,
		Description: req.Description,
		BookingID:   req.BookingID,
	}

	if raw := strings.TrimSpace(req.StartsAt); raw != "" {
		start, err := scheduling.ParseTzLess(raw)
		if err != nil {
			vErr.FieldErrors["starts_at"] = "must use the YYYY-MM-DD hh:mm:ss format"
		} else {
			input.Start = start
		}
	}
	if raw := strings.TrimSpace(req.EndsAt); raw != "" {
		end, err := scheduling.ParseTzLess(raw)
		if err != nil {
			vErr.FieldErrors["ends_at"] = "must use the YYYY-MM-DD hh:mm:ss format"
		} else {
			input.End = end
		}
	}

	return input, vErr
}

type assignEquipmentRequest struct {
	EquipmentID string `json:"equipment_id"`
}

type eventDTO struct {
	ID          string  `json:"id"`
	ResourceID  string  `json:"resource_id"`
	BookingKind string  `json:"booking_kind"`
	StartsAt    string  `json:"starts_at"`
	EndsAt      string  `json:"ends_at"`
	OwnerID     string  `json:"owner_id"`
	Description *string `json:"description,omitempty"`
	BookingID   *string `json:"booking_id,omitempty"`
	EquipmentID string  `json:"equipment_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

type eventListResponse struct {
	Events []eventDTO `json:"events"`
}

func toEventDTO(event application.Event) eventDTO {
	return eventDTO{
		ID:          event.ID,
		ResourceID:  event.ResourceID,
		BookingKind: string(event.BookingKind),
		StartsAt:    scheduling.FormatTzLess(event.Start),
		EndsAt:      scheduling.FormatTzLess(event.End),
		OwnerID:     event.OwnerID,
		Description: event.Description,
		BookingID:   event.BookingID,
		EquipmentID: event.EquipmentID,
		CreatedAt:   event.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   event.UpdatedAt.Format(time.RFC3339),
	}
}
