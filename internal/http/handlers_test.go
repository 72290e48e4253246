package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/facility-scheduler/internal/application"
	"github.com/example/facility-scheduler/internal/persistence/memory"
	"github.com/example/facility-scheduler/internal/testfixtures"
)

const testOperatorToken = "test-operator-token"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	factory := testfixtures.NewServiceFactory()
	store := memory.NewStore(factory.Clock.NowFunc())

	bookings := factory.NewBookingService(store, nil)
	calendar, err := factory.NewCalendarService(store, store, nil)
	if err != nil {
		t.Fatalf("NewCalendarService failed: %v", err)
	}
	equipment := factory.NewEquipmentService(store, nil)

	digest, err := application.CreateTokenDigest(testOperatorToken, application.DefaultArgon2idParams)
	if err != nil {
		t.Fatalf("CreateTokenDigest failed: %v", err)
	}
	registry := application.NewOperatorRegistry([]application.OperatorEntry{
		{Operator: "ops", Digest: digest},
	})

	router := NewRouter(RouterConfig{
		Events:    NewEventHandler(bookings, calendar, nil),
		Equipment: NewEquipmentHandler(equipment, nil),
		Middleware: []func(http.Handler) http.Handler{
			RequireOperator(registry, nil),
		},
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func doRequest(t *testing.T, server *httptest.Server, method, path string, payload any) (*http.Response, []byte) {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewBuffer(encoded)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, body)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+testOperatorToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return resp, buf.Bytes()
}

func proposeBody(resource, start, end string) map[string]any {
	return map[string]any{
		"resource_id":  resource,
		"booking_kind": "MAINTENANCE",
		"starts_at":    start,
		"ends_at":      end,
	}
}

func TestProposeEventEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, body := doRequest(t, server, http.MethodPost, "/events",
		proposeBody("instrument-a", "2026-09-01 09:00:00", "2026-09-01 10:00:00"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, body)
	}

	var dto eventDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if dto.ID == "" || dto.ResourceID != "instrument-a" || dto.OwnerID != "ops" {
		t.Errorf("unexpected event payload: %+v", dto)
	}
	if dto.StartsAt != "2026-09-01 09:00:00" {
		t.Errorf("expected timezone-naive start, got %q", dto.StartsAt)
	}
}

func TestProposeEventConflictEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, body := doRequest(t, server, http.MethodPost, "/events",
		proposeBody("instrument-a", "2026-09-01 09:00:00", "2026-09-01 11:00:00"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("seed proposal: expected 201, got %d: %s", resp.StatusCode, body)
	}

	resp, body = doRequest(t, server, http.MethodPost, "/events",
		proposeBody("instrument-a", "2026-09-01 10:00:00", "2026-09-01 12:00:00"))
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", resp.StatusCode, body)
	}

	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if errResp.ErrorCode != "BOOKING_CONFLICT" {
		t.Errorf("expected error_code BOOKING_CONFLICT, got %q", errResp.ErrorCode)
	}
}

func TestProposeEventValidationEndpoint(t *testing.T) {
	server := newTestServer(t)

	body := proposeBody("", "2026-09-01 10:00:00", "2026-09-01 09:00:00")
	resp, raw := doRequest(t, server, http.MethodPost, "/events", body)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", resp.StatusCode, raw)
	}

	var errResp errorResponse
	if err := json.Unmarshal(raw, &errResp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if len(errResp.Errors) == 0 {
		t.Error("expected field errors in response")
	}
}

func TestProposeEventBadTimestampEndpoint(t *testing.T) {
	server := newTestServer(t)

	body := proposeBody("instrument-a", "2026-09-01T09:00:00Z", "2026-09-01 10:00:00")
	resp, raw := doRequest(t, server, http.MethodPost, "/events", body)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for zoned timestamp, got %d: %s", resp.StatusCode, raw)
	}
}

func TestReplaceEventEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, raw := doRequest(t, server, http.MethodPost, "/events",
		proposeBody("instrument-a", "2026-09-01 09:00:00", "2026-09-01 10:00:00"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("seed proposal: expected 201, got %d", resp.StatusCode)
	}
	var prior eventDTO
	if err := json.Unmarshal(raw, &prior); err != nil {
		t.Fatalf("failed to decode prior event: %v", err)
	}

	body := proposeBody("instrument-a", "2026-09-01 09:30:00", "2026-09-01 10:30:00")
	body["replaces"] = prior.ID
	resp, raw = doRequest(t, server, http.MethodPost, "/events", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("replacement: expected 201, got %d: %s", resp.StatusCode, raw)
	}

	resp, _ = doRequest(t, server, http.MethodGet, "/events/"+prior.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected superseded event to 404, got %d", resp.StatusCode)
	}
}

func TestProposeSeriesEndpoint(t *testing.T) {
	server := newTestServer(t)

	body := proposeBody("instrument-a", "2026-09-01 09:00:00", "2026-09-01 10:00:00")
	body["recurrence"] = map[string]any{
		"frequency": "DAILY",
		"until":     "2026-09-03 12:00:00",
	}

	resp, raw := doRequest(t, server, http.MethodPost, "/events", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, raw)
	}

	var list eventListResponse
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("failed to decode series response: %v", err)
	}
	if len(list.Events) != 3 {
		t.Fatalf("expected 3 admitted occurrences, got %d", len(list.Events))
	}
	for i, want := range []string{"2026-09-01 09:00:00", "2026-09-02 09:00:00", "2026-09-03 09:00:00"} {
		if list.Events[i].StartsAt != want {
			t.Errorf("occurrence %d: expected start %q, got %q", i, want, list.Events[i].StartsAt)
		}
	}
}

func TestProposeSeriesConflictEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, raw := doRequest(t, server, http.MethodPost, "/events",
		proposeBody("instrument-a", "2026-09-02 09:30:00", "2026-09-02 09:45:00"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("seed proposal: expected 201, got %d: %s", resp.StatusCode, raw)
	}

	body := proposeBody("instrument-a", "2026-09-01 09:00:00", "2026-09-01 10:00:00")
	body["recurrence"] = map[string]any{
		"frequency": "DAILY",
		"until":     "2026-09-03 12:00:00",
	}
	resp, raw = doRequest(t, server, http.MethodPost, "/events", body)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", resp.StatusCode, raw)
	}

	var errResp errorResponse
	if err := json.Unmarshal(raw, &errResp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if errResp.ErrorCode != "BOOKING_CONFLICT" {
		t.Errorf("expected error_code BOOKING_CONFLICT, got %q", errResp.ErrorCode)
	}

	// A rejected series leaves no partial admissions behind.
	resp, raw = doRequest(t, server, http.MethodGet, "/events?resource_id=instrument-a", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("listing: expected 200, got %d", resp.StatusCode)
	}
	var list eventListResponse
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("failed to decode listing: %v", err)
	}
	if len(list.Events) != 1 {
		t.Fatalf("expected only the seeded event to remain, got %d", len(list.Events))
	}
}

func TestProposeSeriesValidationEndpoint(t *testing.T) {
	server := newTestServer(t)

	body := proposeBody("instrument-a", "2026-09-01 09:00:00", "2026-09-01 10:00:00")
	body["recurrence"] = map[string]any{"frequency": "YEARLY"}

	resp, raw := doRequest(t, server, http.MethodPost, "/events", body)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", resp.StatusCode, raw)
	}

	var errResp errorResponse
	if err := json.Unmarshal(raw, &errResp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if _, ok := errResp.Errors["recurrence.frequency"]; !ok {
		t.Errorf("expected a recurrence.frequency field error, got %v", errResp.Errors)
	}
	if _, ok := errResp.Errors["recurrence.until"]; !ok {
		t.Errorf("expected a recurrence.until field error, got %v", errResp.Errors)
	}
}

func TestListEventsEndpoint(t *testing.T) {
	server := newTestServer(t)

	for _, window := range [][2]string{
		{"2026-09-01 01:00:00", "2026-09-01 02:00:00"},
		{"2026-09-01 03:00:00", "2026-09-01 04:00:00"},
		{"2026-09-01 05:00:00", "2026-09-01 06:00:00"},
	} {
		resp, raw := doRequest(t, server, http.MethodPost, "/events",
			proposeBody("instrument-a", window[0], window[1]))
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("seed proposal: expected 201, got %d: %s", resp.StatusCode, raw)
		}
	}

	resp, raw := doRequest(t, server, http.MethodGet,
		"/events?resource_id=instrument-a&starts_after=2026-09-01+02:30:00&ends_before=2026-09-01+05:30:00", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}

	var list eventListResponse
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if len(list.Events) != 2 {
		t.Fatalf("expected 2 events in window, got %d", len(list.Events))
	}
}

func TestEquipmentMergeEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, raw := doRequest(t, server, http.MethodPost, "/equipment", map[string]any{"name": "cryostat"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create equipment: expected 201, got %d: %s", resp.StatusCode, raw)
	}
	var equipment equipmentDTO
	if err := json.Unmarshal(raw, &equipment); err != nil {
		t.Fatalf("failed to decode equipment: %v", err)
	}

	resp, raw = doRequest(t, server, http.MethodPost, "/events",
		proposeBody("instrument-a", "2026-09-01 09:00:00", "2026-09-01 10:00:00"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("propose: expected 201, got %d", resp.StatusCode)
	}
	var event eventDTO
	if err := json.Unmarshal(raw, &event); err != nil {
		t.Fatalf("failed to decode event: %v", err)
	}

	resp, raw = doRequest(t, server, http.MethodPost, "/events/"+event.ID+"/equipment",
		map[string]any{"equipment_id": equipment.ID})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("assign equipment: expected 204, got %d: %s", resp.StatusCode, raw)
	}

	resp, raw = doRequest(t, server, http.MethodGet,
		"/events?resource_id=instrument-a&equipment_ids="+equipment.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("query: expected 200, got %d: %s", resp.StatusCode, raw)
	}

	var list eventListResponse
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if len(list.Events) != 2 {
		t.Fatalf("expected instrument and equipment entries, got %d", len(list.Events))
	}

	var equipmentEntry *eventDTO
	for i := range list.Events {
		if list.Events[i].EquipmentID != "" {
			equipmentEntry = &list.Events[i]
		}
	}
	if equipmentEntry == nil {
		t.Fatal("expected an equipment sourced entry")
	}
	if equipmentEntry.BookingKind != "EQUIPMENT" {
		t.Errorf("expected EQUIPMENT kind, got %q", equipmentEntry.BookingKind)
	}
	if equipmentEntry.Description == nil || *equipmentEntry.Description != "cryostat" {
		t.Errorf("expected equipment name as description, got %v", equipmentEntry.Description)
	}

	// Releasing removes the merged entry.
	resp, _ = doRequest(t, server, http.MethodDelete, "/events/"+event.ID+"/equipment/"+equipment.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("release equipment: expected 204, got %d", resp.StatusCode)
	}
	resp, raw = doRequest(t, server, http.MethodGet,
		"/events?resource_id=instrument-a&equipment_ids="+equipment.ID, nil)
	var after eventListResponse
	if err := json.Unmarshal(raw, &after); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if len(after.Events) != 1 {
		t.Fatalf("expected only the instrument entry after release, got %d", len(after.Events))
	}
}

func TestDeleteEventEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, raw := doRequest(t, server, http.MethodPost, "/events",
		proposeBody("instrument-a", "2026-09-01 09:00:00", "2026-09-01 10:00:00"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("propose: expected 201, got %d", resp.StatusCode)
	}
	var event eventDTO
	if err := json.Unmarshal(raw, &event); err != nil {
		t.Fatalf("failed to decode event: %v", err)
	}

	resp, _ = doRequest(t, server, http.MethodDelete, "/events/"+event.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}
	resp, _ = doRequest(t, server, http.MethodDelete, "/events/"+event.ID, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("double delete: expected 404, got %d", resp.StatusCode)
	}

	// The freed window admits again.
	resp, _ = doRequest(t, server, http.MethodPost, "/events",
		proposeBody("instrument-a", "2026-09-01 09:00:00", "2026-09-01 10:00:00"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("re-propose: expected 201, got %d", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doRequest(t, server, http.MethodPut, "/events", nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
	if allow := resp.Header.Get("Allow"); allow == "" {
		t.Error("expected Allow header on 405")
	}
}
