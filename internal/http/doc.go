// Package http provides HTTP handlers and middleware for the booking API.
//
// The router exposes the following endpoints, all behind operator bearer
// token authentication:
//   - POST /events: proposes a booking. Body: the `eventRequest` payload
//     defined in event_handler.go; an optional `replaces` field atomically
//     supersedes an existing event. Overlap rejections return 409 with
//     error_code BOOKING_CONFLICT. An optional `recurrence` object
//     (frequency DAILY|WEEKLY, optional weekday names, until bound) expands
//     the proposal into a series; the whole series is admitted or none of
//     it, and the response lists every admitted occurrence.
//   - GET /events: calendar query. Accepts `resource_id`, `starts_after`,
//     `ends_before` (timezone-naive "2006-01-02 15:04:05" timestamps) and a
//     comma separated `equipment_ids` list whose matches are merged in as
//     equipment entries.
//   - GET /events/{id}, DELETE /events/{id}: single event retrieval and
//     removal. Removal frees the window immediately.
//   - POST /events/{id}/equipment, DELETE /events/{id}/equipment/{eqID}:
//     equipment assignment management for one event.
//   - GET /equipment, POST /equipment, GET /equipment/{id},
//     DELETE /equipment/{id}: equipment catalog endpoints exchanging the
//     `equipmentDTO` payload defined in equipment_handler.go.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
