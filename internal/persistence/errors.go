package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrConflict is returned when a candidate interval overlaps an already
	// admitted event on the same resource.
	ErrConflict = errors.New("persistence: booking conflict")
	// ErrDuplicate is returned when a record with the same identity already
	// exists.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrConstraintViolation is returned when a record violates a store
	// level invariant, such as an inverted time range.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrUnavailable is returned after bounded retries when the store is
	// busy, locked, or aborted the transaction for isolation reasons. The
	// operation is safe to retry.
	ErrUnavailable = errors.New("persistence: store unavailable, retry")
)
