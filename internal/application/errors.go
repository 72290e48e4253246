package application

import "errors"

var (
	// ErrUnauthorized is returned when the caller presents no valid operator token.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested event or equipment does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrConflict is returned when a proposed booking overlaps an admitted one.
	ErrConflict = errors.New("application: booking conflict")
	// ErrDuplicate is returned when an insert collides with an existing identifier.
	ErrDuplicate = errors.New("application: duplicate")
	// ErrUnavailable is returned for transient store failures the caller may retry.
	ErrUnavailable = errors.New("application: temporarily unavailable")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
