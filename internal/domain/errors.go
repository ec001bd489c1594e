package domain

import (
	"errors"
	"sort"
	"strings"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist or is not owned by the caller.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. cycle hours out of range, empty location).
// Handlers should map this to HTTP 400.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned when another request holds the trip lock, for
// example two concurrent log regenerations. The caller may retry.
var ErrConflict = errors.New("conflict")

// ErrImmutable is returned when a write targets a completed trip.
var ErrImmutable = errors.New("trip is immutable")

// ErrRouteUnavailable is returned when geocoding or routing fails or times out.
// Planning is idempotent, so the whole request is safe to retry.
var ErrRouteUnavailable = errors.New("route unavailable")

// ErrLimitExceeded signals that the HOS clock was asked to accept driving or
// on-duty time beyond a saturated limit. It is an internal invariant break,
// never a user error.
var ErrLimitExceeded = errors.New("hos limit exceeded")

// ValidationError carries per-field and general validation messages.
// errors.Is(err, ErrValidation) holds for every *ValidationError.
type ValidationError struct {
	FieldErrors   map[string]string
	GeneralErrors []string
}

// NewValidationError returns an empty ValidationError ready for Field and General calls.
func NewValidationError() *ValidationError {
	return &ValidationError{FieldErrors: map[string]string{}}
}

// FieldError returns a ValidationError holding a single field message.
func FieldError(field, msg string) *ValidationError {
	e := NewValidationError()
	e.Field(field, msg)
	return e
}

// Field records a message for field. The first message per field wins.
func (e *ValidationError) Field(field, msg string) {
	if _, exists := e.FieldErrors[field]; !exists {
		e.FieldErrors[field] = msg
	}
}

// General records a message not tied to a single field.
func (e *ValidationError) General(msg string) {
	e.GeneralErrors = append(e.GeneralErrors, msg)
}

// Empty reports whether no messages were recorded.
func (e *ValidationError) Empty() bool {
	return len(e.FieldErrors) == 0 && len(e.GeneralErrors) == 0
}

// OrNil returns e when it holds messages and nil otherwise, so callers can
// write `return verr.OrNil()` without the typed-nil interface trap.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

// Error formats fields in sorted order so messages are stable across runs.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.FieldErrors)+len(e.GeneralErrors))
	keys := make([]string, 0, len(e.FieldErrors))
	for k := range e.FieldErrors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+": "+e.FieldErrors[k])
	}
	parts = append(parts, e.GeneralErrors...)
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
