package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced verbatim to the caller. None are retried or
// recovered inside the core.
var (
	// ErrForbidden: the visibility filter denied the read or write.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound: no such entity.
	ErrNotFound = errors.New("not found")

	// ErrConflict: the write carried a stale base version and lost the race.
	ErrConflict = errors.New("conflict: entity was modified by another actor")

	// ErrWindowExpired: the 15-minute mutability window from creation has closed.
	ErrWindowExpired = errors.New("mutability window expired")
)

// InvalidTransitionError names the current and requested states of a rejected
// status transition.
type InvalidTransitionError struct {
	Kind      EntityKind
	Current   string
	Requested string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition: %s -> %s", e.Kind, e.Current, e.Requested)
}

// ValidationError flags a malformed payload field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var ite *InvalidTransitionError
	return errors.As(err, &ite)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
