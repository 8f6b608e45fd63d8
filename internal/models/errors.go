package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain invariant violations. These are programming
// errors, not expected failure modes, and are never absorbed silently.
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("entity not found")

	// ErrMaxRetriesExceeded indicates retry() was called with no retry
	// budget left
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")

	// ErrTerminalState indicates a mutation was attempted on a completed
	// or cancelled aggregate
	ErrTerminalState = errors.New("aggregate is in a terminal state")

	// ErrMissingExternalID indicates complete() was called without the
	// external id the target returned
	ErrMissingExternalID = errors.New("external id is required to complete a publication")
)

// IllegalTransitionError identifies the exact source/target pair of a
// rejected state transition.
type IllegalTransitionError struct {
	From PublicationStatus
	To   PublicationStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal publication transition: %s -> %s", e.From, e.To)
}

// ImageStateError reports an invalid FeaturedImage transition.
type ImageStateError struct {
	From ImageStatus
	To   ImageStatus
}

func (e *ImageStateError) Error() string {
	return fmt.Sprintf("illegal image transition: %s -> %s", e.From, e.To)
}
