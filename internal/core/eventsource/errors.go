package eventsource

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Update and reads when the aggregate has no events.
	ErrNotFound = errors.New("aggregate not found")

	// ErrAlreadyExists is returned by Create when the aggregate already has history.
	ErrAlreadyExists = errors.New("aggregate already exists")

	// ErrConcurrencyExhausted is returned when every optimistic append attempt lost
	// against a concurrent writer.
	ErrConcurrencyExhausted = errors.New("concurrency retries exhausted")

	// ErrUnknownEventType means an event tag has no registered transition rule.
	// It is a configuration error, never a no-op.
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrVersionOrder means events were folded out of order, with a duplicate
	// version, or for the wrong aggregate.
	ErrVersionOrder = errors.New("event out of version order")
)

// ReferenceError reports a command that points at an entity missing from the aggregate.
type ReferenceError struct {
	Kind string
	ID   string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s %s does not exist", e.Kind, e.ID)
}

// DuplicateError reports a command that would break a uniqueness rule.
type DuplicateError struct {
	Kind string
	Key  string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %s is already present", e.Kind, e.Key)
}

// ConflictError reports a business-rule conflict with the current state.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// IsRejection reports whether err is a command rejection produced by a handler
// (reference, duplicate or conflict). Rejections are never retried.
func IsRejection(err error) bool {
	var refErr *ReferenceError
	var dupErr *DuplicateError
	var conflictErr *ConflictError
	return errors.As(err, &refErr) || errors.As(err, &dupErr) || errors.As(err, &conflictErr)
}
