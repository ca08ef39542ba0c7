package eventsource

import (
	"time"

	"github.com/google/uuid"
)

// Payload is the typed body of one event variant.
// EventType must be declared on the value receiver and return a constant tag,
// because registration reads it from the zero value.
type Payload interface {
	EventType() string
}

// Event is a decoded event: the persisted envelope plus its typed payload.
type Event struct {
	AggregateID   uuid.UUID
	AggregateType string
	Version       int64
	Type          string
	Payload       Payload
	CreatedAt     time.Time
}

// State is the constraint for aggregate state values.
// Clone must return a deep copy so folds never mutate a state they were given.
type State[S any] interface {
	Clone() S
}

// Snapshot is an aggregate state tagged with the version it reflects.
// Version 0 means no events have been folded.
type Snapshot[S any] struct {
	ID      uuid.UUID
	Version int64
	State   S
}

// Exists reports whether at least one event has been folded.
func (s Snapshot[S]) Exists() bool {
	return s.Version > 0
}

// CommandFunc maps the current state to the single event a command produces,
// or to a rejection. It must not mutate state.
type CommandFunc[S any] func(state S) (Payload, error)
