package v1

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is the persisted form of a domain event.
// The envelope (aggregate identity, version, type tag, timestamp) is stored next to
// an opaque JSON payload. Decoding the payload into a typed value is the job of the
// aggregate's registry, not of the storage layer.
type Event struct {
	// AggregateID identifies the aggregate instance the event belongs to.
	// Treated as an opaque token: never sorted, never compared except for equality.
	AggregateID uuid.UUID `json:"aggregate_id"`

	// AggregateType names the aggregate kind (e.g. "project", "user").
	// Dispatcher subscriptions are keyed by this value.
	AggregateType string `json:"aggregate_type"`

	// Version is the position of the event in its aggregate's history, starting at 1.
	// (AggregateID, Version) is unique.
	Version int64 `json:"version"`

	// Type is the event tag, e.g. "TASK_CREATED_EVENT".
	Type string `json:"type"`

	// Payload holds the event fields exactly as they were produced by the command handler.
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the epoch-millis timestamp assigned when the event was produced.
	CreatedAt int64 `json:"created_at"`

	// IngestSeq is the global append order assigned by the store.
	// Only meaningful for ordering dispatch scans; not part of the public shape.
	IngestSeq int64 `json:"-"`
}

// Validate ensures the event carries every envelope attribute required for append.
func (e *Event) Validate() error {
	if e.AggregateID == uuid.Nil {
		return fmt.Errorf("aggregate_id is required")
	}

	if e.AggregateType == "" {
		return fmt.Errorf("aggregate_type is required")
	}

	if e.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", e.Version)
	}

	if e.Type == "" {
		return fmt.Errorf("type is required")
	}

	if len(e.Payload) == 0 || !json.Valid(e.Payload) {
		return fmt.Errorf("payload must be valid JSON")
	}

	if e.CreatedAt <= 0 {
		return fmt.Errorf("created_at is required")
	}

	return nil
}

// Time returns CreatedAt as a UTC time.
func (e *Event) Time() time.Time {
	return time.UnixMilli(e.CreatedAt).UTC()
}

// Millis converts t to the epoch-millis representation used by CreatedAt.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}
