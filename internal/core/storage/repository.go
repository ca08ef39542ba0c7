package storage

import (
	"context"
	"errors"
	"iter"

	v1 "github.com/aevon-lab/project-ledger/internal/api/v1"
	"github.com/google/uuid"
)

// ErrVersionConflict is returned by Append when the aggregate's highest stored version
// does not equal the expected version. It is the only concurrency gate of the log.
var ErrVersionConflict = errors.New("aggregate version conflict")

// DefaultPageSize bounds how many events a lazy read pulls from the backing store per round trip.
const DefaultPageSize = 500

// EventLog is an append-only store of immutable events partitioned by aggregate id.
type EventLog interface {
	// Append atomically writes event iff the aggregate's current highest version equals
	// expectedVersion (0 for a new aggregate). event.Version must be expectedVersion+1.
	// Returns the new version, or ErrVersionConflict.
	// Populates event.IngestSeq on success.
	Append(ctx context.Context, event *v1.Event, expectedVersion int64) (int64, error)

	// ReadFrom lazily yields the aggregate's events with version > afterVersion in
	// ascending version order. The sequence is restartable: ranging over it again
	// re-reads the log.
	ReadFrom(ctx context.Context, aggregateID uuid.UUID, afterVersion int64) iter.Seq2[*v1.Event, error]
}

// ReadAll yields the aggregate's full history starting at version 1.
func ReadAll(ctx context.Context, log EventLog, aggregateID uuid.UUID) iter.Seq2[*v1.Event, error] {
	return log.ReadFrom(ctx, aggregateID, 0)
}

// OffsetStore tracks, per subscriber and aggregate, the highest version delivered.
// The dispatcher uses it to resume after restarts and to find undelivered events.
type OffsetStore interface {
	// PendingEvents returns events of aggregateType that subscriber has not yet
	// acknowledged, in append order. At most perAggregate events are returned for any
	// single aggregate and at most limit events overall. Events of one aggregate are
	// contiguous in version starting right after the committed offset.
	// Aggregates listed in exclude are skipped entirely, so events held back by a
	// delivery retry never occupy the limit.
	PendingEvents(ctx context.Context, subscriber, aggregateType string, limit, perAggregate int, exclude []uuid.UUID) ([]*v1.Event, error)

	// CommitOffset records that subscriber has processed aggregateID up to version.
	// Commits never move an offset backwards.
	CommitOffset(ctx context.Context, subscriber string, aggregateID uuid.UUID, version int64) error

	// Offset returns the committed version of aggregateID for subscriber, 0 if none.
	Offset(ctx context.Context, subscriber string, aggregateID uuid.UUID) (int64, error)
}
