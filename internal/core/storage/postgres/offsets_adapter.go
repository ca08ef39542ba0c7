package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	v1 "github.com/aevon-lab/project-ledger/internal/api/v1"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// OffsetAdapter implements storage.OffsetStore using PostgreSQL.
// Offsets are kept per (subscriber, aggregate) rather than as one global cursor:
// ingest_seq values commit out of order under concurrent appends, so a global
// high-water mark could skip an event that becomes visible late.
type OffsetAdapter struct {
	db  *sql.DB
	now func() time.Time
}

// NewOffsetAdapter creates a new OffsetAdapter sharing the given connection.
func NewOffsetAdapter(db *sql.DB) *OffsetAdapter {
	return &OffsetAdapter{db: db, now: time.Now}
}

// PendingEvents implements storage.OffsetStore.
func (a *OffsetAdapter) PendingEvents(ctx context.Context, subscriber, aggregateType string, limit, perAggregate int, exclude []uuid.UUID) ([]*v1.Event, error) {
	excluded := make([]string, len(exclude))
	for i, id := range exclude {
		excluded[i] = id.String()
	}
	rows, err := a.db.QueryContext(ctx, queryPendingEvents, subscriber, aggregateType, perAggregate, limit, pq.Array(excluded))
	if err != nil {
		return nil, fmt.Errorf("failed to query pending events: %w", err)
	}
	return scanEventRows(rows)
}

// CommitOffset implements storage.OffsetStore. GREATEST keeps the offset monotonic
// when a redelivered, older version is acknowledged late.
func (a *OffsetAdapter) CommitOffset(ctx context.Context, subscriber string, aggregateID uuid.UUID, version int64) error {
	if _, err := a.db.ExecContext(ctx, queryCommitOffset, subscriber, aggregateID, version, a.now().UTC()); err != nil {
		return fmt.Errorf("failed to commit offset: %w", err)
	}

	slog.Debug("[Postgres] Committed projection offset",
		"subscriber", subscriber,
		"aggregate_id", aggregateID,
		"version", version)
	return nil
}

// Offset implements storage.OffsetStore.
func (a *OffsetAdapter) Offset(ctx context.Context, subscriber string, aggregateID uuid.UUID) (int64, error) {
	var version int64
	err := a.db.QueryRowContext(ctx, queryReadOffset, subscriber, aggregateID).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read offset: %w", err)
	}
	return version, nil
}
