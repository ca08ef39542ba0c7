package memory

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"
	"sync/atomic"

	v1 "github.com/aevon-lab/project-ledger/internal/api/v1"
	"github.com/aevon-lab/project-ledger/internal/core/partition"
	"github.com/aevon-lab/project-ledger/internal/core/storage"
	"github.com/google/uuid"
)

type stripe struct {
	mu     sync.RWMutex
	events map[uuid.UUID][]*v1.Event
}

// EventLog is an in-memory storage.EventLog and storage.OffsetStore.
// Aggregates are striped over partition.Count locks, so appends to different
// aggregates rarely contend and appends to one aggregate are serialized.
type EventLog struct {
	stripes  [partition.Count]*stripe
	seq      atomic.Int64
	pageSize int

	offsetsMu sync.RWMutex
	offsets   map[string]map[uuid.UUID]int64
}

// NewEventLog creates an empty log. pageSize <= 0 uses storage.DefaultPageSize.
func NewEventLog(pageSize int) *EventLog {
	if pageSize <= 0 {
		pageSize = storage.DefaultPageSize
	}
	l := &EventLog{
		pageSize: pageSize,
		offsets:  make(map[string]map[uuid.UUID]int64),
	}
	for i := range l.stripes {
		l.stripes[i] = &stripe{events: make(map[uuid.UUID][]*v1.Event)}
	}
	return l
}

func (l *EventLog) stripeFor(id uuid.UUID) *stripe {
	return l.stripes[partition.ForID(id)]
}

// Append implements storage.EventLog.
func (l *EventLog) Append(ctx context.Context, event *v1.Event, expectedVersion int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := event.Validate(); err != nil {
		return 0, fmt.Errorf("invalid event: %w", err)
	}
	if event.Version != expectedVersion+1 {
		return 0, fmt.Errorf("event version %d does not follow expected version %d", event.Version, expectedVersion)
	}

	s := l.stripeFor(event.AggregateID)
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.events[event.AggregateID]
	if int64(len(history)) != expectedVersion {
		return 0, storage.ErrVersionConflict
	}
	if len(history) > 0 && history[0].AggregateType != event.AggregateType {
		return 0, fmt.Errorf("aggregate %s is a %s, not a %s", event.AggregateID, history[0].AggregateType, event.AggregateType)
	}

	stored := clone(event)
	stored.IngestSeq = l.seq.Add(1)
	s.events[event.AggregateID] = append(history, stored)

	event.IngestSeq = stored.IngestSeq
	return event.Version, nil
}

// ReadFrom implements storage.EventLog. Each page is copied under the stripe's
// read lock, so a reader never observes a half-appended event.
func (l *EventLog) ReadFrom(ctx context.Context, aggregateID uuid.UUID, afterVersion int64) iter.Seq2[*v1.Event, error] {
	return func(yield func(*v1.Event, error) bool) {
		cursor := afterVersion
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			page := l.page(aggregateID, cursor)
			for _, evt := range page {
				if !yield(evt, nil) {
					return
				}
				cursor = evt.Version
			}
			if len(page) < l.pageSize {
				return
			}
		}
	}
}

func (l *EventLog) page(id uuid.UUID, afterVersion int64) []*v1.Event {
	s := l.stripeFor(id)
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.events[id]
	if afterVersion >= int64(len(history)) {
		return nil
	}
	end := min(afterVersion+int64(l.pageSize), int64(len(history)))

	page := make([]*v1.Event, 0, end-afterVersion)
	for _, evt := range history[afterVersion:end] {
		page = append(page, clone(evt))
	}
	return page
}

// PendingEvents implements storage.OffsetStore.
func (l *EventLog) PendingEvents(ctx context.Context, subscriber, aggregateType string, limit, perAggregate int, exclude []uuid.UUID) ([]*v1.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.offsetsMu.RLock()
	committed := make(map[uuid.UUID]int64, len(l.offsets[subscriber]))
	for id, version := range l.offsets[subscriber] {
		committed[id] = version
	}
	l.offsetsMu.RUnlock()

	var pending []*v1.Event
	for _, s := range l.stripes {
		s.mu.RLock()
		for id, history := range s.events {
			if len(history) == 0 || history[0].AggregateType != aggregateType || slices.Contains(exclude, id) {
				continue
			}
			from := committed[id]
			if from >= int64(len(history)) {
				continue
			}
			to := min(from+int64(perAggregate), int64(len(history)))
			for _, evt := range history[from:to] {
				pending = append(pending, clone(evt))
			}
		}
		s.mu.RUnlock()
	}

	slices.SortFunc(pending, func(a, b *v1.Event) int {
		return cmp.Compare(a.IngestSeq, b.IngestSeq)
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// CommitOffset implements storage.OffsetStore.
func (l *EventLog) CommitOffset(ctx context.Context, subscriber string, aggregateID uuid.UUID, version int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.offsetsMu.Lock()
	defer l.offsetsMu.Unlock()

	bySubscriber, ok := l.offsets[subscriber]
	if !ok {
		bySubscriber = make(map[uuid.UUID]int64)
		l.offsets[subscriber] = bySubscriber
	}
	if version > bySubscriber[aggregateID] {
		bySubscriber[aggregateID] = version
	}
	return nil
}

// Offset implements storage.OffsetStore.
func (l *EventLog) Offset(ctx context.Context, subscriber string, aggregateID uuid.UUID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	l.offsetsMu.RLock()
	defer l.offsetsMu.RUnlock()
	return l.offsets[subscriber][aggregateID], nil
}

func clone(evt *v1.Event) *v1.Event {
	c := *evt
	c.Payload = bytes.Clone(evt.Payload)
	return &c
}
