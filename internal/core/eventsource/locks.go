package eventsource

import (
	"context"
	"sync"

	"github.com/aevon-lab/project-ledger/internal/core/partition"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Locks serializes in-process writers of the same aggregate.
// Every aggregate with a writer in flight gets its own weighted semaphore, so
// writers of different aggregates never wait on each other. Entries are
// reference counted and dropped once the last writer leaves. Acquire honours
// context cancellation, which a sync.Mutex cannot.
type Locks struct {
	shards [partition.Count]*lockShard
}

// lockShard guards the entry table of the ids hashing to it. The shard mutex is
// only held to look up or drop an entry, never while a writer runs.
type lockShard struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	sem  *semaphore.Weighted
	refs int
}

// NewLocks creates an empty lock table.
func NewLocks() *Locks {
	l := &Locks{}
	for i := range l.shards {
		l.shards[i] = &lockShard{entries: make(map[uuid.UUID]*lockEntry)}
	}
	return l
}

// Acquire blocks until no other writer holds id or ctx is done.
// The returned func releases id and must be called exactly once.
func (l *Locks) Acquire(ctx context.Context, id uuid.UUID) (func(), error) {
	shard := l.shards[partition.ForID(id)]

	shard.mu.Lock()
	e, ok := shard.entries[id]
	if !ok {
		e = &lockEntry{sem: semaphore.NewWeighted(1)}
		shard.entries[id] = e
	}
	e.refs++
	shard.mu.Unlock()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		shard.drop(id, e)
		return nil, err
	}
	return func() {
		e.sem.Release(1)
		shard.drop(id, e)
	}, nil
}

func (s *lockShard) drop(id uuid.UUID, e *lockEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(s.entries, id)
	}
}

// size reports how many aggregates currently have an entry.
func (l *Locks) size() int {
	n := 0
	for _, s := range l.shards {
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}
