package dispatch

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	v1 "github.com/aevon-lab/project-ledger/internal/api/v1"
	"github.com/aevon-lab/project-ledger/internal/core/eventsource"
	"github.com/aevon-lab/project-ledger/internal/core/storage/memory"
	storagemocks "github.com/aevon-lab/project-ledger/internal/mocks/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type tally struct {
	ID uuid.UUID
	N  int
}

func (t tally) Clone() tally { return t }

type bumped struct {
	N int `json:"n"`
}

func (bumped) EventType() string { return "TALLY_BUMPED" }

type zeroed struct{}

func (zeroed) EventType() string { return "TALLY_ZEROED" }

func newTallyRegistry() *eventsource.Registry[tally] {
	r := eventsource.NewRegistry("tally", func(id uuid.UUID) tally { return tally{ID: id} })
	eventsource.On(r, func(s *tally, _ eventsource.Event, p bumped) error {
		s.N += p.N
		return nil
	})
	eventsource.On(r, func(s *tally, _ eventsource.Event, _ zeroed) error {
		s.N = 0
		return nil
	})
	return r
}

func appendEvents(t *testing.T, log *memory.EventLog, id uuid.UUID, payloads ...eventsource.Payload) {
	t.Helper()
	ctx := context.Background()
	registry := newTallyRegistry()

	current := int64(0)
	for _, err := range log.ReadFrom(ctx, id, 0) {
		require.NoError(t, err)
		current++
	}
	for _, p := range payloads {
		rec, err := registry.Encode(eventsource.Event{
			AggregateID: id,
			Version:     current + 1,
			Type:        p.EventType(),
			Payload:     p,
			CreatedAt:   time.UnixMilli(1767225600000),
		})
		require.NoError(t, err)
		_, err = log.Append(ctx, rec, current)
		require.NoError(t, err)
		current++
	}
}

func bumps(n int) []eventsource.Payload {
	out := make([]eventsource.Payload, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, bumped{N: i})
	}
	return out
}

// recorder keeps the versions each aggregate was delivered, in delivery order.
type recorder struct {
	mu   sync.Mutex
	seen map[uuid.UUID][]int64
}

func newRecorder() *recorder {
	return &recorder{seen: make(map[uuid.UUID][]int64)}
}

func (r *recorder) handle(_ context.Context, evt eventsource.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[evt.AggregateID] = append(r.seen[evt.AggregateID], evt.Version)
	return nil
}

func (r *recorder) versions(id uuid.UUID) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.seen[id])
}

func testOptions() Options {
	return Options{
		PollInterval:         time.Hour,
		BatchSize:            16,
		PerAggregateLimit:    3,
		WorkerCount:          4,
		RetryInitialInterval: 5 * time.Millisecond,
		RetryMaxInterval:     20 * time.Millisecond,
	}
}

func TestDispatcher_DeliversInOrderPerAggregate(t *testing.T) {
	ctx := context.Background()
	log := memory.NewEventLog(0)

	ids := make([]uuid.UUID, 20)
	for i := range ids {
		ids[i] = uuid.New()
		appendEvents(t, log, ids[i], bumps(7)...)
	}

	rec := newRecorder()
	d := New(log, testOptions())
	require.NoError(t, d.Subscribe("tally-view", newTallyRegistry(), HandlerSet{AnyType: rec.handle}))

	require.Equal(t, 140, d.Drain(ctx))
	for _, id := range ids {
		require.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7}, rec.versions(id))

		offset, err := log.Offset(ctx, "tally-view", id)
		require.NoError(t, err)
		require.Equal(t, int64(7), offset)
	}

	require.Zero(t, d.Drain(ctx))
}

func TestDispatcher_FailingAggregateDoesNotBlockOthers(t *testing.T) {
	ctx := context.Background()
	log := memory.NewEventLog(0)

	good, bad := uuid.New(), uuid.New()
	appendEvents(t, log, good, bumps(3)...)
	appendEvents(t, log, bad, bumps(3)...)

	var failing atomic.Bool
	failing.Store(true)

	rec := newRecorder()
	handlers := HandlerSet{}
	On(handlers, func(ctx context.Context, evt eventsource.Event, _ bumped) error {
		if evt.AggregateID == bad && failing.Load() {
			return errors.New("read model unavailable")
		}
		return rec.handle(ctx, evt)
	})

	d := New(log, testOptions())
	require.NoError(t, d.Subscribe("tally-view", newTallyRegistry(), handlers))

	require.Equal(t, 3, d.Drain(ctx))
	require.Equal(t, []int64{1, 2, 3}, rec.versions(good))
	require.Empty(t, rec.versions(bad))

	offset, err := log.Offset(ctx, "tally-view", bad)
	require.NoError(t, err)
	require.Zero(t, offset)

	failing.Store(false)
	require.Eventually(t, func() bool {
		d.Drain(ctx)
		return len(rec.versions(bad)) == 3
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, []int64{1, 2, 3}, rec.versions(bad))
}

func TestDispatcher_AggregatesInBackoffDoNotFillTheBatch(t *testing.T) {
	ctx := context.Background()
	log := memory.NewEventLog(0)

	// The failing aggregates are appended first, so they lead every scan.
	bad1, bad2, good1, good2 := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	for _, id := range []uuid.UUID{bad1, bad2, good1, good2} {
		appendEvents(t, log, id, bumps(1)...)
	}

	rec := newRecorder()
	d := New(log, Options{
		PollInterval:         time.Hour,
		BatchSize:            2,
		PerAggregateLimit:    1,
		WorkerCount:          2,
		RetryInitialInterval: time.Minute,
		RetryMaxInterval:     time.Minute,
	})
	require.NoError(t, d.Subscribe("tally-view", newTallyRegistry(), HandlerSet{
		AnyType: func(ctx context.Context, evt eventsource.Event) error {
			if evt.AggregateID == bad1 || evt.AggregateID == bad2 {
				return errors.New("poison payload")
			}
			return rec.handle(ctx, evt)
		},
	}))

	require.Equal(t, 2, d.Drain(ctx))
	require.Equal(t, []int64{1}, rec.versions(good1))
	require.Equal(t, []int64{1}, rec.versions(good2))

	// Later appends to healthy aggregates still get through while the others back off.
	appendEvents(t, log, good1, bumped{N: 2})
	require.Equal(t, 1, d.Drain(ctx))
	require.Equal(t, []int64{1, 2}, rec.versions(good1))

	for _, id := range []uuid.UUID{bad1, bad2} {
		offset, err := log.Offset(ctx, "tally-view", id)
		require.NoError(t, err)
		require.Zero(t, offset)
	}
}

func TestDispatcher_FailingProjectionDoesNotBlockAnother(t *testing.T) {
	ctx := context.Background()
	log := memory.NewEventLog(0)
	id := uuid.New()
	appendEvents(t, log, id, bumps(4)...)

	healthy := newRecorder()
	d := New(log, testOptions())
	require.NoError(t, d.Subscribe("broken-view", newTallyRegistry(), HandlerSet{
		AnyType: func(context.Context, eventsource.Event) error { return errors.New("boom") },
	}))
	require.NoError(t, d.Subscribe("healthy-view", newTallyRegistry(), HandlerSet{AnyType: healthy.handle}))

	require.Equal(t, 4, d.Drain(ctx))
	require.Equal(t, []int64{1, 2, 3, 4}, healthy.versions(id))

	broken, err := log.Offset(ctx, "broken-view", id)
	require.NoError(t, err)
	require.Zero(t, broken)

	ok, err := log.Offset(ctx, "healthy-view", id)
	require.NoError(t, err)
	require.Equal(t, int64(4), ok)
}

func TestDispatcher_PanickingHandlerIsRetried(t *testing.T) {
	ctx := context.Background()
	log := memory.NewEventLog(0)
	id := uuid.New()
	appendEvents(t, log, id, bumps(1)...)

	var calls atomic.Int32
	d := New(log, testOptions())
	require.NoError(t, d.Subscribe("tally-view", newTallyRegistry(), HandlerSet{
		AnyType: func(context.Context, eventsource.Event) error {
			if calls.Add(1) == 1 {
				panic("nil map")
			}
			return nil
		},
	}))

	require.Zero(t, d.Drain(ctx))
	require.Eventually(t, func() bool {
		return d.Drain(ctx) == 1
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, int32(2), calls.Load())
}

// flakyOffsets fails the first n offset commits.
type flakyOffsets struct {
	*memory.EventLog
	failures atomic.Int32
}

func (f *flakyOffsets) CommitOffset(ctx context.Context, subscriber string, id uuid.UUID, version int64) error {
	if f.failures.Add(-1) >= 0 {
		return errors.New("connection reset by peer")
	}
	return f.EventLog.CommitOffset(ctx, subscriber, id, version)
}

func TestDispatcher_RedeliversWhenCommitFails(t *testing.T) {
	ctx := context.Background()
	store := &flakyOffsets{EventLog: memory.NewEventLog(0)}
	store.failures.Store(1)

	id := uuid.New()
	appendEvents(t, store.EventLog, id, bumps(1)...)

	rec := newRecorder()
	d := New(store, testOptions())
	require.NoError(t, d.Subscribe("tally-view", newTallyRegistry(), HandlerSet{AnyType: rec.handle}))

	require.Zero(t, d.Drain(ctx))
	require.Eventually(t, func() bool {
		return d.Drain(ctx) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// at-least-once: the event was applied before the failed commit and again after it
	require.Equal(t, []int64{1, 1}, rec.versions(id))
}

func TestDispatcher_AcknowledgesUnhandledTypes(t *testing.T) {
	ctx := context.Background()
	log := memory.NewEventLog(0)
	id := uuid.New()
	appendEvents(t, log, id, bumped{N: 1}, zeroed{}, bumped{N: 2})

	var total atomic.Int64
	handlers := HandlerSet{}
	On(handlers, func(_ context.Context, _ eventsource.Event, p bumped) error {
		total.Add(int64(p.N))
		return nil
	})

	d := New(log, testOptions())
	require.NoError(t, d.Subscribe("bump-sum", newTallyRegistry(), handlers))

	require.Equal(t, 3, d.Drain(ctx))
	require.Equal(t, int64(3), total.Load())
}

func TestDispatcher_UndecodableEventHoldsAggregate(t *testing.T) {
	ctx := context.Background()
	log := memory.NewEventLog(0)
	id := uuid.New()

	_, err := log.Append(ctx, &v1.Event{
		AggregateID:   id,
		AggregateType: "tally",
		Version:       1,
		Type:          "TALLY_RENAMED",
		Payload:       []byte(`{}`),
		CreatedAt:     1767225600000,
	}, 0)
	require.NoError(t, err)

	rec := newRecorder()
	d := New(log, testOptions())
	require.NoError(t, d.Subscribe("tally-view", newTallyRegistry(), HandlerSet{AnyType: rec.handle}))

	require.Zero(t, d.Drain(ctx))
	require.Empty(t, rec.versions(id))

	offset, err := log.Offset(ctx, "tally-view", id)
	require.NoError(t, err)
	require.Zero(t, offset)
}

func TestDispatcher_PendingEventsError(t *testing.T) {
	store := storagemocks.NewOffsetStore(t)
	store.EXPECT().
		PendingEvents(mock.Anything, "tally-view", "tally", 16, 3, []uuid.UUID(nil)).
		Return(nil, errors.New("connection refused")).
		Once()

	d := New(store, testOptions())
	require.NoError(t, d.Subscribe("tally-view", newTallyRegistry(), HandlerSet{}))
	require.Zero(t, d.Drain(context.Background()))
}

func TestDispatcher_StartDeliversOnNotify(t *testing.T) {
	log := memory.NewEventLog(0)
	id := uuid.New()
	appendEvents(t, log, id, bumps(1)...)

	rec := newRecorder()
	d := New(log, testOptions())
	require.NoError(t, d.Subscribe("tally-view", newTallyRegistry(), HandlerSet{AnyType: rec.handle}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	// initial drain catches up with existing history
	require.Eventually(t, func() bool {
		return len(rec.versions(id)) == 1
	}, 2*time.Second, 5*time.Millisecond)

	appendEvents(t, log, id, bumped{N: 2})
	d.Notify("user")
	d.Notify("tally")

	require.Eventually(t, func() bool {
		return len(rec.versions(id)) == 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not stop")
	}

	require.Error(t, d.Subscribe("late-view", newTallyRegistry(), HandlerSet{}))
}

func TestDispatcher_SubscribeDuplicateName(t *testing.T) {
	d := New(memory.NewEventLog(0), Options{})
	require.NoError(t, d.Subscribe("tally-view", newTallyRegistry(), HandlerSet{}))

	err := d.Subscribe("tally-view", newTallyRegistry(), HandlerSet{})
	require.ErrorContains(t, err, "already registered")
}

func TestOn_PayloadMismatch(t *testing.T) {
	set := HandlerSet{}
	On(set, func(context.Context, eventsource.Event, bumped) error { return nil })

	err := set["TALLY_BUMPED"](context.Background(), eventsource.Event{Type: "TALLY_BUMPED", Payload: zeroed{}})
	require.ErrorContains(t, err, "does not match TALLY_BUMPED")
}

func TestOptions_Normalized(t *testing.T) {
	o := Options{RetryInitialInterval: time.Minute, RetryMaxInterval: time.Second}.normalized()
	require.Equal(t, time.Second, o.PollInterval)
	require.Equal(t, 500, o.BatchSize)
	require.Equal(t, 100, o.PerAggregateLimit)
	require.Equal(t, 4, o.WorkerCount)
	require.Equal(t, time.Minute, o.RetryInitialInterval)
	require.Equal(t, time.Minute, o.RetryMaxInterval)

	o = Options{}.normalized()
	require.Equal(t, 200*time.Millisecond, o.RetryInitialInterval)
	require.Equal(t, 30*time.Second, o.RetryMaxInterval)
}
