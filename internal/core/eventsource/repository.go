package eventsource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aevon-lab/project-ledger/internal/core/storage"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultMaxAttempts = 10

var tracer = otel.Tracer("github.com/aevon-lab/project-ledger/internal/core/eventsource")

// Notifier is told which aggregate type just received an event.
// Implementations must not block.
type Notifier interface {
	Notify(aggregateType string)
}

// Options tunes a Repository.
type Options struct {
	// MaxAttempts bounds handler+append cycles per command before ErrConcurrencyExhausted.
	MaxAttempts int

	// CacheCapacity is the number of snapshots kept in memory. <= 0 disables the cache.
	CacheCapacity int

	// Notifier is signalled after every successful append. Optional.
	Notifier Notifier

	// Clock stamps new events. Defaults to time.Now.
	Clock func() time.Time
}

func (o Options) normalized() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// Repository runs the command pipeline for one aggregate type:
// load snapshot, run handler, append with optimistic concurrency, retry on conflict.
type Repository[S State[S]] struct {
	registry *Registry[S]
	log      storage.EventLog
	cache    *StateCache[S]
	locks    *Locks
	opts     Options
}

// NewRepository wires a repository over log.
func NewRepository[S State[S]](registry *Registry[S], log storage.EventLog, opts Options) *Repository[S] {
	if registry == nil {
		panic("eventsource: registry must not be nil")
	}
	if log == nil {
		panic("eventsource: event log must not be nil")
	}
	opts = opts.normalized()
	return &Repository[S]{
		registry: registry,
		log:      log,
		cache:    NewStateCache[S](opts.CacheCapacity),
		locks:    NewLocks(),
		opts:     opts,
	}
}

// Registry returns the registry the repository folds with.
func (r *Repository[S]) Registry() *Registry[S] {
	return r.registry
}

// Create runs fn against the empty state of id and appends the produced event at version 1.
// Returns ErrAlreadyExists if id already has history.
func (r *Repository[S]) Create(ctx context.Context, id uuid.UUID, fn CommandFunc[S]) (Event, error) {
	return r.execute(ctx, "create", id, fn)
}

// Update runs fn against the current state of id and appends the produced event.
// Returns ErrNotFound if id has no history.
func (r *Repository[S]) Update(ctx context.Context, id uuid.UUID, fn CommandFunc[S]) (Event, error) {
	return r.execute(ctx, "update", id, fn)
}

// Get returns the current snapshot of id, replayed from the log.
func (r *Repository[S]) Get(ctx context.Context, id uuid.UUID) (Snapshot[S], error) {
	ctx, span := r.startSpan(ctx, "get", id)
	defer span.End()

	snap, err := r.load(ctx, id)
	if err != nil {
		recordError(span, err)
		return Snapshot[S]{}, err
	}
	if !snap.Exists() {
		return Snapshot[S]{}, fmt.Errorf("%w: %s %s", ErrNotFound, r.registry.aggregateType, id)
	}
	return snap, nil
}

// History returns every event of id in version order.
func (r *Repository[S]) History(ctx context.Context, id uuid.UUID) ([]Event, error) {
	ctx, span := r.startSpan(ctx, "history", id)
	defer span.End()

	var events []Event
	for rec, err := range storage.ReadAll(ctx, r.log, id) {
		if err != nil {
			recordError(span, err)
			return nil, fmt.Errorf("failed to read history of %s: %w", id, err)
		}
		evt, err := r.registry.Decode(rec)
		if err != nil {
			recordError(span, err)
			return nil, err
		}
		events = append(events, evt)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, r.registry.aggregateType, id)
	}
	return events, nil
}

func (r *Repository[S]) execute(ctx context.Context, op string, id uuid.UUID, fn CommandFunc[S]) (Event, error) {
	ctx, span := r.startSpan(ctx, op, id)
	defer span.End()

	release, err := r.locks.Acquire(ctx, id)
	if err != nil {
		return Event{}, fmt.Errorf("failed to acquire aggregate lock: %w", err)
	}
	defer release()

	snap, err := r.load(ctx, id)
	if err != nil {
		recordError(span, err)
		return Event{}, err
	}

	for attempt := 1; attempt <= r.opts.MaxAttempts; attempt++ {
		if op == "create" && snap.Exists() {
			return Event{}, fmt.Errorf("%w: %s %s", ErrAlreadyExists, r.registry.aggregateType, id)
		}
		if op == "update" && !snap.Exists() {
			return Event{}, fmt.Errorf("%w: %s %s", ErrNotFound, r.registry.aggregateType, id)
		}

		payload, err := fn(snap.State.Clone())
		if err != nil {
			span.SetAttributes(attribute.Bool("command.rejected", true))
			return Event{}, err
		}

		evt := Event{
			AggregateID:   id,
			AggregateType: r.registry.aggregateType,
			Version:       snap.Version + 1,
			Type:          payload.EventType(),
			Payload:       payload,
			CreatedAt:     r.opts.Clock().UTC().Truncate(time.Millisecond),
		}

		// Fold before append so a broken transition never reaches the log.
		next, err := r.registry.Fold(snap, evt)
		if err != nil {
			recordError(span, err)
			return Event{}, err
		}

		rec, err := r.registry.Encode(evt)
		if err != nil {
			recordError(span, err)
			return Event{}, err
		}

		if err := ctx.Err(); err != nil {
			return Event{}, err
		}

		_, err = r.log.Append(ctx, rec, snap.Version)
		if errors.Is(err, storage.ErrVersionConflict) {
			slog.Warn("[Repository] Version conflict, reloading",
				"aggregate_type", r.registry.aggregateType,
				"aggregate_id", id,
				"expected_version", snap.Version,
				"attempt", attempt)
			span.AddEvent("version_conflict", trace.WithAttributes(attribute.Int("attempt", attempt)))

			snap, err = r.reload(ctx, snap)
			if err != nil {
				recordError(span, err)
				return Event{}, err
			}
			continue
		}
		if err != nil {
			recordError(span, err)
			return Event{}, fmt.Errorf("failed to append %s: %w", evt.Type, err)
		}

		r.cache.Put(next)
		if r.opts.Notifier != nil {
			r.opts.Notifier.Notify(r.registry.aggregateType)
		}

		span.SetAttributes(attribute.Int64("aggregate.version", evt.Version), attribute.Int("attempts", attempt))
		slog.Debug("[Repository] Appended event",
			"aggregate_type", r.registry.aggregateType,
			"aggregate_id", id,
			"event_type", evt.Type,
			"version", evt.Version)
		return evt, nil
	}

	slog.Error("[Repository] Concurrency retries exhausted",
		"aggregate_type", r.registry.aggregateType,
		"aggregate_id", id,
		"max_attempts", r.opts.MaxAttempts)
	span.SetStatus(codes.Error, ErrConcurrencyExhausted.Error())
	return Event{}, fmt.Errorf("%w: %s %s after %d attempts",
		ErrConcurrencyExhausted, r.registry.aggregateType, id, r.opts.MaxAttempts)
}

// load returns the latest snapshot of id: the cached one caught up from the log,
// or a full replay on a miss.
func (r *Repository[S]) load(ctx context.Context, id uuid.UUID) (Snapshot[S], error) {
	snap, ok := r.cache.Get(id)
	if !ok {
		snap = r.registry.Empty(id)
	}
	return r.catchUp(ctx, snap)
}

// catchUp folds the events appended after snap.Version.
func (r *Repository[S]) catchUp(ctx context.Context, snap Snapshot[S]) (Snapshot[S], error) {
	next, err := r.registry.Replay(snap, r.log.ReadFrom(ctx, snap.ID, snap.Version))
	if err != nil {
		return Snapshot[S]{}, err
	}
	if next.Version > snap.Version {
		r.cache.Put(next)
	}
	return next, nil
}

// reload is called after a conflict. A conflict with no newer events means the
// snapshot disagrees with the log, so it is dropped and rebuilt from version 1.
func (r *Repository[S]) reload(ctx context.Context, snap Snapshot[S]) (Snapshot[S], error) {
	next, err := r.catchUp(ctx, snap)
	if err != nil {
		return Snapshot[S]{}, err
	}
	if next.Version > snap.Version {
		return next, nil
	}

	slog.Warn("[Repository] Cached snapshot is ahead of the log, rebuilding",
		"aggregate_type", r.registry.aggregateType,
		"aggregate_id", snap.ID,
		"cached_version", snap.Version)
	r.cache.Invalidate(snap.ID)
	return r.catchUp(ctx, r.registry.Empty(snap.ID))
}

func (r *Repository[S]) startSpan(ctx context.Context, op string, id uuid.UUID) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Repository."+op, trace.WithAttributes(
		attribute.String("aggregate.type", r.registry.aggregateType),
		attribute.String("aggregate.id", id.String()),
	))
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
