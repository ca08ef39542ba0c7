package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	v1 "github.com/aevon-lab/project-ledger/internal/api/v1"
	"github.com/aevon-lab/project-ledger/internal/core/storage"
	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	maxConsecutiveBatches = 100
	shutdownDrainTimeout  = 30 * time.Second
)

// retryState is the backoff of one aggregate whose delivery failed.
type retryState struct {
	backoff   *backoff.ExponentialBackOff
	notBefore time.Time
	attempts  int
}

type subscription struct {
	name     string
	decoder  Decoder
	handlers HandlerSet
	store    storage.OffsetStore
	opts     Options
	wake     chan struct{}

	// drainMu keeps drains of one subscription sequential, which is what
	// preserves per-aggregate ordering between batches.
	drainMu sync.Mutex

	mu      sync.Mutex
	retries map[uuid.UUID]*retryState
}

func newSubscription(name string, decoder Decoder, handlers HandlerSet, store storage.OffsetStore, opts Options) *subscription {
	return &subscription{
		name:     name,
		decoder:  decoder,
		handlers: handlers,
		store:    store,
		opts:     opts,
		wake:     make(chan struct{}, 1),
		retries:  make(map[uuid.UUID]*retryState),
	}
}

func (s *subscription) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscription) run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	s.drainBacklog(ctx)

	for {
		select {
		case <-ticker.C:
			s.drainBacklog(ctx)
		case <-s.wake:
			s.drainBacklog(ctx)
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDrainTimeout)
			defer cancel()

			slog.Info("[Dispatcher] Running final drain before shutdown...", "subscriber", s.name)
			n := s.drainBacklog(shutdownCtx)
			slog.Info("[Dispatcher] Final drain complete", "subscriber", s.name, "delivered", n)
			return
		}
	}
}

// drainBacklog runs batches until nothing deliverable is left.
func (s *subscription) drainBacklog(ctx context.Context) int {
	s.drainMu.Lock()
	defer s.drainMu.Unlock()

	total := 0
	for batch := 0; batch < maxConsecutiveBatches; batch++ {
		if ctx.Err() != nil {
			return total
		}

		res, err := s.runBatch(ctx)
		total += res.delivered
		if err != nil {
			slog.Error("[Dispatcher] Failed to fetch pending events",
				"subscriber", s.name,
				"error", err)
			return total
		}
		// Short batch means the backlog is empty. A batch that only produced new
		// retries is not the end: the next scan skips those aggregates and reaches
		// the ones queued behind them.
		if res.fetched < s.opts.BatchSize || (res.delivered == 0 && res.failed == 0) {
			return total
		}
	}

	slog.Warn("[Dispatcher] Max consecutive batches reached, pausing drain",
		"subscriber", s.name,
		"max_batches", maxConsecutiveBatches)
	return total
}

type aggregateBatch struct {
	id     uuid.UUID
	events []*v1.Event
}

type batchResult struct {
	fetched   int
	delivered int
	failed    int // aggregates that went into backoff
}

func (s *subscription) runBatch(ctx context.Context) (batchResult, error) {
	// Aggregates in backoff are left out of the scan so their stuck events never
	// fill the batch ahead of healthy ones.
	events, err := s.store.PendingEvents(ctx, s.name, s.decoder.AggregateType(),
		s.opts.BatchSize, s.opts.PerAggregateLimit, s.held(time.Now()))
	if err != nil {
		return batchResult{}, err
	}
	if len(events) == 0 {
		return batchResult{}, nil
	}

	var delivered, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.opts.WorkerCount)

	for _, batch := range groupByAggregate(events) {
		g.Go(func() error {
			n, ok := s.deliverBatch(ctx, batch)
			delivered.Add(int64(n))
			if !ok {
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return batchResult{
		fetched:   len(events),
		delivered: int(delivered.Load()),
		failed:    int(failed.Load()),
	}, nil
}

// groupByAggregate splits events per aggregate, keeping first-seen order of
// aggregates and version order within each.
func groupByAggregate(events []*v1.Event) []*aggregateBatch {
	index := make(map[uuid.UUID]*aggregateBatch)
	var out []*aggregateBatch
	for _, rec := range events {
		b, ok := index[rec.AggregateID]
		if !ok {
			b = &aggregateBatch{id: rec.AggregateID}
			index[rec.AggregateID] = b
			out = append(out, b)
		}
		b.events = append(b.events, rec)
	}
	return out
}

// deliverBatch applies the events of one aggregate in order and stops at the
// first failure so later versions are never applied ahead of it.
// ok is false when the aggregate was put into backoff.
func (s *subscription) deliverBatch(ctx context.Context, batch *aggregateBatch) (delivered int, ok bool) {
	for _, rec := range batch.events {
		if err := s.deliver(ctx, rec); err != nil {
			s.scheduleRetry(rec, err)
			return delivered, false
		}
		if err := s.store.CommitOffset(ctx, s.name, rec.AggregateID, rec.Version); err != nil {
			// Already applied; the handler sees it again after the retry.
			s.scheduleRetry(rec, fmt.Errorf("failed to commit offset: %w", err))
			return delivered, false
		}
		delivered++
	}
	s.clearRetry(batch.id)
	return delivered, true
}

func (s *subscription) deliver(ctx context.Context, rec *v1.Event) (err error) {
	ctx, span := tracer.Start(ctx, "dispatch.deliver", trace.WithAttributes(
		attribute.String("ledger.subscriber", s.name),
		attribute.String("ledger.aggregate_id", rec.AggregateID.String()),
		attribute.Int64("ledger.version", rec.Version),
		attribute.String("ledger.event_type", rec.Type),
	))
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("projection panicked: %v", r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	evt, err := s.decoder.Decode(rec)
	if err != nil {
		return err
	}
	fn, ok := s.handlers.lookup(evt.Type)
	if !ok {
		return nil
	}
	return fn(ctx, evt)
}

// held returns the aggregates whose backoff has not yet expired at now.
func (s *subscription) held(now time.Time) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []uuid.UUID
	for id, st := range s.retries {
		if now.Before(st.notBefore) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *subscription) scheduleRetry(rec *v1.Event, cause error) {
	s.mu.Lock()
	st, ok := s.retries[rec.AggregateID]
	if !ok {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = s.opts.RetryInitialInterval
		b.MaxInterval = s.opts.RetryMaxInterval
		b.Reset()
		st = &retryState{backoff: b}
		s.retries[rec.AggregateID] = st
	}
	st.attempts++
	delay := st.backoff.NextBackOff()
	st.notBefore = time.Now().Add(delay)
	attempts := st.attempts
	s.mu.Unlock()

	slog.Warn("[Dispatcher] Delivery failed, will retry",
		"subscriber", s.name,
		"aggregate_id", rec.AggregateID,
		"version", rec.Version,
		"event_type", rec.Type,
		"attempt", attempts,
		"retry_in", delay,
		"error", cause)

	time.AfterFunc(delay, s.signal)
}

func (s *subscription) clearRetry(id uuid.UUID) {
	s.mu.Lock()
	delete(s.retries, id)
	s.mu.Unlock()
}
