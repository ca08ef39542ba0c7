package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aevon-lab/project-ledger/internal/core/storage"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("github.com/aevon-lab/project-ledger/internal/dispatch")

// Options tunes delivery.
type Options struct {
	// PollInterval is the fallback scan period when no append notification arrives.
	PollInterval time.Duration

	// BatchSize bounds the events fetched per scan.
	BatchSize int

	// PerAggregateLimit bounds the events of one aggregate per scan, so a hot
	// aggregate cannot starve the others.
	PerAggregateLimit int

	// WorkerCount bounds how many aggregates are delivered in parallel per subscription.
	WorkerCount int

	// RetryInitialInterval and RetryMaxInterval shape the per-aggregate backoff
	// after a failed delivery.
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
}

func (o Options) normalized() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 500
	}
	if o.PerAggregateLimit <= 0 {
		o.PerAggregateLimit = 100
	}
	if o.WorkerCount <= 0 {
		o.WorkerCount = 4
	}
	if o.RetryInitialInterval <= 0 {
		o.RetryInitialInterval = 200 * time.Millisecond
	}
	if o.RetryMaxInterval < o.RetryInitialInterval {
		o.RetryMaxInterval = max(30*time.Second, o.RetryInitialInterval)
	}
	return o
}

// Dispatcher delivers committed events to projections.
//
// Each subscription tracks its own per-aggregate offsets, so a slow or failing
// projection never holds back another one, and nothing here ever blocks an append:
// writers only call Notify, which drops the signal if a wake-up is already pending.
type Dispatcher struct {
	store storage.OffsetStore
	opts  Options

	mu      sync.Mutex
	subs    []*subscription
	started bool
}

// New creates a dispatcher reading pending events and offsets from store.
func New(store storage.OffsetStore, opts Options) *Dispatcher {
	if store == nil {
		panic("dispatch: offset store must not be nil")
	}
	return &Dispatcher{store: store, opts: opts.normalized()}
}

// Subscribe registers a projection named name for the aggregate type of decoder.
// name keys the stored offsets and must be stable across restarts.
func (d *Dispatcher) Subscribe(name string, decoder Decoder, handlers HandlerSet) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return fmt.Errorf("dispatch: subscribe %q after start", name)
	}
	for _, s := range d.subs {
		if s.name == name {
			return fmt.Errorf("dispatch: subscriber %q already registered", name)
		}
	}

	d.subs = append(d.subs, newSubscription(name, decoder, handlers, d.store, d.opts))
	slog.Info("[Dispatcher] Subscribed projection",
		"subscriber", name,
		"aggregate_type", decoder.AggregateType(),
		"handlers", len(handlers))
	return nil
}

// Notify wakes every subscription of aggregateType. It never blocks.
func (d *Dispatcher) Notify(aggregateType string) {
	d.mu.Lock()
	subs := d.subs
	d.mu.Unlock()

	for _, s := range subs {
		if s.decoder.AggregateType() == aggregateType {
			s.signal()
		}
	}
}

// Start runs every subscription until ctx is cancelled, then performs a final drain.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	d.started = true
	subs := d.subs
	d.mu.Unlock()

	slog.Info("[Dispatcher] Starting",
		"subscriptions", len(subs),
		"poll_interval", d.opts.PollInterval,
		"batch_size", d.opts.BatchSize,
		"workers", d.opts.WorkerCount)

	var g errgroup.Group
	for _, s := range subs {
		g.Go(func() error {
			s.run(ctx)
			return nil
		})
	}
	<-ctx.Done()
	return g.Wait()
}

// Drain synchronously delivers everything currently pending to every subscription
// and returns the number of events acknowledged.
func (d *Dispatcher) Drain(ctx context.Context) int {
	d.mu.Lock()
	subs := d.subs
	d.mu.Unlock()

	total := 0
	for _, s := range subs {
		total += s.drainBacklog(ctx)
	}
	return total
}
