package dispatch

import (
	"context"
	"fmt"

	v1 "github.com/aevon-lab/project-ledger/internal/api/v1"
	"github.com/aevon-lab/project-ledger/internal/core/eventsource"
)

// AnyType keys a handler that receives every event type without a dedicated handler.
const AnyType = "*"

// Decoder turns stored records of one aggregate type into typed events.
// *eventsource.Registry satisfies it.
type Decoder interface {
	AggregateType() string
	Decode(rec *v1.Event) (eventsource.Event, error)
}

// HandlerFunc applies one event to a projection. It must be idempotent:
// delivery is at-least-once.
type HandlerFunc func(ctx context.Context, evt eventsource.Event) error

// HandlerSet maps event tags to handlers. Events with no matching entry are
// acknowledged without being applied.
type HandlerSet map[string]HandlerFunc

// On registers fn for payload type P.
func On[P eventsource.Payload](set HandlerSet, fn func(ctx context.Context, evt eventsource.Event, payload P) error) {
	var zero P
	tag := zero.EventType()
	set[tag] = func(ctx context.Context, evt eventsource.Event) error {
		p, ok := evt.Payload.(P)
		if !ok {
			return fmt.Errorf("payload %T does not match %s", evt.Payload, tag)
		}
		return fn(ctx, evt, p)
	}
}

func (s HandlerSet) lookup(eventType string) (HandlerFunc, bool) {
	if fn, ok := s[eventType]; ok {
		return fn, true
	}
	fn, ok := s[AnyType]
	return fn, ok
}
