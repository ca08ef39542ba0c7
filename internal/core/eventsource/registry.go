package eventsource

import (
	"encoding/json"
	"fmt"
	"iter"
	"slices"

	v1 "github.com/aevon-lab/project-ledger/internal/api/v1"
	"github.com/google/uuid"
)

type rule[S any] struct {
	decode func(raw json.RawMessage) (Payload, error)
	apply  func(state *S, evt Event) error
}

// Registry is the static table mapping event tags to their decoder and transition
// rule for one aggregate type. It is built once at startup and read-only afterwards.
type Registry[S State[S]] struct {
	aggregateType string
	initial       func(id uuid.UUID) S
	rules         map[string]rule[S]
}

// NewRegistry creates an empty registry. initial builds the zero state of an aggregate.
func NewRegistry[S State[S]](aggregateType string, initial func(id uuid.UUID) S) *Registry[S] {
	if aggregateType == "" {
		panic("eventsource: aggregate type must not be empty")
	}
	if initial == nil {
		panic("eventsource: initial state constructor must not be nil")
	}
	return &Registry[S]{
		aggregateType: aggregateType,
		initial:       initial,
		rules:         make(map[string]rule[S]),
	}
}

// On registers the transition rule for payload type P.
// Registering the same tag twice panics.
func On[S State[S], P Payload](r *Registry[S], apply func(state *S, evt Event, payload P) error) {
	var zero P
	tag := zero.EventType()
	if tag == "" {
		panic(fmt.Sprintf("eventsource: %T declares an empty event type", zero))
	}
	if _, exists := r.rules[tag]; exists {
		panic(fmt.Sprintf("eventsource: duplicate rule for %s on %s", tag, r.aggregateType))
	}

	r.rules[tag] = rule[S]{
		decode: func(raw json.RawMessage) (Payload, error) {
			var p P
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, err
			}
			return p, nil
		},
		apply: func(state *S, evt Event) error {
			p, ok := evt.Payload.(P)
			if !ok {
				return fmt.Errorf("payload %T does not match %s", evt.Payload, tag)
			}
			return apply(state, evt, p)
		},
	}
}

// AggregateType returns the aggregate kind this registry folds.
func (r *Registry[S]) AggregateType() string {
	return r.aggregateType
}

// Types returns the registered event tags in sorted order.
func (r *Registry[S]) Types() []string {
	types := make([]string, 0, len(r.rules))
	for tag := range r.rules {
		types = append(types, tag)
	}
	slices.Sort(types)
	return types
}

// Empty returns the snapshot of an aggregate with no history.
func (r *Registry[S]) Empty(id uuid.UUID) Snapshot[S] {
	return Snapshot[S]{ID: id, State: r.initial(id)}
}

// Decode turns a persisted record into a typed event.
func (r *Registry[S]) Decode(rec *v1.Event) (Event, error) {
	if rec.AggregateType != r.aggregateType {
		return Event{}, fmt.Errorf("record of aggregate type %q decoded as %q", rec.AggregateType, r.aggregateType)
	}
	rl, ok := r.rules[rec.Type]
	if !ok {
		return Event{}, fmt.Errorf("%w: %s", ErrUnknownEventType, rec.Type)
	}
	payload, err := rl.decode(rec.Payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to decode %s payload (aggregate %s, version %d): %w",
			rec.Type, rec.AggregateID, rec.Version, err)
	}
	return Event{
		AggregateID:   rec.AggregateID,
		AggregateType: rec.AggregateType,
		Version:       rec.Version,
		Type:          rec.Type,
		Payload:       payload,
		CreatedAt:     rec.Time(),
	}, nil
}

// Encode turns a typed event into its persisted record.
func (r *Registry[S]) Encode(evt Event) (*v1.Event, error) {
	if _, ok := r.rules[evt.Type]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, evt.Type)
	}
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", evt.Type, err)
	}
	return &v1.Event{
		AggregateID:   evt.AggregateID,
		AggregateType: r.aggregateType,
		Version:       evt.Version,
		Type:          evt.Type,
		Payload:       payload,
		CreatedAt:     v1.Millis(evt.CreatedAt),
	}, nil
}

// Fold applies events on top of snap and returns the resulting snapshot.
// snap is never mutated. Versions must continue snap.Version without gaps.
func (r *Registry[S]) Fold(snap Snapshot[S], events ...Event) (Snapshot[S], error) {
	next := Snapshot[S]{ID: snap.ID, Version: snap.Version, State: snap.State.Clone()}
	for _, evt := range events {
		if err := r.apply(&next, evt); err != nil {
			return snap, err
		}
	}
	return next, nil
}

// Replay decodes and folds persisted records on top of snap, pulling them lazily.
func (r *Registry[S]) Replay(snap Snapshot[S], records iter.Seq2[*v1.Event, error]) (Snapshot[S], error) {
	next := Snapshot[S]{ID: snap.ID, Version: snap.Version, State: snap.State.Clone()}
	for rec, err := range records {
		if err != nil {
			return snap, fmt.Errorf("failed to read history of %s: %w", snap.ID, err)
		}
		evt, err := r.Decode(rec)
		if err != nil {
			return snap, err
		}
		if err := r.apply(&next, evt); err != nil {
			return snap, err
		}
	}
	return next, nil
}

func (r *Registry[S]) apply(next *Snapshot[S], evt Event) error {
	if evt.AggregateID != next.ID {
		return fmt.Errorf("%w: event of %s folded into %s", ErrVersionOrder, evt.AggregateID, next.ID)
	}
	if evt.Version != next.Version+1 {
		return fmt.Errorf("%w: got version %d after %d", ErrVersionOrder, evt.Version, next.Version)
	}
	rl, ok := r.rules[evt.Type]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEventType, evt.Type)
	}
	if err := rl.apply(&next.State, evt); err != nil {
		return fmt.Errorf("failed to apply %s at version %d: %w", evt.Type, evt.Version, err)
	}
	next.Version = evt.Version
	return nil
}
