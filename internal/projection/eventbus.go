package projection

import (
	"context"
	"encoding/json"
	"fmt"

	v1 "github.com/aevon-lab/project-ledger/internal/api/v1"
	"github.com/aevon-lab/project-ledger/internal/core/eventsource"
	"github.com/aevon-lab/project-ledger/internal/dispatch"
	goredis "github.com/redis/go-redis/v9"
)

// Publisher is the subset of *goredis.Client the event bus needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
}

// EventBus republishes committed events on Redis pub/sub, one channel per aggregate type.
// Subscribers get the persisted record shape and must tolerate duplicates.
type EventBus struct {
	publisher Publisher
	prefix    string
}

func NewEventBus(publisher Publisher, channelPrefix string) *EventBus {
	if publisher == nil {
		panic("projection: publisher must not be nil")
	}
	if channelPrefix == "" {
		channelPrefix = "ledger"
	}
	return &EventBus{publisher: publisher, prefix: channelPrefix}
}

// Channel returns the channel events of aggregateType are published on.
func (b *EventBus) Channel(aggregateType string) string {
	return b.prefix + "." + aggregateType
}

// Handlers publishes every event type.
func (b *EventBus) Handlers() dispatch.HandlerSet {
	return dispatch.HandlerSet{dispatch.AnyType: b.publish}
}

func (b *EventBus) publish(ctx context.Context, evt eventsource.Event) error {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", evt.Type, err)
	}
	raw, err := json.Marshal(v1.Event{
		AggregateID:   evt.AggregateID,
		AggregateType: evt.AggregateType,
		Version:       evt.Version,
		Type:          evt.Type,
		Payload:       payload,
		CreatedAt:     v1.Millis(evt.CreatedAt),
	})
	if err != nil {
		return err
	}
	if err := b.publisher.Publish(ctx, b.Channel(evt.AggregateType), raw).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}
