package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBridge extends a Hub across processes: locally published events are
// also PUBLISHed to a Redis channel, and events received from other
// instances are re-injected into the local hub. Delivery stays
// best-effort; a Redis outage degrades to in-process fan-out only.
type RedisBridge struct {
	hub     *Hub
	client  *redis.Client
	channel string
	origin  string
	logger  *zap.Logger
}

// NewRedisBridge wraps the hub with a Redis relay.
func NewRedisBridge(hub *Hub, client *redis.Client, channel string, logger *zap.Logger) *RedisBridge {
	return &RedisBridge{
		hub:     hub,
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		logger:  logger,
	}
}

// Publish fans out locally and relays to the Redis channel.
func (b *RedisBridge) Publish(event Event) {
	event.Origin = b.origin
	b.hub.Publish(event)

	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Warn("event marshal failed", zap.Error(err))
		return
	}
	if err := b.client.Publish(context.Background(), b.channel, payload).Err(); err != nil {
		b.logger.Warn("redis publish failed", zap.Error(err))
	}
}

// Subscribe joins the local hub.
func (b *RedisBridge) Subscribe() (<-chan Event, func()) {
	return b.hub.Subscribe()
}

// Run relays remote events into the local hub until ctx is cancelled.
func (b *RedisBridge) Run(ctx context.Context) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warn("event unmarshal failed", zap.Error(err))
				continue
			}
			if event.Origin == b.origin {
				continue
			}
			b.hub.Publish(event)
		}
	}
}
