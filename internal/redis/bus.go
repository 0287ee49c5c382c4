package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"

	"github.com/bankithung/ConsultancyDev/internal/domain"
	"github.com/bankithung/ConsultancyDev/internal/metrics"
)

// Bus implements domain.Bus on top of Redis Pub/Sub. Every gateway
// instance pattern-subscribes to the update groups, so a publish issued
// by any instance reaches the sessions connected to all instances.
type Bus struct {
	rdb *goredis.Client
}

// NewBus creates a fanout bus backed by the given client.
func NewBus(client *Client) *Bus {
	return &Bus{rdb: client.rdb}
}

// Publish sends payload to topic. Best-effort: Redis Pub/Sub has no
// delivery acknowledgment and no replay for late subscribers.
func (b *Bus) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := b.rdb.Publish(ctx, topic, payload).Err(); err != nil {
		metrics.BusMessagesPublished.WithLabelValues("error").Inc()
		return err
	}
	metrics.BusMessagesPublished.WithLabelValues("ok").Inc()
	return nil
}

// Subscribe listens on all update groups and invokes handler for each
// message. Blocks until ctx is cancelled.
func (b *Bus) Subscribe(ctx context.Context, handler func(domain.BusMessage)) {
	pubsub := b.rdb.PSubscribe(ctx, domain.GroupPattern())
	defer func() {
		_ = pubsub.Close()
	}()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			metrics.BusMessagesReceived.Inc()
			handler(domain.BusMessage{Topic: msg.Channel, Payload: []byte(msg.Payload)})
		case <-ctx.Done():
			return
		}
	}
}
