// Package bus provides the in-memory fanout bus used by single-process
// deployments. Multi-process deployments use the Redis-backed bus instead.
package bus

import (
	"context"
	"sync"

	"github.com/bankithung/ConsultancyDev/internal/domain"
	"github.com/bankithung/ConsultancyDev/internal/metrics"
)

const subscriberBufferSize = 256

// MemoryBus implements domain.Bus for a single process. Publish delivers
// to every active subscription in publish order; a subscriber that falls
// behind its buffer loses messages rather than blocking publishers.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[int]chan domain.BusMessage
	nextID int
	closed bool
}

// NewMemoryBus creates an empty in-memory bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[int]chan domain.BusMessage)}
}

// Publish sends payload to every subscriber of topic.
func (b *MemoryBus) Publish(_ context.Context, topic string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		metrics.BusMessagesPublished.WithLabelValues("error").Inc()
		return domain.ErrBusClosed
	}

	msg := domain.BusMessage{Topic: topic, Payload: payload}
	for _, ch := range b.subs {
		select {
		case ch <- msg:
		default:
			metrics.BusSubscriptionDrops.Inc()
		}
	}

	metrics.BusMessagesPublished.WithLabelValues("ok").Inc()
	return nil
}

// Subscribe invokes handler for every published message until ctx is
// cancelled.
func (b *MemoryBus) Subscribe(ctx context.Context, handler func(domain.BusMessage)) {
	ch, id := b.register()
	defer b.unregister(id)

	for {
		select {
		case msg := <-ch:
			metrics.BusMessagesReceived.Inc()
			handler(msg)
		case <-ctx.Done():
			return
		}
	}
}

// Close marks the bus closed; subsequent publishes fail.
func (b *MemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

func (b *MemoryBus) register() (chan domain.BusMessage, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan domain.BusMessage, subscriberBufferSize)
	b.subs[id] = ch
	return ch, id
}

func (b *MemoryBus) unregister(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}
