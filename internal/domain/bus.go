package domain

import "context"

// BusMessage is one fanout payload tagged with its group topic.
type BusMessage struct {
	Topic   string `json:"topic"`
	Payload []byte `json:"payload"`
}

// Bus distributes published messages to every subscribed process.
// Membership in rooms is local to a process; publish is global: a message
// published on any instance reaches the subscription handler on all
// instances, including the publisher.
type Bus interface {
	// Publish sends payload to every subscriber of topic. Best-effort:
	// there is no delivery acknowledgment and no catch-up for late
	// subscribers.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe invokes handler for every message on any update group.
	// Blocks until ctx is cancelled.
	Subscribe(ctx context.Context, handler func(BusMessage))
}
