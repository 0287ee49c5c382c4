// Package router exposes the single entry point write-path collaborators
// use to announce a committed domain mutation to connected clients.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bankithung/ConsultancyDev/internal/domain"
	"github.com/bankithung/ConsultancyDev/internal/metrics"
	"github.com/bankithung/ConsultancyDev/internal/retry"
)

const announceTimeout = 5 * time.Second

// asyncRetryPolicy governs the background publish path. Transient bus
// hiccups are retried; a closed bus is permanent.
var asyncRetryPolicy = retry.Policy{
	MaxAttempts:    3,
	InitialBackoff: 100 * time.Millisecond,
	OnRetry: func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Retrying announcement", "attempt", attempt, "backoff", backoff, "error", err)
	},
}

func classifyAnnounceError(err error) retry.Action {
	if errors.Is(err, domain.ErrBusClosed) {
		return retry.Stop
	}
	return retry.Retry
}

// Announcer fans a mutation notification out to every session in a room,
// on every gateway instance, by publishing onto the bus. It performs no
// authorization of its own: the caller is responsible for passing the
// room that matches the mutated entity's tenant.
type Announcer struct {
	bus domain.Bus
}

// NewAnnouncer creates an announcer on top of the given bus.
func NewAnnouncer(bus domain.Bus) *Announcer {
	return &Announcer{bus: bus}
}

// Announce publishes an entity-change event for a room. It returns once
// the event is handed to the bus; it never waits for receiving sessions.
// room is the tenant room name, e.g. "company_42" or "dev_admin".
func (a *Announcer) Announce(ctx context.Context, room, entity string, action domain.Action, data json.RawMessage) error {
	event := domain.UpdateEvent{Entity: entity, Action: action, Data: data}
	frame, err := event.WireFrame()
	if err != nil {
		return fmt.Errorf("failed to marshal update event: %w", err)
	}

	topic := domain.GroupName(room)
	if err := a.bus.Publish(ctx, topic, frame); err != nil {
		metrics.AnnouncementFailures.Inc()
		return fmt.Errorf("failed to publish update to %s: %w", topic, err)
	}

	metrics.AnnouncementsTotal.WithLabelValues(entity, string(action)).Inc()
	return nil
}

// AnnounceCompany is Announce for a tenant-scoped mutation.
func (a *Announcer) AnnounceCompany(ctx context.Context, companyID, entity string, action domain.Action, data json.RawMessage) error {
	return a.Announce(ctx, domain.RoomForCompany(companyID), entity, action, data)
}

// AnnounceAsync publishes without surfacing failures to the caller. The
// database commit that triggered the announcement is the source of
// truth; a lost notification is logged, never propagated back into the
// write path.
func (a *Announcer) AnnounceAsync(room, entity string, action domain.Action, data json.RawMessage) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), announceTimeout)
		defer cancel()

		err := retry.DoVoid(ctx, asyncRetryPolicy, classifyAnnounceError, func() error {
			return a.Announce(ctx, room, entity, action, data)
		})
		if err != nil {
			slog.Warn("Failed to announce update",
				"room", room,
				"entity", entity,
				"action", string(action),
				"error", err,
			)
		}
	}()
}
