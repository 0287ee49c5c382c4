package router

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bankithung/ConsultancyDev/internal/domain"
)

// recordingBus captures publishes for assertions.
type recordingBus struct {
	mu       sync.Mutex
	messages []domain.BusMessage
	fail     error
}

func (b *recordingBus) Publish(_ context.Context, topic string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return b.fail
	}
	b.messages = append(b.messages, domain.BusMessage{Topic: topic, Payload: payload})
	return nil
}

func (b *recordingBus) Subscribe(ctx context.Context, _ func(domain.BusMessage)) {
	<-ctx.Done()
}

func (b *recordingBus) published() []domain.BusMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.BusMessage(nil), b.messages...)
}

func TestAnnouncer_PublishesWireFrame(t *testing.T) {
	bus := &recordingBus{}
	announcer := NewAnnouncer(bus)

	err := announcer.Announce(context.Background(), "company_42", "enquiry", domain.ActionCreated, json.RawMessage(`{"id":1}`))
	require.NoError(t, err)

	msgs := bus.published()
	require.Len(t, msgs, 1)
	assert.Equal(t, "updates_company_42", msgs[0].Topic)
	assert.JSONEq(t, `{"type":"update","entity":"enquiry","action":"created","data":{"id":1}}`, string(msgs[0].Payload))
}

func TestAnnouncer_AnnounceCompanyDerivesRoom(t *testing.T) {
	bus := &recordingBus{}
	announcer := NewAnnouncer(bus)

	err := announcer.AnnounceCompany(context.Background(), "7", "payment", domain.ActionUpdated, json.RawMessage(`{}`))
	require.NoError(t, err)

	msgs := bus.published()
	require.Len(t, msgs, 1)
	assert.Equal(t, "updates_company_7", msgs[0].Topic)
}

func TestAnnouncer_AnnounceCompanyEmptyIDUsesSentinel(t *testing.T) {
	bus := &recordingBus{}
	announcer := NewAnnouncer(bus)

	err := announcer.AnnounceCompany(context.Background(), "", "signup_request", domain.ActionCreated, json.RawMessage(`{}`))
	require.NoError(t, err)

	msgs := bus.published()
	require.Len(t, msgs, 1)
	assert.Equal(t, "updates_dev_admin", msgs[0].Topic)
}

func TestAnnouncer_PublishFailureSurfaced(t *testing.T) {
	bus := &recordingBus{fail: errors.New("broker down")}
	announcer := NewAnnouncer(bus)

	err := announcer.Announce(context.Background(), "company_1", "document", domain.ActionDeleted, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestAnnouncer_AnnounceAsyncSwallowsFailure(t *testing.T) {
	bus := &recordingBus{fail: errors.New("broker down")}
	announcer := NewAnnouncer(bus)

	// Must not panic or surface the error to the caller.
	announcer.AnnounceAsync("company_1", "task", domain.ActionCreated, json.RawMessage(`{}`))
	time.Sleep(50 * time.Millisecond)
}

func TestAnnouncer_AnnounceAsyncDelivers(t *testing.T) {
	bus := &recordingBus{}
	announcer := NewAnnouncer(bus)

	announcer.AnnounceAsync("company_9", "appointment", domain.ActionUpdated, json.RawMessage(`{"id":3}`))

	require.Eventually(t, func() bool {
		return len(bus.published()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "updates_company_9", bus.published()[0].Topic)
}
