package events

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Millionpixels-tech/marketplace-sub001/internal/testutil"
)

// captureBus records publishes and signals each one on a channel.
type captureBus struct {
	mu        sync.Mutex
	published []capturedMsg
	signal    chan struct{}
	err       error
}

type capturedMsg struct {
	subject string
	data    []byte
	msgId   string
}

func newCaptureBus() *captureBus {
	return &captureBus{signal: make(chan struct{}, 10)}
}

func (b *captureBus) Publish(subject string, data []byte, msgId string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		b.signal <- struct{}{}
		return b.err
	}
	b.published = append(b.published, capturedMsg{subject: subject, data: data, msgId: msgId})
	b.signal <- struct{}{}
	return nil
}

func (b *captureBus) Drain() error { return nil }

func (b *captureBus) await(t *testing.T) {
	t.Helper()
	select {
	case <-b.signal:
	case <-time.After(time.Second):
		t.Fatal("no publish within a second")
	}
}

func (b *captureBus) last(t *testing.T) capturedMsg {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	require.NotEmpty(t, b.published)
	return b.published[len(b.published)-1]
}

func testConfig() *EventConfig {
	return &EventConfig{
		ListingCreated:    "listings.created",
		UserNotifications: "users.notifications",
	}
}

func TestNotifier_ListingCreated(t *testing.T) {
	bus := newCaptureBus()
	n := NewNotifier(bus, testConfig(), testutil.NewTestLogger())

	n.ListingCreated("listing-1", "shop-1", "seller-1", "trace-abc")
	bus.await(t)

	msg := bus.last(t)
	assert.Equal(t, "listings.created", msg.subject)
	assert.Equal(t, "listing.created.listing-1", msg.msgId)

	var evt ListingCreatedEvent
	require.NoError(t, json.Unmarshal(msg.data, &evt))
	assert.Equal(t, "listing-1", evt.ListingID)
	assert.Equal(t, "shop-1", evt.ShopID)
	assert.Equal(t, "seller-1", evt.UserID)
	assert.Equal(t, "trace-abc", evt.TraceID)
}

func TestNotifier_Notify(t *testing.T) {
	bus := newCaptureBus()
	n := NewNotifier(bus, testConfig(), testutil.NewTestLogger())

	n.Notify("warning", "Photo upload failed", "seller-1")
	bus.await(t)

	msg := bus.last(t)
	assert.Equal(t, "users.notifications", msg.subject)

	var note UserNotification
	require.NoError(t, json.Unmarshal(msg.data, &note))
	assert.Equal(t, "seller-1", note.UserID)
	assert.Equal(t, "warning", note.Level)
	assert.Equal(t, "Photo upload failed", note.Message)
}

func TestNotifier_PublishFailureDoesNotPropagate(t *testing.T) {
	bus := newCaptureBus()
	bus.err = assert.AnError
	n := NewNotifier(bus, testConfig(), testutil.NewTestLogger())

	// Must not panic or block the caller
	n.Notify("info", "hello", "seller-1")
	bus.await(t)
}
