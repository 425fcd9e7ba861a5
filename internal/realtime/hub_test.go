package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmulondo/sema-core/internal/domain"
)

// fakeSink records every frame it receives.
type fakeSink struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (f *fakeSink) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, data)
	return nil
}

func (f *fakeSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSink) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeSink) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// failSink refuses every frame, like a transport whose buffer is full.
type failSink struct {
	fakeSink
}

func (f *failSink) Send(data []byte) error {
	return errors.New("buffer full")
}

func newTestHub(t *testing.T, opts Options) *Hub {
	t.Helper()
	h := NewHub(opts)
	t.Cleanup(h.Close)
	return h
}

func TestBroadcastRoutesByUserAndSession(t *testing.T) {
	h := newTestHub(t, Options{})

	alice := &fakeSink{}
	bob := &fakeSink{}
	bySession := &fakeSink{}
	h.AddConnection("alice", "", nil, alice)
	h.AddConnection("bob", "", nil, bob)
	h.AddConnection("", "sess_1", nil, bySession)

	h.Broadcast(domain.RealtimeEvent{
		Type:     domain.EventTypeSolution,
		UserID:   "alice",
		Priority: domain.PriorityMedium,
		Data:     json.RawMessage(`{}`),
	})
	h.Broadcast(domain.RealtimeEvent{
		Type:      domain.EventTypeStatusUpdate,
		SessionID: "sess_1",
		Priority:  domain.PriorityLow,
		Data:      json.RawMessage(`{}`),
	})

	assert.Equal(t, 1, alice.frameCount())
	assert.Equal(t, 0, bob.frameCount())
	assert.Equal(t, 1, bySession.frameCount())
}

func TestCriticalEventsReachEveryConnection(t *testing.T) {
	h := newTestHub(t, Options{})

	sinks := []*fakeSink{{}, {}, {}}
	h.AddConnection("alice", "", nil, sinks[0])
	h.AddConnection("bob", "", nil, sinks[1])
	h.AddConnection("", "sess_9", nil, sinks[2])

	h.SendEscalationAlert("carol", "sess_1", map[string]any{"message": "help"})

	for i, s := range sinks {
		assert.Equal(t, 1, s.frameCount(), "sink %d", i)
	}
}

func TestSubscribedEventTypeRouting(t *testing.T) {
	h := newTestHub(t, Options{})

	watcher := &fakeSink{}
	h.AddConnection("", "", []domain.EventType{domain.EventTypeComplaint}, watcher)

	h.SendComplaintUpdate("someone", "sess_2", map[string]any{"stage": "received"})
	h.SendSolutionNotification("someone", "sess_2", map[string]any{"response": "done"})

	assert.Equal(t, 1, watcher.frameCount())
}

func TestUnaddressedEventMatchesNoEmptyIdentity(t *testing.T) {
	h := newTestHub(t, Options{})

	anon := &fakeSink{}
	h.AddConnection("", "", nil, anon)

	// No userId, no sessionId, not critical: empty ids must not match
	// the connection's empty identity.
	h.Broadcast(domain.RealtimeEvent{
		Type:     domain.EventTypeStatusUpdate,
		Priority: domain.PriorityLow,
		Data:     json.RawMessage(`{}`),
	})

	assert.Equal(t, 0, anon.frameCount())
}

func TestDeadConnectionIsEvicted(t *testing.T) {
	h := newTestHub(t, Options{})

	dead := &failSink{}
	h.AddConnection("alice", "", nil, dead)
	require.Equal(t, 1, h.ConnectionCount())

	h.Broadcast(domain.RealtimeEvent{
		Type:     domain.EventTypeSolution,
		UserID:   "alice",
		Priority: domain.PriorityMedium,
		Data:     json.RawMessage(`{}`),
	})

	assert.Equal(t, 0, h.ConnectionCount())
	require.Eventually(t, dead.isClosed, time.Second, 10*time.Millisecond)
}

func TestHistoryIsBoundedFIFO(t *testing.T) {
	h := newTestHub(t, Options{HistoryLimit: 3})

	for i := 0; i < 5; i++ {
		h.Broadcast(domain.RealtimeEvent{
			ID:       fmt.Sprintf("evt_%d", i),
			Type:     domain.EventTypeStatusUpdate,
			UserID:   "alice",
			Priority: domain.PriorityLow,
			Data:     json.RawMessage(`{}`),
		})
	}

	events := h.EventHistory("alice", "", 0)
	require.Len(t, events, 3)
	// Newest first; the two oldest were evicted.
	assert.Equal(t, "evt_4", events[0].ID)
	assert.Equal(t, "evt_3", events[1].ID)
	assert.Equal(t, "evt_2", events[2].ID)
}

func TestEventHistoryFilterAndLimit(t *testing.T) {
	h := newTestHub(t, Options{})

	for i := 0; i < 60; i++ {
		user := "alice"
		if i%2 == 0 {
			user = "bob"
		}
		h.Broadcast(domain.RealtimeEvent{
			ID:       fmt.Sprintf("evt_%d", i),
			Type:     domain.EventTypeStatusUpdate,
			UserID:   user,
			Priority: domain.PriorityLow,
			Data:     json.RawMessage(`{}`),
		})
	}

	alice := h.EventHistory("alice", "", 0)
	require.Len(t, alice, 30)
	assert.Equal(t, "evt_59", alice[0].ID)

	capped := h.EventHistory("", "", 10)
	require.Len(t, capped, 10)
	assert.Equal(t, "evt_59", capped[0].ID)

	all := h.EventHistory("", "", 0)
	assert.Len(t, all, DefaultHistoryQueryLimit)
}

func TestBroadcastFillsDefaults(t *testing.T) {
	h := newTestHub(t, Options{})

	h.Broadcast(domain.RealtimeEvent{
		Type:   domain.EventTypeStatusUpdate,
		UserID: "alice",
		Data:   json.RawMessage(`{}`),
	})

	events := h.EventHistory("alice", "", 1)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Equal(t, domain.PriorityLow, events[0].Priority)
}

func TestSubscriptionDeliveryAndClose(t *testing.T) {
	h := newTestHub(t, Options{})

	sub := h.Subscribe("alice", "")
	require.Equal(t, 1, h.SubscriberCount())

	h.SendSolutionNotification("alice", "sess_1", map[string]any{"response": "ok"})
	h.SendSolutionNotification("bob", "sess_2", map[string]any{"response": "not yours"})

	select {
	case event := <-sub.Events():
		assert.Equal(t, domain.EventTypeSolution, event.Type)
		assert.Equal(t, "alice", event.UserID)
	case <-time.After(time.Second):
		t.Fatal("expected an event on the subscription channel")
	}

	sub.Close()
	assert.Equal(t, 0, h.SubscriberCount())

	// No delivery after Close; the channel drains the bob event never
	// sent and then reports closed.
	h.SendSolutionNotification("alice", "sess_1", map[string]any{"response": "late"})
	_, ok := <-sub.Events()
	assert.False(t, ok)

	// Double close is safe.
	sub.Close()
}

func TestIdleConnectionsAreSwept(t *testing.T) {
	h := newTestHub(t, Options{
		IdleTimeout:   20 * time.Millisecond,
		SweepInterval: 10 * time.Millisecond,
	})

	sink := &fakeSink{}
	h.AddConnection("alice", "", nil, sink)
	require.Equal(t, 1, h.ConnectionCount())

	require.Eventually(t, func() bool {
		return h.ConnectionCount() == 0
	}, time.Second, 10*time.Millisecond)
	require.Eventually(t, sink.isClosed, time.Second, 10*time.Millisecond)
}

func TestTouchKeepsConnectionAlive(t *testing.T) {
	h := newTestHub(t, Options{
		IdleTimeout:   150 * time.Millisecond,
		SweepInterval: 25 * time.Millisecond,
	})

	sink := &fakeSink{}
	conn := h.AddConnection("alice", "", nil, sink)

	deadline := time.Now().Add(400 * time.Millisecond)
	for time.Now().Before(deadline) {
		h.Touch(conn.ID)
		time.Sleep(20 * time.Millisecond)
	}

	assert.Equal(t, 1, h.ConnectionCount())
}
