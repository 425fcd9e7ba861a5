// Package realtime fans broadcast events out to live subscribers:
// websocket dashboard connections and per-user SSE streams. It keeps a
// bounded in-memory history so late joiners can catch up.
package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmulondo/sema-core/internal/domain"
)

const (
	// DefaultHistoryLimit caps the in-memory event history.
	DefaultHistoryLimit = 1000
	// DefaultIdleTimeout evicts connections with no activity for this long.
	DefaultIdleTimeout = 30 * time.Minute
	// DefaultSweepInterval is how often idle connections are checked.
	DefaultSweepInterval = 5 * time.Minute
	// DefaultHistoryQueryLimit is the history page size when none is given.
	DefaultHistoryQueryLimit = 50

	// subscriptionBuffer absorbs bursts per stream subscriber. A full
	// buffer drops the event for that subscriber rather than blocking
	// the broadcast.
	subscriptionBuffer = 64
)

// Sink delivers one serialized event to a transport. Send must not
// block; a transport that cannot accept the payload returns an error and
// the hub evicts the connection.
type Sink interface {
	Send(data []byte) error
	Close() error
}

// Connection is a registered non-stream subscriber (websocket dashboard
// sockets). Connections are not persisted.
type Connection struct {
	ID            string
	UserID        string
	SessionID     string
	Subscriptions []domain.EventType
	LastActivity  time.Time
	sink          Sink
}

// matches is the routing predicate for broadcast delivery.
func (c *Connection) matches(e domain.RealtimeEvent) bool {
	if e.Priority == domain.PriorityCritical {
		return true
	}
	if e.UserID != "" && e.UserID == c.UserID {
		return true
	}
	if e.SessionID != "" && e.SessionID == c.SessionID {
		return true
	}
	for _, t := range c.Subscriptions {
		if t == e.Type {
			return true
		}
	}
	return false
}

// Subscription is a stream listener holding a filter predicate and a
// buffered channel sink. Close deregisters it synchronously: no event is
// delivered after Close returns.
type Subscription struct {
	id     string
	filter func(domain.RealtimeEvent) bool
	ch     chan domain.RealtimeEvent
	hub    *Hub
	once   sync.Once
}

// Events is the subscriber's receive channel. It is closed when the
// subscription or the hub shuts down.
func (s *Subscription) Events() <-chan domain.RealtimeEvent {
	return s.ch
}

// Close removes the subscription from the hub registry and closes the
// event channel. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subscriptions, s.id)
		s.hub.mu.Unlock()
		close(s.ch)
	})
}

// Options tune the hub. Zero values take the defaults above.
type Options struct {
	HistoryLimit  int
	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

// Hub is the process-wide event bus. Construct once at startup with
// NewHub and stop it with Close.
type Hub struct {
	mu            sync.Mutex
	connections   map[string]*Connection
	subscriptions map[string]*Subscription
	history       []domain.RealtimeEvent
	historyLimit  int
	idleTimeout   time.Duration

	done chan struct{}
}

// NewHub builds a hub and starts its idle-connection sweeper.
func NewHub(opts Options) *Hub {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	h := &Hub{
		connections:   make(map[string]*Connection),
		subscriptions: make(map[string]*Subscription),
		historyLimit:  opts.HistoryLimit,
		idleTimeout:   opts.IdleTimeout,
		done:          make(chan struct{}),
	}
	go h.sweep(opts.SweepInterval)
	return h
}

// Close stops the sweeper and tears down every connection and
// subscription.
func (h *Hub) Close() {
	close(h.done)

	h.mu.Lock()
	conns := make([]*Connection, 0, len(h.connections))
	for id, c := range h.connections {
		conns = append(conns, c)
		delete(h.connections, id)
	}
	subs := make([]*Subscription, 0, len(h.subscriptions))
	for _, s := range h.subscriptions {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, c := range conns {
		_ = c.sink.Close()
	}
	for _, s := range subs {
		s.Close()
	}
}

// Broadcast appends the event to history and delivers it synchronously
// to every matching connection and subscription. A dead or slow consumer
// never blocks the fan-out and never surfaces an error to the caller.
// Events are delivered in broadcast order.
func (h *Hub) Broadcast(event domain.RealtimeEvent) {
	if event.ID == "" {
		event.ID = NewEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Priority == "" {
		event.Priority = domain.PriorityLow
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ERROR: failed to marshal event %s: %v", event.ID, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.history = append(h.history, event)
	if len(h.history) > h.historyLimit {
		h.history = h.history[len(h.history)-h.historyLimit:]
	}

	var failed []*Connection
	for _, c := range h.connections {
		if !c.matches(event) {
			continue
		}
		if err := c.sink.Send(data); err != nil {
			log.Printf("INFO: evicting connection %s: %v", c.ID, err)
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		delete(h.connections, c.ID)
		go c.sink.Close()
	}

	for _, s := range h.subscriptions {
		if !s.filter(event) {
			continue
		}
		select {
		case s.ch <- event:
		default:
			// Subscriber is not keeping up; drop for this one only.
			log.Printf("WARN: subscriber %s buffer full, dropping event %s", s.id, event.ID)
		}
	}
}

// AddConnection registers a non-stream subscriber with the hub.
func (h *Hub) AddConnection(userID, sessionID string, subscriptions []domain.EventType, sink Sink) *Connection {
	c := &Connection{
		ID:            uuid.New().String(),
		UserID:        userID,
		SessionID:     sessionID,
		Subscriptions: subscriptions,
		LastActivity:  time.Now(),
		sink:          sink,
	}
	h.mu.Lock()
	h.connections[c.ID] = c
	h.mu.Unlock()
	log.Printf("Connection registered: %s (user: %s, session: %s)", c.ID, userID, sessionID)
	return c
}

// RemoveConnection deregisters a connection and closes its transport.
// Removing an unknown id is a no-op.
func (h *Hub) RemoveConnection(id string) {
	h.mu.Lock()
	c, ok := h.connections[id]
	if ok {
		delete(h.connections, id)
	}
	h.mu.Unlock()
	if ok {
		_ = c.sink.Close()
		log.Printf("Connection unregistered: %s", c.ID)
	}
}

// Touch records activity on a connection so the idle sweeper keeps it.
func (h *Hub) Touch(id string) {
	h.mu.Lock()
	if c, ok := h.connections[id]; ok {
		c.LastActivity = time.Now()
	}
	h.mu.Unlock()
}

// Subscribe registers a stream listener for events addressed to the
// given user or session. The caller must Close the subscription when the
// stream ends.
func (h *Hub) Subscribe(userID, sessionID string) *Subscription {
	return h.SubscribeFunc(func(e domain.RealtimeEvent) bool {
		if userID != "" && e.UserID == userID {
			return true
		}
		if sessionID != "" && e.SessionID == sessionID {
			return true
		}
		return false
	})
}

// SubscribeFunc registers a stream listener with an arbitrary filter
// predicate.
func (h *Hub) SubscribeFunc(filter func(domain.RealtimeEvent) bool) *Subscription {
	s := &Subscription{
		id:     uuid.New().String(),
		filter: filter,
		ch:     make(chan domain.RealtimeEvent, subscriptionBuffer),
		hub:    h,
	}
	h.mu.Lock()
	h.subscriptions[s.id] = s
	h.mu.Unlock()
	return s
}

// EventHistory returns the most recent events, newest first, optionally
// filtered to a user or session. limit <= 0 takes the default of 50.
func (h *Hub) EventHistory(userID, sessionID string, limit int) []domain.RealtimeEvent {
	if limit <= 0 {
		limit = DefaultHistoryQueryLimit
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	matches := func(e domain.RealtimeEvent) bool {
		if userID == "" && sessionID == "" {
			return true
		}
		if userID != "" && e.UserID == userID {
			return true
		}
		if sessionID != "" && e.SessionID == sessionID {
			return true
		}
		return false
	}

	out := make([]domain.RealtimeEvent, 0, limit)
	for i := len(h.history) - 1; i >= 0 && len(out) < limit; i-- {
		if matches(h.history[i]) {
			out = append(out, h.history[i])
		}
	}
	return out
}

// ConnectionCount returns the number of registered connections.
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections)
}

// SubscriberCount returns the number of live stream subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscriptions)
}

// sweep periodically evicts connections idle past the timeout. Eviction
// is best effort: a connection can outlive the timeout by up to one
// sweep interval.
func (h *Hub) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-h.idleTimeout)
			h.mu.Lock()
			var idle []*Connection
			for id, c := range h.connections {
				if c.LastActivity.Before(cutoff) {
					idle = append(idle, c)
					delete(h.connections, id)
				}
			}
			h.mu.Unlock()
			for _, c := range idle {
				log.Printf("INFO: evicting idle connection %s", c.ID)
				_ = c.sink.Close()
			}
		}
	}
}

// NewEventID mints an event id.
func NewEventID() string {
	return "evt_" + uuid.New().String()[:8]
}
