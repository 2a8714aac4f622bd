package notifications

import (
	"log/slog"
	"sync"
	"time"

	"solidarlink/internal/platform/metrics"
	id "solidarlink/pkg/domain"
)

const (
	// DefaultConnectionTimeout bounds a connection's lifetime; clients are
	// expected to reopen the stream after it expires.
	DefaultConnectionTimeout = 30 * time.Minute

	// defaultSendTimeout bounds how long a publish waits on one connection's
	// in-flight buffer before tearing the connection down. One slow consumer
	// must not stall delivery to everyone else.
	defaultSendTimeout = time.Second

	// connectionBuffer is the per-connection in-flight send slot count.
	connectionBuffer = 16
)

// Connection is one live event stream belonging to a single user. The hub owns
// its lifecycle: it is created by Subscribe and torn down by Unsubscribe,
// connection timeout, or a failed send.
type Connection struct {
	userID    id.UserID
	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
	expiry    *time.Timer
}

// Events is the stream of events delivered to this connection, in publish
// order.
func (c *Connection) Events() <-chan Event { return c.events }

// Done is closed when the hub has torn the connection down; after that no
// further events arrive.
func (c *Connection) Done() <-chan struct{} { return c.done }

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		if c.expiry != nil {
			c.expiry.Stop()
		}
		close(c.done)
	})
}

// userConnections is the independently-synchronized connection list for one
// user, so publishing to one user never blocks subscribe or unsubscribe for
// another.
type userConnections struct {
	mu    sync.Mutex
	conns []*Connection
}

func (u *userConnections) add(c *Connection) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.conns = append(u.conns, c)
}

// remove deletes c and reports whether it was present and how many
// connections remain.
func (u *userConnections) remove(c *Connection) (removed bool, remaining int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for i, conn := range u.conns {
		if conn == c {
			u.conns = append(u.conns[:i], u.conns[i+1:]...)
			return true, len(u.conns)
		}
	}
	return false, len(u.conns)
}

func (u *userConnections) snapshot() []*Connection {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]*Connection, len(u.conns))
	copy(out, u.conns)
	return out
}

// Hub routes transient events to live per-user stream connections. It is
// fully decoupled from case semantics: callers decide what to publish and to
// whom.
//
// Delivery guarantee: best effort, at most once per live connection, no retry
// and no buffering beyond the in-flight send slot. Events published to the
// same connection arrive in publish order; there is no ordering guarantee
// across connections.
type Hub struct {
	mu    sync.RWMutex
	users map[id.UserID]*userConnections

	timeout     time.Duration
	sendTimeout time.Duration
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithConnectionTimeout overrides the connection lifetime bound.
func WithConnectionTimeout(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithSendTimeout overrides the per-connection bounded send window.
func WithSendTimeout(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.sendTimeout = d
		}
	}
}

// WithMetrics attaches delivery metrics.
func WithMetrics(m *metrics.Metrics) HubOption {
	return func(h *Hub) { h.metrics = m }
}

func NewHub(logger *slog.Logger, opts ...HubOption) *Hub {
	h := &Hub{
		users:       make(map[id.UserID]*userConnections),
		timeout:     DefaultConnectionTimeout,
		sendTimeout: defaultSendTimeout,
		logger:      logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Subscribe registers a new connection for userID and immediately queues the
// connected acknowledgement event on it. The connection expires after the
// hub's timeout; the caller must drain Events until Done is closed and then
// call Unsubscribe.
func (h *Hub) Subscribe(userID id.UserID) *Connection {
	conn := &Connection{
		userID: userID,
		events: make(chan Event, connectionBuffer),
		done:   make(chan struct{}),
	}
	conn.expiry = time.AfterFunc(h.timeout, func() {
		h.Unsubscribe(userID, conn)
		h.logger.Info("stream connection timed out", "user_id", userID.String())
	})

	// add happens under the registry lock so a concurrent Unsubscribe cannot
	// observe an empty list and drop the map entry while this connection is
	// being attached.
	h.mu.Lock()
	user := h.users[userID]
	if user == nil {
		user = &userConnections{}
		h.users[userID] = user
	}
	user.add(conn)
	h.mu.Unlock()

	// Fresh buffer, cannot block.
	conn.events <- Event{Name: EventConnected, Data: `{"message":"connection established"}`}

	if h.metrics != nil {
		h.metrics.StreamConnections.Inc()
	}
	h.logger.Info("stream connection opened", "user_id", userID.String())
	return conn
}

// Unsubscribe removes the connection from the registry and closes it. It is
// idempotent: unsubscribing an already-removed connection is a no-op. It is
// invoked by the stream handler on completion, by the expiry timer, and by
// publish on a failed send.
func (h *Hub) Unsubscribe(userID id.UserID, conn *Connection) {
	h.mu.RLock()
	user := h.users[userID]
	h.mu.RUnlock()
	if user == nil {
		conn.close()
		return
	}

	removed, remaining := user.remove(conn)
	conn.close()
	if !removed {
		return
	}

	if remaining == 0 {
		h.mu.Lock()
		// Re-check under the write lock: a concurrent Subscribe may have
		// added a connection between remove and here.
		user.mu.Lock()
		empty := len(user.conns) == 0
		user.mu.Unlock()
		if empty && h.users[userID] == user {
			delete(h.users, userID)
		}
		h.mu.Unlock()
	}

	if h.metrics != nil {
		h.metrics.StreamConnections.Dec()
	}
	h.logger.Info("stream connection closed", "user_id", userID.String())
}

// Publish delivers the event to every live connection of userID. A user with
// no connections is a no-op, not an error. Delivery to each connection is
// attempted independently: one failure tears that connection down without
// affecting the others.
func (h *Hub) Publish(userID id.UserID, event Event) {
	start := time.Now()
	h.mu.RLock()
	user := h.users[userID]
	h.mu.RUnlock()
	if user == nil {
		return
	}

	for _, conn := range user.snapshot() {
		h.send(userID, conn, event)
	}
	if h.metrics != nil {
		h.metrics.ObservePublish(time.Since(start))
	}
}

// Broadcast delivers the event to every connected user.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	userIDs := make([]id.UserID, 0, len(h.users))
	for userID := range h.users {
		userIDs = append(userIDs, userID)
	}
	h.mu.RUnlock()

	for _, userID := range userIDs {
		h.Publish(userID, event)
	}
}

// send queues the event on one connection, waiting at most sendTimeout for
// space in its in-flight buffer. On timeout or a closed connection the
// connection is removed.
func (h *Hub) send(userID id.UserID, conn *Connection, event Event) {
	select {
	case <-conn.done:
		return
	default:
	}

	timer := time.NewTimer(h.sendTimeout)
	defer timer.Stop()
	select {
	case conn.events <- event:
		if h.metrics != nil {
			h.metrics.NotificationsSent.WithLabelValues(event.Name).Inc()
		}
	case <-conn.done:
	case <-timer.C:
		if h.metrics != nil {
			h.metrics.NotificationsFailed.Inc()
		}
		h.logger.Warn("dropping slow stream connection",
			"user_id", userID.String(),
			"event", event.Name,
		)
		h.Unsubscribe(userID, conn)
	}
}

// ActiveUserCount returns the number of distinct users with at least one live
// connection.
func (h *Hub) ActiveUserCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users)
}

// IsConnected reports whether the user has at least one live connection.
func (h *Hub) IsConnected(userID id.UserID) bool {
	h.mu.RLock()
	user := h.users[userID]
	h.mu.RUnlock()
	if user == nil {
		return false
	}
	user.mu.Lock()
	defer user.mu.Unlock()
	return len(user.conns) > 0
}

// Shutdown closes every connection. Used on server shutdown so stream
// handlers unblock promptly.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	users := h.users
	h.users = make(map[id.UserID]*userConnections)
	h.mu.Unlock()

	for _, user := range users {
		for _, conn := range user.snapshot() {
			conn.close()
		}
	}
}
