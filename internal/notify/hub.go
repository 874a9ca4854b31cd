package notify

import (
	"log"
	"sync"
	"time"

	"github.com/expenso-dev/expenso/internal/types"
)

const deliverWait = 10 * time.Second

// Hub maps authenticated users to their live push connections. A user may
// hold several connections at once (tabs, devices); a connection belongs to
// at most one user. Construct one per server, no package-level instance.
type Hub struct {
	mu    sync.RWMutex
	users map[uint]map[Conn]bool
	owner map[Conn]uint
}

func NewHub() *Hub {
	return &Hub{
		users: make(map[uint]map[Conn]bool),
		owner: make(map[Conn]uint),
	}
}

// Bind registers conn under userID. Binding the same pair twice is a no-op;
// rebinding a conn to a different user moves it.
func (h *Hub) Bind(conn Conn, userID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev, ok := h.owner[conn]; ok {
		if prev == userID {
			return
		}
		h.removeLocked(conn, prev)
	}

	if h.users[userID] == nil {
		h.users[userID] = make(map[Conn]bool)
	}
	h.users[userID][conn] = true
	h.owner[conn] = userID
}

// Unbind removes conn from whatever user it was bound to. Safe to call for
// a connection that was never bound, e.g. one closed before authentication
// completed.
func (h *Hub) Unbind(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	userID, ok := h.owner[conn]
	if !ok {
		return
	}
	h.removeLocked(conn, userID)
}

func (h *Hub) removeLocked(conn Conn, userID uint) {
	delete(h.owner, conn)

	if conns, exists := h.users[userID]; exists {
		delete(conns, conn)

		if len(conns) == 0 {
			delete(h.users, userID)
		}
	}
}

// Connections reports how many connections are currently bound to userID.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// Deliver sends the payload under the given event name to every connection
// bound to userID. No bound connections means a silent no-op; persistence
// is the publisher's job, not the hub's. A connection whose write fails is
// unbound and closed, with reconciliation on the next historical fetch as
// the recovery path.
func (h *Hub) Deliver(userID uint, event string, payload types.NotificationPayload) {
	if event == "" {
		return
	}

	h.mu.RLock()
	conns, exists := h.users[userID]
	if !exists || len(conns) == 0 {
		h.mu.RUnlock()
		return
	}

	// Copy the conn set so writes happen outside the lock.
	connsCopy := make([]Conn, 0, len(conns))
	for conn := range conns {
		connsCopy = append(connsCopy, conn)
	}
	h.mu.RUnlock()

	msg := types.PushEvent{Event: event, Payload: payload}

	for _, conn := range connsCopy {
		// A stalled client must not block the publishing request.
		if err := conn.SetWriteDeadline(time.Now().Add(deliverWait)); err != nil {
			log.Printf("Failed to set write deadline for a connection of user %d: %v", userID, err)
			h.Unbind(conn)
			conn.Close()
			continue
		}

		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("Failed to deliver %s to a connection of user %d: %v", event, userID, err)
			h.Unbind(conn)
			conn.Close()
		}
	}
}
