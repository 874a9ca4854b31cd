package notify

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/expenso-dev/expenso/internal/types"
)

// fakeConn records everything written to it and can be told to fail.
type fakeConn struct {
	mu           sync.Mutex
	writes       []types.PushEvent
	deadlines    []time.Time
	failWrite    bool
	failDeadline bool
	closed       bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failWrite {
		return fmt.Errorf("write failed")
	}

	event, ok := v.(types.PushEvent)
	if !ok {
		return fmt.Errorf("unexpected message type %T", v)
	}

	c.writes = append(c.writes, event)
	return nil
}

func (c *fakeConn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failDeadline {
		return fmt.Errorf("deadline failed")
	}

	c.deadlines = append(c.deadlines, t)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) events() []types.PushEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.PushEvent(nil), c.writes...)
}

func TestHubBindIdempotent(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}

	hub.Bind(conn, 1)
	hub.Bind(conn, 1)

	if got := hub.Connections(1); got != 1 {
		t.Fatalf("expected 1 connection after double bind, got %d", got)
	}

	hub.Deliver(1, types.EventName(types.CategoryExpense, types.ActionCreated), types.NotificationPayload{ID: 7})

	if got := len(conn.events()); got != 1 {
		t.Fatalf("expected exactly 1 delivery after double bind, got %d", got)
	}
}

func TestHubUnbindNeverBound(t *testing.T) {
	hub := NewHub()
	bound := &fakeConn{}
	stranger := &fakeConn{}

	hub.Bind(bound, 1)
	hub.Unbind(stranger)

	if got := hub.Connections(1); got != 1 {
		t.Fatalf("unbinding a stranger affected other bindings: %d connections", got)
	}
}

func TestHubFanOutToAllConnections(t *testing.T) {
	hub := NewHub()
	first := &fakeConn{}
	second := &fakeConn{}

	hub.Bind(first, 1)
	hub.Bind(second, 1)

	payload := types.NotificationPayload{ID: 42, Message: "msg"}
	hub.Deliver(1, types.EventName(types.CategoryIncome, types.ActionCreated), payload)

	for i, conn := range []*fakeConn{first, second} {
		events := conn.events()
		if len(events) != 1 {
			t.Fatalf("connection %d: expected 1 event, got %d", i, len(events))
		}
		if events[0].Payload.ID != 42 {
			t.Errorf("connection %d: expected payload id 42, got %d", i, events[0].Payload.ID)
		}
	}
}

func TestHubNoCrossTalk(t *testing.T) {
	hub := NewHub()
	alice := &fakeConn{}
	bob := &fakeConn{}

	hub.Bind(alice, 1)
	hub.Bind(bob, 2)

	hub.Deliver(2, types.EventName(types.CategoryExpense, types.ActionCreated), types.NotificationPayload{ID: 9})

	if got := len(alice.events()); got != 0 {
		t.Errorf("user 1 received %d events published to user 2", got)
	}
	if got := len(bob.events()); got != 1 {
		t.Errorf("user 2 expected 1 event, got %d", got)
	}
}

func TestHubDeliverWithoutConnections(t *testing.T) {
	hub := NewHub()

	// Must not panic or block.
	hub.Deliver(1, types.EventName(types.CategoryExpense, types.ActionCreated), types.NotificationPayload{ID: 1})
}

func TestHubFailedWriteDropsConnection(t *testing.T) {
	hub := NewHub()
	healthy := &fakeConn{}
	broken := &fakeConn{failWrite: true}

	hub.Bind(healthy, 1)
	hub.Bind(broken, 1)

	event := types.EventName(types.CategoryExpense, types.ActionCreated)
	hub.Deliver(1, event, types.NotificationPayload{ID: 1})

	if !broken.closed {
		t.Error("expected the failing connection to be closed")
	}
	if got := hub.Connections(1); got != 1 {
		t.Fatalf("expected failing connection to be unbound, got %d bound", got)
	}

	hub.Deliver(1, event, types.NotificationPayload{ID: 2})

	if got := len(healthy.events()); got != 2 {
		t.Errorf("healthy connection expected 2 events, got %d", got)
	}
}

func TestHubDeliverSetsWriteDeadline(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}

	hub.Bind(conn, 1)

	before := time.Now()
	hub.Deliver(1, types.EventName(types.CategoryExpense, types.ActionCreated), types.NotificationPayload{ID: 1})

	if len(conn.deadlines) != 1 {
		t.Fatalf("expected 1 write deadline, got %d", len(conn.deadlines))
	}
	if !conn.deadlines[0].After(before) {
		t.Errorf("deadline %v is not in the future", conn.deadlines[0])
	}
	if len(conn.events()) != 1 {
		t.Fatalf("expected the write to happen, got %d events", len(conn.events()))
	}
}

func TestHubDeadlineFailureDropsConnection(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{failDeadline: true}

	hub.Bind(conn, 1)
	hub.Deliver(1, types.EventName(types.CategoryExpense, types.ActionCreated), types.NotificationPayload{ID: 1})

	if got := len(conn.events()); got != 0 {
		t.Errorf("expected no write without a deadline, got %d", got)
	}
	if !conn.closed {
		t.Error("expected the connection to be closed")
	}
	if got := hub.Connections(1); got != 0 {
		t.Errorf("expected the connection to be unbound, got %d bound", got)
	}
}

func TestHubUnbindPrunesUser(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}

	hub.Bind(conn, 1)
	hub.Unbind(conn)

	if got := hub.Connections(1); got != 0 {
		t.Fatalf("expected 0 connections after unbind, got %d", got)
	}

	// Unbind twice stays safe.
	hub.Unbind(conn)
}
