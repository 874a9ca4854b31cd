package notify

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/expenso-dev/expenso/internal/types"
)

// overlapConn counts writers inside a write call; any overlap means two
// goroutines reached the transport at once, which gorilla forbids.
type overlapConn struct {
	active   int32
	overlaps int32
	writes   int32
	pings    int32
}

func (c *overlapConn) enter() {
	if atomic.AddInt32(&c.active, 1) != 1 {
		atomic.AddInt32(&c.overlaps, 1)
	}
	runtime.Gosched()
}

func (c *overlapConn) exit() {
	atomic.AddInt32(&c.active, -1)
}

func (c *overlapConn) WriteJSON(v interface{}) error {
	c.enter()
	defer c.exit()
	atomic.AddInt32(&c.writes, 1)
	return nil
}

func (c *overlapConn) WriteMessage(messageType int, data []byte) error {
	c.enter()
	defer c.exit()
	atomic.AddInt32(&c.pings, 1)
	return nil
}

func (c *overlapConn) SetWriteDeadline(t time.Time) error {
	c.enter()
	defer c.exit()
	return nil
}

func (c *overlapConn) Close() error { return nil }

func TestSyncConnSerializesWriters(t *testing.T) {
	raw := &overlapConn{}
	conn := NewSyncConn(raw)

	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := conn.WriteJSON(types.PushEvent{Event: "e"}); err != nil {
				t.Errorf("write failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if err := conn.Ping(time.Now().Add(time.Second)); err != nil {
				t.Errorf("ping failed: %v", err)
			}
		}()
	}

	wg.Wait()

	if got := atomic.LoadInt32(&raw.overlaps); got != 0 {
		t.Fatalf("detected %d overlapping writes", got)
	}
	if got := atomic.LoadInt32(&raw.writes); got != 32 {
		t.Errorf("expected 32 JSON writes, got %d", got)
	}
	if got := atomic.LoadInt32(&raw.pings); got != 32 {
		t.Errorf("expected 32 pings, got %d", got)
	}
}

// Two tabs publishing at once must not race on a shared connection: every
// delivery to one bound connection goes through its lock.
func TestHubDeliverSerializesPerConnection(t *testing.T) {
	raw := &overlapConn{}
	hub := NewHub()
	hub.Bind(NewSyncConn(raw), 1)

	event := types.EventName(types.CategoryExpense, types.ActionCreated)

	var wg sync.WaitGroup

	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			hub.Deliver(1, event, types.NotificationPayload{ID: id})
		}(uint(i + 1))
	}

	wg.Wait()

	if got := atomic.LoadInt32(&raw.overlaps); got != 0 {
		t.Fatalf("detected %d overlapping writes", got)
	}
	if got := atomic.LoadInt32(&raw.writes); got != 64 {
		t.Errorf("expected 64 deliveries, got %d", got)
	}
	if got := hub.Connections(1); got != 1 {
		t.Errorf("expected the connection to stay bound, got %d", got)
	}
}
