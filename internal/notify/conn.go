package notify

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the slice of a websocket connection the hub needs. Satisfied by
// SyncConn; tests substitute fakes.
type Conn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// wireConn is what SyncConn requires of the underlying transport,
// satisfied by *websocket.Conn.
type wireConn interface {
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// SyncConn serializes all writes to one websocket connection. gorilla
// allows at most one concurrent writer per connection, and a bound
// connection is written to from several goroutines: the handler's welcome
// message, the keepalive pings and hub deliveries triggered by concurrent
// requests. Every write path must go through the same SyncConn.
type SyncConn struct {
	mu   sync.Mutex
	conn wireConn
}

func NewSyncConn(conn wireConn) *SyncConn {
	return &SyncConn{conn: conn}
}

func (c *SyncConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Ping sends a keepalive control frame with the given write deadline.
func (c *SyncConn) Ping(deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

func (c *SyncConn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.SetWriteDeadline(t)
}

func (c *SyncConn) Close() error {
	return c.conn.Close()
}
