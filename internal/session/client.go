package session

import (
	"sync"

	"github.com/gorilla/websocket"

	"docsync/internal/metrics"
	"docsync/internal/models"
)

// Client is the handle for one live connection within a room. It is owned by
// its session handler; the hub only tracks membership.
type Client struct {
	ID     string
	UserID string
	RoomID string

	conn *websocket.Conn

	mu     sync.Mutex
	hook   func(models.Outbound)
	closed bool

	queue     chan models.Outbound
	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(conn *websocket.Conn, id, userID, roomID string, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &Client{
		ID:     id,
		UserID: userID,
		RoomID: roomID,
		conn:   conn,
		queue:  make(chan models.Outbound, sendBuffer),
		done:   make(chan struct{}),
	}
}

// SetSendHook replaces the queued WebSocket sender (used in tests).
func (c *Client) SetSendHook(fn func(models.Outbound)) {
	c.mu.Lock()
	c.hook = fn
	c.mu.Unlock()
}

// Send enqueues a frame for the write pump. When the queue is full the oldest
// pending frame is dropped so a slow reader never grows memory without bound.
func (c *Client) Send(frame models.Outbound) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.hook != nil {
		c.hook(frame)
		return
	}
	for {
		select {
		case c.queue <- frame:
			return
		default:
		}
		select {
		case <-c.queue:
			metrics.FramesDropped.Inc()
		default:
		}
	}
}

// WritePump drains the queue onto the connection until Close. A write failure
// closes the connection, which surfaces as a read error in the session loop.
func (c *Client) WritePump() {
	for {
		select {
		case <-c.done:
			return
		case frame := <-c.queue:
			if c.conn == nil {
				continue
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				c.Close()
				return
			}
		}
	}
}

// ReadMessage blocks for the next raw frame from the connection.
func (c *Client) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

// Close is idempotent; a concurrent read error and an explicit close race to
// it safely.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}
