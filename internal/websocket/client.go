package websocket

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
	"github.com/nfrund/relay/internal/domain"
)

// Client represents a single connected WebSocket client.
type Client struct {
	ID   domain.ClientID
	Conn *websocket.Conn
	send chan []byte
	mu   sync.RWMutex
}

func newClient(id domain.ClientID, conn *websocket.Conn, buffer int) *Client {
	return &Client{
		ID:   id,
		Conn: conn,
		send: make(chan []byte, buffer),
	}
}

// SendMessage queues msg for the write pump without blocking. It reports
// false when the client is closed or its buffer is full.
func (c *Client) SendMessage(msg []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// A nil channel means the client is disconnected.
	if c.send == nil {
		return false
	}

	select {
	case c.send <- msg:
		return true
	default:
		slog.Warn("Client send channel full, dropping message", "client_id", c.ID)
		return false
	}
}

// Close closes the send channel, which stops the write pump.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.send != nil {
		close(c.send)
		c.send = nil
	}
}

func (c *Client) outbound() <-chan []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.send
}
