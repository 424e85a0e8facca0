package websocket

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"stakemarket/internal/domain/entity"
	"stakemarket/pkg/logger"
)

// Conn is the subset of *websocket.Conn the client uses; tests substitute a
// fake.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one live connection. The read pump feeds inbound envelopes into
// a per-connection channel; a dispatch loop owned by the gateway drains it,
// keeping transport and business logic apart.
type Client struct {
	SocketID  string
	Principal entity.Principal
	Conn      Conn

	Send    chan []byte
	Inbound chan Envelope

	mu     sync.Mutex
	closed bool
}

func NewClient(socketID string, principal entity.Principal, conn Conn) *Client {
	return &Client{
		SocketID:  socketID,
		Principal: principal,
		Conn:      conn,
		Send:      make(chan []byte, 256),
		Inbound:   make(chan Envelope, 64),
	}
}

// ReadPump reads frames until the connection drops, handing each decoded
// envelope to the dispatch loop. Malformed frames are logged and dropped.
func (c *Client) ReadPump(hub *Hub) {
	defer func() {
		hub.RemoveClient(c)
		c.Close()
		close(c.Inbound)
	}()

	for {
		_, frame, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("Read error on socket %s: %v", c.SocketID, err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(frame, &env); err != nil || env.Event == "" {
			logger.Warn("Malformed frame from socket %s dropped", c.SocketID)
			continue
		}

		c.Inbound <- env
	}
}

// WritePump drains the send channel onto the wire.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for frame := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			logger.Warn("Write error on socket %s: %v", c.SocketID, err)
			return
		}
	}
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// enqueue drops the frame if the client is closed or its send buffer is
// full rather than blocking a broadcast on one slow consumer.
func (c *Client) enqueue(frame []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- frame:
	default:
		logger.Warn("Send buffer full for socket %s, dropping frame", c.SocketID)
	}
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	c.Conn.Close()
}
