package server

import (
	"time"

	"quote-bridge/src/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	writeWait      = 2 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendQueueSize  = 256
)

// -----------------------------------------------------------------------------
// Client Structure
// -----------------------------------------------------------------------------

// Client is one connected websocket session. The send queue and the closed
// flag belong to the worker loop; the pumps only read from them.
type Client struct {
	ID         string
	RemoteAddr string

	conn   *websocket.Conn
	send   chan []byte
	closed bool
}

// NewClient wraps an upgraded connection. The pumps are started by the
// server; a client built without a connection only exposes its queue.
func NewClient(conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		ID:         uuid.NewString(),
		RemoteAddr: remoteAddr,
		conn:       conn,
		send:       make(chan []byte, sendQueueSize),
	}
}

// Outbox exposes the send queue to readers other than the write pump.
func (c *Client) Outbox() <-chan []byte {
	return c.send
}

// Offer queues msg without blocking. It returns false if the queue is full
// or the client is already closed.
func (c *Client) Offer(msg []byte) bool {
	if c == nil || c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Close ends the write pump, which sends a close frame and drops the
// connection. Safe to call more than once.
func (c *Client) Close() {
	if c == nil || c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// -----------------------------------------------------------------------------
// readPump - forwards incoming frames to the worker loop
// Act as a Watchdog for the connection
// -----------------------------------------------------------------------------

func (c *Client) readPump(events chan<- SessionEvent, done <-chan struct{}) {
	var cause error
	defer func() {
		c.conn.Close()
		select {
		case events <- SessionEvent{Kind: EventClosed, Client: c, Err: cause}:
		case <-done:
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				cause = err
			}
			return
		}

		select {
		case events <- SessionEvent{Kind: EventMessage, Client: c, Data: message}:
		case <-done:
			return
		}
	}
}

// -----------------------------------------------------------------------------
// writePump - sends queued frames to the client
// -----------------------------------------------------------------------------

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Loop closed the queue
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			err := c.conn.WriteMessage(websocket.TextMessage, message)
			metrics.ObserveWrite(len(message), err)
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
