package server

import (
	"quote-bridge/src/metrics"
)

// -----------------------------------------------------------------------------
// Session events (pumps -> worker loop)
// -----------------------------------------------------------------------------

type SessionEventKind int

const (
	EventOpened SessionEventKind = iota
	EventMessage
	EventClosed
	// EventListenerFailed reports that the listener stopped serving on its own.
	EventListenerFailed
)

type SessionEvent struct {
	Kind   SessionEventKind
	Client *Client
	Data   []byte
	Err    error
}

// -----------------------------------------------------------------------------
// SessionManager tracks open clients. Owned by the worker loop, no locking.
// -----------------------------------------------------------------------------

type SessionManager struct {
	clients map[*Client]struct{}
}

func NewSessionManager() *SessionManager {
	return &SessionManager{clients: make(map[*Client]struct{})}
}

func (m *SessionManager) Add(c *Client) {
	if _, ok := m.clients[c]; ok {
		return
	}
	m.clients[c] = struct{}{}
	metrics.OnSessionOpen()
}

// Remove deregisters c and closes its queue. Returns false if c was not
// registered.
func (m *SessionManager) Remove(c *Client) bool {
	return m.drop(c, "closed")
}

func (m *SessionManager) Has(c *Client) bool {
	_, ok := m.clients[c]
	return ok
}

func (m *SessionManager) Count() int {
	return len(m.clients)
}

// Send queues msg for a single client. A full queue prunes the client.
func (m *SessionManager) Send(c *Client, msg []byte) bool {
	if _, ok := m.clients[c]; !ok {
		return false
	}
	if c.Offer(msg) {
		return true
	}
	m.drop(c, "slow")
	return false
}

// Broadcast offers msg to every client and returns the ones pruned because
// their queue was full. One slow client never delays the others.
func (m *SessionManager) Broadcast(msg []byte) []*Client {
	var pruned []*Client
	for c := range m.clients {
		if !c.Offer(msg) {
			pruned = append(pruned, c)
		}
	}
	for _, c := range pruned {
		m.drop(c, "slow")
	}
	return pruned
}

// CloseAll closes every session, used when the listener is replaced or the
// worker shuts down.
func (m *SessionManager) CloseAll() int {
	n := len(m.clients)
	for c := range m.clients {
		m.drop(c, "shutdown")
	}
	return n
}

func (m *SessionManager) drop(c *Client, reason string) bool {
	if _, ok := m.clients[c]; !ok {
		return false
	}
	delete(m.clients, c)
	c.Close()
	metrics.OnSessionClose(reason)
	return true
}
