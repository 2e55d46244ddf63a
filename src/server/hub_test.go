package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// detachedClient has a queue but no connection; enough for the manager.
func detachedClient(queue int) *Client {
	return &Client{ID: "test", send: make(chan []byte, queue)}
}

func TestSessionManager_BroadcastReachesEveryClient(t *testing.T) {
	m := NewSessionManager()
	a, b := detachedClient(4), detachedClient(4)
	m.Add(a)
	m.Add(b)

	pruned := m.Broadcast([]byte("q1"))
	assert.Empty(t, pruned)
	assert.Equal(t, "q1", string(<-a.send))
	assert.Equal(t, "q1", string(<-b.send))
}

func TestSessionManager_SlowClientPrunedOthersServed(t *testing.T) {
	m := NewSessionManager()
	slow, fast := detachedClient(1), detachedClient(4)
	m.Add(slow)
	m.Add(fast)

	require.Empty(t, m.Broadcast([]byte("q1")))
	pruned := m.Broadcast([]byte("q2"))

	require.Len(t, pruned, 1)
	assert.Same(t, slow, pruned[0])
	assert.Equal(t, 1, m.Count())
	assert.False(t, m.Has(slow))

	assert.Equal(t, "q1", string(<-fast.send))
	assert.Equal(t, "q2", string(<-fast.send))

	// Queue of the pruned client is closed after the buffered frame.
	assert.Equal(t, "q1", string(<-slow.send))
	_, open := <-slow.send
	assert.False(t, open)
}

func TestSessionManager_RemoveAndSend(t *testing.T) {
	m := NewSessionManager()
	c := detachedClient(1)

	assert.False(t, m.Remove(c))
	assert.False(t, m.Send(c, []byte("x")))

	m.Add(c)
	m.Add(c)
	assert.Equal(t, 1, m.Count())
	assert.True(t, m.Send(c, []byte("x")))
	assert.False(t, m.Send(c, []byte("y")), "full queue prunes")
	assert.False(t, m.Remove(c))
	assert.Zero(t, m.Count())

	// Closing twice is harmless, offering to a closed client fails.
	c.Close()
	assert.False(t, c.Offer([]byte("z")))
}

func TestSessionManager_CloseAll(t *testing.T) {
	m := NewSessionManager()
	m.Add(detachedClient(1))
	m.Add(detachedClient(1))

	assert.Equal(t, 2, m.CloseAll())
	assert.Zero(t, m.Count())
	assert.Empty(t, m.Broadcast([]byte("x")))
}

func TestClient_NilSafe(t *testing.T) {
	var c *Client
	assert.False(t, c.Offer([]byte("x")))
	c.Close()
}
