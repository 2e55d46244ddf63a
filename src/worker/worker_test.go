package worker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"quote-bridge/src/models"
	"quote-bridge/src/server"

	"github.com/gorilla/websocket"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Type            string              `json:"type"`
	Symbol          string              `json:"symbol"`
	SourceConnected bool                `json:"sourceConnected"`
	Data            models.MQuoteSample `json:"data"`
}

// readUntil reads frames until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var f frame
		require.NoError(t, json.Unmarshal(data, &f))
		if f.Type == typ {
			return f
		}
	}
}

func startWorker(t *testing.T, src *fakeSource) (*Worker, *fakeUpstream, chan models.MCommand, <-chan error) {
	t.Helper()
	w, up := newTestWorker(t, src)
	commands := make(chan models.MCommand, 8)
	errc := make(chan error, 1)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { errc <- w.Run(ctx, commands) }()
	return w, up, commands, errc
}

func TestWorker_TwoClientsShareSubscription(t *testing.T) {
	src := newFakeSource()
	src.set(models.FieldBid, 1.5)
	src.set(models.FieldAsk, 1.7)
	_, up, commands, errc := startWorker(t, src)

	commands <- models.MCommand{Type: models.CmdConnectSource}
	commands <- models.MCommand{Type: models.CmdStartServer, Port: 0}

	require.Eventually(t, func() bool {
		s := up.Snapshot()
		return s.ServerRunning && s.SourceConnected && s.Port != 0
	}, 3*time.Second, 10*time.Millisecond)

	status := up.Snapshot()
	assert.Equal(t, fmt.Sprintf("ws://127.0.0.1:%d", status.Port), status.WsURL)
	assert.Equal(t, "127.0.0.1", status.LocalIP)
	url := fmt.Sprintf("ws://127.0.0.1:%d/", status.Port)

	a, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer a.Close()
	b, _, err := websocket.DefaultDialer.Dial(url+"ws", nil)
	require.NoError(t, err)
	defer b.Close()

	assert.True(t, readUntil(t, a, "status").SourceConnected)
	assert.True(t, readUntil(t, b, "status").SourceConnected)

	sub := []byte(`{"type":"subscribe","expiration":"2025-03-21","strike":5900,"optionType":"CALL"}`)
	require.NoError(t, a.WriteMessage(websocket.TextMessage, sub))
	assert.Equal(t, ".SPXW250321C5900", readUntil(t, a, "subscribed").Symbol)
	require.NoError(t, b.WriteMessage(websocket.TextMessage, sub))
	assert.Equal(t, ".SPXW250321C5900", readUntil(t, b, "subscribed").Symbol)

	for _, c := range []*websocket.Conn{a, b} {
		q := readUntil(t, c, "quote")
		assert.Equal(t, ".SPXW250321C5900", q.Data.Symbol)
		assert.Equal(t, 1.5, q.Data.Bid)
	}

	// One client leaving keeps the subscription and the other client's feed.
	require.NoError(t, a.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	a.Close()
	require.Eventually(t, func() bool { return up.Snapshot().ClientCount == 1 }, 3*time.Second, 10*time.Millisecond)

	for i := 0; i < 3; i++ {
		assert.Equal(t, 1.5, readUntil(t, b, "quote").Data.Bid)
	}

	commands <- models.MCommand{Type: models.CmdGetStatus}
	require.Eventually(t, func() bool {
		s := up.Snapshot()
		return s.SubscriptionCount == 1 && s.ClientCount == 1
	}, 3*time.Second, 10*time.Millisecond)

	commands <- models.MCommand{Type: models.CmdQuit}
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("worker did not quit")
	}
}

func TestWorker_ConnectFailureReported(t *testing.T) {
	src := newFakeSource()
	src.connectErr = fmt.Errorf("gateway down")
	_, up, commands, errc := startWorker(t, src)

	commands <- models.MCommand{Type: models.CmdConnectSource}
	close(commands)

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("worker did not stop on closed command channel")
	}
	assert.True(t, up.HasLog(models.LogError, "gateway down"))
	assert.True(t, up.HasLog(models.LogWarning, "Make sure the quote provider is running"))
	assert.False(t, up.Snapshot().SourceConnected)
	assert.Equal(t, 1, up.Updates())
}

func TestWorker_RestartListenerClosesSessions(t *testing.T) {
	_, up, commands, _ := startWorker(t, newFakeSource())

	commands <- models.MCommand{Type: models.CmdStartServer, Port: 0}
	require.Eventually(t, func() bool { return up.Snapshot().Port != 0 }, 3*time.Second, 10*time.Millisecond)
	first := up.Snapshot().Port

	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://127.0.0.1:%d/ws", first), nil)
	require.NoError(t, err)
	defer conn.Close()
	readUntil(t, conn, "status")
	require.Eventually(t, func() bool { return up.Snapshot().ClientCount == 1 }, 3*time.Second, 10*time.Millisecond)

	commands <- models.MCommand{Type: models.CmdStartServer, Port: 0}
	require.Eventually(t, func() bool {
		s := up.Snapshot()
		return s.ClientCount == 0 && s.ServerRunning
	}, 3*time.Second, 10*time.Millisecond)

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var readErr error
	for readErr == nil {
		_, _, readErr = conn.ReadMessage()
	}
	assert.True(t, websocket.IsCloseError(readErr, websocket.CloseNormalClosure), "got %v", readErr)
}

func TestWorker_StartServerOnBusyPortReportsFailure(t *testing.T) {
	held, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer held.Close()
	port := held.Addr().(*net.TCPAddr).Port

	_, up, commands, _ := startWorker(t, newFakeSource())
	commands <- models.MCommand{Type: models.CmdStartServer, Port: port}

	require.Eventually(t, func() bool { return up.Updates() == 1 }, 3*time.Second, 10*time.Millisecond)
	update := up.LastUpdate()
	require.NotNil(t, update.ServerRunning)
	assert.False(t, *update.ServerRunning)
	assert.Nil(t, update.Port)
	assert.True(t, up.HasLog(models.LogError, fmt.Sprintf("Server error: failed to listen on 127.0.0.1:%d", port)))
	assert.False(t, up.Snapshot().ServerRunning)
}

func TestWorker_ListenerFailureClosesSessions(t *testing.T) {
	w, up := newTestWorker(t, newFakeSource())
	_, err := w.server.Start(0)
	require.NoError(t, err)
	t.Cleanup(func() { w.server.Stop(context.Background()) })

	c := server.NewClient(nil, "10.0.0.5")
	w.handleSessionEvent(server.SessionEvent{Kind: server.EventOpened, Client: c})
	require.Equal(t, 1, up.Snapshot().ClientCount)

	w.handleSessionEvent(server.SessionEvent{Kind: server.EventListenerFailed, Err: errors.New("accept tcp: too many open files")})

	assert.False(t, w.server.Running())
	assert.Zero(t, w.sessions.Count())
	assert.True(t, up.HasLog(models.LogError, "Server error: accept tcp: too many open files"))

	update := up.LastUpdate()
	require.NotNil(t, update.ServerRunning)
	assert.False(t, *update.ServerRunning)
	require.NotNil(t, update.ClientCount)
	assert.Zero(t, *update.ClientCount)

	// The session queue was closed
	_, open := <-c.Outbox()
	for open {
		_, open = <-c.Outbox()
	}
}
