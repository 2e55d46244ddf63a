package worker

import (
	"context"
	"testing"
	"time"

	"quote-bridge/src/models"
	"quote-bridge/src/server"

	"github.com/segmentio/encoding/json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spxContract(t *testing.T) models.MOptionContract {
	t.Helper()
	exp, err := time.Parse(models.ExpirationLayout, "2025-03-21")
	require.NoError(t, err)
	return models.MOptionContract{Expiration: exp, Strike: decimal.NewFromInt(5900), OptionType: models.OptionCall}
}

type quoteFrame struct {
	Type string              `json:"type"`
	Data models.MQuoteSample `json:"data"`
}

func TestPoll_ZeroClientsMeansZeroProviderCalls(t *testing.T) {
	src := newFakeSource()
	src.set(models.FieldBid, 1)
	w, _ := newTestWorker(t, src)
	w.sourceConnected = true
	w.registry.Put(spxContract(t))

	w.pollAndBroadcast(context.Background())

	assert.Zero(t, src.Calls())
}

func TestPoll_NoOpWhenDisconnectedOrEmpty(t *testing.T) {
	src := newFakeSource()
	w, _ := newTestWorker(t, src)
	w.sessions.Add(server.NewClient(nil, "test"))

	w.registry.Put(spxContract(t))
	w.pollAndBroadcast(context.Background())
	assert.Zero(t, src.Calls(), "source not connected")

	w.sourceConnected = true
	w.registry.Remove(spxContract(t))
	w.pollAndBroadcast(context.Background())
	assert.Zero(t, src.Calls(), "no subscriptions")
}

func TestPoll_AllZeroSampleSuppressed(t *testing.T) {
	src := newFakeSource()
	src.set(models.FieldDelta, 0.45)
	w, _ := newTestWorker(t, src)
	w.sourceConnected = true
	w.registry.Put(spxContract(t))
	client := server.NewClient(nil, "test")
	w.sessions.Add(client)

	w.pollAndBroadcast(context.Background())

	assert.Equal(t, len(quoteFields), src.Calls())
	assert.Empty(t, client.Outbox())
}

func TestPoll_BroadcastsSample(t *testing.T) {
	src := newFakeSource()
	src.set(models.FieldBid, 12.5)
	src.set(models.FieldAsk, 12.9)
	src.set(models.FieldVolume, 1234.9)
	src.set(models.FieldImplVol, 0.18)
	src.failing[models.FieldDelta] = true

	w, _ := newTestWorker(t, src)
	w.now = func() time.Time { return time.UnixMilli(1742572800000) }
	w.sourceConnected = true
	w.registry.Put(spxContract(t))
	a, b := server.NewClient(nil, "a"), server.NewClient(nil, "b")
	w.sessions.Add(a)
	w.sessions.Add(b)

	w.pollAndBroadcast(context.Background())

	for _, c := range []*server.Client{a, b} {
		require.Len(t, c.Outbox(), 1)
		var frame quoteFrame
		require.NoError(t, json.Unmarshal(<-c.Outbox(), &frame))
		assert.Equal(t, "quote", frame.Type)
		assert.Equal(t, ".SPXW250321C5900", frame.Data.Symbol)
		assert.Equal(t, "2025-03-21", frame.Data.Expiration)
		assert.Equal(t, 12.5, frame.Data.Bid)
		assert.Equal(t, 12.9, frame.Data.Ask)
		assert.Zero(t, frame.Data.Last)
		assert.Equal(t, int64(1234), frame.Data.Volume)
		assert.Zero(t, frame.Data.Delta, "failed field reads as zero")
		assert.Equal(t, 0.18, frame.Data.IV)
		assert.Equal(t, int64(1742572800000), frame.Data.Timestamp)
	}
}

func TestPoll_FieldTimeoutBoundsStalledProvider(t *testing.T) {
	src := newFakeSource()
	src.set(models.FieldLast, 3)
	src.blocking[models.FieldGamma] = true

	w, _ := newTestWorker(t, src)
	w.cfg.Source.FieldTimeoutMs = 10
	w.sourceConnected = true
	w.registry.Put(spxContract(t))
	client := server.NewClient(nil, "test")
	w.sessions.Add(client)

	start := time.Now()
	w.pollAndBroadcast(context.Background())

	assert.Less(t, time.Since(start), time.Second)
	assert.Len(t, client.Outbox(), 1)
}

func TestPoll_SlowClientPrunedOthersServed(t *testing.T) {
	src := newFakeSource()
	src.set(models.FieldBid, 1)
	w, up := newTestWorker(t, src)
	w.sourceConnected = true
	w.registry.Put(spxContract(t))

	healthy := server.NewClient(nil, "healthy")
	slow := server.NewClient(nil, "slow")
	w.sessions.Add(healthy)
	w.sessions.Add(slow)
	for slow.Offer([]byte("filler")) {
	}

	w.pollAndBroadcast(context.Background())

	assert.Len(t, healthy.Outbox(), 1)
	assert.Equal(t, 1, w.sessions.Count())
	assert.True(t, up.HasLog(models.LogWarning, "Dropping slow client slow (session "+slow.ID+")"))
	assert.Equal(t, 1, up.Snapshot().ClientCount)
}
