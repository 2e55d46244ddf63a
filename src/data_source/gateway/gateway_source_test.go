package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"quote-bridge/src/config"
	"quote-bridge/src/helpers"
	"quote-bridge/src/logger"
	"quote-bridge/src/models"
	"quote-bridge/src/network"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway answers like the local RTD gateway.
type fakeGateway struct {
	down  atomic.Bool
	quote atomic.Int32
}

func (g *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/quote" {
		g.quote.Add(1)
	}
	if g.down.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	switch r.URL.Path {
	case "/health":
		w.Write([]byte(`{"status":"ok"}`))
	case "/quote":
		switch r.URL.Query().Get("field") {
		case models.FieldBid:
			w.Write([]byte(`{"value":12.35}`))
		case models.FieldGamma:
			w.Write([]byte(`{"value":null}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newGatewaySource(t *testing.T, url string) *GatewaySource {
	t.Helper()
	cfg := config.Default()
	cfg.Source.Type = "http"
	cfg.Source.BaseURL = url + "/"
	cfg.Source.Breaker.ConsecutiveFailures = 2
	cfg.Source.Breaker.OpenTimeoutMs = 60000

	log := logger.NewWriterLogger("gateway-test", "ERROR", io.Discard)
	return NewGatewaySource(cfg.Source, network.NewAsyncNetworkManager(cfg.MConfig, log), log)
}

func TestGatewaySource_ConnectAndFetch(t *testing.T) {
	gw := &fakeGateway{}
	srv := httptest.NewServer(gw)
	defer srv.Close()

	s := newGatewaySource(t, srv.URL)
	ctx := context.Background()

	_, err := s.Fetch(ctx, ".SPXW250321C5900", models.FieldBid)
	assert.ErrorIs(t, err, helpers.ErrSourceNotConnected)

	require.NoError(t, s.Connect(ctx))

	v, err := s.Fetch(ctx, ".SPXW250321C5900", models.FieldBid)
	require.NoError(t, err)
	assert.Equal(t, 12.35, v)

	_, err = s.Fetch(ctx, ".SPXW250321C5900", models.FieldGamma)
	assert.ErrorIs(t, err, helpers.ErrFieldUnavailable)

	_, err = s.Fetch(ctx, ".SPXW250321C5900", models.FieldVega)
	assert.ErrorIs(t, err, helpers.ErrFieldUnavailable)
}

func TestGatewaySource_ConnectFailure(t *testing.T) {
	gw := &fakeGateway{}
	gw.down.Store(true)
	srv := httptest.NewServer(gw)
	defer srv.Close()

	err := newGatewaySource(t, srv.URL).Connect(context.Background())
	require.Error(t, err)
	assert.True(t, helpers.IsProviderUnavailable(err))
}

func TestGatewaySource_BreakerOpensOnFailures(t *testing.T) {
	gw := &fakeGateway{}
	srv := httptest.NewServer(gw)
	defer srv.Close()

	s := newGatewaySource(t, srv.URL)
	ctx := context.Background()
	require.NoError(t, s.Connect(ctx))

	// Absent fields never trip the breaker.
	for i := 0; i < 5; i++ {
		_, err := s.Fetch(ctx, ".SPXW250321C5900", models.FieldVega)
		assert.ErrorIs(t, err, helpers.ErrFieldUnavailable)
	}

	gw.down.Store(true)
	for i := 0; i < 2; i++ {
		_, err := s.Fetch(ctx, ".SPXW250321C5900", models.FieldBid)
		require.Error(t, err)
		assert.False(t, helpers.IsProviderUnavailable(err))
	}

	before := gw.quote.Load()
	_, err := s.Fetch(ctx, ".SPXW250321C5900", models.FieldBid)
	require.Error(t, err)
	assert.True(t, helpers.IsProviderUnavailable(err))
	assert.Equal(t, before, gw.quote.Load(), "open breaker does not call the gateway")
}
