// Package gateway reads quotes from a local RTD gateway over HTTP:
// GET {base}/health to connect and GET {base}/quote?symbol=&field= per field.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"quote-bridge/src/helpers"
	"quote-bridge/src/interfaces"
	"quote-bridge/src/logger"
	"quote-bridge/src/models"
	"quote-bridge/src/network"

	"github.com/segmentio/encoding/json"
	"github.com/sony/gobreaker/v2"
)

type quoteResponse struct {
	Value *float64 `json:"value"`
}

type GatewaySource struct {
	SourceConfig models.MSourceConfig
	Network      interfaces.INetworkManager
	Logger       *logger.Logger

	baseURL   string
	connected atomic.Bool
	breaker   *gobreaker.CircuitBreaker[float64]
}

// -----------------------------------------------------------------------------

func NewGatewaySource(sourceCfg models.MSourceConfig, netMgr interfaces.INetworkManager, log *logger.Logger) *GatewaySource {
	s := &GatewaySource{
		SourceConfig: sourceCfg,
		Network:      netMgr,
		Logger:       log,
		baseURL:      strings.TrimRight(sourceCfg.BaseURL, "/"),
	}

	rule := sourceCfg.Breaker
	s.breaker = gobreaker.NewCircuitBreaker[float64](gobreaker.Settings{
		Name:        "quote-gateway",
		MaxRequests: rule.HalfOpenRequests,
		Timeout:     time.Duration(rule.OpenTimeoutMs) * time.Millisecond,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return rule.ConsecutiveFailures > 0 && c.ConsecutiveFailures >= rule.ConsecutiveFailures
		},
		IsSuccessful: isSuccessfulForBreaker,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warning("Circuit %s: %s -> %s", name, from, to)
		},
	})
	return s
}

// -----------------------------------------------------------------------------

func (s *GatewaySource) Name() string {
	return "gateway"
}

// -----------------------------------------------------------------------------

// Connect checks the gateway health endpoint.
func (s *GatewaySource) Connect(ctx context.Context) error {
	if _, err := s.Network.Get(ctx, s.baseURL+"/health", nil); err != nil {
		s.connected.Store(false)
		return helpers.NewProviderUnavailable(fmt.Sprintf("quote gateway at %s unreachable", s.baseURL), err)
	}
	s.connected.Store(true)
	s.Logger.Info("Quote gateway reachable at %s", s.baseURL)
	return nil
}

// -----------------------------------------------------------------------------

// Fetch reads one field. While the breaker is open calls fail immediately.
func (s *GatewaySource) Fetch(ctx context.Context, symbol, field string) (float64, error) {
	if !s.connected.Load() {
		return 0, helpers.ErrSourceNotConnected
	}

	v, err := s.breaker.Execute(func() (float64, error) {
		return s.fetch(ctx, symbol, field)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return 0, helpers.NewProviderUnavailable("quote gateway circuit open", err)
	}
	return v, err
}

func (s *GatewaySource) fetch(ctx context.Context, symbol, field string) (float64, error) {
	body, err := s.Network.Get(ctx, s.baseURL+"/quote", map[string]string{
		"symbol": symbol,
		"field":  field,
	})
	if err != nil {
		if network.IsStatus(err, http.StatusNotFound) {
			return 0, helpers.ErrFieldUnavailable
		}
		return 0, err
	}

	var resp quoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decode %s %s: %w", symbol, field, err)
	}
	if resp.Value == nil {
		return 0, helpers.ErrFieldUnavailable
	}
	return *resp.Value, nil
}

// Absent values are answers, not gateway failures.
func isSuccessfulForBreaker(err error) bool {
	return err == nil || errors.Is(err, helpers.ErrFieldUnavailable)
}
