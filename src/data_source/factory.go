// Package data_source selects the quote source configured for the worker.
package data_source

import (
	"fmt"

	"quote-bridge/src/data_source/gateway"
	"quote-bridge/src/data_source/sim"
	"quote-bridge/src/interfaces"
	"quote-bridge/src/logger"
	"quote-bridge/src/models"
	"quote-bridge/src/network"
)

const (
	SourceSim  = "sim"
	SourceHTTP = "http"
)

// NewQuoteSource builds the source named by cfg.Source.Type.
func NewQuoteSource(cfg *models.MConfig, log *logger.Logger) (interfaces.IQuoteSource, error) {
	switch cfg.Source.Type {
	case SourceSim, "":
		return sim.NewSimSource(), nil
	case SourceHTTP:
		netMgr := network.NewAsyncNetworkManager(cfg, log.Named("network"))
		return gateway.NewGatewaySource(cfg.Source, netMgr, log.Named("gateway")), nil
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Source.Type)
	}
}
