// Package worker runs the quote distribution loop: one goroutine owns the
// subscription registry, the client sessions and the source connectivity.
package worker

import (
	"context"
	"fmt"
	"time"

	"quote-bridge/src/config"
	"quote-bridge/src/helpers"
	"quote-bridge/src/interfaces"
	"quote-bridge/src/logger"
	"quote-bridge/src/models"
	"quote-bridge/src/server"
	"quote-bridge/src/subscription"
	"quote-bridge/src/utils"
)

const (
	eventQueueSize  = 64
	shutdownTimeout = 2 * time.Second
)

// Worker is the state owned by the event loop. Only Run and the handlers it
// calls touch the fields below.
type Worker struct {
	cfg      *config.Config
	log      *logger.Logger
	source   interfaces.IQuoteSource
	upstream interfaces.IUpstream
	calendar *utils.TradingCalendar

	registry *subscription.Registry
	sessions *server.SessionManager
	server   *server.BridgeServer
	events   chan server.SessionEvent
	done     chan struct{}

	sourceConnected bool
	now             func() time.Time
	localIP         func() string
}

func New(cfg *config.Config, log *logger.Logger, source interfaces.IQuoteSource, upstream interfaces.IUpstream) *Worker {
	events := make(chan server.SessionEvent, eventQueueSize)
	done := make(chan struct{})

	return &Worker{
		cfg:      cfg,
		log:      log,
		source:   source,
		upstream: upstream,
		calendar: utils.GetCalendar("xnys"),
		registry: subscription.NewRegistry(cfg.SymbolRoot),
		sessions: server.NewSessionManager(),
		server:   server.NewBridgeServer(cfg.MConfig, log.Named("server"), events, done),
		events:   events,
		done:     done,
		now:      time.Now,
		localIP:  helpers.GetLocalIP,
	}
}

// -----------------------------------------------------------------------------
// Event loop
// -----------------------------------------------------------------------------

// Run multiplexes the poll ticker, session events and control commands until
// ctx is cancelled, a quit command arrives or commands is closed.
func (w *Worker) Run(ctx context.Context, commands <-chan models.MCommand) error {
	defer close(w.done)
	defer w.shutdown()

	ticker := time.NewTicker(w.cfg.PollInterval())
	defer ticker.Stop()

	w.log.Info("Worker loop started (source=%s, poll=%s)", w.source.Name(), w.cfg.PollInterval())

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop cancelled")
			return nil

		case cmd, ok := <-commands:
			if !ok {
				w.log.Info("Control channel closed, shutting down")
				return nil
			}
			if !w.handleCommand(ctx, cmd) {
				return nil
			}

		case ev := <-w.events:
			w.handleSessionEvent(ev)

		case <-ticker.C:
			w.pollAndBroadcast(ctx)
		}
	}
}

func (w *Worker) shutdown() {
	closed := w.sessions.CloseAll()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := w.server.Stop(ctx); err != nil {
		w.log.Warning("Listener shutdown: %v", err)
	}
	w.log.Info("Worker stopped (%d sessions closed)", closed)
}

// -----------------------------------------------------------------------------
// Status helpers
// -----------------------------------------------------------------------------

func (w *Worker) emit(message string, logType models.LogType) {
	w.log.Log(logType, "%s", message)
	w.upstream.Log(message, logType)
}

func (w *Worker) emitf(logType models.LogType, format string, args ...interface{}) {
	w.emit(fmt.Sprintf(format, args...), logType)
}

func (w *Worker) status(update models.MStatusUpdate) {
	w.upstream.Status(update)
	w.publishHealth()
}

func (w *Worker) publishHealth() {
	w.server.PublishHealth(server.HealthReport{
		Connections:     w.sessions.Count(),
		Subscriptions:   w.registry.Count(),
		SourceConnected: w.sourceConnected,
	})
}

// snapshot answers get-status.
func (w *Worker) snapshot() models.MStatusUpdate {
	source, running := w.sourceConnected, w.server.Running()
	clients, subs := w.sessions.Count(), w.registry.Count()
	return models.MStatusUpdate{
		SourceConnected:   &source,
		ServerRunning:     &running,
		ClientCount:       &clients,
		SubscriptionCount: &subs,
	}
}
