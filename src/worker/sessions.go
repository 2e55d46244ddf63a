package worker

import (
	"context"
	"errors"

	"quote-bridge/src/helpers"
	"quote-bridge/src/metrics"
	"quote-bridge/src/models"
	"quote-bridge/src/protocol"
	"quote-bridge/src/server"
	"quote-bridge/src/utils"
)

func (w *Worker) handleSessionEvent(ev server.SessionEvent) {
	switch ev.Kind {
	case server.EventOpened:
		w.sessions.Add(ev.Client)
		w.emitf(models.LogSuccess, "Client connected from %s (session %s)", ev.Client.RemoteAddr, ev.Client.ID)
		w.status(models.WithClientCount(w.sessions.Count()))

		greeting, err := protocol.EncodeGreeting(w.sourceConnected)
		if err != nil {
			w.log.Error("Encode greeting: %v", err)
			return
		}
		w.sendTo(ev.Client, greeting)

	case server.EventMessage:
		if !w.sessions.Has(ev.Client) {
			return
		}
		w.handleClientMessage(ev.Client, ev.Data)

	case server.EventClosed:
		if !w.sessions.Remove(ev.Client) {
			return
		}
		if ev.Err != nil {
			w.emitf(models.LogError, "Client error (session %s): %v", ev.Client.ID, ev.Err)
		}
		w.emitf(models.LogWarning, "Client disconnected from %s (session %s)", ev.Client.RemoteAddr, ev.Client.ID)
		w.status(models.WithClientCount(w.sessions.Count()))

	case server.EventListenerFailed:
		w.emitf(models.LogError, "Server error: %v", ev.Err)
		closed := w.sessions.CloseAll()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := w.server.Stop(ctx); err != nil {
			w.log.Warning("Previous listener shutdown: %v", err)
		}
		cancel()

		update := models.WithServerRunning(false)
		if closed > 0 {
			zero := 0
			update.ClientCount = &zero
		}
		w.status(update)
	}
}

// -----------------------------------------------------------------------------
// Client messages
// -----------------------------------------------------------------------------

func (w *Worker) handleClientMessage(c *server.Client, data []byte) {
	msg, err := protocol.ParseClientMessage(data)
	if err != nil {
		if errors.Is(err, helpers.ErrUnknownMessageType) {
			metrics.ClientMessagesTotal.WithLabelValues("unknown").Inc()
			w.emitf(models.LogWarning, "Ignoring message from %s: %v", c.RemoteAddr, err)
			return
		}
		metrics.ClientMessagesTotal.WithLabelValues("invalid").Inc()
		w.emitf(models.LogError, "Invalid message from client: %v", err)
		return
	}

	switch m := msg.(type) {
	case protocol.Subscribe:
		metrics.ClientMessagesTotal.WithLabelValues(protocol.TypeSubscribe).Inc()
		w.subscribe(c, m.Contract)

	case protocol.Unsubscribe:
		metrics.ClientMessagesTotal.WithLabelValues(protocol.TypeUnsubscribe).Inc()
		if w.registry.Remove(m.Contract) {
			w.emitf(models.LogInfo, "Unsubscribed from %s", utils.EncodeSymbol(w.cfg.SymbolRoot, m.Contract))
			metrics.Subscriptions.Set(float64(w.registry.Count()))
			w.status(models.WithSubscriptionCount(w.registry.Count()))
		}

	case protocol.Ping:
		metrics.ClientMessagesTotal.WithLabelValues(protocol.TypePing).Inc()
		pong, err := protocol.EncodePong()
		if err != nil {
			w.log.Error("Encode pong: %v", err)
			return
		}
		w.sendTo(c, pong)
	}
}

func (w *Worker) subscribe(c *server.Client, contract models.MOptionContract) {
	symbol := w.registry.Put(contract)
	w.emitf(models.LogInfo, "Subscribed to %s", symbol)
	if w.calendar != nil && !w.calendar.IsTradingDay(contract.Expiration) {
		w.emitf(models.LogWarning, "%s expires on %s, which is not a trading day", symbol, contract.ExpirationString())
	}
	metrics.Subscriptions.Set(float64(w.registry.Count()))
	w.status(models.WithSubscriptionCount(w.registry.Count()))

	reply, err := protocol.EncodeSubscribed(models.MSubscription{Contract: contract, Symbol: symbol})
	if err != nil {
		w.log.Error("Encode subscribed reply: %v", err)
		return
	}
	w.sendTo(c, reply)
}

// sendTo queues a direct reply. A client that cannot take it is pruned.
func (w *Worker) sendTo(c *server.Client, msg []byte) {
	if w.sessions.Send(c, msg) {
		return
	}
	if !w.sessions.Has(c) {
		w.reportPruned([]*server.Client{c})
	}
}

func (w *Worker) reportPruned(pruned []*server.Client) {
	if len(pruned) == 0 {
		return
	}
	for _, c := range pruned {
		w.emitf(models.LogWarning, "Dropping slow client %s (session %s)", c.RemoteAddr, c.ID)
	}
	w.status(models.WithClientCount(w.sessions.Count()))
}
