package worker

import (
	"context"
	"time"

	"quote-bridge/src/helpers"
	"quote-bridge/src/models"
)

const connectTimeout = 10 * time.Second

// handleCommand applies one control command. It returns false on quit.
func (w *Worker) handleCommand(ctx context.Context, cmd models.MCommand) bool {
	w.log.Debug("Command received: %s", cmd.Type)

	switch cmd.Type {
	case models.CmdConnectSource:
		w.connectSource(ctx)
	case models.CmdStartServer:
		w.startServer(cmd.Port)
	case models.CmdGetStatus:
		w.status(w.snapshot())
	case models.CmdQuit:
		w.log.Info("Quit requested")
		return false
	default:
		w.log.Warning("Ignoring unknown command %q", cmd.Type)
	}
	return true
}

// -----------------------------------------------------------------------------

func (w *Worker) connectSource(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := w.source.Connect(ctx); err != nil {
		w.sourceConnected = false
		w.emitf(models.LogError, "Failed to connect to %s quote source: %v", w.source.Name(), err)
		w.emit("Make sure the quote provider is running and logged in", models.LogWarning)
		w.status(models.WithSourceConnected(false))
		return
	}

	w.sourceConnected = true
	w.emitf(models.LogSuccess, "Connected to %s quote source", w.source.Name())
	w.status(models.WithSourceConnected(true))
}

// -----------------------------------------------------------------------------

// startServer (re)binds the client listener. Existing sessions are closed
// first so clients reconnect to the new listener.
func (w *Worker) startServer(port int) {
	if w.server.Running() {
		closed := w.sessions.CloseAll()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := w.server.Stop(ctx); err != nil {
			w.log.Warning("Previous listener shutdown: %v", err)
		}
		cancel()
		if closed > 0 {
			w.status(models.WithClientCount(0))
		}
	}

	bound, err := w.server.Start(port)
	if err != nil {
		w.emitf(models.LogError, "Server error: %v", err)
		w.status(models.WithServerRunning(false))
		return
	}

	localIP := w.localIP()
	wsURL := helpers.WebSocketURL(localIP, bound)
	w.emitf(models.LogSuccess, "WebSocket server started on port %d", bound)
	w.emitf(models.LogInfo, "Local URL: %s", helpers.WebSocketURL("localhost", bound))
	w.emitf(models.LogInfo, "Network URL: %s", wsURL)

	running := true
	w.status(models.MStatusUpdate{
		ServerRunning: &running,
		Port:          &bound,
		LocalIP:       &localIP,
		WsURL:         &wsURL,
	})
}
