// Package control_api exposes the supervisor to the presentation layer over
// HTTP: status, worker commands, log history and a live event stream.
package control_api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"quote-bridge/src/config"
	"quote-bridge/src/helpers"
	"quote-bridge/src/interfaces"
	"quote-bridge/src/logger"
	"quote-bridge/src/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultLogLimit = 100
	maxLogLimit     = 1000
)

// ControlService serves the supervisor command surface.
type ControlService struct {
	Config     *config.Config
	Controller interfaces.IWorkerController
	Feed       *LogFeed
	Journal    interfaces.IJournal
	Logger     *logger.Logger

	engine *gin.Engine
}

// NewControlService creates a new instance of ControlService
func NewControlService(
	cfg *config.Config,
	ctrl interfaces.IWorkerController,
	feed *LogFeed,
	journal interfaces.IJournal,
	log *logger.Logger,
) *ControlService {
	gin.SetMode(gin.ReleaseMode)

	s := &ControlService{
		Config:     cfg,
		Controller: ctrl,
		Feed:       feed,
		Journal:    journal,
		Logger:     log,
		engine:     gin.New(),
	}
	s.engine.Use(gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, err any) {
		s.Logger.Error("API panic on %s: %v", c.Request.URL.Path, err)
		c.AbortWithStatus(http.StatusInternalServerError)
	}))
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------

func (s *ControlService) setupRoutes() {
	api := s.engine.Group("/api")

	api.GET("/health", s.handleHealth)
	api.GET("/status", s.handleStatus)
	api.GET("/subscriptions", s.handleSubscriptions)
	api.GET("/logs", s.handleLogs)
	api.GET("/events", s.handleEvents)

	api.POST("/source/connect", s.handleConnectSource)
	api.POST("/server/start", s.handleStartServer)

	api.POST("/worker/start", s.handleWorkerStart)
	api.POST("/worker/stop", s.handleWorkerStop)
	api.POST("/worker/restart", s.handleWorkerRestart)
	api.GET("/worker/lifecycle", s.handleLifecycle)

	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Handler exposes the engine, mostly for tests.
func (s *ControlService) Handler() http.Handler {
	return s.engine
}

// Run serves the API until ctx is cancelled.
func (s *ControlService) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.Config.Supervisor.APIHost, strconv.Itoa(s.Config.Supervisor.APIPort))
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return helpers.NewTransportError(fmt.Sprintf("failed to listen on %s", addr), err)
	}

	srv := &http.Server{Handler: s.engine, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(lis) }()

	s.Logger.Info("Control API listening on http://%s", lis.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// -----------------------------------------------------------------------------
// Queries
// -----------------------------------------------------------------------------

type statusResponse struct {
	Worker string `json:"worker"`
	models.MStatusSnapshot
}

func (s *ControlService) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"worker": s.Controller.WorkerState(),
	})
}

func (s *ControlService) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponse{
		Worker:          s.Controller.WorkerState(),
		MStatusSnapshot: s.Controller.GetStatus(),
	})
}

// Listing live subscriptions is not part of the control channel.
func (s *ControlService) handleSubscriptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"supported":     false,
		"subscriptions": []string{},
	})
}

func (s *ControlService) handleLogs(c *gin.Context) {
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": s.Feed.Recent(limit)})
}

func (s *ControlService) handleLifecycle(c *gin.Context) {
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if s.Journal == nil {
		c.JSON(http.StatusOK, gin.H{"events": []models.MLifecycleEvent{}})
		return
	}

	events, err := s.Journal.RecentLifecycle(limit)
	if err != nil {
		s.Logger.Error("Failed to read lifecycle events: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "journal unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// handleEvents streams log and status events as server-sent events.
func (s *ControlService) handleEvents(c *gin.Context) {
	events, stop := s.Feed.Listen()
	defer stop()

	c.SSEvent("status", statusResponse{
		Worker:          s.Controller.WorkerState(),
		MStatusSnapshot: s.Controller.GetStatus(),
	})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ev := <-events:
			c.SSEvent(ev.Kind, ev)
			return true
		}
	})
}

// -----------------------------------------------------------------------------
// Commands
// -----------------------------------------------------------------------------

func (s *ControlService) handleConnectSource(c *gin.Context) {
	s.respondCommand(c, "connect-source", s.Controller.ConnectSource())
}

type startServerRequest struct {
	Port int `json:"port"`
}

func (s *ControlService) handleStartServer(c *gin.Context) {
	var req startServerRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	if req.Port < 0 || req.Port > 65535 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid port %d", req.Port)})
		return
	}
	s.respondCommand(c, "start-server", s.Controller.StartServer(req.Port))
}

func (s *ControlService) handleWorkerStart(c *gin.Context) {
	ctx, cancel := s.lifecycleContext(c)
	defer cancel()
	s.respondLifecycle(c, "start", s.Controller.Start(ctx))
}

func (s *ControlService) handleWorkerStop(c *gin.Context) {
	ctx, cancel := s.lifecycleContext(c)
	defer cancel()
	s.respondLifecycle(c, "stop", s.Controller.Stop(ctx))
}

func (s *ControlService) handleWorkerRestart(c *gin.Context) {
	ctx, cancel := s.lifecycleContext(c)
	defer cancel()
	s.respondLifecycle(c, "restart", s.Controller.Restart(ctx))
}

// lifecycleContext outlives the request: a client hanging up mid-restart
// must not turn a graceful stop into a kill.
func (s *ControlService) lifecycleContext(c *gin.Context) (context.Context, context.CancelFunc) {
	budget := 2*s.Config.GracePeriod() + s.Config.RespawnDelay() + 5*time.Second
	return context.WithTimeout(context.WithoutCancel(c.Request.Context()), budget)
}

func (s *ControlService) respondCommand(c *gin.Context, name string, err error) {
	if err != nil {
		s.Logger.Warning("Command %s failed: %v", name, err)
		c.JSON(errorStatus(err), gin.H{"accepted": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}

func (s *ControlService) respondLifecycle(c *gin.Context, name string, err error) {
	if err != nil {
		s.Logger.Error("Worker %s failed: %v", name, err)
		c.JSON(errorStatus(err), gin.H{"success": false, "error": err.Error(), "worker": s.Controller.WorkerState()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "worker": s.Controller.WorkerState()})
}

// -----------------------------------------------------------------------------

func errorStatus(err error) int {
	var procErr *helpers.ProcessFailureError
	switch {
	case errors.Is(err, helpers.ErrWorkerNotRunning):
		return http.StatusConflict
	case errors.As(err, &procErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultLogLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	if n > maxLogLimit {
		n = maxLogLimit
	}
	return n, nil
}
