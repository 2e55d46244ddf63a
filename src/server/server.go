package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"quote-bridge/src/helpers"
	"quote-bridge/src/logger"
	"quote-bridge/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthReport is published by the worker loop and served on /api/health.
type HealthReport struct {
	Status          string `json:"status"`
	Connections     int    `json:"connections"`
	Subscriptions   int    `json:"subscriptions"`
	SourceConnected bool   `json:"sourceConnected"`
}

// -----------------------------------------------------------------------------
// BridgeServer
// -----------------------------------------------------------------------------

// BridgeServer owns the client listener. Accepted sessions and their
// messages are handed to the worker loop through the events channel.
type BridgeServer struct {
	Config *models.MConfig
	Logger *logger.Logger
	engine *gin.Engine

	events chan<- SessionEvent
	done   <-chan struct{}
	health atomic.Pointer[HealthReport]

	mu         sync.Mutex
	httpServer *http.Server
	port       int
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewBridgeServer(cfg *models.MConfig, log *logger.Logger, events chan<- SessionEvent, done <-chan struct{}) *BridgeServer {
	// Never let gin print to stdout, it carries the control channel
	gin.SetMode(gin.ReleaseMode)

	s := &BridgeServer{
		Config: cfg,
		Logger: log,
		engine: gin.New(),
		events: events,
		done:   done,
	}
	s.health.Store(&HealthReport{Status: "ok"})

	s.engine.Use(gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, err any) {
		s.Logger.Error("Handler panic on %s: %v", c.Request.URL.Path, err)
		c.AbortWithStatus(http.StatusInternalServerError)
	}))

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *BridgeServer) setupRoutes() {
	// WebSocket endpoints, clients may connect to the bare host
	s.engine.GET("/", s.handleWebSocket)
	s.engine.GET("/ws", s.handleWebSocket)

	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Handler exposes the engine for tests.
func (s *BridgeServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start binds host:port and serves in the background. It returns the bound
// port, which differs from port when port is 0. A running listener must be
// stopped first.
func (s *BridgeServer) Start(port int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return 0, fmt.Errorf("listener already running on port %d", s.port)
	}

	addr := net.JoinHostPort(s.Config.Host, strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return 0, helpers.NewTransportError(fmt.Sprintf("failed to listen on %s", addr), err)
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.httpServer = srv
	s.port = ln.Addr().(*net.TCPAddr).Port

	go func() {
		err := srv.Serve(ln)
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return
		}
		select {
		case s.events <- SessionEvent{Kind: EventListenerFailed, Err: err}:
		case <-s.done:
		}
	}()

	return s.port, nil
}

// -----------------------------------------------------------------------------

// Stop closes the listener. Hijacked websocket connections are not touched;
// the loop closes them through the SessionManager.
func (s *BridgeServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.port = 0
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *BridgeServer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.httpServer != nil
}

func (s *BridgeServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// PublishHealth replaces the report served on /api/health.
func (s *BridgeServer) PublishHealth(r HealthReport) {
	r.Status = "ok"
	s.health.Store(&r)
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *BridgeServer) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, s.health.Load())
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *BridgeServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Debug("Failed to upgrade websocket from %s: %v", c.ClientIP(), err)
		return
	}

	client := NewClient(conn, c.ClientIP())

	// The loop registers the client before any of its messages arrive
	select {
	case s.events <- SessionEvent{Kind: EventOpened, Client: client}:
	case <-s.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(s.events, s.done)
}
