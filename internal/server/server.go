package server

import (
	"log/slog"
	"net/http"
	"sync"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"

	"github.com/kode4food/waypost/internal/monitor"
	"github.com/kode4food/waypost/pkg/catalog"
)

// Server implements the HTTP API over the monitor's session views
type Server struct {
	mon     *monitor.Monitor
	reg     *catalog.Registry
	sockets map[*Client]struct{}
	mu      sync.Mutex
}

// NewServer creates a new HTTP API server
func NewServer(mon *monitor.Monitor, reg *catalog.Registry) *Server {
	return &Server{
		mon:     mon,
		reg:     reg,
		sockets: map[*Client]struct{}{},
	}
}

// SetupRoutes configures and returns the HTTP router with all API endpoints
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(c *gin.Context, l *slog.Logger) *slog.Logger {
			return slog.Default()
		}),
	))

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set(
			"Access-Control-Allow-Methods",
			"GET, OPTIONS",
		)
		c.Writer.Header().Set(
			"Access-Control-Allow-Headers",
			"Content-Type, Authorization",
		)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	// Health check
	router.GET("/health", s.handleHealth)

	api := router.Group("/api")
	{
		// Flow definition endpoints
		api.GET("/flows", s.listFlows)
		api.GET("/flows/:flowID", s.getFlow)

		// Session endpoints
		api.GET("/sessions", s.listSessions)
		api.GET("/sessions/:sessionID", s.getSession)
		api.GET("/sessions/:sessionID/flows", s.listSessionFlows)
		api.GET("/sessions/:sessionID/flows/:instanceID", s.getSessionFlow)
	}

	// WebSocket
	router.GET("/ws", s.handleWebSocket)

	return router
}

func (s *Server) registerWebSocket(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets[c] = struct{}{}
}

func (s *Server) unregisterWebSocket(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sockets, c)
}

// CloseWebSockets closes all active WebSocket connections
func (s *Server) CloseWebSockets() {
	s.mu.Lock()
	conns := make([]*Client, 0, len(s.sockets))
	for c := range s.sockets {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}
