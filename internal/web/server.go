// Package web serves the maintenance window: a status page and JSON view
// that stay reachable while the monitor is held awake after a cold boot.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sweeney/bowl-monitor/internal/logging"
	"github.com/sweeney/bowl-monitor/internal/status"
)

// Server serves the status page over HTTP while the window is open.
type Server struct {
	addr    string
	engine  *gin.Engine
	tracker *status.Tracker
	log     *zap.Logger

	mu         sync.Mutex
	httpServer *http.Server
	listenAddr net.Addr
}

// New creates a Server that reads state from the given tracker.
func New(addr string, tracker *status.Tracker) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		addr:    addr,
		engine:  gin.New(),
		tracker: tracker,
		log:     logging.Named(logging.NameWeb),
	}
	s.engine.Use(gin.Recovery(), s.accessLog)
	s.setup()
	return s
}

func (s *Server) setup() {
	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/index.html", s.handleIndex)
	s.engine.GET("/index.json", s.handleJSON)
	s.engine.GET("/healthz", s.handleHealth)
}

// Handler exposes the router. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Open starts listening in the background. It implements cycle.Window.
func (s *Server) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return errors.New("web: already open")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.httpServer = srv
	s.listenAddr = ln.Addr()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("maintenance server stopped", zap.Error(err))
		}
	}()

	s.log.Info("maintenance window open", zap.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the listening address while open, or nil.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listenAddr
}

// Close gracefully shuts the server down. It implements cycle.Window.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer = nil
	s.listenAddr = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown maintenance server: %w", err)
	}
	s.log.Info("maintenance window closed")
	return nil
}

func (s *Server) accessLog(c *gin.Context) {
	started := time.Now()
	c.Next()
	s.log.Debug("request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("latency", time.Since(started)),
	)
}

func (s *Server) handleIndex(c *gin.Context) {
	snap := s.tracker.Snapshot()
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := renderHTML(c.Writer, snap); err != nil {
		s.log.Warn("render status page", zap.Error(err))
	}
}

func (s *Server) handleJSON(c *gin.Context) {
	snap := s.tracker.Snapshot()
	c.Data(http.StatusOK, "application/json", status.FormatJSON(snap))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
