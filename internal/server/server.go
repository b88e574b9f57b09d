// Package server provides the HTTP preview server: a live MJPEG view of the
// demo output, a telemetry WebSocket, and the recorded session history.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/julienschmidt/httprouter"

	"github.com/ayusman/framelab/internal/server/api"
	"github.com/ayusman/framelab/internal/store"
)

// shutdownTimeout bounds graceful shutdown in Run.
const shutdownTimeout = 3 * time.Second

// Config holds the server configuration.
type Config struct {
	Log   logs.Log
	Hub   *Hub
	Store *store.Store
}

// Server represents the HTTP preview server.
type Server struct {
	config Config
	router *httprouter.Router
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Log == nil {
		config.Log, _ = logs.NewLog()
	}

	s := &Server{
		config: config,
		router: httprouter.New(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.router.GET("/api/health", s.handleHealth)

	if s.config.Hub != nil {
		s.router.Handler(http.MethodGet, "/api/stream", NewStreamHandler(s.config.Hub))
		s.router.Handler(http.MethodGet, "/api/telemetry", NewTelemetryHandler(s.config.Hub, s.config.Log))
	}

	if s.config.Store != nil {
		sessions := api.NewSessionHandler(s.config.Store)
		s.router.GET("/api/sessions", sessions.List)
		s.router.GET("/api/sessions/:id", sessions.Get)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	// Streaming handlers end when their request context does
	srv := &http.Server{
		Addr:        addr,
		Handler:     s,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.config.Log.Infof("Preview server listening on %v", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
