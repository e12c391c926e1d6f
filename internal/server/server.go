package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/pondside/pondside/internal/middleware"
)

// Config holds configuration for the websocket server
type Config struct {
	Host string
	Port int
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Host: "",
		Port: 8080,
	}
}

// Server exposes the coordinator over HTTP: a websocket endpoint for
// gameplay and a liveness probe.
type Server struct {
	coordinator *Coordinator
	logger      *slog.Logger
	httpServer  *http.Server
}

// NewServer creates a new Server
func NewServer(cfg Config, coordinator *Coordinator, logger *slog.Logger) *Server {
	s := &Server{
		coordinator: coordinator,
		logger:      logger.With(slog.String("component", "server")),
	}

	router := mux.NewRouter()
	router.Use(middleware.Recovery(s.logger), middleware.Logging(s.logger))
	router.HandleFunc("/ws", s.handleWS)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start begins listening and blocks until the server is shut down.
func (s *Server) Start() error {
	s.logger.Info("server listening", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Shutdown gracefully stops accepting connections.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	// The request context dies when this handler returns, so the
	// connection runs against the background context for its lifetime.
	s.coordinator.HandleConnection(context.Background(), newWSTransport(ws))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
