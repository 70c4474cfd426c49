package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/stubd/stubd/pkg/logging"
)

// Server composes the dynamic endpoint handler with the administrative
// API and health check on a single listener. The reserved prefixes carve
// the administrative surface out of the dynamic namespace.
type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

// ServerConfig configures a Server.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// Handler serves dynamic endpoint traffic.
	Handler *Handler

	// Admin, when non-nil, is mounted under /api/admin/.
	Admin http.Handler

	// Logger for operational messages.
	Logger *slog.Logger
}

// NewServer builds the composite server.
func NewServer(cfg ServerConfig) *Server {
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handleHealth)
	if cfg.Admin != nil {
		mux.Handle("/api/admin/", cfg.Admin)
	}
	mux.Handle("/", cfg.Handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Start listens and serves until Shutdown is called. Blocks.
func (s *Server) Start() error {
	s.log.Info("server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// handleHealth answers the liveness probe on the reserved /health path.
func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
