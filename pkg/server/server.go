// Package server provides the HTTP check service for MTAs that prefer
// a call-out over the one-shot stdin filter: POST a raw message to
// /check and receive the terminal workflow record as JSON. The caller
// stays responsible for acting on the disposition.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/bugport/mailflow/pkg/config"
	"github.com/bugport/mailflow/pkg/filter"
	"github.com/bugport/mailflow/pkg/telemetry/metrics"
)

// Server is the HTTP check service.
type Server struct {
	config     *config.ServerConfig
	processor  *filter.Processor
	metrics    *metrics.Collector
	logger     *slog.Logger
	httpServer *http.Server

	mu        sync.Mutex
	isRunning bool
}

// NewServer creates a check server. The metrics collector may be nil,
// in which case /metrics is not mounted.
func NewServer(cfg *config.ServerConfig, processor *filter.Processor, collector *metrics.Collector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config:    cfg,
		processor: processor,
		metrics:   collector,
		logger:    logger.With("component", "server"),
	}
}

// Start starts the HTTP server and blocks until the context is
// cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.routes(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting check server", "address", s.config.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("shutting down check server")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.mu.Lock()
	s.isRunning = false
	s.mu.Unlock()

	return nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /check", s.handleCheck)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return mux
}

// handleCheck evaluates the raw message in the request body and
// responds with the terminal workflow record. Like every other path
// through the filter, evaluation itself cannot fail; only an
// unreadable or oversized body produces a non-200 response.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, s.config.MaxMessageBytes)
	raw, err := io.ReadAll(body)
	if err != nil {
		s.logger.Warn("failed to read check request body", "error", err)
		writeError(w, http.StatusRequestEntityTooLarge, "message too large or unreadable")
		return
	}
	if len(raw) == 0 {
		writeError(w, http.StatusBadRequest, "empty message")
		return
	}

	result := s.processor.Process(r.Context(), raw)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.logger.Warn("failed to encode check response", "error", err)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintln(w, `{"status":"ok"}`)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
