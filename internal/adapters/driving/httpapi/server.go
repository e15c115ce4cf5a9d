// Package httpapi exposes the read-only HTTP API over tracked standards.
//
// Every route is a read; mutating methods are rejected with 405 before
// routing. State changes only happen through fetch cycles and the CLI.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/custodia-labs/vigil-cli/internal/core/ports/driving"
	"github.com/custodia-labs/vigil-cli/internal/metrics"
)

// DefaultAddr is the default listen address.
const DefaultAddr = ":8799"

// Ports holds the driving ports the API serves.
type Ports struct {
	Query driving.QueryService
}

// Config holds server configuration.
type Config struct {
	// Addr is the listen address. Defaults to DefaultAddr.
	Addr string
}

// Server is the HTTP API server.
type Server struct {
	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	addr     string
	query    driving.QueryService
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// NewServer creates the API server. Metrics may be nil.
func NewServer(ports Ports, cfg Config, m *metrics.Metrics, log zerolog.Logger) (*Server, error) {
	if ports.Query == nil {
		return nil, errors.New("httpapi requires a query service")
	}

	addr := cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}

	s := &Server{
		addr:    addr,
		query:   ports.Query,
		metrics: m,
		log:     log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/standards", s.handleListStandards)
	mux.HandleFunc("GET /api/v1/standards/{id}", s.handleGetStandard)
	mux.HandleFunc("GET /api/v1/standards/{id}/versions", s.handleVersionHistory)
	mux.HandleFunc("GET /api/v1/versions/{id}", s.handleGetVersion)
	mux.HandleFunc("GET /api/v1/versions/{id}/changes", s.handleVersionChanges)
	mux.HandleFunc("GET /api/v1/versions/{a}/compare/{b}", s.handleCompareVersions)
	mux.HandleFunc("GET /api/v1/search", s.handleSearch)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.logRequests(s.recordMetrics(s.readOnly(mux))),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.log.Info().Str("addr", listener.Addr().String()).Msg("http api listening")

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http api: %w", err)
	case <-ctx.Done():
	}

	s.log.Info().Msg("http api shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http api shutdown: %w", err)
	}
	return nil
}

// Addr returns the bound address once Run has started listening. Useful
// when the configured address picks a random port.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Handler returns the fully wrapped handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
