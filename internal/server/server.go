// Package server exposes the ingestion and query API over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/doc2dev/doc2dev/internal/metrics"
	"github.com/doc2dev/doc2dev/internal/service"
	"github.com/doc2dev/doc2dev/internal/ws"
)

// Server wires the HTTP API over the ingestion and query services.
type Server struct {
	ingest  *service.IngestService
	repos   *service.RepositoryService
	search  *service.SearchService
	hub     *ws.Hub
	metrics *metrics.Collector
	logger  *slog.Logger
	version string

	http *http.Server
}

// New creates the API server listening on the given port.
func New(port string, ingest *service.IngestService, repos *service.RepositoryService, search *service.SearchService, hub *ws.Hub, mc *metrics.Collector, logger *slog.Logger, version string) *Server {
	s := &Server{
		ingest:  ingest,
		repos:   repos,
		search:  search,
		hub:     hub,
		metrics: mc,
		logger:  logger,
		version: version,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/download", s.handleDownload)
	mux.HandleFunc("GET /api/repositories", s.handleListRepositories)
	mux.HandleFunc("GET /api/repositories/{path}", s.handleGetRepository)
	mux.HandleFunc("DELETE /api/repositories/{id}", s.handleDeleteRepository)
	mux.HandleFunc("POST /api/query", s.handleQuery)
	mux.HandleFunc("GET /ws/{client_id}", s.hub.ServeWS)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/info", s.handleInfo)

	s.http = &http.Server{
		Addr:         ":" + port,
		Handler:      LoggingMiddleware(logger)(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second, // LLM summaries can be slow
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler returns the routed handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	s.logger.Info("api server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight ingestion
// jobs to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.http.Shutdown(ctx); err != nil {
		return err
	}
	s.ingest.Wait()
	return nil
}
