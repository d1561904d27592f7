// Package server hosts the HTTP endpoint a discovery daemon exposes for
// Prometheus scraping and health/readiness checks, modeled on
// storage-node/internal/server/metrics_server.go.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Postrantor/rmw-dds-common-go/internal/graphcache"
	"github.com/Postrantor/rmw-dds-common-go/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsServer serves Prometheus metrics and health/readiness checks
// over HTTP for a single discovery daemon process.
type MetricsServer struct {
	httpServer *http.Server
	metrics    *metrics.Metrics
	cache      *graphcache.GraphCache
	logger     *zap.Logger
	stopChan   chan struct{}
}

// Config configures a MetricsServer.
type Config struct {
	Port int
	Path string
}

// New creates a MetricsServer that reports on cache's state.
func New(cfg Config, m *metrics.Metrics, cache *graphcache.GraphCache, logger *zap.Logger) *MetricsServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Path == "" {
		cfg.Path = "/metrics"
	}

	mux := http.NewServeMux()
	s := &MetricsServer{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		metrics:  m,
		cache:    cache,
		logger:   logger,
		stopChan: make(chan struct{}),
	}

	mux.Handle(cfg.Path, promhttp.Handler())
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/ready", s.readyHandler)

	return s
}

// Start launches the HTTP listener and the periodic graph-stats
// collector in the background.
func (s *MetricsServer) Start() error {
	s.logger.Info("starting metrics server", zap.String("addr", s.httpServer.Addr))

	go s.collectGraphStats()

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP listener.
func (s *MetricsServer) Stop() error {
	s.logger.Info("stopping metrics server")
	close(s.stopChan)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("metrics server shutdown failed: %w", err)
	}
	return nil
}

func (s *MetricsServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}

func (s *MetricsServer) readyHandler(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, `{"status":"not_ready","reason":"graph_cache_unavailable"}`)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ready","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}

func (s *MetricsServer) collectGraphStats() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.updateGraphStats()
		case <-s.stopChan:
			return
		}
	}
}

func (s *MetricsServer) updateGraphStats() {
	if s.cache == nil {
		return
	}
	namesAndTypes := s.cache.GetNamesAndTypes(nil, nil)
	nodeCount := s.cache.GetNumberOfNodes()

	writers := 0
	readers := 0
	for topic := range namesAndTypes {
		writers += s.cache.GetWriterCount(topic)
		readers += s.cache.GetReaderCount(topic)
	}

	s.metrics.UpdateGraphStats(writers, readers, s.cache.GetNumberOfParticipants(), nodeCount)
}
