package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mudseason/road-hazard-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Feed is the pipeline surface the API serves: the current snapshot plus the
// loading and error banner state, and a way to kick a refresh.
type Feed interface {
	Snapshot() []domain.Incident
	Loading() bool
	LastError() string
	Refresh()
	CheckReadiness(ctx context.Context) error
}

// Server exposes the incident feed alongside health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	feed       Feed
	logger     *slog.Logger
}

// incidentsResponse is the GET /incidents body. LastError carries the
// all-sources-failed banner text; empty when the last refresh succeeded.
type incidentsResponse struct {
	Incidents []domain.Incident `json:"incidents"`
	Loading   bool              `json:"loading"`
	LastError string            `json:"last_error,omitempty"`
}

// NewServer creates the HTTP server with feed, health, readiness, and
// metrics routes.
func NewServer(addr string, feed Feed, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		feed:   feed,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /incidents", s.handleIncidents)
	mux.HandleFunc("POST /refresh", s.handleRefresh)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.feed.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleIncidents(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.feed.Snapshot()
	if snapshot == nil {
		// Clients get an empty list, never null.
		snapshot = []domain.Incident{}
	}
	writeJSON(w, http.StatusOK, incidentsResponse{
		Incidents: snapshot,
		Loading:   s.feed.Loading(),
		LastError: s.feed.LastError(),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	s.feed.Refresh()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh requested"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
