// Package api serves the study query service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/nishad/ctrake/internal/metrics"
	"github.com/nishad/ctrake/internal/service"
)

// Server represents the HTTP API server
type Server struct {
	router          *mux.Router
	server          *http.Server
	searchService   *service.SearchService
	metadataService *service.MetadataService
	logger          zerolog.Logger
	metrics         *metrics.Metrics
}

// Config holds server configuration
type Config struct {
	Host       string
	Port       int
	EnableCORS bool
}

// Deps are the collaborators a Server needs. Metrics may be nil.
type Deps struct {
	Search   *service.SearchService
	Metadata *service.MetadataService
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
}

// NewServer creates a new API server instance
func NewServer(cfg *Config, deps Deps) *Server {
	s := &Server{
		router:          mux.NewRouter(),
		searchService:   deps.Search,
		metadataService: deps.Metadata,
		logger:          deps.Logger,
		metrics:         deps.Metrics,
	}

	s.setupRoutes(cfg.EnableCORS)

	s.router.Use(requestIDMiddleware)
	s.router.Use(s.recoveryMiddleware)
	if cfg.EnableCORS {
		s.router.Use(corsMiddleware)
	}
	s.router.Use(s.loggingMiddleware)
	s.router.Use(jsonMiddleware)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes(enableCORS bool) {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Preflight requests are answered by corsMiddleware.
	methods := []string{"GET"}
	if enableCORS {
		methods = append(methods, "OPTIONS")
	}

	api.HandleFunc("/search", s.handleSearch).Methods(methods...)
	api.HandleFunc("/quick_search/{term}", s.handleQuickSearch).Methods(methods...)
	api.HandleFunc("/summary", s.handleSummary).Methods(methods...)
	api.HandleFunc("/study/{nct_id}", s.handleGetStudy).Methods(methods...)
	api.HandleFunc("/studies", s.handleListStudies).Methods(methods...)
	api.HandleFunc("/conditions", s.handleConditions).Methods(methods...)
	api.HandleFunc("/sponsors", s.handleSponsors).Methods(methods...)
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}

	s.router.HandleFunc("/", s.handleRoot).Methods("GET")
}

// Handler exposes the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start starts the HTTP server. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("starting API server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down API server")
	return s.server.Shutdown(ctx)
}

// Helper functions

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("encoding JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error":   true,
		"message": message,
		"status":  status,
	})
}

// handleRoot returns API information
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "ctrake API",
		"version":     "1.0.0",
		"description": "Clinical trial registry search API",
		"endpoints": map[string]string{
			"search":       "/api/v1/search",
			"quick_search": "/api/v1/quick_search/{term}",
			"summary":      "/api/v1/summary",
			"study":        "/api/v1/study/{nct_id}",
			"studies":      "/api/v1/studies",
			"conditions":   "/api/v1/conditions",
			"sponsors":     "/api/v1/sponsors",
			"health":       "/api/v1/health",
		},
	}
	s.writeJSON(w, http.StatusOK, info)
}

// handleHealth returns health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	}

	if err := s.searchService.Health(ctx); err != nil {
		health["status"] = "unhealthy"
		health["search_service"] = err.Error()
	} else {
		health["search_service"] = "healthy"
	}

	if err := s.metadataService.Health(ctx); err != nil {
		health["status"] = "unhealthy"
		health["metadata_service"] = err.Error()
	} else {
		health["metadata_service"] = "healthy"
	}

	status := http.StatusOK
	if health["status"] != "healthy" {
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, health)
}
