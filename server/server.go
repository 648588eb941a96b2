// Package server provides HTTP server management and lifecycle handling
// for the formulary API. It includes server setup, middleware
// configuration, route management, and graceful shutdown capabilities
// with proper error handling and logging.
package server

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/giygas/formulary-api/config"
	"github.com/giygas/formulary-api/interfaces"
	"github.com/giygas/formulary-api/logging"
	"github.com/giygas/formulary-api/metrics"
)

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}

// Server represents the HTTP server
type Server struct {
	server      *http.Server
	router      chi.Router
	catalog     interfaces.Catalog
	handler     interfaces.HTTPHandler
	config      *config.Config
	rateLimiter *RateLimiter
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, catalog interfaces.Catalog, handler interfaces.HTTPHandler) *Server {
	router := chi.NewRouter()

	server := &Server{
		server: &http.Server{
			Handler:        router,
			Addr:           cfg.Address + ":" + cfg.Port,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: int(cfg.MaxHeaderSize),
		},
		router:      router,
		catalog:     catalog,
		handler:     handler,
		config:      cfg,
		rateLimiter: NewRateLimiter(cfg.RateLimitRate, cfg.RateLimitCapacity),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	if s.config.Env == config.EnvProduction {
		// Put BEFORE RealIPMiddleware to see original RemoteAddr
		s.router.Use(BlockDirectAccessMiddleware)
	}
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logging.DefaultLoggingService.Logger))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-API-Key"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(metrics.Metrics)
	s.router.Use(APIKeyMiddleware(s.config))
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(s.rateLimiter.Middleware)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleRoot)
	s.router.Post("/api/search", s.handler.HandleSearch)
	s.router.Get("/api/drug/{name}", s.handler.HandleDrugStatus)
	s.router.Get("/api/alternatives/{name}", s.handler.HandleAlternatives)
	s.router.Post("/api/filter", s.handler.HandleFilter)
	s.router.Get("/api/autocomplete", s.handler.HandleAutocomplete)
	s.router.Get("/api/suggestions/{query}", s.handler.HandleSuggestions)
	s.router.Get("/api/categories", s.handler.HandleCategories)
	s.router.Get("/health", s.handler.HealthCheck)

	s.router.Handle("/metrics", promhttp.Handler())
}

// handleRoot reports service identity and the route map.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "Formulary Query API",
		"version": "1.0",
		"status":  "operational",
		"endpoints": map[string]string{
			"search":       "/api/search",
			"drug":         "/api/drug/{name}",
			"alternatives": "/api/alternatives/{name}",
			"filter":       "/api/filter",
			"autocomplete": "/api/autocomplete",
			"suggestions":  "/api/suggestions/{query}",
			"categories":   "/api/categories",
			"health":       "/health",
		},
	})
}

// Start starts the server
func (s *Server) Start() error {
	// Start profiling server if in development mode
	if s.config.Env == config.EnvDevelopment {
		s.startProfilingServer()
	}

	logging.Info(fmt.Sprintf("Starting server at: %s:%s", s.config.Address, s.config.Port))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	s.rateLimiter.Stop()

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		// If graceful shutdown fails, force close
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}

// startProfilingServer starts the pprof profiling server in development mode
func (s *Server) startProfilingServer() {
	go func() {
		fmt.Println("Profiling server started at http://localhost:6060/debug/pprof/")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			fmt.Println("Profiling server failed: ", err)
		}
	}()
}

// HealthData represents health check response data
type HealthData struct {
	Status        string `json:"status"`
	Uptime        string `json:"uptime"`
	MemoryUsage   int    `json:"memory_usage_mb"`
	LastUpdate    string `json:"last_update"`
	IsUpdating    bool   `json:"is_updating"`
	DrugCount     int    `json:"drug_count"`
	CategoryCount int    `json:"category_count"`
}

// GetHealthData returns current health statistics
func (s *Server) GetHealthData() HealthData {
	// Get memory statistics
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	memoryUsageMB := int(m.Alloc / 1024 / 1024)

	uptime := time.Since(s.catalog.GetServerStartTime())

	return HealthData{
		Status:        "healthy",
		Uptime:        formatUptimeHuman(uptime),
		MemoryUsage:   memoryUsageMB,
		LastUpdate:    s.catalog.GetLastUpdated().Format(time.RFC3339),
		IsUpdating:    s.catalog.IsUpdating(),
		DrugCount:     len(s.catalog.GetDrugNames()),
		CategoryCount: len(s.catalog.GetCategories()),
	}
}
