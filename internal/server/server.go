package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"newsdesk/internal/config"
	"newsdesk/internal/core"
	"newsdesk/internal/logger"
	"newsdesk/internal/pipeline"
)

// Default server timeouts
const (
	DefaultRequestTimeout  = 90 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
)

// NewsService answers questions and composes briefings
type NewsService interface {
	Chat(ctx context.Context, message string) core.ChatResponse
	Briefing(ctx context.Context) core.Briefing
}

// Ingester starts guarded background ingestion runs and waits for them
type Ingester interface {
	Start(ctx context.Context, done func(*pipeline.RunStats, error)) bool
	Wait(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	service    NewsService
	ingester   Ingester // Optional, enables POST /api/ingest
	config     config.Server
	log        *slog.Logger

	// ingestDone receives the result of each admin-triggered run
	ingestDone func(*pipeline.RunStats, error)
}

// Option configures optional server features
type Option func(*Server)

// WithIngester enables the admin ingestion endpoint
func WithIngester(ingester Ingester) Option {
	return func(s *Server) {
		s.ingester = ingester
	}
}

// New creates a new HTTP server instance
func New(service NewsService, cfg config.Server, opts ...Option) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		service: service,
		config:  cfg,
		log:     logger.Component("server"),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Setup middleware
	s.setupMiddleware()

	// Setup routes
	s.setupRoutes()

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware for the server
func (s *Server) setupMiddleware() {
	// Request ID middleware
	s.router.Use(middleware.RequestID)

	// Real IP middleware
	s.router.Use(middleware.RealIP)

	// Logging middleware
	s.router.Use(s.requestLogger)

	// Recovery middleware (recover from panics)
	s.router.Use(middleware.Recoverer)

	// Request timeout middleware
	s.router.Use(middleware.Timeout(config.Duration(s.config.RequestTimeout, DefaultRequestTimeout)))

	// CORS middleware
	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	s.router.Use(securityHeaders)
}

// setupRoutes configures routes for the server
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(noCache)

		r.Get("/briefing", s.handleBriefing)
		r.Post("/chat", s.handleChat)

		// Admin routes
		if s.ingester != nil {
			r.With(s.requireAdminAPI).Post("/ingest", s.handleIngest)
		}
	})

	// Static files (if directory exists)
	if dir := s.config.StaticDir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			s.router.Handle("/*", http.FileServer(http.Dir(dir)))
		} else {
			s.log.Warn("Static directory not found, skipping", "dir", dir)
		}
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info("Starting HTTP server",
		"addr", s.httpServer.Addr,
		"request_timeout", config.Duration(s.config.RequestTimeout, DefaultRequestTimeout),
		"static_dir", s.config.StaticDir,
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server, then waits for an
// admin-triggered ingestion run to finish, both bounded by ctx
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server gracefully...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.ingester != nil {
		if err := s.ingester.Wait(ctx); err != nil {
			return fmt.Errorf("ingestion still running at shutdown: %w", err)
		}
	}

	s.log.Info("HTTP server stopped")
	return nil
}

// Router returns the chi router instance (useful for testing)
func (s *Server) Router() *chi.Mux {
	return s.router
}
