package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"phishguard/internal/api/handlers"
	apimiddleware "phishguard/internal/api/middleware"
	"phishguard/internal/config"
	"phishguard/internal/infrastructure/cache"
	"phishguard/pkg/logger"
)

// Router holds dependencies for the API router
type Router struct {
	config   config.Config
	handlers *handlers.Handlers
	cache    *cache.RedisCache
	logger   *logger.Logger
}

// NewRouter creates a new Router instance
func NewRouter(cfg config.Config, h *handlers.Handlers, c *cache.RedisCache, log *logger.Logger) *Router {
	return &Router{
		config:   cfg,
		handlers: h,
		cache:    c,
		logger:   log.WithComponent("router"),
	}
}

// Setup sets up the Chi router with all routes and middleware
func (r *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Core middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(apimiddleware.Logger(r.logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.config.CORS.AllowedOrigins,
		AllowedMethods:   r.config.CORS.AllowedMethods,
		AllowedHeaders:   r.config.CORS.AllowedHeaders,
		AllowCredentials: r.config.CORS.AllowCredentials,
		MaxAge:           r.config.CORS.MaxAge,
	}))

	// Rate limiting
	if r.config.RateLimit.Enabled && r.cache != nil {
		router.Use(apimiddleware.RateLimiter(r.cache, r.config.RateLimit))
	}

	// Health check
	router.Get("/health", r.handlers.Health.Check)
	router.Get("/ready", r.handlers.Health.Ready)

	// API v1 routes
	router.Route("/api/v1", func(api chi.Router) {
		// Analysis endpoints
		api.Route("/analyze", func(analyze chi.Router) {
			analyze.Post("/url", r.handlers.Analyze.AnalyzeURL)
			analyze.Post("/sms", r.handlers.Analyze.AnalyzeSMS)
			analyze.Post("/email", r.handlers.Analyze.AnalyzeEmail)
		})

		// Assessment history
		api.Route("/assessments", func(assessments chi.Router) {
			assessments.Get("/", r.handlers.Assessments.List)
			assessments.Get("/{id}", r.handlers.Assessments.Get)
		})

		// Batch processing
		api.Route("/batch", func(batch chi.Router) {
			batch.Post("/", r.handlers.Batch.Submit)
			batch.Get("/", r.handlers.Batch.List)
			batch.Get("/{id}", r.handlers.Batch.Get)
			batch.Post("/{id}/cancel", r.handlers.Batch.Cancel)
		})

		// Effective detection configuration
		api.Get("/patterns", r.handlers.Patterns.Get)

		// Dashboard aggregates
		api.Get("/stats", r.handlers.Stats.Get)
	})

	return router
}
