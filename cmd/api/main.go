package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"phishguard/internal/api"
	"phishguard/internal/api/handlers"
	"phishguard/internal/batch"
	"phishguard/internal/config"
	"phishguard/internal/domain/services"
	"phishguard/internal/infrastructure/cache"
	"phishguard/internal/infrastructure/database"
	"phishguard/internal/infrastructure/database/repository"
	"phishguard/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var log *logger.Logger
	if cfg.App.Environment == "production" {
		log = logger.NewProduction()
	} else {
		log = logger.NewDevelopment()
	}

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting PhishGuard")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize infrastructure
	db, redisCache, err := initInfrastructure(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize infrastructure")
	}
	defer func() {
		if db != nil {
			db.Close()
		}
		if redisCache != nil {
			redisCache.Close()
		}
	}()

	// Initialize repositories
	var assessmentRepo *repository.AssessmentRepository
	var batchRepo *repository.BatchRepository
	if db != nil {
		assessmentRepo = repository.NewAssessmentRepository(db)
		batchRepo = repository.NewBatchRepository(db)
		log.Info().Msg("repositories initialized with database")
	} else {
		log.Warn().Msg("running without database - assessment history unavailable")
	}

	// Initialize enrichment providers
	extractor := services.NewIndicatorExtractor(cfg.Analysis)
	domainIntel := services.NewDomainIntelService(cfg.Enrichment, extractor, log)
	defer domainIntel.Close()

	var intel services.DomainIntel = domainIntel
	var sslInspector services.SSLInspector = services.NewSSLInspectService(cfg.Enrichment, log)
	if redisCache != nil {
		intel = services.NewCachedDomainIntel(domainIntel, redisCache, cfg.Enrichment.CacheTTL, log)
		sslInspector = services.NewCachedSSLInspector(sslInspector, redisCache, cfg.Enrichment.CacheTTL, log)
	}

	// Build the analyzer; invalid analysis config is fatal at startup
	analyzer, err := services.NewThreatAnalyzer(cfg.Analysis, intel, sslInspector, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build threat analyzer")
	}
	log.Info().Msg("threat analyzer initialized")

	// Verdict provider for the upstream classifier
	verdicts := services.NewVerdictProvider(cfg.Classifier, log)
	log.Info().Bool("classifier_enabled", cfg.Classifier.Enabled).Msg("verdict provider initialized")

	// Batch processor
	var assessmentStore batch.AssessmentStore
	var jobStore batch.JobStore
	if assessmentRepo != nil {
		assessmentStore = assessmentRepo
	}
	if batchRepo != nil {
		jobStore = batchRepo
	}
	processor := batch.NewProcessor(analyzer, verdicts, assessmentStore, jobStore, cfg.Batch, log)

	// Initialize handlers
	deps := handlers.Dependencies{
		Analyzer:    analyzer,
		Verdicts:    verdicts,
		Processor:   processor,
		Assessments: assessmentRepo,
		Batches:     batchRepo,
		DB:          db,
		Cache:       redisCache,
		Config:      *cfg,
		Logger:      log,
	}
	h := handlers.NewHandlers(deps)

	// Create router
	router := api.NewRouter(*cfg, h, redisCache, log)
	httpHandler := router.Setup()

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Start retention cleanup
	if cfg.Retention.Enabled && assessmentRepo != nil {
		go runRetentionCleanup(ctx, assessmentRepo, redisCache, cfg.Retention, log)
	}

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	// Cancel context to stop background services
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("shutdown complete")
}

// initInfrastructure initializes database and cache connections
func initInfrastructure(ctx context.Context, cfg *config.Config, log *logger.Logger) (*database.PostgresDB, *cache.RedisCache, error) {
	// Connect to PostgreSQL
	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to PostgreSQL, continuing without database")
		// Don't fail, continue without database for development
	}

	// Connect to Redis
	redisCache, err := cache.NewRedis(ctx, cfg.Redis, log)
	if err != nil {
		return db, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return db, redisCache, nil
}

// runRetentionCleanup periodically deletes assessments past the
// retention window. The Redis lock keeps multiple instances from
// running the same sweep.
func runRetentionCleanup(
	ctx context.Context,
	repo *repository.AssessmentRepository,
	redisCache *cache.RedisCache,
	cfg config.RetentionConfig,
	log *logger.Logger,
) {
	log = log.WithComponent("retention")
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	log.Info().
		Dur("interval", cfg.Interval).
		Dur("max_age", cfg.MaxAge).
		Msg("retention cleanup started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if redisCache != nil {
			acquired, err := redisCache.AcquireLock(ctx, cache.KeyRetentionLock, cfg.Interval/2)
			if err != nil || !acquired {
				continue
			}
		}

		cutoff := time.Now().Add(-cfg.MaxAge)
		deleted, err := repo.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			log.Error().Err(err).Msg("retention cleanup failed")
			continue
		}
		if deleted > 0 {
			log.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("old assessments removed")
		}
	}
}
