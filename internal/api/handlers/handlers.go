package handlers

import (
	"phishguard/internal/batch"
	"phishguard/internal/config"
	"phishguard/internal/domain/services"
	"phishguard/internal/infrastructure/cache"
	"phishguard/internal/infrastructure/database"
	"phishguard/internal/infrastructure/database/repository"
	"phishguard/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health      *HealthHandler
	Analyze     *AnalyzeHandler
	Assessments *AssessmentsHandler
	Batch       *BatchHandler
	Patterns    *PatternsHandler
	Stats       *StatsHandler
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	Analyzer    *services.ThreatAnalyzer
	Verdicts    services.VerdictProvider
	Processor   *batch.Processor
	Assessments *repository.AssessmentRepository
	Batches     *repository.BatchRepository
	DB          *database.PostgresDB
	Cache       *cache.RedisCache
	Config      config.Config
	Logger      *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health:      NewHealthHandler(deps.Cache, deps.DB, deps.Logger),
		Analyze:     NewAnalyzeHandler(deps.Analyzer, deps.Verdicts, deps.Assessments, deps.Logger),
		Assessments: NewAssessmentsHandler(deps.Assessments, deps.Logger),
		Batch:       NewBatchHandler(deps.Processor, deps.Batches, deps.Config.Batch, deps.Logger),
		Patterns:    NewPatternsHandler(deps.Config.Analysis, deps.Logger),
		Stats:       NewStatsHandler(deps.Assessments, deps.Logger),
	}
}
