package handlers

import (
	"encoding/json"
	"net/http"

	"phishguard/internal/infrastructure/database/repository"
	"phishguard/pkg/logger"
)

// StatsHandler serves aggregate assessment statistics
type StatsHandler struct {
	assessments *repository.AssessmentRepository
	logger      *logger.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(assessments *repository.AssessmentRepository, log *logger.Logger) *StatsHandler {
	return &StatsHandler{
		assessments: assessments,
		logger:      log.WithComponent("stats-handler"),
	}
}

// Get handles GET /api/v1/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.assessments == nil {
		h.respondError(w, http.StatusServiceUnavailable, "assessment history is not configured")
		return
	}

	stats, err := h.assessments.GetStats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to get stats")
		h.respondError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	h.respondJSON(w, http.StatusOK, stats)
}

func (h *StatsHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *StatsHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
