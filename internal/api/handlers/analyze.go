package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"phishguard/internal/domain/models"
	"phishguard/internal/domain/services"
	"phishguard/internal/infrastructure/database/repository"
	"phishguard/pkg/logger"
)

// AnalyzeHandler handles the single-input analysis endpoints
type AnalyzeHandler struct {
	analyzer    *services.ThreatAnalyzer
	verdicts    services.VerdictProvider
	assessments *repository.AssessmentRepository
	logger      *logger.Logger
}

// NewAnalyzeHandler creates a new analyze handler. The repository may
// be nil when the server runs without a database.
func NewAnalyzeHandler(
	analyzer *services.ThreatAnalyzer,
	verdicts services.VerdictProvider,
	assessments *repository.AssessmentRepository,
	log *logger.Logger,
) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzer:    analyzer,
		verdicts:    verdicts,
		assessments: assessments,
		logger:      log.WithComponent("analyze-handler"),
	}
}

// AnalyzeRequest is the request body for content analysis
type AnalyzeRequest struct {
	Content string `json:"content"`
	URL     string `json:"url"`
}

// AnalyzeURL handles POST /api/v1/analyze/url
func (h *AnalyzeHandler) AnalyzeURL(w http.ResponseWriter, r *http.Request) {
	h.analyze(w, r, models.InputTypeURL)
}

// AnalyzeSMS handles POST /api/v1/analyze/sms
func (h *AnalyzeHandler) AnalyzeSMS(w http.ResponseWriter, r *http.Request) {
	h.analyze(w, r, models.InputTypeSMS)
}

// AnalyzeEmail handles POST /api/v1/analyze/email
func (h *AnalyzeHandler) AnalyzeEmail(w http.ResponseWriter, r *http.Request) {
	h.analyze(w, r, models.InputTypeEmail)
}

func (h *AnalyzeHandler) analyze(w http.ResponseWriter, r *http.Request, inputType models.InputType) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug().Err(err).Msg("invalid request body")
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	content := req.Content
	if inputType == models.InputTypeURL && req.URL != "" {
		content = req.URL
	}
	if content == "" {
		h.respondError(w, http.StatusBadRequest, "content is required")
		return
	}

	start := time.Now()
	verdict := h.verdicts.Classify(r.Context(), inputType, content)

	var assessment models.ThreatAssessment
	switch inputType {
	case models.InputTypeURL:
		assessment = h.analyzer.AnalyzeURL(r.Context(), content, verdict)
	case models.InputTypeSMS:
		assessment = h.analyzer.AnalyzeSMS(r.Context(), content, verdict)
	default:
		assessment = h.analyzer.AnalyzeEmail(r.Context(), content, verdict)
	}

	if h.assessments != nil {
		rec := assessment.NewRecord(content)
		rec.ProcessingTimeMs = time.Since(start).Milliseconds()
		if _, err := h.assessments.Create(r.Context(), rec); err != nil {
			h.logger.Warn().Err(err).Msg("failed to persist assessment")
		}
	}

	h.logger.Info().
		Str("input_type", string(inputType)).
		Float64("risk_score", assessment.RiskScore).
		Str("risk_level", string(assessment.RiskLevel)).
		Str("threat_category", string(assessment.ThreatCategory)).
		Msg("content analyzed")

	h.respondJSON(w, http.StatusOK, assessment)
}

func (h *AnalyzeHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *AnalyzeHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
