package handlers

import (
	"encoding/json"
	"net/http"

	"phishguard/internal/config"
	"phishguard/pkg/logger"
)

// PatternsHandler exposes the effective detection configuration
type PatternsHandler struct {
	cfg    config.AnalysisConfig
	logger *logger.Logger
}

// NewPatternsHandler creates a new patterns handler
func NewPatternsHandler(cfg config.AnalysisConfig, log *logger.Logger) *PatternsHandler {
	return &PatternsHandler{
		cfg:    cfg,
		logger: log.WithComponent("patterns-handler"),
	}
}

// Get handles GET /api/v1/patterns
func (h *PatternsHandler) Get(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"email_patterns":  h.cfg.EmailPatterns,
		"sms_patterns":    h.cfg.SMSPatterns,
		"url_shorteners":  h.cfg.Shorteners,
		"suspicious_tlds": h.cfg.SuspiciousTLDs,
		"weights":         h.cfg.Weights,
		"thresholds":      h.cfg.Thresholds,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
