package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"phishguard/internal/domain/models"
	"phishguard/internal/infrastructure/database/repository"
	"phishguard/pkg/logger"
)

// AssessmentsHandler serves the assessment history endpoints
type AssessmentsHandler struct {
	assessments *repository.AssessmentRepository
	logger      *logger.Logger
}

// NewAssessmentsHandler creates a new assessments handler
func NewAssessmentsHandler(assessments *repository.AssessmentRepository, log *logger.Logger) *AssessmentsHandler {
	return &AssessmentsHandler{
		assessments: assessments,
		logger:      log.WithComponent("assessments-handler"),
	}
}

// ListResponse wraps a page of assessment records
type ListResponse struct {
	Assessments []*models.AssessmentRecord `json:"assessments"`
	Total       int64                      `json:"total"`
	Limit       int                        `json:"limit"`
	Offset      int                        `json:"offset"`
}

// List handles GET /api/v1/assessments
func (h *AssessmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.assessments == nil {
		h.respondError(w, http.StatusServiceUnavailable, "assessment history is not configured")
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, total, err := h.assessments.List(r.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list assessments")
		h.respondError(w, http.StatusInternalServerError, "failed to list assessments")
		return
	}

	if records == nil {
		records = []*models.AssessmentRecord{}
	}

	h.respondJSON(w, http.StatusOK, ListResponse{
		Assessments: records,
		Total:       total,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	})
}

// Get handles GET /api/v1/assessments/{id}
func (h *AssessmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.assessments == nil {
		h.respondError(w, http.StatusServiceUnavailable, "assessment history is not configured")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid assessment id")
		return
	}

	rec, err := h.assessments.GetByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		h.respondError(w, http.StatusNotFound, "assessment not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to get assessment")
		h.respondError(w, http.StatusInternalServerError, "failed to get assessment")
		return
	}

	h.respondJSON(w, http.StatusOK, rec)
}

func parseFilter(r *http.Request) (models.AssessmentFilter, error) {
	filter := models.AssessmentFilter{Limit: 50}
	q := r.URL.Query()

	if v := q.Get("type"); v != "" {
		t := models.InputType(v)
		switch t {
		case models.InputTypeURL, models.InputTypeSMS, models.InputTypeEmail:
			filter.InputType = &t
		default:
			return filter, fmt.Errorf("invalid input type %q", v)
		}
	}
	if v := q.Get("risk_level"); v != "" {
		level := models.RiskLevel(v)
		filter.RiskLevel = &level
	}
	if v := q.Get("malicious"); v != "" {
		malicious, err := strconv.ParseBool(v)
		if err != nil {
			return filter, err
		}
		filter.Malicious = &malicious
	}
	if v := q.Get("batch_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filter, err
		}
		filter.BatchID = &id
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return filter, err
		}
		filter.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			return filter, err
		}
		filter.Offset = offset
	}

	return filter, nil
}

func (h *AssessmentsHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *AssessmentsHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
