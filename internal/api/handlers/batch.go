package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"phishguard/internal/batch"
	"phishguard/internal/config"
	"phishguard/internal/domain/models"
	"phishguard/internal/infrastructure/database/repository"
	"phishguard/pkg/logger"
)

const maxUploadBytes = 32 << 20 // 32 MiB

// BatchHandler serves the CSV batch endpoints. Uploaded jobs run in the
// background; row results land in the assessment history keyed by
// batch_id, so the results CSV is not retained server-side.
type BatchHandler struct {
	processor *batch.Processor
	batches   *repository.BatchRepository
	cfg       config.BatchConfig
	logger    *logger.Logger

	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(processor *batch.Processor, batches *repository.BatchRepository, cfg config.BatchConfig, log *logger.Logger) *BatchHandler {
	return &BatchHandler{
		processor: processor,
		batches:   batches,
		cfg:       cfg,
		logger:    log.WithComponent("batch-handler"),
		cancels:   make(map[uuid.UUID]context.CancelFunc),
	}
}

// Submit handles POST /api/v1/batch - multipart CSV upload
func (h *BatchHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.batches == nil {
		h.respondError(w, http.StatusServiceUnavailable, "batch processing is not configured")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	inputType := models.InputType(r.FormValue("type"))
	switch inputType {
	case models.InputTypeURL, models.InputTypeSMS, models.InputTypeEmail:
	default:
		h.respondError(w, http.StatusBadRequest, "type must be url, sms or email")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "file is required")
		return
	}

	// Buffer the upload so processing can outlive the request
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	file.Close()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	job := &models.BatchJob{
		InputType: inputType,
		FileName:  header.Filename,
	}
	job, err = h.batches.Create(r.Context(), job)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create batch job")
		h.respondError(w, http.StatusInternalServerError, "failed to create batch job")
		return
	}

	runCtx, cancel := context.WithCancel(context.Background())
	h.mu.Lock()
	h.cancels[job.ID] = cancel
	h.mu.Unlock()

	go func() {
		defer func() {
			cancel()
			h.mu.Lock()
			delete(h.cancels, job.ID)
			h.mu.Unlock()
		}()
		if _, err := h.processor.Run(runCtx, job, bytes.NewReader(data), io.Discard); err != nil {
			h.logger.Warn().Str("job_id", job.ID.String()).Err(err).Msg("batch job failed")
		}
	}()

	h.respondJSON(w, http.StatusAccepted, job)
}

// Get handles GET /api/v1/batch/{id}
func (h *BatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.batches == nil {
		h.respondError(w, http.StatusServiceUnavailable, "batch processing is not configured")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid batch id")
		return
	}

	job, err := h.batches.GetByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		h.respondError(w, http.StatusNotFound, "batch job not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to get batch job")
		h.respondError(w, http.StatusInternalServerError, "failed to get batch job")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"job":      job,
		"progress": job.Progress(),
	})
}

// List handles GET /api/v1/batch
func (h *BatchHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.batches == nil {
		h.respondError(w, http.StatusServiceUnavailable, "batch processing is not configured")
		return
	}

	jobs, total, err := h.batches.List(r.Context(), 50, 0)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list batch jobs")
		h.respondError(w, http.StatusInternalServerError, "failed to list batch jobs")
		return
	}
	if jobs == nil {
		jobs = []*models.BatchJob{}
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"total": total,
	})
}

// Cancel handles POST /api/v1/batch/{id}/cancel
func (h *BatchHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h.batches == nil {
		h.respondError(w, http.StatusServiceUnavailable, "batch processing is not configured")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid batch id")
		return
	}

	cancelled, err := h.batches.Cancel(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to cancel batch job")
		h.respondError(w, http.StatusInternalServerError, "failed to cancel batch job")
		return
	}
	if !cancelled {
		h.respondError(w, http.StatusConflict, "batch job already finished")
		return
	}

	h.mu.Lock()
	if cancel, ok := h.cancels[id]; ok {
		cancel()
	}
	h.mu.Unlock()

	h.respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *BatchHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *BatchHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
