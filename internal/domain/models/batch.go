package models

import (
	"time"

	"github.com/google/uuid"
)

// BatchStatus tracks a batch job through its lifecycle
type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "pending"
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
	BatchStatusCancelled  BatchStatus = "cancelled"
)

// BatchJob represents one CSV batch submitted for analysis
type BatchJob struct {
	ID             uuid.UUID   `json:"id"`
	InputType      InputType   `json:"input_type"`
	Status         BatchStatus `json:"status"`
	FileName       string      `json:"file_name"`
	TotalRows      int         `json:"total_rows"`
	ProcessedRows  int         `json:"processed_rows"`
	FailedRows     int         `json:"failed_rows"`
	MaliciousCount int         `json:"malicious_count"`
	ErrorMessage   string      `json:"error_message,omitempty"`
	StartedAt      *time.Time  `json:"started_at,omitempty"`
	CompletedAt    *time.Time  `json:"completed_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Progress returns the completion percentage of the job
func (j *BatchJob) Progress() float64 {
	if j.TotalRows == 0 {
		return 0
	}
	return float64(j.ProcessedRows+j.FailedRows) / float64(j.TotalRows) * 100
}

// Terminal reports whether the job has reached a final state
func (j *BatchJob) Terminal() bool {
	switch j.Status {
	case BatchStatusCompleted, BatchStatusFailed, BatchStatusCancelled:
		return true
	}
	return false
}

// BatchRowError records a row that could not be analyzed
type BatchRowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// BatchResult is returned by the batch processor when a job finishes
type BatchResult struct {
	Job       *BatchJob       `json:"job"`
	RowErrors []BatchRowError `json:"row_errors,omitempty"`
}
