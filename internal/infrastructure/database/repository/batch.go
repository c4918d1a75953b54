package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"phishguard/internal/domain/models"
	"phishguard/internal/infrastructure/database"
)

// BatchRepository handles batch job persistence
type BatchRepository struct {
	db *database.PostgresDB
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(db *database.PostgresDB) *BatchRepository {
	return &BatchRepository{db: db}
}

const batchColumns = `
	id, input_type, status, file_name, total_rows, processed_rows,
	failed_rows, malicious_count, error_message, started_at, completed_at,
	created_at, updated_at`

// Create inserts a new batch job in pending state
func (r *BatchRepository) Create(ctx context.Context, job *models.BatchJob) (*models.BatchJob, error) {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = models.BatchStatusPending
	}
	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now

	query := `
		INSERT INTO batch_jobs (` + batchColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		) RETURNING id, created_at, updated_at`

	err := r.db.Pool().QueryRow(ctx, query,
		job.ID, job.InputType, job.Status, job.FileName, job.TotalRows, job.ProcessedRows,
		job.FailedRows, job.MaliciousCount, job.ErrorMessage, job.StartedAt, job.CompletedAt,
		job.CreatedAt, job.UpdatedAt,
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create batch job: %w", err)
	}

	return job, nil
}

// GetByID retrieves a batch job by ID. Returns ErrNotFound when no job
// exists with that ID.
func (r *BatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BatchJob, error) {
	query := `SELECT ` + batchColumns + ` FROM batch_jobs WHERE id = $1`

	job, err := r.scanJob(r.db.Pool().QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// List retrieves batch jobs, newest first
func (r *BatchRepository) List(ctx context.Context, limit, offset int) ([]*models.BatchJob, int64, error) {
	var total int64
	if err := r.db.Pool().QueryRow(ctx, "SELECT COUNT(*) FROM batch_jobs").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count batch jobs: %w", err)
	}

	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + batchColumns + ` FROM batch_jobs ORDER BY created_at DESC` +
		fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list batch jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.BatchJob
	for rows.Next() {
		job, err := r.scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, job)
	}

	return jobs, total, nil
}

// MarkProcessing transitions a pending job to processing
func (r *BatchRepository) MarkProcessing(ctx context.Context, id uuid.UUID, totalRows int) error {
	query := `
		UPDATE batch_jobs SET
			status = $2, total_rows = $3, started_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $4`

	tag, err := r.db.Pool().Exec(ctx, query, id, models.BatchStatusProcessing, totalRows, models.BatchStatusPending)
	if err != nil {
		return fmt.Errorf("failed to mark batch job processing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("batch job %s is not pending", id)
	}
	return nil
}

// UpdateProgress records row counters for a running job
func (r *BatchRepository) UpdateProgress(ctx context.Context, id uuid.UUID, processed, failed, malicious int) error {
	return updateProgress(ctx, r.db.Pool(), id, processed, failed, malicious)
}

// Finish transitions a job to a terminal state, recording the final row
// counters and status in one transaction so a crash between the two
// writes cannot leave a completed job with stale counters.
func (r *BatchRepository) Finish(ctx context.Context, id uuid.UUID, status models.BatchStatus, errorMessage string, processed, failed, malicious int) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := updateProgress(ctx, tx, id, processed, failed, malicious); err != nil {
			return err
		}

		query := `
			UPDATE batch_jobs SET
				status = $2, error_message = $3, completed_at = NOW(), updated_at = NOW()
			WHERE id = $1`

		if _, err := tx.Exec(ctx, query, id, status, errorMessage); err != nil {
			return fmt.Errorf("failed to finish batch job: %w", err)
		}
		return nil
	})
}

// Cancel marks a non-terminal job cancelled. Returns false when the job
// was already in a terminal state.
func (r *BatchRepository) Cancel(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE batch_jobs SET
			status = $2, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ($3, $4)`

	tag, err := r.db.Pool().Exec(ctx, query, id,
		models.BatchStatusCancelled, models.BatchStatusPending, models.BatchStatusProcessing)
	if err != nil {
		return false, fmt.Errorf("failed to cancel batch job: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// updateProgress runs against either the pool or a transaction
func updateProgress(ctx context.Context, q database.DBTX, id uuid.UUID, processed, failed, malicious int) error {
	query := `
		UPDATE batch_jobs SET
			processed_rows = $2, failed_rows = $3, malicious_count = $4, updated_at = NOW()
		WHERE id = $1`

	_, err := q.Exec(ctx, query, id, processed, failed, malicious)
	if err != nil {
		return fmt.Errorf("failed to update batch progress: %w", err)
	}
	return nil
}

func (r *BatchRepository) scanJob(row pgx.Row) (*models.BatchJob, error) {
	job := &models.BatchJob{}

	err := row.Scan(
		&job.ID, &job.InputType, &job.Status, &job.FileName, &job.TotalRows, &job.ProcessedRows,
		&job.FailedRows, &job.MaliciousCount, &job.ErrorMessage, &job.StartedAt, &job.CompletedAt,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan batch job: %w", err)
	}

	return job, nil
}
