package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"phishguard/internal/domain/models"
	"phishguard/internal/infrastructure/database"
)

// AssessmentRepository handles assessment history persistence
type AssessmentRepository struct {
	db *database.PostgresDB
}

// NewAssessmentRepository creates a new assessment repository
func NewAssessmentRepository(db *database.PostgresDB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

const assessmentColumns = `
	id, input_type, content_preview, malicious, confidence,
	risk_score, risk_level, threat_category, pattern_matches, indicators,
	domain, domain_age_days, country, registrar, ssl_valid,
	batch_id, batch_position, processing_time_ms, created_at`

// Create inserts a new assessment record
func (r *AssessmentRepository) Create(ctx context.Context, rec *models.AssessmentRecord) (*models.AssessmentRecord, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	matches, err := json.Marshal(rec.PatternMatches)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pattern matches: %w", err)
	}

	query := `
		INSERT INTO assessments (` + assessmentColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19
		) RETURNING id, created_at`

	err = r.db.Pool().QueryRow(ctx, query,
		rec.ID, rec.InputType, rec.ContentPreview, rec.Malicious, rec.Confidence,
		rec.RiskScore, rec.RiskLevel, rec.ThreatCategory, matches, rec.Indicators,
		rec.Domain, rec.DomainAgeDays, rec.Country, rec.Registrar, rec.SSLValid,
		rec.BatchID, rec.BatchPosition, rec.ProcessingTimeMs, rec.CreatedAt,
	).Scan(&rec.ID, &rec.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create assessment: %w", err)
	}

	return rec, nil
}

// GetByID retrieves an assessment by ID. Returns ErrNotFound when no
// record exists with that ID.
func (r *AssessmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AssessmentRecord, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE id = $1`

	rec, err := r.scanAssessment(r.db.Pool().QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// List retrieves assessments matching the filter, newest first
func (r *AssessmentRepository) List(ctx context.Context, filter models.AssessmentFilter) ([]*models.AssessmentRecord, int64, error) {
	where := ""
	args := []any{}
	argN := 0

	addCond := func(cond string, value any) {
		argN++
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf(cond, argN)
		args = append(args, value)
	}

	if filter.InputType != nil {
		addCond("input_type = $%d", *filter.InputType)
	}
	if filter.RiskLevel != nil {
		addCond("risk_level = $%d", *filter.RiskLevel)
	}
	if filter.Malicious != nil {
		addCond("malicious = $%d", *filter.Malicious)
	}
	if filter.BatchID != nil {
		addCond("batch_id = $%d", *filter.BatchID)
	}

	var total int64
	if err := r.db.Pool().QueryRow(ctx, "SELECT COUNT(*) FROM assessments"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count assessments: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + assessmentColumns + ` FROM assessments` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", limit, filter.Offset)

	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	var records []*models.AssessmentRecord
	for rows.Next() {
		rec, err := r.scanAssessment(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}

	return records, total, nil
}

// GetStats returns aggregate assessment statistics
func (r *AssessmentRepository) GetStats(ctx context.Context) (*models.AssessmentStats, error) {
	stats := &models.AssessmentStats{
		ByLevel:     make(map[models.RiskLevel]int64),
		ByCategory:  make(map[models.ThreatCategory]int64),
		ByInputType: make(map[models.InputType]int64),
	}

	err := r.db.Pool().QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE malicious),
			COALESCE(AVG(risk_score), 0)
		FROM assessments
	`).Scan(&stats.TotalCount, &stats.MaliciousCount, &stats.AvgRiskScore)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment stats: %w", err)
	}

	if err := r.aggregateCounts(ctx, "risk_level", func(key string, count int64) {
		stats.ByLevel[models.RiskLevel(key)] = count
	}); err != nil {
		return nil, err
	}
	if err := r.aggregateCounts(ctx, "threat_category", func(key string, count int64) {
		stats.ByCategory[models.ThreatCategory(key)] = count
	}); err != nil {
		return nil, err
	}
	if err := r.aggregateCounts(ctx, "input_type", func(key string, count int64) {
		stats.ByInputType[models.InputType(key)] = count
	}); err != nil {
		return nil, err
	}

	return stats, nil
}

// DeleteOlderThan removes assessments created before the cutoff.
// Returns the number of rows deleted.
func (r *AssessmentRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Pool().Exec(ctx, `DELETE FROM assessments WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old assessments: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *AssessmentRepository) aggregateCounts(ctx context.Context, column string, collect func(key string, count int64)) error {
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*)
		FROM assessments
		WHERE %s <> ''
		GROUP BY %s`, column, column, column)

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to aggregate %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("failed to scan %s aggregate: %w", column, err)
		}
		collect(key, count)
	}

	return rows.Err()
}

func (r *AssessmentRepository) scanAssessment(row pgx.Row) (*models.AssessmentRecord, error) {
	rec := &models.AssessmentRecord{}
	var matches []byte

	err := row.Scan(
		&rec.ID, &rec.InputType, &rec.ContentPreview, &rec.Malicious, &rec.Confidence,
		&rec.RiskScore, &rec.RiskLevel, &rec.ThreatCategory, &matches, &rec.Indicators,
		&rec.Domain, &rec.DomainAgeDays, &rec.Country, &rec.Registrar, &rec.SSLValid,
		&rec.BatchID, &rec.BatchPosition, &rec.ProcessingTimeMs, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan assessment: %w", err)
	}

	if len(matches) > 0 {
		if err := json.Unmarshal(matches, &rec.PatternMatches); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pattern matches: %w", err)
		}
	}

	return rec, nil
}
