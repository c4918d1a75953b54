package batch

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"phishguard/internal/config"
	"phishguard/internal/domain/models"
	"phishguard/internal/domain/services"
	"phishguard/pkg/logger"
)

// Column names expected in the input CSV, by input type.
const (
	ColumnEmail = "email_content"
	ColumnSMS   = "sms_content"
	ColumnURL   = "url"
)

// AssessmentStore persists individual row assessments. Nil disables
// persistence (CLI runs without a database).
type AssessmentStore interface {
	Create(ctx context.Context, rec *models.AssessmentRecord) (*models.AssessmentRecord, error)
}

// JobStore tracks batch job lifecycle. Nil keeps state in memory only.
// Finish records the final counters together with the terminal status.
type JobStore interface {
	MarkProcessing(ctx context.Context, id uuid.UUID, totalRows int) error
	UpdateProgress(ctx context.Context, id uuid.UUID, processed, failed, malicious int) error
	Finish(ctx context.Context, id uuid.UUID, status models.BatchStatus, errorMessage string, processed, failed, malicious int) error
}

// Processor fans CSV rows out to the analyzer through a worker pool
type Processor struct {
	analyzer    *services.ThreatAnalyzer
	verdicts    services.VerdictProvider
	assessments AssessmentStore
	jobs        JobStore
	cfg         config.BatchConfig
	logger      *logger.Logger
}

// NewProcessor creates a batch processor. assessments and jobs may be
// nil for store-less runs.
func NewProcessor(
	analyzer *services.ThreatAnalyzer,
	verdicts services.VerdictProvider,
	assessments AssessmentStore,
	jobs JobStore,
	cfg config.BatchConfig,
	log *logger.Logger,
) *Processor {
	return &Processor{
		analyzer:    analyzer,
		verdicts:    verdicts,
		assessments: assessments,
		jobs:        jobs,
		cfg:         cfg,
		logger:      log.WithComponent("batch-processor"),
	}
}

type rowJob struct {
	position int
	content  string
}

type rowResult struct {
	position   int
	assessment models.ThreatAssessment
	content    string
}

// Run processes the CSV on input, writes a results CSV to output and
// drives the job through its lifecycle. Validation failures and row
// errors are reported through the job and the returned BatchResult; an
// error return means the run itself could not proceed.
func (p *Processor) Run(ctx context.Context, job *models.BatchJob, input io.Reader, output io.Writer) (*models.BatchResult, error) {
	log := p.logger.WithBatchID(job.ID.String())

	rows, rowErrors, err := p.readRows(job.InputType, input)
	if err != nil {
		p.finish(ctx, job, models.BatchStatusFailed, err.Error())
		return nil, err
	}

	total := len(rows) + len(rowErrors)
	job.TotalRows = total
	if p.jobs != nil {
		if err := p.jobs.MarkProcessing(ctx, job.ID, total); err != nil {
			return nil, err
		}
	}
	now := time.Now()
	job.Status = models.BatchStatusProcessing
	job.StartedAt = &now

	log.Info().
		Str("input_type", string(job.InputType)).
		Int("rows", total).
		Msg("batch processing started")

	results := p.analyzeRows(ctx, job, rows)

	if err := p.writeResults(output, results); err != nil {
		p.finish(ctx, job, models.BatchStatusFailed, err.Error())
		return nil, fmt.Errorf("failed to write results: %w", err)
	}

	job.ProcessedRows = len(results)
	job.FailedRows = total - len(results)
	job.MaliciousCount = 0
	for _, res := range results {
		if res.assessment.Malicious {
			job.MaliciousCount++
		}
	}

	status := models.BatchStatusCompleted
	message := ""
	if ctx.Err() != nil {
		status = models.BatchStatusCancelled
		message = ctx.Err().Error()
	}
	p.finish(ctx, job, status, message)

	log.Info().
		Int("processed", job.ProcessedRows).
		Int("failed", job.FailedRows).
		Int("malicious", job.MaliciousCount).
		Str("status", string(job.Status)).
		Msg("batch processing finished")

	return &models.BatchResult{Job: job, RowErrors: rowErrors}, nil
}

// readRows parses the CSV, validates the required column and minimum
// content lengths, and splits rows into analyzable jobs and row errors.
func (p *Processor) readRows(inputType models.InputType, input io.Reader) ([]rowJob, []models.BatchRowError, error) {
	reader := csv.NewReader(input)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("empty input file")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	column, err := requiredColumn(inputType)
	if err != nil {
		return nil, nil, err
	}

	columnIdx := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), column) {
			columnIdx = i
			break
		}
	}
	if columnIdx < 0 {
		return nil, nil, fmt.Errorf("missing required column %q", column)
	}

	minLength := p.minLength(inputType)

	var rows []rowJob
	var rowErrors []models.BatchRowError
	position := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		position++
		if err != nil {
			rowErrors = append(rowErrors, models.BatchRowError{Row: position, Reason: err.Error()})
			continue
		}
		if p.cfg.MaxRows > 0 && position > p.cfg.MaxRows {
			return nil, nil, fmt.Errorf("input exceeds maximum of %d rows", p.cfg.MaxRows)
		}
		if columnIdx >= len(record) {
			rowErrors = append(rowErrors, models.BatchRowError{Row: position, Reason: fmt.Sprintf("missing %s value", column)})
			continue
		}
		content := strings.TrimSpace(record[columnIdx])
		if len(content) < minLength {
			rowErrors = append(rowErrors, models.BatchRowError{
				Row:    position,
				Reason: fmt.Sprintf("%s shorter than %d characters", column, minLength),
			})
			continue
		}
		rows = append(rows, rowJob{position: position, content: content})
	}

	if len(rows) == 0 && len(rowErrors) == 0 {
		return nil, nil, fmt.Errorf("no data rows in input file")
	}

	return rows, rowErrors, nil
}

// analyzeRows runs the worker pool over the validated rows
func (p *Processor) analyzeRows(ctx context.Context, job *models.BatchJob, rows []rowJob) []rowResult {
	workerCount := p.cfg.Workers
	if workerCount <= 0 {
		workerCount = 1
	}

	jobs := make(chan rowJob, len(rows))
	out := make(chan rowResult, len(rows))

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for row := range jobs {
				if ctx.Err() != nil {
					return
				}
				out <- p.analyzeRow(ctx, job, row)
			}
		}()
	}

	for _, row := range rows {
		jobs <- row
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(out)
	}()

	var results []rowResult
	processed := 0
	malicious := 0
	for res := range out {
		results = append(results, res)
		processed++
		if res.assessment.Malicious {
			malicious++
		}
		if p.jobs != nil && processed%100 == 0 {
			if err := p.jobs.UpdateProgress(ctx, job.ID, processed, 0, malicious); err != nil {
				p.logger.Warn().Err(err).Msg("failed to update batch progress")
			}
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].position < results[j].position
	})

	return results
}

func (p *Processor) analyzeRow(ctx context.Context, job *models.BatchJob, row rowJob) rowResult {
	start := time.Now()
	verdict := p.verdicts.Classify(ctx, job.InputType, row.content)

	var assessment models.ThreatAssessment
	switch job.InputType {
	case models.InputTypeEmail:
		assessment = p.analyzer.AnalyzeEmail(ctx, row.content, verdict)
	case models.InputTypeSMS:
		assessment = p.analyzer.AnalyzeSMS(ctx, row.content, verdict)
	default:
		assessment = p.analyzer.AnalyzeURL(ctx, row.content, verdict)
	}

	if p.assessments != nil {
		rec := assessment.NewRecord(row.content)
		rec.BatchID = &job.ID
		position := row.position
		rec.BatchPosition = &position
		rec.ProcessingTimeMs = time.Since(start).Milliseconds()
		if _, err := p.assessments.Create(ctx, rec); err != nil {
			p.logger.Warn().Int("row", row.position).Err(err).Msg("failed to persist assessment")
		}
	}

	return rowResult{position: row.position, assessment: assessment, content: row.content}
}

// writeResults emits the results CSV ordered by input row
func (p *Processor) writeResults(output io.Writer, results []rowResult) error {
	writer := csv.NewWriter(output)

	header := []string{"row", "content", "malicious", "risk_score", "risk_level", "threat_category"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, res := range results {
		record := []string{
			strconv.Itoa(res.position),
			res.content,
			strconv.FormatBool(res.assessment.Malicious),
			strconv.FormatFloat(res.assessment.RiskScore, 'f', 1, 64),
			string(res.assessment.RiskLevel),
			string(res.assessment.ThreatCategory),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func (p *Processor) finish(ctx context.Context, job *models.BatchJob, status models.BatchStatus, message string) {
	now := time.Now()
	job.Status = status
	job.ErrorMessage = message
	job.CompletedAt = &now

	if p.jobs != nil {
		// Use a fresh context so a cancelled run still records its state
		finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		err := p.jobs.Finish(finishCtx, job.ID, status, message,
			job.ProcessedRows, job.FailedRows, job.MaliciousCount)
		if err != nil {
			p.logger.Warn().Str("job_id", job.ID.String()).Err(err).Msg("failed to record batch job completion")
		}
	}
}

func requiredColumn(inputType models.InputType) (string, error) {
	switch inputType {
	case models.InputTypeEmail:
		return ColumnEmail, nil
	case models.InputTypeSMS:
		return ColumnSMS, nil
	case models.InputTypeURL:
		return ColumnURL, nil
	}
	return "", fmt.Errorf("unsupported input type %q", inputType)
}

func (p *Processor) minLength(inputType models.InputType) int {
	switch inputType {
	case models.InputTypeEmail:
		return p.cfg.MinEmailLength
	case models.InputTypeSMS:
		return p.cfg.MinSMSLength
	}
	return 1
}
