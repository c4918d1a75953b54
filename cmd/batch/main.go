package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"phishguard/internal/batch"
	"phishguard/internal/config"
	"phishguard/internal/domain/models"
	"phishguard/internal/domain/services"
	"phishguard/pkg/logger"
)

func main() {
	var (
		inputPath  = flag.String("input", "", "input CSV file (required)")
		inputType  = flag.String("type", "", "input type: url, sms or email (required)")
		outputPath = flag.String("output", "results.csv", "output CSV file")
		configPath = flag.String("config", "", "config file path (optional)")
	)
	flag.Parse()

	if *inputPath == "" || *inputType == "" {
		flag.Usage()
		os.Exit(2)
	}

	kind := models.InputType(*inputType)
	switch kind {
	case models.InputTypeURL, models.InputTypeSMS, models.InputTypeEmail:
	default:
		fmt.Fprintf(os.Stderr, "invalid -type %q: must be url, sms or email\n", *inputType)
		os.Exit(2)
	}

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewDevelopment()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Build the analyzer with live enrichment, no cache or database
	extractor := services.NewIndicatorExtractor(cfg.Analysis)
	domainIntel := services.NewDomainIntelService(cfg.Enrichment, extractor, log)
	defer domainIntel.Close()
	sslInspector := services.NewSSLInspectService(cfg.Enrichment, log)

	analyzer, err := services.NewThreatAnalyzer(cfg.Analysis, domainIntel, sslInspector, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build threat analyzer")
	}

	verdicts := services.NewVerdictProvider(cfg.Classifier, log)
	processor := batch.NewProcessor(analyzer, verdicts, nil, nil, cfg.Batch, log)

	input, err := os.Open(*inputPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open input file")
	}
	defer input.Close()

	output, err := os.Create(*outputPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create output file")
	}
	defer output.Close()

	job := &models.BatchJob{
		ID:        uuid.New(),
		InputType: kind,
		Status:    models.BatchStatusPending,
		FileName:  *inputPath,
	}

	result, err := processor.Run(ctx, job, input, output)
	if err != nil {
		log.Fatal().Err(err).Msg("batch run failed")
	}

	for _, rowErr := range result.RowErrors {
		log.Warn().Int("row", rowErr.Row).Str("reason", rowErr.Reason).Msg("row skipped")
	}

	log.Info().
		Str("status", string(result.Job.Status)).
		Int("total", result.Job.TotalRows).
		Int("processed", result.Job.ProcessedRows).
		Int("failed", result.Job.FailedRows).
		Int("malicious", result.Job.MaliciousCount).
		Str("output", *outputPath).
		Msg("batch run finished")

	if result.Job.Status != models.BatchStatusCompleted {
		os.Exit(1)
	}
}
