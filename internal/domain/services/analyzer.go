package services

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"phishguard/internal/config"
	"phishguard/internal/domain/models"
	"phishguard/pkg/logger"
)

// ThreatAnalyzer composes the pattern library, indicator extractor,
// scorer, classifier and enrichment providers into the three analysis
// entry points. Analyze methods never return an error: every failure
// mode degrades to a populated-but-partial assessment. The analyzer is
// stateless after construction and safe for concurrent use.
type ThreatAnalyzer struct {
	patterns   *PatternLibrary
	extractor  *IndicatorExtractor
	scorer     *RiskScorer
	classifier *ThreatClassifier
	intel      DomainIntel
	ssl        SSLInspector
	logger     *logger.Logger
}

// NewThreatAnalyzer validates the analysis configuration and builds the
// engine. Invalid pattern regexes, negative weights or unordered
// thresholds are construction errors; this is the only error path.
func NewThreatAnalyzer(cfg config.AnalysisConfig, intel DomainIntel, ssl SSLInspector, log *logger.Logger) (*ThreatAnalyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis config: %w", err)
	}

	patterns, err := NewPatternLibrary(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid analysis config: %w", err)
	}

	return &ThreatAnalyzer{
		patterns:   patterns,
		extractor:  NewIndicatorExtractor(cfg),
		scorer:     NewRiskScorer(cfg.Weights),
		classifier: NewThreatClassifier(cfg.Thresholds),
		intel:      intel,
		ssl:        ssl,
		logger:     log.WithComponent("threat-analyzer"),
	}, nil
}

// AnalyzeEmail assesses an email body against the verdict
func (a *ThreatAnalyzer) AnalyzeEmail(ctx context.Context, content string, verdict models.Verdict) models.ThreatAssessment {
	assessment := a.newAssessment(models.InputTypeEmail, verdict)

	matches := a.patterns.MatchEmail(content)
	signals := a.extractor.ExtractEmail(content)

	assessment.PatternMatches = matches
	assessment.Indicators = signals.Tags()
	assessment.RiskScore = a.scorer.ScoreEmail(verdict.Confidence, matches, signals)
	assessment.RiskLevel = a.classifier.RiskLevel(assessment.RiskScore)
	assessment.ThreatCategory = a.classifier.PrimaryCategory(matches)

	return assessment
}

// AnalyzeSMS assesses an SMS body against the verdict
func (a *ThreatAnalyzer) AnalyzeSMS(ctx context.Context, content string, verdict models.Verdict) models.ThreatAssessment {
	assessment := a.newAssessment(models.InputTypeSMS, verdict)

	matches := a.patterns.MatchSMS(content)
	indicators, urgency := a.extractor.ExtractSMS(content)

	assessment.PatternMatches = matches
	assessment.Indicators = indicators
	assessment.RiskScore = a.scorer.ScoreSMS(verdict.Confidence, matches, indicators, urgency)
	assessment.RiskLevel = a.classifier.RiskLevel(assessment.RiskScore)
	assessment.ThreatCategory = a.classifier.PrimaryCategory(matches)

	return assessment
}

// AnalyzeURL assesses a URL against the verdict, enriching it with
// domain intelligence and certificate inspection. Enrichment failures
// surface inside the sub-analyses; a malformed URL surfaces as a
// top-level error with the rest of the assessment left at defaults.
func (a *ThreatAnalyzer) AnalyzeURL(ctx context.Context, rawURL string, verdict models.Verdict) models.ThreatAssessment {
	assessment := a.newAssessment(models.InputTypeURL, verdict)
	assessment.RiskLevel = models.RiskLevelLow

	host, err := extractHost(rawURL)
	if err != nil {
		assessment.Error = err.Error()
		return assessment
	}

	domainAnalysis := a.intel.Analyze(ctx, host)
	sslAnalysis := a.ssl.Inspect(ctx, rawURL)
	indicators := a.extractor.ExtractURL(rawURL, host)

	assessment.Domain = domainAnalysis
	assessment.SSL = sslAnalysis
	assessment.Indicators = indicators
	assessment.RiskScore = a.scorer.ScoreURL(
		verdict.Confidence,
		domainAnalysis.AgeDays,
		sslAnalysis.Valid,
		indicators,
		domainAnalysis.Reputation,
	)
	assessment.RiskLevel = a.classifier.RiskLevel(assessment.RiskScore)
	assessment.ThreatCategory = a.classifier.URLCategory(indicators, domainAnalysis.AgeDays)

	return assessment
}

func (a *ThreatAnalyzer) newAssessment(inputType models.InputType, verdict models.Verdict) models.ThreatAssessment {
	return models.ThreatAssessment{
		ID:         uuid.New(),
		InputType:  inputType,
		Malicious:  verdict.Malicious,
		Confidence: verdict.Confidence,
		AnalyzedAt: time.Now().UTC(),
	}
}

func extractHost(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("invalid url: no host in %q", rawURL)
	}
	return host, nil
}
