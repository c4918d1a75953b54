package services

import (
	"context"
	"testing"

	"phishguard/internal/config"
	"phishguard/internal/domain/models"
	"phishguard/pkg/logger"
)

type fakeDomainIntel struct {
	analysis models.DomainAnalysis
}

func (f *fakeDomainIntel) Analyze(_ context.Context, domain string) *models.DomainAnalysis {
	a := f.analysis
	a.Domain = domain
	return &a
}

type fakeSSLInspector struct {
	analysis models.SSLAnalysis
}

func (f *fakeSSLInspector) Inspect(_ context.Context, _ string) *models.SSLAnalysis {
	a := f.analysis
	return &a
}

func testAnalyzer(t *testing.T, intel DomainIntel, ssl SSLInspector) *ThreatAnalyzer {
	t.Helper()
	if intel == nil {
		intel = &fakeDomainIntel{analysis: models.DomainAnalysis{AgeDays: 1000, Reputation: 30}}
	}
	if ssl == nil {
		ssl = &fakeSSLInspector{analysis: models.SSLAnalysis{Valid: true}}
	}
	analyzer, err := NewThreatAnalyzer(testAnalysisConfig(), intel, ssl, logger.NewDefault())
	if err != nil {
		t.Fatalf("NewThreatAnalyzer: %v", err)
	}
	return analyzer
}

func TestNewThreatAnalyzerValidatesConfig(t *testing.T) {
	intel := &fakeDomainIntel{}
	ssl := &fakeSSLInspector{}
	log := logger.NewDefault()

	tests := []struct {
		name   string
		mutate func(*config.AnalysisConfig)
	}{
		{
			name: "unordered thresholds",
			mutate: func(cfg *config.AnalysisConfig) {
				cfg.Thresholds.Medium = 90
			},
		},
		{
			name: "negative weight",
			mutate: func(cfg *config.AnalysisConfig) {
				cfg.Weights.Email.Urgency = -1
			},
		},
		{
			name: "invalid pattern regex",
			mutate: func(cfg *config.AnalysisConfig) {
				cfg.SMSPatterns = map[string][]string{"financial_fraud": {"("}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testAnalysisConfig()
			tt.mutate(&cfg)
			if _, err := NewThreatAnalyzer(cfg, intel, ssl, log); err == nil {
				t.Fatal("expected construction error, got nil")
			}
		})
	}
}

func TestAnalyzeEmailHighRisk(t *testing.T) {
	analyzer := testAnalyzer(t, nil, nil)

	content := "URGENT: Your bank account suspended. Verify immediately."
	assessment := analyzer.AnalyzeEmail(context.Background(), content, models.Verdict{Malicious: true, Confidence: 70})

	// 70 + 15 (pattern) + 10 (financial) + 20 (urgency) + 15 (money), clamped
	if assessment.RiskScore != 100 {
		t.Errorf("RiskScore = %v, want 100", assessment.RiskScore)
	}
	if assessment.RiskLevel != models.RiskLevelCritical {
		t.Errorf("RiskLevel = %q, want Critical", assessment.RiskLevel)
	}
	if assessment.ThreatCategory != models.CategoryFinancialFraud {
		t.Errorf("ThreatCategory = %q, want financial_fraud", assessment.ThreatCategory)
	}
	if !assessment.Malicious {
		t.Error("Malicious flag should carry through from the verdict")
	}
	if assessment.InputType != models.InputTypeEmail {
		t.Errorf("InputType = %q, want email", assessment.InputType)
	}
	if len(assessment.PatternMatches) != 1 {
		t.Errorf("got %d pattern matches, want 1", len(assessment.PatternMatches))
	}
	if assessment.Error != "" {
		t.Errorf("unexpected error %q", assessment.Error)
	}
	if assessment.Domain != nil || assessment.SSL != nil {
		t.Error("email assessments should carry no URL enrichment")
	}
}

func TestAnalyzeEmailCleanContent(t *testing.T) {
	analyzer := testAnalyzer(t, nil, nil)

	assessment := analyzer.AnalyzeEmail(context.Background(), "Lunch on Friday?", models.Verdict{Confidence: 10})

	if assessment.RiskScore != 10 {
		t.Errorf("RiskScore = %v, want 10", assessment.RiskScore)
	}
	if assessment.RiskLevel != models.RiskLevelLow {
		t.Errorf("RiskLevel = %q, want Low", assessment.RiskLevel)
	}
	if assessment.ThreatCategory != models.CategoryUnknown {
		t.Errorf("ThreatCategory = %q, want Unknown", assessment.ThreatCategory)
	}
}

func TestAnalyzeSMSHighRisk(t *testing.T) {
	analyzer := testAnalyzer(t, nil, nil)

	content := "You won! Claim now, click here"
	assessment := analyzer.AnalyzeSMS(context.Background(), content, models.Verdict{Malicious: true, Confidence: 60})

	// 60 + 20 (pattern) + 8 (click_here) + 15 (urgency) = 103, clamped
	if assessment.RiskScore != 100 {
		t.Errorf("RiskScore = %v, want 100", assessment.RiskScore)
	}
	if assessment.RiskLevel != models.RiskLevelCritical {
		t.Errorf("RiskLevel = %q, want Critical", assessment.RiskLevel)
	}
	if assessment.ThreatCategory != models.CategorySocialEngineering {
		t.Errorf("ThreatCategory = %q, want social_engineering", assessment.ThreatCategory)
	}
}

func TestAnalyzeURLWithIPHost(t *testing.T) {
	intel := &fakeDomainIntel{analysis: models.DomainAnalysis{AgeDays: 0, Reputation: -20}}
	ssl := &fakeSSLInspector{analysis: models.SSLAnalysis{Valid: false}}
	analyzer := testAnalyzer(t, intel, ssl)

	assessment := analyzer.AnalyzeURL(context.Background(), "http://192.168.1.1/login", models.Verdict{Confidence: 40})

	// 40 + 25 (unknown age) + 20 (no ssl) + 10 (ip_in_url) + 20 (reputation), clamped
	if assessment.RiskScore != 100 {
		t.Errorf("RiskScore = %v, want 100", assessment.RiskScore)
	}
	if assessment.RiskLevel != models.RiskLevelCritical {
		t.Errorf("RiskLevel = %q, want Critical", assessment.RiskLevel)
	}
	if assessment.ThreatCategory != models.CategoryCredentialTheft {
		t.Errorf("ThreatCategory = %q, want credential_theft", assessment.ThreatCategory)
	}
	if assessment.Domain == nil || assessment.Domain.Domain != "192.168.1.1" {
		t.Errorf("Domain analysis = %+v, want host 192.168.1.1", assessment.Domain)
	}
	if assessment.SSL == nil || assessment.SSL.Valid {
		t.Errorf("SSL analysis = %+v, want invalid", assessment.SSL)
	}
}

func TestAnalyzeURLEstablishedDomain(t *testing.T) {
	analyzer := testAnalyzer(t, nil, nil)

	assessment := analyzer.AnalyzeURL(context.Background(), "https://example.com/page", models.Verdict{Confidence: 10})

	if assessment.RiskScore != 10 {
		t.Errorf("RiskScore = %v, want 10", assessment.RiskScore)
	}
	if assessment.RiskLevel != models.RiskLevelLow {
		t.Errorf("RiskLevel = %q, want Low", assessment.RiskLevel)
	}
	if assessment.ThreatCategory != models.CategorySuspiciousActivity {
		t.Errorf("ThreatCategory = %q, want suspicious_activity", assessment.ThreatCategory)
	}
}

func TestAnalyzeURLShortener(t *testing.T) {
	intel := &fakeDomainIntel{analysis: models.DomainAnalysis{AgeDays: 1000, Reputation: -20}}
	analyzer := testAnalyzer(t, intel, nil)

	assessment := analyzer.AnalyzeURL(context.Background(), "https://bit.ly/x", models.Verdict{Confidence: 10})

	if assessment.ThreatCategory != models.CategoryMalwareDistribution {
		t.Errorf("ThreatCategory = %q, want malware_distribution", assessment.ThreatCategory)
	}
	// 10 + 10 (shortener indicator) + 20 (reputation)
	if assessment.RiskScore != 40 {
		t.Errorf("RiskScore = %v, want 40", assessment.RiskScore)
	}
	if assessment.RiskLevel != models.RiskLevelMedium {
		t.Errorf("RiskLevel = %q, want Medium", assessment.RiskLevel)
	}
}

func TestAnalyzeURLMalformed(t *testing.T) {
	analyzer := testAnalyzer(t, nil, nil)

	tests := []string{
		"://missing-scheme",
		"not a url at all",
		"",
	}

	for _, rawURL := range tests {
		t.Run(rawURL, func(t *testing.T) {
			assessment := analyzer.AnalyzeURL(context.Background(), rawURL, models.Verdict{Confidence: 80})

			if assessment.Error == "" {
				t.Fatal("expected top-level error for malformed URL")
			}
			if assessment.RiskScore != 0 {
				t.Errorf("RiskScore = %v, want 0", assessment.RiskScore)
			}
			if assessment.RiskLevel != models.RiskLevelLow {
				t.Errorf("RiskLevel = %q, want Low", assessment.RiskLevel)
			}
			if assessment.Domain != nil || assessment.SSL != nil {
				t.Error("malformed URL should not be enriched")
			}
		})
	}
}

func TestAnalyzeURLEnrichmentFailureDegrades(t *testing.T) {
	intel := &fakeDomainIntel{analysis: models.DomainAnalysis{
		AgeDays:    0,
		Reputation: -20,
		Error:      "whois: connection refused",
	}}
	ssl := &fakeSSLInspector{analysis: models.SSLAnalysis{Valid: false, Error: "dial timeout"}}
	analyzer := testAnalyzer(t, intel, ssl)

	assessment := analyzer.AnalyzeURL(context.Background(), "https://example.com", models.Verdict{Confidence: 10})

	// Enrichment failures stay inside the sub-analyses
	if assessment.Error != "" {
		t.Errorf("top-level error = %q, want empty", assessment.Error)
	}
	if assessment.Domain.Error == "" {
		t.Error("domain analysis should carry its lookup error")
	}
	if assessment.SSL.Error == "" {
		t.Error("ssl analysis should carry its inspection error")
	}
	// 10 + 25 (unknown age) + 20 (no ssl) + 20 (reputation)
	if assessment.RiskScore != 75 {
		t.Errorf("RiskScore = %v, want 75", assessment.RiskScore)
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	analyzer := testAnalyzer(t, nil, nil)
	ctx := context.Background()
	verdict := models.Verdict{Malicious: true, Confidence: 55}
	content := "urgent: reset password urgent, account locked verify"

	first := analyzer.AnalyzeEmail(ctx, content, verdict)
	for i := 0; i < 10; i++ {
		again := analyzer.AnalyzeEmail(ctx, content, verdict)
		if again.RiskScore != first.RiskScore ||
			again.RiskLevel != first.RiskLevel ||
			again.ThreatCategory != first.ThreatCategory ||
			len(again.PatternMatches) != len(first.PatternMatches) {
			t.Fatalf("run %d differs: %+v vs %+v", i, again, first)
		}
	}
}
