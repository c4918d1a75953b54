package services

import (
	"testing"

	"phishguard/internal/domain/models"
)

func testScorer() *RiskScorer {
	return NewRiskScorer(testAnalysisConfig().Weights)
}

func matchesOf(categories ...models.ThreatCategory) []models.PatternMatch {
	matches := make([]models.PatternMatch, len(categories))
	for i, cat := range categories {
		matches[i] = models.PatternMatch{Category: cat, Pattern: "p", MatchedText: "m"}
	}
	return matches
}

func TestScoreEmail(t *testing.T) {
	scorer := testScorer()

	tests := []struct {
		name       string
		confidence float64
		matches    []models.PatternMatch
		signals    EmailSignals
		want       float64
	}{
		{
			name:       "confidence only",
			confidence: 40,
			want:       40,
		},
		{
			name:       "one financial match",
			confidence: 10,
			matches:    matchesOf(models.CategoryFinancialFraud),
			want:       10 + 15 + 10,
		},
		{
			name:       "non-financial match has no fraud bonus",
			confidence: 10,
			matches:    matchesOf(models.CategorySocialEngineering),
			want:       10 + 15,
		},
		{
			name:       "all signals",
			confidence: 20,
			signals:    EmailSignals{Urgency: true, Money: true, LongContent: true},
			want:       20 + 20 + 15 + 5,
		},
		{
			name:       "clamped to 100",
			confidence: 70,
			matches:    matchesOf(models.CategoryFinancialFraud, models.CategoryFinancialFraud),
			signals:    EmailSignals{Urgency: true, Money: true},
			want:       100,
		},
		{
			name:       "zero floor",
			confidence: 0,
			want:       0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.ScoreEmail(tt.confidence, tt.matches, tt.signals)
			if got != tt.want {
				t.Errorf("ScoreEmail = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreSMS(t *testing.T) {
	scorer := testScorer()

	tests := []struct {
		name       string
		confidence float64
		matches    []models.PatternMatch
		indicators []string
		urgency    bool
		want       float64
	}{
		{
			name:       "confidence only",
			confidence: 30,
			want:       30,
		},
		{
			name:       "one match two indicators with urgency",
			confidence: 60,
			matches:    matchesOf(models.CategorySocialEngineering),
			indicators: []string{IndicatorClickHere, IndicatorMoneyMention},
			urgency:    true,
			want:       100, // 60 + 20 + 16 + 15 = 111, clamped
		},
		{
			name:       "indicators without urgency",
			confidence: 10,
			indicators: []string{IndicatorLongMessage},
			want:       10 + 8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.ScoreSMS(tt.confidence, tt.matches, tt.indicators, tt.urgency)
			if got != tt.want {
				t.Errorf("ScoreSMS = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreURL(t *testing.T) {
	scorer := testScorer()

	tests := []struct {
		name       string
		confidence float64
		ageDays    int
		sslValid   bool
		indicators []string
		reputation float64
		want       float64
	}{
		{
			name:       "established domain with ssl",
			confidence: 10,
			ageDays:    1000,
			sslValid:   true,
			reputation: 30,
			want:       10,
		},
		{
			name:       "unknown age scores as brand new",
			confidence: 10,
			ageDays:    0,
			sslValid:   true,
			want:       10 + 25,
		},
		{
			name:       "age under 90",
			confidence: 10,
			ageDays:    60,
			sslValid:   true,
			want:       10 + 15,
		},
		{
			name:       "age under 365",
			confidence: 10,
			ageDays:    200,
			sslValid:   true,
			want:       10 + 5,
		},
		{
			name:       "no ssl penalty",
			confidence: 10,
			ageDays:    1000,
			sslValid:   false,
			want:       10 + 20,
		},
		{
			name:       "negative reputation adds risk",
			confidence: 10,
			ageDays:    1000,
			sslValid:   true,
			reputation: -50,
			want:       10 + 50,
		},
		{
			name:       "positive reputation never subtracts",
			confidence: 50,
			ageDays:    1000,
			sslValid:   true,
			reputation: 100,
			want:       50,
		},
		{
			name:       "indicators stack",
			confidence: 10,
			ageDays:    1000,
			sslValid:   true,
			indicators: []string{IndicatorLongURL, IndicatorSpecialChars, IndicatorIPInURL},
			want:       10 + 30,
		},
		{
			name:       "everything clamps at 100",
			confidence: 40,
			ageDays:    5,
			sslValid:   false,
			indicators: []string{IndicatorShortener, IndicatorSpecialChars},
			reputation: -70,
			want:       100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.ScoreURL(tt.confidence, tt.ageDays, tt.sslValid, tt.indicators, tt.reputation)
			if got != tt.want {
				t.Errorf("ScoreURL = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		value, min, max, want float64
	}{
		{-5, 0, 100, 0},
		{150, 0, 100, 100},
		{42, 0, 100, 42},
		{-200, -100, 100, -100},
	}

	for _, tt := range tests {
		if got := clamp(tt.value, tt.min, tt.max); got != tt.want {
			t.Errorf("clamp(%v, %v, %v) = %v, want %v", tt.value, tt.min, tt.max, got, tt.want)
		}
	}
}
