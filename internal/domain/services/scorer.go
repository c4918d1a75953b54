package services

import (
	"phishguard/internal/config"
	"phishguard/internal/domain/models"
)

// RiskScorer combines classifier confidence, pattern matches, indicators
// and enrichment signals into a bounded risk score per input type. The
// additive model is intentionally simple so analysts can audit why a
// score was assigned.
type RiskScorer struct {
	weights config.WeightsConfig
}

// NewRiskScorer creates a scorer with the given weights
func NewRiskScorer(weights config.WeightsConfig) *RiskScorer {
	return &RiskScorer{weights: weights}
}

// ScoreEmail computes the email risk score, clamped to [0,100]
func (s *RiskScorer) ScoreEmail(confidence float64, matches []models.PatternMatch, signals EmailSignals) float64 {
	w := s.weights.Email
	score := confidence

	score += w.PerPattern * float64(len(matches))
	if len(matches) > 0 {
		var financial int
		for _, m := range matches {
			if m.Category == models.CategoryFinancialFraud {
				financial++
			}
		}
		score += w.PerFinancial * float64(financial)
	}

	if signals.Urgency {
		score += w.Urgency
	}
	if signals.Money {
		score += w.Money
	}
	if signals.LongContent {
		score += w.LongContent
	}

	return clamp(score, 0, 100)
}

// ScoreSMS computes the SMS risk score, clamped to [0,100]
func (s *RiskScorer) ScoreSMS(confidence float64, matches []models.PatternMatch, indicators []string, urgency bool) float64 {
	w := s.weights.SMS
	score := confidence

	score += w.PerPattern * float64(len(matches))
	score += w.PerIndicator * float64(len(indicators))
	if urgency {
		score += w.Urgency
	}

	return clamp(score, 0, 100)
}

// ScoreURL computes the URL risk score, clamped to [0,100]. A negative
// domain reputation adds risk; a positive one never subtracts.
func (s *RiskScorer) ScoreURL(confidence float64, ageDays int, sslValid bool, indicators []string, reputation float64) float64 {
	w := s.weights.URL
	score := confidence

	switch {
	case ageDays < 30:
		score += w.AgeUnder30
	case ageDays < 90:
		score += w.AgeUnder90
	case ageDays < 365:
		score += w.AgeUnder365
	}

	if !sslValid {
		score += w.NoSSL
	}

	score += w.PerIndicator * float64(len(indicators))

	if reputation < 0 {
		score += -reputation
	}

	return clamp(score, 0, 100)
}

// clamp clamps a value between min and max
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
