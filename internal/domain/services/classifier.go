package services

import (
	"phishguard/internal/config"
	"phishguard/internal/domain/models"
)

// ThreatClassifier maps risk scores to levels and detected signals to a
// primary threat category
type ThreatClassifier struct {
	thresholds config.ThresholdsConfig
}

// NewThreatClassifier creates a classifier with the given thresholds
func NewThreatClassifier(thresholds config.ThresholdsConfig) *ThreatClassifier {
	return &ThreatClassifier{thresholds: thresholds}
}

// RiskLevel buckets a score, evaluated highest-first
func (c *ThreatClassifier) RiskLevel(score float64) models.RiskLevel {
	switch {
	case score >= c.thresholds.Critical:
		return models.RiskLevelCritical
	case score >= c.thresholds.High:
		return models.RiskLevelHigh
	case score >= c.thresholds.Medium:
		return models.RiskLevelMedium
	default:
		return models.RiskLevelLow
	}
}

// PrimaryCategory tallies matched-pattern categories and returns the most
// frequent one. Ties break by the fixed category priority order so the
// result never depends on map iteration. No matches means Unknown.
func (c *ThreatClassifier) PrimaryCategory(matches []models.PatternMatch) models.ThreatCategory {
	if len(matches) == 0 {
		return models.CategoryUnknown
	}

	counts := make(map[models.ThreatCategory]int, len(matches))
	for _, m := range matches {
		counts[m.Category]++
	}

	best := models.CategoryUnknown
	bestCount := 0
	for _, cat := range models.CategoryPriority {
		if counts[cat] > bestCount {
			best = cat
			bestCount = counts[cat]
		}
	}

	// Custom categories from config overrides still win on strict majority
	for _, m := range matches {
		if counts[m.Category] > bestCount {
			best = m.Category
			bestCount = counts[m.Category]
		}
	}

	return best
}

// URLCategory derives the category for URL inputs from indicators with
// explicit precedence, overriding pattern tallying
func (c *ThreatClassifier) URLCategory(indicators []string, ageDays int) models.ThreatCategory {
	has := func(tag string) bool {
		for _, ind := range indicators {
			if ind == tag {
				return true
			}
		}
		return false
	}

	switch {
	case has(IndicatorShortener) || has(IndicatorBadTLD):
		return models.CategoryMalwareDistribution
	case has(IndicatorIPInURL):
		return models.CategoryCredentialTheft
	case ageDays < 30:
		return models.CategoryFinancialFraud
	default:
		return models.CategorySuspiciousActivity
	}
}
