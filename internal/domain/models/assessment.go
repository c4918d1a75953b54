package models

import (
	"time"

	"github.com/google/uuid"
)

// InputType identifies the kind of content being analyzed
type InputType string

const (
	InputTypeURL   InputType = "url"
	InputTypeSMS   InputType = "sms"
	InputTypeEmail InputType = "email"
)

// RiskLevel buckets a risk score into an operator-facing severity
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "Low"
	RiskLevelMedium   RiskLevel = "Medium"
	RiskLevelHigh     RiskLevel = "High"
	RiskLevelCritical RiskLevel = "Critical"
)

// ThreatCategory labels the dominant threat theme of an assessment
type ThreatCategory string

const (
	CategoryFinancialFraud      ThreatCategory = "financial_fraud"
	CategoryCredentialTheft     ThreatCategory = "credential_theft"
	CategoryMalwareDistribution ThreatCategory = "malware_distribution"
	CategorySocialEngineering   ThreatCategory = "social_engineering"
	CategorySuspiciousActivity  ThreatCategory = "suspicious_activity"
	CategoryUnknown             ThreatCategory = "Unknown"
)

// CategoryPriority orders categories for tie-breaking when two categories
// match the same number of patterns; lower index wins
var CategoryPriority = []ThreatCategory{
	CategoryFinancialFraud,
	CategoryCredentialTheft,
	CategoryMalwareDistribution,
	CategorySocialEngineering,
}

// Verdict is the upstream classifier's call on a piece of content
type Verdict struct {
	Malicious  bool    `json:"malicious"`
	Confidence float64 `json:"confidence"` // percentage in [0,100]
	Label      string  `json:"label,omitempty"`
}

// PatternMatch records a signature pattern that fired on the content
type PatternMatch struct {
	Category    ThreatCategory `json:"category"`
	Pattern     string         `json:"pattern"`
	MatchedText string         `json:"matched_text"`
}

// DomainAnalysis holds best-effort intelligence about a URL's host.
// Error is set when a lookup failed; the remaining fields always carry
// usable defaults (AgeDays stays 0 when registration data is unknown).
type DomainAnalysis struct {
	Domain      string     `json:"domain"`
	AgeDays     int        `json:"age_days"`
	Registrar   string     `json:"registrar,omitempty"`
	Country     string     `json:"country,omitempty"`
	City        string     `json:"city,omitempty"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	ResolvedIPs []string   `json:"resolved_ips,omitempty"`
	Reputation  float64    `json:"reputation_score"` // clamped to [-100,100]
	Error       string     `json:"error,omitempty"`
}

// SSLAnalysis holds the result of a single TLS handshake against the host
type SSLAnalysis struct {
	Valid      bool       `json:"valid"`
	Issuer     string     `json:"issuer,omitempty"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// ThreatAssessment is the enriched result of analyzing one input
type ThreatAssessment struct {
	ID             uuid.UUID       `json:"id"`
	InputType      InputType       `json:"input_type"`
	Malicious      bool            `json:"malicious"`
	Confidence     float64         `json:"confidence"`
	RiskScore      float64         `json:"risk_score"` // clamped to [0,100]
	RiskLevel      RiskLevel       `json:"risk_level"`
	ThreatCategory ThreatCategory  `json:"threat_category"`
	PatternMatches []PatternMatch  `json:"pattern_matches,omitempty"`
	Indicators     []string        `json:"indicators,omitempty"`
	Domain         *DomainAnalysis `json:"domain_analysis,omitempty"`
	SSL            *SSLAnalysis    `json:"ssl_analysis,omitempty"`
	Error          string          `json:"error,omitempty"`
	AnalyzedAt     time.Time       `json:"analyzed_at"`
}

// AssessmentRecord is the persisted form of a ThreatAssessment with
// batch linkage and timing for auditing
type AssessmentRecord struct {
	ID               uuid.UUID      `json:"id"`
	InputType        InputType      `json:"input_type"`
	ContentPreview   string         `json:"content_preview"`
	Malicious        bool           `json:"malicious"`
	Confidence       float64        `json:"confidence"`
	RiskScore        float64        `json:"risk_score"`
	RiskLevel        RiskLevel      `json:"risk_level"`
	ThreatCategory   ThreatCategory `json:"threat_category"`
	PatternMatches   []PatternMatch `json:"pattern_matches,omitempty"`
	Indicators       []string       `json:"indicators,omitempty"`
	Domain           *string        `json:"domain,omitempty"`
	DomainAgeDays    *int           `json:"domain_age_days,omitempty"`
	Country          *string        `json:"country,omitempty"`
	Registrar        *string        `json:"registrar,omitempty"`
	SSLValid         *bool          `json:"ssl_valid,omitempty"`
	BatchID          *uuid.UUID     `json:"batch_id,omitempty"`
	BatchPosition    *int           `json:"batch_position,omitempty"`
	ProcessingTimeMs int64          `json:"processing_time_ms"`
	CreatedAt        time.Time      `json:"created_at"`
}

// AssessmentFilter narrows assessment history queries
type AssessmentFilter struct {
	InputType *InputType
	RiskLevel *RiskLevel
	Malicious *bool
	BatchID   *uuid.UUID
	Limit     int
	Offset    int
}

// AssessmentStats aggregates assessment history for dashboards
type AssessmentStats struct {
	TotalCount     int64                    `json:"total_count"`
	MaliciousCount int64                    `json:"malicious_count"`
	AvgRiskScore   float64                  `json:"avg_risk_score"`
	ByLevel        map[RiskLevel]int64      `json:"by_level"`
	ByCategory     map[ThreatCategory]int64 `json:"by_category"`
	ByInputType    map[InputType]int64      `json:"by_input_type"`
}

// NewRecord converts an assessment into its persisted form. Content is
// truncated to keep previews bounded.
func (a *ThreatAssessment) NewRecord(content string) *AssessmentRecord {
	const previewLimit = 500
	if len(content) > previewLimit {
		content = content[:previewLimit]
	}

	rec := &AssessmentRecord{
		ID:             a.ID,
		InputType:      a.InputType,
		ContentPreview: content,
		Malicious:      a.Malicious,
		Confidence:     a.Confidence,
		RiskScore:      a.RiskScore,
		RiskLevel:      a.RiskLevel,
		ThreatCategory: a.ThreatCategory,
		PatternMatches: a.PatternMatches,
		Indicators:     a.Indicators,
		CreatedAt:      a.AnalyzedAt,
	}

	if a.Domain != nil {
		rec.Domain = &a.Domain.Domain
		rec.DomainAgeDays = &a.Domain.AgeDays
		rec.Country = &a.Domain.Country
		rec.Registrar = &a.Domain.Registrar
	}
	if a.SSL != nil {
		rec.SSLValid = &a.SSL.Valid
	}

	return rec
}
