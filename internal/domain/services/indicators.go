package services

import (
	"net"
	"regexp"
	"strings"

	"phishguard/internal/config"
)

// Indicator tags reported by the extractor
const (
	IndicatorUrgency      = "urgency_language"
	IndicatorMoney        = "money_mentions"
	IndicatorLongContent  = "long_content"
	IndicatorClickHere    = "click_here_link"
	IndicatorUrgentCall   = "urgent_call"
	IndicatorMoneyMention = "money_mention"
	IndicatorLongMessage  = "long_message"
	IndicatorShortener    = "suspicious_domain"
	IndicatorBadTLD       = "suspicious_tld"
	IndicatorLongURL      = "long_url"
	IndicatorIPInURL      = "ip_in_url"
	IndicatorSpecialChars = "special_chars"
)

var (
	emailUrgencyRe = regexp.MustCompile(`(?i)urgent|immediate|now|asap`)
	smsUrgencyRe   = regexp.MustCompile(`(?i)urgent|now|asap`)
	moneyRe        = regexp.MustCompile(`(?i)\$|money|bank|account|payment`)
	clickHereRe    = regexp.MustCompile(`(?i)click.*here`)
	callNowRe      = regexp.MustCompile(`(?i)call.*now`)
	dollarAmountRe = regexp.MustCompile(`\$\d+`)
	ipv4Re         = regexp.MustCompile(`\d+\.\d+\.\d+\.\d+`)
	specialCharsRe = regexp.MustCompile(`[%@\-_]`)
)

// IndicatorExtractor computes structural signals from raw content and
// URLs. All methods are pure functions of the input plus the static
// shortener/TLD lists.
type IndicatorExtractor struct {
	shorteners     map[string]bool
	suspiciousTLDs map[string]bool
}

// NewIndicatorExtractor builds an extractor from the configured lists
func NewIndicatorExtractor(cfg config.AnalysisConfig) *IndicatorExtractor {
	shorteners := make(map[string]bool, len(cfg.Shorteners))
	for _, d := range cfg.Shorteners {
		shorteners[strings.ToLower(d)] = true
	}
	tlds := make(map[string]bool, len(cfg.SuspiciousTLDs))
	for _, t := range cfg.SuspiciousTLDs {
		tlds[strings.ToLower(t)] = true
	}
	return &IndicatorExtractor{shorteners: shorteners, suspiciousTLDs: tlds}
}

// EmailSignals are the content signals that drive email scoring
type EmailSignals struct {
	Urgency     bool
	Money       bool
	LongContent bool
}

// ExtractEmail computes email content signals
func (e *IndicatorExtractor) ExtractEmail(content string) EmailSignals {
	return EmailSignals{
		Urgency:     emailUrgencyRe.MatchString(content),
		Money:       moneyRe.MatchString(content),
		LongContent: len(content) > 500,
	}
}

// Tags returns the indicator tags for the signals that fired
func (s EmailSignals) Tags() []string {
	var tags []string
	if s.Urgency {
		tags = append(tags, IndicatorUrgency)
	}
	if s.Money {
		tags = append(tags, IndicatorMoney)
	}
	if s.LongContent {
		tags = append(tags, IndicatorLongContent)
	}
	return tags
}

// ExtractSMS computes SMS indicator tags and the urgency flag used by
// the SMS scorer (urgency is scored separately from the tag count)
func (e *IndicatorExtractor) ExtractSMS(content string) (indicators []string, urgency bool) {
	if clickHereRe.MatchString(content) {
		indicators = append(indicators, IndicatorClickHere)
	}
	if callNowRe.MatchString(content) {
		indicators = append(indicators, IndicatorUrgentCall)
	}
	if dollarAmountRe.MatchString(content) {
		indicators = append(indicators, IndicatorMoneyMention)
	}
	if len(content) > 160 {
		indicators = append(indicators, IndicatorLongMessage)
	}
	return indicators, smsUrgencyRe.MatchString(content)
}

// ExtractURL computes URL indicator tags from the raw URL and its host
func (e *IndicatorExtractor) ExtractURL(rawURL, host string) []string {
	host = strings.ToLower(host)

	var indicators []string
	if e.shorteners[host] {
		indicators = append(indicators, IndicatorShortener)
	}
	if e.suspiciousTLDs[topLevelLabel(host)] {
		indicators = append(indicators, IndicatorBadTLD)
	}
	if len(rawURL) > 100 {
		indicators = append(indicators, IndicatorLongURL)
	}
	if ipv4Re.MatchString(rawURL) {
		indicators = append(indicators, IndicatorIPInURL)
	}
	if specialCharsRe.MatchString(rawURL) {
		indicators = append(indicators, IndicatorSpecialChars)
	}
	return indicators
}

// IsShortener reports whether the host is a known link shortener
func (e *IndicatorExtractor) IsShortener(host string) bool {
	return e.shorteners[strings.ToLower(host)]
}

// HasSuspiciousTLD reports whether the host's top-level label is on the
// suspicious list
func (e *IndicatorExtractor) HasSuspiciousTLD(host string) bool {
	return e.suspiciousTLDs[topLevelLabel(strings.ToLower(host))]
}

// topLevelLabel returns the last dot-separated label of a host. IP
// literals have no TLD.
func topLevelLabel(host string) string {
	if net.ParseIP(host) != nil {
		return ""
	}
	idx := strings.LastIndexByte(host, '.')
	if idx < 0 {
		return host
	}
	return host[idx+1:]
}
