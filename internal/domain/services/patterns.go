package services

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"phishguard/internal/config"
	"phishguard/internal/domain/models"
)

// PatternLibrary holds the compiled signature tables for email and SMS
// content. Tables are compiled once at construction and read-only after,
// so matching is safe for concurrent use.
type PatternLibrary struct {
	email []compiledPattern
	sms   []compiledPattern
}

type compiledPattern struct {
	category models.ThreatCategory
	source   string
	re       *regexp.Regexp
}

// NewPatternLibrary compiles the configured pattern tables. An invalid
// regex or an empty table is a construction error.
func NewPatternLibrary(cfg config.AnalysisConfig) (*PatternLibrary, error) {
	email, err := compileTable("email", cfg.EmailPatterns)
	if err != nil {
		return nil, err
	}
	sms, err := compileTable("sms", cfg.SMSPatterns)
	if err != nil {
		return nil, err
	}
	return &PatternLibrary{email: email, sms: sms}, nil
}

// compileTable flattens a category->patterns table into a deterministic
// slice: known categories in priority order first, then any custom
// categories sorted by name.
func compileTable(kind string, table map[string][]string) ([]compiledPattern, error) {
	if len(table) == 0 {
		return nil, fmt.Errorf("%s pattern table is empty", kind)
	}

	order := make([]string, 0, len(table))
	seen := make(map[string]bool, len(table))
	for _, cat := range models.CategoryPriority {
		if _, ok := table[string(cat)]; ok {
			order = append(order, string(cat))
			seen[string(cat)] = true
		}
	}
	var extra []string
	for cat := range table {
		if !seen[cat] {
			extra = append(extra, cat)
		}
	}
	sort.Strings(extra)
	order = append(order, extra...)

	var compiled []compiledPattern
	for _, cat := range order {
		for _, src := range table[cat] {
			re, err := regexp.Compile(`(?i)` + src)
			if err != nil {
				return nil, fmt.Errorf("invalid %s pattern %q in category %q: %w", kind, src, cat, err)
			}
			compiled = append(compiled, compiledPattern{
				category: models.ThreatCategory(cat),
				source:   src,
				re:       re,
			})
		}
	}
	return compiled, nil
}

// MatchEmail returns all email signature matches in the content, one
// match per pattern (first occurrence)
func (p *PatternLibrary) MatchEmail(content string) []models.PatternMatch {
	return match(p.email, content)
}

// MatchSMS returns all SMS signature matches in the content
func (p *PatternLibrary) MatchSMS(content string) []models.PatternMatch {
	return match(p.sms, content)
}

// Match dispatches by input type. URL inputs have no pattern table.
func (p *PatternLibrary) Match(inputType models.InputType, content string) []models.PatternMatch {
	switch inputType {
	case models.InputTypeEmail:
		return p.MatchEmail(content)
	case models.InputTypeSMS:
		return p.MatchSMS(content)
	}
	return nil
}

func match(patterns []compiledPattern, content string) []models.PatternMatch {
	content = strings.ToLower(content)

	var matches []models.PatternMatch
	for _, cp := range patterns {
		if loc := cp.re.FindStringIndex(content); loc != nil {
			matches = append(matches, models.PatternMatch{
				Category:    cp.category,
				Pattern:     cp.source,
				MatchedText: content[loc[0]:loc[1]],
			})
		}
	}
	return matches
}
