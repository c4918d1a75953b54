package services

import (
	"testing"
	"time"
)

func TestDomainReputation(t *testing.T) {
	extractor := NewIndicatorExtractor(testAnalysisConfig())

	tests := []struct {
		name    string
		domain  string
		ageDays int
		want    float64
	}{
		{
			name:    "established domain",
			domain:  "example.com",
			ageDays: 1000,
			want:    30,
		},
		{
			name:    "middle aged domain",
			domain:  "example.com",
			ageDays: 200,
			want:    10,
		},
		{
			name:    "young domain",
			domain:  "example.com",
			ageDays: 10,
			want:    -20,
		},
		{
			name:    "unknown age penalized as young",
			domain:  "example.com",
			ageDays: 0,
			want:    -20,
		},
		{
			name:    "shortener",
			domain:  "bit.ly",
			ageDays: 1000,
			want:    30 - 50,
		},
		{
			name:    "young domain with bad tld",
			domain:  "short.xyz",
			ageDays: 5,
			want:    -50, // -20 - 30
		},
		{
			name:    "suspicious tld",
			domain:  "login.example.top",
			ageDays: 1000,
			want:    30 - 30,
		},
		{
			name:    "boundary age 366 is established",
			domain:  "example.com",
			ageDays: 366,
			want:    30,
		},
		{
			name:    "boundary age 365 is middle aged",
			domain:  "example.com",
			ageDays: 365,
			want:    10,
		},
		{
			name:    "boundary age 29 is young",
			domain:  "example.com",
			ageDays: 29,
			want:    -20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractor.DomainReputation(tt.domain, tt.ageDays); got != tt.want {
				t.Errorf("DomainReputation(%q, %d) = %v, want %v", tt.domain, tt.ageDays, got, tt.want)
			}
		})
	}
}

func TestDomainReputationClampFloor(t *testing.T) {
	cfg := testAnalysisConfig()
	cfg.Shorteners = append(cfg.Shorteners, "evil.xyz")
	extractor := NewIndicatorExtractor(cfg)

	// young + shortener + bad tld = -20 - 50 - 30 = -100, at the floor
	if got := extractor.DomainReputation("evil.xyz", 1); got != -100 {
		t.Errorf("DomainReputation = %v, want -100", got)
	}
}

func TestParseWhoisDate(t *testing.T) {
	tests := []struct {
		value   string
		want    time.Time
		wantErr bool
	}{
		{value: "2020-06-15T10:30:00Z", want: time.Date(2020, 6, 15, 10, 30, 0, 0, time.UTC)},
		{value: "2020-06-15 10:30:00", want: time.Date(2020, 6, 15, 10, 30, 0, 0, time.UTC)},
		{value: "15-Jun-2020", want: time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC)},
		{value: "not a date", wantErr: true},
		{value: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := parseWhoisDate(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseWhoisDate(%q) succeeded, want error", tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseWhoisDate(%q): %v", tt.value, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseWhoisDate(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
