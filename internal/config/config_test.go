package config

import (
	"strings"
	"testing"
)

func TestAnalysisApplyDefaults(t *testing.T) {
	var cfg AnalysisConfig
	cfg.ApplyDefaults()

	if len(cfg.EmailPatterns) == 0 {
		t.Fatal("expected default email patterns")
	}
	for _, category := range []string{"financial_fraud", "credential_theft", "malware_distribution", "social_engineering"} {
		if len(cfg.EmailPatterns[category]) == 0 {
			t.Errorf("email category %q missing from defaults", category)
		}
	}
	for _, category := range []string{"financial_fraud", "credential_theft", "social_engineering"} {
		if len(cfg.SMSPatterns[category]) == 0 {
			t.Errorf("sms category %q missing from defaults", category)
		}
	}
	if len(cfg.Shorteners) == 0 || len(cfg.SuspiciousTLDs) == 0 {
		t.Error("expected default shortener and TLD lists")
	}
	if cfg.Thresholds.Critical != 80 || cfg.Thresholds.High != 60 || cfg.Thresholds.Medium != 40 {
		t.Errorf("unexpected default thresholds: %+v", cfg.Thresholds)
	}
	if cfg.Weights.Email.PerPattern != 15 || cfg.Weights.SMS.PerPattern != 20 || cfg.Weights.URL.AgeUnder30 != 25 {
		t.Errorf("unexpected default weights: %+v", cfg.Weights)
	}
}

func TestAnalysisApplyDefaultsKeepsOverrides(t *testing.T) {
	cfg := AnalysisConfig{
		EmailPatterns: map[string][]string{"custom": {`wire.*fraud`}},
		Shorteners:    []string{"sho.rt"},
		Thresholds:    ThresholdsConfig{Critical: 90, High: 70, Medium: 50},
	}
	cfg.ApplyDefaults()

	if len(cfg.EmailPatterns) != 1 || len(cfg.EmailPatterns["custom"]) != 1 {
		t.Errorf("custom email patterns were replaced: %v", cfg.EmailPatterns)
	}
	if len(cfg.Shorteners) != 1 || cfg.Shorteners[0] != "sho.rt" {
		t.Errorf("custom shorteners were replaced: %v", cfg.Shorteners)
	}
	if cfg.Thresholds.Critical != 90 {
		t.Errorf("custom thresholds were replaced: %+v", cfg.Thresholds)
	}
	// unset sections still get defaults
	if len(cfg.SMSPatterns) == 0 {
		t.Error("expected default sms patterns to fill in")
	}
	if cfg.Weights.Email.PerPattern != 15 {
		t.Errorf("expected default email weights, got %+v", cfg.Weights.Email)
	}
}

func TestAnalysisValidate(t *testing.T) {
	valid := func() AnalysisConfig {
		var cfg AnalysisConfig
		cfg.ApplyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*AnalysisConfig)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*AnalysisConfig) {},
		},
		{
			name:    "inverted thresholds",
			mutate:  func(c *AnalysisConfig) { c.Thresholds = ThresholdsConfig{Critical: 40, High: 60, Medium: 80} },
			wantErr: "thresholds",
		},
		{
			name:    "equal thresholds",
			mutate:  func(c *AnalysisConfig) { c.Thresholds = ThresholdsConfig{Critical: 60, High: 60, Medium: 40} },
			wantErr: "thresholds",
		},
		{
			name:    "critical above 100",
			mutate:  func(c *AnalysisConfig) { c.Thresholds = ThresholdsConfig{Critical: 120, High: 60, Medium: 40} },
			wantErr: "[0,100]",
		},
		{
			name:    "negative weight",
			mutate:  func(c *AnalysisConfig) { c.Weights.URL.NoSSL = -1 },
			wantErr: "non-negative",
		},
		{
			name:    "empty email category",
			mutate:  func(c *AnalysisConfig) { c.EmailPatterns["financial_fraud"] = nil },
			wantErr: "email pattern category",
		},
		{
			name:    "empty sms category",
			mutate:  func(c *AnalysisConfig) { c.SMSPatterns["social_engineering"] = []string{} },
			wantErr: "sms pattern category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDefaultFillsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Name != "phishguard" {
		t.Errorf("App.Name = %q", cfg.App.Name)
	}
	if cfg.Server.HTTPPort != 8080 {
		t.Errorf("Server.HTTPPort = %d", cfg.Server.HTTPPort)
	}
	if cfg.Batch.Workers != 4 || cfg.Batch.MaxRows != 10000 {
		t.Errorf("unexpected batch defaults: %+v", cfg.Batch)
	}
	if cfg.Batch.MinEmailLength != 10 || cfg.Batch.MinSMSLength != 5 {
		t.Errorf("unexpected minimum lengths: %+v", cfg.Batch)
	}
	if len(cfg.Analysis.EmailPatterns) == 0 {
		t.Error("analysis defaults not applied")
	}
	if cfg.Analysis.Thresholds.Critical != 80 {
		t.Errorf("Thresholds.Critical = %v", cfg.Analysis.Thresholds.Critical)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestDatabaseDSN(t *testing.T) {
	c := DatabaseConfig{
		Host: "db", Port: 5432, User: "pg", Password: "secret",
		DBName: "phishguard", SSLMode: "disable", Schema: "public",
	}
	want := "postgres://pg:secret@db:5432/phishguard?sslmode=disable&search_path=public"
	if got := c.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestRedisAddr(t *testing.T) {
	c := RedisConfig{Host: "cache", Port: 6380}
	if got := c.Addr(); got != "cache:6380" {
		t.Errorf("Addr() = %q", got)
	}
}
