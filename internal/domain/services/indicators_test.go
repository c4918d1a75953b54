package services

import (
	"reflect"
	"strings"
	"testing"
)

func TestExtractEmail(t *testing.T) {
	extractor := NewIndicatorExtractor(testAnalysisConfig())

	tests := []struct {
		name    string
		content string
		want    EmailSignals
	}{
		{
			name:    "urgency and money",
			content: "URGENT: your bank payment is due",
			want:    EmailSignals{Urgency: true, Money: true},
		},
		{
			name:    "urgency via now",
			content: "do it now please",
			want:    EmailSignals{Urgency: true},
		},
		{
			name:    "dollar sign counts as money",
			content: "that will be $5",
			want:    EmailSignals{Money: true},
		},
		{
			name:    "long content",
			content: strings.Repeat("hello world ", 50),
			want:    EmailSignals{LongContent: true},
		},
		{
			name:    "neutral",
			content: "see you at the meeting",
			want:    EmailSignals{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractor.ExtractEmail(tt.content); got != tt.want {
				t.Errorf("ExtractEmail(%q) = %+v, want %+v", tt.content, got, tt.want)
			}
		})
	}
}

func TestEmailSignalsTags(t *testing.T) {
	signals := EmailSignals{Urgency: true, Money: true, LongContent: true}
	want := []string{IndicatorUrgency, IndicatorMoney, IndicatorLongContent}
	if got := signals.Tags(); !reflect.DeepEqual(got, want) {
		t.Errorf("Tags() = %v, want %v", got, want)
	}

	if got := (EmailSignals{}).Tags(); got != nil {
		t.Errorf("empty signals Tags() = %v, want nil", got)
	}
}

func TestExtractSMS(t *testing.T) {
	extractor := NewIndicatorExtractor(testAnalysisConfig())

	tests := []struct {
		name        string
		content     string
		want        []string
		wantUrgency bool
	}{
		{
			name:        "click here with urgency",
			content:     "click here now to claim",
			want:        []string{IndicatorClickHere},
			wantUrgency: true,
		},
		{
			name:        "call now",
			content:     "suspicious activity, call now",
			want:        []string{IndicatorUrgentCall},
			wantUrgency: true,
		},
		{
			name:    "dollar amount",
			content: "you owe $150 in fees",
			want:    []string{IndicatorMoneyMention},
		},
		{
			name:    "bare dollar sign is not an amount",
			content: "the $ symbol",
			want:    nil,
		},
		{
			name:    "long message",
			content: strings.Repeat("x", 161),
			want:    []string{IndicatorLongMessage},
		},
		{
			name:    "neutral",
			content: "see you tonight",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, urgency := extractor.ExtractSMS(tt.content)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("indicators = %v, want %v", got, tt.want)
			}
			if urgency != tt.wantUrgency {
				t.Errorf("urgency = %v, want %v", urgency, tt.wantUrgency)
			}
		})
	}
}

func TestExtractURL(t *testing.T) {
	extractor := NewIndicatorExtractor(testAnalysisConfig())

	longURL := "https://example.com/" + strings.Repeat("a", 100)

	tests := []struct {
		name   string
		rawURL string
		host   string
		want   []string
	}{
		{
			name:   "shortener",
			rawURL: "https://bit.ly/abc123",
			host:   "bit.ly",
			want:   []string{IndicatorShortener},
		},
		{
			name:   "suspicious tld",
			rawURL: "https://login.example.xyz/home",
			host:   "login.example.xyz",
			want:   []string{IndicatorBadTLD},
		},
		{
			name:   "long url",
			rawURL: longURL,
			host:   "example.com",
			want:   []string{IndicatorLongURL},
		},
		{
			name:   "ip literal",
			rawURL: "http://192.168.1.1/login",
			host:   "192.168.1.1",
			want:   []string{IndicatorIPInURL},
		},
		{
			name:   "special characters",
			rawURL: "https://secure-login.example.com/verify_account",
			host:   "secure-login.example.com",
			want:   []string{IndicatorSpecialChars},
		},
		{
			name:   "clean url",
			rawURL: "https://example.com/page",
			host:   "example.com",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractor.ExtractURL(tt.rawURL, tt.host); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractURL(%q) = %v, want %v", tt.rawURL, got, tt.want)
			}
		})
	}
}

func TestTopLevelLabel(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"example.xyz", "xyz"},
		{"a.b.example.top", "top"},
		{"localhost", "localhost"},
		{"192.168.1.1", ""},
	}

	for _, tt := range tests {
		if got := topLevelLabel(tt.host); got != tt.want {
			t.Errorf("topLevelLabel(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}

func TestIsShortenerAndSuspiciousTLD(t *testing.T) {
	extractor := NewIndicatorExtractor(testAnalysisConfig())

	if !extractor.IsShortener("TinyURL.com") {
		t.Error("tinyurl.com should be a known shortener")
	}
	if extractor.IsShortener("example.com") {
		t.Error("example.com should not be a shortener")
	}
	if !extractor.HasSuspiciousTLD("shop.example.click") {
		t.Error(".click should be a suspicious TLD")
	}
	if extractor.HasSuspiciousTLD("example.com") {
		t.Error(".com should not be suspicious")
	}
}
