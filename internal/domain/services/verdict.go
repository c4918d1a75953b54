package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"phishguard/internal/config"
	"phishguard/internal/domain/models"
	"phishguard/pkg/logger"
)

// VerdictProvider supplies the upstream classifier verdict that seeds
// an assessment's base confidence. Implementations must not return an
// error: when the upstream is unreachable they degrade to a neutral
// verdict so analysis always proceeds.
type VerdictProvider interface {
	Classify(ctx context.Context, inputType models.InputType, content string) models.Verdict
}

// neutralVerdict is the fallback when no classifier verdict is available.
func neutralVerdict() models.Verdict {
	return models.Verdict{
		Malicious:  false,
		Confidence: 50,
		Label:      "unclassified",
	}
}

// StaticVerdictProvider returns a fixed verdict for every input. It
// backs the engine when the external classifier is disabled, and tests.
type StaticVerdictProvider struct {
	verdict models.Verdict
}

// NewStaticVerdictProvider creates a provider returning the given verdict
func NewStaticVerdictProvider(verdict models.Verdict) *StaticVerdictProvider {
	return &StaticVerdictProvider{verdict: verdict}
}

// NewNeutralVerdictProvider creates a provider returning the neutral verdict
func NewNeutralVerdictProvider() *StaticVerdictProvider {
	return &StaticVerdictProvider{verdict: neutralVerdict()}
}

func (p *StaticVerdictProvider) Classify(_ context.Context, _ models.InputType, _ string) models.Verdict {
	return p.verdict
}

// HTTPVerdictProvider calls an external classification service over
// HTTP. Any transport, status or decode failure degrades to the
// neutral verdict and is logged, never surfaced to callers.
type HTTPVerdictProvider struct {
	client  *http.Client
	baseURL string
	logger  *logger.Logger
}

// NewHTTPVerdictProvider creates a classifier client from config
func NewHTTPVerdictProvider(cfg config.ClassifierConfig, log *logger.Logger) *HTTPVerdictProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPVerdictProvider{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: cfg.BaseURL,
		logger:  log.WithComponent("verdict-provider"),
	}
}

type classifyRequest struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type classifyResponse struct {
	Malicious  bool    `json:"malicious"`
	Confidence float64 `json:"confidence"`
	Label      string  `json:"label"`
}

// Classify requests a verdict for the content from the classifier service
func (p *HTTPVerdictProvider) Classify(ctx context.Context, inputType models.InputType, content string) models.Verdict {
	verdict, err := p.classify(ctx, inputType, content)
	if err != nil {
		p.logger.Warn().
			Str("input_type", string(inputType)).
			Err(err).
			Msg("classifier unavailable, using neutral verdict")
		return neutralVerdict()
	}
	return verdict
}

func (p *HTTPVerdictProvider) classify(ctx context.Context, inputType models.InputType, content string) (models.Verdict, error) {
	payload, err := json.Marshal(classifyRequest{
		Type:    string(inputType),
		Content: content,
	})
	if err != nil {
		return models.Verdict{}, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/classify", bytes.NewReader(payload))
	if err != nil {
		return models.Verdict{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return models.Verdict{}, fmt.Errorf("failed to call classifier: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.Verdict{}, fmt.Errorf("classifier returned status %d: %s", resp.StatusCode, string(body))
	}

	var decoded classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return models.Verdict{}, fmt.Errorf("failed to decode classifier response: %w", err)
	}

	if decoded.Confidence < 0 || decoded.Confidence > 100 {
		return models.Verdict{}, fmt.Errorf("classifier confidence %.2f out of range", decoded.Confidence)
	}

	return models.Verdict{
		Malicious:  decoded.Malicious,
		Confidence: decoded.Confidence,
		Label:      decoded.Label,
	}, nil
}

// NewVerdictProvider selects the configured provider implementation
func NewVerdictProvider(cfg config.ClassifierConfig, log *logger.Logger) VerdictProvider {
	if !cfg.Enabled || cfg.BaseURL == "" {
		return NewNeutralVerdictProvider()
	}
	return NewHTTPVerdictProvider(cfg, log)
}
