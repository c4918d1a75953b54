package services

import (
	"context"
	"crypto/tls"
	"net"
	"net/url"
	"time"

	"phishguard/internal/config"
	"phishguard/internal/domain/models"
	"phishguard/pkg/logger"
)

// SSLInspector examines the TLS certificate presented by a URL's host.
// Implementations never fail the caller.
type SSLInspector interface {
	Inspect(ctx context.Context, rawURL string) *models.SSLAnalysis
}

// SSLInspectService performs a single TLS handshake per call with a
// bounded timeout. Failed handshakes are not retried.
type SSLInspectService struct {
	timeout time.Duration
	logger  *logger.Logger
}

// NewSSLInspectService creates the inspector
func NewSSLInspectService(cfg config.EnrichmentConfig, log *logger.Logger) *SSLInspectService {
	return &SSLInspectService{
		timeout: cfg.SSLTimeout,
		logger:  log.WithComponent("ssl-inspect"),
	}
}

// Inspect dials the host and extracts certificate facts. Non-https URLs
// are reported invalid without dialing and without an error.
func (s *SSLInspectService) Inspect(ctx context.Context, rawURL string) *models.SSLAnalysis {
	analysis := &models.SSLAnalysis{}

	u, err := url.Parse(rawURL)
	if err != nil {
		analysis.Error = err.Error()
		return analysis
	}
	if u.Scheme != "https" {
		return analysis
	}

	hostname := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "443"
	}

	dialer := &net.Dialer{Timeout: s.timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", net.JoinHostPort(hostname, port), &tls.Config{
		ServerName: hostname,
	})
	if err != nil {
		s.logger.Debug().Err(err).Str("host", hostname).Msg("tls handshake failed")
		analysis.Error = err.Error()
		return analysis
	}
	defer conn.Close()

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		analysis.Error = "no peer certificates presented"
		return analysis
	}

	cert := certs[0]
	analysis.Valid = true
	analysis.Issuer = cert.Issuer.String()
	expiry := cert.NotAfter
	analysis.ExpiryDate = &expiry

	return analysis
}
