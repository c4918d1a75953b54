package services

import (
	"context"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"phishguard/internal/domain/models"
	"phishguard/pkg/logger"
)

// SSLAnalysisCache stores certificate inspections keyed by hostname. It
// is satisfied by cache.RedisCache; reads return redis.Nil on a miss.
type SSLAnalysisCache interface {
	GetCachedSSLAnalysis(ctx context.Context, host string) (*models.SSLAnalysis, error)
	CacheSSLAnalysis(ctx context.Context, host string, analysis *models.SSLAnalysis, ttl time.Duration) error
}

// CachedSSLInspector wraps an SSLInspector with a cache keyed by
// hostname. Only https URLs are cached (a plain-http result would
// poison the host's entry) and only successful handshakes, so failed
// dials get retried. Cache errors fall through to the inspector.
type CachedSSLInspector struct {
	inner  SSLInspector
	cache  SSLAnalysisCache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedSSLInspector creates a caching decorator around the inspector
func NewCachedSSLInspector(inner SSLInspector, c SSLAnalysisCache, ttl time.Duration, log *logger.Logger) *CachedSSLInspector {
	return &CachedSSLInspector{
		inner:  inner,
		cache:  c,
		ttl:    ttl,
		logger: log.WithComponent("ssl-inspect-cache"),
	}
}

// Inspect returns a cached inspection when available, otherwise delegates
func (c *CachedSSLInspector) Inspect(ctx context.Context, rawURL string) *models.SSLAnalysis {
	host := httpsHost(rawURL)
	if host == "" {
		return c.inner.Inspect(ctx, rawURL)
	}

	cached, err := c.cache.GetCachedSSLAnalysis(ctx, host)
	if err == nil {
		return cached
	}
	if err != redis.Nil {
		c.logger.Warn().Str("host", host).Err(err).Msg("ssl cache read failed")
	}

	analysis := c.inner.Inspect(ctx, rawURL)

	if analysis.Valid && analysis.Error == "" {
		if err := c.cache.CacheSSLAnalysis(ctx, host, analysis, c.ttl); err != nil {
			c.logger.Warn().Str("host", host).Err(err).Msg("ssl cache write failed")
		}
	}

	return analysis
}

// httpsHost returns the hostname for cacheable URLs, "" otherwise
func httpsHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "https" {
		return ""
	}
	return u.Hostname()
}
