package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"phishguard/internal/domain/models"
	"phishguard/pkg/logger"
)

// DomainIntelCache stores domain analyses keyed by hostname. It is
// satisfied by cache.RedisCache; reads return redis.Nil on a miss.
type DomainIntelCache interface {
	GetCachedDomainAnalysis(ctx context.Context, domain string) (*models.DomainAnalysis, error)
	CacheDomainAnalysis(ctx context.Context, domain string, analysis *models.DomainAnalysis, ttl time.Duration) error
}

// CachedDomainIntel wraps a DomainIntel provider with a cache.
// Only fully successful lookups are cached so transient WHOIS or DNS
// failures get retried on the next request. Cache errors fall through
// to the underlying provider.
type CachedDomainIntel struct {
	inner  DomainIntel
	cache  DomainIntelCache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedDomainIntel creates a caching decorator around the provider
func NewCachedDomainIntel(inner DomainIntel, c DomainIntelCache, ttl time.Duration, log *logger.Logger) *CachedDomainIntel {
	return &CachedDomainIntel{
		inner:  inner,
		cache:  c,
		ttl:    ttl,
		logger: log.WithComponent("domain-intel-cache"),
	}
}

// Analyze returns a cached analysis when available, otherwise delegates
func (c *CachedDomainIntel) Analyze(ctx context.Context, domain string) *models.DomainAnalysis {
	cached, err := c.cache.GetCachedDomainAnalysis(ctx, domain)
	if err == nil {
		return cached
	}
	if err != redis.Nil {
		c.logger.Warn().Str("domain", domain).Err(err).Msg("domain intel cache read failed")
	}

	analysis := c.inner.Analyze(ctx, domain)

	if analysis.Error == "" {
		if err := c.cache.CacheDomainAnalysis(ctx, domain, analysis, c.ttl); err != nil {
			c.logger.Warn().Str("domain", domain).Err(err).Msg("domain intel cache write failed")
		}
	}

	return analysis
}
