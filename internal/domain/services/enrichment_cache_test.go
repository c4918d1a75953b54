package services

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"phishguard/internal/domain/models"
	"phishguard/pkg/logger"
)

type countingIntel struct {
	analysis models.DomainAnalysis
	calls    int
}

func (s *countingIntel) Analyze(_ context.Context, domain string) *models.DomainAnalysis {
	s.calls++
	a := s.analysis
	a.Domain = domain
	return &a
}

type fakeDomainCache struct {
	entries map[string]*models.DomainAnalysis
	writes  int
}

func (f *fakeDomainCache) GetCachedDomainAnalysis(_ context.Context, domain string) (*models.DomainAnalysis, error) {
	if a, ok := f.entries[domain]; ok {
		return a, nil
	}
	return nil, redis.Nil
}

func (f *fakeDomainCache) CacheDomainAnalysis(_ context.Context, domain string, a *models.DomainAnalysis, _ time.Duration) error {
	f.entries[domain] = a
	f.writes++
	return nil
}

type countingSSL struct {
	analysis models.SSLAnalysis
	calls    int
}

func (s *countingSSL) Inspect(context.Context, string) *models.SSLAnalysis {
	s.calls++
	a := s.analysis
	return &a
}

type fakeSSLCache struct {
	entries map[string]*models.SSLAnalysis
	writes  int
}

func (f *fakeSSLCache) GetCachedSSLAnalysis(_ context.Context, host string) (*models.SSLAnalysis, error) {
	if a, ok := f.entries[host]; ok {
		return a, nil
	}
	return nil, redis.Nil
}

func (f *fakeSSLCache) CacheSSLAnalysis(_ context.Context, host string, a *models.SSLAnalysis, _ time.Duration) error {
	f.entries[host] = a
	f.writes++
	return nil
}

func TestCachedDomainIntelCachesSuccess(t *testing.T) {
	inner := &countingIntel{analysis: models.DomainAnalysis{AgeDays: 1200, Reputation: 40}}
	store := &fakeDomainCache{entries: map[string]*models.DomainAnalysis{}}
	c := NewCachedDomainIntel(inner, store, time.Hour, logger.NewDevelopment())

	first := c.Analyze(context.Background(), "example.com")
	second := c.Analyze(context.Background(), "example.com")

	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1", inner.calls)
	}
	if store.writes != 1 {
		t.Errorf("cache writes = %d, want 1", store.writes)
	}
	if first.AgeDays != second.AgeDays || second.Domain != "example.com" {
		t.Errorf("cached analysis mismatch: %+v vs %+v", first, second)
	}
}

func TestCachedDomainIntelSkipsFailedLookups(t *testing.T) {
	inner := &countingIntel{analysis: models.DomainAnalysis{Error: "whois lookup failed"}}
	store := &fakeDomainCache{entries: map[string]*models.DomainAnalysis{}}
	c := NewCachedDomainIntel(inner, store, time.Hour, logger.NewDevelopment())

	c.Analyze(context.Background(), "example.com")
	c.Analyze(context.Background(), "example.com")

	if store.writes != 0 {
		t.Errorf("failed lookups must not be cached, got %d writes", store.writes)
	}
	if inner.calls != 2 {
		t.Errorf("inner called %d times, want 2 (retry after failure)", inner.calls)
	}
}

func TestCachedSSLInspectorCachesValidHandshake(t *testing.T) {
	inner := &countingSSL{analysis: models.SSLAnalysis{Valid: true, Issuer: "CN=Test CA"}}
	store := &fakeSSLCache{entries: map[string]*models.SSLAnalysis{}}
	c := NewCachedSSLInspector(inner, store, time.Hour, logger.NewDevelopment())

	first := c.Inspect(context.Background(), "https://example.com/login")
	second := c.Inspect(context.Background(), "https://example.com/other")

	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1", inner.calls)
	}
	if store.writes != 1 {
		t.Errorf("cache writes = %d, want 1", store.writes)
	}
	if !second.Valid || first.Issuer != second.Issuer {
		t.Errorf("cached analysis mismatch: %+v vs %+v", first, second)
	}
}

func TestCachedSSLInspectorSkipsNonHTTPS(t *testing.T) {
	inner := &countingSSL{analysis: models.SSLAnalysis{}}
	store := &fakeSSLCache{entries: map[string]*models.SSLAnalysis{}}
	c := NewCachedSSLInspector(inner, store, time.Hour, logger.NewDevelopment())

	c.Inspect(context.Background(), "http://example.com/login")
	c.Inspect(context.Background(), "http://example.com/login")

	if inner.calls != 2 {
		t.Errorf("non-https must bypass the cache, inner called %d times", inner.calls)
	}
	if store.writes != 0 {
		t.Errorf("non-https must not be cached, got %d writes", store.writes)
	}
}

func TestCachedSSLInspectorSkipsFailedHandshakes(t *testing.T) {
	inner := &countingSSL{analysis: models.SSLAnalysis{Valid: false, Error: "connection refused"}}
	store := &fakeSSLCache{entries: map[string]*models.SSLAnalysis{}}
	c := NewCachedSSLInspector(inner, store, time.Hour, logger.NewDevelopment())

	c.Inspect(context.Background(), "https://example.com")
	c.Inspect(context.Background(), "https://example.com")

	if store.writes != 0 {
		t.Errorf("failed handshakes must not be cached, got %d writes", store.writes)
	}
	if inner.calls != 2 {
		t.Errorf("inner called %d times, want 2 (retry after failure)", inner.calls)
	}
}
