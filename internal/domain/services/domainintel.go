package services

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
	"github.com/miekg/dns"
	"github.com/oschwald/geoip2-golang"

	"phishguard/internal/config"
	"phishguard/internal/domain/models"
	"phishguard/pkg/logger"
)

// DomainIntel resolves registration, location and reputation facts for a
// URL's host. Implementations never fail the caller: lookup problems are
// folded into the returned analysis.
type DomainIntel interface {
	Analyze(ctx context.Context, domain string) *models.DomainAnalysis
}

// LookupKind identifies which enrichment sub-lookup failed
type LookupKind string

const (
	LookupWhois LookupKind = "whois"
	LookupDNS   LookupKind = "dns"
	LookupGeo   LookupKind = "geoip"
)

// LookupError carries the failed sub-lookup kind for logging; it is
// collapsed to a string at the analysis boundary
type LookupError struct {
	Kind LookupKind
	Err  error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s lookup failed: %v", e.Kind, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// DomainIntelService performs WHOIS, DNS and GeoIP lookups with bounded
// timeouts. Each lookup is a single attempt, no retries.
type DomainIntelService struct {
	cfg       config.EnrichmentConfig
	extractor *IndicatorExtractor
	whois     *whois.Client
	resolver  *net.Resolver
	dnsClient *dns.Client
	geoReader *geoip2.Reader
	logger    *logger.Logger
}

// NewDomainIntelService creates the lookup service. A missing GeoIP
// database disables geolocation but is not an error: country simply
// stays unknown.
func NewDomainIntelService(cfg config.EnrichmentConfig, extractor *IndicatorExtractor, log *logger.Logger) *DomainIntelService {
	log = log.WithComponent("domain-intel")

	whoisClient := whois.NewClient()
	whoisClient.SetTimeout(cfg.WhoisTimeout)

	var geoReader *geoip2.Reader
	if cfg.GeoIPDatabase != "" {
		reader, err := geoip2.Open(cfg.GeoIPDatabase)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.GeoIPDatabase).Msg("geoip database unavailable, geolocation disabled")
		} else {
			geoReader = reader
		}
	}

	return &DomainIntelService{
		cfg:       cfg,
		extractor: extractor,
		whois:     whoisClient,
		resolver: &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
				d := net.Dialer{Timeout: cfg.DNSTimeout}
				return d.DialContext(ctx, network, address)
			},
		},
		dnsClient: &dns.Client{Timeout: cfg.DNSTimeout},
		geoReader: geoReader,
		logger:    log,
	}
}

// Close releases the GeoIP reader
func (s *DomainIntelService) Close() error {
	if s.geoReader != nil {
		return s.geoReader.Close()
	}
	return nil
}

// Analyze resolves registration age, registrar, location and reputation
// for the domain. Every failure path still yields a usable analysis with
// defaults and an error string.
func (s *DomainIntelService) Analyze(ctx context.Context, domain string) *models.DomainAnalysis {
	domain = strings.ToLower(strings.TrimSuffix(domain, "."))
	analysis := &models.DomainAnalysis{Domain: domain}

	var failures []string

	if err := s.lookupWhois(analysis, domain); err != nil {
		s.logger.Debug().Err(err).Str("domain", domain).Str("kind", string(err.Kind)).Msg("enrichment lookup failed")
		failures = append(failures, err.Error())
	}

	if err := s.lookupAddresses(ctx, analysis, domain); err != nil {
		s.logger.Debug().Err(err).Str("domain", domain).Str("kind", string(err.Kind)).Msg("enrichment lookup failed")
		failures = append(failures, err.Error())
	} else if err := s.lookupLocation(analysis); err != nil {
		s.logger.Debug().Err(err).Str("domain", domain).Str("kind", string(err.Kind)).Msg("enrichment lookup failed")
		failures = append(failures, err.Error())
	}

	// Reputation is computed from whatever was learned, even after failures
	analysis.Reputation = s.extractor.DomainReputation(domain, analysis.AgeDays)

	if len(failures) > 0 {
		analysis.Error = strings.Join(failures, "; ")
	}
	return analysis
}

func (s *DomainIntelService) lookupWhois(analysis *models.DomainAnalysis, domain string) *LookupError {
	raw, err := s.whois.Whois(domain)
	if err != nil {
		return &LookupError{Kind: LookupWhois, Err: err}
	}

	parsed, err := whoisparser.Parse(raw)
	if err != nil {
		return &LookupError{Kind: LookupWhois, Err: err}
	}

	analysis.Registrar = parsed.Registrar.Name

	if parsed.Domain.CreatedDate != "" {
		if created, err := parseWhoisDate(parsed.Domain.CreatedDate); err == nil {
			analysis.AgeDays = int(time.Since(created).Hours() / 24)
		}
	}
	if parsed.Domain.ExpirationDate != "" {
		if expiry, err := parseWhoisDate(parsed.Domain.ExpirationDate); err == nil {
			analysis.ExpiryDate = &expiry
		}
	}
	return nil
}

// lookupAddresses resolves A records, preferring a directly configured
// DNS server and falling back to the system resolver
func (s *DomainIntelService) lookupAddresses(ctx context.Context, analysis *models.DomainAnalysis, domain string) *LookupError {
	if ip := net.ParseIP(domain); ip != nil {
		analysis.ResolvedIPs = []string{domain}
		return nil
	}

	if s.cfg.DNSServer != "" {
		m := new(dns.Msg)
		m.SetQuestion(dns.Fqdn(domain), dns.TypeA)
		resp, _, err := s.dnsClient.ExchangeContext(ctx, m, s.cfg.DNSServer)
		if err != nil {
			return &LookupError{Kind: LookupDNS, Err: err}
		}
		for _, rr := range resp.Answer {
			if a, ok := rr.(*dns.A); ok {
				analysis.ResolvedIPs = append(analysis.ResolvedIPs, a.A.String())
			}
		}
		if len(analysis.ResolvedIPs) == 0 {
			return &LookupError{Kind: LookupDNS, Err: fmt.Errorf("no A records for %s", domain)}
		}
		return nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.cfg.DNSTimeout)
	defer cancel()

	ips, err := s.resolver.LookupHost(lookupCtx, domain)
	if err != nil {
		return &LookupError{Kind: LookupDNS, Err: err}
	}
	for _, ip := range ips {
		if !strings.Contains(ip, ":") {
			analysis.ResolvedIPs = append(analysis.ResolvedIPs, ip)
		}
	}
	if len(analysis.ResolvedIPs) == 0 {
		return &LookupError{Kind: LookupDNS, Err: fmt.Errorf("no A records for %s", domain)}
	}
	return nil
}

func (s *DomainIntelService) lookupLocation(analysis *models.DomainAnalysis) *LookupError {
	if s.geoReader == nil {
		return &LookupError{Kind: LookupGeo, Err: fmt.Errorf("geoip database not loaded")}
	}
	if len(analysis.ResolvedIPs) == 0 {
		return &LookupError{Kind: LookupGeo, Err: fmt.Errorf("no resolved address")}
	}

	ip := net.ParseIP(analysis.ResolvedIPs[0])
	if ip == nil {
		return &LookupError{Kind: LookupGeo, Err: fmt.Errorf("invalid address %q", analysis.ResolvedIPs[0])}
	}

	record, err := s.geoReader.City(ip)
	if err != nil {
		return &LookupError{Kind: LookupGeo, Err: err}
	}

	analysis.Country = record.Country.Names["en"]
	analysis.City = record.City.Names["en"]
	return nil
}

// DomainReputation computes the deterministic reputation score for a
// domain, clamped to [-100,100]. An unknown age (0) counts as new.
func (e *IndicatorExtractor) DomainReputation(domain string, ageDays int) float64 {
	var reputation float64

	switch {
	case ageDays > 365:
		reputation += 30
	case ageDays > 90:
		reputation += 10
	}
	if ageDays < 30 {
		reputation -= 20
	}

	if e.IsShortener(domain) {
		reputation -= 50
	}
	if e.HasSuspiciousTLD(domain) {
		reputation -= 30
	}

	return clamp(reputation, -100, 100)
}

// parseWhoisDate tries the date formats registries commonly emit
func parseWhoisDate(value string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"02-Jan-2006",
		"2006.01.02 15:04:05",
		"2006/01/02",
		"2006-01-02",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", value)
}
