package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	CORS       CORSConfig       `mapstructure:"cors"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Enrichment EnrichmentConfig `mapstructure:"enrichment"`
	Analysis   AnalysisConfig   `mapstructure:"analysis"`
	Batch      BatchConfig      `mapstructure:"batch"`
	Retention  RetentionConfig  `mapstructure:"retention"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	Debug       bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	HTTPPort        int           `mapstructure:"http_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Schema          string        `mapstructure:"schema"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&search_path=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.Schema,
	)
}

type RedisConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
	TLS       bool   `mapstructure:"tls"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	RequestsPerHour   int  `mapstructure:"requests_per_hour"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

// ClassifierConfig points at the external model service that produces
// the initial malicious/benign verdicts
type ClassifierConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Enabled bool          `mapstructure:"enabled"`
}

// EnrichmentConfig controls the best-effort domain and certificate lookups
type EnrichmentConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	WhoisTimeout  time.Duration `mapstructure:"whois_timeout"`
	DNSTimeout    time.Duration `mapstructure:"dns_timeout"`
	DNSServer     string        `mapstructure:"dns_server"`
	SSLTimeout    time.Duration `mapstructure:"ssl_timeout"`
	GeoIPDatabase string        `mapstructure:"geoip_database"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
}

// AnalysisConfig carries the signature tables, indicator lists, scoring
// weights and level thresholds. Empty fields fall back to the built-in
// defaults via ApplyDefaults; populated fields replace them wholesale.
type AnalysisConfig struct {
	EmailPatterns  map[string][]string `mapstructure:"email_patterns"`
	SMSPatterns    map[string][]string `mapstructure:"sms_patterns"`
	Shorteners     []string            `mapstructure:"shorteners"`
	SuspiciousTLDs []string            `mapstructure:"suspicious_tlds"`
	Weights        WeightsConfig       `mapstructure:"weights"`
	Thresholds     ThresholdsConfig    `mapstructure:"thresholds"`
}

type WeightsConfig struct {
	Email EmailWeights `mapstructure:"email"`
	SMS   SMSWeights   `mapstructure:"sms"`
	URL   URLWeights   `mapstructure:"url"`
}

type EmailWeights struct {
	PerPattern   float64 `mapstructure:"per_pattern"`
	PerFinancial float64 `mapstructure:"per_financial"`
	Urgency      float64 `mapstructure:"urgency"`
	Money        float64 `mapstructure:"money"`
	LongContent  float64 `mapstructure:"long_content"`
}

type SMSWeights struct {
	PerPattern   float64 `mapstructure:"per_pattern"`
	PerIndicator float64 `mapstructure:"per_indicator"`
	Urgency      float64 `mapstructure:"urgency"`
}

type URLWeights struct {
	AgeUnder30   float64 `mapstructure:"age_under_30"`
	AgeUnder90   float64 `mapstructure:"age_under_90"`
	AgeUnder365  float64 `mapstructure:"age_under_365"`
	NoSSL        float64 `mapstructure:"no_ssl"`
	PerIndicator float64 `mapstructure:"per_indicator"`
}

// ThresholdsConfig maps risk scores to levels: >= Critical is critical,
// >= High is high, >= Medium is medium, everything below is low
type ThresholdsConfig struct {
	Critical float64 `mapstructure:"critical"`
	High     float64 `mapstructure:"high"`
	Medium   float64 `mapstructure:"medium"`
}

type BatchConfig struct {
	Workers        int `mapstructure:"workers"`
	MaxRows        int `mapstructure:"max_rows"`
	MinEmailLength int `mapstructure:"min_email_length"`
	MinSMSLength   int `mapstructure:"min_sms_length"`
}

type RetentionConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	MaxAge   time.Duration `mapstructure:"max_age"`
	Interval time.Duration `mapstructure:"interval"`
}

// ApplyDefaults fills unset analysis fields with the built-in tables
func (c *AnalysisConfig) ApplyDefaults() {
	if len(c.EmailPatterns) == 0 {
		c.EmailPatterns = DefaultEmailPatterns()
	}
	if len(c.SMSPatterns) == 0 {
		c.SMSPatterns = DefaultSMSPatterns()
	}
	if len(c.Shorteners) == 0 {
		c.Shorteners = DefaultShorteners()
	}
	if len(c.SuspiciousTLDs) == 0 {
		c.SuspiciousTLDs = DefaultSuspiciousTLDs()
	}
	zeroEmail := EmailWeights{}
	if c.Weights.Email == zeroEmail {
		c.Weights.Email = EmailWeights{PerPattern: 15, PerFinancial: 10, Urgency: 20, Money: 15, LongContent: 5}
	}
	zeroSMS := SMSWeights{}
	if c.Weights.SMS == zeroSMS {
		c.Weights.SMS = SMSWeights{PerPattern: 20, PerIndicator: 8, Urgency: 15}
	}
	zeroURL := URLWeights{}
	if c.Weights.URL == zeroURL {
		c.Weights.URL = URLWeights{AgeUnder30: 25, AgeUnder90: 15, AgeUnder365: 5, NoSSL: 20, PerIndicator: 10}
	}
	zeroThresholds := ThresholdsConfig{}
	if c.Thresholds == zeroThresholds {
		c.Thresholds = ThresholdsConfig{Critical: 80, High: 60, Medium: 40}
	}
}

// Validate rejects analysis settings that would produce unbounded or
// inverted scoring
func (c *AnalysisConfig) Validate() error {
	t := c.Thresholds
	if !(t.Medium < t.High && t.High < t.Critical) {
		return fmt.Errorf("thresholds must satisfy medium < high < critical, got %v < %v < %v", t.Medium, t.High, t.Critical)
	}
	if t.Medium < 0 || t.Critical > 100 {
		return fmt.Errorf("thresholds must lie within [0,100]")
	}
	for _, w := range []float64{
		c.Weights.Email.PerPattern, c.Weights.Email.PerFinancial, c.Weights.Email.Urgency,
		c.Weights.Email.Money, c.Weights.Email.LongContent,
		c.Weights.SMS.PerPattern, c.Weights.SMS.PerIndicator, c.Weights.SMS.Urgency,
		c.Weights.URL.AgeUnder30, c.Weights.URL.AgeUnder90, c.Weights.URL.AgeUnder365,
		c.Weights.URL.NoSSL, c.Weights.URL.PerIndicator,
	} {
		if w < 0 {
			return fmt.Errorf("scoring weights must be non-negative")
		}
	}
	for category, patterns := range c.EmailPatterns {
		if len(patterns) == 0 {
			return fmt.Errorf("email pattern category %q has no patterns", category)
		}
	}
	for category, patterns := range c.SMSPatterns {
		if len(patterns) == 0 {
			return fmt.Errorf("sms pattern category %q has no patterns", category)
		}
	}
	return nil
}

// DefaultEmailPatterns returns the built-in email signature table
func DefaultEmailPatterns() map[string][]string {
	return map[string][]string{
		"financial_fraud": {
			`bank.*account.*suspended`,
			`paypal.*verify.*account`,
			`credit.*card.*expired`,
			`banking.*security.*update`,
			`account.*locked.*verify`,
			`urgent.*bank.*action`,
			`wire.*transfer.*required`,
			`account.*compromise.*detected`,
		},
		"credential_theft": {
			`password.*expired`,
			`login.*failed.*verify`,
			`account.*hacked.*secure`,
			`reset.*password.*urgent`,
			`security.*breach.*detected`,
			`verify.*identity.*immediately`,
			`login.*attempt.*suspicious`,
		},
		"malware_distribution": {
			`free.*download.*virus`,
			`update.*flash.*player`,
			`install.*security.*update`,
			`click.*here.*download`,
			`free.*antivirus.*scan`,
			`update.*java.*required`,
			`install.*browser.*extension`,
		},
		"social_engineering": {
			`you.*won.*prize`,
			`claim.*inheritance`,
			`lottery.*winner`,
			`urgent.*help.*needed`,
			`friend.*stranded.*abroad`,
			`charity.*donation.*urgent`,
			`limited.*time.*offer`,
		},
	}
}

// DefaultSMSPatterns returns the built-in SMS signature table
func DefaultSMSPatterns() map[string][]string {
	return map[string][]string{
		"financial_fraud": {
			`bank.*text.*verify`,
			`card.*blocked.*call`,
			`account.*suspended.*urgent`,
			`fraud.*detected.*call`,
		},
		"credential_theft": {
			`password.*reset.*link`,
			`login.*failed.*verify`,
			`account.*locked.*unlock`,
		},
		"social_engineering": {
			`you.*won.*claim`,
			`urgent.*help.*money`,
			`friend.*needs.*urgent`,
			`limited.*offer.*text`,
		},
	}
}

// DefaultShorteners returns the known URL shortener domains
func DefaultShorteners() []string {
	return []string{
		"bit.ly", "goo.gl", "tinyurl.com", "ow.ly", "t.co",
		"is.gd", "buff.ly", "adf.ly", "short.to", "tr.im",
	}
}

// DefaultSuspiciousTLDs returns TLDs disproportionately used in abuse
func DefaultSuspiciousTLDs() []string {
	return []string{
		"xyz", "top", "club", "online", "site", "win",
		"bid", "loan", "click", "work", "live",
	}
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/phishguard")
	}

	// Environment variables
	v.SetEnvPrefix("PHISHGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind nested env vars explicitly (viper doesn't auto-bind nested struct fields)
	v.BindEnv("redis.tls", "PHISHGUARD_REDIS_TLS")
	v.BindEnv("redis.host", "PHISHGUARD_REDIS_HOST")
	v.BindEnv("redis.port", "PHISHGUARD_REDIS_PORT")
	v.BindEnv("redis.password", "PHISHGUARD_REDIS_PASSWORD")
	v.BindEnv("database.host", "PHISHGUARD_DATABASE_HOST")
	v.BindEnv("database.port", "PHISHGUARD_DATABASE_PORT")
	v.BindEnv("database.user", "PHISHGUARD_DATABASE_USER")
	v.BindEnv("database.password", "PHISHGUARD_DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "PHISHGUARD_DATABASE_DBNAME")
	v.BindEnv("database.sslmode", "PHISHGUARD_DATABASE_SSLMODE")
	v.BindEnv("classifier.base_url", "PHISHGUARD_CLASSIFIER_BASE_URL")
	v.BindEnv("enrichment.geoip_database", "PHISHGUARD_ENRICHMENT_GEOIP_DATABASE")
	v.BindEnv("app.environment", "PHISHGUARD_APP_ENVIRONMENT")

	// Read config file; a missing file is fine when no explicit path was
	// given, env vars and defaults still apply
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	cfg.Analysis.ApplyDefaults()

	if err := cfg.Analysis.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis config: %w", err)
	}

	return &cfg, nil
}

// LoadDefault loads configuration with default path
func LoadDefault() (*Config, error) {
	return Load("")
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "phishguard"
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.Schema == "" {
		c.Database.Schema = "public"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 2
	}
	if c.Classifier.Timeout == 0 {
		c.Classifier.Timeout = 5 * time.Second
	}
	if c.Enrichment.WhoisTimeout == 0 {
		c.Enrichment.WhoisTimeout = 10 * time.Second
	}
	if c.Enrichment.DNSTimeout == 0 {
		c.Enrichment.DNSTimeout = 5 * time.Second
	}
	if c.Enrichment.SSLTimeout == 0 {
		c.Enrichment.SSLTimeout = 10 * time.Second
	}
	if c.Enrichment.CacheTTL == 0 {
		c.Enrichment.CacheTTL = time.Hour
	}
	if c.Batch.Workers == 0 {
		c.Batch.Workers = 4
	}
	if c.Batch.MaxRows == 0 {
		c.Batch.MaxRows = 10000
	}
	if c.Batch.MinEmailLength == 0 {
		c.Batch.MinEmailLength = 10
	}
	if c.Batch.MinSMSLength == 0 {
		c.Batch.MinSMSLength = 5
	}
	if c.Retention.MaxAge == 0 {
		c.Retention.MaxAge = 90 * 24 * time.Hour
	}
	if c.Retention.Interval == 0 {
		c.Retention.Interval = 24 * time.Hour
	}
}
