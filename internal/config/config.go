package config

import (
	"fmt"
	"net/mail"
	"net/netip"
	"net/url"
	"strings"
	"time"

	pkgconfig "github.com/hermannafesehbuma/khalifa-auto/pkg/config"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/database"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/httpclient"
)

const devSecret = "dev-only-secret-change-me-0123456789abcdef"

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort           int      `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Per-client throttle on lead and checkout submissions. 0 disables it.
	FormRatePerMinute int `env:"FORM_RATE_PER_MINUTE" envDefault:"10"`
	FormRateBurst     int `env:"FORM_RATE_BURST" envDefault:"5"`

	// CIDRs of the load balancers whose forwarded-for headers are believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	// PostgreSQL. DATABASE_URL wins over the discrete settings.
	DatabaseURL  string `env:"DATABASE_URL"`
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"dealership"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"dealership_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"dealership"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"1"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"15"`

	// Redis. When disabled, carts and idempotency keys live in process memory.
	RedisEnabled  bool   `env:"REDIS_ENABLED" envDefault:"true"`
	RedisURL      string `env:"REDIS_URL"`
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Cart and checkout. CART_TTL_HOURS=0 keeps carts until Redis evicts them.
	CartTTLHours        int `env:"CART_TTL_HOURS" envDefault:"0"`
	IdempotencyTTLHours int `env:"IDEMPOTENCY_TTL_HOURS" envDefault:"24"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Email. Without an API key, messages are logged instead of sent.
	ResendAPIKey      string `env:"RESEND_API_KEY"`
	ResendBaseURL     string `env:"RESEND_BASE_URL" envDefault:"https://api.resend.com"`
	EmailFrom         string `env:"EMAIL_FROM" envDefault:"Khalifa Auto <orders@khalifa-auto.com>"`
	AdminEmail        string `env:"ADMIN_EMAIL" envDefault:"sales@khalifa-auto.com"`
	DealershipName    string `env:"DEALERSHIP_NAME" envDefault:"Khalifa Auto"`
	DealershipPhone   string `env:"DEALERSHIP_PHONE" envDefault:"(713) 555-0100"`
	DealershipWebsite string `env:"DEALERSHIP_WEBSITE"`

	// Circuit breaker for the email API
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Shopper sessions
	SessionSecret       string `env:"SESSION_SECRET" envDefault:"dev-only-secret-change-me-0123456789abcdef"`
	SessionTTLHours     int    `env:"SESSION_TTL_HOURS" envDefault:"720"`
	SessionCookieSecure bool   `env:"SESSION_COOKIE_SECURE" envDefault:"false"`

	// Admin gate
	AdminJWTSecret string `env:"ADMIN_JWT_SECRET" envDefault:"dev-only-secret-change-me-0123456789abcdef"`
	AdminJWTIssuer string `env:"ADMIN_JWT_ISSUER" envDefault:"khalifa-auto"`
	AdminUserID    string `env:"ADMIN_USER_ID" envDefault:"admin"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.FormRatePerMinute < 0 || c.FormRateBurst < 0 {
		return fmt.Errorf("FORM_RATE_PER_MINUTE and FORM_RATE_BURST cannot be negative")
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		return err
	}
	if c.DatabaseURL == "" && c.PostgresHost == "" {
		return fmt.Errorf("DATABASE_URL or POSTGRES_HOST is required")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	if c.SessionTTLHours < 1 {
		return fmt.Errorf("SESSION_TTL_HOURS must be at least 1")
	}
	if c.CartTTLHours < 0 {
		return fmt.Errorf("CART_TTL_HOURS cannot be negative")
	}
	if c.IdempotencyTTLHours < 1 {
		return fmt.Errorf("IDEMPOTENCY_TTL_HOURS must be at least 1")
	}
	if _, err := mail.ParseAddress(c.EmailFrom); err != nil {
		return fmt.Errorf("invalid EMAIL_FROM %q: %w", c.EmailFrom, err)
	}
	if _, err := mail.ParseAddress(c.AdminEmail); err != nil {
		return fmt.Errorf("invalid ADMIN_EMAIL %q: %w", c.AdminEmail, err)
	}
	if c.ResendAPIKey != "" {
		if _, err := url.ParseRequestURI(c.ResendBaseURL); err != nil {
			return fmt.Errorf("invalid RESEND_BASE_URL %q: %w", c.ResendBaseURL, err)
		}
	}
	if c.AdminUserID == "" {
		return fmt.Errorf("ADMIN_USER_ID is required")
	}
	if len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 bytes")
	}
	if len(c.AdminJWTSecret) < 32 {
		return fmt.Errorf("ADMIN_JWT_SECRET must be at least 32 bytes")
	}
	if c.IsProduction() {
		if c.SessionSecret == devSecret || c.AdminJWTSecret == devSecret {
			return fmt.Errorf("SESSION_SECRET and ADMIN_JWT_SECRET must be set in production")
		}
		if c.AdminUserID == "admin" {
			return fmt.Errorf("ADMIN_USER_ID must be set in production")
		}
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Postgres returns the connection settings for pkg/database.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		URL:             c.DatabaseURL,
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// Redis returns the connection settings for pkg/database.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		URL:      c.RedisURL,
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// CircuitBreaker returns the breaker settings for the named upstream.
func (c *Config) CircuitBreaker(name string) httpclient.CircuitBreakerConfig {
	return httpclient.CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  c.CBMaxRequests,
		Interval:     time.Duration(c.CBInterval) * time.Second,
		Timeout:      time.Duration(c.CBTimeout) * time.Second,
		FailureRatio: c.CBFailureRatio,
		MinRequests:  c.CBMinRequests,
	}
}

// TrustedProxyPrefixes parses TRUSTED_PROXIES. A bare address is taken as a
// single-host prefix.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "/") {
			addr, err := netip.ParseAddr(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", raw, err)
			}
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		p, err := netip.ParsePrefix(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", raw, err)
		}
		prefixes = append(prefixes, p.Masked())
	}
	return prefixes, nil
}

// CartTTL returns how long an idle cart is kept. Zero means no expiry.
func (c *Config) CartTTL() time.Duration {
	return time.Duration(c.CartTTLHours) * time.Hour
}

// IdempotencyTTL returns how long a checkout submission key is remembered.
func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempotencyTTLHours) * time.Hour
}

// SessionTTL returns the lifetime of a shopper session cookie.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// SlowQueryThreshold returns the slow query logging threshold.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryThresholdMs) * time.Millisecond
}
