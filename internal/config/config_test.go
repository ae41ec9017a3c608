package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setEnvs sets multiple env vars for the duration of the test.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.True(t, cfg.RedisEnabled)
	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.ResendAPIKey)
	assert.Zero(t, cfg.CartTTL(), "carts do not expire unless configured")
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL())
	assert.Equal(t, 500*time.Millisecond, cfg.SlowQueryThreshold())
	assert.Equal(t, "sales@khalifa-auto.com", cfg.AdminEmail)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 10, cfg.FormRatePerMinute)
	assert.Equal(t, 5, cfg.FormRateBurst)
}

func TestLoad_FromEnv(t *testing.T) {
	setEnvs(t, map[string]string{
		"STOREFRONT_HTTP_PORT": "9090",
		"DATABASE_URL":         "postgres://u:p@db:5432/cars?sslmode=require",
		"REDIS_ENABLED":        "false",
		"KAFKA_ENABLED":        "true",
		"KAFKA_BROKERS":        "kafka-1:9092,kafka-2:9092",
		"CART_TTL_HOURS":       "48",
		"CORS_ALLOWED_ORIGINS": "https://khalifa-auto.com,https://www.khalifa-auto.com",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.False(t, cfg.RedisEnabled)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 48*time.Hour, cfg.CartTTL())
	assert.Equal(t, []string{"https://khalifa-auto.com", "https://www.khalifa-auto.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "postgres://u:p@db:5432/cars?sslmode=require", cfg.Postgres().URL)
}

func TestLoad_InvalidHTTPPort(t *testing.T) {
	t.Setenv("STOREFRONT_HTTP_PORT", "0")

	cfg, err := Load()

	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_InvalidSampleRate(t *testing.T) {
	t.Setenv("OTEL_SAMPLE_RATE", "1.5")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "OTEL_SAMPLE_RATE")
}

func TestLoad_NegativeFormRate(t *testing.T) {
	t.Setenv("FORM_RATE_BURST", "-1")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "FORM_RATE_BURST")
}

func TestLoad_TrustedProxies(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.7")

	cfg, err := Load()
	require.NoError(t, err)

	prefixes, err := cfg.TrustedProxyPrefixes()
	require.NoError(t, err)
	require.Len(t, prefixes, 2)
	assert.Equal(t, "10.0.0.0/8", prefixes[0].String())
	assert.Equal(t, "192.0.2.7/32", prefixes[1].String())
}

func TestLoad_InvalidTrustedProxy(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/99")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRUSTED_PROXIES")
}

func TestLoad_NoTrustedProxiesByDefault(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	prefixes, err := cfg.TrustedProxyPrefixes()
	require.NoError(t, err)
	assert.Empty(t, prefixes)
}

func TestLoad_SessionTTLRequired(t *testing.T) {
	t.Setenv("SESSION_TTL_HOURS", "0")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_TTL_HOURS")
}

func TestLoad_InvalidEmailAddresses(t *testing.T) {
	tests := []struct {
		name string
		env  string
	}{
		{"from", "EMAIL_FROM"},
		{"admin", "ADMIN_EMAIL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, "not an address")

			_, err := Load()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.env)
		})
	}
}

func TestLoad_ShortSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "too-short")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}

func TestLoad_ProductionRequiresSecrets(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be set in production")
}

func TestLoad_Production(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT":      "production",
		"SESSION_SECRET":   "prod-session-secret-aaaaaaaaaaaaaaaaaaaa",
		"ADMIN_JWT_SECRET": "prod-admin-secret-bbbbbbbbbbbbbbbbbbbbbb",
		"ADMIN_USER_ID":    "3f0c1d52-owner",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestCircuitBreaker(t *testing.T) {
	setEnvs(t, map[string]string{
		"CB_TIMEOUT_SECONDS": "10",
		"CB_FAILURE_RATIO":   "0.25",
	})

	cfg, err := Load()
	require.NoError(t, err)

	cb := cfg.CircuitBreaker("resend")
	assert.Equal(t, "resend", cb.Name)
	assert.Equal(t, 10*time.Second, cb.Timeout)
	assert.Equal(t, 0.25, cb.FailureRatio)
	assert.Equal(t, uint32(5), cb.MinRequests)
}
