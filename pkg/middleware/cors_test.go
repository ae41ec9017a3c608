package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

const storefrontOrigin = "https://khalifaauto.example"

func corsRequest(cfg CORSConfig, method, origin string) *httptest.ResponseRecorder {
	handler := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(method, "/api/v1/cart", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestCORS_OriginMatching(t *testing.T) {
	tests := []struct {
		name       string
		cfg        CORSConfig
		origin     string
		wantOrigin string
		wantVary   bool
	}{
		{
			name:       "development wildcard",
			cfg:        CORSConfig{Environment: "development"},
			origin:     "http://localhost:3000",
			wantOrigin: "*",
		},
		{
			name:       "production allowed origin",
			cfg:        CORSConfig{AllowedOrigins: []string{storefrontOrigin}, Environment: "production"},
			origin:     storefrontOrigin,
			wantOrigin: storefrontOrigin,
			wantVary:   true,
		},
		{
			name:   "production rejected origin",
			cfg:    CORSConfig{AllowedOrigins: []string{storefrontOrigin}, Environment: "production"},
			origin: "https://evil.example",
		},
		{
			name: "production no origin",
			cfg:  CORSConfig{AllowedOrigins: []string{storefrontOrigin}, Environment: "production"},
		},
		{
			name:       "explicit wildcard in production",
			cfg:        CORSConfig{AllowedOrigins: []string{"*"}, Environment: "production"},
			origin:     "https://any.example",
			wantOrigin: "*",
		},
		{
			name:       "wildcard with credentials echoes origin",
			cfg:        CORSConfig{AllowedOrigins: []string{"*"}, AllowCredentials: true},
			origin:     "http://localhost:3000",
			wantOrigin: "http://localhost:3000",
			wantVary:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := corsRequest(tt.cfg, http.MethodGet, tt.origin)
			assert.Equal(t, tt.wantOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantVary {
				assert.Equal(t, "Origin", rr.Header().Get("Vary"))
			}
		})
	}
}

func TestCORS_PreflightReturns204(t *testing.T) {
	rr := corsRequest(DefaultCORSConfig(), http.MethodOptions, storefrontOrigin)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestCORS_DefaultsApplied(t *testing.T) {
	rr := corsRequest(CORSConfig{Environment: "development"}, http.MethodGet, "")

	assert.Equal(t, "GET, POST, PUT, PATCH, DELETE, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")
	assert.Equal(t, "3600", rr.Header().Get("Access-Control-Max-Age"))
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_CustomSettings(t *testing.T) {
	rr := corsRequest(CORSConfig{
		AllowedOrigins:   []string{storefrontOrigin},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		MaxAge:           600,
		AllowCredentials: true,
		Environment:      "production",
	}, http.MethodGet, storefrontOrigin)

	assert.Equal(t, "X-Correlation-ID", rr.Header().Get("Access-Control-Expose-Headers"))
	assert.Equal(t, "600", rr.Header().Get("Access-Control-Max-Age"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_DefaultConfig(t *testing.T) {
	cfg := DefaultCORSConfig()
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Contains(t, cfg.AllowedHeaders, "Idempotency-Key")
	assert.Equal(t, "development", cfg.Environment)
}
