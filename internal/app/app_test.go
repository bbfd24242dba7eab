package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/observability"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
	_ "github.com/nippon-flex/servicios-rapidos-ec/testing"
)

func testConfig() *Config {
	return &Config{AppEnv: "test", RateLimitPerMinute: 100, PublicRateLimitPerMinute: 2}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PG_DSN", "postgres://u:p@db:5432/servicios")
	t.Setenv("QUOTE_VALIDITY_DAYS", "10")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, "postgres://u:p@db:5432/servicios", cfg.PGDSN)
	assert.Equal(t, 10, cfg.QuoteValidityDays)
	assert.Equal(t, "UIO", cfg.DefaultRegion)
	assert.Equal(t, "gpt-4o-mini", cfg.TextGenModel)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("QUOTE_VALIDITY_DAYS", "0")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, &Config{LogFormat: "json"}).Info("hello", slog.String("k", "v"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "v", line["k"])
	assert.NotNil(t, line["source"])
}

func TestInTestMode(t *testing.T) {
	assert.True(t, InTestMode())
}

func TestActorMiddleware(t *testing.T) {
	var actor string
	h := actorMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = shared.ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(OperatorHeader, "  maria ")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "maria", actor)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, shared.SystemActor, actor)
}

func TestRouterHealthAndHeaders(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	healthy := true
	router := NewRouter(RouterParams{
		Logger:  logger,
		Config:  testConfig(),
		Metrics: observability.NewMetrics(),
		Health: map[string]HealthCheck{
			"postgres": func(ctx context.Context) error {
				if healthy {
					return nil
				}
				return errors.New("connection refused")
			},
		},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Body.String(), `"postgres":"ok"`)

	healthy = false
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "servicios_http_requests_total")
}

func TestPublicRateLimit(t *testing.T) {
	h := PublicRateLimit(testConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/public/leads", nil)
		req.RemoteAddr = "10.0.0.9:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}
