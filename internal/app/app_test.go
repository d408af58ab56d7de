package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, 50, cfg.MaxRows)
	require.Equal(t, 20, cfg.MaxColumns)
	require.Equal(t, "boardsmith-professional", cfg.DefaultTheme)
	require.True(t, cfg.CacheEnabled)
	require.Equal(t, 10*time.Minute, cfg.CacheTTL)
	require.Equal(t, 50, cfg.ChartLimits().MaxRows)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsBadCaps(t *testing.T) {
	t.Setenv("MAX_ROWS", "0")

	_, err := LoadConfig()
	require.Error(t, err)
	require.Contains(t, err.Error(), "max rows")
}

func TestConfigValidate(t *testing.T) {
	base := Config{MaxRows: 50, MaxColumns: 20, ExportTTL: time.Hour, CacheEnabled: true, CacheTTL: time.Minute, WorkerConcurrency: 1, RateLimit: 1, ExportRateLimit: 1}
	require.NoError(t, base.Validate())

	noCache := base
	noCache.CacheEnabled = false
	noCache.CacheTTL = 0
	require.NoError(t, noCache.Validate())

	badCols := base
	badCols.MaxColumns = -1
	require.Error(t, badCols.Validate())

	badWorkers := base
	badWorkers.WorkerConcurrency = 0
	require.Error(t, badWorkers.Validate())
}

func TestLoggerFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{LogFormat: "json", LogLevel: "warn"})
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, `"msg":"shown"`)

	buf.Reset()
	newLogger(&buf, &Config{LogFormat: "pretty", LogLevel: "debug"}).Debug("text")
	require.Contains(t, buf.String(), "msg=text")
}

func testComponents(t *testing.T, redisAddr string) *Components {
	t.Helper()
	cfg := &Config{
		RedisAddr:         redisAddr,
		CacheEnabled:      true,
		CacheTTL:          time.Minute,
		DefaultTheme:      "financial",
		MaxRows:           50,
		MaxColumns:        20,
		ExportTTL:         time.Minute,
		ExportRateLimit:   5,
		RateLimit:         100,
		WorkerConcurrency: 2,
		CacheFlushCron:    "@every 1h",
	}
	c, err := NewComponents(context.Background(), cfg, newLogger(&bytes.Buffer{}, cfg))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestComponentsWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	c := testComponents(t, mr.Addr())

	require.NotNil(t, c.Redis)
	require.NotNil(t, c.Store)
	require.NotNil(t, c.Queue)
	require.NotNil(t, c.Service.Cache())
	require.Equal(t, "financial", c.Themes.Default())

	worker, err := c.Worker()
	require.NoError(t, err)
	require.NotNil(t, worker)
}

func TestComponentsWithoutRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	c := testComponents(t, addr)

	require.Nil(t, c.Redis)
	require.Nil(t, c.Store)
	require.Nil(t, c.Service.Cache())
	_, err := c.Worker()
	require.Error(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/charts/render", strings.NewReader(`{"kind":"line","rows":[{"category":"Jan","sales":3}]}`))
	c.Handler(nil).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter(t *testing.T) {
	mr := miniredis.RunT(t)
	c := testComponents(t, mr.Addr())
	handler := c.Handler(nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = httptest.NewRecorder()
	body := `{"kind":"column","subkind":"stacked","rows":[{"category":"Q1","a":1,"b":2}]}`
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/charts/render", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"archetype":"stacked"`)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `chartsmith_chart_builds_total{archetype="stacked",cached="false"} 1`)
	require.Contains(t, rec.Body.String(), `chartsmith_http_requests_total{code="200",route="/charts/render"} 1`)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestTestMode(t *testing.T) {
	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	require.True(t, InTestMode())

	t.Setenv(testModeEnv, "")
	RefreshTestMode()
	require.False(t, InTestMode())
}
