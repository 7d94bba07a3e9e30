package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/family-ledger/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Server: config.ServerConfig{
			AllowedOrigins:     []string{"http://localhost:3000"},
			RateLimitPerSecond: 1,
			RateLimitBurst:     3,
		},
		Database: config.DatabaseConfig{OwnerID: "00000000-0000-0000-0000-000000000001"},
		Storage: config.StorageConfig{
			DataDir:    filepath.Join(dir, "data"),
			ArchiveDir: filepath.Join(dir, "statements"),
		},
		Import: config.ImportConfig{
			InboxDir:      filepath.Join(dir, "inbox"),
			DefaultBank:   "generic",
			SweepSchedule: "@every 1h",
			MaxUploadMB:   1,
			MaxPDFPages:   10,
			MaxSheetRows:  100,
			Timeout:       time.Minute,
		},
		Observability: config.ObservabilityConfig{MetricsEnabled: true, LogLevel: "error"},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) (http.Handler, *Dependencies) {
	t.Helper()
	deps, err := InitDependencies(cfg, NewLogger("error", io.Discard))
	require.NoError(t, err)
	t.Cleanup(deps.Cleanup)
	return NewRouter(deps), deps
}

func TestInitDependencies_FileBacked(t *testing.T) {
	_, deps := newTestRouter(t, testConfig(t))

	assert.Nil(t, deps.DB)
	assert.NotNil(t, deps.Scheduler)
	assert.NotEmpty(t, deps.Store.Categories())
}

func TestInitDependencies_InvalidOwner(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.OwnerID = "household"
	_, err := InitDependencies(cfg, NewLogger("error", io.Discard))
	assert.Error(t, err)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, false, health["importing"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRouter_MetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Observability.MetricsEnabled = false
	router, _ := newTestRouter(t, cfg)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(t))

	codes := make([]int, 0, 5)
	for range 5 {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 200, 429, 429}, codes)

	// Health stays outside the limiter.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CORS(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(t))

	req := httptest.NewRequest(http.MethodOptions, "/api/transactions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_UploadTooLarge(t *testing.T) {
	router, _ := newTestRouter(t, testConfig(t))

	req := httptest.NewRequest(http.MethodPost, "/api/imports", bytes.NewReader(make([]byte, 2<<20)))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
