package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedwatch/internal/core"
)

func testConfig(t *testing.T, password string) *core.Config {
	t.Helper()

	return &core.Config{
		Server:   core.ServerConfig{Port: 4000, Host: "127.0.0.1"},
		Database: core.DatabaseConfig{Path: filepath.Join(t.TempDir(), "feedwatch.db")},
		Auth:     core.AuthConfig{AdminUser: "admin", AdminPassword: password},
		Graph:    core.GraphConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second},
		Features: core.FeatureConfig{
			FeedConfig: core.FeedConfigConfig{
				Enabled:         true,
				CatalogID:       "cat",
				TrackerInterval: time.Hour,
				CheckInterval:   time.Hour,
			},
			FeedStatus: core.FeedStatusConfig{Enabled: true, FeedGenerationLimit: 500},
		},
	}
}

func newTestServer(t *testing.T, password string) *Server {
	t.Helper()

	app, err := NewApp(context.Background(), testConfig(t, password), core.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })

	srv, err := New(app)
	require.NoError(t, err)
	return srv
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthIsOpen(t *testing.T) {
	srv := newTestServer(t, "secret")

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestMetricsIsOpen(t *testing.T) {
	srv := newTestServer(t, "secret")

	serve(srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "feedwatch_http_requests_total")
}

func TestAdminRoutesRequireCredentials(t *testing.T) {
	srv := newTestServer(t, "secret")

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/feed-status/api/progress", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/feed-status/api/progress", nil)
	req.SetBasicAuth("admin", "wrong")
	assert.Equal(t, http.StatusUnauthorized, serve(srv, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/feed-status/api/progress", nil)
	req.SetBasicAuth("admin", "secret")
	rec = serve(srv, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(0), body["progress"])
}

func TestDashboardListsFeatures(t *testing.T) {
	srv := newTestServer(t, "")

	rec := serve(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Features map[string]core.FeatureStatus `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Features, "feed_config")
	assert.Contains(t, body.Features, "feed_status")
}

func TestNewAppSchedulesFeatureTasks(t *testing.T) {
	srv := newTestServer(t, "")

	_, ok := srv.app.Scheduler.NextRun("feed-config-tracker")
	assert.False(t, ok, "not started yet")
	assert.Error(t, srv.app.Scheduler.Register(core.Task{
		Name: "feed-config-tracker", Interval: time.Hour, Run: func(ctx context.Context) {},
	}))

	var catalogID string
	found, err := srv.app.Settings.Get(context.Background(), "product_catalog_id", &catalogID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "cat", catalogID)
}
