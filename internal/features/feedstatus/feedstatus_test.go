package feedstatus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedwatch/internal/core"
	"feedwatch/internal/features/feedconfig"
	"feedwatch/internal/features/feedstatus/models"
	"feedwatch/internal/settings"
)

type fakeSchedule struct {
	next map[string]time.Time
	last map[string]time.Time
}

func (s fakeSchedule) NextRun(name string) (time.Time, bool) {
	t, ok := s.next[name]
	return t, ok
}

func (s fakeSchedule) LastRun(name string) (time.Time, bool) {
	t, ok := s.last[name]
	return t, ok
}

func newTestStore(t *testing.T) *settings.Store {
	t.Helper()
	logger := core.NewLogger()

	db, err := core.OpenDatabase(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := settings.NewStore(db, logger)
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func newTestRouter(t *testing.T, store *settings.Store, schedule RunSchedule) http.Handler {
	t.Helper()
	feature := NewFeature(core.NewLogger(), store, schedule, core.FeedStatusConfig{Enabled: true})
	r := chi.NewRouter()
	for _, route := range feature.Routes() {
		r.MethodFunc(route.Method, route.Path, route.Handler)
	}
	return r
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name     string
		state    models.JobState
		pageSize int
		expected int
	}{
		{"zero total", models.JobState{Total: 0, Page: 3}, 500, 0},
		{"not started", models.JobState{Total: 1000, Page: 0}, 500, 0},
		{"half way", models.JobState{Total: 1000, Page: 1}, 500, 50},
		{"rounds down", models.JobState{Total: 3000, Page: 1}, 500, 16},
		{"complete", models.JobState{Total: 1000, Page: 2}, 500, 100},
		{"last batch overshoots", models.JobState{Total: 1200, Page: 3}, 500, 125},
		{"small page size", models.JobState{Total: 7, Page: 3}, 2, 85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Progress(tt.state, tt.pageSize))
		})
	}
}

func TestService_DefaultsPageSize(t *testing.T) {
	service := NewService(newTestStore(t), nil, 0, core.NewLogger())
	assert.Equal(t, DefaultFeedGenerationLimit, service.pageSize)
}

func TestService_StatusWithoutJob(t *testing.T) {
	service := NewService(newTestStore(t), nil, 500, core.NewLogger())

	status, err := service.Status(context.Background())
	require.NoError(t, err)

	assert.False(t, status.HasJob)
	assert.False(t, status.InProgress)
	assert.Equal(t, 0, status.Progress)
	assert.Nil(t, status.NextRun)
	assert.Nil(t, status.TrackerInfo)
}

func TestService_StatusDoneJob(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, settings.OptionRunningFeedSettings, models.JobState{
		Total: 1000, Page: 2, Start: 1714550400, End: 1714550400 + 150, Done: true,
	}))
	require.NoError(t, store.SetTransient(ctx, settings.TransientTrackerInfo,
		map[string]any{"site-feed-id": "123", "feed-count": 1}, time.Hour))

	next := time.Date(2024, 5, 2, 3, 0, 0, 0, time.UTC)
	schedule := fakeSchedule{next: map[string]time.Time{feedconfig.TrackerTaskName: next}}
	service := NewService(store, schedule, 500, core.NewLogger())

	status, err := service.Status(ctx)
	require.NoError(t, err)

	assert.True(t, status.HasJob)
	assert.False(t, status.InProgress)
	assert.Equal(t, 100, status.Progress)
	assert.Equal(t, 2.5, status.DoneMinutes)
	require.NotNil(t, status.NextRun)
	assert.True(t, next.Equal(*status.NextRun))
	assert.Nil(t, status.LastTrackedAt)
	assert.Equal(t, "123", status.TrackerInfo["site-feed-id"])
}

func TestHandler_ProgressAPI(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set(context.Background(), settings.OptionRunningFeedSettings, models.JobState{
		Total: 2000, Page: 1, Start: 1714550400,
	}))
	router := newTestRouter(t, store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feed-status/api/progress", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"total": 2000,
		"page": 1,
		"start": 1714550400,
		"end": 0,
		"done": false,
		"progress": 25,
		"in_progress": true
	}`, rec.Body.String())
}

func TestHandler_ProgressAPIWithoutJob(t *testing.T) {
	router := newTestRouter(t, newTestStore(t), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feed-status/api/progress", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body models.ProgressResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Progress)
	assert.False(t, body.InProgress)
}

func TestHandler_PageRendersJob(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, settings.OptionRunningFeedSettings, models.JobState{
		Total: 1000, Page: 2, Start: 1714550400, End: 1714550400 + 600, Done: true,
	}))
	require.NoError(t, store.SetTransient(ctx, settings.TransientTrackerInfo,
		map[string]any{"site-feed-id": "feed-'123'"}, time.Hour))
	router := newTestRouter(t, store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feed-status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, body, "Total number of products")
	assert.Contains(t, body, "1000")
	assert.Contains(t, body, "2024-05-01 08:00:00")
	assert.Contains(t, body, "Done in 10 minutes.")
	assert.Contains(t, body, `aria-valuenow="100"`)
	assert.Contains(t, body, "feed-&#39;123&#39;")
	assert.Contains(t, body, "Next feed configuration tracking run")
	assert.NotContains(t, body, "Next scheduled run")
}

func TestHandler_ProgressBarPollsWhileRunning(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set(context.Background(), settings.OptionRunningFeedSettings, models.JobState{
		Total: 1000, Page: 1, Start: 1714550400,
	}))
	router := newTestRouter(t, store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feed-status/progress-bar", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `hx-trigger="every 5s"`)
	assert.Contains(t, rec.Body.String(), "50%")
}

type brokenResponseWriter struct {
	header http.Header
}

func (w *brokenResponseWriter) Header() http.Header {
	if w.header == nil {
		w.header = http.Header{}
	}
	return w.header
}

func (w *brokenResponseWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }
func (w *brokenResponseWriter) WriteHeader(int)           {}

func TestHandler_ProgressLogsEncodingFailure(t *testing.T) {
	var logs bytes.Buffer
	logger := core.NewLoggerWithWriter(&logs, slog.LevelInfo)
	h := NewHandler(logger, NewService(newTestStore(t), nil, 0, logger))

	h.Progress(&brokenResponseWriter{}, httptest.NewRequest(http.MethodGet, "/feed-status/api/progress", nil))

	assert.Contains(t, logs.String(), "Failed to encode progress response")
	assert.Contains(t, logs.String(), "broken pipe")
}

func TestHandler_ProgressBarClampsOvershoot(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set(context.Background(), settings.OptionRunningFeedSettings, models.JobState{
		Total: 1000, Page: 5, Start: 1714550400,
	}))
	router := newTestRouter(t, store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feed-status/progress-bar", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="100"`)
	assert.Contains(t, rec.Body.String(), `aria-valuenow="250"`)
	assert.Contains(t, rec.Body.String(), "250%")
}
