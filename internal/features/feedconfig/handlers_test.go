package feedconfig

import (
	"bytes"
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
)

func newTestRouter(d *Detector) http.Handler {
	feature := NewFeature(core.NewLogger(), d, core.FeedConfigConfig{Enabled: true})
	r := chi.NewRouter()
	for _, route := range feature.Routes() {
		r.MethodFunc(route.Method, route.Path, route.Handler)
	}
	return r
}

func TestHandler_CheckReportsValidity(t *testing.T) {
	g := newFakeGraph()
	g.information["site"] = ok(t, feedInformation("site", siteFeedURL, dailySchedule(), testNow.Add(-time.Hour)))
	router := newTestRouter(newTestDetector(g, fakeSettings{catalogID: "cat", feedID: "site"}, nil, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/feed-config/api/check", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"valid":true}`, rec.Body.String())
}

func TestHandler_CheckUpstreamFailure(t *testing.T) {
	g := newFakeGraph()
	router := newTestRouter(newTestDetector(g, fakeSettings{catalogID: "cat", feedID: "site"}, nil, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/feed-config/api/check", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var body struct {
		Error   core.AppError `json:"error"`
		Success bool          `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, core.ErrCodeUpstream, body.Error.Code)
}

func TestHandler_TrackerInfoNotConnected(t *testing.T) {
	router := newTestRouter(newTestDetector(newFakeGraph(), fakeSettings{}, nil, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feed-config/api/tracker-info", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandler_TrackerInfoNoFeeds(t *testing.T) {
	g := newFakeGraph()
	g.feeds["cat"] = ok(t, feedList())
	router := newTestRouter(newTestDetector(g, fakeSettings{catalogID: "cat"}, nil, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feed-config/api/tracker-info", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_ValidateFeed(t *testing.T) {
	g := newFakeGraph()
	g.information["123"] = ok(t, feedInformation("123", siteFeedURL+"/", dailySchedule(), testNow.Add(-time.Hour)))
	router := newTestRouter(newTestDetector(g, fakeSettings{}, nil, nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feed-config/api/feeds/123/validation", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"valid": false,
		"validation": {
			"feed_id": "123",
			"has_recent_upload": true,
			"uses_correct_url": false,
			"has_correct_schedule": true
		}
	}`, rec.Body.String())
}

func TestFeature_Tasks(t *testing.T) {
	d := newTestDetector(newFakeGraph(), fakeSettings{}, nil, nil)
	feature := NewFeature(core.NewLogger(), d, core.FeedConfigConfig{
		Enabled:         true,
		TrackerInterval: 12 * time.Hour,
	})

	tasks := feature.Tasks()
	require.Len(t, tasks, 2)

	assert.Equal(t, TrackerTaskName, tasks[0].Name)
	assert.Equal(t, 12*time.Hour, tasks[0].Interval)
	assert.False(t, tasks[0].RunOnStart)

	assert.Equal(t, CheckTaskName, tasks[1].Name)
	assert.Equal(t, 24*time.Hour, tasks[1].Interval)
	assert.True(t, tasks[1].RunOnStart)
}

// brokenResponseWriter fails every body write, like a client that hung up
type brokenResponseWriter struct {
	header http.Header
}

func (w *brokenResponseWriter) Header() http.Header {
	if w.header == nil {
		w.header = http.Header{}
	}
	return w.header
}

func (w *brokenResponseWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }
func (w *brokenResponseWriter) WriteHeader(int)           {}

func TestHandler_LogsResponseEncodingFailure(t *testing.T) {
	var logs bytes.Buffer
	g := newFakeGraph()
	g.information["site"] = ok(t, feedInformation("site", siteFeedURL, dailySchedule(), testNow.Add(-time.Hour)))
	d := newTestDetector(g, fakeSettings{catalogID: "cat", feedID: "site"}, nil, nil)
	h := NewHandler(core.NewLoggerWithWriter(&logs, slog.LevelInfo), d)

	h.Check(&brokenResponseWriter{}, httptest.NewRequest(http.MethodPost, "/feed-config/api/check", nil))

	assert.Contains(t, logs.String(), "Failed to encode response")
	assert.Contains(t, logs.String(), "connection reset")
}
