package graph

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedwatch/internal/core"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		BaseURL:     srv.URL + "/v12.0/",
		AccessToken: "secret-token",
		Timeout:     5 * time.Second,
	}, core.NewLogger())
}

func TestReadFeeds_RequestShape(t *testing.T) {
	var gotPath, gotFields, gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotFields = r.URL.Query().Get("fields")
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data":[{"id":"1"}]}`))
	})

	resp, err := client.ReadFeeds(context.Background(), "12345")
	require.NoError(t, err)

	assert.Equal(t, "/v12.0/12345/product_feeds", gotPath)
	assert.Equal(t, feedListFields, gotFields)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"data":[{"id":"1"}]}`, string(resp.Body))
}

func TestReads_UseExpectedFields(t *testing.T) {
	var mu sync.Mutex
	fields := map[string]string{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		fields[r.URL.Path] = r.URL.Query().Get("fields")
		mu.Unlock()
		w.Write([]byte(`{}`))
	})
	ctx := context.Background()

	_, err := client.ReadFeedMetadata(ctx, "feed-1")
	require.NoError(t, err)
	_, err = client.ReadUploadMetadata(ctx, "upload-1")
	require.NoError(t, err)
	_, err = client.ReadFeedInformation(ctx, "feed-2")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, feedMetadataFields, fields["/v12.0/feed-1"])
	assert.Equal(t, uploadMetadataFields, fields["/v12.0/upload-1"])
	assert.Equal(t, feedInformationFields, fields["/v12.0/feed-2"])
}

func TestReadFeedInformation_NonOKIsNotATransportError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"denied"}}`))
	})

	resp, err := client.ReadFeedInformation(context.Background(), "feed-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "denied")
}

func TestGet_TransportError(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, core.NewLogger())

	_, err := client.ReadFeeds(context.Background(), "1")
	assert.Error(t, err)
}

func TestGet_EscapesOnlyTheNodeID(t *testing.T) {
	var gotEscapedPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotEscapedPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data":[]}`))
	})

	_, err := client.ReadFeeds(context.Background(), "cat/../other")
	require.NoError(t, err)
	assert.Equal(t, "/v12.0/cat%2F..%2Fother/product_feeds", gotEscapedPath)

	_, err = client.ReadFeedMetadata(context.Background(), "feed 1")
	require.NoError(t, err)
	assert.Equal(t, "/v12.0/feed%201", gotEscapedPath)
}
