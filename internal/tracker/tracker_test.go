package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedwatch/internal/core"
	"feedwatch/internal/features/feedconfig"
	"feedwatch/internal/settings"
)

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

type failingStore struct{}

func (failingStore) SetTransient(ctx context.Context, name string, value any, ttl time.Duration) error {
	return errors.New("disk full")
}

type recordingPublisher struct {
	subject string
	data    [][]byte
	err     error
}

func (p *recordingPublisher) Publish(subj string, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.subject = subj
	p.data = append(p.data, data)
	return nil
}

func sampleInfo() feedconfig.TrackerInfo {
	return feedconfig.TrackerInfo{
		"site-feed-id": "123",
		"feed-count":   2,
		"active-feed":  map[string]any{"id": "123", "product-count": 10},
	}
}

func TestStoreTracker_WritesTransient(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	NewStoreTracker(store, core.NewLogger()).TrackFeedConfig(ctx, sampleInfo())

	var got map[string]any
	found, err := store.GetTransient(ctx, settings.TransientTrackerInfo, &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "123", got["site-feed-id"])
	assert.Equal(t, float64(2), got["feed-count"])
}

func TestStoreTracker_FailureIsSwallowed(t *testing.T) {
	tracker := NewStoreTracker(failingStore{}, core.NewLogger())

	assert.NotPanics(t, func() {
		tracker.TrackFeedConfig(context.Background(), sampleInfo())
	})
}

func TestNATSTracker_PublishesEnvelope(t *testing.T) {
	publisher := &recordingPublisher{}
	tracker := NewNATSTracker(publisher, "feedwatch.tracker.feed_config", core.NewLogger())
	tracker.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	tracker.TrackFeedConfig(context.Background(), sampleInfo())

	require.Len(t, publisher.data, 1)
	assert.Equal(t, "feedwatch.tracker.feed_config", publisher.subject)

	var message Message
	require.NoError(t, json.Unmarshal(publisher.data[0], &message))
	assert.Equal(t, "feed_config", message.Event)
	assert.Equal(t, "feedwatch", message.Source)
	assert.Equal(t, "123", message.Info["site-feed-id"])
	assert.True(t, message.Timestamp.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))
}

func TestNATSTracker_PublishFailureIsSwallowed(t *testing.T) {
	publisher := &recordingPublisher{err: errors.New("nats: connection closed")}
	tracker := NewNATSTracker(publisher, "subject", core.NewLogger())

	assert.NotPanics(t, func() {
		tracker.TrackFeedConfig(context.Background(), sampleInfo())
	})
	assert.Empty(t, publisher.data)
}

func TestMulti_DeliversToEverySinkDespiteFailures(t *testing.T) {
	store := newTestStore(t)
	publisher := &recordingPublisher{}
	multi := Multi{
		NewStoreTracker(failingStore{}, core.NewLogger()),
		NewNATSTracker(publisher, "subject", core.NewLogger()),
		NewStoreTracker(store, core.NewLogger()),
	}

	multi.TrackFeedConfig(context.Background(), sampleInfo())

	assert.Len(t, publisher.data, 1)

	var got map[string]any
	found, err := store.GetTransient(context.Background(), settings.TransientTrackerInfo, &got)
	require.NoError(t, err)
	assert.True(t, found)
}
