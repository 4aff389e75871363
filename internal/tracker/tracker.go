// Package tracker delivers feed configuration summaries to telemetry sinks.
// Every sink is fire-and-forget: failures are logged and counted, never returned.
package tracker

import (
	"context"
	"time"

	"feedwatch/internal/core"
	"feedwatch/internal/features/feedconfig"
	"feedwatch/internal/metrics"
	"feedwatch/internal/settings"
)

// TrackerInfoTTL is how long a stored summary stays readable
const TrackerInfoTTL = 7 * 24 * time.Hour

// TransientStore is the part of the settings store the store sink writes to
type TransientStore interface {
	SetTransient(ctx context.Context, name string, value any, ttl time.Duration) error
}

// StoreTracker keeps the latest summary as a settings transient
type StoreTracker struct {
	store  TransientStore
	logger *core.Logger
}

func NewStoreTracker(store TransientStore, logger *core.Logger) *StoreTracker {
	return &StoreTracker{store: store, logger: logger}
}

func (t *StoreTracker) TrackFeedConfig(ctx context.Context, info feedconfig.TrackerInfo) {
	if err := t.store.SetTransient(ctx, settings.TransientTrackerInfo, info, TrackerInfoTTL); err != nil {
		metrics.TrackerEventsTotal.WithLabelValues("store", "error").Inc()
		t.logger.Error("Failed to store tracker info", "error", err)
		return
	}

	metrics.TrackerEventsTotal.WithLabelValues("store", "ok").Inc()
	t.logger.Debug("Stored tracker info", "key", settings.TransientTrackerInfo, "ttl", TrackerInfoTTL)
}

// Multi fans a summary out to every sink in order
type Multi []feedconfig.Tracker

func (m Multi) TrackFeedConfig(ctx context.Context, info feedconfig.TrackerInfo) {
	for _, sink := range m {
		sink.TrackFeedConfig(ctx, info)
	}
}
