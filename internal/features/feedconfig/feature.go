package feedconfig

import (
	"context"
	"time"

	"feedwatch/internal/core"
)

// Scheduled task names
const (
	TrackerTaskName = "feed-config-tracker"
	CheckTaskName   = "feed-config-check"
)

type Feature struct {
	*core.BaseFeature
	detector *Detector
	config   core.FeedConfigConfig
	handler  *Handler
}

func NewFeature(logger *core.Logger, detector *Detector, config core.FeedConfigConfig) *Feature {
	baseFeature := core.NewBaseFeature(
		"feed_config",
		"Facebook product feed configuration detection and tracking",
		config.Enabled,
		logger,
	)

	return &Feature{
		BaseFeature: baseFeature,
		detector:    detector,
		config:      config,
		handler:     NewHandler(baseFeature.Logger(), detector),
	}
}

// Detector exposes the feature's detector to the CLI
func (f *Feature) Detector() *Detector {
	return f.detector
}

// Init initializes the feed config feature
func (f *Feature) Init(ctx context.Context) error {
	if err := f.BaseFeature.Init(ctx); err != nil {
		return err
	}

	if f.config.CatalogID == "" {
		f.Logger().Warn("No catalog configured in environment; relying on stored settings")
	}
	if f.config.FeedDataURL == "" {
		f.Logger().Warn("Feed data URL is empty; no feed will pass the URL check")
	}

	f.Logger().Info("Feed config feature initialized")
	return nil
}

// Routes returns the HTTP routes for the feed config feature
func (f *Feature) Routes() []core.Route {
	return []core.Route{
		{Method: "POST", Path: "/feed-config/api/check", Handler: f.handler.Check},
		{Method: "GET", Path: "/feed-config/api/tracker-info", Handler: f.handler.TrackerInfo},
		{Method: "GET", Path: "/feed-config/api/feeds/{id}/validation", Handler: f.handler.ValidateFeed},
	}
}

// Tasks returns the daily tracker run and the validity check
func (f *Feature) Tasks() []core.Task {
	return []core.Task{
		{
			Name:     TrackerTaskName,
			Interval: f.interval(f.config.TrackerInterval),
			Run:      f.detector.TrackDataSourceFeedTrackerInfo,
		},
		{
			Name:       CheckTaskName,
			Interval:   f.interval(f.config.CheckInterval),
			RunOnStart: true,
			Run:        f.detector.RunCheck,
		},
	}
}

func (f *Feature) interval(d time.Duration) time.Duration {
	if d <= 0 {
		return 24 * time.Hour
	}
	return d
}
