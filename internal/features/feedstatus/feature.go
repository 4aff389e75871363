package feedstatus

import (
	"context"

	"feedwatch/internal/core"
)

type Feature struct {
	*core.BaseFeature
	service *Service
	handler *Handler
}

func NewFeature(logger *core.Logger, options OptionReader, schedule RunSchedule, config core.FeedStatusConfig) *Feature {
	baseFeature := core.NewBaseFeature(
		"feed_status",
		"Feed file generation progress page",
		config.Enabled,
		logger,
	)

	service := NewService(options, schedule, config.FeedGenerationLimit, baseFeature.Logger())

	return &Feature{
		BaseFeature: baseFeature,
		service:     service,
		handler:     NewHandler(baseFeature.Logger(), service),
	}
}

// Init initializes the feed status feature
func (f *Feature) Init(ctx context.Context) error {
	if err := f.BaseFeature.Init(ctx); err != nil {
		return err
	}

	f.Logger().Info("Feed status feature initialized", "page_size", f.service.pageSize)
	return nil
}

// Routes returns the HTTP routes for the feed status feature
func (f *Feature) Routes() []core.Route {
	return []core.Route{
		{Method: "GET", Path: "/feed-status", Handler: f.handler.Page},
		{Method: "GET", Path: "/feed-status/progress-bar", Handler: f.handler.ProgressBar},
		{Method: "GET", Path: "/feed-status/api/progress", Handler: f.handler.Progress},
	}
}
