package server

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"feedwatch/internal/core"
	"feedwatch/internal/features/feedconfig"
	"feedwatch/internal/features/feedstatus"
	"feedwatch/internal/graph"
	"feedwatch/internal/settings"
	"feedwatch/internal/tracker"
)

// App holds the wired service components shared by the HTTP server and the CLI
type App struct {
	Config    *core.Config
	Logger    *core.Logger
	DB        *core.Database
	Settings  *settings.Store
	Detector  *feedconfig.Detector
	Tracker   feedconfig.Tracker
	Registry  *core.Registry
	Scheduler *core.Scheduler

	natsConn *nats.Conn
}

// NewApp opens storage, migrates it and builds every feature
func NewApp(ctx context.Context, config *core.Config, logger *core.Logger) (*App, error) {
	db, err := core.OpenDatabase(config.Database.Path, logger)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:    config,
		Logger:    logger,
		DB:        db,
		Settings:  settings.NewStore(db, logger.ForFeature("settings")),
		Registry:  core.NewRegistry(logger),
		Scheduler: core.NewScheduler(logger.ForFeature("scheduler")),
	}

	if err := app.Settings.Migrate(ctx); err != nil {
		app.Close()
		return nil, err
	}

	feedConfig := config.Features.FeedConfig
	if err := app.Settings.SeedIntegration(ctx, feedConfig.CatalogID, feedConfig.FeedID); err != nil {
		app.Close()
		return nil, err
	}

	app.Tracker, err = app.trackerSink(feedConfig)
	if err != nil {
		app.Close()
		return nil, err
	}

	graphClient := graph.NewClient(graph.Config{
		BaseURL:     config.Graph.BaseURL,
		AccessToken: config.Graph.AccessToken,
		Timeout:     config.Graph.Timeout,
	}, logger.ForFeature("graph"))

	app.Detector = feedconfig.NewDetector(graphClient, app.Settings, app.Tracker,
		logger.ForFeature("feed_config"), feedConfig.FeedDataURL)

	features := []core.Feature{
		feedconfig.NewFeature(logger, app.Detector, feedConfig),
		feedstatus.NewFeature(logger, app.Settings, app.Scheduler, config.Features.FeedStatus),
	}
	for _, feature := range features {
		if err := app.Registry.Register(feature); err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to register feature %s: %w", feature.Name(), err)
		}
	}

	if err := app.Registry.ScheduleAll(app.Scheduler); err != nil {
		app.Close()
		return nil, err
	}

	return app, nil
}

func (a *App) trackerSink(config core.FeedConfigConfig) (feedconfig.Tracker, error) {
	sinks := tracker.Multi{
		tracker.NewStoreTracker(a.Settings, a.Logger.ForFeature("tracker")),
	}

	if config.NATSURL != "" {
		natsTracker, conn, err := tracker.ConnectNATS(config.NATSURL, config.NATSSubject, a.Logger.ForFeature("tracker"))
		if err != nil {
			return nil, err
		}
		a.natsConn = conn
		sinks = append(sinks, natsTracker)
	}

	return sinks, nil
}

// Close releases the NATS connection and the database
func (a *App) Close() error {
	if a.natsConn != nil {
		if err := a.natsConn.Drain(); err != nil {
			a.Logger.Warn("Failed to drain NATS connection", "error", err)
			a.natsConn.Close()
		}
	}
	return a.DB.Close()
}
