package feedconfig

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"feedwatch/internal/core"
	"feedwatch/internal/graph"
	"feedwatch/internal/metrics"
)

// RecentUploadWindow is how old the newest finished upload may be for a feed to
// count as active.
const RecentUploadWindow = 21 * 24 * time.Hour

// GraphReader is the subset of the Graph API the detector reads from
type GraphReader interface {
	ReadFeeds(ctx context.Context, catalogID string) (*graph.Response, error)
	ReadFeedMetadata(ctx context.Context, feedID string) (*graph.Response, error)
	ReadUploadMetadata(ctx context.Context, uploadID string) (*graph.Response, error)
	ReadFeedInformation(ctx context.Context, feedID string) (*graph.Response, error)
}

// IntegrationSettings exposes the connected catalog and this site's feed id
type IntegrationSettings interface {
	CatalogID(ctx context.Context) (string, error)
	FeedID(ctx context.Context) (string, error)
}

// Tracker receives tracker summaries. Delivery is fire-and-forget.
type Tracker interface {
	TrackFeedConfig(ctx context.Context, info TrackerInfo)
}

// Detector finds and validates the product feed configuration of a catalog
type Detector struct {
	graph       GraphReader
	settings    IntegrationSettings
	tracker     Tracker
	logger      *core.Logger
	feedDataURL string
	now         func() time.Time
}

// NewDetector creates a detector. feedDataURL is the feed URL this site exposes.
func NewDetector(reader GraphReader, settings IntegrationSettings, tracker Tracker, logger *core.Logger, feedDataURL string) *Detector {
	return &Detector{
		graph:       reader,
		settings:    settings,
		tracker:     tracker,
		logger:      logger,
		feedDataURL: feedDataURL,
		now:         time.Now,
	}
}

// HasValidFeedConfig reports whether a correctly configured, active feed exists.
//
// The site's own feed id is checked first. Without a catalog, or with a catalog that has
// no feeds, the result is false with no error. Otherwise every feed of the catalog is
// checked and the first valid one wins. Any Graph API failure is returned.
func (d *Detector) HasValidFeedConfig(ctx context.Context) (bool, error) {
	logger := d.runLogger(ctx)

	feedID, err := d.settings.FeedID(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read feed id: %w", err)
	}
	catalogID, err := d.settings.CatalogID(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read catalog id: %w", err)
	}

	if feedID != "" {
		result, err := d.ValidateFeed(ctx, feedID)
		if err != nil {
			return false, err
		}
		if result.Valid() {
			logger.Info("Site feed configuration is valid", "feed_id", feedID)
			return true, nil
		}
	}

	if catalogID == "" {
		logger.Info("No catalog connected")
		return false, nil
	}

	feeds, err := d.readFeedsForCatalog(ctx, catalogID)
	if err != nil {
		return false, err
	}

	if len(feeds) == 0 {
		logger.Info("Catalog has no feed configured", "catalog_id", catalogID)
		return false, nil
	}

	for _, feed := range feeds {
		if feed.ID == feedID {
			continue
		}
		result, err := d.ValidateFeed(ctx, feed.ID)
		if err != nil {
			return false, err
		}
		if result.Valid() {
			logger.Info("Found valid feed configuration", "catalog_id", catalogID, "feed_id", feed.ID)
			return true, nil
		}
	}

	logger.Info("No valid feed configuration", "catalog_id", catalogID, "feeds", len(feeds))
	return false, nil
}

// ValidateFeed fetches a feed's information and evaluates each validity criterion
func (d *Detector) ValidateFeed(ctx context.Context, feedID string) (ValidationResult, error) {
	result := ValidationResult{FeedID: feedID}
	if feedID == "" {
		return result, nil
	}

	info, err := d.readFeedInformation(ctx, feedID)
	if err != nil {
		return result, err
	}

	result.HasRecentUpload = hasRecentUploads(info, d.now())
	result.UsesCorrectURL = usesCorrectURL(info, d.feedDataURL)
	result.HasCorrectSchedule = hasCorrectSchedule(info)

	d.runLogger(ctx).Debug("Validated feed",
		"feed_id", feedID,
		"recent_upload", result.HasRecentUpload,
		"correct_url", result.UsesCorrectURL,
		"correct_schedule", result.HasCorrectSchedule,
	)
	return result, nil
}

// RunCheck runs HasValidFeedConfig and records the outcome. Errors are logged, not returned.
func (d *Detector) RunCheck(ctx context.Context) {
	valid, err := d.HasValidFeedConfig(ctx)
	switch {
	case err != nil:
		metrics.FeedConfigChecksTotal.WithLabelValues("error").Inc()
		d.runLogger(ctx).Error("Feed configuration check failed", "error", err)
	case valid:
		metrics.FeedConfigChecksTotal.WithLabelValues("valid").Inc()
		metrics.FeedConfigValid.Set(1)
	default:
		metrics.FeedConfigChecksTotal.WithLabelValues("invalid").Inc()
		metrics.FeedConfigValid.Set(0)
	}
}

// TrackDataSourceFeedTrackerInfo builds the tracker summary and hands it to the tracker.
// Failures are logged and never returned.
func (d *Detector) TrackDataSourceFeedTrackerInfo(ctx context.Context) {
	info, err := d.TrackerInfo(ctx)
	if err != nil {
		metrics.TrackerRunsTotal.WithLabelValues(trackerFailureLabel(err)).Inc()
		d.runLogger(ctx).Warn("Unable to detect valid feed configuration", "error", err)
		return
	}

	metrics.TrackerRunsTotal.WithLabelValues("ok").Inc()
	d.tracker.TrackFeedConfig(ctx, info)
}

func trackerFailureLabel(err error) string {
	var fetchErr *FetchError
	switch {
	case errors.Is(err, ErrMissingCatalogID):
		return "missing_catalog"
	case errors.Is(err, ErrNoFeedConfigured):
		return "no_feed"
	case errors.As(err, &fetchErr):
		return "fetch_failed"
	default:
		return "error"
	}
}

func (d *Detector) runLogger(ctx context.Context) *core.Logger {
	if runID := core.RunID(ctx); runID != "" {
		return d.logger.With("run_id", runID)
	}
	return d.logger
}

func (d *Detector) readFeedsForCatalog(ctx context.Context, catalogID string) ([]FeedConfig, error) {
	body, err := d.fetch(StepReadFeeds, func() (*graph.Response, error) {
		return d.graph.ReadFeeds(ctx, catalogID)
	})
	if err != nil {
		return nil, err
	}
	feeds, err := parseFeedList(body)
	if err != nil {
		return nil, &FetchError{Step: StepReadFeeds, StatusCode: http.StatusOK, Err: err}
	}
	return feeds, nil
}

func (d *Detector) readFeedMetadata(ctx context.Context, feedID string) (*FeedConfig, error) {
	body, err := d.fetch(StepReadFeedMetadata, func() (*graph.Response, error) {
		return d.graph.ReadFeedMetadata(ctx, feedID)
	})
	if err != nil {
		return nil, err
	}
	feed, err := parseFeedMetadata(feedID, body)
	if err != nil {
		return nil, &FetchError{Step: StepReadFeedMetadata, StatusCode: http.StatusOK, Err: err}
	}
	return feed, nil
}

func (d *Detector) readUploadMetadata(ctx context.Context, uploadID string) (*FeedUpload, error) {
	body, err := d.fetch(StepReadUploadMetadata, func() (*graph.Response, error) {
		return d.graph.ReadUploadMetadata(ctx, uploadID)
	})
	if err != nil {
		return nil, err
	}
	upload, err := parseUpload(body)
	if err != nil {
		return nil, &FetchError{Step: StepReadUploadMetadata, StatusCode: http.StatusOK, Err: err}
	}
	return upload, nil
}

func (d *Detector) readFeedInformation(ctx context.Context, feedID string) (*FeedInformation, error) {
	body, err := d.fetch(StepReadFeedInformation, func() (*graph.Response, error) {
		return d.graph.ReadFeedInformation(ctx, feedID)
	})
	if err != nil {
		return nil, err
	}
	info, err := parseFeedInformation(body)
	if err != nil {
		return nil, &FetchError{Step: StepReadFeedInformation, StatusCode: http.StatusOK, Err: err}
	}
	return info, nil
}

// fetch runs a Graph read and turns transport errors and non-200 answers into FetchError
func (d *Detector) fetch(step string, read func() (*graph.Response, error)) ([]byte, error) {
	resp, err := read()
	if err != nil {
		metrics.GraphRequestsTotal.WithLabelValues(step, "0").Inc()
		return nil, &FetchError{Step: step, Err: err}
	}

	metrics.GraphRequestsTotal.WithLabelValues(step, strconv.Itoa(resp.StatusCode)).Inc()
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Step: step, StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}
