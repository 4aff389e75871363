package feedconfig

import (
	"context"
	"fmt"
)

// TrackerInfo assembles the telemetry summary for the most relevant feed of the
// connected catalog. It fails with ErrMissingCatalogID, ErrNoFeedConfigured or a
// *FetchError.
func (d *Detector) TrackerInfo(ctx context.Context) (TrackerInfo, error) {
	feedID, err := d.settings.FeedID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed id: %w", err)
	}
	catalogID, err := d.settings.CatalogID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog id: %w", err)
	}

	info := TrackerInfo{"site-feed-id": feedID}

	if catalogID == "" {
		return nil, ErrMissingCatalogID
	}

	feeds, err := d.readFeedsForCatalog(ctx, catalogID)
	if err != nil {
		return nil, err
	}
	info["feed-count"] = len(feeds)

	if len(feeds) == 0 {
		return nil, ErrNoFeedConfigured
	}

	active, err := d.selectActiveFeed(ctx, feeds, feedID)
	if err != nil {
		return nil, err
	}
	if active == nil {
		d.runLogger(ctx).Info("No feed has upload history", "catalog_id", catalogID, "feeds", len(feeds))
		return info, nil
	}

	activeFeed, err := d.activeFeedInfo(ctx, active)
	if err != nil {
		return nil, err
	}
	info["active-feed"] = activeFeed
	return info, nil
}

// selectActiveFeed picks the feed whose id equals siteFeedID. Failing that it picks
// the feed with the latest upload start time; on equal times the earlier feed in the
// list is kept. Feeds with no upload start time are never picked.
func (d *Detector) selectActiveFeed(ctx context.Context, feeds []FeedConfig, siteFeedID string) (*FeedConfig, error) {
	if siteFeedID != "" {
		for _, feed := range feeds {
			if feed.ID == siteFeedID {
				return d.readFeedMetadata(ctx, feed.ID)
			}
		}
	}

	var active *FeedConfig
	var activeStart int64
	for _, feed := range feeds {
		metadata, err := d.readFeedMetadata(ctx, feed.ID)
		if err != nil {
			return nil, err
		}

		start, ok := metadata.LatestUploadStartTime()
		if !ok {
			continue
		}
		if active == nil || start.Unix() > activeStart {
			active = metadata
			activeStart = start.Unix()
		}
	}
	return active, nil
}

func (d *Detector) activeFeedInfo(ctx context.Context, feed *FeedConfig) (map[string]any, error) {
	activeFeed := map[string]any{"id": feed.ID}

	if created, ok := feed.CreatedTime(); ok {
		activeFeed["created-time"] = created.Format(trackerTimeLayout)
	}
	if count, ok := feed.ProductCount(); ok {
		activeFeed["product-count"] = count
	}

	// schedule replaces the whole catalog; update_schedule only appends. Both may be set.
	for key, trackerKey := range map[string]string{"schedule": "schedule", "update_schedule": "update-schedule"} {
		if schedule, ok := feed.Schedule(key); ok {
			activeFeed[trackerKey] = map[string]any{
				"interval":       schedule["interval"],
				"interval-count": schedule["interval_count"],
			}
		}
	}

	latest, ok := feed.LatestUpload()
	if !ok {
		return activeFeed, nil
	}

	upload := map[string]any{}
	if end, ok := parseGraphTime(latest["end_time"]); ok {
		upload["end-time"] = end.Format(trackerTimeLayout)
	}

	if uploadID := stringValue(latest["id"]); uploadID != "" {
		metadata, err := d.readUploadMetadata(ctx, uploadID)
		if err != nil {
			return nil, err
		}
		upload["error-count"] = metadata.ErrorCount
		upload["warning-count"] = metadata.WarningCount
		upload["num-detected-items"] = metadata.NumDetectedItems
		upload["num-persisted-items"] = metadata.NumPersistedItems
		// an upload fetched from another URL most likely belongs to an unused feed
		upload["url-matches-site-endpoint"] = boolToString(d.feedDataURL != "" && metadata.URL == d.feedDataURL)
	}

	activeFeed["latest-upload"] = upload
	return activeFeed, nil
}
