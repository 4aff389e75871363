package feedconfig

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// trackerTimeLayout is the timestamp format used in tracker records.
const trackerTimeLayout = "2006-01-02 15:04:05"

// graphTimeLayouts are the timestamp shapes the Graph API has been seen to return.
var graphTimeLayouts = []string{
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
	"2006-01-02T15:04:05",
	trackerTimeLayout,
}

// FeedConfig is a product feed as returned by the Graph API
type FeedConfig struct {
	ID  string
	Raw map[string]any
}

// Schedule is a feed's upload schedule. A feed may carry both a full
// replace schedule and an update (append) schedule.
type Schedule struct {
	Interval      string `json:"interval"`
	IntervalCount int    `json:"interval_count"`
	URL           string `json:"url,omitempty"`
}

// FeedUpload is one execution of a feed being fetched by Facebook
type FeedUpload struct {
	ID                string
	StartTime         time.Time
	EndTime           time.Time
	ErrorCount        int
	WarningCount      int
	NumDetectedItems  int
	NumPersistedItems int
	URL               string
}

// FeedInformation is the detail needed to validate a single feed
type FeedInformation struct {
	ID             string
	URL            string
	Schedule       *Schedule
	UpdateSchedule *Schedule
	Uploads        []FeedUpload
}

// ValidationResult holds the individual validity criteria for a feed
type ValidationResult struct {
	FeedID             string `json:"feed_id"`
	HasRecentUpload    bool   `json:"has_recent_upload"`
	UsesCorrectURL     bool   `json:"uses_correct_url"`
	HasCorrectSchedule bool   `json:"has_correct_schedule"`
}

// Valid reports whether every criterion holds
func (r ValidationResult) Valid() bool {
	return r.HasRecentUpload && r.UsesCorrectURL && r.HasCorrectSchedule
}

// TrackerInfo is the flat telemetry summary of the active feed
type TrackerInfo map[string]any

// LatestUpload returns the feed's latest_upload reference
func (f FeedConfig) LatestUpload() (map[string]any, bool) {
	upload, ok := f.Raw["latest_upload"].(map[string]any)
	return upload, ok
}

// LatestUploadStartTime returns the parsed start_time of the latest upload
func (f FeedConfig) LatestUploadStartTime() (time.Time, bool) {
	upload, ok := f.LatestUpload()
	if !ok {
		return time.Time{}, false
	}
	return parseGraphTime(upload["start_time"])
}

// CreatedTime returns the parsed created_time of the feed
func (f FeedConfig) CreatedTime() (time.Time, bool) {
	return parseGraphTime(f.Raw["created_time"])
}

// ProductCount returns the raw product_count value
func (f FeedConfig) ProductCount() (any, bool) {
	count, ok := f.Raw["product_count"]
	return count, ok
}

// Schedule returns the schedule object stored under key
// ("schedule" or "update_schedule").
func (f FeedConfig) Schedule(key string) (map[string]any, bool) {
	schedule, ok := f.Raw[key].(map[string]any)
	return schedule, ok
}

type feedListJSON struct {
	Data []map[string]any `json:"data"`
}

type scheduleJSON struct {
	Interval      string          `json:"interval"`
	IntervalCount json.RawMessage `json:"interval_count"`
	URL           string          `json:"url"`
}

type uploadJSON struct {
	ID                string          `json:"id"`
	StartTime         json.RawMessage `json:"start_time"`
	EndTime           json.RawMessage `json:"end_time"`
	ErrorCount        json.RawMessage `json:"error_count"`
	WarningCount      json.RawMessage `json:"warning_count"`
	NumDetectedItems  json.RawMessage `json:"num_detected_items"`
	NumPersistedItems json.RawMessage `json:"num_persisted_items"`
	URL               string          `json:"url"`
}

type feedInformationJSON struct {
	ID             string        `json:"id"`
	URL            string        `json:"url"`
	Schedule       *scheduleJSON `json:"schedule"`
	UpdateSchedule *scheduleJSON `json:"update_schedule"`
	Uploads        struct {
		Data []uploadJSON `json:"data"`
	} `json:"uploads"`
}

func parseFeedList(body []byte) ([]FeedConfig, error) {
	var list feedListJSON
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to decode feed list: %w", err)
	}

	feeds := make([]FeedConfig, 0, len(list.Data))
	for _, node := range list.Data {
		id := stringValue(node["id"])
		if id == "" {
			continue
		}
		feeds = append(feeds, FeedConfig{ID: id, Raw: node})
	}
	return feeds, nil
}

func parseFeedMetadata(feedID string, body []byte) (*FeedConfig, error) {
	raw := map[string]any{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode feed metadata: %w", err)
	}
	return &FeedConfig{ID: feedID, Raw: raw}, nil
}

func parseUpload(body []byte) (*FeedUpload, error) {
	var u uploadJSON
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("failed to decode upload metadata: %w", err)
	}
	upload := u.toUpload()
	return &upload, nil
}

func parseFeedInformation(body []byte) (*FeedInformation, error) {
	var raw feedInformationJSON
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode feed information: %w", err)
	}

	info := &FeedInformation{
		ID:             raw.ID,
		URL:            raw.URL,
		Schedule:       raw.Schedule.toSchedule(),
		UpdateSchedule: raw.UpdateSchedule.toSchedule(),
	}
	for _, u := range raw.Uploads.Data {
		info.Uploads = append(info.Uploads, u.toUpload())
	}
	return info, nil
}

func (s *scheduleJSON) toSchedule() *Schedule {
	if s == nil {
		return nil
	}
	return &Schedule{
		Interval:      s.Interval,
		IntervalCount: rawInt(s.IntervalCount),
		URL:           s.URL,
	}
}

func (u uploadJSON) toUpload() FeedUpload {
	upload := FeedUpload{
		ID:                u.ID,
		ErrorCount:        rawInt(u.ErrorCount),
		WarningCount:      rawInt(u.WarningCount),
		NumDetectedItems:  rawInt(u.NumDetectedItems),
		NumPersistedItems: rawInt(u.NumPersistedItems),
		URL:               u.URL,
	}
	upload.StartTime, _ = parseGraphTime(rawAny(u.StartTime))
	upload.EndTime, _ = parseGraphTime(rawAny(u.EndTime))
	return upload
}

// parseGraphTime accepts Graph timestamp strings or unix seconds.
func parseGraphTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return time.Time{}, false
		}
		for _, layout := range graphTimeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC(), true
			}
		}
		if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Unix(secs, 0).UTC(), true
		}
	case float64:
		return time.Unix(int64(v), 0).UTC(), true
	}
	return time.Time{}, false
}

func rawAny(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

// rawInt decodes a JSON number or numeric string, defaulting to 0.
func rawInt(raw json.RawMessage) int {
	switch v := rawAny(raw).(type) {
	case float64:
		return int(math.Round(v))
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func boolToString(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
