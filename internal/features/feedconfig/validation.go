package feedconfig

import "time"

// hasRecentUploads reports whether any upload finished within RecentUploadWindow of now.
func hasRecentUploads(info *FeedInformation, now time.Time) bool {
	for _, upload := range info.Uploads {
		if upload.EndTime.IsZero() {
			continue
		}
		if upload.EndTime.Add(RecentUploadWindow).After(now) {
			return true
		}
	}
	return false
}

// usesCorrectURL compares the feed URL with the site's feed URL byte for byte.
func usesCorrectURL(info *FeedInformation, feedDataURL string) bool {
	return feedDataURL != "" && info.URL == feedDataURL
}

// hasCorrectSchedule requires at least one well-formed schedule: a replace
// schedule or an update schedule with an interval and a positive count.
func hasCorrectSchedule(info *FeedInformation) bool {
	return wellFormedSchedule(info.Schedule) || wellFormedSchedule(info.UpdateSchedule)
}

func wellFormedSchedule(s *Schedule) bool {
	return s != nil && s.Interval != "" && s.IntervalCount >= 1
}
