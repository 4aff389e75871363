package models

import "time"

// JobState is the persisted state of the running feed file generation job.
// Start and End are unix seconds.
type JobState struct {
	Total int   `json:"total"`
	Page  int   `json:"page"`
	Start int64 `json:"start"`
	End   int64 `json:"end"`
	Done  bool  `json:"done"`
}

// ProgressResponse is returned by the progress API
type ProgressResponse struct {
	JobState
	Progress   int  `json:"progress"`
	InProgress bool `json:"in_progress"`
}

// Status is everything the feed status page shows
type Status struct {
	Job           JobState
	HasJob        bool
	PageSize      int
	Progress      int
	InProgress    bool
	DoneMinutes   float64
	NextRun       *time.Time
	LastTrackedAt *time.Time
	TrackerInfo   map[string]any
}

// StartedAt returns the job start as a time, or nil when unknown
func (j JobState) StartedAt() *time.Time {
	if j.Start <= 0 {
		return nil
	}
	t := time.Unix(j.Start, 0).UTC()
	return &t
}
