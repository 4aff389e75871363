package feedstatus

import (
	"context"
	"time"

	"feedwatch/internal/core"
	"feedwatch/internal/features/feedconfig"
	"feedwatch/internal/features/feedstatus/models"
	"feedwatch/internal/metrics"
	"feedwatch/internal/settings"
)

// DefaultFeedGenerationLimit is the number of products written per feed generation batch
const DefaultFeedGenerationLimit = 500

// OptionReader reads settings written by the feed generator and the tracker
type OptionReader interface {
	Get(ctx context.Context, name string, dest any) (bool, error)
	GetTransient(ctx context.Context, name string, dest any) (bool, error)
}

// RunSchedule reports scheduled task times
type RunSchedule interface {
	NextRun(name string) (time.Time, bool)
	LastRun(name string) (time.Time, bool)
}

// Progress returns the completed share of the job as a whole percentage,
// rounded down. A job with no products reports 0.
func Progress(state models.JobState, pageSize int) int {
	if state.Total == 0 {
		return 0
	}
	return state.Page * pageSize * 100 / state.Total
}

type Service struct {
	options  OptionReader
	schedule RunSchedule
	pageSize int
	logger   *core.Logger
}

func NewService(options OptionReader, schedule RunSchedule, pageSize int, logger *core.Logger) *Service {
	if pageSize <= 0 {
		pageSize = DefaultFeedGenerationLimit
	}
	return &Service{
		options:  options,
		schedule: schedule,
		pageSize: pageSize,
		logger:   logger,
	}
}

// JobState reads the running feed generation job. It reports false when no job has run.
func (s *Service) JobState(ctx context.Context) (models.JobState, bool, error) {
	var state models.JobState
	found, err := s.options.Get(ctx, settings.OptionRunningFeedSettings, &state)
	if err != nil {
		return models.JobState{}, false, core.NewDatabaseError("Failed to read feed generation state", err)
	}
	return state, found, nil
}

// ProgressReport returns the job state with its derived progress
func (s *Service) ProgressReport(ctx context.Context) (*models.ProgressResponse, error) {
	state, found, err := s.JobState(ctx)
	if err != nil {
		return nil, err
	}
	return s.report(state, found), nil
}

func (s *Service) report(state models.JobState, found bool) *models.ProgressResponse {
	progress := Progress(state, s.pageSize)
	metrics.FeedGenerationProgress.Set(float64(progress))

	return &models.ProgressResponse{
		JobState:   state,
		Progress:   progress,
		InProgress: found && !state.Done,
	}
}

// Status gathers everything the status page renders
func (s *Service) Status(ctx context.Context) (*models.Status, error) {
	state, found, err := s.JobState(ctx)
	if err != nil {
		return nil, err
	}
	report := s.report(state, found)

	status := &models.Status{
		Job:        state,
		HasJob:     found,
		PageSize:   s.pageSize,
		Progress:   report.Progress,
		InProgress: report.InProgress,
	}
	if found && state.Done {
		status.DoneMinutes = float64(state.End-state.Start) / 60
	}

	if s.schedule != nil {
		if next, ok := s.schedule.NextRun(feedconfig.TrackerTaskName); ok {
			status.NextRun = &next
		}
		if last, ok := s.schedule.LastRun(feedconfig.TrackerTaskName); ok {
			status.LastTrackedAt = &last
		}
	}

	var info map[string]any
	found, err = s.options.GetTransient(ctx, settings.TransientTrackerInfo, &info)
	if err != nil {
		s.logger.Warn("Failed to read tracker info", "error", err)
	} else if found {
		status.TrackerInfo = info
	}

	return status, nil
}
