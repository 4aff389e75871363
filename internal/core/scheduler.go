package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Task is a unit of periodic work registered with the Scheduler
type Task struct {
	Name       string
	Interval   time.Duration
	RunOnStart bool
	Run        func(ctx context.Context)
}

type runIDKey struct{}

// RunID returns the id of the scheduled run carried by ctx, if any
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// Scheduler runs registered tasks on fixed intervals, one goroutine per task.
// Runs of the same task never overlap.
type Scheduler struct {
	logger   *Logger
	now      func() time.Time
	mu       sync.Mutex
	tasks    map[string]*scheduledTask
	order    []string
	started  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

type scheduledTask struct {
	task    Task
	runMu   sync.Mutex
	nextRun time.Time
	lastRun time.Time
}

// NewScheduler creates a scheduler using the wall clock
func NewScheduler(logger *Logger) *Scheduler {
	return &Scheduler{
		logger:   logger,
		now:      time.Now,
		tasks:    make(map[string]*scheduledTask),
	}
}

// Register adds a task. Tasks must be registered before Start.
func (s *Scheduler) Register(task Task) error {
	if task.Name == "" {
		return fmt.Errorf("task name is required")
	}
	if task.Interval <= 0 {
		return fmt.Errorf("task %s: interval must be positive", task.Name)
	}
	if task.Run == nil {
		return fmt.Errorf("task %s: run func is required", task.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("task %s: scheduler already started", task.Name)
	}
	if _, exists := s.tasks[task.Name]; exists {
		return fmt.Errorf("task %s already registered", task.Name)
	}

	s.tasks[task.Name] = &scheduledTask{task: task}
	s.order = append(s.order, task.Name)
	s.logger.Info("Registered task", "task", task.Name, "interval", task.Interval)
	return nil
}

// Start launches the loop for every registered task. A stopped scheduler may be started again.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	s.started = true
	s.stopChan = make(chan struct{})

	s.logger.Info("Starting scheduler", "tasks", len(s.tasks))
	for _, name := range s.order {
		st := s.tasks[name]
		st.nextRun = s.now().Add(st.task.Interval)
		s.wg.Add(1)
		go s.loop(ctx, st, s.stopChan)
	}

	return nil
}

// Stop signals every loop to exit and waits for in-flight runs
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	close(s.stopChan)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// NextRun reports when the named task is due next
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.tasks[name]
	if !ok || st.nextRun.IsZero() {
		return time.Time{}, false
	}
	return st.nextRun, true
}

// LastRun reports when the named task last finished
func (s *Scheduler) LastRun(name string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.tasks[name]
	if !ok || st.lastRun.IsZero() {
		return time.Time{}, false
	}
	return st.lastRun, true
}

// RunNow executes the named task immediately on the caller's goroutine
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	st, ok := s.tasks[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown task %s", name)
	}

	s.execute(ctx, st)
	return nil
}

func (s *Scheduler) loop(ctx context.Context, st *scheduledTask, stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(st.task.Interval)
	defer ticker.Stop()

	if st.task.RunOnStart {
		s.execute(ctx, st)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Task loop cancelled", "task", st.task.Name)
			return
		case <-stop:
			return
		case <-ticker.C:
			s.execute(ctx, st)
			s.mu.Lock()
			st.nextRun = s.now().Add(st.task.Interval)
			s.mu.Unlock()
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, st *scheduledTask) {
	st.runMu.Lock()
	defer st.runMu.Unlock()

	runID := uuid.NewString()
	logger := s.logger.With("task", st.task.Name, "run_id", runID)
	start := s.now()

	logger.Info("Task started")
	st.task.Run(context.WithValue(ctx, runIDKey{}, runID))
	logger.Info("Task finished", "duration", s.now().Sub(start))

	s.mu.Lock()
	st.lastRun = s.now()
	s.mu.Unlock()
}
