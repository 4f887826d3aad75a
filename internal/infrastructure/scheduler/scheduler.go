// Package scheduler runs periodic background jobs for Lingvo Hub on top of
// gocron. Jobs never overlap with themselves and every run is recorded as a
// JobResult.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/lingvo-hub/lingvo-hub/pkg/logger"
	"github.com/lingvo-hub/lingvo-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// JOB INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Job defines the interface that all scheduled jobs must implement.
type Job interface {
	// Name returns the unique name of the job.
	Name() string

	// Run executes the job.
	// The context is cancelled when the scheduler is stopping.
	Run(ctx context.Context) error

	// Description returns a human-readable description of the job.
	Description() string
}

// JobResult contains the result of a job execution.
type JobResult struct {
	JobName     string
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Success     bool
	Error       error
	Manual      bool
}

// ══════════════════════════════════════════════════════════════════════════════
// SCHEDULER
// ══════════════════════════════════════════════════════════════════════════════

// Config contains configuration for the Scheduler.
type Config struct {
	Logger *logger.Logger

	// Timezone for schedule calculations (default: UTC).
	Timezone *time.Location

	// Clock stamps job results (default: system clock in Timezone).
	Clock timeutil.Clock
}

// Scheduler manages and executes scheduled jobs.
type Scheduler struct {
	mu sync.RWMutex

	cron  *gocron.Scheduler
	log   *logger.Logger
	clock timeutil.Clock

	jobs     map[string]Job
	lastRuns map[string]JobResult
	running  bool
	ctx      context.Context
	cancel   context.CancelFunc

	onJobComplete func(result JobResult)
}

// NewScheduler creates a new Scheduler with the given configuration.
func NewScheduler(config Config) *Scheduler {
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	if config.Timezone == nil {
		config.Timezone = time.UTC
	}
	if config.Clock == nil {
		config.Clock = &timeutil.SystemClock{Location: config.Timezone}
	}

	cron := gocron.NewScheduler(config.Timezone)
	cron.SingletonModeAll()

	return &Scheduler{
		cron:     cron,
		log:      config.Logger.With(logger.Component("scheduler")),
		clock:    config.Clock,
		jobs:     make(map[string]Job),
		lastRuns: make(map[string]JobResult),
	}
}

// Register adds a job that runs every interval. The first run happens when
// the scheduler starts.
func (s *Scheduler) Register(job Job, every time.Duration) error {
	if job == nil {
		return ErrNilJob
	}
	if every <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, every)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}

	if _, err := s.cron.Every(every).Tag(name).Do(s.runScheduled, job); err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.jobs[name] = job

	s.log.Info("job registered",
		logger.String("job", name),
		logger.String("description", job.Description()),
		logger.Duration("every", every),
	)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start begins running jobs in the background. Jobs receive a context derived
// from ctx that is cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSchedulerAlreadyRunning
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.cron.StartAsync()

	s.log.Info("scheduler started", logger.Int("jobs", len(s.jobs)))
	return nil
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.cron.Stop()

	s.log.Info("scheduler stopped")
	return nil
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// ══════════════════════════════════════════════════════════════════════════════
// EXECUTION
// ══════════════════════════════════════════════════════════════════════════════

func (s *Scheduler) runScheduled(job Job) {
	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}
	s.execute(ctx, job, false)
}

// RunNow immediately executes a job by name, ignoring its schedule.
func (s *Scheduler) RunNow(ctx context.Context, jobName string) (JobResult, error) {
	s.mu.RLock()
	job, exists := s.jobs[jobName]
	s.mu.RUnlock()

	if !exists {
		return JobResult{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobName)
	}
	result := s.execute(ctx, job, true)
	return result, result.Error
}

func (s *Scheduler) execute(ctx context.Context, job Job, manual bool) JobResult {
	name := job.Name()
	startedAt := s.clock.Now()

	err := job.Run(ctx)
	completedAt := s.clock.Now()

	result := JobResult{
		JobName:     name,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		Duration:    completedAt.Sub(startedAt),
		Success:     err == nil,
		Error:       err,
		Manual:      manual,
	}

	s.mu.Lock()
	s.lastRuns[name] = result
	hook := s.onJobComplete
	s.mu.Unlock()

	if err != nil {
		s.log.Error("job failed",
			logger.String("job", name),
			logger.Bool("manual", manual),
			logger.Duration("duration", result.Duration),
			logger.Err(err),
		)
	} else {
		s.log.Debug("job completed",
			logger.String("job", name),
			logger.Bool("manual", manual),
			logger.Duration("duration", result.Duration),
		)
	}

	if hook != nil {
		hook(result)
	}
	return result
}

// ══════════════════════════════════════════════════════════════════════════════
// STATUS & HOOKS
// ══════════════════════════════════════════════════════════════════════════════

// LastRun returns the most recent result of a job.
func (s *Scheduler) LastRun(jobName string) (JobResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.lastRuns[jobName]
	return r, ok
}

// OnJobComplete sets a callback invoked after every run.
func (s *Scheduler) OnJobComplete(fn func(result JobResult)) {
	s.mu.Lock()
	s.onJobComplete = fn
	s.mu.Unlock()
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	ErrNilJob                  = errors.New("job cannot be nil")
	ErrInvalidInterval         = errors.New("job interval must be positive")
	ErrJobAlreadyExists        = errors.New("job already exists")
	ErrJobNotFound             = errors.New("job not found")
	ErrSchedulerAlreadyRunning = errors.New("scheduler is already running")
	ErrSchedulerNotRunning     = errors.New("scheduler is not running")
)
