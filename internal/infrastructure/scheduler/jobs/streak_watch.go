// Package jobs contains the scheduled jobs of Lingvo Hub.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/progress"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
	"github.com/lingvo-hub/lingvo-hub/pkg/logger"
	"github.com/lingvo-hub/lingvo-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK WATCH JOB
// ══════════════════════════════════════════════════════════════════════════════

// StreakWatchJob scans the progress mirror for learners with a running
// streak and publishes an event when the streak enters the warning window
// and again when it lapses. Each (learner, last activity, kind) is announced
// once per process.
type StreakWatchJob struct {
	mirror    progress.Mirror
	publisher shared.EventPublisher
	clock     timeutil.Clock
	log       *logger.Logger
	timeout   time.Duration

	mu       sync.Mutex
	notified map[string]streakNotice

	lastRunStats atomic.Value // StreakWatchStats
}

type streakNotice struct {
	kind         shared.EventType
	lastActivity time.Time
}

// StreakWatchStats summarizes one run.
type StreakWatchStats struct {
	StartedAt time.Time
	Checked   int
	AtRisk    int
	Lapsed    int
	Skipped   int
	Failed    int
}

// NewStreakWatchJob creates the job. timeout bounds a single run; zero means
// no bound.
func NewStreakWatchJob(
	mirror progress.Mirror,
	publisher shared.EventPublisher,
	clock timeutil.Clock,
	log *logger.Logger,
	timeout time.Duration,
) *StreakWatchJob {
	if log == nil {
		log = logger.Nop()
	}
	return &StreakWatchJob{
		mirror:    mirror,
		publisher: publisher,
		clock:     clock,
		log:       log.With(logger.Component("streak_watch")),
		timeout:   timeout,
		notified:  make(map[string]streakNotice),
	}
}

// Name returns the job name.
func (j *StreakWatchJob) Name() string {
	return "streak_watch"
}

// Description returns a human-readable description.
func (j *StreakWatchJob) Description() string {
	return "Announces streaks that are about to lapse or have lapsed"
}

// Run executes one scan.
func (j *StreakWatchJob) Run(ctx context.Context) error {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	now := j.clock.Now()
	stats := StreakWatchStats{StartedAt: now}

	snapshots, err := j.mirror.All(ctx)
	if err != nil {
		return fmt.Errorf("streak_watch: load progress: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	seen := make(map[string]struct{}, len(snapshots))
	for _, p := range snapshots {
		seen[p.UserID] = struct{}{}
		if p.Streak <= 0 || p.LastActivityDate == nil {
			continue
		}
		stats.Checked++

		var kind shared.EventType
		switch {
		case progress.IsStreakLapsed(p.LastActivityDate, now):
			kind = shared.EventStreakLapsed
		case progress.IsStreakAtRisk(p.LastActivityDate, now):
			kind = shared.EventStreakAtRisk
		default:
			continue
		}

		last := *p.LastActivityDate
		if prev, ok := j.notified[p.UserID]; ok && prev.kind == kind && prev.lastActivity.Equal(last) {
			stats.Skipped++
			continue
		}

		if err := j.publish(kind, p, last, now); err != nil {
			stats.Failed++
			j.log.Warn("failed to publish streak event",
				logger.UserID(p.UserID),
				logger.String("event_type", string(kind)),
				logger.Err(err),
			)
			continue
		}
		j.notified[p.UserID] = streakNotice{kind: kind, lastActivity: last}

		if kind == shared.EventStreakLapsed {
			stats.Lapsed++
		} else {
			stats.AtRisk++
		}
	}

	for id := range j.notified {
		if _, ok := seen[id]; !ok {
			delete(j.notified, id)
		}
	}

	j.lastRunStats.Store(stats)
	j.log.Info("streak watch finished",
		logger.Int("checked", stats.Checked),
		logger.Int("at_risk", stats.AtRisk),
		logger.Int("lapsed", stats.Lapsed),
		logger.Int("failed", stats.Failed),
	)
	return nil
}

func (j *StreakWatchJob) publish(kind shared.EventType, p *progress.UserProgress, last, now time.Time) error {
	if j.publisher == nil {
		return nil
	}
	if kind == shared.EventStreakLapsed {
		return j.publisher.Publish(shared.NewStreakLapsedEvent(p.UserID, p.Streak, last, now))
	}
	return j.publisher.Publish(shared.NewStreakAtRiskEvent(p.UserID, p.Streak, last, now))
}

// LastRunStats returns the statistics of the most recent run.
func (j *StreakWatchJob) LastRunStats() (StreakWatchStats, bool) {
	stats, ok := j.lastRunStats.Load().(StreakWatchStats)
	return stats, ok
}
