package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/progress"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
	"github.com/lingvo-hub/lingvo-hub/internal/infrastructure/persistence/memory"
	"github.com/lingvo-hub/lingvo-hub/pkg/timeutil"
)

type recorder struct {
	mu     sync.Mutex
	events []shared.StreakWatchEvent
	err    error
}

func (r *recorder) Publish(e shared.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e.(shared.StreakWatchEvent))
	return nil
}

func (r *recorder) take() []shared.StreakWatchEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}

func snapshot(id string, version int64, streak int, last time.Time) *progress.UserProgress {
	p := progress.NewUserProgress(id)
	p.Version = version
	p.Streak = streak
	p.LastActivityDate = &last
	return p
}

func TestStreakWatchJob_AnnouncesOncePerActivity(t *testing.T) {
	ctx := context.Background()
	mirror := memory.NewProgressMirror()
	clock := timeutil.NewFixedClock(time.Date(2026, 3, 15, 21, 0, 0, 0, time.UTC))
	events := &recorder{}

	require.NoError(t, mirror.Put(ctx, snapshot("anna", 1, 4, time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC))))
	require.NoError(t, mirror.Put(ctx, snapshot("ben", 1, 9, time.Date(2026, 3, 13, 10, 0, 0, 0, time.UTC))))
	require.NoError(t, mirror.Put(ctx, snapshot("cara", 1, 2, time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC))))
	require.NoError(t, mirror.Put(ctx, snapshot("dan", 1, 0, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))))

	job := NewStreakWatchJob(mirror, events, clock, nil, time.Minute)
	require.NoError(t, job.Run(ctx))

	got := events.take()
	require.Len(t, got, 2)
	byUser := map[string]shared.StreakWatchEvent{}
	for _, e := range got {
		byUser[e.AggregateID()] = e
	}
	assert.Equal(t, shared.EventStreakAtRisk, byUser["anna"].EventType())
	assert.Equal(t, 4, byUser["anna"].Streak)
	assert.Equal(t, shared.EventStreakLapsed, byUser["ben"].EventType())
	assert.Equal(t, clock.Now(), byUser["ben"].OccurredAt())

	stats, ok := job.LastRunStats()
	require.True(t, ok)
	assert.Equal(t, 3, stats.Checked)
	assert.Equal(t, 1, stats.AtRisk)
	assert.Equal(t, 1, stats.Lapsed)

	// Same state, nothing new to say.
	require.NoError(t, job.Run(ctx))
	assert.Empty(t, events.take())
	stats, _ = job.LastRunStats()
	assert.Equal(t, 2, stats.Skipped)

	// Past midnight anna's streak lapses too.
	clock.Advance(3 * time.Hour)
	require.NoError(t, job.Run(ctx))
	got = events.take()
	require.Len(t, got, 1)
	assert.Equal(t, "anna", got[0].AggregateID())
	assert.Equal(t, shared.EventStreakLapsed, got[0].EventType())

	// New activity starts a fresh cycle.
	require.NoError(t, mirror.Put(ctx, snapshot("anna", 2, 1, clock.Now())))
	clock.Advance(21 * time.Hour)
	require.NoError(t, job.Run(ctx))
	got = events.take()
	require.Len(t, got, 1)
	assert.Equal(t, "anna", got[0].AggregateID())
	assert.Equal(t, shared.EventStreakAtRisk, got[0].EventType())
}

func TestStreakWatchJob_ForgetsRemovedLearners(t *testing.T) {
	ctx := context.Background()
	mirror := memory.NewProgressMirror()
	clock := timeutil.NewFixedClock(time.Date(2026, 3, 15, 21, 0, 0, 0, time.UTC))
	events := &recorder{}
	last := time.Date(2026, 3, 13, 10, 0, 0, 0, time.UTC)

	require.NoError(t, mirror.Put(ctx, snapshot("ben", 1, 9, last)))
	job := NewStreakWatchJob(mirror, events, clock, nil, 0)
	require.NoError(t, job.Run(ctx))
	require.Len(t, events.take(), 1)

	require.NoError(t, mirror.Remove(ctx, "ben"))
	require.NoError(t, job.Run(ctx))

	require.NoError(t, mirror.Put(ctx, snapshot("ben", 1, 9, last)))
	require.NoError(t, job.Run(ctx))
	assert.Len(t, events.take(), 1)
}

func TestStreakWatchJob_RetriesAfterPublishFailure(t *testing.T) {
	ctx := context.Background()
	mirror := memory.NewProgressMirror()
	clock := timeutil.NewFixedClock(time.Date(2026, 3, 15, 21, 0, 0, 0, time.UTC))
	events := &recorder{err: errors.New("bus closed")}

	require.NoError(t, mirror.Put(ctx, snapshot("ben", 1, 9, time.Date(2026, 3, 13, 10, 0, 0, 0, time.UTC))))
	job := NewStreakWatchJob(mirror, events, clock, nil, 0)

	require.NoError(t, job.Run(ctx))
	stats, _ := job.LastRunStats()
	assert.Equal(t, 1, stats.Failed)

	events.err = nil
	require.NoError(t, job.Run(ctx))
	assert.Len(t, events.take(), 1)
}

type brokenMirror struct{ progress.Mirror }

func (brokenMirror) All(ctx context.Context) ([]*progress.UserProgress, error) {
	return nil, errors.New("redis down")
}

func TestStreakWatchJob_MirrorFailure(t *testing.T) {
	job := NewStreakWatchJob(brokenMirror{}, &recorder{}, timeutil.NewFixedClock(time.Now()), nil, 0)
	err := job.Run(context.Background())
	assert.ErrorContains(t, err, "redis down")
}
