package eventhandler

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
	"github.com/lingvo-hub/lingvo-hub/internal/infrastructure/messaging"
	"github.com/lingvo-hub/lingvo-hub/pkg/logger"
)

var at = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type features map[string]bool

func (f features) IsEnabled(name, learnerID string) bool { return f[name+"/"+learnerID] }

func TestAchievementNotifier_ThroughBus(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Output: &buf, Level: logger.LevelInfo})
	n := NewAchievementNotifier(nil, log)

	bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{})
	require.NoError(t, n.Register(bus))

	require.NoError(t, bus.Publish(shared.NewAchievementUnlockedEvent("anna", "first-lesson", "First Steps", at)))
	require.NoError(t, bus.Publish(shared.NewLevelCompletedEvent("anna", "A1", 5, 88.5, at)))
	require.NoError(t, bus.Publish(shared.NewStreakUpdatedEvent("anna", 6, 1, at)))
	require.NoError(t, bus.Publish(shared.NewStreakUpdatedEvent("anna", 1, 2, at)))
	require.NoError(t, bus.Publish(shared.NewLessonCompletedEvent("anna", "a1-1", 1, 1, 100, 100, true, 20, at)))

	assert.Equal(t, 1, n.Sent(shared.EventAchievementUnlocked))
	assert.Equal(t, 1, n.Sent(shared.EventLevelCompleted))
	assert.Equal(t, 1, n.Sent(shared.EventStreakBroken))
	assert.Zero(t, n.Sent(shared.EventStreakUpdated))
	assert.Zero(t, n.Sent(shared.EventLessonCompleted))

	out := buf.String()
	assert.Contains(t, out, `"achievement unlocked"`)
	assert.Contains(t, out, `"first-lesson"`)
	assert.Contains(t, out, `"level certificate earned"`)
}

func TestAchievementNotifier_FeatureGate(t *testing.T) {
	n := NewAchievementNotifier(features{featureNotifyAchievements + "/anna": true}, nil)

	require.NoError(t, n.Handle(shared.NewAchievementUnlockedEvent("anna", "first-lesson", "First Steps", at)))
	require.NoError(t, n.Handle(shared.NewAchievementUnlockedEvent("ben", "first-lesson", "First Steps", at)))

	assert.Equal(t, 1, n.Sent(shared.EventAchievementUnlocked))
}

func TestAchievementNotifier_StreakWatchEvents(t *testing.T) {
	var buf bytes.Buffer
	n := NewAchievementNotifier(nil, logger.New(logger.Options{Output: &buf, Level: logger.LevelInfo}))

	bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{})
	require.NoError(t, n.Register(bus))

	last := at.Add(-21 * time.Hour)
	require.NoError(t, bus.Publish(shared.NewStreakAtRiskEvent("anna", 4, last, at)))
	require.NoError(t, bus.Publish(shared.NewStreakLapsedEvent("ben", 9, last.AddDate(0, 0, -2), at)))

	assert.Equal(t, 1, n.Sent(shared.EventStreakAtRisk))
	assert.Equal(t, 1, n.Sent(shared.EventStreakLapsed))

	out := buf.String()
	assert.Contains(t, out, `"streak at risk"`)
	assert.Contains(t, out, `"streak lost"`)
}
