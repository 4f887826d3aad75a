// Package eventhandler contains domain event handlers.
package eventhandler

import (
	"sync"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
	"github.com/lingvo-hub/lingvo-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT NOTIFIER
// Turns achievement, certificate and streak events into learner
// notifications. Delivery belongs to an external service, so a notification
// here is a structured log line plus a counter.
// ═══════════════════════════════════════════════════════════════════════════

// FeatureChecker answers per-learner feature flag questions.
type FeatureChecker interface {
	IsEnabled(featureName, learnerID string) bool
}

const featureNotifyAchievements = "notify.achievements"

// AchievementNotifier handles progress events that deserve a notification.
type AchievementNotifier struct {
	features FeatureChecker
	log      *logger.Logger

	mu   sync.Mutex
	sent map[shared.EventType]int
}

// NewAchievementNotifier creates a notifier. features may be nil, in which
// case every learner is notified.
func NewAchievementNotifier(features FeatureChecker, log *logger.Logger) *AchievementNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &AchievementNotifier{
		features: features,
		log:      log.With(logger.Component("achievement_notifier")),
		sent:     make(map[shared.EventType]int),
	}
}

// Register subscribes the notifier to the events it handles.
func (n *AchievementNotifier) Register(bus shared.EventSubscriber) error {
	for _, t := range []shared.EventType{
		shared.EventAchievementUnlocked,
		shared.EventLevelCompleted,
		shared.EventLevelUnlocked,
		shared.EventStreakBroken,
		shared.EventStreakAtRisk,
		shared.EventStreakLapsed,
	} {
		if err := bus.Subscribe(t, n.Handle); err != nil {
			return err
		}
	}
	return nil
}

// Handle processes a single event.
func (n *AchievementNotifier) Handle(event shared.Event) error {
	learnerID := event.AggregateID()
	if n.features != nil && !n.features.IsEnabled(featureNotifyAchievements, learnerID) {
		return nil
	}

	fields := []logger.Field{
		logger.UserID(learnerID),
		logger.String("event_type", string(event.EventType())),
	}

	switch e := event.(type) {
	case shared.AchievementUnlockedEvent:
		n.log.Info("achievement unlocked", append(fields, logger.Achievement(e.AchievementID), logger.String("title", e.Title))...)
	case shared.LevelCompletedEvent:
		n.log.Info("level certificate earned", append(fields,
			logger.LevelField(e.Level),
			logger.Float64("average_score", e.AverageScore),
		)...)
	case shared.LevelUnlockedEvent:
		n.log.Info("level unlocked", append(fields, logger.LevelField(e.Level))...)
	case shared.StreakUpdatedEvent:
		n.log.Info("streak restarted", append(fields, logger.Int("previous", e.PreviousStreak))...)
	case shared.StreakWatchEvent:
		msg := "streak at risk"
		if e.EventType() == shared.EventStreakLapsed {
			msg = "streak lost"
		}
		n.log.Info(msg, append(fields, logger.Streak(e.Streak), logger.Time("last_activity", e.LastActivity))...)
	default:
		return nil
	}

	n.mu.Lock()
	n.sent[event.EventType()]++
	n.mu.Unlock()
	return nil
}

// Sent returns how many notifications were emitted for an event type.
func (n *AchievementNotifier) Sent(t shared.EventType) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[t]
}
