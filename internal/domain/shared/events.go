// Package shared contains common domain types, errors and events
// that are used across all domain packages.
package shared

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types.
const (
	// Learner events
	EventPlacementCompleted EventType = "learner.placement_completed"
	EventLevelUnlocked      EventType = "learner.level_unlocked"
	EventLearnerDeleted     EventType = "learner.deleted"

	// Progress events
	EventLessonCompleted     EventType = "progress.lesson_completed"
	EventAchievementUnlocked EventType = "progress.achievement_unlocked"
	EventLevelCompleted      EventType = "progress.level_completed"
	EventStreakUpdated       EventType = "progress.streak_updated"
	EventStreakBroken        EventType = "progress.streak_broken"
	EventStreakAtRisk        EventType = "progress.streak_at_risk"
	EventStreakLapsed        EventType = "progress.streak_lapsed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// EventID returns the unique id of this event instance.
func (e BaseEvent) EventID() string {
	return e.ID
}

// NewBaseEvent creates a new base event stamped at the given time.
func NewBaseEvent(eventType EventType, aggregateID string, at time.Time) BaseEvent {
	return BaseEvent{
		ID:          uuid.NewString(),
		Type:        eventType,
		Timestamp:   at,
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Learner Events
// ═══════════════════════════════════════════════════════════════════════════

// PlacementCompletedEvent is emitted once per learner after the placement test.
type PlacementCompletedEvent struct {
	BaseEvent
	Correct        int      `json:"correct"`
	Total          int      `json:"total"`
	AssignedLevel  string   `json:"assigned_level"`
	UnlockedLevels []string `json:"unlocked_levels"`
}

// Payload implements Event interface.
func (e PlacementCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"correct":         e.Correct,
		"total":           e.Total,
		"assigned_level":  e.AssignedLevel,
		"unlocked_levels": e.UnlockedLevels,
	}
}

// NewPlacementCompletedEvent creates a new PlacementCompletedEvent.
func NewPlacementCompletedEvent(learnerID string, correct, total int, level string, unlocked []string, at time.Time) PlacementCompletedEvent {
	return PlacementCompletedEvent{
		BaseEvent:      NewBaseEvent(EventPlacementCompleted, learnerID, at),
		Correct:        correct,
		Total:          total,
		AssignedLevel:  level,
		UnlockedLevels: unlocked,
	}
}

// LevelUnlockedEvent is emitted when a learner gains access to a new level.
type LevelUnlockedEvent struct {
	BaseEvent
	Level string `json:"level"`
}

// Payload implements Event interface.
func (e LevelUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"level": e.Level}
}

// NewLevelUnlockedEvent creates a new LevelUnlockedEvent.
func NewLevelUnlockedEvent(learnerID, level string, at time.Time) LevelUnlockedEvent {
	return LevelUnlockedEvent{
		BaseEvent: NewBaseEvent(EventLevelUnlocked, learnerID, at),
		Level:     level,
	}
}

// LearnerDeletedEvent is emitted after a learner account and its progress
// were removed.
type LearnerDeletedEvent struct {
	BaseEvent
	HadProgress bool `json:"had_progress"`
}

// Payload implements Event interface.
func (e LearnerDeletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"had_progress": e.HadProgress}
}

// NewLearnerDeletedEvent creates a new LearnerDeletedEvent.
func NewLearnerDeletedEvent(learnerID string, hadProgress bool, at time.Time) LearnerDeletedEvent {
	return LearnerDeletedEvent{
		BaseEvent:   NewBaseEvent(EventLearnerDeleted, learnerID, at),
		HadProgress: hadProgress,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progress Events
// ═══════════════════════════════════════════════════════════════════════════

// LessonCompletedEvent is emitted after every successful lesson completion.
type LessonCompletedEvent struct {
	BaseEvent
	LessonID      string `json:"lesson_id"`
	Score         int    `json:"score"`
	MaxScore      int    `json:"max_score"`
	PointsEarned  int    `json:"points_earned"`
	TotalPoints   int    `json:"total_points"`
	FirstTime     bool   `json:"first_time"`
	LevelProgress int    `json:"level_progress"`
}

// Payload implements Event interface.
func (e LessonCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"lesson_id":      e.LessonID,
		"score":          e.Score,
		"max_score":      e.MaxScore,
		"points_earned":  e.PointsEarned,
		"total_points":   e.TotalPoints,
		"first_time":     e.FirstTime,
		"level_progress": e.LevelProgress,
	}
}

// NewLessonCompletedEvent creates a new LessonCompletedEvent.
func NewLessonCompletedEvent(learnerID, lessonID string, score, maxScore, earned, total int, firstTime bool, levelProgress int, at time.Time) LessonCompletedEvent {
	return LessonCompletedEvent{
		BaseEvent:     NewBaseEvent(EventLessonCompleted, learnerID, at),
		LessonID:      lessonID,
		Score:         score,
		MaxScore:      maxScore,
		PointsEarned:  earned,
		TotalPoints:   total,
		FirstTime:     firstTime,
		LevelProgress: levelProgress,
	}
}

// AchievementUnlockedEvent is emitted once per granted achievement.
type AchievementUnlockedEvent struct {
	BaseEvent
	AchievementID string `json:"achievement_id"`
	Title         string `json:"title"`
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"achievement_id": e.AchievementID,
		"title":          e.Title,
	}
}

// NewAchievementUnlockedEvent creates a new AchievementUnlockedEvent.
func NewAchievementUnlockedEvent(learnerID, achievementID, title string, at time.Time) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:     NewBaseEvent(EventAchievementUnlocked, learnerID, at),
		AchievementID: achievementID,
		Title:         title,
	}
}

// LevelCompletedEvent is emitted when a level certificate is recorded.
type LevelCompletedEvent struct {
	BaseEvent
	Level        string  `json:"level"`
	TotalLessons int     `json:"total_lessons"`
	AverageScore float64 `json:"average_score"`
}

// Payload implements Event interface.
func (e LevelCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"level":         e.Level,
		"total_lessons": e.TotalLessons,
		"average_score": e.AverageScore,
	}
}

// NewLevelCompletedEvent creates a new LevelCompletedEvent.
func NewLevelCompletedEvent(learnerID, level string, totalLessons int, average float64, at time.Time) LevelCompletedEvent {
	return LevelCompletedEvent{
		BaseEvent:    NewBaseEvent(EventLevelCompleted, learnerID, at),
		Level:        level,
		TotalLessons: totalLessons,
		AverageScore: average,
	}
}

// StreakUpdatedEvent is emitted when the daily streak changes.
type StreakUpdatedEvent struct {
	BaseEvent
	PreviousStreak int `json:"previous_streak"`
	CurrentStreak  int `json:"current_streak"`
}

// Payload implements Event interface.
func (e StreakUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"previous_streak": e.PreviousStreak,
		"current_streak":  e.CurrentStreak,
	}
}

// NewStreakUpdatedEvent creates a StreakUpdatedEvent, or a streak-broken
// variant when the streak was reset.
func NewStreakUpdatedEvent(learnerID string, previous, current int, at time.Time) StreakUpdatedEvent {
	eventType := EventStreakUpdated
	if current < previous {
		eventType = EventStreakBroken
	}
	return StreakUpdatedEvent{
		BaseEvent:      NewBaseEvent(eventType, learnerID, at),
		PreviousStreak: previous,
		CurrentStreak:  current,
	}
}

// StreakWatchEvent is emitted by the streak watch job: at risk when the
// learner has not practiced yet today late in the evening, lapsed once a
// full calendar day passed without practice.
type StreakWatchEvent struct {
	BaseEvent
	Streak       int       `json:"streak"`
	LastActivity time.Time `json:"last_activity"`
}

// Payload implements Event interface.
func (e StreakWatchEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"streak":        e.Streak,
		"last_activity": e.LastActivity,
	}
}

// NewStreakAtRiskEvent creates a streak-at-risk StreakWatchEvent.
func NewStreakAtRiskEvent(learnerID string, streak int, lastActivity, at time.Time) StreakWatchEvent {
	return StreakWatchEvent{
		BaseEvent:    NewBaseEvent(EventStreakAtRisk, learnerID, at),
		Streak:       streak,
		LastActivity: lastActivity,
	}
}

// NewStreakLapsedEvent creates a streak-lapsed StreakWatchEvent.
func NewStreakLapsedEvent(learnerID string, streak int, lastActivity, at time.Time) StreakWatchEvent {
	return StreakWatchEvent{
		BaseEvent:    NewBaseEvent(EventStreakLapsed, learnerID, at),
		Streak:       streak,
		LastActivity: lastActivity,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus contracts
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
