package progress

import (
	"time"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/curriculum"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENTS
// ══════════════════════════════════════════════════════════════════════════════

// AchievementID identifies an achievement definition.
type AchievementID string

const (
	AchievementFirstLesson   AchievementID = "first-lesson"
	AchievementWeekStreak    AchievementID = "week-streak"
	AchievementMonthStreak   AchievementID = "month-streak"
	AchievementTenLessons    AchievementID = "ten-lessons"
	AchievementFiftyLessons  AchievementID = "fifty-lessons"
	AchievementPerfectScore  AchievementID = "perfect-score"
	AchievementLevelComplete AchievementID = "level-complete"
)

// Achievement is a granted, timestamped instance of a definition.
type Achievement struct {
	ID          AchievementID `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Icon        string        `json:"icon"`
	UnlockedAt  time.Time     `json:"unlockedAt"`
}

// AchievementDefinition describes an achievement.
type AchievementDefinition struct {
	ID          AchievementID
	Title       string
	Description string
	Icon        string
}

var achievementDefinitions = []AchievementDefinition{
	{AchievementFirstLesson, "First Steps", "Complete your first lesson", "🎯"},
	{AchievementWeekStreak, "Week Warrior", "Keep a 7-day learning streak", "🔥"},
	{AchievementMonthStreak, "Monthly Master", "Keep a 30-day learning streak", "💪"},
	{AchievementTenLessons, "Dedicated Learner", "Complete 10 lessons", "📚"},
	{AchievementFiftyLessons, "Language Enthusiast", "Complete 50 lessons", "🌍"},
	{AchievementPerfectScore, "Perfectionist", "Answer every exercise in a lesson correctly", "⭐"},
	{AchievementLevelComplete, "Level Master", "Complete every lesson of a level", "🏆"},
}

// AchievementDefinitions returns every definition in evaluation order.
func AchievementDefinitions() []AchievementDefinition {
	out := make([]AchievementDefinition, len(achievementDefinitions))
	copy(out, achievementDefinitions)
	return out
}

// GetAchievementDefinition returns the definition for id.
func GetAchievementDefinition(id AchievementID) (AchievementDefinition, bool) {
	for _, def := range achievementDefinitions {
		if def.ID == id {
			return def, true
		}
	}
	return AchievementDefinition{}, false
}

// Grant creates a timestamped achievement instance from the definition.
func (d AchievementDefinition) Grant(at time.Time) Achievement {
	return Achievement{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Icon:        d.Icon,
		UnlockedAt:  at,
	}
}

// Count and streak thresholds.
const (
	firstLessonThreshold  = 1
	tenLessonsThreshold   = 10
	fiftyLessonsThreshold = 50
	weekStreakThreshold   = 7
	monthStreakThreshold  = 30
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// AchievementEngine decides which achievements a snapshot newly earns.
type AchievementEngine struct {
	levels *LevelEvaluator
}

// NewAchievementEngine creates an engine over the given catalog.
func NewAchievementEngine(catalog *curriculum.Catalog) *AchievementEngine {
	return &AchievementEngine{levels: NewLevelEvaluator(catalog)}
}

// CheckAndAward returns the achievements p newly qualifies for. Achievements
// already present in p are never returned again. The caller merges the result
// into p.Achievements and advances p.LastEvaluatedCount.
//
// Lesson-count achievements fire when the count crosses the threshold since
// the previous evaluation (LastEvaluatedCount < threshold <= count), so a
// skipped evaluation cannot lose them.
func (e *AchievementEngine) CheckAndAward(p *UserProgress, newScore *LessonScore, now time.Time) []Achievement {
	if p == nil {
		return nil
	}

	prevCount := p.LastEvaluatedCount
	count := p.CompletedCount()
	crossed := func(threshold int) bool {
		return prevCount < threshold && threshold <= count
	}

	checks := []struct {
		id AchievementID
		ok bool
	}{
		{AchievementFirstLesson, crossed(firstLessonThreshold)},
		{AchievementWeekStreak, p.Streak >= weekStreakThreshold},
		{AchievementMonthStreak, p.Streak >= monthStreakThreshold},
		{AchievementTenLessons, crossed(tenLessonsThreshold)},
		{AchievementFiftyLessons, crossed(fiftyLessonsThreshold)},
		{AchievementPerfectScore, newScore != nil && newScore.IsPerfect()},
		{AchievementLevelComplete, e.currentLevelComplete(p)},
	}

	var granted []Achievement
	for _, c := range checks {
		if !c.ok || p.HasAchievement(c.id) {
			continue
		}
		def, ok := GetAchievementDefinition(c.id)
		if !ok {
			continue
		}
		granted = append(granted, def.Grant(now))
	}
	return granted
}

// currentLevelComplete reports whether the level of CurrentLesson is at 100%.
func (e *AchievementEngine) currentLevelComplete(p *UserProgress) bool {
	if p.CurrentLesson == "" {
		return false
	}
	lesson, ok := e.levels.catalog.Lesson(p.CurrentLesson)
	if !ok {
		return false
	}
	return e.levels.CalculateLevelProgress(p, lesson.Level) == 100
}
