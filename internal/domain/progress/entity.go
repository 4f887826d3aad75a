package progress

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/curriculum"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

// UserProgress is the whole-record progress snapshot of one learner.
// It is always read and written as a unit.
type UserProgress struct {
	// UserID identifies the owning learner.
	UserID string `json:"userId"`

	// CompletedLessons is a set of lesson ids kept in completion order.
	CompletedLessons []curriculum.LessonID `json:"completedLessons"`

	// LevelProgress holds the derived completion percentage per level.
	LevelProgress map[curriculum.Level]int `json:"levelProgress"`

	// CurrentLesson is the most recently completed lesson, empty if none.
	CurrentLesson curriculum.LessonID `json:"currentLesson,omitempty"`

	// Points only grow, once per first-time lesson completion.
	Points int `json:"points"`

	// Streak counts consecutive calendar days with activity.
	Streak int `json:"streak"`

	// LastActivityDate is nil until the first recorded activity.
	LastActivityDate *time.Time `json:"lastActivityDate,omitempty"`

	// Achievements holds granted achievements; each id appears at most once.
	Achievements []Achievement `json:"achievements"`

	// LessonScores holds the latest score per lesson.
	LessonScores map[curriculum.LessonID]LessonScore `json:"lessonScores"`

	// CompletedLevels holds at most one certificate per level.
	CompletedLevels []CompletedLevel `json:"completedLevels"`

	// LastEvaluatedCount is the completed-lesson count seen by the last
	// achievement evaluation.
	LastEvaluatedCount int `json:"lastEvaluatedCount"`

	// Version is the optimistic-concurrency token, bumped on every save.
	Version int64 `json:"version"`
}

// LessonScore is the latest recorded result for a lesson.
type LessonScore struct {
	Score       int       `json:"score"`
	MaxScore    int       `json:"maxScore"`
	CompletedAt time.Time `json:"completedAt"`
	Attempts    int       `json:"attempts"`
}

// Percent returns the score as a percentage of MaxScore, or 0 when MaxScore is 0.
func (s LessonScore) Percent() float64 {
	if s.MaxScore <= 0 {
		return 0
	}
	return float64(s.Score) / float64(s.MaxScore) * 100
}

// IsPerfect reports whether every exercise was answered correctly.
func (s LessonScore) IsPerfect() bool {
	return s.MaxScore > 0 && s.Score == s.MaxScore
}

// CompletedLevel is a certificate: a one-time completion record for a level.
type CompletedLevel struct {
	Level        curriculum.Level `json:"level"`
	CompletedAt  time.Time        `json:"completedAt"`
	TotalLessons int              `json:"totalLessons"`
	AverageScore float64          `json:"averageScore"`
}

// NewUserProgress is the single construction path for a progress record.
// All collections are initialized.
func NewUserProgress(userID string) *UserProgress {
	p := &UserProgress{UserID: userID}
	p.normalize()
	return p
}

// DecodeUserProgress restores a stored snapshot. Records written before
// LastEvaluatedCount existed are treated as fully evaluated, so historical
// completions never trigger count achievements retroactively.
func DecodeUserProgress(data []byte) (*UserProgress, error) {
	p := &UserProgress{LastEvaluatedCount: -1}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	p.normalize()
	return p, nil
}

// Encode serializes the snapshot for storage.
func (p *UserProgress) Encode() ([]byte, error) {
	return json.Marshal(p)
}

func (p *UserProgress) normalize() {
	if p.CompletedLessons == nil {
		p.CompletedLessons = make([]curriculum.LessonID, 0)
	}
	if p.LevelProgress == nil {
		p.LevelProgress = make(map[curriculum.Level]int)
	}
	if p.Achievements == nil {
		p.Achievements = make([]Achievement, 0)
	}
	if p.LessonScores == nil {
		p.LessonScores = make(map[curriculum.LessonID]LessonScore)
	}
	if p.CompletedLevels == nil {
		p.CompletedLevels = make([]CompletedLevel, 0)
	}
	if p.LastEvaluatedCount < 0 || p.LastEvaluatedCount > len(p.CompletedLessons) {
		p.LastEvaluatedCount = len(p.CompletedLessons)
	}
}

// Clone returns a deep copy of the snapshot.
func (p *UserProgress) Clone() *UserProgress {
	c := *p

	c.CompletedLessons = append(make([]curriculum.LessonID, 0, len(p.CompletedLessons)), p.CompletedLessons...)
	c.Achievements = append(make([]Achievement, 0, len(p.Achievements)), p.Achievements...)
	c.CompletedLevels = append(make([]CompletedLevel, 0, len(p.CompletedLevels)), p.CompletedLevels...)

	c.LevelProgress = make(map[curriculum.Level]int, len(p.LevelProgress))
	for k, v := range p.LevelProgress {
		c.LevelProgress[k] = v
	}
	c.LessonScores = make(map[curriculum.LessonID]LessonScore, len(p.LessonScores))
	for k, v := range p.LessonScores {
		c.LessonScores[k] = v
	}
	if p.LastActivityDate != nil {
		t := *p.LastActivityDate
		c.LastActivityDate = &t
	}

	return &c
}

// HasCompleted reports whether the lesson id is in CompletedLessons.
func (p *UserProgress) HasCompleted(id curriculum.LessonID) bool {
	for _, done := range p.CompletedLessons {
		if done == id {
			return true
		}
	}
	return false
}

// completedSet returns CompletedLessons as a set.
func (p *UserProgress) completedSet() map[curriculum.LessonID]struct{} {
	set := make(map[curriculum.LessonID]struct{}, len(p.CompletedLessons))
	for _, id := range p.CompletedLessons {
		set[id] = struct{}{}
	}
	return set
}

// CompletedCount returns the number of distinct completed lessons.
func (p *UserProgress) CompletedCount() int {
	return len(p.completedSet())
}

// HasAchievement reports whether an achievement was already granted.
func (p *UserProgress) HasAchievement(id AchievementID) bool {
	for _, a := range p.Achievements {
		if a.ID == id {
			return true
		}
	}
	return false
}

// MarkOnboarded records placement as the first day of activity.
func (p *UserProgress) MarkOnboarded(at time.Time) {
	if p.LastActivityDate != nil {
		return
	}
	t := at
	p.LastActivityDate = &t
	p.Streak = 1
}
