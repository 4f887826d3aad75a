package progress

import (
	"math"
	"time"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/curriculum"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
)

// ExerciseResult is the outcome of one exercise inside a lesson.
type ExerciseResult struct {
	ExerciseID string `json:"exerciseId,omitempty"`
	Correct    bool   `json:"correct"`
}

// Completion is the outcome of a lesson completion.
type Completion struct {
	// Progress is the new snapshot. The input snapshot is never modified.
	Progress *UserProgress

	Lesson          curriculum.Lesson
	Score           LessonScore
	FirstTime       bool
	PointsEarned    int
	PreviousStreak  int
	NewAchievements []Achievement
}

// Mutator is the single entry point that turns a lesson completion into the
// next progress snapshot.
type Mutator struct {
	catalog      *curriculum.Catalog
	levels       *LevelEvaluator
	achievements *AchievementEngine
}

// NewMutator creates a mutator over the given catalog.
func NewMutator(catalog *curriculum.Catalog) *Mutator {
	return &Mutator{
		catalog:      catalog,
		levels:       NewLevelEvaluator(catalog),
		achievements: NewAchievementEngine(catalog),
	}
}

// ScoreExercises returns the number of correct answers and the rounded
// percentage. An empty result set is a caller error.
func ScoreExercises(results []ExerciseResult) (correct int, percent int, err error) {
	if len(results) == 0 {
		return 0, 0, shared.ErrInvalidTotal
	}
	for _, r := range results {
		if r.Correct {
			correct++
		}
	}
	pct := float64(correct) / float64(len(results)) * 100
	return correct, int(math.Round(pct)), nil
}

// CompleteLesson applies a lesson completion to p and returns the new snapshot.
// All work happens on a copy; on error nothing is returned and p is untouched.
// Lock checks are the caller's responsibility.
func (m *Mutator) CompleteLesson(p *UserProgress, lessonID curriculum.LessonID, results []ExerciseResult, now time.Time) (*Completion, error) {
	if p == nil {
		return nil, shared.ErrProgressNotFound
	}
	lesson, ok := m.catalog.Lesson(lessonID)
	if !ok {
		return nil, shared.ErrUnknownLesson
	}

	correct, percent, err := ScoreExercises(results)
	if err != nil {
		return nil, err
	}

	next := p.Clone()
	firstTime := !next.HasCompleted(lessonID)

	score := LessonScore{
		Score:       correct,
		MaxScore:    len(results),
		CompletedAt: now,
		Attempts:    1,
	}
	if prev, ok := next.LessonScores[lessonID]; ok {
		score.Attempts = prev.Attempts + 1
	}
	next.LessonScores[lessonID] = score

	if firstTime {
		next.CompletedLessons = append(next.CompletedLessons, lessonID)
	}
	next.CurrentLesson = lessonID
	next.LevelProgress[lesson.Level] = m.levels.CalculateLevelProgress(next, lesson.Level)

	previousStreak := next.Streak
	next.Streak = UpdateStreak(next, now)

	earned := 0
	if firstTime {
		earned = percent
		next.Points += earned
	}

	activity := now
	next.LastActivityDate = &activity

	granted := m.achievements.CheckAndAward(next, &score, now)
	next.Achievements = append(next.Achievements, granted...)
	next.LastEvaluatedCount = next.CompletedCount()

	return &Completion{
		Progress:        next,
		Lesson:          lesson,
		Score:           score,
		FirstTime:       firstTime,
		PointsEarned:    earned,
		PreviousStreak:  previousStreak,
		NewAchievements: granted,
	}, nil
}
