package progress

import (
	"time"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/curriculum"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
)

// LevelCompletion is the completion report for one level.
type LevelCompletion struct {
	Level            curriculum.Level
	IsComplete       bool
	TotalLessons     int
	CompletedLessons int
	// AverageScore is the mean percentage over lessons with a recorded score.
	AverageScore float64
}

// LevelEvaluator computes level percentages and completion over a catalog.
type LevelEvaluator struct {
	catalog *curriculum.Catalog
}

// NewLevelEvaluator creates a level evaluator.
func NewLevelEvaluator(catalog *curriculum.Catalog) *LevelEvaluator {
	return &LevelEvaluator{catalog: catalog}
}

// CalculateLevelProgress returns floor(100 * completed / total) for level.
// Levels without lessons report 0.
func (e *LevelEvaluator) CalculateLevelProgress(p *UserProgress, level curriculum.Level) int {
	total := e.catalog.TotalLessons(level)
	if p == nil || total == 0 {
		return 0
	}
	done := e.completedInLevel(p, level)
	return done * 100 / total
}

// CheckLevelCompletion reports whether every lesson of the level is done, and
// the average score over the level's scored lessons. Lessons completed without
// a score entry are left out of the average.
func (e *LevelEvaluator) CheckLevelCompletion(p *UserProgress, level curriculum.Level) LevelCompletion {
	lessons := e.catalog.LessonsForLevel(level)
	result := LevelCompletion{
		Level:        level,
		TotalLessons: len(lessons),
	}
	if p == nil || len(lessons) == 0 {
		return result
	}

	done := p.completedSet()
	var sum float64
	var scored int
	for _, lesson := range lessons {
		if _, ok := done[lesson.ID]; ok {
			result.CompletedLessons++
		}
		if score, ok := p.LessonScores[lesson.ID]; ok && score.MaxScore > 0 {
			sum += score.Percent()
			scored++
		}
	}

	result.IsComplete = result.CompletedLessons == len(lessons)
	if scored > 0 {
		result.AverageScore = sum / float64(scored)
	}
	return result
}

// HasLevelCertificate reports whether a certificate exists for level.
func HasLevelCertificate(p *UserProgress, level curriculum.Level) bool {
	if p == nil {
		return false
	}
	for _, cl := range p.CompletedLevels {
		if cl.Level == level {
			return true
		}
	}
	return false
}

// RecordLevelCertificate returns a copy of p with a certificate for level
// appended. It fails when the level is incomplete or already certified.
func (e *LevelEvaluator) RecordLevelCertificate(p *UserProgress, level curriculum.Level, now time.Time) (*UserProgress, CompletedLevel, error) {
	if HasLevelCertificate(p, level) {
		return nil, CompletedLevel{}, shared.ErrCertificateExists
	}
	completion := e.CheckLevelCompletion(p, level)
	if !completion.IsComplete {
		return nil, CompletedLevel{}, shared.ErrLevelNotComplete
	}

	cert := CompletedLevel{
		Level:        level,
		CompletedAt:  now,
		TotalLessons: completion.TotalLessons,
		AverageScore: completion.AverageScore,
	}
	next := p.Clone()
	next.CompletedLevels = append(next.CompletedLevels, cert)
	return next, cert, nil
}

// completedInLevel counts distinct completed lessons that belong to level.
// Ids missing from the catalog are ignored.
func (e *LevelEvaluator) completedInLevel(p *UserProgress, level curriculum.Level) int {
	n := 0
	for id := range p.completedSet() {
		if lesson, ok := e.catalog.Lesson(id); ok && lesson.Level == level {
			n++
		}
	}
	return n
}
