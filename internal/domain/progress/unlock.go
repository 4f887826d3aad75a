package progress

import (
	"github.com/lingvo-hub/lingvo-hub/internal/domain/curriculum"
)

// IsLevelLocked reports whether target is absent from the learner's unlocked
// levels. When the list carries no valid level at all, only Beginner counts
// as unlocked.
func IsLevelLocked(unlockedLevels []curriculum.Level, target curriculum.Level) bool {
	valid := false
	for _, l := range unlockedLevels {
		if !l.IsValid() {
			continue
		}
		valid = true
		if l == target {
			return false
		}
	}
	if !valid {
		return target != curriculum.LevelBeginner
	}
	return true
}

// Evaluator answers catalog-dependent questions about a progress snapshot.
// It holds no state beyond the injected read-only catalog.
type Evaluator struct {
	catalog *curriculum.Catalog
}

// NewEvaluator creates an evaluator over the given catalog.
func NewEvaluator(catalog *curriculum.Catalog) *Evaluator {
	return &Evaluator{catalog: catalog}
}

// Catalog returns the catalog the evaluator reads from.
func (e *Evaluator) Catalog() *curriculum.Catalog {
	return e.catalog
}

// IsLessonUnlocked reports whether the lesson may be opened: it is the first
// lesson of its level, or the lesson right before it is completed.
// Unknown lessons, or lessons that do not belong to level, are locked.
// Level lock status is not considered here.
func (e *Evaluator) IsLessonUnlocked(p *UserProgress, lessonID curriculum.LessonID, level curriculum.Level) bool {
	lesson, ok := e.catalog.Lesson(lessonID)
	if !ok || lesson.Level != level {
		return false
	}
	if lesson.IsFirst() {
		return true
	}
	if p == nil {
		return false
	}

	prev, ok := e.catalog.Previous(lesson)
	if !ok {
		return false
	}
	return p.HasCompleted(prev.ID)
}
