package progress

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/curriculum"
)

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

// newTestCatalog builds a catalog with the given number of lessons per level.
func newTestCatalog(t *testing.T, sizes map[curriculum.Level]int) *curriculum.Catalog {
	t.Helper()

	content := make(map[curriculum.Level][]curriculum.LessonContent, len(sizes))
	for level, n := range sizes {
		items := make([]curriculum.LessonContent, n)
		for i := range items {
			items[i] = curriculum.LessonContent{
				Title:     fmt.Sprintf("%s lesson %d", level, i+1),
				Exercises: 3,
			}
		}
		content[level] = items
	}

	catalog, err := curriculum.NewCatalog(content)
	require.NoError(t, err)
	return catalog
}

func defaultTestCatalog(t *testing.T) *curriculum.Catalog {
	return newTestCatalog(t, map[curriculum.Level]int{
		curriculum.LevelBeginner: 3,
		curriculum.LevelA1:       5,
		curriculum.LevelA2:       60,
		curriculum.LevelB2:       5,
	})
}

// lessonIDs returns the ids of the first n lessons of level.
func lessonIDs(level curriculum.Level, n int) []curriculum.LessonID {
	ids := make([]curriculum.LessonID, n)
	for i := range ids {
		ids[i] = curriculum.LessonKey{Level: level, Index: i}.ID()
	}
	return ids
}

func results(correct, total int) []ExerciseResult {
	out := make([]ExerciseResult, total)
	for i := range out {
		out[i].Correct = i < correct
	}
	return out
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
