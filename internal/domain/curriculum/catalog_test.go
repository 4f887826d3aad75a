package curriculum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
)

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("b2")
	require.NoError(t, err)
	assert.Equal(t, LevelB2, l)

	l, err = ParseLevel(" Beginner ")
	require.NoError(t, err)
	assert.Equal(t, LevelBeginner, l)

	_, err = ParseLevel("D1")
	assert.ErrorIs(t, err, shared.ErrUnknownLevel)
}

func TestLevelOrdering(t *testing.T) {
	levels := Levels()
	require.Len(t, levels, 7)
	assert.Equal(t, LevelBeginner, levels[0])
	assert.Equal(t, LevelC2, levels[6])

	next, ok := LevelA2.Next()
	assert.True(t, ok)
	assert.Equal(t, LevelB1, next)

	_, ok = LevelC2.Next()
	assert.False(t, ok)

	_, ok = LevelBeginner.Previous()
	assert.False(t, ok)

	assert.True(t, LevelA1.Before(LevelC1))
	assert.False(t, LevelC1.Before(LevelA1))
	assert.False(t, Level("X").IsValid())
}

func TestParseLessonID(t *testing.T) {
	key, err := ParseLessonID("a1-3")
	require.NoError(t, err)
	assert.Equal(t, LessonKey{Level: LevelA1, Index: 2}, key)
	assert.Equal(t, LessonID("a1-3"), key.ID())

	key, err = ParseLessonID("beginner-1")
	require.NoError(t, err)
	assert.Equal(t, LessonKey{Level: LevelBeginner, Index: 0}, key)

	for _, bad := range []LessonID{"", "a1", "a1-", "a1-0", "z9-1", "a1-x", "-1"} {
		_, err := ParseLessonID(bad)
		assert.ErrorIs(t, err, shared.ErrUnknownLesson, "id %q", bad)
	}
}

func TestNewCatalog(t *testing.T) {
	catalog, err := NewCatalog(map[Level][]LessonContent{
		LevelA1: {
			{Title: "Greetings", Exercises: 3},
			{Title: "Numbers", Exercises: 4, Vocabulary: []string{"one", "two"}},
		},
		LevelB1: {{Title: "Travel"}},
	})
	require.NoError(t, err)

	lessons := catalog.LessonsForLevel(LevelA1)
	require.Len(t, lessons, 2)
	assert.Equal(t, LessonID("a1-1"), lessons[0].ID)
	assert.Equal(t, LessonID("a1-2"), lessons[1].ID)
	assert.Equal(t, 1, lessons[1].Index)
	assert.True(t, lessons[0].IsFirst())

	lesson, ok := catalog.Lesson("a1-2")
	require.True(t, ok)
	assert.Equal(t, "Numbers", lesson.Title)
	assert.Equal(t, LevelA1, lesson.Level)

	prev, ok := catalog.Previous(lesson)
	require.True(t, ok)
	assert.Equal(t, LessonID("a1-1"), prev.ID)

	_, ok = catalog.Previous(prev)
	assert.False(t, ok)

	_, ok = catalog.Lesson("a1-9")
	assert.False(t, ok)

	assert.Equal(t, 2, catalog.TotalLessons(LevelA1))
	assert.Equal(t, 0, catalog.TotalLessons(LevelC2))
	assert.Empty(t, catalog.LessonsForLevel(LevelC2))
	assert.Equal(t, 3, catalog.Size())
}

func TestCatalogIsReadOnly(t *testing.T) {
	catalog, err := NewCatalog(map[Level][]LessonContent{
		LevelA1: {{Title: "Greetings"}},
	})
	require.NoError(t, err)

	lessons := catalog.LessonsForLevel(LevelA1)
	lessons[0].Title = "changed"

	lesson, _ := catalog.Lesson("a1-1")
	assert.Equal(t, "Greetings", lesson.Title)
}

func TestNewCatalogRejectsUnknownLevel(t *testing.T) {
	_, err := NewCatalog(map[Level][]LessonContent{
		Level("Z1"): {{Title: "?"}},
	})
	assert.ErrorIs(t, err, shared.ErrUnknownLevel)
}
