package curriculum

import (
	"fmt"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
)

// LessonContent is the authored part of a lesson as supplied by the content
// source. Identity (id, level, index) is assigned by the Catalog from position.
type LessonContent struct {
	Title       string
	Description string
	Exercises   int
	Vocabulary  []string
}

// Catalog is the read-only, ordered set of lessons per level.
// It is built once at startup and shared by value-free reads; it is safe for
// concurrent use because nothing mutates it after construction.
type Catalog struct {
	byLevel map[Level][]Lesson
	byID    map[LessonID]Lesson
}

// NewCatalog builds a catalog from ordered lesson content per level.
// Lesson ids and indices are derived from array position.
func NewCatalog(content map[Level][]LessonContent) (*Catalog, error) {
	c := &Catalog{
		byLevel: make(map[Level][]Lesson, len(orderedLevels)),
		byID:    make(map[LessonID]Lesson),
	}

	for level, items := range content {
		if !level.IsValid() {
			return nil, fmt.Errorf("catalog: %w: %q", shared.ErrUnknownLevel, level)
		}

		lessons := make([]Lesson, 0, len(items))
		for i, item := range items {
			key := LessonKey{Level: level, Index: i}
			vocab := make([]string, len(item.Vocabulary))
			copy(vocab, item.Vocabulary)

			lesson := Lesson{
				ID:          key.ID(),
				Level:       level,
				Index:       i,
				Title:       item.Title,
				Description: item.Description,
				Exercises:   item.Exercises,
				Vocabulary:  vocab,
			}
			lessons = append(lessons, lesson)
			c.byID[lesson.ID] = lesson
		}
		c.byLevel[level] = lessons
	}

	return c, nil
}

// LessonsForLevel returns the ordered lessons of a level. Unknown or empty
// levels yield an empty slice.
func (c *Catalog) LessonsForLevel(level Level) []Lesson {
	lessons := c.byLevel[level]
	out := make([]Lesson, len(lessons))
	copy(out, lessons)
	return out
}

// Lesson looks up a lesson by id.
func (c *Catalog) Lesson(id LessonID) (Lesson, bool) {
	l, ok := c.byID[id]
	return l, ok
}

// LessonAt looks up a lesson by its composite key.
func (c *Catalog) LessonAt(key LessonKey) (Lesson, bool) {
	lessons := c.byLevel[key.Level]
	if key.Index < 0 || key.Index >= len(lessons) {
		return Lesson{}, false
	}
	return lessons[key.Index], true
}

// Previous returns the lesson immediately before l in the same level.
func (c *Catalog) Previous(l Lesson) (Lesson, bool) {
	if l.Index == 0 {
		return Lesson{}, false
	}
	return c.LessonAt(LessonKey{Level: l.Level, Index: l.Index - 1})
}

// TotalLessons returns the number of lessons in a level.
func (c *Catalog) TotalLessons(level Level) int {
	return len(c.byLevel[level])
}

// Size returns the total number of lessons across all levels.
func (c *Catalog) Size() int {
	return len(c.byID)
}
