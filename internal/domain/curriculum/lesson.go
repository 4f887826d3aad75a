package curriculum

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
)

// LessonID is the stable external name of a lesson, e.g. "a1-3".
type LessonID string

// String returns the raw id.
func (id LessonID) String() string {
	return string(id)
}

// LessonKey is the composite identity of a lesson: its level and 0-based
// position within that level.
type LessonKey struct {
	Level Level
	Index int
}

// ID returns the external id for the key. Ids are 1-based: index 0 of A1 is "a1-1".
func (k LessonKey) ID() LessonID {
	return LessonID(fmt.Sprintf("%s-%d", k.Level.Key(), k.Index+1))
}

// ParseLessonID decodes an external lesson id into its key. It only checks the
// syntax; whether the lesson exists is answered by the Catalog.
func ParseLessonID(id LessonID) (LessonKey, error) {
	raw := strings.ToLower(strings.TrimSpace(string(id)))
	sep := strings.LastIndex(raw, "-")
	if sep <= 0 || sep == len(raw)-1 {
		return LessonKey{}, shared.ErrUnknownLesson
	}

	level, err := ParseLevel(raw[:sep])
	if err != nil {
		return LessonKey{}, shared.ErrUnknownLesson
	}

	n, err := strconv.Atoi(raw[sep+1:])
	if err != nil || n < 1 {
		return LessonKey{}, shared.ErrUnknownLesson
	}

	return LessonKey{Level: level, Index: n - 1}, nil
}

// Lesson is an immutable unit of curriculum content.
type Lesson struct {
	ID    LessonID
	Level Level
	Index int

	Title       string
	Description string
	Exercises   int
	Vocabulary  []string
}

// Key returns the composite identity of the lesson.
func (l Lesson) Key() LessonKey {
	return LessonKey{Level: l.Level, Index: l.Index}
}

// IsFirst reports whether the lesson opens its level.
func (l Lesson) IsFirst() bool {
	return l.Index == 0
}
