// Package curriculum defines the fixed proficiency levels and the read-only
// lesson catalog that progress evaluation runs against.
//
// Levels form a closed, ordered enumeration known at compile time. Lessons are
// immutable and addressed by an explicit {Level, Index} key; the string lesson
// id ("a1-3") is only a stable external name for that key.
package curriculum

import (
	"strings"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
)

// Level is one of the seven ordered proficiency tiers.
type Level string

const (
	LevelBeginner Level = "Beginner"
	LevelA1       Level = "A1"
	LevelA2       Level = "A2"
	LevelB1       Level = "B1"
	LevelB2       Level = "B2"
	LevelC1       Level = "C1"
	LevelC2       Level = "C2"
)

var orderedLevels = [...]Level{
	LevelBeginner,
	LevelA1,
	LevelA2,
	LevelB1,
	LevelB2,
	LevelC1,
	LevelC2,
}

// Levels returns every level in progression order.
func Levels() []Level {
	out := make([]Level, len(orderedLevels))
	copy(out, orderedLevels[:])
	return out
}

// ParseLevel resolves a level from its display name or lowercase key.
func ParseLevel(s string) (Level, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, l := range orderedLevels {
		if l.Key() == key {
			return l, nil
		}
	}
	return "", shared.ErrUnknownLevel
}

// IsValid reports whether l belongs to the enumeration.
func (l Level) IsValid() bool {
	return l.Index() >= 0
}

// Index returns the position of the level in progression order, or -1.
func (l Level) Index() int {
	for i, candidate := range orderedLevels {
		if candidate == l {
			return i
		}
	}
	return -1
}

// Key returns the lowercase identifier used in lesson ids and storage keys.
func (l Level) Key() string {
	return strings.ToLower(string(l))
}

// String returns the display name.
func (l Level) String() string {
	return string(l)
}

// Next returns the following level. The second result is false for C2
// and for invalid levels.
func (l Level) Next() (Level, bool) {
	i := l.Index()
	if i < 0 || i+1 >= len(orderedLevels) {
		return "", false
	}
	return orderedLevels[i+1], true
}

// Previous returns the preceding level. The second result is false for Beginner.
func (l Level) Previous() (Level, bool) {
	i := l.Index()
	if i <= 0 {
		return "", false
	}
	return orderedLevels[i-1], true
}

// Before reports whether l comes strictly before other in progression order.
func (l Level) Before(other Level) bool {
	return l.Index() >= 0 && l.Index() < other.Index()
}
