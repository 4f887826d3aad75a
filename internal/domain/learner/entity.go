// Package learner holds the learner account and its unlocked levels.
package learner

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/curriculum"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
)

// Learner is a learner account. Progress lives in a separate snapshot keyed
// by the same id.
type Learner struct {
	ID          string
	DisplayName string
	Email       string

	// UnlockedLevels is kept in curriculum order without duplicates.
	UnlockedLevels []curriculum.Level

	// PlacementLevel is empty until the placement test is taken.
	PlacementLevel curriculum.Level
	PlacedAt       *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewLearner creates a learner with only Beginner unlocked. An empty id gets
// a generated one.
func NewLearner(id, displayName string, now time.Time) (*Learner, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	if !ValidID(id) {
		return nil, shared.ErrInvalidLearnerID
	}
	return &Learner{
		ID:             id,
		DisplayName:    strings.TrimSpace(displayName),
		UnlockedLevels: []curriculum.Level{curriculum.LevelBeginner},
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// ValidID reports whether id is usable as a learner id.
func ValidID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	return !strings.ContainsAny(id, " \t\r\n/")
}

// IsPlaced reports whether the placement test was taken.
func (l *Learner) IsPlaced() bool {
	return l.PlacedAt != nil
}

// CompletePlacement records the placement result and unlocks every level up to
// and including the assigned one.
func (l *Learner) CompletePlacement(level curriculum.Level, unlocked []curriculum.Level, now time.Time) error {
	if l.IsPlaced() {
		return shared.ErrPlacementAlreadyTaken
	}
	if !level.IsValid() {
		return shared.ErrUnknownLevel
	}
	for _, lv := range unlocked {
		l.UnlockLevel(lv, now)
	}
	l.PlacementLevel = level
	at := now
	l.PlacedAt = &at
	l.UpdatedAt = now
	return nil
}

// UnlockLevel adds level to UnlockedLevels. It reports whether anything changed.
func (l *Learner) UnlockLevel(level curriculum.Level, now time.Time) bool {
	if !level.IsValid() || l.HasUnlocked(level) {
		return false
	}
	l.UnlockedLevels = append(l.UnlockedLevels, level)
	sortLevels(l.UnlockedLevels)
	l.UpdatedAt = now
	return true
}

// HasUnlocked reports whether level is in UnlockedLevels.
func (l *Learner) HasUnlocked(level curriculum.Level) bool {
	for _, lv := range l.UnlockedLevels {
		if lv == level {
			return true
		}
	}
	return false
}

// HighestUnlocked returns the most advanced unlocked level, Beginner if none.
func (l *Learner) HighestUnlocked() curriculum.Level {
	highest := curriculum.LevelBeginner
	for _, lv := range l.UnlockedLevels {
		if lv.IsValid() && highest.Before(lv) {
			highest = lv
		}
	}
	return highest
}

// Clone returns a deep copy.
func (l *Learner) Clone() *Learner {
	c := *l
	c.UnlockedLevels = append([]curriculum.Level(nil), l.UnlockedLevels...)
	if l.PlacedAt != nil {
		t := *l.PlacedAt
		c.PlacedAt = &t
	}
	return &c
}

func sortLevels(levels []curriculum.Level) {
	for i := 1; i < len(levels); i++ {
		for j := i; j > 0 && levels[j].Before(levels[j-1]); j-- {
			levels[j], levels[j-1] = levels[j-1], levels[j]
		}
	}
}
