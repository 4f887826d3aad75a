package learner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/curriculum"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
)

var now = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func TestNewLearner(t *testing.T) {
	l, err := NewLearner("", " Ada ", now)
	require.NoError(t, err)
	assert.NotEmpty(t, l.ID)
	assert.Equal(t, "Ada", l.DisplayName)
	assert.Equal(t, []curriculum.Level{curriculum.LevelBeginner}, l.UnlockedLevels)
	assert.False(t, l.IsPlaced())

	_, err = NewLearner("bad id", "", now)
	assert.ErrorIs(t, err, shared.ErrInvalidLearnerID)
}

func TestCompletePlacement(t *testing.T) {
	l, err := NewLearner("u1", "", now)
	require.NoError(t, err)

	levels := []curriculum.Level{curriculum.LevelBeginner, curriculum.LevelA1, curriculum.LevelA2}
	require.NoError(t, l.CompletePlacement(curriculum.LevelA2, levels, now))

	assert.True(t, l.IsPlaced())
	assert.Equal(t, curriculum.LevelA2, l.PlacementLevel)
	assert.Equal(t, levels, l.UnlockedLevels)
	assert.Equal(t, curriculum.LevelA2, l.HighestUnlocked())

	err = l.CompletePlacement(curriculum.LevelC2, nil, now)
	assert.ErrorIs(t, err, shared.ErrPlacementAlreadyTaken)
}

func TestUnlockLevel_IdempotentAndOrdered(t *testing.T) {
	l, err := NewLearner("u1", "", now)
	require.NoError(t, err)

	assert.True(t, l.UnlockLevel(curriculum.LevelB1, now))
	assert.True(t, l.UnlockLevel(curriculum.LevelA1, now))
	assert.False(t, l.UnlockLevel(curriculum.LevelA1, now))
	assert.False(t, l.UnlockLevel("Z9", now))

	assert.Equal(t, []curriculum.Level{curriculum.LevelBeginner, curriculum.LevelA1, curriculum.LevelB1}, l.UnlockedLevels)
}

func TestClone(t *testing.T) {
	l, err := NewLearner("u1", "", now)
	require.NoError(t, err)
	c := l.Clone()
	c.UnlockLevel(curriculum.LevelA1, now)
	assert.Len(t, l.UnlockedLevels, 1)
}
