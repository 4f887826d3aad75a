package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/curriculum"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
)

func TestDetermineLevelFromPlacementScore(t *testing.T) {
	tests := []struct {
		correct, total int
		want           curriculum.Level
	}{
		{0, 20, curriculum.LevelBeginner},
		{3, 20, curriculum.LevelBeginner},
		{4, 20, curriculum.LevelA1},
		{7, 20, curriculum.LevelA1},
		{8, 20, curriculum.LevelA2},
		{10, 20, curriculum.LevelA2},
		{11, 20, curriculum.LevelB1},
		{13, 20, curriculum.LevelB1},
		{14, 20, curriculum.LevelB2},
		{15, 20, curriculum.LevelB2},
		{16, 20, curriculum.LevelB2},
		{17, 20, curriculum.LevelC1},
		{18, 20, curriculum.LevelC1},
		{19, 20, curriculum.LevelC2},
		{20, 20, curriculum.LevelC2},
		{39, 100, curriculum.LevelA1},
		{94, 100, curriculum.LevelC1},
	}

	for _, tt := range tests {
		got, err := DetermineLevelFromPlacementScore(tt.correct, tt.total)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%d/%d", tt.correct, tt.total)
	}
}

func TestDetermineLevelFromPlacementScore_InvalidInput(t *testing.T) {
	_, err := DetermineLevelFromPlacementScore(0, 0)
	assert.ErrorIs(t, err, shared.ErrInvalidTotal)
	assert.True(t, shared.IsValidation(err))

	_, err = DetermineLevelFromPlacementScore(21, 20)
	assert.ErrorIs(t, err, shared.ErrInvalidScore)

	_, err = DetermineLevelFromPlacementScore(-1, 20)
	assert.ErrorIs(t, err, shared.ErrInvalidScore)
}

func TestLevelsThroughCurrent(t *testing.T) {
	assert.Equal(t, []curriculum.Level{
		curriculum.LevelBeginner, curriculum.LevelA1, curriculum.LevelA2, curriculum.LevelB1, curriculum.LevelB2,
	}, LevelsThroughCurrent(curriculum.LevelB2))

	assert.Equal(t, []curriculum.Level{curriculum.LevelBeginner}, LevelsThroughCurrent(curriculum.LevelBeginner))
	assert.Len(t, LevelsThroughCurrent(curriculum.LevelC2), 7)
	assert.Equal(t, []curriculum.Level{curriculum.LevelBeginner}, LevelsThroughCurrent("nope"))
}
