package progress

import (
	"github.com/lingvo-hub/lingvo-hub/internal/domain/curriculum"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
)

// placementBands maps the lower bound (inclusive, percent) of each band to a
// level, highest first.
var placementBands = []struct {
	minPercent float64
	level      curriculum.Level
}{
	{95, curriculum.LevelC2},
	{85, curriculum.LevelC1},
	{70, curriculum.LevelB2},
	{55, curriculum.LevelB1},
	{40, curriculum.LevelA2},
	{20, curriculum.LevelA1},
	{0, curriculum.LevelBeginner},
}

// DetermineLevelFromPlacementScore maps a placement test result to a level.
// totalQuestions must be positive and correctAnswers within [0, total].
func DetermineLevelFromPlacementScore(correctAnswers, totalQuestions int) (curriculum.Level, error) {
	if totalQuestions <= 0 {
		return "", shared.ErrInvalidTotal
	}
	if correctAnswers < 0 || correctAnswers > totalQuestions {
		return "", shared.ErrInvalidScore
	}

	percent := float64(correctAnswers) * 100 / float64(totalQuestions)
	for _, band := range placementBands {
		if percent >= band.minPercent {
			return band.level, nil
		}
	}
	return curriculum.LevelBeginner, nil
}

// LevelsThroughCurrent returns every level from Beginner up to and including
// level, in order. Invalid levels yield only Beginner.
func LevelsThroughCurrent(level curriculum.Level) []curriculum.Level {
	idx := level.Index()
	if idx < 0 {
		return []curriculum.Level{curriculum.LevelBeginner}
	}
	return curriculum.Levels()[:idx+1]
}
