package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/curriculum"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
)

const sample = `
levels:
  - level: A1
    lessons:
      - title: Greetings
        exercises: 3
        vocabulary: [hallo, tschüss]
      - title: Numbers
  - level: beginner
    lessons:
      - title: Alphabet
`

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curriculum.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	catalog, err := NewCatalogLoader().LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 2, catalog.TotalLessons(curriculum.LevelA1))
	assert.Equal(t, 1, catalog.TotalLessons(curriculum.LevelBeginner))

	lesson, ok := catalog.Lesson("a1-1")
	require.True(t, ok)
	assert.Equal(t, "Greetings", lesson.Title)
	assert.Equal(t, []string{"hallo", "tschüss"}, lesson.Vocabulary)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := NewCatalogLoader().LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_Errors(t *testing.T) {
	loader := NewCatalogLoader()

	_, err := loader.Parse([]byte("levels:\n  - level: Z9\n"))
	assert.ErrorIs(t, err, shared.ErrUnknownLevel)

	_, err = loader.Parse([]byte("levels:\n  - level: A1\n    lessons:\n      - title: Hi\n  - level: a1\n    lessons:\n      - title: Hey\n"))
	assert.ErrorContains(t, err, "listed twice")

	_, err = loader.Parse([]byte("levels:\n  - level: B1\n    lessons: []\n"))
	assert.ErrorIs(t, err, shared.ErrEmptyLevel)

	_, err = loader.Parse([]byte("levels: {"))
	assert.Error(t, err)
}

func TestBundledCurriculum(t *testing.T) {
	catalog, err := NewCatalogLoader().LoadFromFile(filepath.Join("..", "..", "..", "configs", "curriculum.yaml"))
	require.NoError(t, err)

	for _, level := range curriculum.Levels() {
		assert.Positive(t, catalog.TotalLessons(level), "level %s", level)
	}
}
