// Package filesystem loads static curriculum content from disk.
package filesystem

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/curriculum"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
)

// CatalogLoader reads the curriculum catalog from a YAML file.
type CatalogLoader struct{}

// NewCatalogLoader creates a new catalog loader.
func NewCatalogLoader() *CatalogLoader {
	return &CatalogLoader{}
}

// CatalogFile is the YAML layout of the curriculum file.
type CatalogFile struct {
	Levels []LevelEntry `yaml:"levels"`
}

// LevelEntry lists the lessons of one level in order.
type LevelEntry struct {
	Level   string        `yaml:"level"`
	Lessons []LessonEntry `yaml:"lessons"`
}

// LessonEntry is a single lesson in the YAML file.
type LessonEntry struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Exercises   int      `yaml:"exercises"`
	Vocabulary  []string `yaml:"vocabulary"`
}

// LoadFromFile reads and parses the catalog at path.
func (l *CatalogLoader) LoadFromFile(path string) (*curriculum.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curriculum file: %w", err)
	}
	return l.Parse(data)
}

// Parse builds a catalog from raw YAML. A level may appear only once.
func (l *CatalogLoader) Parse(data []byte) (*curriculum.Catalog, error) {
	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal curriculum yaml: %w", err)
	}

	content := make(map[curriculum.Level][]curriculum.LessonContent, len(file.Levels))
	for _, entry := range file.Levels {
		level, err := curriculum.ParseLevel(entry.Level)
		if err != nil {
			return nil, fmt.Errorf("curriculum level %q: %w", entry.Level, err)
		}
		if _, dup := content[level]; dup {
			return nil, fmt.Errorf("curriculum level %q listed twice", level)
		}
		if len(entry.Lessons) == 0 {
			return nil, fmt.Errorf("curriculum level %q: %w", level, shared.ErrEmptyLevel)
		}

		lessons := make([]curriculum.LessonContent, 0, len(entry.Lessons))
		for _, lesson := range entry.Lessons {
			lessons = append(lessons, curriculum.LessonContent{
				Title:       lesson.Title,
				Description: lesson.Description,
				Exercises:   lesson.Exercises,
				Vocabulary:  lesson.Vocabulary,
			})
		}
		content[level] = lessons
	}

	return curriculum.NewCatalog(content)
}
