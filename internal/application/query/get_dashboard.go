package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/curriculum"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/learner"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/progress"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
	"github.com/lingvo-hub/lingvo-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DASHBOARD QUERY
// Everything the learner home screen shows: every level with its lock state
// and completion, every lesson with its unlock state, streak and achievements.
// ══════════════════════════════════════════════════════════════════════════════

// GetDashboardQuery identifies the learner.
type GetDashboardQuery struct {
	LearnerID string
}

// DashboardDTO is the learner dashboard.
type DashboardDTO struct {
	LearnerID        string                 `json:"learnerId"`
	PlacementLevel   curriculum.Level       `json:"placementLevel,omitempty"`
	Points           int                    `json:"points"`
	Streak           int                    `json:"streak"`
	StreakAtRisk     bool                   `json:"streakAtRisk"`
	LastActivityDate *time.Time             `json:"lastActivityDate,omitempty"`
	LastActivity     string                 `json:"lastActivity,omitempty"`
	CurrentLesson    curriculum.LessonID    `json:"currentLesson,omitempty"`
	CompletedLessons int                    `json:"completedLessons"`
	Achievements     []progress.Achievement `json:"achievements"`
	Levels           []LevelDTO             `json:"levels"`
}

// LevelDTO is one level on the dashboard.
type LevelDTO struct {
	Level            curriculum.Level `json:"level"`
	Locked           bool             `json:"locked"`
	Percent          int              `json:"percent"`
	IsComplete       bool             `json:"isComplete"`
	CompletedLessons int              `json:"completedLessons"`
	TotalLessons     int              `json:"totalLessons"`
	AverageScore     float64          `json:"averageScore"`
	HasCertificate   bool             `json:"hasCertificate"`
	Lessons          []LessonDTO      `json:"lessons"`
}

// LessonDTO is one lesson on the dashboard.
type LessonDTO struct {
	ID        curriculum.LessonID   `json:"id"`
	Title     string                `json:"title"`
	Unlocked  bool                  `json:"unlocked"`
	Completed bool                  `json:"completed"`
	Score     *progress.LessonScore `json:"score,omitempty"`
}

// GetDashboardHandler handles GetDashboardQuery.
type GetDashboardHandler struct {
	catalog  *curriculum.Catalog
	unlock   *progress.Evaluator
	levels   *progress.LevelEvaluator
	learners learner.Repository
	progress progress.Repository
	clock    timeutil.Clock
}

// NewGetDashboardHandler creates a new GetDashboardHandler.
func NewGetDashboardHandler(
	catalog *curriculum.Catalog,
	learners learner.Repository,
	progressRepo progress.Repository,
	clock timeutil.Clock,
) *GetDashboardHandler {
	return &GetDashboardHandler{
		catalog:  catalog,
		unlock:   progress.NewEvaluator(catalog),
		levels:   progress.NewLevelEvaluator(catalog),
		learners: learners,
		progress: progressRepo,
		clock:    clock,
	}
}

// Handle builds the dashboard. The learner must exist; a missing snapshot is
// shown as an empty one.
func (h *GetDashboardHandler) Handle(ctx context.Context, q GetDashboardQuery) (*DashboardDTO, error) {
	if !learner.ValidID(q.LearnerID) {
		return nil, fmt.Errorf("get_dashboard: %w", shared.ErrInvalidLearnerID)
	}

	l, err := h.learners.Get(ctx, q.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("get_dashboard: load learner: %w", err)
	}

	p, err := h.progress.Get(ctx, q.LearnerID)
	if errors.Is(err, shared.ErrProgressNotFound) {
		p = progress.NewUserProgress(q.LearnerID)
	} else if err != nil {
		return nil, fmt.Errorf("get_dashboard: load progress: %w", err)
	}

	now := h.clock.Now()
	dto := &DashboardDTO{
		LearnerID:        l.ID,
		PlacementLevel:   l.PlacementLevel,
		Points:           p.Points,
		Streak:           p.Streak,
		StreakAtRisk:     progress.IsStreakAtRisk(p.LastActivityDate, now),
		LastActivityDate: p.LastActivityDate,
		CurrentLesson:    p.CurrentLesson,
		CompletedLessons: p.CompletedCount(),
		Achievements:     p.Achievements,
		Levels:           make([]LevelDTO, 0, len(curriculum.Levels())),
	}
	if p.LastActivityDate != nil {
		dto.LastActivity = timeutil.FormatRelative(*p.LastActivityDate, now)
	}

	for _, level := range curriculum.Levels() {
		dto.Levels = append(dto.Levels, h.levelView(l, p, level))
	}
	return dto, nil
}

func (h *GetDashboardHandler) levelView(l *learner.Learner, p *progress.UserProgress, level curriculum.Level) LevelDTO {
	completion := h.levels.CheckLevelCompletion(p, level)
	locked := progress.IsLevelLocked(l.UnlockedLevels, level)

	view := LevelDTO{
		Level:            level,
		Locked:           locked,
		Percent:          h.levels.CalculateLevelProgress(p, level),
		IsComplete:       completion.IsComplete,
		CompletedLessons: completion.CompletedLessons,
		TotalLessons:     completion.TotalLessons,
		AverageScore:     completion.AverageScore,
		HasCertificate:   progress.HasLevelCertificate(p, level),
	}

	lessons := h.catalog.LessonsForLevel(level)
	view.Lessons = make([]LessonDTO, 0, len(lessons))
	for _, lesson := range lessons {
		item := LessonDTO{
			ID:        lesson.ID,
			Title:     lesson.Title,
			Unlocked:  !locked && h.unlock.IsLessonUnlocked(p, lesson.ID, level),
			Completed: p.HasCompleted(lesson.ID),
		}
		if score, ok := p.LessonScores[lesson.ID]; ok {
			s := score
			item.Score = &s
		}
		view.Lessons = append(view.Lessons, item)
	}
	return view
}
