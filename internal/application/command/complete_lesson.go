package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/curriculum"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/learner"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/progress"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
	"github.com/lingvo-hub/lingvo-hub/pkg/logger"
	"github.com/lingvo-hub/lingvo-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE LESSON COMMAND
// The read-modify-write cycle behind every finished lesson: lock checks,
// scoring, streak, achievements, certificate and an optimistic save.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteLessonCommand contains one lesson attempt.
type CompleteLessonCommand struct {
	LearnerID string
	LessonID  curriculum.LessonID
	Results   []progress.ExerciseResult

	CorrelationID string
}

// Validate validates the command.
func (c CompleteLessonCommand) Validate() error {
	if !learner.ValidID(c.LearnerID) {
		return shared.ErrInvalidLearnerID
	}
	if c.LessonID == "" {
		return shared.ErrUnknownLesson
	}
	if len(c.Results) == 0 {
		return shared.ErrInvalidTotal
	}
	return nil
}

// CompleteLessonResult contains the outcome of a lesson completion.
type CompleteLessonResult struct {
	Progress        *progress.UserProgress
	Lesson          curriculum.Lesson
	Score           progress.LessonScore
	FirstTime       bool
	PointsEarned    int
	PreviousStreak  int
	LevelProgress   int
	NewAchievements []progress.Achievement

	// Certificate is set when this completion finished the level.
	Certificate *progress.CompletedLevel

	// UnlockedLevel is set when the next level was unlocked automatically.
	UnlockedLevel curriculum.Level

	Events []shared.Event
}

// CompleteLessonHandler handles CompleteLessonCommand.
type CompleteLessonHandler struct {
	catalog   *curriculum.Catalog
	unlock    *progress.Evaluator
	levels    *progress.LevelEvaluator
	mutator   *progress.Mutator
	learners  learner.Repository
	progress  progress.Repository
	mirror    progress.Mirror
	publisher shared.EventPublisher
	features  FeatureChecker
	clock     timeutil.Clock
	log       *logger.Logger
}

// NewCompleteLessonHandler creates a new CompleteLessonHandler.
// mirror, publisher and features may be nil.
func NewCompleteLessonHandler(
	catalog *curriculum.Catalog,
	learners learner.Repository,
	progressRepo progress.Repository,
	mirror progress.Mirror,
	publisher shared.EventPublisher,
	features FeatureChecker,
	clock timeutil.Clock,
	log *logger.Logger,
) *CompleteLessonHandler {
	if features == nil {
		features = defaultFeatures
	}
	if log == nil {
		log = logger.Nop()
	}
	return &CompleteLessonHandler{
		catalog:   catalog,
		unlock:    progress.NewEvaluator(catalog),
		levels:    progress.NewLevelEvaluator(catalog),
		mutator:   progress.NewMutator(catalog),
		learners:  learners,
		progress:  progressRepo,
		mirror:    mirror,
		publisher: publisher,
		features:  features,
		clock:     clock,
		log:       log.With(logger.Component("complete_lesson")),
	}
}

// Handle executes the command.
func (h *CompleteLessonHandler) Handle(ctx context.Context, cmd CompleteLessonCommand) (*CompleteLessonResult, error) {
	start := time.Now()
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("complete_lesson: %w", err)
	}
	now := h.clock.Now()

	lesson, ok := h.catalog.Lesson(cmd.LessonID)
	if !ok {
		return nil, fmt.Errorf("complete_lesson: %w", shared.ErrUnknownLesson)
	}

	l, err := h.learners.Get(ctx, cmd.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("complete_lesson: load learner: %w", err)
	}
	if progress.IsLevelLocked(l.UnlockedLevels, lesson.Level) {
		return nil, fmt.Errorf("complete_lesson: %w", shared.ErrLevelLocked)
	}

	var (
		completion *progress.Completion
		cert       *progress.CompletedLevel
	)
	err = conflictRetrier().Do(ctx, func(ctx context.Context) error {
		completion, cert = nil, nil

		current, expected, err := h.load(ctx, cmd.LearnerID)
		if err != nil {
			return err
		}
		if !h.unlock.IsLessonUnlocked(current, lesson.ID, lesson.Level) {
			return shared.ErrLessonLocked
		}

		c, err := h.mutator.CompleteLesson(current, lesson.ID, cmd.Results, now)
		if err != nil {
			return err
		}
		next := c.Progress

		if h.features.IsEnabled(featureAutoCertificate, cmd.LearnerID) && !progress.HasLevelCertificate(next, lesson.Level) {
			certified, record, err := h.levels.RecordLevelCertificate(next, lesson.Level, now)
			switch {
			case err == nil:
				next = certified
				cert = &record
			case !errors.Is(err, shared.ErrLevelNotComplete):
				return err
			}
		}

		if err := h.progress.Save(ctx, next, expected); err != nil {
			return err
		}
		c.Progress = next
		completion = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("complete_lesson: %w", err)
	}

	result := &CompleteLessonResult{
		Progress:        completion.Progress,
		Lesson:          lesson,
		Score:           completion.Score,
		FirstTime:       completion.FirstTime,
		PointsEarned:    completion.PointsEarned,
		PreviousStreak:  completion.PreviousStreak,
		LevelProgress:   completion.Progress.LevelProgress[lesson.Level],
		NewAchievements: completion.NewAchievements,
		Certificate:     cert,
	}

	if cert != nil && h.features.IsEnabled(featureAutoUnlockNextLevel, cmd.LearnerID) {
		result.UnlockedLevel = h.unlockNext(ctx, l, lesson.Level, now)
	}

	mirrorProgress(ctx, h.mirror, result.Progress, h.log)

	result.Events = h.buildEvents(cmd, result, now)
	publishAll(h.publisher, result.Events, h.log)

	h.log.Info("lesson completed",
		logger.UserID(cmd.LearnerID),
		logger.LessonID(string(lesson.ID)),
		logger.Points(result.Progress.Points),
		logger.Streak(result.Progress.Streak),
		logger.Bool("first_time", result.FirstTime),
		logger.Latency(time.Since(start)),
	)
	return result, nil
}

// load returns the current snapshot and the version to save against.
// A learner without a stored snapshot starts from an empty one.
func (h *CompleteLessonHandler) load(ctx context.Context, learnerID string) (*progress.UserProgress, int64, error) {
	p, err := h.progress.Get(ctx, learnerID)
	if errors.Is(err, shared.ErrProgressNotFound) {
		return progress.NewUserProgress(learnerID), 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return p, p.Version, nil
}

// unlockNext grants the level after completed. Failures are logged; the
// learner can still unlock the level explicitly.
func (h *CompleteLessonHandler) unlockNext(ctx context.Context, l *learner.Learner, completed curriculum.Level, now time.Time) curriculum.Level {
	next, ok := completed.Next()
	if !ok {
		return ""
	}
	updated := l.Clone()
	if !updated.UnlockLevel(next, now) {
		return ""
	}
	if err := h.learners.Update(ctx, updated); err != nil {
		h.log.Warn("auto unlock failed", logger.UserID(l.ID), logger.LevelField(string(next)), logger.Err(err))
		return ""
	}
	return next
}

func (h *CompleteLessonHandler) buildEvents(cmd CompleteLessonCommand, r *CompleteLessonResult, now time.Time) []shared.Event {
	p := r.Progress

	completed := shared.NewLessonCompletedEvent(
		cmd.LearnerID, string(r.Lesson.ID),
		r.Score.Score, r.Score.MaxScore, r.PointsEarned, p.Points,
		r.FirstTime, r.LevelProgress, now,
	)
	completed.CorrelationID = cmd.CorrelationID
	events := []shared.Event{completed}

	if p.Streak != r.PreviousStreak {
		events = append(events, shared.NewStreakUpdatedEvent(cmd.LearnerID, r.PreviousStreak, p.Streak, now))
	}
	for _, a := range r.NewAchievements {
		events = append(events, shared.NewAchievementUnlockedEvent(cmd.LearnerID, string(a.ID), a.Title, now))
	}
	if r.Certificate != nil {
		events = append(events, shared.NewLevelCompletedEvent(
			cmd.LearnerID, string(r.Certificate.Level), r.Certificate.TotalLessons, r.Certificate.AverageScore, now,
		))
	}
	if r.UnlockedLevel != "" {
		events = append(events, shared.NewLevelUnlockedEvent(cmd.LearnerID, string(r.UnlockedLevel), now))
	}
	return events
}
