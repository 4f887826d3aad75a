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
// COMPLETE PLACEMENT COMMAND
// Scores the placement test, creates the learner if needed and unlocks every
// level up to the assigned one. A learner takes the test once.
// ══════════════════════════════════════════════════════════════════════════════

// CompletePlacementCommand contains the placement test result.
type CompletePlacementCommand struct {
	// LearnerID may be empty, in which case a new id is generated.
	LearnerID   string
	DisplayName string

	CorrectAnswers int
	TotalQuestions int

	CorrelationID string
}

// Validate validates the command.
func (c CompletePlacementCommand) Validate() error {
	if c.LearnerID != "" && !learner.ValidID(c.LearnerID) {
		return shared.ErrInvalidLearnerID
	}
	if c.TotalQuestions <= 0 {
		return shared.ErrInvalidTotal
	}
	if c.CorrectAnswers < 0 || c.CorrectAnswers > c.TotalQuestions {
		return shared.ErrInvalidScore
	}
	return nil
}

// CompletePlacementResult contains the outcome of the placement.
type CompletePlacementResult struct {
	Learner  *learner.Learner
	Progress *progress.UserProgress
	Level    curriculum.Level
	Events   []shared.Event
}

// CompletePlacementHandler handles CompletePlacementCommand.
type CompletePlacementHandler struct {
	learners  learner.Repository
	progress  progress.Repository
	mirror    progress.Mirror
	publisher shared.EventPublisher
	clock     timeutil.Clock
	log       *logger.Logger
}

// NewCompletePlacementHandler creates a new CompletePlacementHandler.
// mirror and publisher may be nil.
func NewCompletePlacementHandler(
	learners learner.Repository,
	progressRepo progress.Repository,
	mirror progress.Mirror,
	publisher shared.EventPublisher,
	clock timeutil.Clock,
	log *logger.Logger,
) *CompletePlacementHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &CompletePlacementHandler{
		learners:  learners,
		progress:  progressRepo,
		mirror:    mirror,
		publisher: publisher,
		clock:     clock,
		log:       log.With(logger.Component("complete_placement")),
	}
}

// Handle executes the command.
func (h *CompletePlacementHandler) Handle(ctx context.Context, cmd CompletePlacementCommand) (*CompletePlacementResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("complete_placement: %w", err)
	}
	now := h.clock.Now()

	level, err := progress.DetermineLevelFromPlacementScore(cmd.CorrectAnswers, cmd.TotalQuestions)
	if err != nil {
		return nil, fmt.Errorf("complete_placement: %w", err)
	}

	l, isNew, err := h.loadOrCreateLearner(ctx, cmd, now)
	if err != nil {
		return nil, err
	}
	previouslyUnlocked := append([]curriculum.Level(nil), l.UnlockedLevels...)

	if err := l.CompletePlacement(level, progress.LevelsThroughCurrent(level), now); err != nil {
		return nil, fmt.Errorf("complete_placement: %w", err)
	}
	snapshot, created, err := h.saveOnboarding(ctx, l.ID, now)
	if err != nil {
		return nil, fmt.Errorf("complete_placement: save progress: %w", err)
	}

	// The learner write commits the placement.
	if isNew {
		err = h.learners.Create(ctx, l)
	} else {
		err = h.learners.Update(ctx, l)
	}
	if err != nil {
		if shared.IsAlreadyExists(err) {
			// A concurrent placement for the same learner committed first and
			// owns the snapshot.
			return nil, fmt.Errorf("complete_placement: %w", shared.ErrPlacementAlreadyTaken)
		}
		if created {
			h.discardSnapshot(ctx, l.ID)
		}
		return nil, fmt.Errorf("complete_placement: save learner: %w", err)
	}

	mirrorProgress(ctx, h.mirror, snapshot, h.log)

	placed := shared.NewPlacementCompletedEvent(l.ID, cmd.CorrectAnswers, cmd.TotalQuestions, string(level), levelStrings(l.UnlockedLevels), now)
	placed.CorrelationID = cmd.CorrelationID
	events := []shared.Event{placed}
	for _, lv := range l.UnlockedLevels {
		if !containsLevel(previouslyUnlocked, lv) {
			events = append(events, shared.NewLevelUnlockedEvent(l.ID, string(lv), now))
		}
	}
	publishAll(h.publisher, events, h.log)

	h.log.Info("placement completed",
		logger.UserID(l.ID),
		logger.LevelField(string(level)),
		logger.Int("correct", cmd.CorrectAnswers),
		logger.Int("total", cmd.TotalQuestions),
	)

	return &CompletePlacementResult{
		Learner:  l,
		Progress: snapshot,
		Level:    level,
		Events:   events,
	}, nil
}

// saveOnboarding upserts the learner's snapshot with placement recorded as the
// first day of activity. created reports whether this call inserted it.
func (h *CompletePlacementHandler) saveOnboarding(ctx context.Context, learnerID string, now time.Time) (*progress.UserProgress, bool, error) {
	var (
		snapshot *progress.UserProgress
		created  bool
	)
	err := conflictRetrier().Do(ctx, func(ctx context.Context) error {
		p, err := h.progress.Get(ctx, learnerID)
		var expected int64
		switch {
		case errors.Is(err, shared.ErrProgressNotFound):
			p = progress.NewUserProgress(learnerID)
		case err != nil:
			return err
		default:
			expected = p.Version
		}
		p.MarkOnboarded(now)
		if err := h.progress.Save(ctx, p, expected); err != nil {
			return err
		}
		snapshot, created = p, expected == 0
		return nil
	})
	return snapshot, created, err
}

// discardSnapshot removes a snapshot whose placement failed to commit, so a
// retry starts from a clean state.
func (h *CompletePlacementHandler) discardSnapshot(ctx context.Context, learnerID string) {
	if err := h.progress.Delete(ctx, learnerID); err != nil && !errors.Is(err, shared.ErrProgressNotFound) {
		h.log.Warn("failed to discard uncommitted progress", logger.UserID(learnerID), logger.Err(err))
	}
}

func (h *CompletePlacementHandler) loadOrCreateLearner(ctx context.Context, cmd CompletePlacementCommand, now time.Time) (*learner.Learner, bool, error) {
	if cmd.LearnerID != "" {
		existing, err := h.learners.Get(ctx, cmd.LearnerID)
		switch {
		case err == nil:
			if existing.IsPlaced() {
				return nil, false, fmt.Errorf("complete_placement: %w", shared.ErrPlacementAlreadyTaken)
			}
			return existing, false, nil
		case !errors.Is(err, shared.ErrLearnerNotFound):
			return nil, false, fmt.Errorf("complete_placement: load learner: %w", err)
		}
	}

	l, err := learner.NewLearner(cmd.LearnerID, cmd.DisplayName, now)
	if err != nil {
		return nil, false, fmt.Errorf("complete_placement: %w", err)
	}
	return l, true, nil
}

func containsLevel(levels []curriculum.Level, level curriculum.Level) bool {
	for _, l := range levels {
		if l == level {
			return true
		}
	}
	return false
}
