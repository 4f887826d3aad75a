package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/curriculum"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/learner"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/progress"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
	"github.com/lingvo-hub/lingvo-hub/pkg/logger"
	"github.com/lingvo-hub/lingvo-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// UNLOCK LEVEL COMMAND
// A level opens once the level before it carries a certificate. A finished
// level without a certificate is certified on the way.
// ══════════════════════════════════════════════════════════════════════════════

// UnlockLevelCommand asks to open Level for a learner.
type UnlockLevelCommand struct {
	LearnerID string
	Level     curriculum.Level
}

// Validate validates the command.
func (c UnlockLevelCommand) Validate() error {
	if !learner.ValidID(c.LearnerID) {
		return shared.ErrInvalidLearnerID
	}
	if !c.Level.IsValid() {
		return shared.ErrUnknownLevel
	}
	return nil
}

// UnlockLevelResult reports the learner after the command.
type UnlockLevelResult struct {
	Learner *learner.Learner
	// Changed is false when the level was already unlocked.
	Changed     bool
	Certificate *progress.CompletedLevel
	Events      []shared.Event
}

// UnlockLevelHandler handles UnlockLevelCommand.
type UnlockLevelHandler struct {
	levels    *progress.LevelEvaluator
	learners  learner.Repository
	progress  progress.Repository
	mirror    progress.Mirror
	publisher shared.EventPublisher
	clock     timeutil.Clock
	log       *logger.Logger
}

// NewUnlockLevelHandler creates a new UnlockLevelHandler.
func NewUnlockLevelHandler(
	catalog *curriculum.Catalog,
	learners learner.Repository,
	progressRepo progress.Repository,
	mirror progress.Mirror,
	publisher shared.EventPublisher,
	clock timeutil.Clock,
	log *logger.Logger,
) *UnlockLevelHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &UnlockLevelHandler{
		levels:    progress.NewLevelEvaluator(catalog),
		learners:  learners,
		progress:  progressRepo,
		mirror:    mirror,
		publisher: publisher,
		clock:     clock,
		log:       log.With(logger.Component("unlock_level")),
	}
}

// Handle executes the command.
func (h *UnlockLevelHandler) Handle(ctx context.Context, cmd UnlockLevelCommand) (*UnlockLevelResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("unlock_level: %w", err)
	}
	now := h.clock.Now()

	l, err := h.learners.Get(ctx, cmd.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("unlock_level: load learner: %w", err)
	}
	if l.HasUnlocked(cmd.Level) {
		return &UnlockLevelResult{Learner: l}, nil
	}

	prev, ok := cmd.Level.Previous()
	if !ok || !l.HasUnlocked(prev) {
		return nil, fmt.Errorf("unlock_level: %w", shared.ErrPreviousLevelNoCert)
	}

	var cert *progress.CompletedLevel
	err = conflictRetrier().Do(ctx, func(ctx context.Context) error {
		cert = nil
		p, err := h.progress.Get(ctx, cmd.LearnerID)
		if errors.Is(err, shared.ErrProgressNotFound) {
			return shared.ErrPreviousLevelNoCert
		}
		if err != nil {
			return err
		}
		if progress.HasLevelCertificate(p, prev) {
			return nil
		}

		next, record, err := h.levels.RecordLevelCertificate(p, prev, now)
		if errors.Is(err, shared.ErrLevelNotComplete) {
			return shared.ErrPreviousLevelNoCert
		}
		if err != nil {
			return err
		}
		if err := h.progress.Save(ctx, next, p.Version); err != nil {
			return err
		}
		cert = &record
		mirrorProgress(ctx, h.mirror, next, h.log)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unlock_level: %w", err)
	}

	l.UnlockLevel(cmd.Level, now)
	if err := h.learners.Update(ctx, l); err != nil {
		return nil, fmt.Errorf("unlock_level: save learner: %w", err)
	}

	var events []shared.Event
	if cert != nil {
		events = append(events, shared.NewLevelCompletedEvent(l.ID, string(cert.Level), cert.TotalLessons, cert.AverageScore, now))
	}
	events = append(events, shared.NewLevelUnlockedEvent(l.ID, string(cmd.Level), now))
	publishAll(h.publisher, events, h.log)

	h.log.Info("level unlocked", logger.UserID(l.ID), logger.LevelField(string(cmd.Level)))

	return &UnlockLevelResult{
		Learner:     l,
		Changed:     true,
		Certificate: cert,
		Events:      events,
	}, nil
}
