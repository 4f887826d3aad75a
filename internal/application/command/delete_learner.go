package command

import (
	"context"
	"fmt"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/learner"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/progress"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
	"github.com/lingvo-hub/lingvo-hub/pkg/circuitbreaker"
	"github.com/lingvo-hub/lingvo-hub/pkg/logger"
	"github.com/lingvo-hub/lingvo-hub/pkg/retry"
	"github.com/lingvo-hub/lingvo-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETE LEARNER COMMAND
// Removes the progress snapshot first and the account last, so a failed run
// can be repeated until the account is gone.
// ══════════════════════════════════════════════════════════════════════════════

// DeleteLearnerCommand asks to remove a learner account and its progress.
type DeleteLearnerCommand struct {
	LearnerID     string
	CorrelationID string
}

// Validate validates the command.
func (c DeleteLearnerCommand) Validate() error {
	if !learner.ValidID(c.LearnerID) {
		return shared.ErrInvalidLearnerID
	}
	return nil
}

// DeleteLearnerResult reports what was removed.
type DeleteLearnerResult struct {
	LearnerID   string
	HadProgress bool
	Events      []shared.Event
}

// DeleteLearnerHandler handles DeleteLearnerCommand.
type DeleteLearnerHandler struct {
	learners  learner.Repository
	progress  progress.Repository
	mirror    progress.Mirror
	publisher shared.EventPublisher
	clock     timeutil.Clock
	log       *logger.Logger
}

// NewDeleteLearnerHandler creates a new DeleteLearnerHandler.
func NewDeleteLearnerHandler(
	learners learner.Repository,
	progressRepo progress.Repository,
	mirror progress.Mirror,
	publisher shared.EventPublisher,
	clock timeutil.Clock,
	log *logger.Logger,
) *DeleteLearnerHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &DeleteLearnerHandler{
		learners:  learners,
		progress:  progressRepo,
		mirror:    mirror,
		publisher: publisher,
		clock:     clock,
		log:       log.With(logger.Component("delete_learner")),
	}
}

// Handle executes the command.
func (h *DeleteLearnerHandler) Handle(ctx context.Context, cmd DeleteLearnerCommand) (*DeleteLearnerResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("delete_learner: %w", err)
	}

	if _, err := h.learners.Get(ctx, cmd.LearnerID); err != nil {
		return nil, fmt.Errorf("delete_learner: load learner: %w", err)
	}

	hadProgress := true
	if err := h.progress.Delete(ctx, cmd.LearnerID); err != nil {
		if !shared.IsNotFound(err) {
			return nil, fmt.Errorf("delete_learner: delete progress: %w", err)
		}
		hadProgress = false
	}
	h.unmirror(ctx, cmd.LearnerID)

	if err := h.learners.Delete(ctx, cmd.LearnerID); err != nil && !shared.IsNotFound(err) {
		return nil, fmt.Errorf("delete_learner: delete learner: %w", err)
	}

	event := shared.NewLearnerDeletedEvent(cmd.LearnerID, hadProgress, h.clock.Now())
	event.CorrelationID = cmd.CorrelationID
	events := []shared.Event{event}
	publishAll(h.publisher, events, h.log)

	h.log.Info("learner deleted", logger.UserID(cmd.LearnerID))

	return &DeleteLearnerResult{
		LearnerID:   cmd.LearnerID,
		HadProgress: hadProgress,
		Events:      events,
	}, nil
}

// unmirror drops the learner from the aggregate mirror. Failures are logged.
func (h *DeleteLearnerHandler) unmirror(ctx context.Context, learnerID string) {
	if h.mirror == nil {
		return
	}
	err := retry.CacheRetrier(func(err error) bool {
		return !circuitbreaker.IsBreakerError(err)
	}).Do(ctx, func(ctx context.Context) error {
		return h.mirror.Remove(ctx, learnerID)
	})
	if err != nil {
		h.log.Warn("progress mirror remove failed", logger.UserID(learnerID), logger.Err(err))
	}
}
