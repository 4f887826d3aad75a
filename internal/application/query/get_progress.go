// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/learner"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/progress"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROGRESS QUERY
// Returns the raw progress snapshot of one learner.
// ══════════════════════════════════════════════════════════════════════════════

// GetProgressQuery identifies the learner.
type GetProgressQuery struct {
	LearnerID string
}

// GetProgressHandler handles GetProgressQuery.
type GetProgressHandler struct {
	progress progress.Repository
}

// NewGetProgressHandler creates a new GetProgressHandler.
func NewGetProgressHandler(repo progress.Repository) *GetProgressHandler {
	return &GetProgressHandler{progress: repo}
}

// Handle returns the stored snapshot, or an empty one for a learner who has
// not been onboarded yet.
func (h *GetProgressHandler) Handle(ctx context.Context, q GetProgressQuery) (*progress.UserProgress, error) {
	if !learner.ValidID(q.LearnerID) {
		return nil, fmt.Errorf("get_progress: %w", shared.ErrInvalidLearnerID)
	}
	p, err := h.progress.Get(ctx, q.LearnerID)
	if errors.Is(err, shared.ErrProgressNotFound) {
		return progress.NewUserProgress(q.LearnerID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get_progress: %w", err)
	}
	return p, nil
}
