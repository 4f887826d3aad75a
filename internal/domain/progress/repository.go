package progress

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository stores whole-record progress snapshots.
type Repository interface {
	// Get returns the snapshot for a learner.
	// Returns ErrProgressNotFound if none exists.
	Get(ctx context.Context, userID string) (*UserProgress, error)

	// Save writes the full snapshot if the stored version still equals
	// expectedVersion (0 means "must not exist yet"). On success p.Version is
	// set to the new version. Returns ErrVersionConflict otherwise.
	Save(ctx context.Context, p *UserProgress, expectedVersion int64) error

	// Delete removes the snapshot (account deletion).
	Delete(ctx context.Context, userID string) error
}

// Mirror is the aggregate "all learners' progress" copy used by
// administrative and instructor views. It is written after the primary
// repository and is last-writer-wins by version.
type Mirror interface {
	// Put stores the snapshot unless a newer version is already mirrored.
	Put(ctx context.Context, p *UserProgress) error

	// All returns every mirrored snapshot.
	All(ctx context.Context) ([]*UserProgress, error)

	// Remove drops a learner from the mirror.
	Remove(ctx context.Context, userID string) error
}
