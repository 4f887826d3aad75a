package learner

import "context"

// Repository persists learner accounts.
type Repository interface {
	// Get returns ErrLearnerNotFound when the learner does not exist.
	Get(ctx context.Context, id string) (*Learner, error)

	// Create returns ErrLearnerAlreadyExists on duplicate ids.
	Create(ctx context.Context, l *Learner) error

	// Update returns ErrLearnerNotFound when the learner does not exist.
	Update(ctx context.Context, l *Learner) error

	// Delete returns ErrLearnerNotFound when the learner does not exist.
	Delete(ctx context.Context, id string) error
}
