package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/curriculum"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/learner"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
	"github.com/lingvo-hub/lingvo-hub/pkg/retry"
)

// LearnerRepository implements learner.Repository for PostgreSQL.
type LearnerRepository struct {
	conn  *Connection
	reads *retry.Retrier
}

// NewLearnerRepository creates a new LearnerRepository.
func NewLearnerRepository(conn *Connection) *LearnerRepository {
	return &LearnerRepository{conn: conn, reads: readRetrier()}
}

var _ learner.Repository = (*LearnerRepository)(nil)

const learnerColumns = `id, display_name, email, unlocked_levels, placement_level, placed_at, created_at, updated_at`

// Create creates a new learner.
func (r *LearnerRepository) Create(ctx context.Context, l *learner.Learner) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO learners (`+learnerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		l.ID,
		l.DisplayName,
		l.Email,
		levelsToStrings(l.UnlockedLevels),
		string(l.PlacementLevel),
		l.PlacedAt,
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrLearnerAlreadyExists
		}
		return fmt.Errorf("failed to create learner: %w", err)
	}
	return nil
}

// Get returns a learner by id.
func (r *LearnerRepository) Get(ctx context.Context, id string) (*learner.Learner, error) {
	var l *learner.Learner
	err := r.reads.Do(ctx, func(ctx context.Context) error {
		var err error
		row := r.conn.QueryRow(ctx, `SELECT `+learnerColumns+` FROM learners WHERE id = $1`, id)
		l, err = scanLearner(row)
		return err
	})
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrLearnerNotFound
		}
		return nil, fmt.Errorf("failed to get learner: %w", err)
	}
	return l, nil
}

// Update updates a learner.
func (r *LearnerRepository) Update(ctx context.Context, l *learner.Learner) error {
	tag, err := r.conn.Exec(ctx, `
		UPDATE learners SET
			display_name = $1,
			email = $2,
			unlocked_levels = $3,
			placement_level = $4,
			placed_at = $5,
			updated_at = $6
		WHERE id = $7
	`,
		l.DisplayName,
		l.Email,
		levelsToStrings(l.UnlockedLevels),
		string(l.PlacementLevel),
		l.PlacedAt,
		time.Now().UTC(),
		l.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update learner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrLearnerNotFound
	}
	return nil
}

// Delete removes a learner.
func (r *LearnerRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM learners WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete learner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrLearnerNotFound
	}
	return nil
}

func scanLearner(row pgx.Row) (*learner.Learner, error) {
	var (
		l         learner.Learner
		levels    []string
		placement string
	)
	if err := row.Scan(
		&l.ID,
		&l.DisplayName,
		&l.Email,
		&levels,
		&placement,
		&l.PlacedAt,
		&l.CreatedAt,
		&l.UpdatedAt,
	); err != nil {
		return nil, err
	}

	l.PlacementLevel = curriculum.Level(placement)
	for _, s := range levels {
		if lv, err := curriculum.ParseLevel(s); err == nil {
			l.UnlockedLevels = append(l.UnlockedLevels, lv)
		}
	}
	return &l, nil
}

func levelsToStrings(levels []curriculum.Level) []string {
	out := make([]string, 0, len(levels))
	for _, l := range levels {
		out = append(out, string(l))
	}
	return out
}
