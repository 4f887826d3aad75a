package postgres

import (
	"context"
	"fmt"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/progress"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
	"github.com/lingvo-hub/lingvo-hub/pkg/retry"
)

// ProgressRepository implements progress.Repository. Each learner's snapshot
// is one JSONB row guarded by a version column.
type ProgressRepository struct {
	conn  *Connection
	reads *retry.Retrier
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(conn *Connection) *ProgressRepository {
	return &ProgressRepository{conn: conn, reads: readRetrier()}
}

var _ progress.Repository = (*ProgressRepository)(nil)

// Get returns the stored snapshot with its current version.
func (r *ProgressRepository) Get(ctx context.Context, userID string) (*progress.UserProgress, error) {
	var (
		data    []byte
		version int64
	)
	err := r.reads.Do(ctx, func(ctx context.Context) error {
		return r.conn.QueryRow(ctx,
			`SELECT snapshot, version FROM user_progress WHERE user_id = $1`, userID,
		).Scan(&data, &version)
	})
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrProgressNotFound
		}
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	p, err := progress.DecodeUserProgress(data)
	if err != nil {
		return nil, err
	}
	p.UserID = userID
	p.Version = version
	return p, nil
}

// Save inserts (expectedVersion 0) or updates the snapshot when the stored
// version matches.
func (r *ProgressRepository) Save(ctx context.Context, p *progress.UserProgress, expectedVersion int64) error {
	next := p.Clone()
	next.Version = expectedVersion + 1

	data, err := next.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}

	var affected int64
	if expectedVersion == 0 {
		tag, err := r.conn.Exec(ctx, `
			INSERT INTO user_progress (user_id, snapshot, version, points, streak, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			ON CONFLICT (user_id) DO NOTHING
		`, p.UserID, data, next.Version, p.Points, p.Streak)
		if err != nil {
			return fmt.Errorf("failed to insert progress: %w", err)
		}
		affected = tag.RowsAffected()
	} else {
		tag, err := r.conn.Exec(ctx, `
			UPDATE user_progress SET
				snapshot = $2,
				version = $3,
				points = $4,
				streak = $5,
				updated_at = NOW()
			WHERE user_id = $1 AND version = $6
		`, p.UserID, data, next.Version, p.Points, p.Streak, expectedVersion)
		if err != nil {
			if IsSerializationFailure(err) {
				return shared.ErrVersionConflict
			}
			return fmt.Errorf("failed to update progress: %w", err)
		}
		affected = tag.RowsAffected()
	}

	if affected == 0 {
		return shared.ErrVersionConflict
	}
	p.Version = next.Version
	return nil
}

// Delete removes a learner's snapshot.
func (r *ProgressRepository) Delete(ctx context.Context, userID string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM user_progress WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrProgressNotFound
	}
	return nil
}

// ListByPoints returns snapshots ordered by points, highest first. A limit
// of zero or less returns every row.
func (r *ProgressRepository) ListByPoints(ctx context.Context, limit int) ([]*progress.UserProgress, error) {
	var bound *int
	if limit > 0 {
		bound = &limit
	}

	var result []*progress.UserProgress
	err := r.reads.Do(ctx, func(ctx context.Context) error {
		rows, err := r.conn.Query(ctx, `
			SELECT user_id, snapshot, version FROM user_progress
			ORDER BY points DESC, user_id
			LIMIT $1
		`, bound)
		if err != nil {
			return err
		}
		defer rows.Close()

		result = result[:0]
		for rows.Next() {
			var (
				userID  string
				data    []byte
				version int64
			)
			if err := rows.Scan(&userID, &data, &version); err != nil {
				return retry.Permanent(fmt.Errorf("scan progress: %w", err))
			}
			p, err := progress.DecodeUserProgress(data)
			if err != nil {
				return retry.Permanent(err)
			}
			p.UserID = userID
			p.Version = version
			result = append(result, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	return result, nil
}

// StoreMirror serves the all-learners view straight from the progress table.
// The table is always current, so Put and Remove have nothing to do.
type StoreMirror struct {
	repo *ProgressRepository
}

// NewStoreMirror creates a mirror backed by repo.
func NewStoreMirror(repo *ProgressRepository) *StoreMirror {
	return &StoreMirror{repo: repo}
}

var _ progress.Mirror = (*StoreMirror)(nil)

func (m *StoreMirror) Put(ctx context.Context, p *progress.UserProgress) error { return nil }

func (m *StoreMirror) All(ctx context.Context) ([]*progress.UserProgress, error) {
	return m.repo.ListByPoints(ctx, 0)
}

func (m *StoreMirror) Remove(ctx context.Context, userID string) error { return nil }
