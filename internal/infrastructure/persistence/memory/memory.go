// Package memory provides in-process implementations of the repositories.
// They back development runs without a database and the application tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/learner"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/progress"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
)

// ProgressRepository implements progress.Repository. Snapshots are stored as
// deep copies so callers never share state with the store.
type ProgressRepository struct {
	mu    sync.RWMutex
	items map[string]*progress.UserProgress
}

// NewProgressRepository creates an empty repository.
func NewProgressRepository() *ProgressRepository {
	return &ProgressRepository{items: make(map[string]*progress.UserProgress)}
}

var _ progress.Repository = (*ProgressRepository)(nil)

func (r *ProgressRepository) Get(ctx context.Context, userID string) (*progress.UserProgress, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[userID]
	if !ok {
		return nil, shared.ErrProgressNotFound
	}
	return p.Clone(), nil
}

func (r *ProgressRepository) Save(ctx context.Context, p *progress.UserProgress, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var current int64
	if stored, ok := r.items[p.UserID]; ok {
		current = stored.Version
	}
	if current != expectedVersion {
		return shared.ErrVersionConflict
	}

	next := p.Clone()
	next.Version = expectedVersion + 1
	r.items[p.UserID] = next
	p.Version = next.Version
	return nil
}

func (r *ProgressRepository) Delete(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[userID]; !ok {
		return shared.ErrProgressNotFound
	}
	delete(r.items, userID)
	return nil
}

// LearnerRepository implements learner.Repository.
type LearnerRepository struct {
	mu    sync.RWMutex
	items map[string]*learner.Learner
}

// NewLearnerRepository creates an empty repository.
func NewLearnerRepository() *LearnerRepository {
	return &LearnerRepository{items: make(map[string]*learner.Learner)}
}

var _ learner.Repository = (*LearnerRepository)(nil)

func (r *LearnerRepository) Get(ctx context.Context, id string) (*learner.Learner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.items[id]
	if !ok {
		return nil, shared.ErrLearnerNotFound
	}
	return l.Clone(), nil
}

func (r *LearnerRepository) Create(ctx context.Context, l *learner.Learner) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[l.ID]; ok {
		return shared.ErrLearnerAlreadyExists
	}
	r.items[l.ID] = l.Clone()
	return nil
}

func (r *LearnerRepository) Update(ctx context.Context, l *learner.Learner) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[l.ID]; !ok {
		return shared.ErrLearnerNotFound
	}
	r.items[l.ID] = l.Clone()
	return nil
}

func (r *LearnerRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return shared.ErrLearnerNotFound
	}
	delete(r.items, id)
	return nil
}

// ProgressMirror implements progress.Mirror, last-writer-wins by version.
type ProgressMirror struct {
	mu    sync.RWMutex
	items map[string]*progress.UserProgress
}

// NewProgressMirror creates an empty mirror.
func NewProgressMirror() *ProgressMirror {
	return &ProgressMirror{items: make(map[string]*progress.UserProgress)}
}

var _ progress.Mirror = (*ProgressMirror)(nil)

func (m *ProgressMirror) Put(ctx context.Context, p *progress.UserProgress) error {
	if p == nil || p.UserID == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if stored, ok := m.items[p.UserID]; ok && stored.Version >= p.Version {
		return nil
	}
	m.items[p.UserID] = p.Clone()
	return nil
}

// All returns snapshots ordered by points, highest first.
func (m *ProgressMirror) All(ctx context.Context) ([]*progress.UserProgress, error) {
	m.mu.RLock()
	result := make([]*progress.UserProgress, 0, len(m.items))
	for _, p := range m.items {
		result = append(result, p.Clone())
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].Points == result[j].Points {
			return result[i].UserID < result[j].UserID
		}
		return result[i].Points > result[j].Points
	})
	return result, nil
}

func (m *ProgressMirror) Remove(ctx context.Context, userID string) error {
	m.mu.Lock()
	delete(m.items, userID)
	m.mu.Unlock()
	return nil
}
