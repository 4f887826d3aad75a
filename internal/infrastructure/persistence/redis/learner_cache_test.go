package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/curriculum"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/learner"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
	"github.com/lingvo-hub/lingvo-hub/internal/infrastructure/persistence/memory"
	"github.com/lingvo-hub/lingvo-hub/pkg/logger"
)

// fakeStore mirrors the Redis SET / SETNX / DEL semantics Cache relies on.
type fakeStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	setErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (s *fakeStore) Get(ctx context.Context, key string, dest any) error {
	s.mu.Lock()
	raw, ok := s.data[key]
	s.mu.Unlock()
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *fakeStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *fakeStore) SetIfAbsent(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	s.data[key] = raw
	return true, nil
}

func (s *fakeStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *fakeStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok
}

// interleavedLearners runs afterGet once, between reading the backing store
// and returning to the cache decorator.
type interleavedLearners struct {
	*memory.LearnerRepository
	afterGet func()
}

func (r *interleavedLearners) Get(ctx context.Context, id string) (*learner.Learner, error) {
	l, err := r.LearnerRepository.Get(ctx, id)
	if hook := r.afterGet; hook != nil {
		r.afterGet = nil
		hook()
	}
	return l, err
}

func newLearnerFixture(t *testing.T) (*CachedLearnerRepository, *interleavedLearners, *fakeStore) {
	t.Helper()
	backing := &interleavedLearners{LearnerRepository: memory.NewLearnerRepository()}
	store := newFakeStore()
	return newCachedLearnerRepository(backing, store, NewKeys("t:"), logger.Nop()), backing, store
}

func TestCachedLearnerRepository_StaleFillDoesNotOverwriteUpdate(t *testing.T) {
	ctx := context.Background()
	repo, backing, _ := newLearnerFixture(t)
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	l, err := learner.NewLearner("anna", "", now)
	require.NoError(t, err)
	require.NoError(t, backing.LearnerRepository.Create(ctx, l))

	// A reader loads the old record, then a writer unlocks A1 before the
	// reader fills the cache.
	backing.afterGet = func() {
		fresh, err := backing.LearnerRepository.Get(ctx, "anna")
		require.NoError(t, err)
		fresh.UnlockLevel(curriculum.LevelA1, now)
		require.NoError(t, repo.Update(ctx, fresh))
	}

	stale, err := repo.Get(ctx, "anna")
	require.NoError(t, err)
	assert.False(t, stale.HasUnlocked(curriculum.LevelA1))

	got, err := repo.Get(ctx, "anna")
	require.NoError(t, err)
	assert.True(t, got.HasUnlocked(curriculum.LevelA1))
}

func TestCachedLearnerRepository_WritesThrough(t *testing.T) {
	ctx := context.Background()
	repo, backing, store := newLearnerFixture(t)
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	l, err := learner.NewLearner("anna", "Anna", now)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, l))
	assert.True(t, store.has("t:learner:anna"))

	// Served from the cache even when the backing copy diverges.
	other := l.Clone()
	other.DisplayName = "changed behind the cache"
	require.NoError(t, backing.LearnerRepository.Update(ctx, other))
	got, err := repo.Get(ctx, "anna")
	require.NoError(t, err)
	assert.Equal(t, "Anna", got.DisplayName)

	require.NoError(t, repo.Delete(ctx, "anna"))
	assert.False(t, store.has("t:learner:anna"))
	_, err = repo.Get(ctx, "anna")
	assert.ErrorIs(t, err, shared.ErrLearnerNotFound)
}

func TestCachedLearnerRepository_FailedWriteDropsEntry(t *testing.T) {
	ctx := context.Background()
	repo, _, store := newLearnerFixture(t)
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	l, err := learner.NewLearner("anna", "", now)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, l))
	require.True(t, store.has("t:learner:anna"))

	store.setErr = errors.New("OOM command not allowed")
	l.UnlockLevel(curriculum.LevelA1, now)
	require.NoError(t, repo.Update(ctx, l))
	assert.False(t, store.has("t:learner:anna"))

	store.setErr = nil
	got, err := repo.Get(ctx, "anna")
	require.NoError(t, err)
	assert.True(t, got.HasUnlocked(curriculum.LevelA1))
}
