package redis

import (
	"context"
	"errors"
	"time"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/curriculum"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/learner"
	"github.com/lingvo-hub/lingvo-hub/pkg/logger"
)

// learnerStore is the slice of Cache the learner decorator relies on.
type learnerStore interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetIfAbsent(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// CachedLearnerRepository is a read-through cache in front of a
// learner.Repository. Writes go to the backing store first and then
// overwrite the cached entry. A read miss only fills an empty key, so a
// record loaded before a concurrent write never replaces the newer one.
// Cache failures never fail the call.
type CachedLearnerRepository struct {
	next  learner.Repository
	store learnerStore
	keys  Keys
	ttl   time.Duration
	log   *logger.Logger
}

// NewCachedLearnerRepository wraps next with cache.
func NewCachedLearnerRepository(next learner.Repository, cache *Cache, log *logger.Logger) *CachedLearnerRepository {
	return newCachedLearnerRepository(next, cache, cache.Keys(), log)
}

func newCachedLearnerRepository(next learner.Repository, store learnerStore, keys Keys, log *logger.Logger) *CachedLearnerRepository {
	return &CachedLearnerRepository{
		next:  next,
		store: store,
		keys:  keys,
		ttl:   TTLLearnerCache,
		log:   log.With(logger.Component("learner_cache")),
	}
}

var _ learner.Repository = (*CachedLearnerRepository)(nil)

// learnerRecord is the cached JSON shape.
type learnerRecord struct {
	ID             string     `json:"id"`
	DisplayName    string     `json:"displayName"`
	Email          string     `json:"email"`
	UnlockedLevels []string   `json:"unlockedLevels"`
	PlacementLevel string     `json:"placementLevel"`
	PlacedAt       *time.Time `json:"placedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (r *CachedLearnerRepository) Get(ctx context.Context, id string) (*learner.Learner, error) {
	key := r.keys.Learner(id)

	var rec learnerRecord
	err := r.store.Get(ctx, key, &rec)
	if err == nil {
		return fromRecord(rec), nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		r.log.Warn("learner cache read failed", logger.UserID(id), logger.Err(err))
	}

	l, err := r.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := r.store.SetIfAbsent(ctx, key, toRecord(l), r.ttl); err != nil {
		r.log.Warn("learner cache fill failed", logger.UserID(id), logger.Err(err))
	}
	return l, nil
}

func (r *CachedLearnerRepository) Create(ctx context.Context, l *learner.Learner) error {
	if err := r.next.Create(ctx, l); err != nil {
		return err
	}
	r.writeThrough(ctx, l)
	return nil
}

func (r *CachedLearnerRepository) Update(ctx context.Context, l *learner.Learner) error {
	if err := r.next.Update(ctx, l); err != nil {
		return err
	}
	r.writeThrough(ctx, l)
	return nil
}

func (r *CachedLearnerRepository) Delete(ctx context.Context, id string) error {
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

// writeThrough replaces the cached entry with the committed record and falls
// back to dropping it.
func (r *CachedLearnerRepository) writeThrough(ctx context.Context, l *learner.Learner) {
	err := r.store.Set(ctx, r.keys.Learner(l.ID), toRecord(l), r.ttl)
	if err == nil {
		return
	}
	r.log.Warn("learner cache write failed", logger.UserID(l.ID), logger.Err(err))
	r.invalidate(ctx, l.ID)
}

func (r *CachedLearnerRepository) invalidate(ctx context.Context, id string) {
	if err := r.store.Delete(ctx, r.keys.Learner(id)); err != nil {
		r.log.Warn("learner cache invalidation failed", logger.UserID(id), logger.Err(err))
	}
}

func toRecord(l *learner.Learner) learnerRecord {
	rec := learnerRecord{
		ID:             l.ID,
		DisplayName:    l.DisplayName,
		Email:          l.Email,
		PlacementLevel: string(l.PlacementLevel),
		PlacedAt:       l.PlacedAt,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
	for _, lv := range l.UnlockedLevels {
		rec.UnlockedLevels = append(rec.UnlockedLevels, string(lv))
	}
	return rec
}

func fromRecord(rec learnerRecord) *learner.Learner {
	l := &learner.Learner{
		ID:          rec.ID,
		DisplayName: rec.DisplayName,
		Email:       rec.Email,
		PlacedAt:    rec.PlacedAt,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
	l.PlacementLevel = curriculum.Level(rec.PlacementLevel)
	for _, s := range rec.UnlockedLevels {
		if lv := curriculum.Level(s); lv.IsValid() {
			l.UnlockedLevels = append(l.UnlockedLevels, lv)
		}
	}
	return l
}
