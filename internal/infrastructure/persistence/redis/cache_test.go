package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/curriculum"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/learner"
)

func TestKeys(t *testing.T) {
	k := NewKeys("lingvo:")
	assert.Equal(t, "lingvo:learner:u1", k.Learner("u1"))
	assert.Equal(t, "lingvo:progress:snapshots", k.ProgressSnapshots())
	assert.Equal(t, "lingvo:progress:points", k.ProgressPoints())
}

func TestConfigOptions(t *testing.T) {
	cfg := DefaultConfig()
	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 10, opts.PoolSize)

	cfg.URL = "redis://:secret@cache.internal:6380/2"
	opts, err = cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)

	cfg.URL = "http://nope"
	_, err = cfg.Options()
	assert.ErrorIs(t, err, ErrCacheConnection)
}

func TestLearnerRecordRoundTrip(t *testing.T) {
	placed := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	l := &learner.Learner{
		ID:             "u1",
		DisplayName:    "Ada",
		UnlockedLevels: []curriculum.Level{curriculum.LevelBeginner, curriculum.LevelA1},
		PlacementLevel: curriculum.LevelA1,
		PlacedAt:       &placed,
		CreatedAt:      placed,
		UpdatedAt:      placed,
	}

	assert.Equal(t, l, fromRecord(toRecord(l)))
}
