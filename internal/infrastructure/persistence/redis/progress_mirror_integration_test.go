//go:build integration

package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/progress"
)

// Run with: LINGVO_TEST_REDIS_URL=redis://localhost:6379/15 go test -tags integration ./...
func newIntegrationMirror(t *testing.T) *ProgressMirror {
	t.Helper()

	url := os.Getenv("LINGVO_TEST_REDIS_URL")
	if url == "" {
		t.Skip("LINGVO_TEST_REDIS_URL is not set")
	}

	cfg := DefaultConfig()
	cfg.URL = url
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := NewClient(ctx, cfg)
	require.NoError(t, err)

	prefix := "lingvo-test:" + uuid.NewString() + ":"
	m := NewProgressMirror(client, prefix)
	t.Cleanup(func() {
		ctx := context.Background()
		client.Del(ctx, m.keys.ProgressSnapshots(), m.versionsKey(), m.keys.ProgressPoints())
		_ = client.Close()
	})
	return m
}

func mirrored(id string, version int64, points int) *progress.UserProgress {
	p := progress.NewUserProgress(id)
	p.Version = version
	p.Points = points
	return p
}

func TestProgressMirror_LastWriterWinsByVersion(t *testing.T) {
	m := newIntegrationMirror(t)
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, mirrored("u1", 3, 300)))
	require.NoError(t, m.Put(ctx, mirrored("u1", 2, 200)))
	require.NoError(t, m.Put(ctx, mirrored("u1", 3, 999)))
	require.NoError(t, m.Put(ctx, mirrored("u2", 1, 500)))

	all, err := m.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "u2", all[0].UserID)
	assert.Equal(t, "u1", all[1].UserID)
	assert.Equal(t, 300, all[1].Points)
	assert.EqualValues(t, 3, all[1].Version)

	require.NoError(t, m.Put(ctx, mirrored("u1", 4, 700)))
	all, err = m.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", all[0].UserID)
	assert.Equal(t, 700, all[0].Points)
}

func TestProgressMirror_Remove(t *testing.T) {
	m := newIntegrationMirror(t)
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, mirrored("u1", 5, 100)))
	require.NoError(t, m.Remove(ctx, "u1"))

	all, err := m.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	// The stored version went with the snapshot, so a re-created learner
	// starting again at version 1 is mirrored.
	require.NoError(t, m.Put(ctx, mirrored("u1", 1, 10)))
	all, err = m.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 10, all[0].Points)
}
