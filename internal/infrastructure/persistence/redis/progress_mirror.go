package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/progress"
)

// ProgressMirror implements progress.Mirror on a hash of JSON snapshots keyed
// by learner id plus a sorted set of points for ranking.
type ProgressMirror struct {
	client redis.UniversalClient
	keys   Keys
}

// NewProgressMirror creates a mirror on client using prefix for its keys.
func NewProgressMirror(client redis.UniversalClient, prefix string) *ProgressMirror {
	return &ProgressMirror{client: client, keys: NewKeys(prefix)}
}

var _ progress.Mirror = (*ProgressMirror)(nil)

// putScript writes the snapshot only when the incoming version is newer than
// the stored one. Versions live in a companion hash so no JSON parsing is
// needed inside Redis.
//
// KEYS[1] snapshots hash, KEYS[2] versions hash, KEYS[3] points zset
// ARGV[1] user id, ARGV[2] version, ARGV[3] snapshot JSON, ARGV[4] points
var putScript = redis.NewScript(`
local current = tonumber(redis.call('HGET', KEYS[2], ARGV[1]) or '0')
local incoming = tonumber(ARGV[2])
if incoming <= current then
  return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[3])
redis.call('HSET', KEYS[2], ARGV[1], ARGV[2])
redis.call('ZADD', KEYS[3], ARGV[4], ARGV[1])
return 1
`)

func (m *ProgressMirror) versionsKey() string {
	return m.keys.ProgressSnapshots() + ":versions"
}

// Put mirrors p unless a snapshot with the same or a newer version is stored.
func (m *ProgressMirror) Put(ctx context.Context, p *progress.UserProgress) error {
	if p == nil || p.UserID == "" {
		return nil
	}
	data, err := p.Encode()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}

	keys := []string{m.keys.ProgressSnapshots(), m.versionsKey(), m.keys.ProgressPoints()}
	if err := putScript.Run(ctx, m.client, keys, p.UserID, p.Version, data, p.Points).Err(); err != nil {
		return fmt.Errorf("mirror progress: %w", err)
	}
	return nil
}

// All returns every mirrored snapshot, highest points first.
func (m *ProgressMirror) All(ctx context.Context) ([]*progress.UserProgress, error) {
	ids, err := m.client.ZRevRange(ctx, m.keys.ProgressPoints(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list mirrored progress: %w", err)
	}
	if len(ids) == 0 {
		return []*progress.UserProgress{}, nil
	}

	values, err := m.client.HMGet(ctx, m.keys.ProgressSnapshots(), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("load mirrored progress: %w", err)
	}

	result := make([]*progress.UserProgress, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		p, err := progress.DecodeUserProgress([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCacheSerialization, ids[i], err)
		}
		result = append(result, p)
	}
	return result, nil
}

// Remove drops a learner from the mirror.
func (m *ProgressMirror) Remove(ctx context.Context, userID string) error {
	_, err := m.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, m.keys.ProgressSnapshots(), userID)
		pipe.HDel(ctx, m.versionsKey(), userID)
		pipe.ZRem(ctx, m.keys.ProgressPoints(), userID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove mirrored progress: %w", err)
	}
	return nil
}
