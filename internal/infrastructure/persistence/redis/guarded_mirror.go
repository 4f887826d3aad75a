package redis

import (
	"context"
	"fmt"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/progress"
	"github.com/lingvo-hub/lingvo-hub/pkg/circuitbreaker"
)

// GuardedMirror stops calling a failing mirror for a cool-down period so a
// Redis outage does not add latency to every progress write. With a read
// fallback, All is served from the fallback while the mirror is failing.
type GuardedMirror struct {
	next     progress.Mirror
	breaker  *circuitbreaker.CircuitBreaker
	fallback progress.Mirror
}

// NewGuardedMirror wraps next with breaker.
func NewGuardedMirror(next progress.Mirror, breaker *circuitbreaker.CircuitBreaker) *GuardedMirror {
	return &GuardedMirror{next: next, breaker: breaker}
}

var _ progress.Mirror = (*GuardedMirror)(nil)

// WithReadFallback sets the mirror that answers All while next is failing.
func (m *GuardedMirror) WithReadFallback(fallback progress.Mirror) *GuardedMirror {
	m.fallback = fallback
	return m
}

// Warm copies every snapshot from source into the mirror. Versions already
// mirrored are kept when newer. It stops at the first failed write.
func (m *GuardedMirror) Warm(ctx context.Context, source progress.Mirror) (int, error) {
	snapshots, err := source.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("read warm source: %w", err)
	}
	for i, p := range snapshots {
		if err := m.Put(ctx, p); err != nil {
			return i, fmt.Errorf("warm progress mirror: %w", err)
		}
	}
	return len(snapshots), nil
}

func (m *GuardedMirror) Put(ctx context.Context, p *progress.UserProgress) error {
	return m.breaker.Execute(ctx, func(ctx context.Context) error {
		return m.next.Put(ctx, p)
	})
}

func (m *GuardedMirror) All(ctx context.Context) ([]*progress.UserProgress, error) {
	var out []*progress.UserProgress
	err := m.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		out, err = m.next.All(ctx)
		return err
	})
	if err == nil {
		return out, nil
	}
	if m.fallback != nil {
		if out, ferr := m.fallback.All(ctx); ferr == nil {
			return out, nil
		}
	}
	return nil, fmt.Errorf("progress mirror unavailable: %w", err)
}

func (m *GuardedMirror) Remove(ctx context.Context, userID string) error {
	return m.breaker.Execute(ctx, func(ctx context.Context) error {
		return m.next.Remove(ctx, userID)
	})
}
