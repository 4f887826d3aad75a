// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/progress"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
	"github.com/lingvo-hub/lingvo-hub/pkg/circuitbreaker"
	"github.com/lingvo-hub/lingvo-hub/pkg/logger"
	"github.com/lingvo-hub/lingvo-hub/pkg/retry"
)

// FeatureChecker answers per-learner feature flag questions.
type FeatureChecker interface {
	IsEnabled(featureName, learnerID string) bool
}

// Feature names consulted by command handlers.
const (
	featureAutoCertificate     = "progress.auto_certificate"
	featureAutoUnlockNextLevel = "progress.auto_unlock_next_level"
)

// staticFeatures enables a fixed set of features for everyone.
type staticFeatures map[string]bool

func (f staticFeatures) IsEnabled(name, _ string) bool { return f[name] }

// defaultFeatures is used when a handler is built without a FeatureChecker.
var defaultFeatures = staticFeatures{featureAutoCertificate: true}

// conflictRetrier retries read-modify-write cycles that lost a version race.
func conflictRetrier() *retry.Retrier {
	return retry.ConflictRetrier(func(err error) bool {
		return shared.IsRetryable(err)
	})
}

// mirrorProgress writes the snapshot to the aggregate mirror. The primary
// store is the source of truth, so a failed mirror write is only logged.
func mirrorProgress(ctx context.Context, mirror progress.Mirror, p *progress.UserProgress, log *logger.Logger) {
	if mirror == nil {
		return
	}
	err := retry.CacheRetrier(func(err error) bool {
		return !circuitbreaker.IsBreakerError(err)
	}).Do(ctx, func(ctx context.Context) error {
		return mirror.Put(ctx, p)
	})
	if err != nil {
		log.Warn("progress mirror write failed", logger.UserID(p.UserID), logger.Err(err))
	}
}

// publishAll hands events to the publisher in order. With an async bus the
// handlers may still complete out of order. Delivery failures are logged.
func publishAll(publisher shared.EventPublisher, events []shared.Event, log *logger.Logger) {
	if publisher == nil {
		return
	}
	for _, e := range events {
		if err := publisher.Publish(e); err != nil {
			log.Warn("failed to publish event",
				logger.String("event_type", string(e.EventType())),
				logger.Err(err),
			)
		}
	}
}

func levelStrings[T ~string](levels []T) []string {
	out := make([]string, len(levels))
	for i, l := range levels {
		out[i] = string(l)
	}
	return out
}
