package messaging

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingvo-hub/lingvo-hub/internal/domain/shared"
)

var at = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func syncBus() *InMemoryEventBus {
	return NewInMemoryEventBus(InMemoryEventBusConfig{EnableMetrics: true})
}

func TestPublish_RoutesByType(t *testing.T) {
	bus := syncBus()
	var typed, all []shared.EventType

	require.NoError(t, bus.Subscribe(shared.EventAchievementUnlocked, func(e shared.Event) error {
		typed = append(typed, e.EventType())
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		all = append(all, e.EventType())
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewAchievementUnlockedEvent("u1", "first-lesson", "First Steps", at)))
	require.NoError(t, bus.Publish(shared.NewLevelUnlockedEvent("u1", "A1", at)))

	assert.Equal(t, []shared.EventType{shared.EventAchievementUnlocked}, typed)
	assert.Equal(t, []shared.EventType{shared.EventAchievementUnlocked, shared.EventLevelUnlocked}, all)
}

func TestPublish_HandlerFailuresAreContained(t *testing.T) {
	bus := syncBus()
	var reached bool

	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { return errors.New("boom") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { panic("oops") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { reached = true; return nil }))

	require.NoError(t, bus.Publish(shared.NewLevelUnlockedEvent("u1", "A1", at)))
	assert.True(t, reached)

	snap := bus.Metrics().Snapshot()
	assert.EqualValues(t, 3, snap.HandlerExecutions)
	assert.EqualValues(t, 2, snap.HandlerFailures)
	assert.EqualValues(t, 1, snap.Published[shared.EventLevelUnlocked])
}

func TestAsyncBus_CloseWaitsForHandlers(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 2})
	var count atomic.Int32

	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		time.Sleep(5 * time.Millisecond)
		count.Add(1)
		return nil
	}))
	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(shared.NewLevelUnlockedEvent("u1", "A1", at)))
	}

	require.NoError(t, bus.Close())
	assert.EqualValues(t, 5, count.Load())
	assert.ErrorIs(t, bus.Publish(shared.NewLevelUnlockedEvent("u1", "A1", at)), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventLevelUnlocked, func(shared.Event) error { return nil }), ErrEventBusClosed)
}

func TestAsyncBus_CloseDuringPublish(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 1})
	var handled, accepted atomic.Int32

	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		time.Sleep(time.Millisecond)
		handled.Add(1)
		return nil
	}))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if bus.Publish(shared.NewLevelUnlockedEvent("u1", "A1", at)) == nil {
					accepted.Add(1)
				}
			}
		}()
	}
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, bus.Close())
	wg.Wait()

	assert.Equal(t, accepted.Load(), handled.Load())
}

func TestSubscribe_NilHandler(t *testing.T) {
	assert.ErrorIs(t, syncBus().Subscribe(shared.EventLevelUnlocked, nil), ErrNilHandler)
	assert.ErrorIs(t, syncBus().Publish(nil), ErrNilEvent)
}

func TestStreakEventType(t *testing.T) {
	assert.Equal(t, shared.EventStreakUpdated, shared.NewStreakUpdatedEvent("u1", 3, 4, at).EventType())
	assert.Equal(t, shared.EventStreakBroken, shared.NewStreakUpdatedEvent("u1", 9, 1, at).EventType())
	assert.NotEmpty(t, shared.NewLevelUnlockedEvent("u1", "A1", at).EventID())
}
