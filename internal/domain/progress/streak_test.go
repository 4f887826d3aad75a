package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUpdateStreak(t *testing.T) {
	tests := []struct {
		name   string
		last   *time.Time
		streak int
		want   int
	}{
		{"no previous activity", nil, 0, 0},
		{"same day", ptrTime(testNow.Add(-3 * time.Hour)), 4, 4},
		{"yesterday", ptrTime(testNow.AddDate(0, 0, -1)), 4, 5},
		{"yesterday late evening", ptrTime(time.Date(2026, time.March, 14, 23, 59, 0, 0, time.UTC)), 2, 3},
		{"two days ago", ptrTime(testNow.AddDate(0, 0, -2)), 9, 1},
		{"three days ago", ptrTime(testNow.AddDate(0, 0, -3)), 4, 1},
		{"future timestamp", ptrTime(testNow.Add(48 * time.Hour)), 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewUserProgress("u1")
			p.Streak = tt.streak
			p.LastActivityDate = tt.last
			assert.Equal(t, tt.want, UpdateStreak(p, testNow))
		})
	}
}

func TestUpdateStreak_UsesCalendarDayNotElapsedHours(t *testing.T) {
	p := NewUserProgress("u1")
	p.Streak = 1
	// 2 hours elapsed, but across midnight.
	p.LastActivityDate = ptrTime(time.Date(2026, time.March, 14, 23, 0, 0, 0, time.UTC))
	now := time.Date(2026, time.March, 15, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 2, UpdateStreak(p, now))

	// 40 hours elapsed but only one calendar day apart.
	p.LastActivityDate = ptrTime(time.Date(2026, time.March, 14, 0, 5, 0, 0, time.UTC))
	now = time.Date(2026, time.March, 15, 16, 5, 0, 0, time.UTC)
	assert.Equal(t, 2, UpdateStreak(p, now))
}

func TestUpdateStreak_UsesLocationOfNow(t *testing.T) {
	almaty := time.FixedZone("ALMT", 5*60*60)
	p := NewUserProgress("u1")
	p.Streak = 3
	// 20:00 UTC on the 14th is 01:00 on the 15th in Almaty.
	p.LastActivityDate = ptrTime(time.Date(2026, time.March, 14, 20, 0, 0, 0, time.UTC))

	now := time.Date(2026, time.March, 15, 10, 0, 0, 0, almaty)
	assert.Equal(t, 3, UpdateStreak(p, now), "same local day")

	nowUTC := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, 4, UpdateStreak(p, nowUTC), "previous UTC day")
}

func TestIsStreakAtRisk(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		want    bool
	}{
		{time.Hour, false},
		{19*time.Hour + 59*time.Minute, false},
		{20 * time.Hour, true},
		{23*time.Hour + 59*time.Minute, true},
		{24 * time.Hour, false},
		{30 * time.Hour, false},
	}

	for _, tt := range tests {
		last := testNow.Add(-tt.elapsed)
		assert.Equal(t, tt.want, IsStreakAtRisk(&last, testNow), "elapsed %s", tt.elapsed)
	}

	assert.False(t, IsStreakAtRisk(nil, testNow))
}

func TestIsStreakLapsed(t *testing.T) {
	tests := []struct {
		name string
		last *time.Time
		want bool
	}{
		{"no activity", nil, false},
		{"today", ptrTime(testNow.Add(-time.Hour)), false},
		{"yesterday morning", ptrTime(time.Date(2026, time.March, 14, 0, 5, 0, 0, time.UTC)), false},
		{"two days ago late", ptrTime(time.Date(2026, time.March, 13, 23, 59, 0, 0, time.UTC)), true},
		{"last week", ptrTime(testNow.AddDate(0, 0, -7)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsStreakLapsed(tt.last, testNow))
		})
	}
}
