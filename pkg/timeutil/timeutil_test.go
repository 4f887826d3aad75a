package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = LoadLocation("Mars/Olympus")
	assert.Error(t, err)
}

func TestSystemClock_UsesLocation(t *testing.T) {
	zone := time.FixedZone("UTC+5", 5*60*60)
	c := &SystemClock{Location: zone}
	assert.Equal(t, zone, c.Now().Location())
}

func TestFixedClock(t *testing.T) {
	start := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	c := NewFixedClock(start)
	assert.Equal(t, start, c.Now())

	c.Advance(36 * time.Hour)
	assert.Equal(t, start.Add(36*time.Hour), c.Now())
}

func TestDaysBetween(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	late := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)  // 23:30 local
	early := time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC) // 00:30 local next day

	assert.Equal(t, 1, DaysBetween(late, early, loc))
	assert.Equal(t, -1, DaysBetween(early, late, loc))
	assert.Equal(t, 0, DaysBetween(late, early, time.UTC))
	assert.True(t, IsSameDay(late, early, time.UTC))
	assert.False(t, IsSameDay(late, early, loc))
}

func TestFormatRelative(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "just now", FormatRelative(now.Add(-10*time.Second), now))
	assert.Equal(t, "5 min ago", FormatRelative(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3 h ago", FormatRelative(now.Add(-3*time.Hour), now))
	assert.Equal(t, "yesterday", FormatRelative(now.Add(-25*time.Hour), now))
	assert.Equal(t, "4 days ago", FormatRelative(now.AddDate(0, 0, -4), now))
}
