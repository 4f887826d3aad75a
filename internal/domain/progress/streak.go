package progress

import (
	"time"
)

// Streak risk window: a warning starts 20 hours after the last activity and
// ends when the streak lapses at 24 hours.
const (
	StreakRiskStart = 20 * time.Hour
	StreakRiskEnd   = 24 * time.Hour
)

// UpdateStreak returns the streak value after activity at now.
// Comparison is by calendar day in now's location:
//   - no previous activity, or already active today: unchanged
//   - last active yesterday: +1
//   - otherwise: 1
func UpdateStreak(p *UserProgress, now time.Time) int {
	if p == nil {
		return 0
	}
	if p.LastActivityDate == nil {
		return p.Streak
	}

	today := dateOf(now, now.Location())
	last := dateOf(*p.LastActivityDate, now.Location())

	switch {
	case !last.Before(today):
		// Same day, or a clock-skewed future timestamp.
		return p.Streak
	case last.Equal(today.AddDate(0, 0, -1)):
		return p.Streak + 1
	default:
		return 1
	}
}

// IsStreakAtRisk reports whether the learner is inside the warning window
// before the streak lapses. Uses elapsed time, not calendar days.
func IsStreakAtRisk(lastActivityDate *time.Time, now time.Time) bool {
	if lastActivityDate == nil {
		return false
	}
	elapsed := now.Sub(*lastActivityDate)
	return elapsed >= StreakRiskStart && elapsed < StreakRiskEnd
}

// IsStreakLapsed reports whether the next activity would restart the streak:
// the last activity was before yesterday in now's location.
func IsStreakLapsed(lastActivityDate *time.Time, now time.Time) bool {
	if lastActivityDate == nil {
		return false
	}
	yesterday := dateOf(now, now.Location()).AddDate(0, 0, -1)
	return dateOf(*lastActivityDate, now.Location()).Before(yesterday)
}

// dateOf truncates t to midnight of its calendar day in loc.
func dateOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
