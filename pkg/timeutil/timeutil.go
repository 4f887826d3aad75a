// Package timeutil holds the learner-facing clock. Streaks are counted in
// calendar days, so every "now" handed to the progress domain is expressed in
// the configured learner time zone.
package timeutil

import (
	"fmt"
	"sync"
	"time"
)

// DefaultTimezone is used when no time zone is configured.
const DefaultTimezone = "UTC"

// Layouts used in API responses.
const (
	FormatDate     = "2006-01-02"
	FormatDateTime = time.RFC3339
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock and converts it to Location.
type SystemClock struct {
	Location *time.Location
}

// NewSystemClock creates a clock for the named IANA zone.
func NewSystemClock(timezone string) (*SystemClock, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &SystemClock{Location: loc}, nil
}

// Now returns the current time in the clock's location.
func (c *SystemClock) Now() time.Time {
	if c == nil || c.Location == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.Location)
}

// FixedClock always returns the same instant. It can be moved forward.
type FixedClock struct {
	mu sync.Mutex
	t  time.Time
}

// NewFixedClock creates a fixed clock at t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{t: t}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// Set moves the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

// LoadLocation resolves an IANA zone name. An empty name means UTC.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timeutil: unknown time zone %q: %w", name, err)
	}
	return loc, nil
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// IsSameDay reports whether t1 and t2 fall on the same calendar day in loc.
func IsSameDay(t1, t2 time.Time, loc *time.Location) bool {
	return StartOfDay(t1, loc).Equal(StartOfDay(t2, loc))
}

// DaysBetween returns the signed number of calendar days from t1 to t2 in loc.
func DaysBetween(t1, t2 time.Time, loc *time.Location) int {
	a := StartOfDay(t1, loc)
	b := StartOfDay(t2, loc)
	// Calendar arithmetic avoids 23h/25h days around DST changes.
	days := 0
	for a.Before(b) {
		a = a.AddDate(0, 0, 1)
		days++
	}
	for b.Before(a) {
		b = b.AddDate(0, 0, 1)
		days--
	}
	return days
}

// FormatRelative renders a short human description of t relative to now.
func FormatRelative(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < 0:
		return "in the future"
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d min ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d h ago", int(d.Hours()))
	default:
		days := DaysBetween(t, now, now.Location())
		if days == 1 {
			return "yesterday"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}
