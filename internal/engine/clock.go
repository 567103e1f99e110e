package engine

import "time"

// Clock abstracts time.Now() to allow deterministic testing.
// The scheduler itself never calls it: callers read "today" once and pass it down.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Today returns the calendar date of c.Now() as seen in its own location.
func Today(c Clock) time.Time {
	return CalendarDate(c.Now())
}
