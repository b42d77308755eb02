package analyzer

import "time"

// Clock supplies the current time used for default dates and the current year.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in the local time zone.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. Useful for tests and for
// re-analysing historical text "as of" a given day.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// FixedDate returns a FixedClock at midnight of the given day in loc (UTC when nil).
func FixedDate(year int, month time.Month, day int, loc *time.Location) FixedClock {
	if loc == nil {
		loc = time.UTC
	}
	return FixedClock{T: time.Date(year, month, day, 0, 0, 0, 0, loc)}
}

// ZoneClock reads the wall clock in Loc.
type ZoneClock struct {
	Loc *time.Location
}

func (c ZoneClock) Now() time.Time { return time.Now().In(c.Loc) }

// ClockIn returns the wall clock for loc, or the local clock when loc is nil.
func ClockIn(loc *time.Location) Clock {
	if loc == nil {
		return SystemClock{}
	}
	return ZoneClock{Loc: loc}
}
