package engine

import "time"

// secondsPerDay converts UTC-midnight differences into whole days.
const secondsPerDay = 24 * 60 * 60

// MonthDay is an annually recurring calendar position.
type MonthDay struct {
	Month time.Month
	Day   int
}

// MonthDayOf extracts the month/day pair of a date.
func MonthDayOf(t time.Time) MonthDay {
	return MonthDay{Month: t.Month(), Day: t.Day()}
}

// CalendarDate strips the clock and zone from t, keeping the calendar date
// that t shows in its own location. All engine dates are UTC midnights so that
// day differences are exact.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the signed number of calendar days from 'from' to 'to'.
func DaysBetween(from, to time.Time) int {
	// Unix seconds instead of Sub: time.Duration saturates after ~292 years.
	return int((CalendarDate(to).Unix() - CalendarDate(from).Unix()) / secondsPerDay)
}

// occurrenceIn places md in the given year.
// time.Date normalizes Feb 29 to March 1 in non-leap years.
func occurrenceIn(year int, md MonthDay) time.Time {
	return time.Date(year, md.Month, md.Day, 0, 0, 0, 0, time.UTC)
}

// NextAnnualOccurrence returns the first date on or after today that falls on md.
func NextAnnualOccurrence(md MonthDay, today time.Time) time.Time {
	today = CalendarDate(today)
	candidate := occurrenceIn(today.Year(), md)
	if candidate.Before(today) {
		candidate = occurrenceIn(today.Year()+1, md)
	}
	return candidate
}

// DaysUntilNextAnnualOccurrence is the non-negative distance to the next md.
// It is 0 when md is today.
func DaysUntilNextAnnualOccurrence(md MonthDay, today time.Time) int {
	return DaysBetween(today, NextAnnualOccurrence(md, today))
}

// IsSameMonthDay reports whether date falls on md, using the same leap-day
// normalization as NextAnnualOccurrence.
func IsSameMonthDay(date time.Time, md MonthDay) bool {
	date = CalendarDate(date)
	return occurrenceIn(date.Year(), md).Equal(date)
}

// AgeInYears returns the number of completed years between birth and today.
func AgeInYears(birth, today time.Time) int {
	birth, today = CalendarDate(birth), CalendarDate(today)
	anniversary := occurrenceIn(today.Year(), MonthDayOf(birth))

	age := today.Year() - birth.Year()
	if today.Before(anniversary) {
		age--
	}
	return age
}
