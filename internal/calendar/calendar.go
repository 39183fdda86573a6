// Package calendar provides the date-bucket helpers the accrual and
// projection code is built on. Weeks are Sunday-aligned; day boundaries
// follow the local calendar of the supplied times.
package calendar

import "time"

// StartOfMonth returns midnight on the first day of d's month.
func StartOfMonth(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
}

// EndOfMonth returns the last instant of the last day of d's month.
func EndOfMonth(d time.Time) time.Time {
	return StartOfMonth(d).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// Truncate drops the time-of-day component, keeping the calendar day.
func Truncate(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}

// WeekStart returns midnight on the Sunday on or before d.
func WeekStart(d time.Time) time.Time {
	day := Truncate(d)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// DaysBetweenInclusive counts calendar days from a through b, both ends
// included. Results <= 0 mean b is before a's day.
func DaysBetweenInclusive(a, b time.Time) int {
	days := int(Truncate(b).Sub(Truncate(a)).Hours() / 24)
	return days + 1
}

// MonthsBetweenInclusive counts calendar months from a's month through b's
// month, both included. Day-of-month is ignored.
func MonthsBetweenInclusive(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month()) + 1
}

// AddMonths advances d by n calendar months, clamping to the last valid day
// when the source day does not exist in the target month (Jan 31 + 1 month
// lands on the end of February).
func AddMonths(d time.Time, n int) time.Time {
	target := time.Date(d.Year(), d.Month()+time.Month(n), 1, 0, 0, 0, 0, d.Location())
	lastDay := target.AddDate(0, 1, -1).Day()
	day := d.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(target.Year(), target.Month(), day,
		d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), d.Location())
}

// SameMonth reports whether a and b fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
