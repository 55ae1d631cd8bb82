// Package timeutil provides UTC time-window helpers for activity
// aggregation. The platform stores and aggregates everything in UTC;
// presentation-layer timezone conversion is the client's job.
// No external dependencies - uses only standard library.
package timeutil

import "time"

// Now returns the current time in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// StartOfDay returns the start of the UTC day (00:00:00) containing t.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the end of the UTC day (23:59:59.999999999) containing t.
func EndOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, 999999999, time.UTC)
}

// StartOfWeek returns the start of the ISO week (Monday 00:00:00 UTC) containing t.
func StartOfWeek(t time.Time) time.Time {
	u := t.UTC()
	weekday := int(u.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return StartOfDay(u.AddDate(0, 0, -(weekday - 1)))
}

// EndOfWeek returns the end of the ISO week (Sunday 23:59:59 UTC) containing t.
func EndOfWeek(t time.Time) time.Time {
	return EndOfDay(StartOfWeek(t).AddDate(0, 0, 6))
}

// DayWindow returns the [start, end] pair of the UTC day containing t.
func DayWindow(t time.Time) (time.Time, time.Time) {
	return StartOfDay(t), EndOfDay(t)
}

// WeekWindow returns the [start, end] pair of the ISO week containing t.
func WeekWindow(t time.Time) (time.Time, time.Time) {
	return StartOfWeek(t), EndOfWeek(t)
}

// SameDay reports whether two times fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	au, bu := a.UTC(), b.UTC()
	return au.Year() == bu.Year() && au.YearDay() == bu.YearDay()
}
