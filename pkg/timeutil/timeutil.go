// Package timeutil provides the calendar convention for the reporting series.
// All bucket keys are derived in UTC; week numbering follows ISO-8601. One
// convention is used across a whole trend series so that day, week and month
// buckets for the same payments never disagree.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// Period selects the bucket granularity for a trend series.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// Valid reports whether the period is one of the supported granularities.
func (p Period) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

// Common date formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatMonth is the month bucket format (YYYY-MM).
	FormatMonth = "2006-01"
)

// DayKey returns the daily bucket key (YYYY-MM-DD) for a time, in UTC.
func DayKey(t time.Time) string {
	return t.UTC().Format(FormatDate)
}

// WeekKey returns the weekly bucket key (GGGG-Wnn, ISO-8601 week) for a
// time, in UTC. The ISO year can differ from the calendar year around
// January 1st.
func WeekKey(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// MonthKey returns the monthly bucket key (YYYY-MM) for a time, in UTC.
func MonthKey(t time.Time) string {
	return t.UTC().Format(FormatMonth)
}

// BucketKey returns the bucket key for the given period.
func BucketKey(t time.Time, p Period) string {
	switch p {
	case PeriodWeekly:
		return WeekKey(t)
	case PeriodMonthly:
		return MonthKey(t)
	default:
		return DayKey(t)
	}
}

// BucketStart returns the start instant of the bucket containing t, in UTC.
// Used to order buckets chronologically without re-parsing keys.
func BucketStart(t time.Time, p Period) time.Time {
	u := t.UTC()
	switch p {
	case PeriodWeekly:
		return StartOfISOWeek(u)
	case PeriodMonthly:
		return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return StartOfDay(u)
	}
}

// StartOfDay returns the start of the day (00:00:00) in UTC.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in UTC.
func EndOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, 999999999, time.UTC)
}

// StartOfISOWeek returns the Monday 00:00:00 of the ISO week containing t,
// in UTC.
func StartOfISOWeek(t time.Time) time.Time {
	u := t.UTC()
	weekday := int(u.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return StartOfDay(u.AddDate(0, 0, -(weekday - 1)))
}

// ParseDate parses a date string (YYYY-MM-DD) as midnight UTC.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(FormatDate, value, time.UTC)
}

// IsSameDay checks if two times fall on the same UTC day.
func IsSameDay(t1, t2 time.Time) bool {
	u1, u2 := t1.UTC(), t2.UTC()
	return u1.Year() == u2.Year() && u1.YearDay() == u2.YearDay()
}

// DaysBetween calculates the number of whole days between two times.
func DaysBetween(t1, t2 time.Time) int {
	a1 := StartOfDay(t1)
	a2 := StartOfDay(t2)
	days := int(a2.Sub(a1).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}
