package timeutil

import (
	"fmt"
	"time"
)

// DayKeyLayout is the calendar-day grouping key format used throughout the
// reconciliation and aggregation code.
const DayKeyLayout = "2006-01-02"

// DayKey returns the calendar-day key (YYYY-MM-DD) of t in its own location.
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// ParseDayKey parses a YYYY-MM-DD key into a midnight timestamp in loc.
func ParseDayKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DayKeyLayout, key, loc)
}

// StartOfDay returns 00:00:00 of the same day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// NextMidnight returns the start of the day after t.
func NextMidnight(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1)
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// WeekStart returns the Sunday beginning the week containing t, at midnight.
// Attendance summaries bucket days into Sunday-to-Saturday weeks.
func WeekStart(t time.Time) time.Time {
	start := StartOfDay(t)
	return start.AddDate(0, 0, -int(start.Weekday()))
}

// MonthRange returns the first instant of the month and the first instant of
// the following month in loc.
func MonthRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// Minutes converts a duration to fractional minutes. Worked and break time is
// carried as float64 minutes and only rounded at display boundaries.
func Minutes(d time.Duration) float64 {
	return float64(d.Milliseconds()) / 60000
}

// FormatMinutes renders fractional minutes as "Hh MMm" for display use, for
// example "9h 08m". Rounding to whole minutes happens here, not upstream.
func FormatMinutes(minutes float64) string {
	total := int64(minutes + 0.5)
	if total < 0 {
		total = 0
	}
	h := total / 60
	m := total % 60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
