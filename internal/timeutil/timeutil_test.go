package timeutil_test

import (
	"testing"
	"time"

	"github.com/example/shift-attendance/internal/timeutil"
)

func TestDayKey(t *testing.T) {
	t.Parallel()

	jst := time.FixedZone("JST", 9*60*60)
	ts := time.Date(2024, 1, 10, 23, 30, 0, 0, jst)
	if got := timeutil.DayKey(ts); got != "2024-01-10" {
		t.Errorf("DayKey = %q, want %q", got, "2024-01-10")
	}
}

func TestWeekStart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		day  string
		want string
	}{
		// 2024-03-05 is a Tuesday; its week starts Sunday 2024-03-03.
		{"2024-03-05", "2024-03-03"},
		// A Sunday is its own week start.
		{"2024-03-03", "2024-03-03"},
		// A Saturday belongs to the week that began six days earlier.
		{"2024-03-09", "2024-03-03"},
		// Week spanning a month boundary is not clipped.
		{"2024-04-01", "2024-03-31"},
	}
	for _, tt := range tests {
		day, err := timeutil.ParseDayKey(tt.day, time.UTC)
		if err != nil {
			t.Fatalf("ParseDayKey(%q): %v", tt.day, err)
		}
		if got := timeutil.DayKey(timeutil.WeekStart(day)); got != tt.want {
			t.Errorf("WeekStart(%s) = %s, want %s", tt.day, got, tt.want)
		}
	}
}

func TestMonthRange(t *testing.T) {
	t.Parallel()

	start, end := timeutil.MonthRange(2024, time.February, time.UTC)
	if timeutil.DayKey(start) != "2024-02-01" {
		t.Errorf("month start = %s", timeutil.DayKey(start))
	}
	if timeutil.DayKey(end) != "2024-03-01" {
		t.Errorf("month end = %s", timeutil.DayKey(end))
	}
}

func TestMinutes(t *testing.T) {
	t.Parallel()

	if got := timeutil.Minutes(90 * time.Second); got != 1.5 {
		t.Errorf("Minutes(90s) = %v, want 1.5", got)
	}
	if got := timeutil.Minutes(8 * time.Hour); got != 480 {
		t.Errorf("Minutes(8h) = %v, want 480", got)
	}
}

func TestFormatMinutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		minutes float64
		want    string
	}{
		{0, "0m"},
		{30, "30m"},
		{59.6, "1h 00m"},
		{480, "8h 00m"},
		{548, "9h 08m"},
	}
	for _, tt := range tests {
		if got := timeutil.FormatMinutes(tt.minutes); got != tt.want {
			t.Errorf("FormatMinutes(%v) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}
