// Package reconcile derives worked and break minutes from raw clock event
// streams and matches them against scheduled shift data. All functions are
// pure: callers fetch events and shifts, the engine only computes.
package reconcile

import (
	"sort"
	"time"

	"github.com/example/shift-attendance/internal/timeutil"
)

// DayTotals is the reconciled outcome for one calendar day.
type DayTotals struct {
	ActualMinutes float64
	BreakMinutes  float64
}

// ShiftSpan is the scheduled interval the engine needs from a shift. Start
// and End carry full dates, so an overnight shift is simply a span whose End
// falls on the next calendar day.
type ShiftSpan struct {
	Start time.Time
	End   time.Time
}

// Days partitions approved events by the calendar day of their selected time
// and reconciles each partition independently. Non-approved events are
// ignored. Every day that has at least one approved event gets an entry,
// even when the sequence is too incomplete to contribute minutes.
//
// Malformed sequences degrade silently: an unmatched break_end is skipped,
// and a day missing either its clock-in or clock-out contributes zero
// actual and break minutes. The summary view must never fail because a staff
// member is mid-shift or mis-punched.
func Days(events []Event) map[string]DayTotals {
	byDay := make(map[string][]Event)
	for _, ev := range events {
		if ev.Status != StatusApproved {
			continue
		}
		key := timeutil.DayKey(ev.SelectedTime)
		byDay[key] = append(byDay[key], ev)
	}

	totals := make(map[string]DayTotals, len(byDay))
	for key, dayEvents := range byDay {
		totals[key] = reconcileDay(dayEvents)
	}
	return totals
}

func reconcileDay(events []Event) DayTotals {
	ordered := make([]Event, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SelectedTime.Before(ordered[j].SelectedTime)
	})

	var clockIn, clockOut *time.Time
	var breakStart *time.Time
	var breakMinutes float64

	for i := range ordered {
		ev := ordered[i]
		switch ev.Kind {
		case KindClockIn:
			// Last one wins when duplicated.
			t := ev.SelectedTime
			clockIn = &t
		case KindClockOut:
			t := ev.SelectedTime
			clockOut = &t
		case KindBreakStart:
			t := ev.SelectedTime
			breakStart = &t
		case KindBreakEnd:
			if breakStart == nil {
				continue
			}
			breakMinutes += timeutil.Minutes(ev.SelectedTime.Sub(*breakStart))
			breakStart = nil
		}
	}

	if clockIn == nil || clockOut == nil {
		return DayTotals{}
	}

	actual := timeutil.Minutes(clockOut.Sub(*clockIn)) - breakMinutes
	return DayTotals{ActualMinutes: actual, BreakMinutes: breakMinutes}
}

// ScheduledMinutesByDay sums each shift's full span into the calendar day of
// its scheduled start. Anchoring on the start date keeps an overnight shift
// attributed to the day it began rather than splitting it at midnight.
func ScheduledMinutesByDay(shifts []ShiftSpan) map[string]float64 {
	minutes := make(map[string]float64, len(shifts))
	for _, shift := range shifts {
		key := timeutil.DayKey(shift.Start)
		minutes[key] += timeutil.Minutes(shift.End.Sub(shift.Start))
	}
	return minutes
}

// RollForwardEnd fixes up an end instant synthesized from a date plus a
// wall-clock time: when the computed end precedes the start, the shift
// crosses midnight and the end date moves forward exactly one day.
func RollForwardEnd(start, end time.Time) time.Time {
	if end.Before(start) {
		return end.AddDate(0, 0, 1)
	}
	return end
}
