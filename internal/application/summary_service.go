package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/example/shift-attendance/internal/reconcile"
	"github.com/example/shift-attendance/internal/timeutil"
)

// ShiftLister exposes the read side of the shift store needed for summaries.
type ShiftLister interface {
	ListShifts(ctx context.Context, query ShiftQuery) ([]Shift, error)
}

// ShiftQuery narrows shift listings. Zero fields are ignored. StartFrom is
// inclusive, StartBefore exclusive; both bound the scheduled start.
type ShiftQuery struct {
	UserID      string
	StoreID     string
	StartFrom   *time.Time
	StartBefore *time.Time
}

// StaffDirectory resolves display names for summary rows.
type StaffDirectory interface {
	GetStaff(ctx context.Context, id string) (Staff, error)
}

// unknownDisplayName is shown when no display name can be resolved for a
// summary row.
const unknownDisplayName = "不明"

// SummaryService computes work-time summaries from clock events and
// scheduled shifts. Only approved events contribute minutes; pending events
// still mark their day as present. Nothing is cached; every call re-fetches
// and re-computes.
type SummaryService struct {
	events ClockEventRepository
	shifts ShiftLister
	staff  StaffDirectory
	loc    *time.Location
}

// NewSummaryService wires dependencies for the summary service. The location
// anchors date-string parsing; it defaults to UTC.
func NewSummaryService(events ClockEventRepository, shifts ShiftLister, staff StaffDirectory, loc *time.Location) *SummaryService {
	if loc == nil {
		loc = time.UTC
	}
	return &SummaryService{events: events, shifts: shifts, staff: staff, loc: loc}
}

// ByDay returns one summary per date in [StartDate, EndDate] that has either
// a shift or any clock event, sorted ascending by date.
func (s *SummaryService) ByDay(ctx context.Context, params ByDayParams) ([]DaySummary, error) {
	if s == nil {
		return nil, fmt.Errorf("SummaryService is nil")
	}

	start, end, vErr := s.parseDateRange(params.StartDate, params.EndDate)
	if vErr.HasErrors() {
		return nil, vErr
	}
	if params.UserID == "" {
		params.UserID = params.Principal.UserID
	}
	if params.UserID != params.Principal.UserID && !params.Principal.IsAdmin {
		return nil, ErrUnauthorized
	}

	from := start
	to := timeutil.NextMidnight(end)

	events, shifts, err := s.fetch(ctx, params.UserID, params.StoreID, from, to)
	if err != nil {
		return nil, err
	}

	return buildDaySummaries(events, shifts), nil
}

// ByWeek buckets the month's day summaries into Sunday-start weeks. Week
// boundaries are not clipped to the month; a day belongs to exactly one week.
func (s *SummaryService) ByWeek(ctx context.Context, params ByMonthParams) ([]WeekSummary, error) {
	days, err := s.monthDays(ctx, params)
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]*WeekSummary)
	for _, day := range days {
		date, err := timeutil.ParseDayKey(day.Date, s.loc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse day key %q: %w", day.Date, err)
		}
		weekKey := timeutil.DayKey(timeutil.WeekStart(date))
		bucket, ok := buckets[weekKey]
		if !ok {
			bucket = &WeekSummary{WeekStart: weekKey}
			buckets[weekKey] = bucket
		}
		bucket.ScheduledMinutes += day.ScheduledMinutes
		bucket.ActualMinutes += day.ActualMinutes
		bucket.BreakMinutes += day.BreakMinutes
		bucket.Days = append(bucket.Days, day)
	}

	weeks := make([]WeekSummary, 0, len(buckets))
	for _, bucket := range buckets {
		weeks = append(weeks, *bucket)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].WeekStart < weeks[j].WeekStart })

	return weeks, nil
}

// ByMonth reduces the month's day summaries into a single row. A month with
// no data still yields one summary with zero sums.
func (s *SummaryService) ByMonth(ctx context.Context, params ByMonthParams) (MonthSummary, error) {
	days, err := s.monthDays(ctx, params)
	if err != nil {
		return MonthSummary{}, err
	}

	summary := MonthSummary{Year: params.Year, Month: params.Month, Days: days}
	for _, day := range days {
		summary.ScheduledMinutes += day.ScheduledMinutes
		summary.ActualMinutes += day.ActualMinutes
		summary.BreakMinutes += day.BreakMinutes
	}

	return summary, nil
}

// ByStore produces one row per staff member who has either a shift or a
// clock event in the store that month. Row order is not significant.
func (s *SummaryService) ByStore(ctx context.Context, params ByStoreParams) ([]UserSummary, error) {
	if s == nil {
		return nil, fmt.Errorf("SummaryService is nil")
	}
	if !params.Principal.IsAdmin {
		return nil, ErrUnauthorized
	}

	vErr := &ValidationError{}
	if params.StoreID == "" {
		vErr.add("store_id", "store id is required")
	}
	if params.Year <= 0 {
		vErr.add("year", "year is required")
	}
	if params.Month < time.January || params.Month > time.December {
		vErr.add("month", "month must be between 1 and 12")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	from, to := timeutil.MonthRange(params.Year, params.Month, s.loc)

	events, shifts, err := s.fetch(ctx, params.UserID, params.StoreID, from, to)
	if err != nil {
		return nil, err
	}

	eventsByUser := make(map[string][]ClockEvent)
	for _, event := range events {
		eventsByUser[event.UserID] = append(eventsByUser[event.UserID], event)
	}
	shiftsByUser := make(map[string][]Shift)
	for _, shift := range shifts {
		shiftsByUser[shift.UserID] = append(shiftsByUser[shift.UserID], shift)
	}

	userIDs := make(map[string]struct{})
	for id := range eventsByUser {
		userIDs[id] = struct{}{}
	}
	for id := range shiftsByUser {
		userIDs[id] = struct{}{}
	}

	summaries := make([]UserSummary, 0, len(userIDs))
	for userID := range userIDs {
		row := UserSummary{
			UserID:      userID,
			DisplayName: s.displayName(ctx, userID),
		}
		for _, day := range buildDaySummaries(eventsByUser[userID], shiftsByUser[userID]) {
			row.ScheduledMinutes += day.ScheduledMinutes
			row.ActualMinutes += day.ActualMinutes
			row.BreakMinutes += day.BreakMinutes
		}
		summaries = append(summaries, row)
	}

	return summaries, nil
}

func (s *SummaryService) monthDays(ctx context.Context, params ByMonthParams) ([]DaySummary, error) {
	if s == nil {
		return nil, fmt.Errorf("SummaryService is nil")
	}

	vErr := &ValidationError{}
	if params.Year <= 0 {
		vErr.add("year", "year is required")
	}
	if params.Month < time.January || params.Month > time.December {
		vErr.add("month", "month must be between 1 and 12")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}
	if params.UserID == "" {
		params.UserID = params.Principal.UserID
	}
	if params.UserID != params.Principal.UserID && !params.Principal.IsAdmin {
		return nil, ErrUnauthorized
	}

	from, to := timeutil.MonthRange(params.Year, params.Month, s.loc)

	events, shifts, err := s.fetch(ctx, params.UserID, params.StoreID, from, to)
	if err != nil {
		return nil, err
	}

	return buildDaySummaries(events, shifts), nil
}

func (s *SummaryService) fetch(ctx context.Context, userID, storeID string, from, to time.Time) ([]ClockEvent, []Shift, error) {
	var events []ClockEvent
	if s.events != nil {
		var err error
		// Pending events mark a day as present without contributing
		// minutes; rejected records stay out of summaries entirely.
		events, err = s.events.ListClockEvents(ctx, ClockEventQuery{
			UserID:   userID,
			StoreID:  storeID,
			Statuses: []reconcile.Status{reconcile.StatusApproved, reconcile.StatusPending},
			From:     &from,
			To:       &to,
		})
		if err != nil {
			return nil, nil, err
		}
	}

	var shifts []Shift
	if s.shifts != nil {
		var err error
		shifts, err = s.shifts.ListShifts(ctx, ShiftQuery{
			UserID:      userID,
			StoreID:     storeID,
			StartFrom:   &from,
			StartBefore: &to,
		})
		if err != nil {
			return nil, nil, err
		}
	}

	return events, shifts, nil
}

// displayName resolves a staff display name for a store summary row. Clock
// events carry no embedded snapshot of the member who punched, so the only
// fallback after a failed directory lookup is the 不明 placeholder.
func (s *SummaryService) displayName(ctx context.Context, userID string) string {
	if s.staff == nil {
		return unknownDisplayName
	}
	staff, err := s.staff.GetStaff(ctx, userID)
	if err != nil || staff.DisplayName == "" {
		if err != nil && !errors.Is(err, ErrNotFound) {
			serviceLogger(ctx, nil, "SummaryService", "displayName").
				WarnContext(ctx, "failed to resolve display name", "user_id", userID, "error", err)
		}
		return unknownDisplayName
	}
	return staff.DisplayName
}

// buildDaySummaries merges the reconciliation totals and scheduled minutes
// into sorted per-day rows covering every date that has a fetched event or
// a shift.
func buildDaySummaries(events []ClockEvent, shifts []Shift) []DaySummary {
	coreEvents := make([]reconcile.Event, len(events))
	for i, event := range events {
		coreEvents[i] = reconcile.Event{
			Kind:         event.Kind,
			Status:       event.Status,
			SelectedTime: event.SelectedTime,
		}
	}
	totals := reconcile.Days(coreEvents)

	spans := make([]reconcile.ShiftSpan, len(shifts))
	for i, shift := range shifts {
		spans[i] = reconcile.ShiftSpan{Start: shift.Start, End: shift.End}
	}
	scheduled := reconcile.ScheduledMinutesByDay(spans)

	dates := make(map[string]struct{}, len(totals)+len(scheduled))
	for _, event := range events {
		dates[timeutil.DayKey(event.SelectedTime)] = struct{}{}
	}
	for date := range totals {
		dates[date] = struct{}{}
	}
	for date := range scheduled {
		dates[date] = struct{}{}
	}

	days := make([]DaySummary, 0, len(dates))
	for date := range dates {
		days = append(days, DaySummary{
			Date:             date,
			ScheduledMinutes: scheduled[date],
			ActualMinutes:    totals[date].ActualMinutes,
			BreakMinutes:     totals[date].BreakMinutes,
		})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	return days
}

func (s *SummaryService) parseDateRange(startDate, endDate string) (time.Time, time.Time, *ValidationError) {
	vErr := &ValidationError{}

	start, err := timeutil.ParseDayKey(startDate, s.loc)
	if err != nil {
		vErr.add("start_date", "start date must be formatted as YYYY-MM-DD")
	}
	end, err := timeutil.ParseDayKey(endDate, s.loc)
	if err != nil {
		vErr.add("end_date", "end date must be formatted as YYYY-MM-DD")
	}
	if !vErr.HasErrors() && end.Before(start) {
		vErr.add("end_date", "end date must not precede start date")
	}

	return start, end, vErr
}
