package application

import (
	"context"
	"fmt"
	"time"

	"github.com/example/shift-attendance/internal/timeutil"
)

// ShiftService manages scheduled shifts and their nested breaks.
type ShiftService struct {
	shifts      ShiftRepository
	idGenerator func() string
	now         func() time.Time
	loc         *time.Location
}

// NewShiftService wires dependencies for the shift service.
func NewShiftService(shifts ShiftRepository, idGenerator func() string, now func() time.Time, loc *time.Location) *ShiftService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ShiftService{shifts: shifts, idGenerator: idGenerator, now: now, loc: loc}
}

// CreateShift schedules a shift with its breaks for administrators. Start
// and end carry full dates, so an overnight shift needs no special casing.
func (s *ShiftService) CreateShift(ctx context.Context, params CreateShiftParams) (Shift, error) {
	if s == nil {
		return Shift{}, fmt.Errorf("ShiftService is nil")
	}
	if s.shifts == nil {
		return Shift{}, fmt.Errorf("shift repository not configured")
	}
	if !params.Principal.IsAdmin {
		return Shift{}, ErrUnauthorized
	}

	input := params.Input
	vErr := validateShiftInput(input)
	if vErr.HasErrors() {
		return Shift{}, vErr
	}

	now := s.now()
	shift := Shift{
		ID:        s.idGenerator(),
		UserID:    input.UserID,
		StoreID:   input.StoreID,
		Start:     input.Start,
		End:       input.End,
		CreatedBy: params.Principal.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	persisted, err := s.shifts.CreateShift(ctx, shift)
	if err != nil {
		return Shift{}, err
	}

	for _, brk := range input.Breaks {
		created, err := s.shifts.CreateShiftBreak(ctx, ShiftBreak{
			ID:         s.idGenerator(),
			ShiftID:    persisted.ID,
			BreakStart: brk.BreakStart,
			BreakEnd:   brk.BreakEnd,
		})
		if err != nil {
			return Shift{}, err
		}
		persisted.Breaks = append(persisted.Breaks, created)
	}

	return persisted, nil
}

// ListShiftsForDay returns the shifts starting on the given date, optionally
// scoped to one user or store.
func (s *ShiftService) ListShiftsForDay(ctx context.Context, principal Principal, userID, storeID, date string) ([]Shift, error) {
	if s == nil {
		return nil, fmt.Errorf("ShiftService is nil")
	}
	if s.shifts == nil {
		return nil, nil
	}
	if userID == "" && !principal.IsAdmin {
		userID = principal.UserID
	}
	if userID != principal.UserID && !principal.IsAdmin {
		return nil, ErrUnauthorized
	}

	day, err := timeutil.ParseDayKey(date, s.loc)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("date", "date must be formatted as YYYY-MM-DD")
		return nil, vErr
	}

	from := day
	to := timeutil.NextMidnight(day)
	return s.shifts.ListShifts(ctx, ShiftQuery{
		UserID:      userID,
		StoreID:     storeID,
		StartFrom:   &from,
		StartBefore: &to,
	})
}

func validateShiftInput(input ShiftInput) *ValidationError {
	vErr := &ValidationError{}

	if input.UserID == "" {
		vErr.add("user_id", "user id is required")
	}
	if input.StoreID == "" {
		vErr.add("store_id", "store id is required")
	}
	if input.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	if input.End.IsZero() {
		vErr.add("end", "end is required")
	}
	if !input.Start.IsZero() && !input.End.IsZero() && !input.Start.Before(input.End) {
		vErr.add("end", "end must be after start")
	}

	for _, brk := range input.Breaks {
		if !brk.BreakStart.Before(brk.BreakEnd) {
			vErr.add("breaks", "break end must be after break start")
			break
		}
	}

	return vErr
}
