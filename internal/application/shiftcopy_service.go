package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/shift-attendance/internal/reconcile"
	"github.com/example/shift-attendance/internal/timeutil"
)

// ShiftRepository captures the persistence operations needed by the shift
// services. Listed shifts carry their breaks.
type ShiftRepository interface {
	ListShifts(ctx context.Context, query ShiftQuery) ([]Shift, error)
	CreateShift(ctx context.Context, shift Shift) (Shift, error)
	UpdateShift(ctx context.Context, shift Shift) (Shift, error)
	CreateShiftBreak(ctx context.Context, brk ShiftBreak) (ShiftBreak, error)
	DeleteShiftBreaks(ctx context.Context, shiftID string) error
}

// AuditRecorder persists shift copy audit rows.
type AuditRecorder interface {
	CreateShiftCopyAudit(ctx context.Context, audit ShiftCopyAudit) error
}

// ShiftCopyService duplicates one day's shifts and nested breaks onto
// another date. The copy loop is not wrapped in a transaction; a failure
// aborts the remaining work and already-committed copies stay in place.
type ShiftCopyService struct {
	shifts      ShiftRepository
	audits      AuditRecorder
	idGenerator func() string
	now         func() time.Time
	loc         *time.Location
	logger      *slog.Logger
}

// NewShiftCopyService wires dependencies for the shift copy service.
func NewShiftCopyService(shifts ShiftRepository, audits AuditRecorder, idGenerator func() string, now func() time.Time, loc *time.Location) *ShiftCopyService {
	return NewShiftCopyServiceWithLogger(shifts, audits, idGenerator, now, loc, nil)
}

// NewShiftCopyServiceWithLogger constructs a ShiftCopyService with a
// specified logger.
func NewShiftCopyServiceWithLogger(shifts ShiftRepository, audits AuditRecorder, idGenerator func() string, now func() time.Time, loc *time.Location, logger *slog.Logger) *ShiftCopyService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ShiftCopyService{
		shifts:      shifts,
		audits:      audits,
		idGenerator: idGenerator,
		now:         now,
		loc:         loc,
		logger:      defaultLogger(logger),
	}
}

type copyKey struct {
	userID  string
	storeID string
}

// Copy shifts every shift scheduled on SourceDate onto TargetDate. An
// existing target shift for the same (user, store) is skipped, or updated in
// place with its breaks replaced when Overwrite is set. One audit row is
// recorded at the end even when nothing was copied.
func (s *ShiftCopyService) Copy(ctx context.Context, params CopyShiftsParams) (CopyShiftsResult, error) {
	if s == nil {
		return CopyShiftsResult{}, fmt.Errorf("ShiftCopyService is nil")
	}
	if s.shifts == nil {
		return CopyShiftsResult{}, fmt.Errorf("shift repository not configured")
	}
	if !params.Principal.IsAdmin {
		return CopyShiftsResult{}, ErrUnauthorized
	}

	actorID := params.ActorID
	if actorID == "" {
		actorID = params.Principal.UserID
	}

	vErr := &ValidationError{}
	sourceDay, err := timeutil.ParseDayKey(params.SourceDate, s.loc)
	if err != nil {
		vErr.add("source_date", "source date must be formatted as YYYY-MM-DD")
	}
	targetDay, err := timeutil.ParseDayKey(params.TargetDate, s.loc)
	if err != nil {
		vErr.add("target_date", "target date must be formatted as YYYY-MM-DD")
	}
	if actorID == "" {
		vErr.add("actor_id", "actor id is required")
	}
	if vErr.HasErrors() {
		return CopyShiftsResult{}, vErr
	}

	logger := serviceLogger(ctx, s.logger, "ShiftCopyService", "Copy",
		"source_date", params.SourceDate,
		"target_date", params.TargetDate,
		"store_id", params.StoreID,
		"overwrite", params.Overwrite,
	)

	dateDiff := targetDay.Sub(sourceDay)

	sourceShifts, err := s.listDay(ctx, params.StoreID, sourceDay)
	if err != nil {
		return CopyShiftsResult{}, err
	}
	targetShifts, err := s.listDay(ctx, params.StoreID, targetDay)
	if err != nil {
		return CopyShiftsResult{}, err
	}

	existing := make(map[copyKey]Shift, len(targetShifts))
	for _, shift := range targetShifts {
		existing[copyKey{userID: shift.UserID, storeID: shift.StoreID}] = shift
	}

	result := CopyShiftsResult{}
	now := s.now()

	for _, source := range sourceShifts {
		start := source.Start.Add(dateDiff)
		end := reconcile.RollForwardEnd(start, source.End.Add(dateDiff))

		target, found := existing[copyKey{userID: source.UserID, storeID: source.StoreID}]
		if found && !params.Overwrite {
			result.Skipped++
			continue
		}

		if found {
			target.Start = start
			target.End = end
			target.UpdatedAt = now
			if _, err := s.shifts.UpdateShift(ctx, target); err != nil {
				logger.ErrorContext(ctx, "shift copy aborted", "error", err, "copied", result.Copied)
				return result, err
			}
			if err := s.shifts.DeleteShiftBreaks(ctx, target.ID); err != nil {
				logger.ErrorContext(ctx, "shift copy aborted", "error", err, "copied", result.Copied)
				return result, err
			}
			if err := s.copyBreaks(ctx, source.Breaks, target.ID, dateDiff, now); err != nil {
				logger.ErrorContext(ctx, "shift copy aborted", "error", err, "copied", result.Copied)
				return result, err
			}
			result.Copied++
			continue
		}

		created := Shift{
			ID:        s.idGenerator(),
			UserID:    source.UserID,
			StoreID:   source.StoreID,
			Start:     start,
			End:       end,
			CreatedBy: actorID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		persisted, err := s.shifts.CreateShift(ctx, created)
		if err != nil {
			logger.ErrorContext(ctx, "shift copy aborted", "error", err, "copied", result.Copied)
			return result, err
		}
		if err := s.copyBreaks(ctx, source.Breaks, persisted.ID, dateDiff, now); err != nil {
			logger.ErrorContext(ctx, "shift copy aborted", "error", err, "copied", result.Copied)
			return result, err
		}
		result.Copied++
	}

	if s.audits != nil {
		audit := ShiftCopyAudit{
			ID:         s.idGenerator(),
			ActorID:    actorID,
			SourceDate: params.SourceDate,
			TargetDate: params.TargetDate,
			Overwrite:  params.Overwrite,
			CreatedAt:  now,
		}
		if err := s.audits.CreateShiftCopyAudit(ctx, audit); err != nil {
			logger.ErrorContext(ctx, "failed to record copy audit", "error", err)
			return result, err
		}
	}

	logger.InfoContext(ctx, "shift copy completed", "copied", result.Copied, "skipped", result.Skipped)

	return result, nil
}

func (s *ShiftCopyService) listDay(ctx context.Context, storeID string, day time.Time) ([]Shift, error) {
	from := day
	to := timeutil.NextMidnight(day)
	return s.shifts.ListShifts(ctx, ShiftQuery{
		StoreID:     storeID,
		StartFrom:   &from,
		StartBefore: &to,
	})
}

func (s *ShiftCopyService) copyBreaks(ctx context.Context, breaks []ShiftBreak, shiftID string, dateDiff time.Duration, now time.Time) error {
	for _, brk := range breaks {
		start := brk.BreakStart.Add(dateDiff)
		end := reconcile.RollForwardEnd(start, brk.BreakEnd.Add(dateDiff))
		_, err := s.shifts.CreateShiftBreak(ctx, ShiftBreak{
			ID:         s.idGenerator(),
			ShiftID:    shiftID,
			BreakStart: start,
			BreakEnd:   end,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
