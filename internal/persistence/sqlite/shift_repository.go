package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/example/shift-attendance/internal/persistence"
)

// ShiftRepository implements persistence.ShiftRepository using SQLite.
type ShiftRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewShiftRepository creates a new SQLite shift repository.
func NewShiftRepository(pool *ConnectionPool) *ShiftRepository {
	return &ShiftRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const shiftColumns = `id, user_id, store_id, start_time, end_time, created_by, created_at, updated_at`

// CreateShift inserts a new shift.
func (r *ShiftRepository) CreateShift(ctx context.Context, shift persistence.Shift) error {
	if shift.ID == "" || shift.UserID == "" || shift.StoreID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `INSERT INTO shifts (` + shiftColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.helper.Exec(ctx, query,
		shift.ID,
		shift.UserID,
		shift.StoreID,
		storeTime(shift.Start),
		storeTime(shift.End),
		shift.CreatedBy,
		storeTime(shift.CreatedAt),
		storeTime(shift.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// UpdateShift rewrites the scheduled interval of an existing shift.
func (r *ShiftRepository) UpdateShift(ctx context.Context, shift persistence.Shift) error {
	if shift.ID == "" {
		return persistence.ErrNotFound
	}

	query := `UPDATE shifts SET start_time = ?, end_time = ?, updated_at = ? WHERE id = ?`

	result, err := r.helper.Exec(ctx, query,
		storeTime(shift.Start),
		storeTime(shift.End),
		storeTime(shift.UpdatedAt),
		shift.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

// GetShift retrieves a shift by ID.
func (r *ShiftRepository) GetShift(ctx context.Context, id string) (persistence.Shift, error) {
	if id == "" {
		return persistence.Shift{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = ?`, id)
	shift, err := scanShift(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Shift{}, persistence.ErrNotFound
		}
		return persistence.Shift{}, r.mapper.MapError(err)
	}

	return shift, nil
}

// ListShifts returns shifts matching the filter ordered by start ascending.
func (r *ShiftRepository) ListShifts(ctx context.Context, filter persistence.ShiftFilter) ([]persistence.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts`

	var conditions []string
	var args []any

	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.StoreID != "" {
		conditions = append(conditions, "store_id = ?")
		args = append(args, filter.StoreID)
	}
	if filter.StartFrom != nil {
		conditions = append(conditions, "datetime(start_time) >= datetime(?)")
		args = append(args, storeTime(*filter.StartFrom))
	}
	if filter.StartBefore != nil {
		conditions = append(conditions, "datetime(start_time) < datetime(?)")
		args = append(args, storeTime(*filter.StartBefore))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY datetime(start_time) ASC, id ASC"

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var shifts []persistence.Shift
	for rows.Next() {
		shift, err := scanShift(rows.Scan)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		shifts = append(shifts, shift)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return shifts, nil
}

// DeleteShift removes a shift; its breaks cascade.
func (r *ShiftRepository) DeleteShift(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, `DELETE FROM shifts WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

// CreateShiftBreak inserts a break nested in a shift.
func (r *ShiftRepository) CreateShiftBreak(ctx context.Context, brk persistence.ShiftBreak) error {
	if brk.ID == "" || brk.ShiftID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO shift_breaks (id, shift_id, break_start, break_end, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		brk.ID,
		brk.ShiftID,
		storeTime(brk.BreakStart),
		storeTime(brk.BreakEnd),
		storeTime(brk.CreatedAt),
		storeTime(brk.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// ListShiftBreaks returns the breaks of one shift ordered by start.
func (r *ShiftRepository) ListShiftBreaks(ctx context.Context, shiftID string) ([]persistence.ShiftBreak, error) {
	query := `
		SELECT id, shift_id, break_start, break_end, created_at, updated_at
		FROM shift_breaks
		WHERE shift_id = ?
		ORDER BY datetime(break_start) ASC, id ASC
	`

	rows, err := r.helper.Query(ctx, query, shiftID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var breaks []persistence.ShiftBreak
	for rows.Next() {
		var brk persistence.ShiftBreak
		var startStr, endStr, createdAtStr, updatedAtStr string
		if err := rows.Scan(&brk.ID, &brk.ShiftID, &startStr, &endStr, &createdAtStr, &updatedAtStr); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if brk.BreakStart, err = parseStoredTime(startStr, "break_start"); err != nil {
			return nil, err
		}
		if brk.BreakEnd, err = parseStoredTime(endStr, "break_end"); err != nil {
			return nil, err
		}
		if brk.CreatedAt, err = parseStoredTime(createdAtStr, "created_at"); err != nil {
			return nil, err
		}
		if brk.UpdatedAt, err = parseStoredTime(updatedAtStr, "updated_at"); err != nil {
			return nil, err
		}
		breaks = append(breaks, brk)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return breaks, nil
}

// DeleteShiftBreaks removes every break owned by a shift.
func (r *ShiftRepository) DeleteShiftBreaks(ctx context.Context, shiftID string) error {
	if shiftID == "" {
		return persistence.ErrNotFound
	}

	_, err := r.helper.Exec(ctx, `DELETE FROM shift_breaks WHERE shift_id = ?`, shiftID)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

func scanShift(scan func(dest ...any) error) (persistence.Shift, error) {
	var shift persistence.Shift
	var startStr, endStr, createdAtStr, updatedAtStr string

	err := scan(
		&shift.ID,
		&shift.UserID,
		&shift.StoreID,
		&startStr,
		&endStr,
		&shift.CreatedBy,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Shift{}, err
	}

	if shift.Start, err = parseStoredTime(startStr, "start_time"); err != nil {
		return persistence.Shift{}, err
	}
	if shift.End, err = parseStoredTime(endStr, "end_time"); err != nil {
		return persistence.Shift{}, err
	}
	if shift.CreatedAt, err = parseStoredTime(createdAtStr, "created_at"); err != nil {
		return persistence.Shift{}, err
	}
	if shift.UpdatedAt, err = parseStoredTime(updatedAtStr, "updated_at"); err != nil {
		return persistence.Shift{}, err
	}

	return shift, nil
}
