package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/example/shift-attendance/internal/persistence"
)

// ClockEventRepository implements persistence.ClockEventRepository using SQLite.
type ClockEventRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewClockEventRepository creates a new SQLite clock event repository.
func NewClockEventRepository(pool *ConnectionPool) *ClockEventRepository {
	return &ClockEventRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const clockEventColumns = `id, user_id, store_id, shift_id, break_id, kind, selected_time, actual_time, method, status, created_by, approved_by, created_at, updated_at`

// CreateClockEvent inserts a new clock event.
func (r *ClockEventRepository) CreateClockEvent(ctx context.Context, event persistence.ClockEvent) error {
	if event.ID == "" || event.UserID == "" || event.StoreID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO clock_events (` + clockEventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		event.ID,
		event.UserID,
		event.StoreID,
		nullableString(event.ShiftID),
		nullableString(event.BreakID),
		event.Kind,
		storeTime(event.SelectedTime),
		storeTime(event.ActualTime),
		event.Method,
		event.Status,
		event.CreatedBy,
		nullableString(event.ApprovedBy),
		storeTime(event.CreatedAt),
		storeTime(event.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// UpdateClockEvent rewrites the mutable fields of an existing event. The
// actual recording time is immutable and deliberately not part of the UPDATE.
func (r *ClockEventRepository) UpdateClockEvent(ctx context.Context, event persistence.ClockEvent) error {
	if event.ID == "" {
		return persistence.ErrNotFound
	}

	query := `
		UPDATE clock_events
		SET selected_time = ?, method = ?, status = ?, approved_by = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		storeTime(event.SelectedTime),
		event.Method,
		event.Status,
		nullableString(event.ApprovedBy),
		storeTime(event.UpdatedAt),
		event.ID,
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

// GetClockEvent retrieves a clock event by ID.
func (r *ClockEventRepository) GetClockEvent(ctx context.Context, id string) (persistence.ClockEvent, error) {
	if id == "" {
		return persistence.ClockEvent{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+clockEventColumns+` FROM clock_events WHERE id = ?`, id)
	event, err := scanClockEvent(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.ClockEvent{}, persistence.ErrNotFound
		}
		return persistence.ClockEvent{}, r.mapper.MapError(err)
	}

	return event, nil
}

// ListClockEvents returns events matching the filter ordered by selected
// time ascending.
func (r *ClockEventRepository) ListClockEvents(ctx context.Context, filter persistence.ClockEventFilter) ([]persistence.ClockEvent, error) {
	query, args := buildClockEventQuery(filter)

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var events []persistence.ClockEvent
	for rows.Next() {
		event, err := scanClockEvent(rows.Scan)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return events, nil
}

func buildClockEventQuery(filter persistence.ClockEventFilter) (string, []any) {
	query := `SELECT ` + clockEventColumns + ` FROM clock_events`

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
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.From != nil {
		conditions = append(conditions, "datetime(selected_time) >= datetime(?)")
		args = append(args, storeTime(*filter.From))
	}
	if filter.To != nil {
		conditions = append(conditions, "datetime(selected_time) < datetime(?)")
		args = append(args, storeTime(*filter.To))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY datetime(selected_time) ASC, id ASC"
	return query, args
}

func scanClockEvent(scan func(dest ...any) error) (persistence.ClockEvent, error) {
	var event persistence.ClockEvent
	var shiftID, breakID, approvedBy sql.NullString
	var selectedStr, actualStr, createdAtStr, updatedAtStr string

	err := scan(
		&event.ID,
		&event.UserID,
		&event.StoreID,
		&shiftID,
		&breakID,
		&event.Kind,
		&selectedStr,
		&actualStr,
		&event.Method,
		&event.Status,
		&event.CreatedBy,
		&approvedBy,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.ClockEvent{}, err
	}

	event.ShiftID = stringPtr(shiftID)
	event.BreakID = stringPtr(breakID)
	event.ApprovedBy = stringPtr(approvedBy)

	if event.SelectedTime, err = parseStoredTime(selectedStr, "selected_time"); err != nil {
		return persistence.ClockEvent{}, err
	}
	if event.ActualTime, err = parseStoredTime(actualStr, "actual_time"); err != nil {
		return persistence.ClockEvent{}, err
	}
	if event.CreatedAt, err = parseStoredTime(createdAtStr, "created_at"); err != nil {
		return persistence.ClockEvent{}, err
	}
	if event.UpdatedAt, err = parseStoredTime(updatedAtStr, "updated_at"); err != nil {
		return persistence.ClockEvent{}, err
	}

	return event, nil
}
