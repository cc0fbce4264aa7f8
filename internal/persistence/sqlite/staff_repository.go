package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/example/shift-attendance/internal/persistence"
)

// StaffRepository implements persistence.StaffRepository using SQLite.
type StaffRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewStaffRepository creates a new SQLite staff repository.
func NewStaffRepository(pool *ConnectionPool) *StaffRepository {
	return &StaffRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const staffColumns = `id, email, display_name, password_hash, is_admin, created_at, updated_at`

// CreateStaff inserts a new staff account.
func (r *StaffRepository) CreateStaff(ctx context.Context, staff persistence.Staff) error {
	if staff.ID == "" || strings.TrimSpace(staff.Email) == "" {
		return persistence.ErrConstraintViolation
	}

	query := `INSERT INTO staff (` + staffColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.helper.Exec(ctx, query,
		staff.ID,
		strings.ToLower(strings.TrimSpace(staff.Email)),
		staff.DisplayName,
		staff.PasswordHash,
		boolToInt(staff.IsAdmin),
		storeTime(staff.CreatedAt),
		storeTime(staff.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// UpdateStaff rewrites an existing staff account.
func (r *StaffRepository) UpdateStaff(ctx context.Context, staff persistence.Staff) error {
	if staff.ID == "" {
		return persistence.ErrNotFound
	}

	query := `
		UPDATE staff
		SET email = ?, display_name = ?, password_hash = ?, is_admin = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		strings.ToLower(strings.TrimSpace(staff.Email)),
		staff.DisplayName,
		staff.PasswordHash,
		boolToInt(staff.IsAdmin),
		storeTime(staff.UpdatedAt),
		staff.ID,
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

// GetStaff retrieves a staff account by ID.
func (r *StaffRepository) GetStaff(ctx context.Context, id string) (persistence.Staff, error) {
	if id == "" {
		return persistence.Staff{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE id = ?`, id)
	return r.scanStaffRow(row.Scan)
}

// GetStaffByEmail retrieves a staff account by email, case-insensitively.
func (r *StaffRepository) GetStaffByEmail(ctx context.Context, email string) (persistence.Staff, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return persistence.Staff{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE email = ?`, normalized)
	return r.scanStaffRow(row.Scan)
}

// ListStaff returns all staff ordered by creation time.
func (r *StaffRepository) ListStaff(ctx context.Context) ([]persistence.Staff, error) {
	rows, err := r.helper.Query(ctx, `SELECT `+staffColumns+` FROM staff ORDER BY datetime(created_at) ASC, id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var members []persistence.Staff
	for rows.Next() {
		staff, err := scanStaff(rows.Scan)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		members = append(members, staff)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return members, nil
}

// DeleteStaff removes a staff account by ID.
func (r *StaffRepository) DeleteStaff(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, `DELETE FROM staff WHERE id = ?`, id)
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

func (r *StaffRepository) scanStaffRow(scan func(dest ...any) error) (persistence.Staff, error) {
	staff, err := scanStaff(scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Staff{}, persistence.ErrNotFound
		}
		return persistence.Staff{}, r.mapper.MapError(err)
	}
	return staff, nil
}

func scanStaff(scan func(dest ...any) error) (persistence.Staff, error) {
	var staff persistence.Staff
	var isAdmin int
	var createdAtStr, updatedAtStr string

	err := scan(
		&staff.ID,
		&staff.Email,
		&staff.DisplayName,
		&staff.PasswordHash,
		&isAdmin,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Staff{}, err
	}

	staff.IsAdmin = isAdmin != 0
	if staff.CreatedAt, err = parseStoredTime(createdAtStr, "created_at"); err != nil {
		return persistence.Staff{}, err
	}
	if staff.UpdatedAt, err = parseStoredTime(updatedAtStr, "updated_at"); err != nil {
		return persistence.Staff{}, err
	}

	return staff, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
