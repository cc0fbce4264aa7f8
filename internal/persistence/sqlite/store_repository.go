package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/shift-attendance/internal/persistence"
)

// StoreRepository implements persistence.StoreRepository, the membership
// repository, and the settings repository using SQLite. The three concerns
// share a connection pool and always travel together in practice.
type StoreRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewStoreRepository creates a new SQLite store repository.
func NewStoreRepository(pool *ConnectionPool) *StoreRepository {
	return &StoreRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const storeColumns = `id, company_id, name, created_at, updated_at`

// CreateStore inserts a new store.
func (r *StoreRepository) CreateStore(ctx context.Context, store persistence.Store) error {
	if store.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `INSERT INTO stores (` + storeColumns + `) VALUES (?, ?, ?, ?, ?)`

	_, err := r.helper.Exec(ctx, query,
		store.ID,
		store.CompanyID,
		store.Name,
		storeTime(store.CreatedAt),
		storeTime(store.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// UpdateStore rewrites an existing store.
func (r *StoreRepository) UpdateStore(ctx context.Context, store persistence.Store) error {
	if store.ID == "" {
		return persistence.ErrNotFound
	}

	query := `UPDATE stores SET company_id = ?, name = ?, updated_at = ? WHERE id = ?`

	result, err := r.helper.Exec(ctx, query,
		store.CompanyID,
		store.Name,
		storeTime(store.UpdatedAt),
		store.ID,
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

// GetStore retrieves a store by ID.
func (r *StoreRepository) GetStore(ctx context.Context, id string) (persistence.Store, error) {
	if id == "" {
		return persistence.Store{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+storeColumns+` FROM stores WHERE id = ?`, id)

	store, err := scanStore(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Store{}, persistence.ErrNotFound
		}
		return persistence.Store{}, r.mapper.MapError(err)
	}

	return store, nil
}

// ListStores returns all stores ordered by name.
func (r *StoreRepository) ListStores(ctx context.Context) ([]persistence.Store, error) {
	rows, err := r.helper.Query(ctx, `SELECT `+storeColumns+` FROM stores ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var stores []persistence.Store
	for rows.Next() {
		store, err := scanStore(rows.Scan)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		stores = append(stores, store)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return stores, nil
}

// DeleteStore removes a store by ID.
func (r *StoreRepository) DeleteStore(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, `DELETE FROM stores WHERE id = ?`, id)
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

// CreateStoreMember links a staff account to a store.
func (r *StoreRepository) CreateStoreMember(ctx context.Context, member persistence.StoreMember) error {
	if member.StoreID == "" || member.UserID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `INSERT INTO store_members (store_id, user_id, role, created_at) VALUES (?, ?, ?, ?)`

	_, err := r.helper.Exec(ctx, query,
		member.StoreID,
		member.UserID,
		member.Role,
		storeTime(member.CreatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// DeleteStoreMember removes a membership row.
func (r *StoreRepository) DeleteStoreMember(ctx context.Context, storeID, userID string) error {
	result, err := r.helper.Exec(ctx,
		`DELETE FROM store_members WHERE store_id = ? AND user_id = ?`, storeID, userID)
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

// ListStoreMembers returns all members of a store ordered by join time.
func (r *StoreRepository) ListStoreMembers(ctx context.Context, storeID string) ([]persistence.StoreMember, error) {
	query := `
		SELECT store_id, user_id, role, created_at
		FROM store_members
		WHERE store_id = ?
		ORDER BY datetime(created_at) ASC, user_id ASC
	`

	rows, err := r.helper.Query(ctx, query, storeID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var members []persistence.StoreMember
	for rows.Next() {
		var member persistence.StoreMember
		var createdAtStr string
		if err := rows.Scan(&member.StoreID, &member.UserID, &member.Role, &createdAtStr); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if member.CreatedAt, err = parseStoredTime(createdAtStr, "created_at"); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return members, nil
}

// ListStoreMembersForStaff returns every membership held by one staff
// account, ordered by store.
func (r *StoreRepository) ListStoreMembersForStaff(ctx context.Context, userID string) ([]persistence.StoreMember, error) {
	query := `
		SELECT store_id, user_id, role, created_at
		FROM store_members
		WHERE user_id = ?
		ORDER BY store_id ASC
	`

	rows, err := r.helper.Query(ctx, query, userID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var members []persistence.StoreMember
	for rows.Next() {
		var member persistence.StoreMember
		var createdAtStr string
		if err := rows.Scan(&member.StoreID, &member.UserID, &member.Role, &createdAtStr); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if member.CreatedAt, err = parseStoredTime(createdAtStr, "created_at"); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return members, nil
}

// GetStoreSettings retrieves the approval policy for a store.
func (r *StoreRepository) GetStoreSettings(ctx context.Context, storeID string) (persistence.StoreSettings, error) {
	if storeID == "" {
		return persistence.StoreSettings{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx,
		`SELECT store_id, approval_required, updated_at FROM store_settings WHERE store_id = ?`, storeID)

	var settings persistence.StoreSettings
	var approvalRequired int
	var updatedAtStr string

	err := row.Scan(&settings.StoreID, &approvalRequired, &updatedAtStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.StoreSettings{}, persistence.ErrNotFound
		}
		return persistence.StoreSettings{}, r.mapper.MapError(err)
	}

	settings.ApprovalRequired = approvalRequired != 0
	if settings.UpdatedAt, err = parseStoredTime(updatedAtStr, "updated_at"); err != nil {
		return persistence.StoreSettings{}, err
	}

	return settings, nil
}

// UpsertStoreSettings writes the approval policy for a store, replacing any
// existing row.
func (r *StoreRepository) UpsertStoreSettings(ctx context.Context, settings persistence.StoreSettings) error {
	if settings.StoreID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO store_settings (store_id, approval_required, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (store_id) DO UPDATE SET
			approval_required = excluded.approval_required,
			updated_at = excluded.updated_at
	`

	_, err := r.helper.Exec(ctx, query,
		settings.StoreID,
		boolToInt(settings.ApprovalRequired),
		storeTime(settings.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

func scanStore(scan func(dest ...any) error) (persistence.Store, error) {
	var store persistence.Store
	var createdAtStr, updatedAtStr string

	err := scan(&store.ID, &store.CompanyID, &store.Name, &createdAtStr, &updatedAtStr)
	if err != nil {
		return persistence.Store{}, err
	}

	if store.CreatedAt, err = parseStoredTime(createdAtStr, "created_at"); err != nil {
		return persistence.Store{}, err
	}
	if store.UpdatedAt, err = parseStoredTime(updatedAtStr, "updated_at"); err != nil {
		return persistence.Store{}, err
	}

	return store, nil
}
