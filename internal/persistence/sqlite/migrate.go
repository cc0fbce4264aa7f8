package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaMigrations are applied in order; each entry runs at most once. The
// schema_migrations table records the highest applied version.
var schemaMigrations = []string{
	`CREATE TABLE IF NOT EXISTS staff (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE COLLATE NOCASE,
		display_name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		is_admin INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS stores (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS store_members (
		store_id TEXT NOT NULL,
		user_id TEXT NOT NULL REFERENCES staff(id),
		role TEXT NOT NULL DEFAULT 'staff',
		created_at TEXT NOT NULL,
		PRIMARY KEY (store_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS store_settings (
		store_id TEXT PRIMARY KEY,
		approval_required INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		store_id TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		created_by TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (datetime(start_time) < datetime(end_time))
	)`,
	`CREATE TABLE IF NOT EXISTS shift_breaks (
		id TEXT PRIMARY KEY,
		shift_id TEXT NOT NULL REFERENCES shifts(id) ON DELETE CASCADE,
		break_start TEXT NOT NULL,
		break_end TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (datetime(break_start) < datetime(break_end))
	)`,
	`CREATE TABLE IF NOT EXISTS clock_events (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		store_id TEXT NOT NULL,
		shift_id TEXT,
		break_id TEXT,
		kind TEXT NOT NULL CHECK (kind IN ('clock_in','clock_out','break_start','break_end')),
		selected_time TEXT NOT NULL,
		actual_time TEXT NOT NULL,
		method TEXT NOT NULL CHECK (method IN ('scheduled','current','manual')),
		status TEXT NOT NULL CHECK (status IN ('pending','approved','rejected')),
		created_by TEXT NOT NULL,
		approved_by TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_clock_events_user_time ON clock_events(user_id, selected_time)`,
	`CREATE INDEX IF NOT EXISTS idx_clock_events_store_time ON clock_events(store_id, selected_time)`,
	`CREATE INDEX IF NOT EXISTS idx_shifts_user_start ON shifts(user_id, start_time)`,
	`CREATE INDEX IF NOT EXISTS idx_shifts_store_start ON shifts(store_id, start_time)`,
	`CREATE TABLE IF NOT EXISTS shift_copy_audits (
		id TEXT PRIMARY KEY,
		actor_id TEXT NOT NULL,
		source_date TEXT NOT NULL,
		target_date TEXT NOT NULL,
		overwrite INTEGER NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES staff(id),
		token TEXT NOT NULL UNIQUE,
		fingerprint TEXT NOT NULL DEFAULT '',
		expires_at TEXT NOT NULL,
		revoked_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
}

// Migrate brings the database schema up to date. It is safe to call on every
// startup; already-applied versions are skipped.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := cp.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to prepare schema_migrations: %w", err)
	}

	var current int
	err := cp.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for i := current; i < len(schemaMigrations); i++ {
		version := i + 1
		statement := schemaMigrations[i]
		err := cp.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.Exec(statement); err != nil {
				return fmt.Errorf("migration %d failed: %w", version, err)
			}
			if _, err := tx.Exec(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, datetime('now'))`, version); err != nil {
				return fmt.Errorf("failed to record migration %d: %w", version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}
