package sqlite

import (
	"context"

	"github.com/example/shift-attendance/internal/persistence"
)

// ShiftCopyAuditRepository implements persistence.ShiftCopyAuditRepository
// using SQLite. Audit rows are append-only.
type ShiftCopyAuditRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewShiftCopyAuditRepository creates a new SQLite audit repository.
func NewShiftCopyAuditRepository(pool *ConnectionPool) *ShiftCopyAuditRepository {
	return &ShiftCopyAuditRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateShiftCopyAudit records one execution of the shift copy operation.
func (r *ShiftCopyAuditRepository) CreateShiftCopyAudit(ctx context.Context, audit persistence.ShiftCopyAudit) error {
	if audit.ID == "" || audit.ActorID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO shift_copy_audits (id, actor_id, source_date, target_date, overwrite, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		audit.ID,
		audit.ActorID,
		audit.SourceDate,
		audit.TargetDate,
		boolToInt(audit.Overwrite),
		storeTime(audit.CreatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}
