package persistence

import "context"
import "time"

// StaffRepository exposes CRUD operations for staff accounts.
type StaffRepository interface {
	CreateStaff(ctx context.Context, staff Staff) error
	UpdateStaff(ctx context.Context, staff Staff) error
	GetStaff(ctx context.Context, id string) (Staff, error)
	GetStaffByEmail(ctx context.Context, email string) (Staff, error)
	ListStaff(ctx context.Context) ([]Staff, error)
	DeleteStaff(ctx context.Context, id string) error
}

// StoreRepository exposes CRUD operations for stores.
type StoreRepository interface {
	CreateStore(ctx context.Context, store Store) error
	UpdateStore(ctx context.Context, store Store) error
	GetStore(ctx context.Context, id string) (Store, error)
	ListStores(ctx context.Context) ([]Store, error)
	DeleteStore(ctx context.Context, id string) error
}

// StoreMemberRepository manages store membership rows.
type StoreMemberRepository interface {
	CreateStoreMember(ctx context.Context, member StoreMember) error
	DeleteStoreMember(ctx context.Context, storeID, userID string) error
	ListStoreMembers(ctx context.Context, storeID string) ([]StoreMember, error)
	ListStoreMembersForStaff(ctx context.Context, userID string) ([]StoreMember, error)
}

// StoreSettingsRepository stores the per-store approval policy.
type StoreSettingsRepository interface {
	GetStoreSettings(ctx context.Context, storeID string) (StoreSettings, error)
	UpsertStoreSettings(ctx context.Context, settings StoreSettings) error
}

// ClockEventFilter narrows clock event queries. Zero fields are ignored.
// From/To bound the selected time, From inclusive and To exclusive.
type ClockEventFilter struct {
	UserID   string
	StoreID  string
	Statuses []string
	From     *time.Time
	To       *time.Time
}

// ClockEventRepository stores clock events. Events are never deleted in the
// normal flow; rejected records stay for audit.
type ClockEventRepository interface {
	CreateClockEvent(ctx context.Context, event ClockEvent) error
	UpdateClockEvent(ctx context.Context, event ClockEvent) error
	GetClockEvent(ctx context.Context, id string) (ClockEvent, error)
	ListClockEvents(ctx context.Context, filter ClockEventFilter) ([]ClockEvent, error)
}

// ShiftFilter narrows shift queries by owner, store, and the scheduled start
// instant. StartFrom is inclusive, StartBefore exclusive.
type ShiftFilter struct {
	UserID      string
	StoreID     string
	StartFrom   *time.Time
	StartBefore *time.Time
}

// ShiftRepository stores scheduled shifts and their nested breaks.
type ShiftRepository interface {
	CreateShift(ctx context.Context, shift Shift) error
	UpdateShift(ctx context.Context, shift Shift) error
	GetShift(ctx context.Context, id string) (Shift, error)
	ListShifts(ctx context.Context, filter ShiftFilter) ([]Shift, error)
	DeleteShift(ctx context.Context, id string) error

	CreateShiftBreak(ctx context.Context, brk ShiftBreak) error
	ListShiftBreaks(ctx context.Context, shiftID string) ([]ShiftBreak, error)
	DeleteShiftBreaks(ctx context.Context, shiftID string) error
}

// ShiftCopyAuditRepository records shift copy executions.
type ShiftCopyAuditRepository interface {
	CreateShiftCopyAudit(ctx context.Context, audit ShiftCopyAudit) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
