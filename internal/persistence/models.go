package persistence

import "time"

// Staff represents an employee account in the attendance domain.
type Staff struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Store represents a physical store belonging to a company.
type Store struct {
	ID        string
	CompanyID string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StoreMember links a staff account to a store.
type StoreMember struct {
	StoreID   string
	UserID    string
	Role      string
	CreatedAt time.Time
}

// StoreSettings carries the per-store approval policy.
type StoreSettings struct {
	StoreID          string
	ApprovalRequired bool
	UpdatedAt        time.Time
}

// ClockEvent is one timestamped attendance action recorded by a staff member.
// ActualTime is fixed at creation; SelectedTime is the instant the member
// claims and may be edited afterwards.
type ClockEvent struct {
	ID           string
	UserID       string
	StoreID      string
	ShiftID      *string
	BreakID      *string
	Kind         string
	SelectedTime time.Time
	ActualTime   time.Time
	Method       string
	Status       string
	CreatedBy    string
	ApprovedBy   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Shift is a scheduled work interval for a staff member at a store. Start
// and End carry full dates, so overnight shifts need no special casing.
type Shift struct {
	ID        string
	UserID    string
	StoreID   string
	Start     time.Time
	End       time.Time
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ShiftBreak is a scheduled break nested within a shift. Breaks are owned by
// their shift and recreated wholesale when a copy overwrites the shift.
type ShiftBreak struct {
	ID         string
	ShiftID    string
	BreakStart time.Time
	BreakEnd   time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ShiftCopyAudit records one execution of the shift copy operation.
type ShiftCopyAudit struct {
	ID         string
	ActorID    string
	SourceDate string
	TargetDate string
	Overwrite  bool
	CreatedAt  time.Time
}

// Session represents an authentication session persisted for a staff member.
type Session struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}
