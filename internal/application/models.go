package application

import (
	"time"

	"github.com/example/shift-attendance/internal/reconcile"
)

// Principal represents the authenticated staff member invoking a service method.
// StoreIDs carries the stores the member belongs to, resolved when the session
// was validated.
type Principal struct {
	UserID   string
	IsAdmin  bool
	StoreIDs []string
}

// MemberOf reports whether the principal belongs to the given store.
// Administrators are considered members of every store.
func (p Principal) MemberOf(storeID string) bool {
	if p.IsAdmin {
		return true
	}
	for _, id := range p.StoreIDs {
		if id == storeID {
			return true
		}
	}
	return false
}

// StoreMembership ties a staff member to one store together with the role
// held there.
type StoreMembership struct {
	StoreID string
	Role    string
}

// ClockEvent is an attendance record exposed by the application services.
type ClockEvent struct {
	ID           string
	UserID       string
	StoreID      string
	ShiftID      *string
	BreakID      *string
	Kind         reconcile.EventKind
	SelectedTime time.Time
	ActualTime   time.Time
	Method       string
	Status       reconcile.Status
	CreatedBy    string
	ApprovedBy   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ClockEventInput captures caller provided clock event fields.
type ClockEventInput struct {
	UserID       string
	StoreID      string
	ShiftID      *string
	BreakID      *string
	Kind         reconcile.EventKind
	SelectedTime time.Time
	Method       string
}

// CreateClockEventParams wraps the data required to record a clock event.
type CreateClockEventParams struct {
	Principal Principal
	Input     ClockEventInput
}

// EditSelectedTimeParams wraps the data required to edit a recorded event's
// claimed time.
type EditSelectedTimeParams struct {
	Principal    Principal
	EventID      string
	SelectedTime time.Time
}

// ApprovalDecision is the outcome an approver applies to a pending record.
type ApprovalDecision string

const (
	// DecisionApproved marks a record as trusted for reconciliation.
	DecisionApproved ApprovalDecision = "approved"
	// DecisionRejected marks a record as excluded from reconciliation.
	DecisionRejected ApprovalDecision = "rejected"
)

// ApplyApprovalParams wraps the data required to approve or reject a record.
type ApplyApprovalParams struct {
	Principal  Principal
	EventID    string
	Decision   ApprovalDecision
	ApproverID string
}

// WorkStatusResult reports a staff member's current real-time status together
// with the events it was derived from.
type WorkStatusResult struct {
	Status     reconcile.WorkState
	LastRecord *ClockEvent
	Records    []ClockEvent
}

// Shift represents a scheduled work interval exposed by the application services.
type Shift struct {
	ID        string
	UserID    string
	StoreID   string
	Start     time.Time
	End       time.Time
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
	Breaks    []ShiftBreak
}

// ShiftBreak is a scheduled break nested within a shift.
type ShiftBreak struct {
	ID         string
	ShiftID    string
	BreakStart time.Time
	BreakEnd   time.Time
}

// StoreSettings carries the per-store approval policy.
type StoreSettings struct {
	StoreID          string
	ApprovalRequired bool
}

// DaySummary is the per-calendar-day reconciliation result.
type DaySummary struct {
	Date             string
	ScheduledMinutes float64
	ActualMinutes    float64
	BreakMinutes     float64
}

// WeekSummary buckets day summaries into one Sunday-start week.
type WeekSummary struct {
	WeekStart        string
	ScheduledMinutes float64
	ActualMinutes    float64
	BreakMinutes     float64
	Days             []DaySummary
}

// MonthSummary reduces a month of day summaries into one row.
type MonthSummary struct {
	Year             int
	Month            time.Month
	ScheduledMinutes float64
	ActualMinutes    float64
	BreakMinutes     float64
	Days             []DaySummary
}

// UserSummary is one per-user row of a store's monthly summary.
type UserSummary struct {
	UserID           string
	DisplayName      string
	ScheduledMinutes float64
	ActualMinutes    float64
	BreakMinutes     float64
}

// ByDayParams identifies the user and date range for a daily summary.
type ByDayParams struct {
	Principal Principal
	UserID    string
	StoreID   string
	StartDate string
	EndDate   string
}

// ByMonthParams identifies the user and month for weekly or monthly summaries.
type ByMonthParams struct {
	Principal Principal
	UserID    string
	StoreID   string
	Year      int
	Month     time.Month
}

// ByStoreParams identifies the store and month for the manager summary view.
type ByStoreParams struct {
	Principal Principal
	StoreID   string
	Year      int
	Month     time.Month
	UserID    string
}

// CopyShiftsParams wraps the data required to copy one day's shifts to another.
type CopyShiftsParams struct {
	Principal  Principal
	SourceDate string
	TargetDate string
	StoreID    string
	Overwrite  bool
	ActorID    string
}

// CopyShiftsResult reports the outcome of a shift copy run.
type CopyShiftsResult struct {
	Copied  int
	Skipped int
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

// ShiftInput captures caller provided shift fields.
type ShiftInput struct {
	UserID  string
	StoreID string
	Start   time.Time
	End     time.Time
	Breaks  []BreakInput
}

// BreakInput captures caller provided break fields.
type BreakInput struct {
	BreakStart time.Time
	BreakEnd   time.Time
}

// CreateShiftParams wraps the data required to schedule a shift.
type CreateShiftParams struct {
	Principal Principal
	Input     ShiftInput
}

// Staff represents an employee account exposed by the application services.
type Staff struct {
	ID          string
	Email       string
	DisplayName string
	IsAdmin     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StaffInput captures caller provided staff attributes.
type StaffInput struct {
	Email       string
	DisplayName string
	Password    string
	IsAdmin     bool
	StoreIDs    []string
}

// CreateStaffParams wraps the data required to create a staff account.
type CreateStaffParams struct {
	Principal Principal
	Input     StaffInput
}

// StaffCredentials models the authentication attributes persisted for a
// staff member.
type StaffCredentials struct {
	Staff        Staff
	PasswordHash string
}

// Session represents an authenticated session issued to a staff member.
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

// AuthenticateParams captures the data required to authenticate a staff member.
type AuthenticateParams struct {
	Email       string
	Password    string
	Fingerprint string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
// Memberships lists the stores the staff member may clock into.
type AuthenticateResult struct {
	Staff       Staff
	Session     Session
	Memberships []StoreMembership
}

// RefreshSessionParams captures the data required to refresh an existing session.
type RefreshSessionParams struct {
	Token       string
	Fingerprint string
}

// RefreshSessionResult captures the outcome of rotating a session token.
type RefreshSessionResult struct {
	Session Session
}
