package reconcile

import "time"

// EventKind identifies the attendance action a clock event records. The set
// is closed: every consumer switches exhaustively over these four values so
// that introducing a new kind is a compile-visible change at each site.
type EventKind string

const (
	KindClockIn    EventKind = "clock_in"
	KindClockOut   EventKind = "clock_out"
	KindBreakStart EventKind = "break_start"
	KindBreakEnd   EventKind = "break_end"
)

// Valid reports whether k is one of the four known kinds.
func (k EventKind) Valid() bool {
	switch k {
	case KindClockIn, KindClockOut, KindBreakStart, KindBreakEnd:
		return true
	}
	return false
}

// Status is the approval lifecycle state of a clock event.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Event is the minimal view of a clock event the engine needs. SelectedTime
// is the instant the staff member claims for the action; the engine never
// looks at the wall-clock recording time.
type Event struct {
	Kind         EventKind
	Status       Status
	SelectedTime time.Time
}

// InitialStatus decides the status a freshly recorded clock event receives
// under the store's approval policy.
func InitialStatus(approvalRequired bool) Status {
	if approvalRequired {
		return StatusPending
	}
	return StatusApproved
}

// ResetsToPendingOnEdit reports whether editing a record's selected time must
// push it back through approval. A pending record stays pending regardless,
// so repeated edits are idempotent.
func ResetsToPendingOnEdit(approvalRequired bool, current Status) bool {
	if !approvalRequired {
		return false
	}
	return current == StatusApproved || current == StatusRejected
}
