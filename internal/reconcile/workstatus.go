package reconcile

import "sort"

// WorkState is a staff member's real-time attendance state derived from the
// latest clock event of the day.
type WorkState string

const (
	StateBeforeWork WorkState = "before_work"
	StateWorking    WorkState = "working"
	StateOnBreak    WorkState = "on_break"
	StateFinished   WorkState = "finished"
)

// ResolveWorkStatus maps the most recent clock event of the day to the
// member's current state. Only the single latest event governs the state;
// multiple clock-in/out cycles within one day are not distinguished.
func ResolveWorkStatus(last *Event) WorkState {
	if last == nil {
		return StateBeforeWork
	}
	switch last.Kind {
	case KindClockIn:
		return StateWorking
	case KindBreakStart:
		return StateOnBreak
	case KindBreakEnd:
		return StateWorking
	case KindClockOut:
		return StateFinished
	}
	return StateBeforeWork
}

// LatestEventIndex returns the index of the event that governs the current
// work state: the most recent approved event when any exists, otherwise the
// most recent pending one. Rejected events never drive the state. Returns -1
// for an empty or all-rejected day. The input slice is not reordered.
func LatestEventIndex(events []Event) int {
	order := make([]int, len(events))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return events[order[a]].SelectedTime.Before(events[order[b]].SelectedTime)
	})

	lastPending := -1
	lastApproved := -1
	for _, idx := range order {
		switch events[idx].Status {
		case StatusApproved:
			lastApproved = idx
		case StatusPending:
			lastPending = idx
		case StatusRejected:
		}
	}

	if lastApproved >= 0 {
		return lastApproved
	}
	return lastPending
}

// LatestEvent is LatestEventIndex returning the event value itself, or nil
// when no event governs the state.
func LatestEvent(events []Event) *Event {
	idx := LatestEventIndex(events)
	if idx < 0 {
		return nil
	}
	event := events[idx]
	return &event
}
