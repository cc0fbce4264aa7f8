package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/shift-attendance/internal/reconcile"
	"github.com/example/shift-attendance/internal/timeutil"
)

// ClockEventRepository captures the persistence operations needed by the
// clock event service.
type ClockEventRepository interface {
	CreateClockEvent(ctx context.Context, event ClockEvent) (ClockEvent, error)
	GetClockEvent(ctx context.Context, id string) (ClockEvent, error)
	UpdateClockEvent(ctx context.Context, event ClockEvent) (ClockEvent, error)
	ListClockEvents(ctx context.Context, query ClockEventQuery) ([]ClockEvent, error)
}

// ClockEventQuery narrows clock event listings. Zero fields are ignored.
// From is inclusive, To exclusive; both bound the selected time.
type ClockEventQuery struct {
	UserID   string
	StoreID  string
	Statuses []reconcile.Status
	From     *time.Time
	To       *time.Time
}

// StoreSettingsRepository exposes the per-store approval policy lookup.
type StoreSettingsRepository interface {
	GetStoreSettings(ctx context.Context, storeID string) (StoreSettings, error)
}

// ClockEventService orchestrates recording, editing, and approval of clock
// events.
type ClockEventService struct {
	events      ClockEventRepository
	settings    StoreSettingsRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewClockEventService wires dependencies for the clock event service.
func NewClockEventService(events ClockEventRepository, settings StoreSettingsRepository, idGenerator func() string, now func() time.Time) *ClockEventService {
	return NewClockEventServiceWithLogger(events, settings, idGenerator, now, nil)
}

// NewClockEventServiceWithLogger constructs a ClockEventService with a
// specified logger.
func NewClockEventServiceWithLogger(events ClockEventRepository, settings StoreSettingsRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ClockEventService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ClockEventService{
		events:      events,
		settings:    settings,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ClockEventService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ClockEventService", operation, attrs...)
}

// approvalRequired resolves the store policy. A store without a settings row
// does not require approval.
func (s *ClockEventService) approvalRequired(ctx context.Context, storeID string) (bool, error) {
	if s.settings == nil {
		return false, nil
	}
	settings, err := s.settings.GetStoreSettings(ctx, storeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return settings.ApprovalRequired, nil
}

// CreateClockEvent records a new attendance action. The initial status is
// decided by the store's approval policy; the actual time is fixed at
// creation and never changes afterwards.
func (s *ClockEventService) CreateClockEvent(ctx context.Context, params CreateClockEventParams) (ClockEvent, error) {
	if s == nil {
		return ClockEvent{}, fmt.Errorf("ClockEventService is nil")
	}
	if s.events == nil {
		return ClockEvent{}, fmt.Errorf("clock event repository not configured")
	}

	input := params.Input
	if input.UserID == "" {
		input.UserID = params.Principal.UserID
	}
	if input.UserID != params.Principal.UserID && !params.Principal.IsAdmin {
		return ClockEvent{}, ErrUnauthorized
	}

	vErr := validateClockEventInput(input)
	if vErr.HasErrors() {
		return ClockEvent{}, vErr
	}

	required, err := s.approvalRequired(ctx, input.StoreID)
	if err != nil {
		return ClockEvent{}, err
	}

	now := s.now()
	event := ClockEvent{
		ID:           s.idGenerator(),
		UserID:       input.UserID,
		StoreID:      input.StoreID,
		ShiftID:      input.ShiftID,
		BreakID:      input.BreakID,
		Kind:         input.Kind,
		SelectedTime: input.SelectedTime,
		ActualTime:   now,
		Method:       input.Method,
		Status:       reconcile.InitialStatus(required),
		CreatedBy:    params.Principal.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	persisted, err := s.events.CreateClockEvent(ctx, event)
	if err != nil {
		s.loggerWith(ctx, "CreateClockEvent", "user_id", event.UserID, "store_id", event.StoreID).
			ErrorContext(ctx, "failed to record clock event", "error", err, "error_kind", ErrorKind(err))
		return ClockEvent{}, err
	}

	s.loggerWith(ctx, "CreateClockEvent",
		"event_id", persisted.ID,
		"user_id", persisted.UserID,
		"kind", string(persisted.Kind),
		"status", string(persisted.Status),
	).InfoContext(ctx, "clock event recorded")

	return persisted, nil
}

// EditSelectedTime changes the claimed instant of an existing record. When
// the store requires approval, an already-finalized record drops back to
// pending and loses its approver.
func (s *ClockEventService) EditSelectedTime(ctx context.Context, params EditSelectedTimeParams) (ClockEvent, error) {
	if s == nil {
		return ClockEvent{}, fmt.Errorf("ClockEventService is nil")
	}
	if s.events == nil {
		return ClockEvent{}, fmt.Errorf("clock event repository not configured")
	}

	vErr := &ValidationError{}
	if params.EventID == "" {
		vErr.add("event_id", "event id is required")
	}
	if params.SelectedTime.IsZero() {
		vErr.add("selected_time", "selected time is required")
	}
	if vErr.HasErrors() {
		return ClockEvent{}, vErr
	}

	existing, err := s.events.GetClockEvent(ctx, params.EventID)
	if err != nil {
		return ClockEvent{}, err
	}

	if existing.UserID != params.Principal.UserID && !params.Principal.IsAdmin {
		return ClockEvent{}, ErrUnauthorized
	}

	required, err := s.approvalRequired(ctx, existing.StoreID)
	if err != nil {
		return ClockEvent{}, err
	}

	updated := existing
	updated.SelectedTime = params.SelectedTime
	updated.UpdatedAt = s.now()
	if reconcile.ResetsToPendingOnEdit(required, existing.Status) {
		updated.Status = reconcile.StatusPending
		updated.ApprovedBy = nil
	}

	persisted, err := s.events.UpdateClockEvent(ctx, updated)
	if err != nil {
		return ClockEvent{}, err
	}

	s.loggerWith(ctx, "EditSelectedTime",
		"event_id", persisted.ID,
		"status", string(persisted.Status),
	).InfoContext(ctx, "clock event time edited")

	return persisted, nil
}

// ApplyApproval approves or rejects a record. The approver id is validated
// before any persistence call is attempted.
func (s *ClockEventService) ApplyApproval(ctx context.Context, params ApplyApprovalParams) (ClockEvent, error) {
	if s == nil {
		return ClockEvent{}, fmt.Errorf("ClockEventService is nil")
	}
	if s.events == nil {
		return ClockEvent{}, fmt.Errorf("clock event repository not configured")
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(params.ApproverID) == "" {
		vErr.add("approver_id", "approver id is required")
	}
	if params.Decision != DecisionApproved && params.Decision != DecisionRejected {
		vErr.add("decision", "decision must be approved or rejected")
	}
	if vErr.HasErrors() {
		return ClockEvent{}, vErr
	}

	if !params.Principal.IsAdmin {
		return ClockEvent{}, ErrUnauthorized
	}

	existing, err := s.events.GetClockEvent(ctx, params.EventID)
	if err != nil {
		return ClockEvent{}, err
	}

	approver := strings.TrimSpace(params.ApproverID)
	updated := existing
	updated.Status = reconcile.Status(params.Decision)
	updated.ApprovedBy = &approver
	updated.UpdatedAt = s.now()

	persisted, err := s.events.UpdateClockEvent(ctx, updated)
	if err != nil {
		return ClockEvent{}, err
	}

	s.loggerWith(ctx, "ApplyApproval",
		"event_id", persisted.ID,
		"decision", string(params.Decision),
		"approver_id", approver,
	).InfoContext(ctx, "approval decision applied")

	return persisted, nil
}

// ResolveWorkStatus derives the member's current state from today's events.
// Approved events are preferred over pending ones by recency; rejected
// events never drive the state.
func (s *ClockEventService) ResolveWorkStatus(ctx context.Context, principal Principal, userID, storeID string) (WorkStatusResult, error) {
	if s == nil {
		return WorkStatusResult{}, fmt.Errorf("ClockEventService is nil")
	}
	if s.events == nil {
		return WorkStatusResult{}, fmt.Errorf("clock event repository not configured")
	}
	if userID == "" {
		userID = principal.UserID
	}
	if userID != principal.UserID && !principal.IsAdmin {
		return WorkStatusResult{}, ErrUnauthorized
	}

	now := s.now()
	from := timeutil.StartOfDay(now)
	to := timeutil.NextMidnight(now)

	records, err := s.events.ListClockEvents(ctx, ClockEventQuery{
		UserID:  userID,
		StoreID: storeID,
		From:    &from,
		To:      &to,
	})
	if err != nil {
		return WorkStatusResult{}, err
	}

	coreEvents := make([]reconcile.Event, len(records))
	for i, record := range records {
		coreEvents[i] = reconcile.Event{
			Kind:         record.Kind,
			Status:       record.Status,
			SelectedTime: record.SelectedTime,
		}
	}

	result := WorkStatusResult{Records: records}
	if idx := reconcile.LatestEventIndex(coreEvents); idx >= 0 {
		last := records[idx]
		result.LastRecord = &last
		result.Status = reconcile.ResolveWorkStatus(&coreEvents[idx])
	} else {
		result.Status = reconcile.ResolveWorkStatus(nil)
	}

	return result, nil
}

func validateClockEventInput(input ClockEventInput) *ValidationError {
	vErr := &ValidationError{}

	if input.UserID == "" {
		vErr.add("user_id", "user id is required")
	}
	if input.StoreID == "" {
		vErr.add("store_id", "store id is required")
	}
	if !input.Kind.Valid() {
		vErr.add("kind", "kind must be one of clock_in, clock_out, break_start, break_end")
	}
	if input.SelectedTime.IsZero() {
		vErr.add("selected_time", "selected time is required")
	}
	switch input.Method {
	case "scheduled", "current", "manual":
	default:
		vErr.add("method", "method must be one of scheduled, current, manual")
	}

	return vErr
}
