package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/shift-attendance/internal/reconcile"
)

// clockEventRepositoryStub provides an in-memory ClockEventRepository for tests.
type clockEventRepositoryStub struct {
	events map[string]ClockEvent

	createErr error
	getErr    error
	updateErr error
	listErr   error
}

func newClockEventRepositoryStub() *clockEventRepositoryStub {
	return &clockEventRepositoryStub{events: make(map[string]ClockEvent)}
}

func (s *clockEventRepositoryStub) seed(event ClockEvent) {
	s.events[event.ID] = event
}

func (s *clockEventRepositoryStub) CreateClockEvent(ctx context.Context, event ClockEvent) (ClockEvent, error) {
	if s.createErr != nil {
		return ClockEvent{}, s.createErr
	}
	s.events[event.ID] = event
	return event, nil
}

func (s *clockEventRepositoryStub) GetClockEvent(ctx context.Context, id string) (ClockEvent, error) {
	if s.getErr != nil {
		return ClockEvent{}, s.getErr
	}
	event, ok := s.events[id]
	if !ok {
		return ClockEvent{}, ErrNotFound
	}
	return event, nil
}

func (s *clockEventRepositoryStub) UpdateClockEvent(ctx context.Context, event ClockEvent) (ClockEvent, error) {
	if s.updateErr != nil {
		return ClockEvent{}, s.updateErr
	}
	if _, ok := s.events[event.ID]; !ok {
		return ClockEvent{}, ErrNotFound
	}
	s.events[event.ID] = event
	return event, nil
}

func (s *clockEventRepositoryStub) ListClockEvents(ctx context.Context, query ClockEventQuery) ([]ClockEvent, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []ClockEvent
	for _, event := range s.events {
		if query.UserID != "" && event.UserID != query.UserID {
			continue
		}
		if query.StoreID != "" && event.StoreID != query.StoreID {
			continue
		}
		if len(query.Statuses) > 0 {
			matched := false
			for _, status := range query.Statuses {
				if event.Status == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		if query.From != nil && event.SelectedTime.Before(*query.From) {
			continue
		}
		if query.To != nil && !event.SelectedTime.Before(*query.To) {
			continue
		}
		out = append(out, event)
	}
	return out, nil
}

// settingsStub implements StoreSettingsRepository for tests.
type settingsStub struct {
	settings map[string]StoreSettings
	err      error
}

func (s *settingsStub) GetStoreSettings(ctx context.Context, storeID string) (StoreSettings, error) {
	if s.err != nil {
		return StoreSettings{}, s.err
	}
	settings, ok := s.settings[storeID]
	if !ok {
		return StoreSettings{}, ErrNotFound
	}
	return settings, nil
}

func fixedNow() time.Time {
	return time.Date(2024, 3, 5, 9, 2, 0, 0, time.UTC)
}

func sequentialIDs(prefix string) func() string {
	counter := 0
	return func() string {
		counter++
		return prefix + "-" + string(rune('0'+counter))
	}
}

func TestClockEventService_CreateClockEvent(t *testing.T) {
	t.Parallel()

	t.Run("records approved event when approval not required", func(t *testing.T) {
		t.Parallel()

		repo := newClockEventRepositoryStub()
		settings := &settingsStub{settings: map[string]StoreSettings{
			"store-1": {StoreID: "store-1", ApprovalRequired: false},
		}}
		svc := NewClockEventService(repo, settings, sequentialIDs("evt"), fixedNow)

		event, err := svc.CreateClockEvent(context.Background(), CreateClockEventParams{
			Principal: Principal{UserID: "user-1"},
			Input: ClockEventInput{
				StoreID:      "store-1",
				Kind:         reconcile.KindClockIn,
				SelectedTime: time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC),
				Method:       "current",
			},
		})
		if err != nil {
			t.Fatalf("CreateClockEvent failed: %v", err)
		}

		if event.Status != reconcile.StatusApproved {
			t.Errorf("expected approved status, got %s", event.Status)
		}
		if event.UserID != "user-1" {
			t.Errorf("expected event owner to default to principal, got %s", event.UserID)
		}
		if !event.ActualTime.Equal(fixedNow()) {
			t.Errorf("expected actual time %v, got %v", fixedNow(), event.ActualTime)
		}
	})

	t.Run("records pending event when approval required", func(t *testing.T) {
		t.Parallel()

		repo := newClockEventRepositoryStub()
		settings := &settingsStub{settings: map[string]StoreSettings{
			"store-1": {StoreID: "store-1", ApprovalRequired: true},
		}}
		svc := NewClockEventService(repo, settings, sequentialIDs("evt"), fixedNow)

		event, err := svc.CreateClockEvent(context.Background(), CreateClockEventParams{
			Principal: Principal{UserID: "user-1"},
			Input: ClockEventInput{
				StoreID:      "store-1",
				Kind:         reconcile.KindClockOut,
				SelectedTime: time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC),
				Method:       "manual",
			},
		})
		if err != nil {
			t.Fatalf("CreateClockEvent failed: %v", err)
		}

		if event.Status != reconcile.StatusPending {
			t.Errorf("expected pending status, got %s", event.Status)
		}
	})

	t.Run("defaults to approved for a store without settings", func(t *testing.T) {
		t.Parallel()

		repo := newClockEventRepositoryStub()
		svc := NewClockEventService(repo, &settingsStub{}, sequentialIDs("evt"), fixedNow)

		event, err := svc.CreateClockEvent(context.Background(), CreateClockEventParams{
			Principal: Principal{UserID: "user-1"},
			Input: ClockEventInput{
				StoreID:      "store-x",
				Kind:         reconcile.KindClockIn,
				SelectedTime: time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC),
				Method:       "current",
			},
		})
		if err != nil {
			t.Fatalf("CreateClockEvent failed: %v", err)
		}
		if event.Status != reconcile.StatusApproved {
			t.Errorf("expected approved status, got %s", event.Status)
		}
	})

	t.Run("rejects invalid input before persistence", func(t *testing.T) {
		t.Parallel()

		repo := newClockEventRepositoryStub()
		repo.createErr = errors.New("should not be reached")
		svc := NewClockEventService(repo, &settingsStub{}, sequentialIDs("evt"), fixedNow)

		_, err := svc.CreateClockEvent(context.Background(), CreateClockEventParams{
			Principal: Principal{UserID: "user-1"},
			Input: ClockEventInput{
				Kind:   reconcile.EventKind("nap"),
				Method: "guess",
			},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"store_id", "kind", "selected_time", "method"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Errorf("expected field error for %s", field)
			}
		}
	})

	t.Run("rejects recording for another user without admin", func(t *testing.T) {
		t.Parallel()

		svc := NewClockEventService(newClockEventRepositoryStub(), &settingsStub{}, sequentialIDs("evt"), fixedNow)

		_, err := svc.CreateClockEvent(context.Background(), CreateClockEventParams{
			Principal: Principal{UserID: "user-1"},
			Input: ClockEventInput{
				UserID:       "user-2",
				StoreID:      "store-1",
				Kind:         reconcile.KindClockIn,
				SelectedTime: time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC),
				Method:       "current",
			},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestClockEventService_EditSelectedTime(t *testing.T) {
	t.Parallel()

	seedEvent := func(status reconcile.Status) ClockEvent {
		approver := "admin-1"
		return ClockEvent{
			ID:           "evt-1",
			UserID:       "user-1",
			StoreID:      "store-1",
			Kind:         reconcile.KindClockIn,
			SelectedTime: time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC),
			ActualTime:   time.Date(2024, 3, 5, 9, 2, 0, 0, time.UTC),
			Method:       "current",
			Status:       status,
			CreatedBy:    "user-1",
			ApprovedBy:   &approver,
		}
	}

	t.Run("resets approved record to pending when policy requires", func(t *testing.T) {
		t.Parallel()

		repo := newClockEventRepositoryStub()
		repo.seed(seedEvent(reconcile.StatusApproved))
		settings := &settingsStub{settings: map[string]StoreSettings{
			"store-1": {StoreID: "store-1", ApprovalRequired: true},
		}}
		svc := NewClockEventService(repo, settings, sequentialIDs("evt"), fixedNow)

		updated, err := svc.EditSelectedTime(context.Background(), EditSelectedTimeParams{
			Principal:    Principal{UserID: "user-1"},
			EventID:      "evt-1",
			SelectedTime: time.Date(2024, 3, 5, 8, 55, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("EditSelectedTime failed: %v", err)
		}

		if updated.Status != reconcile.StatusPending {
			t.Errorf("expected status pending, got %s", updated.Status)
		}
		if updated.ApprovedBy != nil {
			t.Errorf("expected approver to be cleared, got %v", *updated.ApprovedBy)
		}
	})

	t.Run("leaves status unchanged when approval not required", func(t *testing.T) {
		t.Parallel()

		repo := newClockEventRepositoryStub()
		repo.seed(seedEvent(reconcile.StatusApproved))
		settings := &settingsStub{settings: map[string]StoreSettings{
			"store-1": {StoreID: "store-1", ApprovalRequired: false},
		}}
		svc := NewClockEventService(repo, settings, sequentialIDs("evt"), fixedNow)

		updated, err := svc.EditSelectedTime(context.Background(), EditSelectedTimeParams{
			Principal:    Principal{UserID: "user-1"},
			EventID:      "evt-1",
			SelectedTime: time.Date(2024, 3, 5, 8, 55, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("EditSelectedTime failed: %v", err)
		}

		if updated.Status != reconcile.StatusApproved {
			t.Errorf("expected status to stay approved, got %s", updated.Status)
		}
		if updated.ApprovedBy == nil {
			t.Error("expected approver to be preserved")
		}
	})

	t.Run("pending record stays pending on edit", func(t *testing.T) {
		t.Parallel()

		repo := newClockEventRepositoryStub()
		event := seedEvent(reconcile.StatusPending)
		event.ApprovedBy = nil
		repo.seed(event)
		settings := &settingsStub{settings: map[string]StoreSettings{
			"store-1": {StoreID: "store-1", ApprovalRequired: true},
		}}
		svc := NewClockEventService(repo, settings, sequentialIDs("evt"), fixedNow)

		updated, err := svc.EditSelectedTime(context.Background(), EditSelectedTimeParams{
			Principal:    Principal{UserID: "user-1"},
			EventID:      "evt-1",
			SelectedTime: time.Date(2024, 3, 5, 8, 50, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("EditSelectedTime failed: %v", err)
		}
		if updated.Status != reconcile.StatusPending {
			t.Errorf("expected status pending, got %s", updated.Status)
		}
	})

	t.Run("rejects edits by another non-admin user", func(t *testing.T) {
		t.Parallel()

		repo := newClockEventRepositoryStub()
		repo.seed(seedEvent(reconcile.StatusApproved))
		svc := NewClockEventService(repo, &settingsStub{}, sequentialIDs("evt"), fixedNow)

		_, err := svc.EditSelectedTime(context.Background(), EditSelectedTimeParams{
			Principal:    Principal{UserID: "user-2"},
			EventID:      "evt-1",
			SelectedTime: time.Date(2024, 3, 5, 8, 55, 0, 0, time.UTC),
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("surfaces not found for missing record", func(t *testing.T) {
		t.Parallel()

		svc := NewClockEventService(newClockEventRepositoryStub(), &settingsStub{}, sequentialIDs("evt"), fixedNow)

		_, err := svc.EditSelectedTime(context.Background(), EditSelectedTimeParams{
			Principal:    Principal{UserID: "user-1"},
			EventID:      "missing",
			SelectedTime: time.Date(2024, 3, 5, 8, 55, 0, 0, time.UTC),
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestClockEventService_ApplyApproval(t *testing.T) {
	t.Parallel()

	seed := func(repo *clockEventRepositoryStub) {
		repo.seed(ClockEvent{
			ID:           "evt-1",
			UserID:       "user-1",
			StoreID:      "store-1",
			Kind:         reconcile.KindClockIn,
			SelectedTime: time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC),
			Status:       reconcile.StatusPending,
		})
	}

	t.Run("approves pending record", func(t *testing.T) {
		t.Parallel()

		repo := newClockEventRepositoryStub()
		seed(repo)
		svc := NewClockEventService(repo, &settingsStub{}, sequentialIDs("evt"), fixedNow)

		updated, err := svc.ApplyApproval(context.Background(), ApplyApprovalParams{
			Principal:  Principal{UserID: "admin-1", IsAdmin: true},
			EventID:    "evt-1",
			Decision:   DecisionApproved,
			ApproverID: "admin-1",
		})
		if err != nil {
			t.Fatalf("ApplyApproval failed: %v", err)
		}

		if updated.Status != reconcile.StatusApproved {
			t.Errorf("expected approved status, got %s", updated.Status)
		}
		if updated.ApprovedBy == nil || *updated.ApprovedBy != "admin-1" {
			t.Errorf("expected approver admin-1, got %v", updated.ApprovedBy)
		}
	})

	t.Run("rejects empty approver before persistence", func(t *testing.T) {
		t.Parallel()

		repo := newClockEventRepositoryStub()
		repo.getErr = errors.New("should not be reached")
		svc := NewClockEventService(repo, &settingsStub{}, sequentialIDs("evt"), fixedNow)

		_, err := svc.ApplyApproval(context.Background(), ApplyApprovalParams{
			Principal: Principal{UserID: "admin-1", IsAdmin: true},
			EventID:   "evt-1",
			Decision:  DecisionRejected,
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["approver_id"]; !ok {
			t.Error("expected field error for approver_id")
		}
	})

	t.Run("rejects unknown decision", func(t *testing.T) {
		t.Parallel()

		svc := NewClockEventService(newClockEventRepositoryStub(), &settingsStub{}, sequentialIDs("evt"), fixedNow)

		_, err := svc.ApplyApproval(context.Background(), ApplyApprovalParams{
			Principal:  Principal{UserID: "admin-1", IsAdmin: true},
			EventID:    "evt-1",
			Decision:   ApprovalDecision("maybe"),
			ApproverID: "admin-1",
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("surfaces not found for missing record", func(t *testing.T) {
		t.Parallel()

		svc := NewClockEventService(newClockEventRepositoryStub(), &settingsStub{}, sequentialIDs("evt"), fixedNow)

		_, err := svc.ApplyApproval(context.Background(), ApplyApprovalParams{
			Principal:  Principal{UserID: "admin-1", IsAdmin: true},
			EventID:    "missing",
			Decision:   DecisionApproved,
			ApproverID: "admin-1",
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("requires admin", func(t *testing.T) {
		t.Parallel()

		repo := newClockEventRepositoryStub()
		seed(repo)
		svc := NewClockEventService(repo, &settingsStub{}, sequentialIDs("evt"), fixedNow)

		_, err := svc.ApplyApproval(context.Background(), ApplyApprovalParams{
			Principal:  Principal{UserID: "user-1"},
			EventID:    "evt-1",
			Decision:   DecisionApproved,
			ApproverID: "user-1",
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestClockEventService_ResolveWorkStatus(t *testing.T) {
	t.Parallel()

	day := func(hour, minute int) time.Time {
		return time.Date(2024, 3, 5, hour, minute, 0, 0, time.UTC)
	}

	seed := func(repo *clockEventRepositoryStub, id string, kind reconcile.EventKind, status reconcile.Status, at time.Time) {
		repo.seed(ClockEvent{
			ID:           id,
			UserID:       "user-1",
			StoreID:      "store-1",
			Kind:         kind,
			SelectedTime: at,
			Status:       status,
		})
	}

	t.Run("no events means before work", func(t *testing.T) {
		t.Parallel()

		svc := NewClockEventService(newClockEventRepositoryStub(), &settingsStub{}, sequentialIDs("evt"), fixedNow)

		result, err := svc.ResolveWorkStatus(context.Background(), Principal{UserID: "user-1"}, "", "store-1")
		if err != nil {
			t.Fatalf("ResolveWorkStatus failed: %v", err)
		}
		if result.Status != reconcile.StateBeforeWork {
			t.Errorf("expected before_work, got %s", result.Status)
		}
		if result.LastRecord != nil {
			t.Errorf("expected no last record, got %+v", result.LastRecord)
		}
	})

	t.Run("latest approved event governs state", func(t *testing.T) {
		t.Parallel()

		repo := newClockEventRepositoryStub()
		seed(repo, "evt-1", reconcile.KindClockIn, reconcile.StatusApproved, day(9, 0))
		seed(repo, "evt-2", reconcile.KindBreakStart, reconcile.StatusApproved, day(12, 0))
		seed(repo, "evt-3", reconcile.KindClockOut, reconcile.StatusPending, day(18, 0))
		svc := NewClockEventService(repo, &settingsStub{}, sequentialIDs("evt"), fixedNow)

		result, err := svc.ResolveWorkStatus(context.Background(), Principal{UserID: "user-1"}, "", "store-1")
		if err != nil {
			t.Fatalf("ResolveWorkStatus failed: %v", err)
		}
		if result.Status != reconcile.StateOnBreak {
			t.Errorf("expected on_break from latest approved event, got %s", result.Status)
		}
		if result.LastRecord == nil || result.LastRecord.ID != "evt-2" {
			t.Errorf("expected last record evt-2, got %+v", result.LastRecord)
		}
		if len(result.Records) != 3 {
			t.Errorf("expected all 3 records returned, got %d", len(result.Records))
		}
	})

	t.Run("falls back to pending events", func(t *testing.T) {
		t.Parallel()

		repo := newClockEventRepositoryStub()
		seed(repo, "evt-1", reconcile.KindClockIn, reconcile.StatusPending, day(9, 0))
		svc := NewClockEventService(repo, &settingsStub{}, sequentialIDs("evt"), fixedNow)

		result, err := svc.ResolveWorkStatus(context.Background(), Principal{UserID: "user-1"}, "", "store-1")
		if err != nil {
			t.Fatalf("ResolveWorkStatus failed: %v", err)
		}
		if result.Status != reconcile.StateWorking {
			t.Errorf("expected working, got %s", result.Status)
		}
	})

	t.Run("rejects viewing another user without admin", func(t *testing.T) {
		t.Parallel()

		svc := NewClockEventService(newClockEventRepositoryStub(), &settingsStub{}, sequentialIDs("evt"), fixedNow)

		_, err := svc.ResolveWorkStatus(context.Background(), Principal{UserID: "user-1"}, "user-2", "store-1")
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}
