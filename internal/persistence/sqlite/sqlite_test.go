package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/shift-attendance/internal/persistence"
)

func newTestPool(t *testing.T) *ConnectionPool {
	t.Helper()

	pool, err := Open(filepath.Join(t.TempDir(), "attendance.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = pool.Close()
	})

	if err := pool.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return pool
}

func seedStaff(t *testing.T, pool *ConnectionPool, id, email string) persistence.Staff {
	t.Helper()

	now := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	staff := persistence.Staff{
		ID:           id,
		Email:        email,
		DisplayName:  "山田 太郎",
		PasswordHash: "argon2id$test-hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := NewStaffRepository(pool).CreateStaff(context.Background(), staff); err != nil {
		t.Fatalf("failed to seed staff: %v", err)
	}
	return staff
}

func TestStaffRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	repo := NewStaffRepository(pool)
	ctx := context.Background()

	created := seedStaff(t, pool, "staff-1", "Taro@Example.com")

	got, err := repo.GetStaff(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetStaff failed: %v", err)
	}
	if got.Email != "taro@example.com" {
		t.Errorf("expected lowercased email, got %q", got.Email)
	}
	if got.DisplayName != created.DisplayName {
		t.Errorf("expected display name %q, got %q", created.DisplayName, got.DisplayName)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("expected created_at %v, got %v", created.CreatedAt, got.CreatedAt)
	}

	byEmail, err := repo.GetStaffByEmail(ctx, "TARO@example.COM")
	if err != nil {
		t.Fatalf("GetStaffByEmail failed: %v", err)
	}
	if byEmail.ID != created.ID {
		t.Errorf("expected staff %q, got %q", created.ID, byEmail.ID)
	}

	if err := repo.DeleteStaff(ctx, created.ID); err != nil {
		t.Fatalf("DeleteStaff failed: %v", err)
	}
	if _, err := repo.GetStaff(ctx, created.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStaffRepositoryDuplicateEmail(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	seedStaff(t, pool, "staff-1", "taro@example.com")

	err := NewStaffRepository(pool).CreateStaff(context.Background(), persistence.Staff{
		ID:           "staff-2",
		Email:        "TARO@example.com",
		DisplayName:  "別人",
		PasswordHash: "argon2id$other",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	})
	if !errors.Is(err, persistence.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestStoreRepositorySettingsUpsert(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	repo := NewStoreRepository(pool)
	ctx := context.Background()

	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if err := repo.CreateStore(ctx, persistence.Store{
		ID:        "store-1",
		CompanyID: "company-1",
		Name:      "渋谷店",
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("CreateStore failed: %v", err)
	}

	if _, err := repo.GetStoreSettings(ctx, "store-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before upsert, got %v", err)
	}

	if err := repo.UpsertStoreSettings(ctx, persistence.StoreSettings{
		StoreID:          "store-1",
		ApprovalRequired: true,
		UpdatedAt:        now,
	}); err != nil {
		t.Fatalf("UpsertStoreSettings failed: %v", err)
	}

	settings, err := repo.GetStoreSettings(ctx, "store-1")
	if err != nil {
		t.Fatalf("GetStoreSettings failed: %v", err)
	}
	if !settings.ApprovalRequired {
		t.Error("expected approval_required to be true")
	}

	// Second upsert overwrites the existing row.
	if err := repo.UpsertStoreSettings(ctx, persistence.StoreSettings{
		StoreID:          "store-1",
		ApprovalRequired: false,
		UpdatedAt:        now.Add(time.Hour),
	}); err != nil {
		t.Fatalf("second UpsertStoreSettings failed: %v", err)
	}

	settings, err = repo.GetStoreSettings(ctx, "store-1")
	if err != nil {
		t.Fatalf("GetStoreSettings failed: %v", err)
	}
	if settings.ApprovalRequired {
		t.Error("expected approval_required to be false after second upsert")
	}
}

func TestStoreMembers(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	repo := NewStoreRepository(pool)
	ctx := context.Background()

	staff := seedStaff(t, pool, "staff-1", "taro@example.com")

	member := persistence.StoreMember{
		StoreID:   "store-1",
		UserID:    staff.ID,
		Role:      "staff",
		CreatedAt: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := repo.CreateStoreMember(ctx, member); err != nil {
		t.Fatalf("CreateStoreMember failed: %v", err)
	}

	if err := repo.CreateStoreMember(ctx, member); !errors.Is(err, persistence.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate on repeat insert, got %v", err)
	}

	members, err := repo.ListStoreMembers(ctx, "store-1")
	if err != nil {
		t.Fatalf("ListStoreMembers failed: %v", err)
	}
	if len(members) != 1 || members[0].UserID != staff.ID {
		t.Fatalf("unexpected members: %+v", members)
	}

	if err := repo.DeleteStoreMember(ctx, "store-1", staff.ID); err != nil {
		t.Fatalf("DeleteStoreMember failed: %v", err)
	}
	if err := repo.DeleteStoreMember(ctx, "store-1", staff.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestClockEventRepositoryOrderingAcrossOffsets(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	repo := NewClockEventRepository(pool)
	ctx := context.Background()

	jst := time.FixedZone("JST", 9*60*60)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	// Stored with different offsets; the later UTC instant carries the
	// smaller lexicographic string, so ordering must go through datetime().
	early := persistence.ClockEvent{
		ID:           "evt-1",
		UserID:       "staff-1",
		StoreID:      "store-1",
		Kind:         "clock_in",
		SelectedTime: time.Date(2024, 3, 1, 18, 0, 0, 0, jst), // 09:00 UTC
		ActualTime:   base,
		Method:       "current",
		Status:       "approved",
		CreatedBy:    "staff-1",
		CreatedAt:    base,
		UpdatedAt:    base,
	}
	late := persistence.ClockEvent{
		ID:           "evt-2",
		UserID:       "staff-1",
		StoreID:      "store-1",
		Kind:         "clock_out",
		SelectedTime: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		ActualTime:   base,
		Method:       "current",
		Status:       "approved",
		CreatedBy:    "staff-1",
		CreatedAt:    base,
		UpdatedAt:    base,
	}

	for _, event := range []persistence.ClockEvent{late, early} {
		if err := repo.CreateClockEvent(ctx, event); err != nil {
			t.Fatalf("CreateClockEvent(%s) failed: %v", event.ID, err)
		}
	}

	events, err := repo.ListClockEvents(ctx, persistence.ClockEventFilter{UserID: "staff-1"})
	if err != nil {
		t.Fatalf("ListClockEvents failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ID != "evt-1" || events[1].ID != "evt-2" {
		t.Errorf("expected chronological order evt-1, evt-2, got %s, %s", events[0].ID, events[1].ID)
	}

	// The stored value keeps the offset the caller supplied.
	if got := events[0].SelectedTime.Format("2006-01-02"); got != "2024-03-01" {
		t.Errorf("expected local date 2024-03-01, got %s", got)
	}
	if !events[0].SelectedTime.Equal(early.SelectedTime) {
		t.Errorf("expected instant %v, got %v", early.SelectedTime, events[0].SelectedTime)
	}
}

func TestClockEventRepositoryFilters(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	repo := NewClockEventRepository(pool)
	ctx := context.Background()

	base := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	statuses := []string{"pending", "approved", "rejected"}
	for i, status := range statuses {
		event := persistence.ClockEvent{
			ID:           "evt-" + status,
			UserID:       "staff-1",
			StoreID:      "store-1",
			Kind:         "clock_in",
			SelectedTime: base.Add(time.Duration(i) * time.Hour),
			ActualTime:   base,
			Method:       "manual",
			Status:       status,
			CreatedBy:    "staff-1",
			CreatedAt:    base,
			UpdatedAt:    base,
		}
		if err := repo.CreateClockEvent(ctx, event); err != nil {
			t.Fatalf("CreateClockEvent failed: %v", err)
		}
	}

	approved, err := repo.ListClockEvents(ctx, persistence.ClockEventFilter{
		UserID:   "staff-1",
		Statuses: []string{"approved"},
	})
	if err != nil {
		t.Fatalf("ListClockEvents failed: %v", err)
	}
	if len(approved) != 1 || approved[0].Status != "approved" {
		t.Fatalf("unexpected filtered events: %+v", approved)
	}

	from := base.Add(30 * time.Minute)
	to := base.Add(90 * time.Minute)
	window, err := repo.ListClockEvents(ctx, persistence.ClockEventFilter{
		UserID: "staff-1",
		From:   &from,
		To:     &to,
	})
	if err != nil {
		t.Fatalf("ListClockEvents failed: %v", err)
	}
	if len(window) != 1 || window[0].ID != "evt-approved" {
		t.Fatalf("unexpected windowed events: %+v", window)
	}
}

func TestClockEventUpdateKeepsActualTime(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	repo := NewClockEventRepository(pool)
	ctx := context.Background()

	actual := time.Date(2024, 3, 10, 9, 3, 0, 0, time.UTC)
	event := persistence.ClockEvent{
		ID:           "evt-1",
		UserID:       "staff-1",
		StoreID:      "store-1",
		Kind:         "clock_in",
		SelectedTime: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
		ActualTime:   actual,
		Method:       "current",
		Status:       "approved",
		CreatedBy:    "staff-1",
		CreatedAt:    actual,
		UpdatedAt:    actual,
	}
	if err := repo.CreateClockEvent(ctx, event); err != nil {
		t.Fatalf("CreateClockEvent failed: %v", err)
	}

	event.SelectedTime = time.Date(2024, 3, 10, 8, 55, 0, 0, time.UTC)
	event.ActualTime = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	event.Status = "pending"
	if err := repo.UpdateClockEvent(ctx, event); err != nil {
		t.Fatalf("UpdateClockEvent failed: %v", err)
	}

	got, err := repo.GetClockEvent(ctx, "evt-1")
	if err != nil {
		t.Fatalf("GetClockEvent failed: %v", err)
	}
	if !got.ActualTime.Equal(actual) {
		t.Errorf("expected actual_time to stay %v, got %v", actual, got.ActualTime)
	}
	if got.Status != "pending" {
		t.Errorf("expected status pending, got %s", got.Status)
	}
	if !got.SelectedTime.Equal(event.SelectedTime) {
		t.Errorf("expected selected_time %v, got %v", event.SelectedTime, got.SelectedTime)
	}
}

func TestShiftRepositoryWithBreaks(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	repo := NewShiftRepository(pool)
	ctx := context.Background()

	now := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	shift := persistence.Shift{
		ID:        "shift-1",
		UserID:    "staff-1",
		StoreID:   "store-1",
		Start:     time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC),
		End:       time.Date(2024, 4, 1, 18, 0, 0, 0, time.UTC),
		CreatedBy: "manager-1",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateShift(ctx, shift); err != nil {
		t.Fatalf("CreateShift failed: %v", err)
	}

	brk := persistence.ShiftBreak{
		ID:         "break-1",
		ShiftID:    shift.ID,
		BreakStart: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
		BreakEnd:   time.Date(2024, 4, 1, 13, 0, 0, 0, time.UTC),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := repo.CreateShiftBreak(ctx, brk); err != nil {
		t.Fatalf("CreateShiftBreak failed: %v", err)
	}

	breaks, err := repo.ListShiftBreaks(ctx, shift.ID)
	if err != nil {
		t.Fatalf("ListShiftBreaks failed: %v", err)
	}
	if len(breaks) != 1 || !breaks[0].BreakStart.Equal(brk.BreakStart) {
		t.Fatalf("unexpected breaks: %+v", breaks)
	}

	// Deleting the shift cascades to its breaks.
	if err := repo.DeleteShift(ctx, shift.ID); err != nil {
		t.Fatalf("DeleteShift failed: %v", err)
	}
	breaks, err = repo.ListShiftBreaks(ctx, shift.ID)
	if err != nil {
		t.Fatalf("ListShiftBreaks after delete failed: %v", err)
	}
	if len(breaks) != 0 {
		t.Errorf("expected cascade delete of breaks, got %+v", breaks)
	}
}

func TestShiftRepositoryStartWindowFilter(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	repo := NewShiftRepository(pool)
	ctx := context.Background()

	now := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	days := []int{1, 2, 3}
	for _, day := range days {
		shift := persistence.Shift{
			ID:        "shift-" + time.Date(2024, 4, day, 0, 0, 0, 0, time.UTC).Format("02"),
			UserID:    "staff-1",
			StoreID:   "store-1",
			Start:     time.Date(2024, 4, day, 9, 0, 0, 0, time.UTC),
			End:       time.Date(2024, 4, day, 18, 0, 0, 0, time.UTC),
			CreatedBy: "manager-1",
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := repo.CreateShift(ctx, shift); err != nil {
			t.Fatalf("CreateShift failed: %v", err)
		}
	}

	from := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
	before := time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC)
	shifts, err := repo.ListShifts(ctx, persistence.ShiftFilter{
		StoreID:     "store-1",
		StartFrom:   &from,
		StartBefore: &before,
	})
	if err != nil {
		t.Fatalf("ListShifts failed: %v", err)
	}
	if len(shifts) != 1 || shifts[0].ID != "shift-02" {
		t.Fatalf("unexpected shifts: %+v", shifts)
	}
}

func TestSessionRepositoryLifecycle(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	repo := NewSessionRepository(pool)
	ctx := context.Background()

	staff := seedStaff(t, pool, "staff-1", "taro@example.com")

	created, err := repo.CreateSession(ctx, persistence.Session{
		ID:        "session-1",
		UserID:    staff.ID,
		Token:     "  token-value  ",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if created.Token != "token-value" {
		t.Errorf("expected trimmed token, got %q", created.Token)
	}

	got, err := repo.GetSession(ctx, "token-value")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.RevokedAt != nil {
		t.Error("expected fresh session to be unrevoked")
	}

	revokedAt := time.Now()
	revoked, err := repo.RevokeSession(ctx, "token-value", revokedAt)
	if err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if revoked.RevokedAt == nil {
		t.Fatal("expected revoked_at to be set")
	}

	if _, err := repo.RevokeSession(ctx, "missing-token", revokedAt); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing token, got %v", err)
	}

	if err := repo.DeleteExpiredSessions(ctx, time.Now().Add(48*time.Hour)); err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}
	if _, err := repo.GetSession(ctx, "token-value"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("expected session to be purged, got %v", err)
	}
}

func TestShiftCopyAuditInsert(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t)
	repo := NewShiftCopyAuditRepository(pool)

	err := repo.CreateShiftCopyAudit(context.Background(), persistence.ShiftCopyAudit{
		ID:         "audit-1",
		ActorID:    "manager-1",
		SourceDate: "2024-04-01",
		TargetDate: "2024-04-08",
		Overwrite:  true,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateShiftCopyAudit failed: %v", err)
	}
}
