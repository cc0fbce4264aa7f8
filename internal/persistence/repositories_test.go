package persistence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/shift-attendance/internal/persistence"
	"github.com/example/shift-attendance/internal/persistence/sqlite"
	"github.com/example/shift-attendance/internal/reconcile"
	"github.com/example/shift-attendance/internal/testfixtures"
)

var (
	_ persistence.StaffRepository          = (*sqlite.StaffRepository)(nil)
	_ persistence.StoreRepository          = (*sqlite.StoreRepository)(nil)
	_ persistence.StoreMemberRepository    = (*sqlite.StoreRepository)(nil)
	_ persistence.StoreSettingsRepository  = (*sqlite.StoreRepository)(nil)
	_ persistence.ClockEventRepository     = (*sqlite.ClockEventRepository)(nil)
	_ persistence.ShiftRepository          = (*sqlite.ShiftRepository)(nil)
	_ persistence.ShiftCopyAuditRepository = (*sqlite.ShiftCopyAuditRepository)(nil)
	_ persistence.SessionRepository        = (*sqlite.SessionRepository)(nil)
)

func TestStaffRepositoryFixtureRoundTrip(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	fixture := testfixtures.NewStaffFixture(testfixtures.WithStaffAdmin())
	if err := harness.Staff.CreateStaff(ctx, fixture.Persistence()); err != nil {
		t.Fatalf("CreateStaff failed: %v", err)
	}

	got, err := harness.Staff.GetStaffByEmail(ctx, fixture.Email)
	if err != nil {
		t.Fatalf("GetStaffByEmail failed: %v", err)
	}
	if got.ID != fixture.ID {
		t.Fatalf("expected staff %q, got %q", fixture.ID, got.ID)
	}
	if !got.IsAdmin {
		t.Fatal("expected admin flag to survive the round trip")
	}
	if !got.CreatedAt.Equal(fixture.CreatedAt) {
		t.Fatalf("expected created_at %v, got %v", fixture.CreatedAt, got.CreatedAt)
	}

	if _, err := harness.Staff.GetStaff(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreMembershipFixtures(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	staff := testfixtures.NewStaffFixture()
	if err := harness.Staff.CreateStaff(ctx, staff.Persistence()); err != nil {
		t.Fatalf("CreateStaff failed: %v", err)
	}
	store := testfixtures.NewStoreFixture(testfixtures.WithStoreName("渋谷店"))
	if err := harness.Stores.CreateStore(ctx, store.Persistence()); err != nil {
		t.Fatalf("CreateStore failed: %v", err)
	}

	member := persistence.StoreMember{
		StoreID:   store.ID,
		UserID:    staff.ID,
		Role:      "staff",
		CreatedAt: testfixtures.ReferenceTime(),
	}
	if err := harness.Stores.CreateStoreMember(ctx, member); err != nil {
		t.Fatalf("CreateStoreMember failed: %v", err)
	}

	members, err := harness.Stores.ListStoreMembers(ctx, store.ID)
	if err != nil {
		t.Fatalf("ListStoreMembers failed: %v", err)
	}
	if len(members) != 1 || members[0].UserID != staff.ID {
		t.Fatalf("unexpected members: %+v", members)
	}

	unknown := persistence.StoreMember{
		StoreID:   store.ID,
		UserID:    "no-such-staff",
		Role:      "staff",
		CreatedAt: testfixtures.ReferenceTime(),
	}
	if err := harness.Stores.CreateStoreMember(ctx, unknown); !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
	}
}

func TestStoreMembersListedByStaff(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	staff := testfixtures.NewStaffFixture()
	if err := harness.Staff.CreateStaff(ctx, staff.Persistence()); err != nil {
		t.Fatalf("CreateStaff failed: %v", err)
	}

	stores := []testfixtures.StoreFixture{
		testfixtures.NewStoreFixture(testfixtures.WithStoreName("新宿店")),
		testfixtures.NewStoreFixture(testfixtures.WithStoreName("池袋店")),
	}
	roles := []string{"manager", "staff"}
	for i, store := range stores {
		if err := harness.Stores.CreateStore(ctx, store.Persistence()); err != nil {
			t.Fatalf("CreateStore failed: %v", err)
		}
		member := persistence.StoreMember{
			StoreID:   store.ID,
			UserID:    staff.ID,
			Role:      roles[i],
			CreatedAt: testfixtures.ReferenceTime(),
		}
		if err := harness.Stores.CreateStoreMember(ctx, member); err != nil {
			t.Fatalf("CreateStoreMember failed: %v", err)
		}
	}

	members, err := harness.Stores.ListStoreMembersForStaff(ctx, staff.ID)
	if err != nil {
		t.Fatalf("ListStoreMembersForStaff failed: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 memberships, got %+v", members)
	}
	for i := 1; i < len(members); i++ {
		if members[i-1].StoreID > members[i].StoreID {
			t.Fatalf("expected memberships ordered by store, got %+v", members)
		}
	}

	none, err := harness.Stores.ListStoreMembersForStaff(ctx, "no-such-staff")
	if err != nil {
		t.Fatalf("ListStoreMembersForStaff for unknown staff failed: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no memberships, got %+v", none)
	}
}

func TestClockEventFixtureRoundTrip(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	staff := testfixtures.NewStaffFixture()
	if err := harness.Staff.CreateStaff(ctx, staff.Persistence()); err != nil {
		t.Fatalf("CreateStaff failed: %v", err)
	}

	selected := time.Date(2024, time.March, 5, 9, 2, 0, 0, time.UTC)
	fixture := testfixtures.NewClockEventFixture(
		testfixtures.WithEventUser(staff.ID),
		testfixtures.WithEventKind(reconcile.KindClockIn),
		testfixtures.WithEventSelectedTime(selected),
		testfixtures.WithEventStatus(reconcile.StatusPending),
	)
	if err := harness.ClockEvents.CreateClockEvent(ctx, fixture.Persistence()); err != nil {
		t.Fatalf("CreateClockEvent failed: %v", err)
	}

	events, err := harness.ClockEvents.ListClockEvents(ctx, persistence.ClockEventFilter{
		UserID:   staff.ID,
		Statuses: []string{string(reconcile.StatusPending)},
	})
	if err != nil {
		t.Fatalf("ListClockEvents failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if !events[0].SelectedTime.Equal(selected) {
		t.Fatalf("expected selected time %v, got %v", selected, events[0].SelectedTime)
	}
	if events[0].Kind != string(reconcile.KindClockIn) {
		t.Fatalf("unexpected kind %q", events[0].Kind)
	}
}

func TestShiftFixtureWithBreaks(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	start := time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC)
	fixture := testfixtures.NewShiftFixture(
		testfixtures.WithShiftUser("staff-a"),
		testfixtures.WithShiftSpan(start, start.Add(8*time.Hour)),
	)
	if err := harness.Shifts.CreateShift(ctx, fixture.Persistence()); err != nil {
		t.Fatalf("CreateShift failed: %v", err)
	}

	brk := persistence.ShiftBreak{
		ID:         fixture.ID + "-break",
		ShiftID:    fixture.ID,
		BreakStart: start.Add(3 * time.Hour),
		BreakEnd:   start.Add(3*time.Hour + 45*time.Minute),
		CreatedAt:  fixture.CreatedAt,
		UpdatedAt:  fixture.CreatedAt,
	}
	if err := harness.Shifts.CreateShiftBreak(ctx, brk); err != nil {
		t.Fatalf("CreateShiftBreak failed: %v", err)
	}

	from := start.Add(-time.Hour)
	before := start.Add(time.Hour)
	shifts, err := harness.Shifts.ListShifts(ctx, persistence.ShiftFilter{
		UserID:      "staff-a",
		StartFrom:   &from,
		StartBefore: &before,
	})
	if err != nil {
		t.Fatalf("ListShifts failed: %v", err)
	}
	if len(shifts) != 1 {
		t.Fatalf("expected 1 shift, got %d", len(shifts))
	}

	breaks, err := harness.Shifts.ListShiftBreaks(ctx, fixture.ID)
	if err != nil {
		t.Fatalf("ListShiftBreaks failed: %v", err)
	}
	if len(breaks) != 1 || !breaks[0].BreakStart.Equal(brk.BreakStart) {
		t.Fatalf("unexpected breaks: %+v", breaks)
	}
}

func TestSessionFixtureLifecycle(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	staff := testfixtures.NewStaffFixture()
	if err := harness.Staff.CreateStaff(ctx, staff.Persistence()); err != nil {
		t.Fatalf("CreateStaff failed: %v", err)
	}

	fixture := testfixtures.NewSessionFixture(testfixtures.WithSessionUser(staff.ID))
	if _, err := harness.Sessions.CreateSession(ctx, fixture.Persistence()); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	got, err := harness.Sessions.GetSession(ctx, fixture.Token)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.UserID != staff.ID {
		t.Fatalf("expected session for %q, got %q", staff.ID, got.UserID)
	}
	if got.RevokedAt != nil {
		t.Fatal("expected active session")
	}

	revokedAt := fixture.CreatedAt.Add(time.Hour)
	revoked, err := harness.Sessions.RevokeSession(ctx, fixture.Token, revokedAt)
	if err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if revoked.RevokedAt == nil || !revoked.RevokedAt.Equal(revokedAt) {
		t.Fatalf("expected revoked_at %v, got %+v", revokedAt, revoked.RevokedAt)
	}
}

func TestShiftCopyAuditFixture(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	audit := persistence.ShiftCopyAudit{
		ID:         "audit-1",
		ActorID:    "staff-admin",
		SourceDate: "2024-03-04",
		TargetDate: "2024-03-05",
		Overwrite:  true,
		CreatedAt:  testfixtures.ReferenceTime(),
	}
	if err := harness.Audits.CreateShiftCopyAudit(ctx, audit); err != nil {
		t.Fatalf("CreateShiftCopyAudit failed: %v", err)
	}
}
