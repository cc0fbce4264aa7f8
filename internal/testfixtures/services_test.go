package testfixtures

import (
	"context"
	"testing"
	"time"

	"github.com/example/shift-attendance/internal/application"
)

type capturingShiftRepo struct {
	created application.Shift
}

func (c *capturingShiftRepo) ListShifts(ctx context.Context, query application.ShiftQuery) ([]application.Shift, error) {
	return nil, nil
}

func (c *capturingShiftRepo) CreateShift(ctx context.Context, shift application.Shift) (application.Shift, error) {
	c.created = shift
	return shift, nil
}

func (c *capturingShiftRepo) UpdateShift(ctx context.Context, shift application.Shift) (application.Shift, error) {
	return shift, nil
}

func (c *capturingShiftRepo) CreateShiftBreak(ctx context.Context, brk application.ShiftBreak) (application.ShiftBreak, error) {
	return brk, nil
}

func (c *capturingShiftRepo) DeleteShiftBreaks(ctx context.Context, shiftID string) error {
	return nil
}

func TestServiceFactoryNewShiftService(t *testing.T) {
	factory := NewServiceFactory()
	repo := &capturingShiftRepo{}

	svc := factory.NewShiftService(ShiftServiceDeps{Shifts: repo})
	principal := application.Principal{UserID: "admin", IsAdmin: true}
	start := time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC)
	input := application.ShiftInput{
		UserID:  "staff-1",
		StoreID: "store-1",
		Start:   start,
		End:     start.Add(8 * time.Hour),
	}

	shift, err := svc.CreateShift(context.Background(), application.CreateShiftParams{Principal: principal, Input: input})
	if err != nil {
		t.Fatalf("CreateShift returned error: %v", err)
	}

	if shift.ID != "id-1" {
		t.Fatalf("expected generated ID id-1, got %q", shift.ID)
	}
	if repo.created.ID != shift.ID {
		t.Fatalf("repository received unexpected ID: %q", repo.created.ID)
	}
	if !shift.CreatedAt.Equal(factory.Clock.Current()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Current(), shift.CreatedAt)
	}
}
