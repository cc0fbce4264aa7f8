package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/shift-attendance/internal/application"
	"github.com/example/shift-attendance/internal/persistence"
	"github.com/example/shift-attendance/internal/reconcile"
)

var (
	staffCounter   uint64
	storeCounter   uint64
	eventCounter   uint64
	shiftCounter   uint64
	sessionCounter uint64
)

var referenceTime = time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- Staff fixtures -----------------------------

// StaffFixture represents a deterministic staff record that can be
// materialised for application or persistence tests.
type StaffFixture struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StaffOption configures the generated staff fixture.
type StaffOption func(*StaffFixture)

// NewStaffFixture returns a deterministic staff fixture with optional overrides.
func NewStaffFixture(opts ...StaffOption) StaffFixture {
	idx := atomic.AddUint64(&staffCounter, 1)
	id := fmt.Sprintf("staff-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := StaffFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		DisplayName:  fmt.Sprintf("Staff %03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		IsAdmin:      false,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithStaffID overrides the generated staff ID.
func WithStaffID(id string) StaffOption {
	return func(f *StaffFixture) {
		f.ID = id
	}
}

// WithStaffEmail overrides the generated email address.
func WithStaffEmail(email string) StaffOption {
	return func(f *StaffFixture) {
		f.Email = email
	}
}

// WithStaffAdmin marks the fixture as an administrator.
func WithStaffAdmin() StaffOption {
	return func(f *StaffFixture) {
		f.IsAdmin = true
	}
}

// Persistence converts the fixture into a persistence model.
func (f StaffFixture) Persistence() persistence.Staff {
	return persistence.Staff{
		ID:           f.ID,
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		PasswordHash: f.PasswordHash,
		IsAdmin:      f.IsAdmin,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// Application converts the fixture into an application model.
func (f StaffFixture) Application() application.Staff {
	return application.Staff{
		ID:          f.ID,
		Email:       f.Email,
		DisplayName: f.DisplayName,
		IsAdmin:     f.IsAdmin,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// ----------------------------- Store fixtures -----------------------------

// StoreFixture represents a deterministic store record.
type StoreFixture struct {
	ID        string
	CompanyID string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StoreOption configures the generated store fixture.
type StoreOption func(*StoreFixture)

// NewStoreFixture returns a deterministic store fixture with optional overrides.
func NewStoreFixture(opts ...StoreOption) StoreFixture {
	idx := atomic.AddUint64(&storeCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := StoreFixture{
		ID:        fmt.Sprintf("store-%03d", idx),
		CompanyID: "company-001",
		Name:      fmt.Sprintf("Store %03d", idx),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithStoreID overrides the generated store ID.
func WithStoreID(id string) StoreOption {
	return func(f *StoreFixture) {
		f.ID = id
	}
}

// WithStoreName overrides the generated store name.
func WithStoreName(name string) StoreOption {
	return func(f *StoreFixture) {
		f.Name = name
	}
}

// Persistence converts the fixture into a persistence model.
func (f StoreFixture) Persistence() persistence.Store {
	return persistence.Store{
		ID:        f.ID,
		CompanyID: f.CompanyID,
		Name:      f.Name,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// -------------------------- Clock event fixtures --------------------------

// ClockEventFixture represents a deterministic clock event record.
type ClockEventFixture struct {
	ID           string
	UserID       string
	StoreID      string
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

// ClockEventOption configures the generated clock event fixture.
type ClockEventOption func(*ClockEventFixture)

// NewClockEventFixture returns a deterministic clock event fixture with
// optional overrides. Events default to approved clock-ins so summary tests
// see them without extra setup.
func NewClockEventFixture(opts ...ClockEventOption) ClockEventFixture {
	idx := atomic.AddUint64(&eventCounter, 1)
	instant := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := ClockEventFixture{
		ID:           fmt.Sprintf("event-%03d", idx),
		UserID:       "staff-001",
		StoreID:      "store-001",
		Kind:         reconcile.KindClockIn,
		SelectedTime: instant,
		ActualTime:   instant,
		Method:       "current",
		Status:       reconcile.StatusApproved,
		CreatedBy:    "staff-001",
		CreatedAt:    instant,
		UpdatedAt:    instant,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEventUser assigns the event to a staff member.
func WithEventUser(userID string) ClockEventOption {
	return func(f *ClockEventFixture) {
		f.UserID = userID
		f.CreatedBy = userID
	}
}

// WithEventStore assigns the event to a store.
func WithEventStore(storeID string) ClockEventOption {
	return func(f *ClockEventFixture) {
		f.StoreID = storeID
	}
}

// WithEventKind sets the punch kind.
func WithEventKind(kind reconcile.EventKind) ClockEventOption {
	return func(f *ClockEventFixture) {
		f.Kind = kind
	}
}

// WithEventStatus sets the approval status.
func WithEventStatus(status reconcile.Status) ClockEventOption {
	return func(f *ClockEventFixture) {
		f.Status = status
	}
}

// WithEventSelectedTime sets the claimed instant.
func WithEventSelectedTime(t time.Time) ClockEventOption {
	return func(f *ClockEventFixture) {
		f.SelectedTime = t
	}
}

// Persistence converts the fixture into a persistence model.
func (f ClockEventFixture) Persistence() persistence.ClockEvent {
	return persistence.ClockEvent{
		ID:           f.ID,
		UserID:       f.UserID,
		StoreID:      f.StoreID,
		Kind:         string(f.Kind),
		SelectedTime: f.SelectedTime,
		ActualTime:   f.ActualTime,
		Method:       f.Method,
		Status:       string(f.Status),
		CreatedBy:    f.CreatedBy,
		ApprovedBy:   f.ApprovedBy,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// Application converts the fixture into an application model.
func (f ClockEventFixture) Application() application.ClockEvent {
	return application.ClockEvent{
		ID:           f.ID,
		UserID:       f.UserID,
		StoreID:      f.StoreID,
		Kind:         f.Kind,
		SelectedTime: f.SelectedTime,
		ActualTime:   f.ActualTime,
		Method:       f.Method,
		Status:       f.Status,
		CreatedBy:    f.CreatedBy,
		ApprovedBy:   f.ApprovedBy,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// ----------------------------- Shift fixtures -----------------------------

// ShiftFixture represents a deterministic shift record.
type ShiftFixture struct {
	ID        string
	UserID    string
	StoreID   string
	Start     time.Time
	End       time.Time
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ShiftOption configures the generated shift fixture.
type ShiftOption func(*ShiftFixture)

// NewShiftFixture returns a deterministic eight hour shift with optional overrides.
func NewShiftFixture(opts ...ShiftOption) ShiftFixture {
	idx := atomic.AddUint64(&shiftCounter, 1)
	start := referenceTime.AddDate(0, 0, int(idx))
	fixture := ShiftFixture{
		ID:        fmt.Sprintf("shift-%03d", idx),
		UserID:    "staff-001",
		StoreID:   "store-001",
		Start:     start,
		End:       start.Add(8 * time.Hour),
		CreatedBy: "staff-admin",
		CreatedAt: start,
		UpdatedAt: start,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithShiftUser assigns the shift to a staff member.
func WithShiftUser(userID string) ShiftOption {
	return func(f *ShiftFixture) {
		f.UserID = userID
	}
}

// WithShiftStore assigns the shift to a store.
func WithShiftStore(storeID string) ShiftOption {
	return func(f *ShiftFixture) {
		f.StoreID = storeID
	}
}

// WithShiftSpan sets the scheduled interval.
func WithShiftSpan(start, end time.Time) ShiftOption {
	return func(f *ShiftFixture) {
		f.Start = start
		f.End = end
	}
}

// Persistence converts the fixture into a persistence model.
func (f ShiftFixture) Persistence() persistence.Shift {
	return persistence.Shift{
		ID:        f.ID,
		UserID:    f.UserID,
		StoreID:   f.StoreID,
		Start:     f.Start,
		End:       f.End,
		CreatedBy: f.CreatedBy,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// ---------------------------- Session fixtures ----------------------------

// SessionFixture represents a deterministic session record.
type SessionFixture struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic session fixture with optional overrides.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    "staff-001",
		Token:     fmt.Sprintf("token-%03d", idx),
		ExpiresAt: created.Add(24 * time.Hour),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionUser assigns the session to a staff member.
func WithSessionUser(userID string) SessionOption {
	return func(f *SessionFixture) {
		f.UserID = userID
	}
}

// WithSessionToken overrides the generated token.
func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) {
		f.Token = token
	}
}

// WithSessionExpiry overrides the expiry instant.
func WithSessionExpiry(expiresAt time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = expiresAt
	}
}

// Persistence converts the fixture into a persistence model.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:          f.ID,
		UserID:      f.UserID,
		Token:       f.Token,
		Fingerprint: f.Fingerprint,
		ExpiresAt:   f.ExpiresAt,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
		RevokedAt:   f.RevokedAt,
	}
}
