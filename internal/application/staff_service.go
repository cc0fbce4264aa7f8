package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"time"
)

// StaffStore captures the persistence operations needed by the staff service.
type StaffStore interface {
	CreateStaff(ctx context.Context, creds StaffCredentials) (Staff, error)
	GetStaff(ctx context.Context, id string) (Staff, error)
	ListStaff(ctx context.Context) ([]Staff, error)
	DeleteStaff(ctx context.Context, id string) error
}

// MembershipStore manages the store membership rows of a staff account.
type MembershipStore interface {
	CreateStoreMember(ctx context.Context, storeID, userID, role string) error
	DeleteStoreMember(ctx context.Context, storeID, userID string) error
}

// PasswordHasher derives a storable hash from a plaintext password.
type PasswordHasher func(password string) (string, error)

// StaffService orchestrates staff account management. Creating an account
// performs sequential writes (credentials, then memberships) with
// compensating deletes on failure; there is no enclosing transaction, so a
// crash between steps can leave a partial account behind.
type StaffService struct {
	staff       StaffStore
	members     MembershipStore
	hashPass    PasswordHasher
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewStaffService wires dependencies for the staff service.
func NewStaffService(staff StaffStore, members MembershipStore, hashPass PasswordHasher, idGenerator func() string, now func() time.Time) *StaffService {
	return NewStaffServiceWithLogger(staff, members, hashPass, idGenerator, now, nil)
}

// NewStaffServiceWithLogger constructs a StaffService with a specified logger.
func NewStaffServiceWithLogger(staff StaffStore, members MembershipStore, hashPass PasswordHasher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *StaffService {
	if hashPass == nil {
		hashPass = func(password string) (string, error) {
			return CreatePasswordHash(password, DefaultArgon2idParams)
		}
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &StaffService{
		staff:       staff,
		members:     members,
		hashPass:    hashPass,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// CreateStaff creates a staff account together with its store memberships.
// On a membership failure the already-created rows are removed again; the
// compensation is idempotent and tolerates rows that no longer exist.
func (s *StaffService) CreateStaff(ctx context.Context, params CreateStaffParams) (Staff, error) {
	if s == nil {
		return Staff{}, fmt.Errorf("StaffService is nil")
	}
	if s.staff == nil {
		return Staff{}, fmt.Errorf("staff store not configured")
	}
	if !params.Principal.IsAdmin {
		return Staff{}, ErrUnauthorized
	}

	normalized := normalizeStaffInput(params.Input)
	vErr := validateStaffInput(normalized)
	if vErr.HasErrors() {
		return Staff{}, vErr
	}

	hash, err := s.hashPass(normalized.Password)
	if err != nil {
		return Staff{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	staff := Staff{
		ID:          s.idGenerator(),
		Email:       normalized.Email,
		DisplayName: normalized.DisplayName,
		IsAdmin:     normalized.IsAdmin,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	logger := serviceLogger(ctx, s.logger, "StaffService", "CreateStaff",
		"email", staff.Email,
	)

	created, err := s.staff.CreateStaff(ctx, StaffCredentials{Staff: staff, PasswordHash: hash})
	if err != nil {
		logger.ErrorContext(ctx, "failed to create staff", "error", err, "error_kind", ErrorKind(err))
		return Staff{}, err
	}

	var joined []string
	for _, storeID := range normalized.StoreIDs {
		if s.members == nil {
			break
		}
		if err := s.members.CreateStoreMember(ctx, storeID, created.ID, "staff"); err != nil {
			logger.ErrorContext(ctx, "failed to create membership, compensating",
				"store_id", storeID, "error", err, "error_kind", ErrorKind(err))
			s.compensate(ctx, logger, created.ID, joined)
			return Staff{}, err
		}
		joined = append(joined, storeID)
	}

	logger.With("staff_id", created.ID).InfoContext(ctx, "staff created")

	return created, nil
}

// compensate removes the rows a failed creation left behind. Missing rows
// are not an error; the compensation may run after a partial earlier cleanup.
func (s *StaffService) compensate(ctx context.Context, logger *slog.Logger, staffID string, joined []string) {
	for _, storeID := range joined {
		if err := s.members.DeleteStoreMember(ctx, storeID, staffID); err != nil && !errors.Is(err, ErrNotFound) {
			logger.ErrorContext(ctx, "compensation failed to remove membership",
				"store_id", storeID, "error", err)
		}
	}
	if err := s.staff.DeleteStaff(ctx, staffID); err != nil && !errors.Is(err, ErrNotFound) {
		logger.ErrorContext(ctx, "compensation failed to remove staff", "error", err)
	}
}

// GetStaff returns one staff account.
func (s *StaffService) GetStaff(ctx context.Context, principal Principal, staffID string) (Staff, error) {
	if s == nil {
		return Staff{}, fmt.Errorf("StaffService is nil")
	}
	if s.staff == nil {
		return Staff{}, fmt.Errorf("staff store not configured")
	}
	if staffID != principal.UserID && !principal.IsAdmin {
		return Staff{}, ErrUnauthorized
	}

	return s.staff.GetStaff(ctx, staffID)
}

// ListStaff returns all staff accounts for administrators, ordered by email.
func (s *StaffService) ListStaff(ctx context.Context, principal Principal) ([]Staff, error) {
	if s == nil {
		return nil, fmt.Errorf("StaffService is nil")
	}
	if !principal.IsAdmin {
		return nil, ErrUnauthorized
	}
	if s.staff == nil {
		return nil, nil
	}

	members, err := s.staff.ListStaff(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Staff, len(members))
	copy(out, members)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Email == out[j].Email {
			return out[i].ID < out[j].ID
		}
		return out[i].Email < out[j].Email
	})

	return out, nil
}

func normalizeStaffInput(input StaffInput) StaffInput {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.DisplayName = strings.TrimSpace(input.DisplayName)

	seen := make(map[string]struct{}, len(input.StoreIDs))
	stores := make([]string, 0, len(input.StoreIDs))
	for _, storeID := range input.StoreIDs {
		storeID = strings.TrimSpace(storeID)
		if storeID == "" {
			continue
		}
		if _, ok := seen[storeID]; ok {
			continue
		}
		seen[storeID] = struct{}{}
		stores = append(stores, storeID)
	}
	input.StoreIDs = stores

	return input
}

func validateStaffInput(input StaffInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "email is invalid")
	}

	if input.DisplayName == "" {
		vErr.add("display_name", "display name is required")
	}

	if len(input.Password) < 8 {
		vErr.add("password", "password must be at least 8 characters")
	}

	return vErr
}
