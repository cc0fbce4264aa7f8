package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// CredentialStore exposes staff credential lookup operations required by the auth service.
type CredentialStore interface {
	GetStaffCredentialsByEmail(ctx context.Context, email string) (StaffCredentials, error)
	GetStaff(ctx context.Context, id string) (Staff, error)
}

// MembershipDirectory resolves which stores a staff member belongs to.
type MembershipDirectory interface {
	ListStoreMembershipsForStaff(ctx context.Context, staffID string) ([]StoreMembership, error)
}

// SessionRepository captures the persistence interactions for issued sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// AuthService coordinates authentication flows for staff accounts. A login
// resolves the member's store memberships alongside the issued session so
// clients learn which stores they may clock into; session validation carries
// the same memberships into the request principal.
type AuthService struct {
	credentials    CredentialStore
	memberships    MembershipDirectory
	sessions       SessionRepository
	verifyPassword PasswordVerifier
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
// The membership directory may be nil, in which case sessions carry no store
// memberships.
func NewAuthService(credentials CredentialStore, memberships MembershipDirectory, sessions SessionRepository, verify PasswordVerifier, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(credentials, memberships, sessions, verify, tokenGenerator, now, sessionTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(credentials CredentialStore, memberships MembershipDirectory, sessions SessionRepository, verify PasswordVerifier, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if verify == nil {
		verify = VerifyPassword
	}
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{
		credentials:    credentials,
		memberships:    memberships,
		sessions:       sessions,
		verifyPassword: verify,
		tokenGenerator: tokenGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate validates credentials and issues a new session token together
// with the member's store memberships.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (AuthenticateResult, error) {
	if s == nil {
		return AuthenticateResult{}, fmt.Errorf("AuthService is nil")
	}
	if s.credentials == nil {
		return AuthenticateResult{}, fmt.Errorf("credential store not configured")
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	logger := s.loggerWith(ctx, "Authenticate", "email", email)

	if email == "" || params.Password == "" {
		logger.ErrorContext(ctx, "authentication failed", "error", ErrInvalidCredentials, "error_kind", ErrorKind(ErrInvalidCredentials))
		return AuthenticateResult{}, ErrInvalidCredentials
	}

	creds, err := s.credentials.GetStaffCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrInvalidCredentials
		}
		logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
		return AuthenticateResult{}, err
	}

	if err := s.verifyPassword(creds.PasswordHash, params.Password); err != nil {
		logger.ErrorContext(ctx, "authentication failed", "error", ErrInvalidCredentials, "error_kind", ErrorKind(ErrInvalidCredentials))
		return AuthenticateResult{}, ErrInvalidCredentials
	}

	session, err := s.issueSession(ctx, creds.Staff.ID, params.Fingerprint)
	if err != nil {
		logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
		return AuthenticateResult{}, err
	}

	stores, err := s.resolveMemberships(ctx, creds.Staff.ID)
	if err != nil {
		logger.ErrorContext(ctx, "authentication failed", "error", err, "error_kind", ErrorKind(err))
		return AuthenticateResult{}, err
	}

	logger.With(
		"user_id", creds.Staff.ID,
		"session_id", session.ID,
		"store_count", len(stores),
	).InfoContext(ctx, "authentication succeeded")

	return AuthenticateResult{Staff: creds.Staff, Session: session, Memberships: stores}, nil
}

// issueSession mints a session for the staff member, pruning expired rows
// before the insert.
func (s *AuthService) issueSession(ctx context.Context, staffID, fingerprint string) (Session, error) {
	now := s.now()
	id := s.tokenGenerator()
	token := s.tokenGenerator()
	if token == "" {
		token = id
	}

	session := Session{
		ID:          id,
		UserID:      staffID,
		Token:       token,
		Fingerprint: strings.TrimSpace(fingerprint),
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(s.sessionTTL),
	}

	if s.sessions == nil {
		return session, nil
	}
	if err := s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		return Session{}, err
	}
	return s.sessions.CreateSession(ctx, session)
}

// resolveMemberships returns the member's store memberships sorted by store
// identifier. A missing directory yields an empty list.
func (s *AuthService) resolveMemberships(ctx context.Context, staffID string) ([]StoreMembership, error) {
	if s.memberships == nil {
		return nil, nil
	}
	stores, err := s.memberships.ListStoreMembershipsForStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	sort.Slice(stores, func(i, j int) bool { return stores[i].StoreID < stores[j].StoreID })
	return stores, nil
}

// RefreshSession rotates an existing session token, extending its validity window.
func (s *AuthService) RefreshSession(ctx context.Context, params RefreshSessionParams) (RefreshSessionResult, error) {
	if s == nil {
		return RefreshSessionResult{}, fmt.Errorf("AuthService is nil")
	}
	if s.sessions == nil {
		return RefreshSessionResult{}, fmt.Errorf("session repository not configured")
	}

	token := strings.TrimSpace(params.Token)
	logger := s.loggerWith(ctx, "RefreshSession", "token_provided", token != "")

	session, err := s.activeSession(ctx, token)
	if err != nil {
		logger.ErrorContext(ctx, "session refresh failed", "error", err, "error_kind", ErrorKind(err))
		return RefreshSessionResult{}, err
	}

	now := s.now()
	if rotated := s.tokenGenerator(); rotated != "" {
		session.Token = rotated
	}
	session.UpdatedAt = now
	session.ExpiresAt = now.Add(s.sessionTTL)
	if fp := strings.TrimSpace(params.Fingerprint); fp != "" {
		session.Fingerprint = fp
	}

	session, err = s.sessions.UpdateSession(ctx, session)
	if err != nil {
		logger.ErrorContext(ctx, "session refresh failed", "error", err, "error_kind", ErrorKind(err))
		return RefreshSessionResult{}, err
	}

	logger.With(
		"session_id", session.ID,
		"user_id", session.UserID,
	).InfoContext(ctx, "session refreshed")

	return RefreshSessionResult{Session: session}, nil
}

// RevokeSession invalidates an existing session token.
func (s *AuthService) RevokeSession(ctx context.Context, token string) error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}

	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ErrInvalidCredentials
	}

	logger := s.loggerWith(ctx, "RevokeSession", "token_provided", trimmed != "")

	if _, err := s.sessions.RevokeSession(ctx, trimmed, s.now()); err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrInvalidCredentials
		}
		logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if err := s.sessions.DeleteExpiredSessions(ctx, s.now()); err != nil {
		logger.ErrorContext(ctx, "failed to prune expired sessions", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "session revoked")
	return nil
}

// ValidateSession verifies that the provided token corresponds to an active
// session and returns its principal, including the member's store IDs.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (Principal, error) {
	if s == nil {
		return Principal{}, fmt.Errorf("AuthService is nil")
	}
	if s.sessions == nil {
		return Principal{}, fmt.Errorf("session repository not configured")
	}
	if s.credentials == nil {
		return Principal{}, fmt.Errorf("credential store not configured")
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "ValidateSession", "token_provided", trimmed != "")

	session, err := s.activeSession(ctx, trimmed)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) && trimmed != "" {
			err = ErrUnauthorized
		}
		logger.ErrorContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
		return Principal{}, err
	}

	staff, err := s.credentials.GetStaff(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrUnauthorized
		}
		logger.ErrorContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
		return Principal{}, err
	}

	stores, err := s.resolveMemberships(ctx, staff.ID)
	if err != nil {
		logger.ErrorContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
		return Principal{}, err
	}

	principal := Principal{UserID: staff.ID, IsAdmin: staff.IsAdmin}
	for _, membership := range stores {
		principal.StoreIDs = append(principal.StoreIDs, membership.StoreID)
	}

	logger.With("principal_id", principal.UserID).InfoContext(ctx, "session validated")
	return principal, nil
}

// activeSession fetches the session for a token and rejects it when missing,
// revoked, or past its expiry.
func (s *AuthService) activeSession(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrInvalidCredentials
	}

	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}

	if session.RevokedAt != nil && !session.RevokedAt.IsZero() {
		return Session{}, ErrSessionRevoked
	}
	if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(s.now()) {
		return Session{}, ErrSessionExpired
	}
	return session, nil
}
