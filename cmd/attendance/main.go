package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/shift-attendance/internal/application"
	"github.com/example/shift-attendance/internal/config"
	httptransport "github.com/example/shift-attendance/internal/http"
	"github.com/example/shift-attendance/internal/persistence"
	"github.com/example/shift-attendance/internal/persistence/sqlite"
	"github.com/example/shift-attendance/internal/reconcile"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("failed to load timezone", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := pool.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := func() string { return uuid.NewString() }
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now

	staffRepo := sqlite.NewStaffRepository(pool)
	storeRepo := sqlite.NewStoreRepository(pool)
	eventRepo := sqlite.NewClockEventRepository(pool)
	shiftRepo := sqlite.NewShiftRepository(pool)
	auditRepo := sqlite.NewShiftCopyAuditRepository(pool)
	sessionRepo := sqlite.NewSessionRepository(pool)

	events := newClockEventAdapter(eventRepo)
	settings := newStoreSettingsAdapter(storeRepo)
	shifts := newShiftAdapter(shiftRepo)
	staffStore := newStaffStoreAdapter(staffRepo)
	memberships := newMembershipAdapter(storeRepo, now)
	audits := newAuditAdapter(auditRepo)
	sessions := newSessionAdapter(sessionRepo)
	credentials := newCredentialStoreAdapter(staffRepo)

	clockService := application.NewClockEventServiceWithLogger(events, settings, idGenerator, now, logger)
	summaryService := application.NewSummaryService(events, shifts, staffStore, location)
	shiftService := application.NewShiftService(shifts, idGenerator, now, location)
	shiftCopyService := application.NewShiftCopyServiceWithLogger(shifts, audits, idGenerator, now, location, logger)
	hashPassword := func(password string) (string, error) {
		return application.CreatePasswordHash(password, application.DefaultArgon2idParams)
	}
	staffService := application.NewStaffServiceWithLogger(staffStore, memberships, hashPassword, idGenerator, now, logger)
	authService := application.NewAuthServiceWithLogger(credentials, memberships, sessions, nil, tokenGenerator, now, cfg.SessionTTL, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:        httptransport.NewAuthHandler(authService, logger),
		ClockEvents: httptransport.NewClockEventHandler(clockService, logger),
		Summaries:   httptransport.NewSummaryHandler(summaryService, logger),
		Shifts:      httptransport.NewShiftHandler(shiftService, shiftCopyService, logger),
		Staff:       httptransport.NewStaffHandler(staffService, logger),
	})

	protected := httptransport.RequireSession(authService, logger)(router)
	handler := httptransport.RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && strings.EqualFold(r.URL.Path, "/sessions") {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("attendance API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

// mapStorageError converts persistence sentinel errors into the application
// equivalents the services and handlers branch on.
func mapStorageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return application.ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return application.ErrAlreadyExists
	default:
		return err
	}
}

type clockEventAdapter struct {
	repo persistence.ClockEventRepository
}

func newClockEventAdapter(repo persistence.ClockEventRepository) *clockEventAdapter {
	return &clockEventAdapter{repo: repo}
}

func (a *clockEventAdapter) CreateClockEvent(ctx context.Context, event application.ClockEvent) (application.ClockEvent, error) {
	if err := a.repo.CreateClockEvent(ctx, toPersistenceClockEvent(event)); err != nil {
		return application.ClockEvent{}, mapStorageError(err)
	}
	stored, err := a.repo.GetClockEvent(ctx, event.ID)
	if err != nil {
		return application.ClockEvent{}, mapStorageError(err)
	}
	return toApplicationClockEvent(stored), nil
}

func (a *clockEventAdapter) GetClockEvent(ctx context.Context, id string) (application.ClockEvent, error) {
	stored, err := a.repo.GetClockEvent(ctx, id)
	if err != nil {
		return application.ClockEvent{}, mapStorageError(err)
	}
	return toApplicationClockEvent(stored), nil
}

func (a *clockEventAdapter) UpdateClockEvent(ctx context.Context, event application.ClockEvent) (application.ClockEvent, error) {
	if err := a.repo.UpdateClockEvent(ctx, toPersistenceClockEvent(event)); err != nil {
		return application.ClockEvent{}, mapStorageError(err)
	}
	stored, err := a.repo.GetClockEvent(ctx, event.ID)
	if err != nil {
		return application.ClockEvent{}, mapStorageError(err)
	}
	return toApplicationClockEvent(stored), nil
}

func (a *clockEventAdapter) ListClockEvents(ctx context.Context, query application.ClockEventQuery) ([]application.ClockEvent, error) {
	statuses := make([]string, 0, len(query.Statuses))
	for _, status := range query.Statuses {
		statuses = append(statuses, string(status))
	}
	models, err := a.repo.ListClockEvents(ctx, persistence.ClockEventFilter{
		UserID:   query.UserID,
		StoreID:  query.StoreID,
		Statuses: statuses,
		From:     cloneTime(query.From),
		To:       cloneTime(query.To),
	})
	if err != nil {
		return nil, mapStorageError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	events := make([]application.ClockEvent, 0, len(models))
	for _, model := range models {
		events = append(events, toApplicationClockEvent(model))
	}
	return events, nil
}

type storeSettingsAdapter struct {
	repo persistence.StoreSettingsRepository
}

func newStoreSettingsAdapter(repo persistence.StoreSettingsRepository) *storeSettingsAdapter {
	return &storeSettingsAdapter{repo: repo}
}

func (a *storeSettingsAdapter) GetStoreSettings(ctx context.Context, storeID string) (application.StoreSettings, error) {
	stored, err := a.repo.GetStoreSettings(ctx, storeID)
	if err != nil {
		return application.StoreSettings{}, mapStorageError(err)
	}
	return application.StoreSettings{
		StoreID:          stored.StoreID,
		ApprovalRequired: stored.ApprovalRequired,
	}, nil
}

type shiftAdapter struct {
	repo persistence.ShiftRepository
}

func newShiftAdapter(repo persistence.ShiftRepository) *shiftAdapter {
	return &shiftAdapter{repo: repo}
}

func (a *shiftAdapter) ListShifts(ctx context.Context, query application.ShiftQuery) ([]application.Shift, error) {
	models, err := a.repo.ListShifts(ctx, persistence.ShiftFilter{
		UserID:      query.UserID,
		StoreID:     query.StoreID,
		StartFrom:   cloneTime(query.StartFrom),
		StartBefore: cloneTime(query.StartBefore),
	})
	if err != nil {
		return nil, mapStorageError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	shifts := make([]application.Shift, 0, len(models))
	for _, model := range models {
		shift := toApplicationShift(model)
		breaks, err := a.repo.ListShiftBreaks(ctx, model.ID)
		if err != nil {
			return nil, mapStorageError(err)
		}
		for _, brk := range breaks {
			shift.Breaks = append(shift.Breaks, application.ShiftBreak{
				ID:         brk.ID,
				ShiftID:    brk.ShiftID,
				BreakStart: brk.BreakStart,
				BreakEnd:   brk.BreakEnd,
			})
		}
		shifts = append(shifts, shift)
	}
	return shifts, nil
}

func (a *shiftAdapter) CreateShift(ctx context.Context, shift application.Shift) (application.Shift, error) {
	if err := a.repo.CreateShift(ctx, toPersistenceShift(shift)); err != nil {
		return application.Shift{}, mapStorageError(err)
	}
	stored, err := a.repo.GetShift(ctx, shift.ID)
	if err != nil {
		return application.Shift{}, mapStorageError(err)
	}
	return toApplicationShift(stored), nil
}

func (a *shiftAdapter) UpdateShift(ctx context.Context, shift application.Shift) (application.Shift, error) {
	if err := a.repo.UpdateShift(ctx, toPersistenceShift(shift)); err != nil {
		return application.Shift{}, mapStorageError(err)
	}
	stored, err := a.repo.GetShift(ctx, shift.ID)
	if err != nil {
		return application.Shift{}, mapStorageError(err)
	}
	return toApplicationShift(stored), nil
}

func (a *shiftAdapter) CreateShiftBreak(ctx context.Context, brk application.ShiftBreak) (application.ShiftBreak, error) {
	now := time.Now().UTC()
	model := persistence.ShiftBreak{
		ID:         brk.ID,
		ShiftID:    brk.ShiftID,
		BreakStart: brk.BreakStart,
		BreakEnd:   brk.BreakEnd,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := a.repo.CreateShiftBreak(ctx, model); err != nil {
		return application.ShiftBreak{}, mapStorageError(err)
	}
	return brk, nil
}

func (a *shiftAdapter) DeleteShiftBreaks(ctx context.Context, shiftID string) error {
	return mapStorageError(a.repo.DeleteShiftBreaks(ctx, shiftID))
}

type staffStoreAdapter struct {
	repo persistence.StaffRepository
}

func newStaffStoreAdapter(repo persistence.StaffRepository) *staffStoreAdapter {
	return &staffStoreAdapter{repo: repo}
}

func (a *staffStoreAdapter) CreateStaff(ctx context.Context, creds application.StaffCredentials) (application.Staff, error) {
	if err := a.repo.CreateStaff(ctx, toPersistenceStaff(creds.Staff, creds.PasswordHash)); err != nil {
		return application.Staff{}, mapStorageError(err)
	}
	stored, err := a.repo.GetStaff(ctx, creds.Staff.ID)
	if err != nil {
		return application.Staff{}, mapStorageError(err)
	}
	return toApplicationStaff(stored), nil
}

func (a *staffStoreAdapter) GetStaff(ctx context.Context, id string) (application.Staff, error) {
	stored, err := a.repo.GetStaff(ctx, id)
	if err != nil {
		return application.Staff{}, mapStorageError(err)
	}
	return toApplicationStaff(stored), nil
}

func (a *staffStoreAdapter) ListStaff(ctx context.Context) ([]application.Staff, error) {
	models, err := a.repo.ListStaff(ctx)
	if err != nil {
		return nil, mapStorageError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	staff := make([]application.Staff, 0, len(models))
	for _, model := range models {
		staff = append(staff, toApplicationStaff(model))
	}
	return staff, nil
}

func (a *staffStoreAdapter) DeleteStaff(ctx context.Context, id string) error {
	return mapStorageError(a.repo.DeleteStaff(ctx, id))
}

type membershipAdapter struct {
	repo persistence.StoreMemberRepository
	now  func() time.Time
}

func newMembershipAdapter(repo persistence.StoreMemberRepository, now func() time.Time) *membershipAdapter {
	return &membershipAdapter{repo: repo, now: now}
}

func (a *membershipAdapter) CreateStoreMember(ctx context.Context, storeID, userID, role string) error {
	member := persistence.StoreMember{
		StoreID:   storeID,
		UserID:    userID,
		Role:      role,
		CreatedAt: a.now().UTC(),
	}
	return mapStorageError(a.repo.CreateStoreMember(ctx, member))
}

func (a *membershipAdapter) DeleteStoreMember(ctx context.Context, storeID, userID string) error {
	return mapStorageError(a.repo.DeleteStoreMember(ctx, storeID, userID))
}

func (a *membershipAdapter) ListStoreMembershipsForStaff(ctx context.Context, staffID string) ([]application.StoreMembership, error) {
	models, err := a.repo.ListStoreMembersForStaff(ctx, staffID)
	if err != nil {
		return nil, mapStorageError(err)
	}
	memberships := make([]application.StoreMembership, 0, len(models))
	for _, model := range models {
		memberships = append(memberships, application.StoreMembership{StoreID: model.StoreID, Role: model.Role})
	}
	return memberships, nil
}

type auditAdapter struct {
	repo persistence.ShiftCopyAuditRepository
}

func newAuditAdapter(repo persistence.ShiftCopyAuditRepository) *auditAdapter {
	return &auditAdapter{repo: repo}
}

func (a *auditAdapter) CreateShiftCopyAudit(ctx context.Context, audit application.ShiftCopyAudit) error {
	model := persistence.ShiftCopyAudit{
		ID:         audit.ID,
		ActorID:    audit.ActorID,
		SourceDate: audit.SourceDate,
		TargetDate: audit.TargetDate,
		Overwrite:  audit.Overwrite,
		CreatedAt:  audit.CreatedAt,
	}
	return mapStorageError(a.repo.CreateShiftCopyAudit(ctx, model))
}

type sessionAdapter struct {
	repo persistence.SessionRepository
}

func newSessionAdapter(repo persistence.SessionRepository) *sessionAdapter {
	return &sessionAdapter{repo: repo}
}

func (a *sessionAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, mapStorageError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, mapStorageError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionAdapter) UpdateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.UpdateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, mapStorageError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, mapStorageError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return mapStorageError(a.repo.DeleteExpiredSessions(ctx, reference))
}

type credentialStoreAdapter struct {
	repo persistence.StaffRepository
}

func newCredentialStoreAdapter(repo persistence.StaffRepository) *credentialStoreAdapter {
	return &credentialStoreAdapter{repo: repo}
}

func (a *credentialStoreAdapter) GetStaffCredentialsByEmail(ctx context.Context, email string) (application.StaffCredentials, error) {
	stored, err := a.repo.GetStaffByEmail(ctx, email)
	if err != nil {
		return application.StaffCredentials{}, mapStorageError(err)
	}
	return application.StaffCredentials{
		Staff:        toApplicationStaff(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

func (a *credentialStoreAdapter) GetStaff(ctx context.Context, id string) (application.Staff, error) {
	stored, err := a.repo.GetStaff(ctx, id)
	if err != nil {
		return application.Staff{}, mapStorageError(err)
	}
	return toApplicationStaff(stored), nil
}

func toApplicationStaff(model persistence.Staff) application.Staff {
	return application.Staff{
		ID:          model.ID,
		Email:       model.Email,
		DisplayName: model.DisplayName,
		IsAdmin:     model.IsAdmin,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistenceStaff(staff application.Staff, passwordHash string) persistence.Staff {
	return persistence.Staff{
		ID:           staff.ID,
		Email:        staff.Email,
		DisplayName:  staff.DisplayName,
		PasswordHash: passwordHash,
		IsAdmin:      staff.IsAdmin,
		CreatedAt:    staff.CreatedAt,
		UpdatedAt:    staff.UpdatedAt,
	}
}

func toApplicationClockEvent(model persistence.ClockEvent) application.ClockEvent {
	return application.ClockEvent{
		ID:           model.ID,
		UserID:       model.UserID,
		StoreID:      model.StoreID,
		ShiftID:      cloneString(model.ShiftID),
		BreakID:      cloneString(model.BreakID),
		Kind:         reconcile.EventKind(model.Kind),
		SelectedTime: model.SelectedTime,
		ActualTime:   model.ActualTime,
		Method:       model.Method,
		Status:       reconcile.Status(model.Status),
		CreatedBy:    model.CreatedBy,
		ApprovedBy:   cloneString(model.ApprovedBy),
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

func toPersistenceClockEvent(event application.ClockEvent) persistence.ClockEvent {
	return persistence.ClockEvent{
		ID:           event.ID,
		UserID:       event.UserID,
		StoreID:      event.StoreID,
		ShiftID:      cloneString(event.ShiftID),
		BreakID:      cloneString(event.BreakID),
		Kind:         string(event.Kind),
		SelectedTime: event.SelectedTime,
		ActualTime:   event.ActualTime,
		Method:       event.Method,
		Status:       string(event.Status),
		CreatedBy:    event.CreatedBy,
		ApprovedBy:   cloneString(event.ApprovedBy),
		CreatedAt:    event.CreatedAt,
		UpdatedAt:    event.UpdatedAt,
	}
}

func toApplicationShift(model persistence.Shift) application.Shift {
	return application.Shift{
		ID:        model.ID,
		UserID:    model.UserID,
		StoreID:   model.StoreID,
		Start:     model.Start,
		End:       model.End,
		CreatedBy: model.CreatedBy,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toPersistenceShift(shift application.Shift) persistence.Shift {
	return persistence.Shift{
		ID:        shift.ID,
		UserID:    shift.UserID,
		StoreID:   shift.StoreID,
		Start:     shift.Start,
		End:       shift.End,
		CreatedBy: shift.CreatedBy,
		CreatedAt: shift.CreatedAt,
		UpdatedAt: shift.UpdatedAt,
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:          model.ID,
		UserID:      model.UserID,
		Token:       model.Token,
		Fingerprint: model.Fingerprint,
		ExpiresAt:   model.ExpiresAt,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
		RevokedAt:   cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:          session.ID,
		UserID:      session.UserID,
		Token:       session.Token,
		Fingerprint: session.Fingerprint,
		ExpiresAt:   session.ExpiresAt,
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
		RevokedAt:   cloneTime(session.RevokedAt),
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
