package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/shift-attendance/internal/application"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Location    *time.Location
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Location:    time.UTC,
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Location == nil {
		factory.Location = time.UTC
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithLocation overrides the calendar location used by the factory.
func WithLocation(loc *time.Location) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Location = loc
	}
}

// ClockEventServiceDeps captures dependencies for constructing a clock event
// service.
type ClockEventServiceDeps struct {
	Events      application.ClockEventRepository
	Settings    application.StoreSettingsRepository
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewClockEventService builds a clock event service using the supplied
// dependencies combined with the factory defaults.
func (f *ServiceFactory) NewClockEventService(deps ClockEventServiceDeps) *application.ClockEventService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewClockEventServiceWithLogger(
		deps.Events,
		deps.Settings,
		idGen,
		now,
		deps.Logger,
	)
}

// SummaryServiceDeps captures dependencies for constructing a summary service.
type SummaryServiceDeps struct {
	Events   application.ClockEventRepository
	Shifts   application.ShiftLister
	Staff    application.StaffDirectory
	Location *time.Location
}

// NewSummaryService builds a summary service using the supplied dependencies.
func (f *ServiceFactory) NewSummaryService(deps SummaryServiceDeps) *application.SummaryService {
	loc := deps.Location
	if loc == nil {
		loc = f.Location
	}
	return application.NewSummaryService(deps.Events, deps.Shifts, deps.Staff, loc)
}

// ShiftServiceDeps captures dependencies for constructing a shift service.
type ShiftServiceDeps struct {
	Shifts      application.ShiftRepository
	IDGenerator func() string
	Now         func() time.Time
	Location    *time.Location
}

// NewShiftService builds a shift service using the supplied dependencies.
func (f *ServiceFactory) NewShiftService(deps ShiftServiceDeps) *application.ShiftService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	loc := deps.Location
	if loc == nil {
		loc = f.Location
	}
	return application.NewShiftService(deps.Shifts, idGen, now, loc)
}

// ShiftCopyServiceDeps captures dependencies for constructing a shift copy
// service.
type ShiftCopyServiceDeps struct {
	Shifts      application.ShiftRepository
	Audits      application.AuditRecorder
	IDGenerator func() string
	Now         func() time.Time
	Location    *time.Location
	Logger      *slog.Logger
}

// NewShiftCopyService builds a shift copy service using the supplied
// dependencies.
func (f *ServiceFactory) NewShiftCopyService(deps ShiftCopyServiceDeps) *application.ShiftCopyService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	loc := deps.Location
	if loc == nil {
		loc = f.Location
	}
	return application.NewShiftCopyServiceWithLogger(
		deps.Shifts,
		deps.Audits,
		idGen,
		now,
		loc,
		deps.Logger,
	)
}

// StaffServiceDeps captures dependencies for constructing a staff service.
type StaffServiceDeps struct {
	Staff       application.StaffStore
	Members     application.MembershipStore
	Hasher      application.PasswordHasher
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewStaffService builds a staff service using the supplied dependencies.
func (f *ServiceFactory) NewStaffService(deps StaffServiceDeps) *application.StaffService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	hasher := deps.Hasher
	if hasher == nil {
		hasher = func(password string) (string, error) {
			return "hashed:" + password, nil
		}
	}
	return application.NewStaffServiceWithLogger(
		deps.Staff,
		deps.Members,
		hasher,
		idGen,
		now,
		deps.Logger,
	)
}

// AuthServiceDeps captures dependencies for constructing an auth service.
type AuthServiceDeps struct {
	Credentials    application.CredentialStore
	Memberships    application.MembershipDirectory
	Sessions       application.SessionRepository
	PasswordVerify application.PasswordVerifier
	TokenGenerator func() string
	Now            func() time.Time
	SessionTTL     time.Duration
	Logger         *slog.Logger
}

// NewAuthService builds an auth service using the supplied dependencies.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	token := deps.TokenGenerator
	if token == nil {
		token = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	ttl := deps.SessionTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return application.NewAuthServiceWithLogger(
		deps.Credentials,
		deps.Memberships,
		deps.Sessions,
		deps.PasswordVerify,
		token,
		now,
		ttl,
		deps.Logger,
	)
}
