package testfixtures

import (
	"io"
	"log/slog"
	"time"

	"github.com/example/campus-planner/internal/application"
	"github.com/example/campus-planner/internal/identity"
	"github.com/example/campus-planner/internal/persistence"
	"github.com/example/campus-planner/internal/tasksync"
)

// TokenSecret signs the tokens issued by factory-built services.
const TokenSecret = "test-secret-please-ignore"

// FastArgon2Params keeps password hashing cheap in tests.
var FastArgon2Params = application.Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Location    *time.Location
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults: a clock at
// ReferenceTime, "id" prefixed identifiers, UTC and a discarding logger.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{}
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
	if factory.Logger == nil {
		factory.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
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

// WithLocation sets the location in which days are delimited.
func WithLocation(loc *time.Location) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Location = loc
	}
}

// Services bundles every application service over one store.
type Services struct {
	Owners     *application.OwnerService
	Schedule   *application.ScheduleService
	Attendance *application.AttendanceService
	Tasks      *application.TaskService
	Focus      *application.FocusService
	LiveStatus *application.LiveStatusService
	Sync       *tasksync.Engine
	Issuer     *identity.Issuer
	Verifier   *identity.Verifier
}

// Build wires every service against store.
func (f *ServiceFactory) Build(store persistence.Store) (Services, error) {
	now := f.Clock.NowFunc()
	ids := f.IDGenerator.NextFunc()

	issuer, err := identity.NewIssuer(TokenSecret, "campus-planner-test", time.Hour)
	if err != nil {
		return Services{}, err
	}
	verifier, err := identity.NewVerifier(TokenSecret, "campus-planner-test", now)
	if err != nil {
		return Services{}, err
	}

	engine := tasksync.NewEngine(store, store, store, ids, now, f.Logger)
	return Services{
		Owners: application.NewOwnerService(store, issuer, ids, now, application.OwnerServiceOptions{
			Hasher: application.NewArgon2idHasher(FastArgon2Params),
			Logger: f.Logger,
		}),
		Schedule:   application.NewScheduleServiceWithLogger(store, ids, now, f.Logger),
		Attendance: application.NewAttendanceService(store, store, f.Location, ids, now, f.Logger),
		Tasks:      application.NewTaskService(store, engine, ids, now, f.Logger),
		Focus:      application.NewFocusService(store, store, f.Location, ids, now, f.Logger),
		LiveStatus: application.NewLiveStatusService(store, store, f.Location, now, f.Logger),
		Sync:       engine,
		Issuer:     issuer,
		Verifier:   verifier,
	}, nil
}
