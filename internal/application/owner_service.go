package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/example/campus-planner/internal/domain"
	"github.com/example/campus-planner/internal/persistence"
)

// TokenIssuer signs bearer tokens for owners.
type TokenIssuer interface {
	Issue(ownerID string, now time.Time) (string, time.Time, error)
}

// OwnerService registers owners, verifies logins and edits profiles.
type OwnerService struct {
	owners          persistence.OwnerRepository
	tokens          TokenIssuer
	hashPassword    PasswordHasher
	verifyPassword  PasswordVerifier
	idGenerator     func() string
	now             func() time.Time
	defaultGoalMins int
	logger          *slog.Logger
}

// OwnerServiceOptions carries the optional collaborators of an OwnerService.
type OwnerServiceOptions struct {
	Hasher           PasswordHasher
	Verifier         PasswordVerifier
	DailyGoalMinutes int
	Logger           *slog.Logger
}

// NewOwnerService wires dependencies for owner operations.
func NewOwnerService(owners persistence.OwnerRepository, tokens TokenIssuer, idGenerator func() string, now func() time.Time, opts OwnerServiceOptions) *OwnerService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if opts.Hasher == nil {
		opts.Hasher = NewArgon2idHasher(DefaultArgon2idParams)
	}
	if opts.Verifier == nil {
		opts.Verifier = VerifyPassword
	}
	if opts.DailyGoalMinutes <= 0 {
		opts.DailyGoalMinutes = 120
	}
	return &OwnerService{
		owners:          owners,
		tokens:          tokens,
		hashPassword:    opts.Hasher,
		verifyPassword:  opts.Verifier,
		idGenerator:     idGenerator,
		now:             now,
		defaultGoalMins: opts.DailyGoalMinutes,
		logger:          defaultLogger(opts.Logger),
	}
}

func (s *OwnerService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "OwnerService", operation, attrs...)
}

// Register creates an owner. A duplicate email yields ErrConflict.
func (s *OwnerService) Register(ctx context.Context, input RegisterOwnerInput) (owner domain.Owner, err error) {
	if s == nil {
		return domain.Owner{}, fmt.Errorf("OwnerService is nil")
	}
	email := normalizeEmail(input.Email)
	logger := s.loggerWith(ctx, "Register", "email", email)
	defer func() { logOutcome(ctx, logger, err, "registration", "owner_id", owner.ID) }()

	displayName := strings.TrimSpace(input.DisplayName)
	vErr := &ValidationError{}
	if email == "" {
		vErr.add("email", "email is required")
	} else if _, parseErr := mail.ParseAddress(email); parseErr != nil {
		vErr.add("email", "email is invalid")
	}
	if displayName == "" {
		vErr.add("displayName", "display name is required")
	}
	if len(input.Password) < MinPasswordLength {
		vErr.add("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if vErr.HasErrors() {
		return domain.Owner{}, vErr
	}

	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return domain.Owner{}, err
	}

	now := s.now()
	owner = domain.Owner{
		ID:                    s.idGenerator(),
		Email:                 email,
		DisplayName:           displayName,
		PasswordHash:          hash,
		DailyFocusGoalMinutes: s.defaultGoalMins,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err = s.owners.CreateOwner(ctx, owner); err != nil {
		return domain.Owner{}, mapRepoError(err)
	}
	return owner, nil
}

// Authenticate verifies credentials and issues a bearer token.
func (s *OwnerService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s == nil {
		return AuthenticateResult{}, fmt.Errorf("OwnerService is nil")
	}
	if s.tokens == nil {
		return AuthenticateResult{}, fmt.Errorf("token issuer not configured")
	}

	email := normalizeEmail(params.Email)
	logger := s.loggerWith(ctx, "Authenticate", "email", email)
	defer func() { logOutcome(ctx, logger, err, "authentication", "owner_id", result.Owner.ID) }()

	if email == "" || params.Password == "" {
		return AuthenticateResult{}, ErrInvalidCredentials
	}

	owner, err := s.owners.GetOwnerByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return AuthenticateResult{}, ErrInvalidCredentials
		}
		return AuthenticateResult{}, err
	}
	if err = s.verifyPassword(owner.PasswordHash, params.Password); err != nil {
		return AuthenticateResult{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(owner.ID, s.now())
	if err != nil {
		return AuthenticateResult{}, err
	}
	return AuthenticateResult{Owner: owner, Token: token, ExpiresAt: expiresAt}, nil
}

// Profile returns the principal's owner record.
func (s *OwnerService) Profile(ctx context.Context, principal Principal) (domain.Owner, error) {
	if s == nil {
		return domain.Owner{}, fmt.Errorf("OwnerService is nil")
	}
	owner, err := s.owners.GetOwner(ctx, principal.OwnerID)
	if err != nil {
		return domain.Owner{}, mapRepoError(err)
	}
	return owner, nil
}

// UpdateProfile edits the principal's display name and daily focus goal.
func (s *OwnerService) UpdateProfile(ctx context.Context, principal Principal, input ProfileInput) (owner domain.Owner, err error) {
	if s == nil {
		return domain.Owner{}, fmt.Errorf("OwnerService is nil")
	}
	logger := s.loggerWith(ctx, "UpdateProfile", "owner_id", principal.OwnerID)
	defer func() { logOutcome(ctx, logger, err, "profile update") }()

	owner, err = s.owners.GetOwner(ctx, principal.OwnerID)
	if err != nil {
		return domain.Owner{}, mapRepoError(err)
	}

	vErr := &ValidationError{}
	if input.DisplayName != nil {
		name := strings.TrimSpace(*input.DisplayName)
		if name == "" {
			vErr.add("displayName", "display name is required")
		}
		owner.DisplayName = name
	}
	if input.DailyFocusGoalMinutes != nil {
		if *input.DailyFocusGoalMinutes < 0 || *input.DailyFocusGoalMinutes > 24*60 {
			vErr.add("dailyFocusGoalMinutes", "daily goal must be between 0 and 1440 minutes")
		}
		owner.DailyFocusGoalMinutes = *input.DailyFocusGoalMinutes
	}
	if vErr.HasErrors() {
		return domain.Owner{}, vErr
	}

	owner.UpdatedAt = s.now()
	if err = s.owners.UpdateOwner(ctx, owner); err != nil {
		return domain.Owner{}, mapRepoError(err)
	}
	return owner, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
