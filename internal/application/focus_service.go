package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/campus-planner/internal/domain"
	"github.com/example/campus-planner/internal/persistence"
)

// FocusService stores completed timer runs and reports daily totals.
type FocusService struct {
	owners      persistence.OwnerRepository
	sessions    persistence.FocusSessionRepository
	location    *time.Location
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewFocusService wires dependencies for focus session operations. Days are
// delimited in loc.
func NewFocusService(owners persistence.OwnerRepository, sessions persistence.FocusSessionRepository, loc *time.Location, idGenerator func() string, now func() time.Time, logger *slog.Logger) *FocusService {
	if loc == nil {
		loc = time.Local
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &FocusService{
		owners:      owners,
		sessions:    sessions,
		location:    loc,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *FocusService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "FocusService", operation, attrs...)
}

// RecordSession appends a completed session for the principal.
func (s *FocusService) RecordSession(ctx context.Context, principal Principal, input FocusSessionInput) (session domain.FocusSession, err error) {
	if s == nil {
		return domain.FocusSession{}, fmt.Errorf("FocusService is nil")
	}
	logger := s.loggerWith(ctx, "RecordSession", "owner_id", principal.OwnerID)
	defer func() {
		logOutcome(ctx, logger, err, "session record", "session_id", session.ID, "minutes", session.DurationMinutes)
	}()

	if input.Kind == "" {
		input.Kind = domain.SessionFocus
	}
	vErr := &ValidationError{}
	if input.DurationMinutes <= 0 {
		vErr.add("duration", "duration must be a positive number of minutes")
	}
	if !input.Kind.Valid() {
		vErr.add("type", "type must be focus or break")
	}
	if input.StartTime.IsZero() {
		vErr.add("startTime", "start time is required")
	}
	if input.EndTime.IsZero() {
		vErr.add("endTime", "end time is required")
	} else if input.EndTime.Before(input.StartTime) {
		vErr.add("endTime", "end time must not precede start time")
	}
	if vErr.HasErrors() {
		return domain.FocusSession{}, vErr
	}

	session = domain.FocusSession{
		ID:              s.idGenerator(),
		OwnerID:         principal.OwnerID,
		TaskID:          input.TaskID,
		DurationMinutes: input.DurationMinutes,
		Kind:            input.Kind,
		StartTime:       input.StartTime.UTC(),
		EndTime:         input.EndTime.UTC(),
		CreatedAt:       s.now(),
	}
	if err = s.sessions.CreateFocusSession(ctx, session); err != nil {
		return domain.FocusSession{}, mapRepoError(err)
	}
	return session, nil
}

// Today sums the principal's focus minutes for sessions starting today.
func (s *FocusService) Today(ctx context.Context, principal Principal) (FocusToday, error) {
	if s == nil {
		return FocusToday{}, fmt.Errorf("FocusService is nil")
	}
	owner, err := s.owners.GetOwner(ctx, principal.OwnerID)
	if err != nil {
		return FocusToday{}, mapRepoError(err)
	}

	today := domain.DateOf(s.now().In(s.location))
	sessions, err := s.listDay(ctx, principal.OwnerID, today, true)
	if err != nil {
		return FocusToday{}, err
	}

	total := 0
	for _, session := range sessions {
		total += session.DurationMinutes
	}
	return FocusToday{Date: today, TotalMinutes: total, DailyGoal: owner.DailyFocusGoalMinutes}, nil
}

// ListSessions returns every session of the principal starting on date.
func (s *FocusService) ListSessions(ctx context.Context, principal Principal, date domain.Date) ([]domain.FocusSession, error) {
	if s == nil {
		return nil, fmt.Errorf("FocusService is nil")
	}
	if date.IsZero() {
		date = domain.DateOf(s.now().In(s.location))
	}
	return s.listDay(ctx, principal.OwnerID, date, false)
}

func (s *FocusService) listDay(ctx context.Context, ownerID string, date domain.Date, focusOnly bool) ([]domain.FocusSession, error) {
	start := date.StartOfDay(s.location)
	end := date.AddDays(1).StartOfDay(s.location)
	filter := persistence.FocusSessionFilter{OwnerID: ownerID, StartsAtOrAfter: &start, StartsBefore: &end}
	if focusOnly {
		focus := domain.SessionFocus
		filter.Kind = &focus
	}
	sessions, err := s.sessions.ListFocusSessions(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return sessions, nil
}
