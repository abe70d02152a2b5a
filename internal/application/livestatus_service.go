package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/campus-planner/internal/domain"
	"github.com/example/campus-planner/internal/livestatus"
	"github.com/example/campus-planner/internal/persistence"
)

// LiveStatusService derives an owner's current availability from their timetable.
type LiveStatusService struct {
	owners   persistence.OwnerRepository
	slots    persistence.SlotRepository
	location *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

// NewLiveStatusService wires dependencies. The weekday and time of day are
// taken in loc.
func NewLiveStatusService(owners persistence.OwnerRepository, slots persistence.SlotRepository, loc *time.Location, now func() time.Time, logger *slog.Logger) *LiveStatusService {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &LiveStatusService{owners: owners, slots: slots, location: loc, now: now, logger: defaultLogger(logger)}
}

// Status never fails: any lookup error degrades to the unknown status.
func (s *LiveStatusService) Status(ctx context.Context, ownerID string) domain.LiveStatus {
	if s == nil || s.slots == nil || s.owners == nil || ownerID == "" {
		return domain.UnknownStatus()
	}
	logger := serviceLogger(ctx, s.logger, "LiveStatusService", "Status", "owner_id", ownerID)

	if _, err := s.owners.GetOwner(ctx, ownerID); err != nil {
		logger.WarnContext(ctx, "live status owner lookup failed", "error", err, "error_kind", ErrorKind(mapRepoError(err)))
		return domain.UnknownStatus()
	}

	now := s.now().In(s.location)
	weekday := domain.WeekdayOf(now)
	slots, err := s.slots.ListSlots(ctx, persistence.SlotFilter{OwnerID: ownerID, Weekday: &weekday})
	if err != nil {
		logger.WarnContext(ctx, "live status slot lookup failed", "error", err, "error_kind", ErrorKind(mapRepoError(err)))
		return domain.UnknownStatus()
	}
	return livestatus.Resolve(slots, now)
}
