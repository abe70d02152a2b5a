package recurrence

import (
	"errors"
	"sort"
	"time"

	"github.com/example/campus-planner/internal/domain"
)

// MaxWindowDays caps how many calendar days a single expansion may cover.
const MaxWindowDays = 31

// Occurrence is one dated instance of a weekly slot.
type Occurrence struct {
	SlotID string
	Date   domain.Date
	Start  time.Time
	End    time.Time
}

// Engine expands weekly slots into dated occurrences.
type Engine struct {
	location *time.Location
}

// NewEngine constructs an Engine that places occurrences in the provided location.
// If loc is nil, time.Local is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{location: loc}
}

// ErrInvalidWindow indicates the range end precedes its start.
var ErrInvalidWindow = errors.New("recurrence: window end must not precede its start")

// ErrWindowTooLarge indicates the range spans more than MaxWindowDays.
var ErrWindowTooLarge = errors.New("recurrence: window exceeds the maximum number of days")

// ErrInvalidDuration indicates a slot whose end does not follow its start.
var ErrInvalidDuration = errors.New("recurrence: slot duration must be positive")

// Expand produces one occurrence per slot per matching day in the inclusive
// range [from, to], ordered by start time then slot id.
func (e *Engine) Expand(slots []domain.Slot, from, to domain.Date) ([]Occurrence, error) {
	loc := e.location
	if loc == nil {
		loc = time.Local
	}

	if to.Before(from) {
		return nil, ErrInvalidWindow
	}
	if from.AddDays(MaxWindowDays - 1).Before(to) {
		return nil, ErrWindowTooLarge
	}

	byWeekday := make(map[domain.Weekday][]domain.Slot, len(domain.Weekdays))
	for _, slot := range slots {
		if slot.End <= slot.Start {
			return nil, ErrInvalidDuration
		}
		byWeekday[slot.Weekday] = append(byWeekday[slot.Weekday], slot)
	}

	occurrences := make([]Occurrence, 0)
	for day := from; !day.After(to); day = day.AddDays(1) {
		for _, slot := range byWeekday[day.Weekday()] {
			occurrences = append(occurrences, Occurrence{
				SlotID: slot.ID,
				Date:   day,
				Start:  slot.Start.On(day, loc),
				End:    slot.End.On(day, loc),
			})
		}
	}

	sort.SliceStable(occurrences, func(i, j int) bool {
		if !occurrences[i].Start.Equal(occurrences[j].Start) {
			return occurrences[i].Start.Before(occurrences[j].Start)
		}
		return occurrences[i].SlotID < occurrences[j].SlotID
	})
	return occurrences, nil
}
