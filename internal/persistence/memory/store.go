// Package memory provides a map backed implementation of the persistence
// repositories. It enforces the same uniqueness rules as the SQLite schema and
// is used by service tests and by `campus serve --memory`.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/example/campus-planner/internal/domain"
	"github.com/example/campus-planner/internal/persistence"
)

type attendanceKey struct {
	slotID string
	date   domain.Date
}

type originKey struct {
	ownerID string
	slotID  string
	date    domain.Date
}

// Store keeps every record in process memory.
type Store struct {
	mu         sync.RWMutex
	owners     map[string]domain.Owner
	slots      map[string]domain.Slot
	attendance map[attendanceKey]domain.AttendanceRecord
	tasks      map[string]domain.Task
	origins    map[originKey]string
	sessions   map[string]domain.FocusSession
}

var _ persistence.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		owners:     make(map[string]domain.Owner),
		slots:      make(map[string]domain.Slot),
		attendance: make(map[attendanceKey]domain.AttendanceRecord),
		tasks:      make(map[string]domain.Task),
		origins:    make(map[originKey]string),
		sessions:   make(map[string]domain.FocusSession),
	}
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// --- OwnerRepository implementation ---

// CreateOwner stores a new owner. Emails are unique regardless of case.
func (s *Store) CreateOwner(ctx context.Context, owner domain.Owner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.owners[owner.ID]; ok {
		return persistence.ErrDuplicate
	}
	if err := s.ensureUniqueEmailLocked(owner.ID, owner.Email); err != nil {
		return err
	}
	s.owners[owner.ID] = owner
	return nil
}

// UpdateOwner replaces an existing owner.
func (s *Store) UpdateOwner(ctx context.Context, owner domain.Owner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.owners[owner.ID]; !ok {
		return persistence.ErrNotFound
	}
	if err := s.ensureUniqueEmailLocked(owner.ID, owner.Email); err != nil {
		return err
	}
	s.owners[owner.ID] = owner
	return nil
}

// GetOwner retrieves an owner by id.
func (s *Store) GetOwner(ctx context.Context, id string) (domain.Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owner, ok := s.owners[id]
	if !ok {
		return domain.Owner{}, persistence.ErrNotFound
	}
	return owner, nil
}

// GetOwnerByEmail retrieves an owner by email, ignoring case.
func (s *Store) GetOwnerByEmail(ctx context.Context, email string) (domain.Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, owner := range s.owners {
		if strings.EqualFold(owner.Email, email) {
			return owner, nil
		}
	}
	return domain.Owner{}, persistence.ErrNotFound
}

func (s *Store) ensureUniqueEmailLocked(id, email string) error {
	for existingID, owner := range s.owners {
		if existingID != id && strings.EqualFold(owner.Email, email) {
			return persistence.ErrDuplicate
		}
	}
	return nil
}

// --- SlotRepository implementation ---

// CreateSlot stores a new slot.
func (s *Store) CreateSlot(ctx context.Context, slot domain.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.slots[slot.ID]; ok {
		return persistence.ErrDuplicate
	}
	if _, ok := s.owners[slot.OwnerID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if slot.End <= slot.Start {
		return persistence.ErrConstraintViolation
	}
	s.slots[slot.ID] = cloneSlot(slot)
	return nil
}

// UpdateSlot replaces an existing slot.
func (s *Store) UpdateSlot(ctx context.Context, slot domain.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.slots[slot.ID]; !ok {
		return persistence.ErrNotFound
	}
	if slot.End <= slot.Start {
		return persistence.ErrConstraintViolation
	}
	s.slots[slot.ID] = cloneSlot(slot)
	return nil
}

// GetSlot retrieves a slot by id.
func (s *Store) GetSlot(ctx context.Context, id string) (domain.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.slots[id]
	if !ok {
		return domain.Slot{}, persistence.ErrNotFound
	}
	return cloneSlot(slot), nil
}

// ListSlots returns the owner's slots matching the filter.
func (s *Store) ListSlots(ctx context.Context, filter persistence.SlotFilter) ([]domain.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slots := make([]domain.Slot, 0)
	for _, slot := range s.slots {
		if slot.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Weekday != nil && slot.Weekday != *filter.Weekday {
			continue
		}
		if filter.Kind != nil && slot.Kind != *filter.Kind {
			continue
		}
		slots = append(slots, cloneSlot(slot))
	}
	persistence.SortSlots(slots)
	return slots, nil
}

// DeleteSlot removes a slot. Attendance and tasks referencing it are kept.
func (s *Store) DeleteSlot(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.slots[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.slots, id)
	return nil
}

// --- AttendanceRepository implementation ---

// UpsertAttendance keeps one record per slot and date; the last write wins.
func (s *Store) UpsertAttendance(ctx context.Context, record domain.AttendanceRecord) (domain.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := attendanceKey{slotID: record.SlotID, date: record.Date}
	if existing, ok := s.attendance[key]; ok {
		existing.Status = record.Status
		existing.UpdatedAt = record.UpdatedAt
		s.attendance[key] = existing
		return existing, nil
	}
	s.attendance[key] = record
	return record, nil
}

// ListAttendance returns the owner's records matching the filter.
func (s *Store) ListAttendance(ctx context.Context, filter persistence.AttendanceFilter) ([]domain.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var slotSet map[string]struct{}
	if len(filter.SlotIDs) > 0 {
		slotSet = make(map[string]struct{}, len(filter.SlotIDs))
		for _, id := range filter.SlotIDs {
			slotSet[id] = struct{}{}
		}
	}

	records := make([]domain.AttendanceRecord, 0)
	for _, record := range s.attendance {
		if record.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Date != nil && record.Date != *filter.Date {
			continue
		}
		if filter.From != nil && record.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && record.Date.After(*filter.To) {
			continue
		}
		if slotSet != nil {
			if _, ok := slotSet[record.SlotID]; !ok {
				continue
			}
		}
		records = append(records, record)
	}
	persistence.SortAttendance(records)
	return records, nil
}

// --- TaskRepository implementation ---

// CreateTask stores a new task, rejecting a second generated task for the
// same owner, origin slot and date.
func (s *Store) CreateTask(ctx context.Context, task domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[task.ID]; ok {
		return persistence.ErrDuplicate
	}
	if task.Generated() {
		key := originKey{ownerID: task.OwnerID, slotID: *task.OriginSlotID, date: task.Date}
		if _, ok := s.origins[key]; ok {
			return persistence.ErrDuplicate
		}
		s.origins[key] = task.ID
	}
	s.tasks[task.ID] = cloneTask(task)
	return nil
}

// UpdateTask replaces an existing task. The origin slot is immutable.
func (s *Store) UpdateTask(ctx context.Context, task domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tasks[task.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	task.OriginSlotID = existing.OriginSlotID
	if existing.Generated() && existing.Date != task.Date {
		oldKey := originKey{ownerID: existing.OwnerID, slotID: *existing.OriginSlotID, date: existing.Date}
		newKey := originKey{ownerID: existing.OwnerID, slotID: *existing.OriginSlotID, date: task.Date}
		if _, taken := s.origins[newKey]; taken {
			return persistence.ErrDuplicate
		}
		delete(s.origins, oldKey)
		s.origins[newKey] = task.ID
	}
	s.tasks[task.ID] = cloneTask(task)
	return nil
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(ctx context.Context, id string) (domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return domain.Task{}, persistence.ErrNotFound
	}
	return cloneTask(task), nil
}

// ListTasks returns the owner's tasks matching the filter.
func (s *Store) ListTasks(ctx context.Context, filter persistence.TaskFilter) ([]domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]domain.Task, 0)
	for _, task := range s.tasks {
		if task.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Date != nil && task.Date != *filter.Date {
			continue
		}
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		if filter.OnlyGenerated && !task.Generated() {
			continue
		}
		tasks = append(tasks, cloneTask(task))
	}
	persistence.SortTasks(tasks)
	return tasks, nil
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return persistence.ErrNotFound
	}
	if task.Generated() {
		delete(s.origins, originKey{ownerID: task.OwnerID, slotID: *task.OriginSlotID, date: task.Date})
	}
	delete(s.tasks, id)
	return nil
}

// --- FocusSessionRepository implementation ---

// CreateFocusSession appends a session.
func (s *Store) CreateFocusSession(ctx context.Context, session domain.FocusSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.ID]; ok {
		return persistence.ErrDuplicate
	}
	if session.DurationMinutes <= 0 {
		return persistence.ErrConstraintViolation
	}
	s.sessions[session.ID] = cloneSession(session)
	return nil
}

// ListFocusSessions returns the owner's sessions matching the filter.
func (s *Store) ListFocusSessions(ctx context.Context, filter persistence.FocusSessionFilter) ([]domain.FocusSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]domain.FocusSession, 0)
	for _, session := range s.sessions {
		if session.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Kind != nil && session.Kind != *filter.Kind {
			continue
		}
		if filter.StartsAtOrAfter != nil && session.StartTime.Before(*filter.StartsAtOrAfter) {
			continue
		}
		if filter.StartsBefore != nil && !session.StartTime.Before(*filter.StartsBefore) {
			continue
		}
		sessions = append(sessions, cloneSession(session))
	}
	persistence.SortFocusSessions(sessions)
	return sessions, nil
}

func cloneSlot(slot domain.Slot) domain.Slot {
	slot.Location = cloneString(slot.Location)
	return slot
}

func cloneTask(task domain.Task) domain.Task {
	task.Description = cloneString(task.Description)
	task.OriginSlotID = cloneString(task.OriginSlotID)
	return task
}

func cloneSession(session domain.FocusSession) domain.FocusSession {
	session.TaskID = cloneString(session.TaskID)
	return session
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copy := *value
	return &copy
}
