package focustimer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/example/campus-planner/internal/domain"
)

// ErrCorruptSnapshot marks a snapshot that exists but cannot be used.
var ErrCorruptSnapshot = errors.New("focustimer: corrupt snapshot")

// Snapshot is the persisted form of the timer. An active snapshot describes a
// running countdown anchored at Start. An inactive one keeps the idle mode
// and the seconds left so a paused timer survives a restart.
type Snapshot struct {
	Active           bool               `json:"active"`
	Start            *time.Time         `json:"start,omitempty"`
	Mode             domain.SessionKind `json:"mode"`
	DurationMinutes  int                `json:"durationMinutes"`
	TaskRef          *string            `json:"taskRef,omitempty"`
	RemainingSeconds int                `json:"remainingSeconds,omitempty"`
}

func (s Snapshot) validate() error {
	if !s.Mode.Valid() {
		return errors.Wrapf(ErrCorruptSnapshot, "unknown mode %q", s.Mode)
	}
	if s.Active {
		if s.Start == nil || s.Start.IsZero() {
			return errors.Wrap(ErrCorruptSnapshot, "active snapshot without start")
		}
		if s.DurationMinutes <= 0 {
			return errors.Wrap(ErrCorruptSnapshot, "active snapshot without duration")
		}
		return nil
	}
	if s.RemainingSeconds < 0 {
		return errors.Wrap(ErrCorruptSnapshot, "negative remaining seconds")
	}
	return nil
}

// SnapshotStore persists a single timer snapshot.
type SnapshotStore interface {
	// Load returns ok=false when nothing is stored. Unusable content yields
	// an error wrapping ErrCorruptSnapshot.
	Load() (snapshot Snapshot, ok bool, err error)
	Save(snapshot Snapshot) error
	Clear() error
}

// FileSnapshotStore keeps the snapshot as a JSON file.
type FileSnapshotStore struct {
	path string
}

// NewFileSnapshotStore returns a store writing to path.
func NewFileSnapshotStore(path string) *FileSnapshotStore {
	return &FileSnapshotStore{path: path}
}

// Path returns the snapshot file location.
func (s *FileSnapshotStore) Path() string {
	return s.path
}

// Load reads and validates the snapshot file.
func (s *FileSnapshotStore) Load() (Snapshot, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, errors.Wrap(err, "read snapshot")
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, false, errors.Wrap(ErrCorruptSnapshot, err.Error())
	}
	if err := snapshot.validate(); err != nil {
		return Snapshot{}, false, err
	}
	return snapshot, true, nil
}

// Save replaces the snapshot file atomically.
func (s *FileSnapshotStore) Save(snapshot Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "create snapshot directory")
	}
	tmp, err := os.CreateTemp(dir, ".focus-timer-*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp snapshot")
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write temp snapshot")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp snapshot")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Wrap(err, "replace snapshot")
	}
	return nil
}

// Clear removes the snapshot file. A missing file is not an error.
func (s *FileSnapshotStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove snapshot")
	}
	return nil
}
