package focustimer

import (
	"context"
	"time"

	"github.com/example/campus-planner/internal/domain"
)

// Scheduler runs f once after d. The returned function cancels the callback
// if it has not fired yet.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (cancel func())
}

// WallScheduler schedules callbacks with time.AfterFunc.
type WallScheduler struct{}

// AfterFunc implements Scheduler.
func (WallScheduler) AfterFunc(d time.Duration, f func()) func() {
	timer := time.AfterFunc(d, f)
	return func() { timer.Stop() }
}

// Session is a completed focus run handed to a SessionRecorder.
type Session struct {
	TaskRef         *string
	DurationMinutes int
	Kind            domain.SessionKind
	Start           time.Time
	End             time.Time
}

// SessionRecorder stores completed sessions, usually through the HTTP API.
type SessionRecorder interface {
	RecordFocusSession(ctx context.Context, session Session) error
}

// SessionRecorderFunc adapts a function to SessionRecorder.
type SessionRecorderFunc func(ctx context.Context, session Session) error

// RecordFocusSession implements SessionRecorder.
func (f SessionRecorderFunc) RecordFocusSession(ctx context.Context, session Session) error {
	return f(ctx, session)
}
