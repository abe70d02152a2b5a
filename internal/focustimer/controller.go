// Package focustimer implements the wall-clock anchored focus countdown used by
// the command line client. A Controller owns the whole timer state and is
// driven by discrete commands; ticks arrive through a single scheduler slot.
package focustimer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/example/campus-planner/internal/domain"
)

var (
	// ErrAlreadyRunning is returned by Start while a countdown is active.
	ErrAlreadyRunning = errors.New("focustimer: timer already running")
	// ErrNotRunning is returned by Pause and Stop while the timer is idle.
	ErrNotRunning = errors.New("focustimer: timer is not running")
	// ErrInvalidDuration rejects non-positive durations.
	ErrInvalidDuration = errors.New("focustimer: durations must be positive")
)

const tickInterval = time.Second

// View is a read-only picture of the timer at one instant.
type View struct {
	Running         bool
	Mode            domain.SessionKind
	Remaining       time.Duration
	Start           time.Time
	DurationMinutes int
	TaskRef         *string
}

// Options configures a Controller.
type Options struct {
	FocusMinutes int
	BreakMinutes int
	Snapshots    SnapshotStore
	Recorder     SessionRecorder
	Scheduler    Scheduler
	Now          func() time.Time
	Logger       *slog.Logger
	// OnChange, when set, receives the view after every tick and transition.
	OnChange func(View)
}

type state struct {
	running bool
	mode    domain.SessionKind
	// durationMinutes is the length of the current countdown, idle or running.
	durationMinutes int
	taskRef         *string
	// idle only
	remaining time.Duration
	// running only
	start time.Time
}

// Controller is the focus timer state machine.
type Controller struct {
	mu           sync.Mutex
	state        state
	focusMinutes int
	breakMinutes int
	generation   uint64
	cancelTick   func()
	// saved is false while the snapshot on disk may lag behind state.
	saved bool

	snapshots SnapshotStore
	recorder  SessionRecorder
	scheduler Scheduler
	now       func() time.Time
	logger    *slog.Logger
	onChange  func(View)
}

// NewController returns an idle controller in focus mode with a full countdown.
func NewController(opts Options) *Controller {
	if opts.FocusMinutes <= 0 {
		opts.FocusMinutes = 25
	}
	if opts.BreakMinutes <= 0 {
		opts.BreakMinutes = 5
	}
	if opts.Scheduler == nil {
		opts.Scheduler = WallScheduler{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	c := &Controller{
		focusMinutes: opts.FocusMinutes,
		breakMinutes: opts.BreakMinutes,
		snapshots:    opts.Snapshots,
		recorder:     opts.Recorder,
		scheduler:    opts.Scheduler,
		now:          opts.Now,
		logger:       opts.Logger.With("component", "focustimer"),
		onChange:     opts.OnChange,
	}
	c.state = c.idle(domain.SessionFocus, 0, nil)
	return c
}

// View reports the current state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// SetDurations changes the configured focus and break lengths. A running
// countdown keeps its own duration. An idle timer that has not been started
// picks up the new length.
func (c *Controller) SetDurations(focusMinutes, breakMinutes int) error {
	if focusMinutes <= 0 || breakMinutes <= 0 {
		return ErrInvalidDuration
	}
	c.mu.Lock()
	untouched := !c.state.running && c.state.remaining == c.countdownLocked()
	c.focusMinutes = focusMinutes
	c.breakMinutes = breakMinutes
	if untouched {
		c.state = c.idle(c.state.mode, 0, c.state.taskRef)
	}
	view := c.viewLocked()
	c.mu.Unlock()

	c.notify(view)
	return nil
}

// Start begins or resumes the countdown of the current mode. A partially
// elapsed idle timer is re-anchored so that start = now - (duration - remaining).
// A non-nil taskRef replaces the task carried by the idle state.
func (c *Controller) Start(taskRef *string) (View, error) {
	c.mu.Lock()
	if c.state.running {
		view := c.viewLocked()
		c.mu.Unlock()
		return view, ErrAlreadyRunning
	}

	now := c.now()
	duration := c.countdownLocked()
	remaining := c.state.remaining
	if remaining <= 0 || remaining > duration {
		remaining = duration
	}
	if taskRef == nil {
		taskRef = c.state.taskRef
	}
	if c.state.mode != domain.SessionFocus {
		taskRef = nil
	}

	c.state = state{
		running:         true,
		mode:            c.state.mode,
		start:           now.Add(-(duration - remaining)),
		durationMinutes: int(duration / time.Minute),
		taskRef:         taskRef,
	}
	c.persistLocked()
	c.armLocked()
	view := c.viewLocked()
	c.mu.Unlock()

	c.notify(view)
	return view, nil
}

// Tick recomputes the remaining time and completes the countdown once it
// reaches zero. It is a no-op while idle.
func (c *Controller) Tick() View {
	c.mu.Lock()
	view, pending := c.tickLocked()
	c.mu.Unlock()

	c.record(context.Background(), pending)
	c.notify(view)
	return view
}

// Pause stops the countdown and keeps the remaining time. No session is recorded.
func (c *Controller) Pause() (View, error) {
	c.mu.Lock()
	if !c.state.running {
		view := c.viewLocked()
		c.mu.Unlock()
		return view, ErrNotRunning
	}

	c.disarmLocked()
	remaining := c.remainingLocked(c.now())
	c.state = c.idleFor(c.state.mode, c.state.durationMinutes, remaining, c.state.taskRef)
	c.persistLocked()
	view := c.viewLocked()
	c.mu.Unlock()

	c.notify(view)
	return view, nil
}

// Stop completes the countdown manually. A focus run records the elapsed
// minutes rounded up.
func (c *Controller) Stop(ctx context.Context) (View, error) {
	c.mu.Lock()
	if !c.state.running {
		view := c.viewLocked()
		c.mu.Unlock()
		return view, ErrNotRunning
	}
	pending := c.completeLocked(false, c.now())
	view := c.viewLocked()
	c.mu.Unlock()

	c.record(ctx, pending)
	c.notify(view)
	return view, nil
}

// Reset abandons the current run and returns to a full idle focus countdown.
func (c *Controller) Reset() View {
	c.mu.Lock()
	c.disarmLocked()
	c.state = c.idle(domain.SessionFocus, 0, nil)
	if c.snapshots != nil {
		if err := c.snapshots.Clear(); err != nil {
			c.logger.Warn("snapshot clear failed", "error", err)
		}
	}
	view := c.viewLocked()
	c.mu.Unlock()

	c.notify(view)
	return view
}

// Close cancels the pending tick without touching the state or the snapshot.
// A running countdown resumes from the snapshot in the next Restore.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disarmLocked()
}

// Restore loads the persisted snapshot. A countdown that has not overrun
// resumes with its original start. One that finished while nobody was
// watching is recorded with its configured duration, back-dated to its start,
// and the timer settles in the next mode. Corrupt snapshots are discarded.
func (c *Controller) Restore(ctx context.Context) (View, error) {
	c.mu.Lock()
	if c.snapshots == nil {
		view := c.viewLocked()
		c.mu.Unlock()
		return view, nil
	}

	snapshot, ok, err := c.snapshots.Load()
	if err != nil {
		if !errors.Is(err, ErrCorruptSnapshot) {
			view := c.viewLocked()
			c.mu.Unlock()
			return view, fmt.Errorf("load snapshot: %w", err)
		}
		c.logger.Debug("discarding corrupt snapshot", "error", err)
		if clearErr := c.snapshots.Clear(); clearErr != nil {
			c.logger.Warn("snapshot clear failed", "error", clearErr)
		}
		ok = false
	}
	if !ok {
		view := c.viewLocked()
		c.mu.Unlock()
		return view, nil
	}

	now := c.now()
	if snapshot.Active && snapshot.Start.After(now) {
		c.logger.Debug("discarding snapshot that starts in the future", "start", snapshot.Start.Format(time.RFC3339))
		if clearErr := c.snapshots.Clear(); clearErr != nil {
			c.logger.Warn("snapshot clear failed", "error", clearErr)
		}
		view := c.viewLocked()
		c.mu.Unlock()
		return view, nil
	}

	c.disarmLocked()
	c.saved = true
	var pending *Session
	switch {
	case !snapshot.Active:
		remaining := time.Duration(snapshot.RemainingSeconds) * time.Second
		c.state = c.idleFor(snapshot.Mode, snapshot.DurationMinutes, remaining, snapshot.TaskRef)
	case now.Sub(*snapshot.Start) < time.Duration(snapshot.DurationMinutes)*time.Minute:
		c.state = state{
			running:         true,
			mode:            snapshot.Mode,
			start:           *snapshot.Start,
			durationMinutes: snapshot.DurationMinutes,
			taskRef:         snapshot.TaskRef,
		}
		c.armLocked()
	default:
		c.state = state{
			running:         true,
			mode:            snapshot.Mode,
			start:           *snapshot.Start,
			durationMinutes: snapshot.DurationMinutes,
			taskRef:         snapshot.TaskRef,
		}
		end := snapshot.Start.Add(time.Duration(snapshot.DurationMinutes) * time.Minute)
		pending = c.completeLocked(true, end)
	}
	view := c.viewLocked()
	c.mu.Unlock()

	c.record(ctx, pending)
	c.notify(view)
	return view, nil
}

func (c *Controller) tickLocked() (View, *Session) {
	if !c.state.running {
		return c.viewLocked(), nil
	}
	now := c.now()
	if !c.followSnapshotLocked(now) {
		if c.state.running {
			c.armLocked()
		}
		return c.viewLocked(), nil
	}
	if c.remainingLocked(now) <= 0 {
		pending := c.completeLocked(true, now)
		return c.viewLocked(), pending
	}
	c.armLocked()
	return c.viewLocked(), nil
}

// followSnapshotLocked re-reads the snapshot of a running countdown and reports
// whether it still describes this run. When another process has paused,
// stopped, reset or restarted the timer, its state is adopted and nothing is
// recorded here. Read failures keep the local state.
func (c *Controller) followSnapshotLocked(now time.Time) bool {
	if c.snapshots == nil || !c.saved {
		return true
	}
	snapshot, ok, err := c.snapshots.Load()
	switch {
	case err != nil:
		c.logger.Warn("snapshot reload failed", "error", err)
		return true
	case !ok:
		c.disarmLocked()
		c.state = c.idle(domain.SessionFocus, 0, nil)
	case !snapshot.Active:
		c.disarmLocked()
		remaining := time.Duration(snapshot.RemainingSeconds) * time.Second
		c.state = c.idleFor(snapshot.Mode, snapshot.DurationMinutes, remaining, snapshot.TaskRef)
	case snapshot.Mode == c.state.mode && snapshot.Start.Equal(c.state.start):
		return true
	case snapshot.Start.After(now):
		return true
	default:
		c.disarmLocked()
		c.state = state{
			running:         true,
			mode:            snapshot.Mode,
			start:           *snapshot.Start,
			durationMinutes: snapshot.DurationMinutes,
			taskRef:         snapshot.TaskRef,
		}
	}
	c.logger.Debug("timer changed by another process", "running", c.state.running, "mode", string(c.state.mode))
	return false
}

// completeLocked moves a running timer to the idle state of the next mode and
// returns the session to record, if any. end is the recorded end time.
func (c *Controller) completeLocked(auto bool, end time.Time) *Session {
	c.disarmLocked()
	current := c.state

	var pending *Session
	next := domain.SessionFocus
	if current.mode == domain.SessionFocus {
		next = domain.SessionBreak
		minutes := current.durationMinutes
		if !auto {
			minutes = ceilMinutes(end.Sub(current.start))
		}
		if minutes > 0 {
			pending = &Session{
				TaskRef:         current.taskRef,
				DurationMinutes: minutes,
				Kind:            domain.SessionFocus,
				Start:           current.start,
				End:             end,
			}
		}
	}

	c.state = c.idle(next, 0, nil)
	c.persistLocked()
	return pending
}

// idle returns a stopped countdown of the configured length for mode.
func (c *Controller) idle(mode domain.SessionKind, remaining time.Duration, taskRef *string) state {
	return c.idleFor(mode, 0, remaining, taskRef)
}

// idleFor returns a stopped countdown of minutes length, falling back to the
// configured length when minutes is not positive. Remaining time outside
// (0, length] means a full countdown.
func (c *Controller) idleFor(mode domain.SessionKind, minutes int, remaining time.Duration, taskRef *string) state {
	if minutes <= 0 {
		minutes = int(c.fullDuration(mode) / time.Minute)
	}
	full := time.Duration(minutes) * time.Minute
	if remaining <= 0 || remaining > full {
		remaining = full
	}
	return state{mode: mode, durationMinutes: minutes, remaining: remaining, taskRef: taskRef}
}

// countdownLocked is the length of the current countdown.
func (c *Controller) countdownLocked() time.Duration {
	if c.state.durationMinutes > 0 {
		return time.Duration(c.state.durationMinutes) * time.Minute
	}
	return c.fullDuration(c.state.mode)
}

func (c *Controller) fullDuration(mode domain.SessionKind) time.Duration {
	if mode == domain.SessionBreak {
		return time.Duration(c.breakMinutes) * time.Minute
	}
	return time.Duration(c.focusMinutes) * time.Minute
}

// remainingLocked follows whole elapsed seconds, matching the displayed countdown.
func (c *Controller) remainingLocked(now time.Time) time.Duration {
	elapsed := now.Sub(c.state.start).Truncate(time.Second)
	return time.Duration(c.state.durationMinutes)*time.Minute - elapsed
}

func (c *Controller) viewLocked() View {
	view := View{
		Running: c.state.running,
		Mode:    c.state.mode,
		TaskRef: c.state.taskRef,
	}
	if !c.state.running {
		view.Remaining = c.state.remaining
		view.DurationMinutes = c.state.durationMinutes
		return view
	}
	view.Start = c.state.start
	view.DurationMinutes = c.state.durationMinutes
	view.Remaining = c.remainingLocked(c.now())
	if view.Remaining < 0 {
		view.Remaining = 0
	}
	return view
}

// armLocked replaces the pending tick. Callbacks from earlier generations are ignored.
func (c *Controller) armLocked() {
	c.disarmLocked()
	c.generation++
	generation := c.generation
	c.cancelTick = c.scheduler.AfterFunc(tickInterval, func() { c.fire(generation) })
}

func (c *Controller) disarmLocked() {
	if c.cancelTick != nil {
		c.cancelTick()
		c.cancelTick = nil
	}
	c.generation++
}

func (c *Controller) fire(generation uint64) {
	c.mu.Lock()
	if generation != c.generation {
		c.mu.Unlock()
		return
	}
	c.cancelTick = nil
	view, pending := c.tickLocked()
	c.mu.Unlock()

	c.record(context.Background(), pending)
	c.notify(view)
}

func (c *Controller) persistLocked() {
	if c.snapshots == nil {
		return
	}
	snapshot := Snapshot{Mode: c.state.mode, TaskRef: c.state.taskRef}
	if c.state.running {
		start := c.state.start
		snapshot.Active = true
		snapshot.Start = &start
		snapshot.DurationMinutes = c.state.durationMinutes
	} else {
		snapshot.DurationMinutes = c.state.durationMinutes
		snapshot.RemainingSeconds = int(c.state.remaining / time.Second)
	}
	if err := c.snapshots.Save(snapshot); err != nil {
		c.saved = false
		c.logger.Warn("snapshot save failed", "error", err)
		return
	}
	c.saved = true
}

// record stores a completed session. Failures are logged; the transition has
// already happened.
func (c *Controller) record(ctx context.Context, session *Session) {
	if session == nil {
		return
	}
	logger := c.logger.With(
		"minutes", session.DurationMinutes,
		"start", session.Start.Format(time.RFC3339),
	)
	if c.recorder == nil {
		logger.Warn("focus session dropped: no recorder configured")
		return
	}
	if err := c.recorder.RecordFocusSession(ctx, *session); err != nil {
		logger.Error("focus session save failed", "error", err)
		return
	}
	logger.Info("focus session recorded")
}

func (c *Controller) notify(view View) {
	if c.onChange != nil {
		c.onChange(view)
	}
}

func ceilMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Minute - 1) / time.Minute)
}
