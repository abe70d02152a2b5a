package testfixtures

import (
	"sort"
	"sync"
	"time"
)

// Clock is a manually driven time source. It also schedules callbacks the way
// time.AfterFunc does, firing them only when Advance moves past their deadline,
// so it can stand in for the focus timer's scheduler.
type Clock struct {
	mu      sync.Mutex
	current time.Time
	nextID  uint64
	timers  map[uint64]pendingTimer
}

type pendingTimer struct {
	id       uint64
	deadline time.Time
	fn       func()
}

// NewClock returns a clock set to start, or to ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start, timers: make(map[uint64]pendingTimer)}
}

// Now returns the clock time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc exposes Now for injection. A nil clock falls back to time.Now.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set moves the clock to t without firing timers.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// AfterFunc registers f to run once the clock has advanced by d.
func (c *Clock) AfterFunc(d time.Duration, f func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timers == nil {
		c.timers = make(map[uint64]pendingTimer)
	}
	c.nextID++
	id := c.nextID
	c.timers[id] = pendingTimer{id: id, deadline: c.current.Add(d), fn: f}
	return func() {
		c.mu.Lock()
		delete(c.timers, id)
		c.mu.Unlock()
	}
}

// Pending reports how many callbacks are waiting.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// Advance moves the clock forward by d in steps, firing every callback whose
// deadline is reached, in deadline order. Callbacks registered while firing
// run too if they fall inside the window. It returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	target := c.current.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		due, ok := c.nextDueLocked(target)
		if !ok {
			c.current = target
			c.mu.Unlock()
			return target
		}
		delete(c.timers, due.id)
		if due.deadline.After(c.current) {
			c.current = due.deadline
		}
		c.mu.Unlock()

		due.fn()
	}
}

func (c *Clock) nextDueLocked(target time.Time) (pendingTimer, bool) {
	due := make([]pendingTimer, 0, len(c.timers))
	for _, timer := range c.timers {
		if !timer.deadline.After(target) {
			due = append(due, timer)
		}
	}
	if len(due) == 0 {
		return pendingTimer{}, false
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].deadline.Equal(due[j].deadline) {
			return due[i].deadline.Before(due[j].deadline)
		}
		return due[i].id < due[j].id
	})
	return due[0], true
}
