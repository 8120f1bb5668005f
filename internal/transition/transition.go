// Package transition provides the deferred-swap mechanism that keeps the
// displayed card content stable until a flip animation has visually
// completed. It is a plain schedule/cancel abstraction with no rendering
// dependencies, so tests can drive it deterministically.
package transition

import (
	"sync"
	"time"
)

// DefaultSwapDelay is the flip animation half-duration: the latency between
// re-entering the unflipped state and the displayed content being swapped.
const DefaultSwapDelay = 150 * time.Millisecond

// Deferrer runs a single deferred action. Scheduling a new action cancels
// any pending one, so at most one action is ever outstanding.
type Deferrer interface {
	Schedule(d time.Duration, fn func())
	Cancel()
}

// Timer is the production Deferrer, backed by time.AfterFunc.
type Timer struct {
	mu sync.Mutex
	t  *time.Timer
}

// NewTimer returns a wall-clock Deferrer.
func NewTimer() *Timer { return &Timer{} }

// Schedule cancels any pending action and runs fn after d.
func (tm *Timer) Schedule(d time.Duration, fn func()) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.t != nil {
		tm.t.Stop()
	}
	tm.t = time.AfterFunc(d, fn)
}

// Cancel stops the pending action, if any. A callback that has already
// started may still run; callers guard against that with their own
// generation check.
func (tm *Timer) Cancel() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.t != nil {
		tm.t.Stop()
		tm.t = nil
	}
}

// Manual is a Deferrer for tests: nothing runs until Fire is called, so
// tests can observe the lag window and flush it deterministically.
type Manual struct {
	mu      sync.Mutex
	pending func()
}

// NewManual returns a test Deferrer.
func NewManual() *Manual { return &Manual{} }

// Schedule replaces any pending action with fn. The delay is ignored.
func (m *Manual) Schedule(_ time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = fn
}

// Cancel drops the pending action.
func (m *Manual) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = nil
}

// Pending reports whether an action is waiting to fire.
func (m *Manual) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending != nil
}

// Fire runs the pending action, if any, and clears it.
func (m *Manual) Fire() {
	m.mu.Lock()
	fn := m.pending
	m.pending = nil
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Controller schedules displayed-card swaps with a fixed delay matching the
// flip animation half-duration.
type Controller struct {
	delay time.Duration
	def   Deferrer
}

// NewController builds a Controller. A non-positive delay falls back to
// DefaultSwapDelay.
func NewController(delay time.Duration, def Deferrer) *Controller {
	if delay <= 0 {
		delay = DefaultSwapDelay
	}
	return &Controller{delay: delay, def: def}
}

// ScheduleSwap defers fn by the configured delay, cancelling any swap still
// pending from an earlier transition.
func (c *Controller) ScheduleSwap(fn func()) {
	c.def.Schedule(c.delay, fn)
}

// Cancel drops any pending swap. Called on re-flip and on session teardown.
func (c *Controller) Cancel() {
	c.def.Cancel()
}

// Delay returns the configured swap delay.
func (c *Controller) Delay() time.Duration { return c.delay }
