package scheduler

import (
	"sync"
	"time"
)

// Timer is a single-slot cancellable delay. Scheduling a new callback
// replaces any pending one, so at most one callback is ever outstanding.
type Timer struct {
	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// Schedule arranges for fn to run after d. A non-positive delay still runs
// fn on its own goroutine.
func (t *Timer) Schedule(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen

	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		if t.gen != gen {
			t.mu.Unlock()
			return
		}
		t.timer = nil
		t.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending callback. It reports whether one was pending.
func (t *Timer) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer == nil {
		return false
	}
	t.timer.Stop()
	t.timer = nil
	t.gen++
	return true
}

// Pending reports whether a callback is scheduled and has not fired
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}
