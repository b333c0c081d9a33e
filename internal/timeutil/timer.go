// Package timeutil provides a restartable one-shot timer with generation
// tracking, used to drive transaction timeouts.
//
// Every (re)arm advances a generation counter and the expiry callback receives
// the generation and interval it was armed with. A fire that raced a Stop or a
// re-arm carries a stale generation and can be detected and dropped by the
// owner, so a cancelled timer never produces a spurious event.
package timeutil

import (
	"sync"
	"time"
)

// Timer is a one-shot timer around [time.AfterFunc].
// The zero value is ready to use. All methods are safe for concurrent use.
type Timer struct {
	mu    sync.Mutex
	gen   uint64
	d     time.Duration
	tm    *time.Timer
	armed bool
}

// Arm schedules fn to run once after d, replacing any pending schedule.
// fn receives the generation and the interval the timer was armed with.
// The generation is already verified against a concurrent Stop or re-arm,
// but owners that serialize events externally should re-check it with [Timer.Gen]
// under their own lock before acting on the fire.
func (t *Timer) Arm(d time.Duration, fn func(gen uint64, interval time.Duration)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.tm != nil {
		t.tm.Stop()
	}
	t.gen++
	t.d = d
	t.armed = true

	gen := t.gen
	t.tm = time.AfterFunc(d, func() {
		t.mu.Lock()
		if t.gen != gen {
			t.mu.Unlock()
			return
		}
		t.armed = false
		t.mu.Unlock()

		fn(gen, d)
	})
}

// Stop cancels the pending schedule, if any, and invalidates in-flight fires.
// It reports whether a schedule was pending.
func (t *Timer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gen++
	wasArmed := t.armed
	t.armed = false
	if t.tm != nil {
		t.tm.Stop()
		t.tm = nil
	}
	return wasArmed
}

// Armed reports whether a schedule is pending.
func (t *Timer) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed
}

// Gen returns the current generation.
func (t *Timer) Gen() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen
}

// Interval returns the interval the timer was last armed with.
func (t *Timer) Interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.d
}
