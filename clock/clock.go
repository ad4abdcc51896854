// Package clock provides cancelable scheduled tasks behind an interface so
// timers and backoff delays can be driven by a virtual clock in tests.
package clock

import (
	"sync/atomic"
	"time"
)

// Clock schedules one-shot and periodic callbacks.
type Clock interface {
	Now() time.Time
	// AfterFunc runs f once after d.
	AfterFunc(d time.Duration, f func()) Timer
	// Every runs f each period until the returned Timer is stopped.
	Every(period time.Duration, f func()) Timer
}

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop cancels the callback. It reports whether this call cancelled it;
	// a second Stop returns false.
	Stop() bool
}

// Real is a Clock backed by the runtime timers.
//
// When Dispatch is set, callbacks are handed to it instead of running on the
// timer goroutine, which lets a host run them on its own event loop. A
// callback that was already dispatched but has not run yet is dropped if its
// Timer is stopped in the meantime.
type Real struct {
	Dispatch func(func())
}

// Now returns the current wall clock time.
func (r Real) Now() time.Time {
	return time.Now()
}

// AfterFunc implements Clock.
func (r Real) AfterFunc(d time.Duration, f func()) Timer {
	rt := &realTimer{oneShot: true}
	rt.t = time.AfterFunc(d, func() {
		r.run(rt, f)
	})
	return rt
}

// Every implements Clock.
func (r Real) Every(period time.Duration, f func()) Timer {
	rt := &realTimer{ticker: time.NewTicker(period), done: make(chan struct{})}
	go func() {
		for {
			select {
			case <-rt.done:
				return
			case <-rt.ticker.C:
				r.run(rt, f)
			}
		}
	}()
	return rt
}

func (r Real) run(rt *realTimer, f func()) {
	if r.Dispatch == nil {
		rt.fire(f)
		return
	}
	r.Dispatch(func() { rt.fire(f) })
}

type realTimer struct {
	t       *time.Timer
	ticker  *time.Ticker
	done    chan struct{}
	oneShot bool
	stopped atomic.Bool
}

// fire runs f unless the timer was stopped. A one-shot timer counts as
// stopped once it has fired.
func (rt *realTimer) fire(f func()) {
	if rt.oneShot {
		if rt.stopped.CompareAndSwap(false, true) {
			f()
		}
		return
	}
	if !rt.stopped.Load() {
		f()
	}
}

func (rt *realTimer) Stop() bool {
	if !rt.stopped.CompareAndSwap(false, true) {
		return false
	}
	if rt.t != nil {
		rt.t.Stop()
	}
	if rt.ticker != nil {
		rt.ticker.Stop()
		close(rt.done)
	}
	return true
}

// Sleep blocks until d has elapsed on c or done is closed. It reports whether
// the full delay elapsed.
func Sleep(c Clock, d time.Duration, done <-chan struct{}) bool {
	fired := make(chan struct{})
	t := c.AfterFunc(d, func() { close(fired) })
	select {
	case <-fired:
		return true
	case <-done:
		t.Stop()
		return false
	}
}
