package capture

import (
	"sync/atomic"
	"time"
)

// Race decides which of load completion and deadline expiry triggers the
// capture. The latch is independent of the order in which callbacks arrive.
type Race struct {
	timer     *time.Timer
	triggered atomic.Bool
}

// NewRace arms a one-shot timer when timeout is positive. A zero timeout
// disables the deadline.
func NewRace(timeout time.Duration) *Race {
	r := &Race{}
	if timeout > 0 {
		r.timer = time.NewTimer(timeout)
	}
	return r
}

// Armed reports whether a deadline was configured.
func (r *Race) Armed() bool {
	return r.timer != nil
}

// Expired returns the deadline channel. It is nil, and never ready, when the
// race is disabled.
func (r *Race) Expired() <-chan time.Time {
	if r.timer == nil {
		return nil
	}
	return r.timer.C
}

// Trigger claims the capture. Only the first call returns true.
func (r *Race) Trigger() bool {
	return r.triggered.CompareAndSwap(false, true)
}

// Triggered reports whether the capture has been claimed.
func (r *Race) Triggered() bool {
	return r.triggered.Load()
}

// Disarm stops the pending deadline, if any.
func (r *Race) Disarm() {
	if r.timer != nil {
		r.timer.Stop()
	}
}
