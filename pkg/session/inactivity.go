package session

import (
	"sync"
	"time"
)

// InactivityTimer calls onExpire once timeout passes without a Reset.
// onExpire receives the generation it was armed with; callers that take
// their own lock before acting should confirm it with Current.
// A zero or negative timeout disables it.
type InactivityTimer struct {
	mu       sync.Mutex
	timeout  time.Duration
	onExpire func(gen uint64)
	timer    *time.Timer
	gen      uint64
}

// NewInactivityTimer returns a stopped timer.
func NewInactivityTimer(timeout time.Duration, onExpire func(gen uint64)) *InactivityTimer {
	return &InactivityTimer{timeout: timeout, onExpire: onExpire}
}

// Reset (re)arms the timer.
func (t *InactivityTimer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timeout <= 0 || t.onExpire == nil {
		return
	}
	t.stopLocked()
	gen := t.gen
	t.timer = time.AfterFunc(t.timeout, func() {
		t.mu.Lock()
		// a Stop or Reset raced with this firing
		if gen != t.gen {
			t.mu.Unlock()
			return
		}
		t.timer = nil
		t.mu.Unlock()
		t.onExpire(gen)
	})
}

// Stop cancels a pending expiry.
func (t *InactivityTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

// Current reports whether gen is still the latest arming. It turns false
// after any Reset or Stop.
func (t *InactivityTimer) Current(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return gen == t.gen
}

// Active reports whether an expiry is pending.
func (t *InactivityTimer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

// Timeout returns the configured inactivity period.
func (t *InactivityTimer) Timeout() time.Duration {
	return t.timeout
}

func (t *InactivityTimer) stopLocked() {
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
