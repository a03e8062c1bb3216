package ratelimiter

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyAccount is returned for operations without an account.
	ErrEmptyAccount = errors.New("empty account")

	// ErrRateLimited reports that an attempt is not allowed yet.
	// The concrete error is *LimitedError.
	ErrRateLimited = errors.New("too many attempts")

	// ErrStateTampered is passed to the tamper handler when persisted state
	// fails validation. It is never returned to callers.
	ErrStateTampered = errors.New("rate limit state tampered")

	// ErrStoreUnavailable wraps failures of the backing store.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// LimitedError carries the wait time of a denied attempt.
type LimitedError struct {
	WaitTime time.Duration
	Locked   bool
}

func (e *LimitedError) Error() string {
	return fmt.Sprintf("%s: retry in %ds", ErrRateLimited.Error(), ceilSeconds(e.WaitTime))
}

func (e *LimitedError) Unwrap() error {
	return ErrRateLimited
}

// WaitSeconds is the wait time rounded up to whole seconds.
func (e *LimitedError) WaitSeconds() int {
	return ceilSeconds(e.WaitTime)
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
