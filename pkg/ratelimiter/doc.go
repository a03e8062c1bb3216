// Package ratelimiter throttles failed authentication attempts per account.
//
// Each failure is recorded in a signed State persisted through a
// kvstore.Store. After a failure the account must wait an exponential
// backoff (1s, 2s, 4s, 8s with the defaults) before the next attempt; the
// fifth failure locks the account for 15 minutes, and every failure during a
// lockout restarts it. A 5 second grace period absorbs clock skew.
//
// State is signed with HMAC-SHA256 over its other fields. Records that fail to
// decode, belong to another account or carry a bad signature are treated as
// absent, deleted, logged at WARN and passed to the TamperHandler. This is
// conservative on purpose: the limiter runs on the user's device and is a
// deterrent, not a security boundary.
//
// # Usage
//
//	limiter, err := ratelimiter.New(store, ratelimiter.DefaultConfig(),
//	    ratelimiter.WithLogger(log),
//	)
//	if err != nil {
//	    return err
//	}
//
//	err = limiter.Guard(ctx, account, func() error {
//	    return verify(code)
//	}, func(err error) bool { return errors.Is(err, ErrInvalidCode) })
//
//	var limited *ratelimiter.LimitedError
//	if errors.As(err, &limited) {
//	    fmt.Printf("try again in %ds\n", limited.WaitSeconds())
//	}
//
// Read-modify-write cycles are serialized by a mutex per account, so
// concurrent failures for the same account are never lost within a process.
package ratelimiter
