// Package session drives the vault lock state: which TOTP secret is
// committed, whether the working key is held, and how a remembered session
// comes back after a restart.
//
// # Architecture
//
// A Manager is an owned handle created with NewManager. It loads the auth
// record from a kvstore.Store and serializes every transition through one
// mutex. Register, Unlock and UnlockWithPassphrase also take a single-flight
// latch, so an overlapping call returns ErrBusy instead of queueing behind a
// slow PBKDF2 derivation.
//
// Transitions are pure functions in transitions.go. Each takes the current
// State plus precomputed inputs and returns the next State and a list of
// Effects. The Manager derives keys first, runs the effects against storage
// and only then commits the new state, so a storage failure leaves the
// session unchanged.
//
//	unregistered --register--> unlocked --lock--> locked
//	      ^                       ^                 |
//	      |                       +----unlock-------+
//	      +------------------reset------------------+
//
// # Remember me
//
// With UnlockOptions.Remember the record survives a restart. Adding a
// Passphrase escrows the secret in an envelope.Envelope and removes the
// plaintext copy from storage. InitSession then either auto-unlocks, asks for
// the passphrase (NeedsPassphrase), or performs a hard logout when the
// remember-me deadline has passed.
//
// # Usage
//
//	mgr, err := session.NewManager(ctx, store,
//	    session.WithRateLimiter(limiter, ""),
//	    session.WithAutoLock(15*time.Minute),
//	)
//	if err != nil {
//	    return err
//	}
//	defer mgr.Close()
//
//	if _, err := mgr.InitSession(ctx); err != nil {
//	    return err
//	}
//	if mgr.NeedsPassphrase() {
//	    err = mgr.UnlockWithPassphrase(ctx, passphrase)
//	} else {
//	    err = mgr.Unlock(ctx, code, session.UnlockOptions{})
//	}
//
// # Error Handling
//
// Invalid codes return ErrInvalidCode and wrong passphrases return
// ErrDecryptionFailed; neither says more. Throttled attempts return a
// *ratelimiter.LimitedError matching ErrRateLimited. Storage, crypto and
// tamper failures are also passed to the ErrorReporter given with
// WithErrorReporter.
package session
