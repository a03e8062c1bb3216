package session

import (
	"time"

	"github.com/dmitrymomot/vaultcore/pkg/envelope"
)

// UnlockOptions controls what an unlock persists.
type UnlockOptions struct {
	// Remember keeps the vault restorable across restarts.
	Remember bool
	// Passphrase escrows the secret in an envelope and clears the plaintext
	// copy from storage. Ignored unless Remember is set.
	Passphrase string
	// ExpiresIn bounds the remembered session. Zero never expires.
	ExpiresIn time.Duration
}

func (o UnlockOptions) escrow() bool {
	return o.Remember && o.Passphrase != ""
}

// InitAction reports what InitSession decided.
type InitAction int

const (
	InitNone InitAction = iota
	InitHardLogout
	InitAutoUnlock
	InitNeedsPassphrase
)

func (a InitAction) String() string {
	switch a {
	case InitHardLogout:
		return "hard_logout"
	case InitAutoUnlock:
		return "auto_unlock"
	case InitNeedsPassphrase:
		return "needs_passphrase"
	default:
		return "none"
	}
}

// registerTransition commits secret and unlocks. sealed is non-nil when the
// options asked for passphrase escrow.
func registerTransition(s State, secret string, opts UnlockOptions, sealed *envelope.Envelope, now time.Time) (State, []Effect, error) {
	if s.IsRegistered() {
		return s, nil, ErrAlreadyRegistered
	}
	to, err := Fire(s.Status, EventRegister)
	if err != nil {
		return s, nil, err
	}

	next := State{
		Status: to,
		Record: rememberRecord(secret, opts, sealed, now),
		secret: secret,
	}
	return next, []Effect{saveRecord(next.Record)}, nil
}

func unlockTransition(s State, opts UnlockOptions, sealed *envelope.Envelope, now time.Time) (State, []Effect, error) {
	if s.secret == "" {
		return s, nil, ErrNoCommittedSecret
	}
	to, err := Fire(s.Status, EventUnlock)
	if err != nil {
		return s, nil, err
	}

	next := s
	next.Status = to
	next.NeedsPassphrase = false
	next.Record = rememberRecord(s.secret, opts, sealed, now)
	return next, []Effect{saveRecord(next.Record)}, nil
}

// passphraseTransition unlocks with a secret recovered from the envelope.
// The secret stays in memory only. A stored expiry preference restarts the
// remember-me window from now.
func passphraseTransition(s State, secret string, now time.Time) (State, []Effect, error) {
	if s.Record.EncryptedTOTPSecret == nil {
		return s, nil, ErrNoEnvelope
	}
	to, err := Fire(s.Status, EventUnlockPassphrase)
	if err != nil {
		return s, nil, err
	}

	next := s
	next.Status = to
	next.NeedsPassphrase = false
	next.secret = secret

	pref := s.Record.ExpiryPreference()
	if pref <= 0 {
		return next, nil, nil
	}
	deadline := now.Add(pref).UnixMilli()
	next.Record.RememberMeExpiry = &deadline
	return next, []Effect{saveRecord(next.Record)}, nil
}

// lockTransition keeps the remember-me preference and the record untouched.
func lockTransition(s State) State {
	to, err := Fire(s.Status, EventLock)
	if err != nil {
		return s
	}
	s.Status = to
	return s
}

func resetTransition(s State) (State, []Effect, error) {
	to, err := Fire(s.Status, EventReset)
	if err != nil {
		return s, nil, err
	}
	return State{Status: to}, []Effect{deleteRecord()}, nil
}

// initTransition decides how a loaded session starts. InitAutoUnlock returns
// an unlocked state; the caller must derive the working key before committing.
func initTransition(s State, now time.Time) (State, []Effect, InitAction, error) {
	rec := s.Record
	switch {
	case s.Status != StatusLocked, !rec.RememberMe:
		return s, nil, InitNone, nil

	case rec.Expired(now):
		to, err := Fire(s.Status, EventExpire)
		if err != nil {
			return s, nil, InitNone, err
		}
		next := s
		next.Status = to
		next.NeedsPassphrase = false
		next.Record = Record{TOTPSecret: rec.TOTPSecret}
		if !next.Record.HasPlaintextSecret() {
			next.secret = ""
			if next.Status, err = Fire(next.Status, EventReset); err != nil {
				return s, nil, InitNone, err
			}
		}
		return next, []Effect{saveRecord(next.Record)}, InitHardLogout, nil

	case rec.EncryptedTOTPSecret != nil:
		next := s
		next.NeedsPassphrase = true
		return next, nil, InitNeedsPassphrase, nil

	case rec.HasPlaintextSecret():
		to, err := Fire(s.Status, EventRestore)
		if err != nil {
			return s, nil, InitNone, err
		}
		next := s
		next.Status = to
		return next, nil, InitAutoUnlock, nil
	}
	return s, nil, InitNone, nil
}

// rememberRecord builds the record persisted after a successful unlock.
func rememberRecord(secret string, opts UnlockOptions, sealed *envelope.Envelope, now time.Time) Record {
	rec := Record{RememberMe: opts.Remember}
	if sealed != nil {
		rec.EncryptedTOTPSecret = sealed
	} else {
		rec.TOTPSecret = &secret
	}
	if opts.Remember && opts.ExpiresIn > 0 {
		ms := opts.ExpiresIn.Milliseconds()
		deadline := now.UnixMilli() + ms
		rec.RememberMeExpiry = &deadline
		rec.RememberMeExpiryMs = &ms
	}
	return rec
}
