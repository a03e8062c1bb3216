package session

import (
	"time"

	"github.com/dmitrymomot/vaultcore/pkg/envelope"
)

// Status is the lock state of the vault.
type Status string

const (
	StatusUnregistered Status = "unregistered"
	StatusLocked       Status = "locked"
	StatusUnlocked     Status = "unlocked"
)

func (s Status) String() string {
	return string(s)
}

// Record is the persisted auth record. The plaintext secret and the envelope
// are never both set once a passphrase has been supplied.
type Record struct {
	TOTPSecret          *string            `json:"totpSecret"`
	EncryptedTOTPSecret *envelope.Envelope `json:"encryptedTotpSecret"`
	RememberMe          bool               `json:"rememberMe"`
	RememberMeExpiry    *int64             `json:"rememberMeExpiry"`   // unix ms, nil never expires
	RememberMeExpiryMs  *int64             `json:"rememberMeExpiryMs"` // preference used to recompute the deadline
}

// Registered reports whether a secret is committed in either form.
func (r Record) Registered() bool {
	return r.HasPlaintextSecret() || r.EncryptedTOTPSecret != nil
}

// HasPlaintextSecret reports whether the secret is stored unencrypted.
func (r Record) HasPlaintextSecret() bool {
	return r.TOTPSecret != nil && *r.TOTPSecret != ""
}

// ExpiryTime returns the remember-me deadline, if any.
func (r Record) ExpiryTime() (time.Time, bool) {
	if r.RememberMeExpiry == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*r.RememberMeExpiry), true
}

// ExpiryPreference returns the remember-me duration chosen at unlock, 0 for never.
func (r Record) ExpiryPreference() time.Duration {
	if r.RememberMeExpiryMs == nil {
		return 0
	}
	return time.Duration(*r.RememberMeExpiryMs) * time.Millisecond
}

// Expired reports whether the remember-me deadline has passed at now.
func (r Record) Expired(now time.Time) bool {
	deadline, ok := r.ExpiryTime()
	return ok && now.After(deadline)
}

// State is the in-memory session state. The working key is never part of it.
type State struct {
	Status          Status `json:"status"`
	NeedsPassphrase bool   `json:"needsPassphrase"`
	Record          Record `json:"record"`

	// secret is the committed secret in canonical Base32. After a passphrase
	// restore it exists only here.
	secret string
}

// IsUnlocked reports whether the working key is held.
func (s State) IsUnlocked() bool {
	return s.Status == StatusUnlocked
}

// IsRegistered reports whether a secret has been committed.
func (s State) IsRegistered() bool {
	return s.secret != "" || s.Record.Registered()
}

// stateFromRecord builds the startup state for a loaded record.
func stateFromRecord(rec Record) State {
	s := State{Status: StatusUnregistered, Record: rec}
	if rec.Registered() {
		s.Status = StatusLocked
	}
	if rec.HasPlaintextSecret() {
		s.secret = *rec.TOTPSecret
	}
	return s
}
