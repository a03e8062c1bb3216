package ratelimiter

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// State is the persisted per-account record. Timestamps are Unix milliseconds.
type State struct {
	Account     string `json:"account"`
	Attempts    int    `json:"attempts"`
	LastAttempt int64  `json:"lastAttempt"`
	LockedUntil *int64 `json:"lockedUntil"`
	Signature   string `json:"signature"`
}

// signedFields fixes the field order covered by the signature.
type signedFields struct {
	Account     string `json:"account"`
	Attempts    int    `json:"attempts"`
	LastAttempt int64  `json:"lastAttempt"`
	LockedUntil *int64 `json:"lockedUntil"`
}

// LastAttemptTime returns LastAttempt as a time.
func (s *State) LastAttemptTime() time.Time {
	return time.UnixMilli(s.LastAttempt)
}

// LockedUntilTime returns the lockout end and whether a lockout is set.
func (s *State) LockedUntilTime() (time.Time, bool) {
	if s.LockedUntil == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*s.LockedUntil), true
}

func (s *State) sign(key []byte) error {
	mac, err := s.computeMAC(key)
	if err != nil {
		return err
	}
	s.Signature = base64.StdEncoding.EncodeToString(mac)
	return nil
}

// verify reports why the signature does not hold, or nil.
func (s *State) verify(key []byte) error {
	if s.Signature == "" {
		return fmt.Errorf("%w: missing signature", ErrStateTampered)
	}
	got, err := base64.StdEncoding.DecodeString(s.Signature)
	if err != nil {
		return fmt.Errorf("%w: undecodable signature", ErrStateTampered)
	}
	want, err := s.computeMAC(key)
	if err != nil {
		return err
	}
	if !hmac.Equal(got, want) {
		return fmt.Errorf("%w: signature mismatch", ErrStateTampered)
	}
	return nil
}

func (s *State) computeMAC(key []byte) ([]byte, error) {
	payload, err := json.Marshal(signedFields{
		Account:     s.Account,
		Attempts:    s.Attempts,
		LastAttempt: s.LastAttempt,
		LockedUntil: s.LockedUntil,
	})
	if err != nil {
		return nil, err
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(payload)
	return mac.Sum(nil), nil
}
