package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// gcmTagSize is the minimum ciphertext length: an empty plaintext still carries a tag.
const gcmTagSize = 16

// Envelope is the at-rest form of an encrypted secret.
// Salt is present when the key was derived from a passphrase.
type Envelope struct {
	IV         []byte `json:"iv"`
	Ciphertext []byte `json:"ciphertext"`
	Salt       []byte `json:"salt,omitempty"`
}

// Seal encrypts plaintext under a key derived from passphrase with a fresh salt.
func Seal(passphrase string, plaintext []byte) (*Envelope, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}
	key, err := DeriveKeyFromPassphrase(passphrase, salt)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()

	env, err := SealWithKey(key, plaintext)
	if err != nil {
		return nil, err
	}
	env.Salt = salt
	return env, nil
}

// SealWithKey encrypts plaintext under an already derived key. The envelope carries no salt.
func SealWithKey(key *Key, plaintext []byte) (*Envelope, error) {
	iv, ciphertext, err := Encrypt(key, plaintext)
	if err != nil {
		return nil, err
	}
	return &Envelope{IV: iv, Ciphertext: ciphertext}, nil
}

// Open re-derives the passphrase key from the stored salt and decrypts.
func (e *Envelope) Open(passphrase string) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if len(e.Salt) == 0 {
		return nil, ErrMissingSalt
	}
	key, err := DeriveKeyFromPassphrase(passphrase, e.Salt)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()

	return Decrypt(key, e.IV, e.Ciphertext)
}

// OpenWithKey decrypts with an already derived key.
func (e *Envelope) OpenWithKey(key *Key) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return Decrypt(key, e.IV, e.Ciphertext)
}

// Validate enforces the fixed envelope shape.
func (e *Envelope) Validate() error {
	if e == nil {
		return fmt.Errorf("%w: nil envelope", ErrMalformedEnvelope)
	}
	if len(e.IV) != IVSize {
		return fmt.Errorf("%w: iv must be %d bytes, got %d", ErrMalformedEnvelope, IVSize, len(e.IV))
	}
	if len(e.Ciphertext) < gcmTagSize {
		return fmt.Errorf("%w: ciphertext shorter than authentication tag", ErrMalformedEnvelope)
	}
	if len(e.Salt) != 0 && len(e.Salt) != SaltSize {
		return fmt.Errorf("%w: salt must be %d bytes, got %d", ErrMalformedEnvelope, SaltSize, len(e.Salt))
	}
	return nil
}

// UnmarshalJSON rejects unknown fields and envelopes of the wrong shape.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	type wire Envelope
	var w wire

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&w); err != nil {
		return errors.Join(ErrMalformedEnvelope, err)
	}

	candidate := Envelope(w)
	if err := candidate.Validate(); err != nil {
		return err
	}
	*e = candidate
	return nil
}
