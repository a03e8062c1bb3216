package envelope

import "errors"

var (
	// Key derivation errors. Bad inputs here are programming errors, not user errors.
	ErrKeyDerivationFailed = errors.New("key derivation failed")
	ErrInvalidSalt         = errors.New("invalid salt: must be 16 bytes")
	ErrEmptyInput          = errors.New("empty key material")
	ErrKeyDestroyed        = errors.New("key has been destroyed")

	// Encryption/decryption errors. ErrDecryptionFailed deliberately does not
	// say whether the key was wrong or the data was altered.
	ErrEncryptionFailed  = errors.New("encryption failed")
	ErrDecryptionFailed  = errors.New("decryption failed: invalid key or corrupted data")
	ErrMalformedEnvelope = errors.New("malformed envelope")
	ErrMissingSalt       = errors.New("envelope has no salt")
)
