package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"
	"sync"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the derived key length (AES-256).
	KeySize = 32
	// SaltSize is the length of HKDF and PBKDF2 salts.
	SaltSize = 16
	// IVSize is the AES-GCM nonce length.
	IVSize = 12
	// PBKDF2Iterations is the passphrase stretching cost.
	PBKDF2Iterations = 100_000
)

// Key is an opaque AES-256-GCM key. The raw key bytes are wiped as soon as the
// cipher is built, so a Key cannot be exported or persisted.
type Key struct {
	mu   sync.RWMutex
	aead cipher.AEAD
}

// DeriveKeyFromTOTP derives a key from raw TOTP secret bytes with HKDF-SHA256
// and an empty info string. The same secret and salt always yield the same key.
func DeriveKeyFromTOTP(secret, salt []byte) (*Key, error) {
	if len(secret) == 0 {
		return nil, errors.Join(ErrKeyDerivationFailed, ErrEmptyInput)
	}
	if len(salt) != SaltSize {
		return nil, errors.Join(ErrKeyDerivationFailed, ErrInvalidSalt)
	}

	raw := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, salt, nil), raw); err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}
	return newKey(raw)
}

// DeriveKeyFromPassphrase stretches a passphrase with PBKDF2-HMAC-SHA256.
// This is CPU bound (hundreds of milliseconds); callers should treat it as blocking.
func DeriveKeyFromPassphrase(passphrase string, salt []byte) (*Key, error) {
	if passphrase == "" {
		return nil, errors.Join(ErrKeyDerivationFailed, ErrEmptyInput)
	}
	if len(salt) != SaltSize {
		return nil, errors.Join(ErrKeyDerivationFailed, ErrInvalidSalt)
	}

	raw := pbkdf2.Key([]byte(passphrase), salt, PBKDF2Iterations, KeySize, sha256.New)
	return newKey(raw)
}

// GenerateSalt returns SaltSize fresh random bytes.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}
	return salt, nil
}

// Destroy drops the cipher. Any later use of the key fails with ErrKeyDestroyed.
func (k *Key) Destroy() {
	if k == nil {
		return
	}
	k.mu.Lock()
	k.aead = nil
	k.mu.Unlock()
}

// Destroyed reports whether Destroy has been called.
func (k *Key) Destroyed() bool {
	if k == nil {
		return true
	}
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.aead == nil
}

func (k *Key) aeadCipher() (cipher.AEAD, error) {
	if k == nil {
		return nil, ErrKeyDestroyed
	}
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.aead == nil {
		return nil, ErrKeyDestroyed
	}
	return k.aead, nil
}

func newKey(raw []byte) (*Key, error) {
	defer clearBytes(raw)

	block, err := aes.NewCipher(raw)
	if err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}
	return &Key{aead: aead}, nil
}

// clearBytes zeroes key material once it is no longer needed.
func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
