package session

import "time"

const (
	// DefaultStorageKey is the kvstore key of the auth record.
	DefaultStorageKey = "ledgy-auth-storage"

	// DefaultAccount is the rate limiter subject for the local vault.
	DefaultAccount = "local"

	// DefaultHKDFSalt is the salt used to derive the working key from the TOTP secret.
	DefaultHKDFSalt = "ledgy-vault-hkdf"
)

// Config holds session configuration
type Config struct {
	// StorageKey is where the auth record lives in the kvstore
	StorageKey string `env:"SESSION_STORAGE_KEY" envDefault:"ledgy-auth-storage"`

	// Account is the rate limiter subject for unlock attempts
	Account string `env:"SESSION_ACCOUNT" envDefault:"local"`

	// AutoLock locks the vault after this much inactivity (0 to disable)
	AutoLock time.Duration `env:"SESSION_AUTO_LOCK" envDefault:"15m"`

	// VerifyWindow is the number of TOTP steps accepted on each side of now
	VerifyWindow int `env:"SESSION_VERIFY_WINDOW" envDefault:"1"`

	// HKDFSalt must be 16 bytes
	HKDFSalt string `env:"SESSION_HKDF_SALT" envDefault:"ledgy-vault-hkdf"`
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		StorageKey:   DefaultStorageKey,
		Account:      DefaultAccount,
		AutoLock:     15 * time.Minute,
		VerifyWindow: 1,
		HKDFSalt:     DefaultHKDFSalt,
	}
}
