package ratelimiter

import (
	"fmt"
	"time"
)

const (
	DefaultMaxAttempts     = 5
	DefaultLockoutDuration = 15 * time.Minute
	DefaultBaseDelay       = time.Second
	DefaultMaxDelay        = 30 * time.Second
	DefaultGracePeriod     = 5 * time.Second
	DefaultKeyPrefix       = "ledgy-auth-rate-limit:"
	DefaultSigningKey      = "ledgy-rate-limit-hmac-key-v1"
)

// Config defines backoff and lockout behaviour.
type Config struct {
	MaxAttempts     int           `env:"RATELIMIT_MAX_ATTEMPTS" envDefault:"5"`                           // Failures before lockout
	LockoutDuration time.Duration `env:"RATELIMIT_LOCKOUT_DURATION" envDefault:"15m"`                     // Lockout length, extended by failures while locked
	BaseDelay       time.Duration `env:"RATELIMIT_BASE_DELAY" envDefault:"1s"`                            // Backoff after the first failure
	MaxDelay        time.Duration `env:"RATELIMIT_MAX_DELAY" envDefault:"30s"`                            // Backoff cap
	GracePeriod     time.Duration `env:"RATELIMIT_GRACE_PERIOD" envDefault:"5s"`                          // Clock skew allowance added to lockouts
	KeyPrefix       string        `env:"RATELIMIT_KEY_PREFIX" envDefault:"ledgy-auth-rate-limit:"`        // Storage key prefix, account is appended
	SigningKey      string        `env:"RATELIMIT_SIGNING_KEY" envDefault:"ledgy-rate-limit-hmac-key-v1"` // HMAC key for persisted state
}

// DefaultConfig returns the standard limits: 5 attempts, 15 minute lockout,
// 1s..30s backoff and a 5 second grace period.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     DefaultMaxAttempts,
		LockoutDuration: DefaultLockoutDuration,
		BaseDelay:       DefaultBaseDelay,
		MaxDelay:        DefaultMaxDelay,
		GracePeriod:     DefaultGracePeriod,
		KeyPrefix:       DefaultKeyPrefix,
		SigningKey:      DefaultSigningKey,
	}
}

// Delay returns the backoff owed after the given number of failures:
// zero for none, min(base*2^(n-1), max) below MaxAttempts, and the
// lockout duration from MaxAttempts on.
func (c Config) Delay(attempts int) time.Duration {
	if attempts <= 0 {
		return 0
	}
	if attempts >= c.MaxAttempts {
		return c.LockoutDuration
	}

	delay := c.BaseDelay
	for range attempts - 1 {
		delay *= 2
		if delay >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	return min(delay, c.MaxDelay)
}

// CalculateDelay is Delay under DefaultConfig.
func CalculateDelay(attempts int) time.Duration {
	return DefaultConfig().Delay(attempts)
}

func (c Config) validate() error {
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max attempts must be positive, got %d", ErrInvalidConfig, c.MaxAttempts)
	}
	if c.LockoutDuration <= 0 {
		return fmt.Errorf("%w: lockout duration must be positive, got %v", ErrInvalidConfig, c.LockoutDuration)
	}
	if c.BaseDelay <= 0 || c.MaxDelay < c.BaseDelay {
		return fmt.Errorf("%w: need 0 < base delay <= max delay, got %v and %v", ErrInvalidConfig, c.BaseDelay, c.MaxDelay)
	}
	if c.GracePeriod < 0 {
		return fmt.Errorf("%w: grace period must not be negative, got %v", ErrInvalidConfig, c.GracePeriod)
	}
	if c.KeyPrefix == "" {
		return fmt.Errorf("%w: key prefix is required", ErrInvalidConfig)
	}
	if c.SigningKey == "" {
		return fmt.Errorf("%w: signing key is required", ErrInvalidConfig)
	}
	return nil
}
