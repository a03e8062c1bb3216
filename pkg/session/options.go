package session

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/vaultcore/pkg/docstore"
	"github.com/dmitrymomot/vaultcore/pkg/ratelimiter"
)

// Option is a functional option for configuring the Manager
type Option func(*Manager)

// WithConfig sets custom configuration
func WithConfig(cfg Config) Option {
	return func(m *Manager) {
		m.cfg = cfg
	}
}

// WithStorageKey sets the kvstore key of the auth record
func WithStorageKey(key string) Option {
	return func(m *Manager) {
		m.cfg.StorageKey = key
	}
}

// WithAutoLock locks the vault after d without activity. Zero disables it.
func WithAutoLock(d time.Duration) Option {
	return func(m *Manager) {
		m.cfg.AutoLock = d
	}
}

// WithVerifyWindow sets how many TOTP steps are accepted on each side of now
func WithVerifyWindow(steps int) Option {
	return func(m *Manager) {
		m.cfg.VerifyWindow = steps
	}
}

// WithHKDFSalt overrides the 16-byte salt used for the working key
func WithHKDFSalt(salt string) Option {
	return func(m *Manager) {
		m.cfg.HKDFSalt = salt
	}
}

// WithRateLimiter throttles code and passphrase attempts for account.
// An empty account keeps the configured one.
func WithRateLimiter(l *ratelimiter.Limiter, account string) Option {
	return func(m *Manager) {
		m.limiter = l
		if account != "" {
			m.cfg.Account = account
		}
	}
}

// WithDocumentStore enables sealed documents
func WithDocumentStore(docs docstore.Store) Option {
	return func(m *Manager) {
		m.docs = docs
	}
}

// WithLogger sets the logger
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// WithErrorReporter sets the sink for storage, crypto and tamper failures
func WithErrorReporter(r ErrorReporter) Option {
	return func(m *Manager) {
		m.reporter = r
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}
