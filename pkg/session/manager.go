package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/vaultcore/pkg/docstore"
	"github.com/dmitrymomot/vaultcore/pkg/envelope"
	"github.com/dmitrymomot/vaultcore/pkg/kvstore"
	"github.com/dmitrymomot/vaultcore/pkg/logger"
	"github.com/dmitrymomot/vaultcore/pkg/ratelimiter"
	"github.com/dmitrymomot/vaultcore/pkg/totp"
)

// Manager owns the vault session: the committed secret, the working key and
// the persisted auth record. All transitions are serialized; Register, Unlock
// and UnlockWithPassphrase additionally reject overlapping calls with ErrBusy.
type Manager struct {
	store    kvstore.Store
	docs     docstore.Store
	limiter  *ratelimiter.Limiter
	cfg      Config
	hkdfSalt []byte
	now      func() time.Time
	log      *slog.Logger
	reporter ErrorReporter

	mu     sync.Mutex
	busy   atomic.Bool
	state  State
	key    *envelope.Key
	timer  *InactivityTimer
	closed bool
}

// NewManager loads the auth record from store and returns a locked manager.
// A record that cannot be decoded is reported and treated as absent.
func NewManager(ctx context.Context, store kvstore.Store, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: nil store", ErrInvalidConfig)
	}
	m := &Manager{
		store:    store,
		cfg:      DefaultConfig(),
		now:      time.Now,
		log:      logger.Discard(),
		reporter: noopReporter{},
	}
	for _, opt := range opts {
		opt(m)
	}

	if len(m.cfg.HKDFSalt) != envelope.SaltSize {
		return nil, fmt.Errorf("%w: hkdf salt must be %d bytes", ErrInvalidConfig, envelope.SaltSize)
	}
	if m.cfg.StorageKey == "" {
		return nil, fmt.Errorf("%w: empty storage key", ErrInvalidConfig)
	}
	if m.cfg.VerifyWindow < 0 {
		return nil, fmt.Errorf("%w: negative verify window", ErrInvalidConfig)
	}
	if m.cfg.Account == "" {
		m.cfg.Account = DefaultAccount
	}
	m.hkdfSalt = []byte(m.cfg.HKDFSalt)
	m.log = m.log.With(logger.Component("session"))
	m.timer = NewInactivityTimer(m.cfg.AutoLock, m.autoLock)

	rec, err := m.loadRecord(ctx)
	if err != nil {
		return nil, err
	}
	m.state = stateFromRecord(rec)
	return m, nil
}

// Register verifies code against secretB32, commits the secret and unlocks.
func (m *Manager) Register(ctx context.Context, secretB32, code string, opts UnlockOptions) error {
	release, err := m.enter()
	if err != nil {
		return err
	}
	defer release()

	if m.state.IsRegistered() {
		return ErrAlreadyRegistered
	}
	if err := validateOptions(opts); err != nil {
		return err
	}
	raw, err := totp.DecodeSecret(secretB32)
	if err != nil {
		return errors.Join(ErrInvalidSecret, err)
	}
	secret := totp.EncodeSecret(raw)

	if err := m.attempt(ctx, m.verifier(raw, code)); err != nil {
		return err
	}

	return m.unlockWith(ctx, raw, opts, EventRegister, func(sealed *envelope.Envelope, now time.Time) (State, []Effect, error) {
		return registerTransition(m.state, secret, opts, sealed, now)
	})
}

// Unlock verifies code against the committed secret and unlocks. With
// Remember and a Passphrase the secret is escrowed and its plaintext copy is
// removed from storage; otherwise the plaintext secret is persisted.
func (m *Manager) Unlock(ctx context.Context, code string, opts UnlockOptions) error {
	release, err := m.enter()
	if err != nil {
		return err
	}
	defer release()

	if m.state.secret == "" {
		return ErrNoCommittedSecret
	}
	if err := validateOptions(opts); err != nil {
		return err
	}
	raw, err := totp.DecodeSecret(m.state.secret)
	if err != nil {
		m.report(ctx, "decode_secret", err)
		return errors.Join(ErrNoCommittedSecret, err)
	}

	if err := m.attempt(ctx, m.verifier(raw, code)); err != nil {
		return err
	}

	return m.unlockWith(ctx, raw, opts, EventUnlock, func(sealed *envelope.Envelope, now time.Time) (State, []Effect, error) {
		return unlockTransition(m.state, opts, sealed, now)
	})
}

// UnlockWithPassphrase recovers the secret from the envelope and unlocks.
// On failure the state is unchanged.
func (m *Manager) UnlockWithPassphrase(ctx context.Context, passphrase string) error {
	release, err := m.enter()
	if err != nil {
		return err
	}
	defer release()

	env := m.state.Record.EncryptedTOTPSecret
	if env == nil {
		return ErrNoEnvelope
	}
	if !CanFire(m.state.Status, EventUnlockPassphrase) {
		return &ErrNoTransitionAvailable{Status: m.state.Status, Event: EventUnlockPassphrase}
	}
	if passphrase == "" {
		return ErrDecryptionFailed
	}

	var plain []byte
	err = m.attempt(ctx, func() error {
		out, err := env.Open(passphrase)
		if errors.Is(err, envelope.ErrDecryptionFailed) {
			return ErrDecryptionFailed
		}
		if err != nil {
			m.report(ctx, "open_envelope", err)
			return err
		}
		plain = out
		return nil
	})
	if err != nil {
		return err
	}

	raw, err := totp.DecodeSecret(string(plain))
	clear(plain)
	if err != nil {
		err = errors.Join(ErrStorageTampered, err)
		m.report(ctx, "decode_secret", err)
		return err
	}
	secret := totp.EncodeSecret(raw)

	return m.unlockWith(ctx, raw, UnlockOptions{}, EventUnlockPassphrase, func(_ *envelope.Envelope, now time.Time) (State, []Effect, error) {
		return passphraseTransition(m.state, secret, now)
	})
}

// Lock drops the working key. The record and remember-me preference are kept.
func (m *Manager) Lock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lockLocked(context.Background(), EventLock)
}

// Reset forgets the secret, envelope, working key and remember-me state and
// deletes the persisted record.
func (m *Manager) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	next, effects, err := resetTransition(m.state)
	if err != nil {
		return err
	}
	if err := m.apply(ctx, effects); err != nil {
		return err
	}
	m.commit(ctx, next, nil, EventReset)
	return nil
}

// InitSession restores a remembered session at startup and removes expired
// rate limit state. It returns what was done with the remembered session.
func (m *Manager) InitSession(ctx context.Context) (InitAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return InitNone, ErrClosed
	}

	if m.limiter != nil {
		removed, err := m.limiter.CleanupExpired(ctx)
		if err != nil {
			m.report(ctx, "rate_limit_cleanup", err)
		} else if removed > 0 {
			m.log.DebugContext(ctx, "expired rate limit state removed", slog.Int("count", removed))
		}
	}

	next, effects, action, err := initTransition(m.state, m.now())
	if err != nil {
		return InitNone, err
	}

	switch action {
	case InitNeedsPassphrase:
		m.state = next
		m.log.InfoContext(ctx, "remembered session awaits passphrase")

	case InitHardLogout:
		if err := m.apply(ctx, effects); err != nil {
			return InitNone, err
		}
		m.commit(ctx, next, nil, EventExpire)

	case InitAutoUnlock:
		raw, err := totp.DecodeSecret(next.secret)
		if err != nil {
			m.report(ctx, "decode_secret", err)
			return InitNone, errors.Join(ErrNoCommittedSecret, err)
		}
		key, err := m.deriveKey(ctx, raw)
		if err != nil {
			return InitNone, err
		}
		if err := m.apply(ctx, effects); err != nil {
			key.Destroy()
			return InitNone, err
		}
		m.commit(ctx, next, key, EventRestore)
	}
	return action, nil
}

// Status returns the current lock status.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Status
}

// Snapshot returns a copy of the session state.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	s.secret = ""
	return s
}

func (m *Manager) IsUnlocked() bool {
	return m.Status() == StatusUnlocked
}

func (m *Manager) IsRegistered() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.IsRegistered()
}

// NeedsPassphrase reports whether a remembered session waits for its passphrase.
func (m *Manager) NeedsPassphrase() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.NeedsPassphrase
}

// WithKey runs fn with the working key. The key must not be retained.
func (m *Manager) WithKey(fn func(key *envelope.Key) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Status != StatusUnlocked || m.key == nil {
		return ErrLocked
	}
	return fn(m.key)
}

// CanAttempt reports whether the rate limiter currently allows an attempt.
func (m *Manager) CanAttempt(ctx context.Context) (ratelimiter.Decision, error) {
	if m.limiter == nil {
		return ratelimiter.Decision{Allowed: true}, nil
	}
	return m.limiter.CanAttempt(ctx, m.cfg.Account)
}

// Close locks the vault and stops the inactivity timer. Further transitions fail with ErrClosed.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lockLocked(context.Background(), EventLock)
	m.timer.Stop()
	m.closed = true
	return nil
}

// enter takes the single-flight latch and the state mutex.
func (m *Manager) enter() (func(), error) {
	if !m.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.busy.Store(false)
		return nil, ErrClosed
	}
	return func() {
		m.mu.Unlock()
		m.busy.Store(false)
	}, nil
}

// unlockWith seals and derives everything the transition needs, applies its
// effects and only then commits the new state and key.
func (m *Manager) unlockWith(
	ctx context.Context,
	raw []byte,
	opts UnlockOptions,
	event Event,
	reduce func(sealed *envelope.Envelope, now time.Time) (State, []Effect, error),
) error {
	var sealed *envelope.Envelope
	if opts.escrow() {
		env, err := envelope.Seal(opts.Passphrase, []byte(totp.EncodeSecret(raw)))
		if err != nil {
			m.report(ctx, "seal_secret", err)
			return err
		}
		sealed = env
	}

	key, err := m.deriveKey(ctx, raw)
	if err != nil {
		return err
	}

	next, effects, err := reduce(sealed, m.now())
	if err != nil {
		key.Destroy()
		return err
	}
	if err := m.apply(ctx, effects); err != nil {
		key.Destroy()
		return err
	}
	m.commit(ctx, next, key, event)
	return nil
}

func (m *Manager) deriveKey(ctx context.Context, raw []byte) (*envelope.Key, error) {
	key, err := envelope.DeriveKeyFromTOTP(raw, m.hkdfSalt)
	if err != nil {
		m.report(ctx, "derive_key", err)
		return nil, err
	}
	return key, nil
}

func (m *Manager) apply(ctx context.Context, effects []Effect) error {
	if err := applyEffects(ctx, m.store, m.cfg.StorageKey, effects); err != nil {
		m.report(ctx, "persist_record", err)
		return err
	}
	return nil
}

// commit installs next and key. Any previous key is destroyed.
func (m *Manager) commit(ctx context.Context, next State, key *envelope.Key, event Event) {
	from := m.state.Status
	if m.key != nil && m.key != key {
		m.key.Destroy()
	}
	m.state = next
	m.key = key
	if next.Status != StatusUnlocked {
		m.key.Destroy()
		m.key = nil
	}

	if next.Status == StatusUnlocked {
		m.timer.Reset()
	} else {
		m.timer.Stop()
	}

	m.log.InfoContext(ctx, "session transition",
		logger.Event(event.String()),
		logger.Transition(from, next.Status),
	)
}

func (m *Manager) lockLocked(ctx context.Context, event Event) {
	if m.state.Status != StatusUnlocked && m.key == nil {
		return
	}
	m.commit(ctx, lockTransition(m.state), nil, event)
}

// autoLock runs from the inactivity timer. An expiry that lost the race with
// a transition re-arming the timer is dropped.
func (m *Manager) autoLock(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.timer.Current(gen) {
		return
	}
	m.lockLocked(context.Background(), EventLock)
}

// attempt runs fn through the rate limiter when one is configured.
func (m *Manager) attempt(ctx context.Context, fn func() error) error {
	if m.limiter == nil {
		return fn()
	}
	err := m.limiter.Guard(ctx, m.cfg.Account, fn, isAuthFailure)
	if err != nil && errors.Is(err, ratelimiter.ErrStoreUnavailable) {
		m.report(ctx, "rate_limit", err)
	}
	return err
}

func (m *Manager) verifier(raw []byte, code string) func() error {
	return func() error {
		if !totp.VerifyCodeAt(raw, code, m.cfg.VerifyWindow, m.now()) {
			return ErrInvalidCode
		}
		return nil
	}
}

func (m *Manager) loadRecord(ctx context.Context) (Record, error) {
	var rec Record
	err := kvstore.GetJSON(ctx, m.store, m.cfg.StorageKey, &rec)
	switch {
	case err == nil:
		return rec, nil
	case errors.Is(err, kvstore.ErrNotFound):
		return Record{}, nil
	case errors.Is(err, kvstore.ErrMalformedValue), errors.Is(err, envelope.ErrMalformedEnvelope):
		m.report(ctx, "load_record", errors.Join(ErrStorageTampered, err))
		return Record{}, nil
	default:
		m.report(ctx, "load_record", err)
		return Record{}, errors.Join(ErrPersistFailed, err)
	}
}

func (m *Manager) report(ctx context.Context, op string, err error) {
	level := slog.LevelError
	if errors.Is(err, ErrStorageTampered) {
		level = slog.LevelWarn
	}
	m.log.Log(ctx, level, "session operation failed", slog.String("op", op), logger.Error(err))
	m.reporter.Report(ctx, op, err)
}

func isAuthFailure(err error) bool {
	return errors.Is(err, ErrInvalidCode) || errors.Is(err, ErrDecryptionFailed)
}

func validateOptions(opts UnlockOptions) error {
	if opts.ExpiresIn < 0 {
		return fmt.Errorf("%w: negative expiry", ErrInvalidExpiry)
	}
	// the preference is persisted in whole milliseconds
	if opts.ExpiresIn > 0 && opts.ExpiresIn < time.Millisecond {
		return fmt.Errorf("%w: expiry below one millisecond", ErrInvalidExpiry)
	}
	return nil
}
