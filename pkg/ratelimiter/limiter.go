package ratelimiter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/vaultcore/pkg/kvstore"
	"github.com/dmitrymomot/vaultcore/pkg/logger"
)

// TamperHandler is notified when persisted state is rejected.
type TamperHandler func(ctx context.Context, account string, err error)

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// WithLogger sets the logger used for tamper warnings.
func WithLogger(log *slog.Logger) Option {
	return func(l *Limiter) {
		l.log = log
	}
}

// WithTamperHandler registers a callback for rejected state.
func WithTamperHandler(fn TamperHandler) Option {
	return func(l *Limiter) {
		l.onTamper = fn
	}
}

// Decision is the outcome of CanAttempt.
type Decision struct {
	Allowed  bool
	WaitTime time.Duration
	Locked   bool
}

// WaitSeconds rounds WaitTime up to whole seconds.
func (d Decision) WaitSeconds() int {
	return ceilSeconds(d.WaitTime)
}

// Err returns a *LimitedError for a denied decision, nil otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &LimitedError{WaitTime: d.WaitTime, Locked: d.Locked}
}

// Limiter tracks failed authentication attempts per account with exponential
// backoff and lockout. State is persisted in a kvstore.Store and signed so
// edits to it are detected. A client-side limiter is a deterrent only.
type Limiter struct {
	store    kvstore.Store
	cfg      Config
	signKey  []byte
	now      func() time.Time
	log      *slog.Logger
	onTamper TamperHandler

	locks sync.Map // account -> *sync.Mutex
}

// New validates cfg and returns a Limiter backed by store.
func New(store kvstore.Store, cfg Config, opts ...Option) (*Limiter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	l := &Limiter{
		store:   store,
		cfg:     cfg,
		signKey: []byte(cfg.SigningKey),
		now:     time.Now,
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Config returns the active configuration.
func (l *Limiter) Config() Config {
	return l.cfg
}

// RecordFailedAttempt counts a failure. A failure during lockout restarts the
// lockout window instead of shortening it.
func (l *Limiter) RecordFailedAttempt(ctx context.Context, account string) (*State, error) {
	if account == "" {
		return nil, ErrEmptyAccount
	}
	unlock := l.lock(account)
	defer unlock()

	now := l.now().UnixMilli()
	state, err := l.load(ctx, account)
	if err != nil {
		return nil, err
	}

	switch {
	case state == nil:
		state = &State{Account: account, Attempts: 1, LastAttempt: now}
	case state.LockedUntil != nil:
		until := now + l.cfg.LockoutDuration.Milliseconds()
		state.LockedUntil = &until
		state.Attempts++
		state.LastAttempt = now
	default:
		state.Attempts++
		state.LastAttempt = now
	}
	if state.LockedUntil == nil && state.Attempts >= l.cfg.MaxAttempts {
		until := now + l.cfg.LockoutDuration.Milliseconds()
		state.LockedUntil = &until
	}

	if err := l.save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// CanAttempt denies while locked out (wait includes the grace period) or while
// the backoff since the last failure has not elapsed.
func (l *Limiter) CanAttempt(ctx context.Context, account string) (Decision, error) {
	if account == "" {
		return Decision{}, ErrEmptyAccount
	}
	unlock := l.lock(account)
	defer unlock()

	state, err := l.load(ctx, account)
	if err != nil {
		return Decision{}, err
	}
	return l.decide(state), nil
}

// Reset forgets every failure for account. Called after a successful unlock.
func (l *Limiter) Reset(ctx context.Context, account string) error {
	if account == "" {
		return ErrEmptyAccount
	}
	unlock := l.lock(account)
	defer unlock()

	if err := l.store.Delete(ctx, l.key(account)); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// IsLockedOut reports whether account is inside its lockout window plus grace.
func (l *Limiter) IsLockedOut(ctx context.Context, account string) (bool, error) {
	state, err := l.State(ctx, account)
	if err != nil || state == nil {
		return false, err
	}
	return l.lockoutRemaining(state) > 0, nil
}

// RemainingLockout returns the lockout time left, grace included.
func (l *Limiter) RemainingLockout(ctx context.Context, account string) (time.Duration, error) {
	state, err := l.State(ctx, account)
	if err != nil || state == nil {
		return 0, err
	}
	return l.lockoutRemaining(state), nil
}

// NextAttemptDelay returns how long until the next attempt is allowed.
func (l *Limiter) NextAttemptDelay(ctx context.Context, account string) (time.Duration, error) {
	state, err := l.State(ctx, account)
	if err != nil {
		return 0, err
	}
	return l.decide(state).WaitTime, nil
}

// AttemptCount returns the failures recorded since the last reset.
func (l *Limiter) AttemptCount(ctx context.Context, account string) (int, error) {
	state, err := l.State(ctx, account)
	if err != nil || state == nil {
		return 0, err
	}
	return state.Attempts, nil
}

// RemainingAttempts returns how many failures are left before lockout.
func (l *Limiter) RemainingAttempts(ctx context.Context, account string) (int, error) {
	n, err := l.AttemptCount(ctx, account)
	if err != nil {
		return 0, err
	}
	return max(0, l.cfg.MaxAttempts-n), nil
}

// State returns the validated persisted state, or nil when there is none.
func (l *Limiter) State(ctx context.Context, account string) (*State, error) {
	if account == "" {
		return nil, ErrEmptyAccount
	}
	unlock := l.lock(account)
	defer unlock()

	return l.load(ctx, account)
}

// CleanupExpired removes entries whose lockout ended more than the grace
// period ago. Run it at startup to keep the store from accumulating state.
func (l *Limiter) CleanupExpired(ctx context.Context) (int, error) {
	keys, err := l.store.Keys(ctx, l.cfg.KeyPrefix)
	if err != nil {
		return 0, errors.Join(ErrStoreUnavailable, err)
	}

	removed := 0
	for _, key := range keys {
		account := strings.TrimPrefix(key, l.cfg.KeyPrefix)
		if account == "" {
			continue
		}
		if ok, err := l.cleanupOne(ctx, account); err != nil {
			return removed, err
		} else if ok {
			removed++
		}
	}
	return removed, nil
}

// Guard runs fn when the account may attempt. When isFailure(err) holds the
// failure is recorded, otherwise a nil error resets the account.
func (l *Limiter) Guard(ctx context.Context, account string, fn func() error, isFailure func(error) bool) error {
	decision, err := l.CanAttempt(ctx, account)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return decision.Err()
	}

	fnErr := fn()
	switch {
	case fnErr == nil:
		if err := l.Reset(ctx, account); err != nil {
			return err
		}
	case isFailure != nil && isFailure(fnErr):
		if _, err := l.RecordFailedAttempt(ctx, account); err != nil {
			return errors.Join(fnErr, err)
		}
	}
	return fnErr
}

func (l *Limiter) cleanupOne(ctx context.Context, account string) (bool, error) {
	unlock := l.lock(account)
	defer unlock()

	data, err := l.store.Get(ctx, l.key(account))
	if errors.Is(err, kvstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Join(ErrStoreUnavailable, err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		// left for load to report as tampering
		return false, nil
	}
	if state.LockedUntil == nil || l.now().UnixMilli() <= *state.LockedUntil+l.cfg.GracePeriod.Milliseconds() {
		return false, nil
	}
	if err := l.store.Delete(ctx, l.key(account)); err != nil {
		return false, errors.Join(ErrStoreUnavailable, err)
	}
	return true, nil
}

func (l *Limiter) decide(state *State) Decision {
	if state == nil {
		return Decision{Allowed: true}
	}
	if state.LockedUntil != nil {
		if wait := l.lockoutRemaining(state); wait > 0 {
			return Decision{WaitTime: wait, Locked: true}
		}
		return Decision{Allowed: true}
	}

	elapsed := l.now().Sub(state.LastAttemptTime())
	if wait := l.cfg.Delay(state.Attempts) - elapsed; wait > 0 {
		return Decision{WaitTime: wait}
	}
	return Decision{Allowed: true}
}

func (l *Limiter) lockoutRemaining(state *State) time.Duration {
	until, ok := state.LockedUntilTime()
	if !ok {
		return 0
	}
	return max(0, until.Add(l.cfg.GracePeriod).Sub(l.now()))
}

// load reads and validates state. Tampered state is deleted and reported as
// absent. A lockout that ended more than the grace period ago is cleared.
// Callers must hold the account lock.
func (l *Limiter) load(ctx context.Context, account string) (*State, error) {
	key := l.key(account)
	data, err := l.store.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, l.rejectState(ctx, account, fmt.Errorf("%w: undecodable state", ErrStateTampered))
	}
	if state.Account != account {
		return nil, l.rejectState(ctx, account, fmt.Errorf("%w: account mismatch", ErrStateTampered))
	}
	if err := state.verify(l.signKey); err != nil {
		return nil, l.rejectState(ctx, account, err)
	}

	if state.LockedUntil != nil && l.now().UnixMilli() > *state.LockedUntil+l.cfg.GracePeriod.Milliseconds() {
		if err := l.store.Delete(ctx, key); err != nil {
			return nil, errors.Join(ErrStoreUnavailable, err)
		}
		return nil, nil
	}
	return &state, nil
}

// rejectState logs and reports tampered state, then clears it. Tampering is
// never fatal: the account simply starts over.
func (l *Limiter) rejectState(ctx context.Context, account string, cause error) error {
	l.log.WarnContext(ctx, "rate limit state rejected",
		logger.Component("ratelimiter"),
		logger.Account(account),
		logger.Error(cause),
	)
	if l.onTamper != nil {
		l.onTamper(ctx, account, cause)
	}
	if err := l.store.Delete(ctx, l.key(account)); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (l *Limiter) save(ctx context.Context, state *State) error {
	if err := state.sign(l.signKey); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	data, err := json.Marshal(state)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if err := l.store.Set(ctx, l.key(state.Account), data); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (l *Limiter) key(account string) string {
	return l.cfg.KeyPrefix + account
}

func (l *Limiter) lock(account string) func() {
	mu, _ := l.locks.LoadOrStore(account, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}
