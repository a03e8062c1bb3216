package session_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/vaultcore/pkg/docstore"
	"github.com/dmitrymomot/vaultcore/pkg/envelope"
	"github.com/dmitrymomot/vaultcore/pkg/kvstore"
	"github.com/dmitrymomot/vaultcore/pkg/ratelimiter"
	"github.com/dmitrymomot/vaultcore/pkg/session"
	"github.com/dmitrymomot/vaultcore/pkg/totp"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type reportSink struct {
	mu   sync.Mutex
	ops  []string
	errs []error
}

func (r *reportSink) Report(_ context.Context, op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
	r.errs = append(r.errs, err)
}

func (r *reportSink) Ops() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ops...)
}

func (r *reportSink) Errs() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

// vaultFixture is a manager with a generated secret and a controllable clock.
type vaultFixture struct {
	clock  *fakeClock
	store  *kvstore.MemoryStore
	secret []byte
	b32    string
}

func newFixture(t *testing.T) *vaultFixture {
	t.Helper()
	secret, b32, err := totp.GenerateSecretWithEncoding()
	require.NoError(t, err)
	return &vaultFixture{
		clock:  newFakeClock(),
		store:  kvstore.NewMemoryStore(),
		secret: secret,
		b32:    b32,
	}
}

func (f *vaultFixture) code() string {
	return totp.GenerateCode(f.secret, f.clock.Now())
}

func (f *vaultFixture) wrongCode() string {
	return totp.ComputeCode(f.secret, totp.TimeStep(f.clock.Now())+100)
}

func (f *vaultFixture) manager(t *testing.T, opts ...session.Option) *session.Manager {
	t.Helper()
	opts = append([]session.Option{
		session.WithClock(f.clock.Now),
		session.WithAutoLock(0),
	}, opts...)
	m, err := session.NewManager(context.Background(), f.store, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func (f *vaultFixture) record(t *testing.T) session.Record {
	t.Helper()
	var rec session.Record
	require.NoError(t, kvstore.GetJSON(context.Background(), f.store, session.DefaultStorageKey, &rec))
	return rec
}

func TestManager_Register(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("fresh secret and correct code unlocks", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		m := f.manager(t)
		require.Equal(t, session.StatusUnregistered, m.Status())

		require.NoError(t, m.Register(ctx, f.b32, f.code(), session.UnlockOptions{}))

		assert.True(t, m.IsUnlocked())
		assert.True(t, m.IsRegistered())
		rec := f.record(t)
		require.NotNil(t, rec.TOTPSecret)
		assert.Equal(t, f.b32, *rec.TOTPSecret)
		assert.Nil(t, rec.EncryptedTOTPSecret)
		assert.False(t, rec.RememberMe)

		err := m.WithKey(func(key *envelope.Key) error {
			assert.False(t, key.Destroyed())
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("lenient secret text is stored canonically", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		m := f.manager(t)

		require.NoError(t, m.Register(ctx, " "+strings.ToLower(f.b32)+" ", f.code(), session.UnlockOptions{}))
		assert.Equal(t, f.b32, *f.record(t).TOTPSecret)
	})

	t.Run("wrong code", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		m := f.manager(t)

		err := m.Register(ctx, f.b32, f.wrongCode(), session.UnlockOptions{})
		assert.ErrorIs(t, err, session.ErrInvalidCode)
		assert.Equal(t, session.StatusUnregistered, m.Status())

		_, err = f.store.Get(ctx, session.DefaultStorageKey)
		assert.ErrorIs(t, err, kvstore.ErrNotFound)
	})

	t.Run("invalid secret", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		m := f.manager(t)

		err := m.Register(ctx, "!!!", f.code(), session.UnlockOptions{})
		assert.ErrorIs(t, err, session.ErrInvalidSecret)
	})

	t.Run("already registered", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		m := f.manager(t)
		require.NoError(t, m.Register(ctx, f.b32, f.code(), session.UnlockOptions{}))

		err := m.Register(ctx, f.b32, f.code(), session.UnlockOptions{})
		assert.ErrorIs(t, err, session.ErrAlreadyRegistered)
	})

	t.Run("register with passphrase escrow", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		m := f.manager(t)

		opts := session.UnlockOptions{Remember: true, Passphrase: "pw", ExpiresIn: time.Hour}
		require.NoError(t, m.Register(ctx, f.b32, f.code(), opts))

		rec := f.record(t)
		assert.Nil(t, rec.TOTPSecret)
		require.NotNil(t, rec.EncryptedTOTPSecret)
		assert.True(t, rec.RememberMe)
	})
}

func TestManager_UnlockRememberWithPassphrase(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	m := f.manager(t)

	require.NoError(t, m.Register(ctx, f.b32, f.code(), session.UnlockOptions{}))
	m.Lock()
	require.False(t, m.IsUnlocked())

	opts := session.UnlockOptions{Remember: true, Passphrase: "pw", ExpiresIn: 3600000 * time.Millisecond}
	require.NoError(t, m.Unlock(ctx, f.code(), opts))
	assert.True(t, m.IsUnlocked())

	rec := f.record(t)
	assert.Nil(t, rec.TOTPSecret, "plaintext secret must not be persisted next to the envelope")
	require.NotNil(t, rec.EncryptedTOTPSecret)
	assert.Len(t, rec.EncryptedTOTPSecret.Salt, envelope.SaltSize)
	assert.True(t, rec.RememberMe)

	require.NotNil(t, rec.RememberMeExpiry)
	assert.Equal(t, f.clock.Now().UnixMilli()+3600000, *rec.RememberMeExpiry)
	require.NotNil(t, rec.RememberMeExpiryMs)
	assert.Equal(t, int64(3600000), *rec.RememberMeExpiryMs)

	secret, err := rec.EncryptedTOTPSecret.Open("pw")
	require.NoError(t, err)
	assert.Equal(t, f.b32, string(secret))
}

func TestManager_UnlockWithoutPassphraseDropsEnvelope(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	m := f.manager(t)

	require.NoError(t, m.Register(ctx, f.b32, f.code(), session.UnlockOptions{Remember: true, Passphrase: "pw"}))
	m.Lock()
	require.NoError(t, m.Unlock(ctx, f.code(), session.UnlockOptions{Remember: true}))

	rec := f.record(t)
	require.NotNil(t, rec.TOTPSecret)
	assert.Equal(t, f.b32, *rec.TOTPSecret)
	assert.Nil(t, rec.EncryptedTOTPSecret)
	assert.Nil(t, rec.RememberMeExpiry, "zero ExpiresIn never expires")
}

func TestManager_Unlock_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("no committed secret", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		m := f.manager(t)
		assert.ErrorIs(t, m.Unlock(ctx, f.code(), session.UnlockOptions{}), session.ErrNoCommittedSecret)
	})

	t.Run("wrong code keeps the vault locked", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		m := f.manager(t)
		require.NoError(t, m.Register(ctx, f.b32, f.code(), session.UnlockOptions{}))
		m.Lock()

		assert.ErrorIs(t, m.Unlock(ctx, f.wrongCode(), session.UnlockOptions{}), session.ErrInvalidCode)
		assert.Equal(t, session.StatusLocked, m.Status())
		assert.ErrorIs(t, m.WithKey(func(*envelope.Key) error { return nil }), session.ErrLocked)
	})

	t.Run("code from the adjacent step is accepted", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		m := f.manager(t)
		require.NoError(t, m.Register(ctx, f.b32, f.code(), session.UnlockOptions{}))
		m.Lock()

		prev := totp.ComputeCode(f.secret, totp.TimeStep(f.clock.Now())-1)
		assert.NoError(t, m.Unlock(ctx, prev, session.UnlockOptions{}))
	})

	t.Run("negative expiry", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		m := f.manager(t)
		require.NoError(t, m.Register(ctx, f.b32, f.code(), session.UnlockOptions{}))

		err := m.Unlock(ctx, f.code(), session.UnlockOptions{Remember: true, ExpiresIn: -time.Second})
		assert.ErrorIs(t, err, session.ErrInvalidExpiry)
	})

	t.Run("sub-millisecond expiry", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		m := f.manager(t)
		require.NoError(t, m.Register(ctx, f.b32, f.code(), session.UnlockOptions{}))
		m.Lock()

		err := m.Unlock(ctx, f.code(), session.UnlockOptions{Remember: true, ExpiresIn: 500 * time.Microsecond})
		assert.ErrorIs(t, err, session.ErrInvalidExpiry)
		assert.False(t, m.IsUnlocked())
		assert.False(t, f.record(t).RememberMe)

		fresh := newFixture(t)
		err = fresh.manager(t).Register(ctx, fresh.b32, fresh.code(), session.UnlockOptions{Remember: true, ExpiresIn: time.Microsecond})
		assert.ErrorIs(t, err, session.ErrInvalidExpiry)
	})

	t.Run("passphrase unlock without envelope", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		m := f.manager(t)
		require.NoError(t, m.Register(ctx, f.b32, f.code(), session.UnlockOptions{}))
		m.Lock()
		assert.ErrorIs(t, m.UnlockWithPassphrase(ctx, "pw"), session.ErrNoEnvelope)
	})
}

func TestManager_InitSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("not remembered stays locked", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		first := f.manager(t)
		require.NoError(t, first.Register(ctx, f.b32, f.code(), session.UnlockOptions{}))

		m := f.manager(t)
		action, err := m.InitSession(ctx)
		require.NoError(t, err)
		assert.Equal(t, session.InitNone, action)
		assert.Equal(t, session.StatusLocked, m.Status())
		assert.False(t, m.NeedsPassphrase())
	})

	t.Run("remembered plaintext secret auto unlocks", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		first := f.manager(t)
		require.NoError(t, first.Register(ctx, f.b32, f.code(), session.UnlockOptions{Remember: true, ExpiresIn: time.Hour}))

		f.clock.Advance(30 * time.Minute)
		m := f.manager(t)
		action, err := m.InitSession(ctx)
		require.NoError(t, err)
		assert.Equal(t, session.InitAutoUnlock, action)
		assert.True(t, m.IsUnlocked())
	})

	t.Run("expired session is a hard logout", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		first := f.manager(t)
		require.NoError(t, first.Register(ctx, f.b32, f.code(), session.UnlockOptions{}))
		first.Lock()
		require.NoError(t, first.Unlock(ctx, f.code(), session.UnlockOptions{Remember: true, Passphrase: "pw", ExpiresIn: time.Hour}))

		f.clock.Advance(time.Hour + time.Second)
		m := f.manager(t)
		action, err := m.InitSession(ctx)
		require.NoError(t, err)
		assert.Equal(t, session.InitHardLogout, action)

		snap := m.Snapshot()
		assert.False(t, snap.IsUnlocked())
		assert.False(t, snap.NeedsPassphrase)
		assert.Nil(t, snap.Record.EncryptedTOTPSecret)
		assert.False(t, snap.Record.RememberMe)
		assert.Nil(t, snap.Record.RememberMeExpiry)
		assert.Nil(t, snap.Record.RememberMeExpiryMs)

		rec := f.record(t)
		assert.Nil(t, rec.EncryptedTOTPSecret)
		assert.False(t, rec.RememberMe)

		assert.ErrorIs(t, m.UnlockWithPassphrase(ctx, "pw"), session.ErrNoEnvelope)
	})

	t.Run("expired plaintext session keeps the secret", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		first := f.manager(t)
		require.NoError(t, first.Register(ctx, f.b32, f.code(), session.UnlockOptions{Remember: true, ExpiresIn: time.Minute}))

		f.clock.Advance(2 * time.Minute)
		m := f.manager(t)
		action, err := m.InitSession(ctx)
		require.NoError(t, err)
		assert.Equal(t, session.InitHardLogout, action)
		assert.Equal(t, session.StatusLocked, m.Status())
		assert.NoError(t, m.Unlock(ctx, f.code(), session.UnlockOptions{}))
	})

	t.Run("envelope asks for the passphrase", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		first := f.manager(t)
		require.NoError(t, first.Register(ctx, f.b32, f.code(), session.UnlockOptions{Remember: true, Passphrase: "pw", ExpiresIn: time.Hour}))

		f.clock.Advance(50 * time.Minute)
		m := f.manager(t)
		action, err := m.InitSession(ctx)
		require.NoError(t, err)
		assert.Equal(t, session.InitNeedsPassphrase, action)
		assert.True(t, m.NeedsPassphrase())
		assert.False(t, m.IsUnlocked())

		assert.ErrorIs(t, m.Unlock(ctx, f.code(), session.UnlockOptions{}), session.ErrNoCommittedSecret)

		before := m.Snapshot()
		assert.ErrorIs(t, m.UnlockWithPassphrase(ctx, "wrong"), session.ErrDecryptionFailed)
		assert.Equal(t, before, m.Snapshot())

		require.NoError(t, m.UnlockWithPassphrase(ctx, "pw"))
		assert.True(t, m.IsUnlocked())
		assert.False(t, m.NeedsPassphrase())

		rec := f.record(t)
		assert.Nil(t, rec.TOTPSecret)
		require.NotNil(t, rec.RememberMeExpiry)
		assert.Equal(t, f.clock.Now().Add(time.Hour).UnixMilli(), *rec.RememberMeExpiry, "restore starts a fresh window")

		// the recovered secret stays usable for code unlocks in this process
		m.Lock()
		assert.NoError(t, m.Unlock(ctx, f.code(), session.UnlockOptions{Remember: true, Passphrase: "pw2"}))
	})
}

func TestManager_LockAndReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	m := f.manager(t)

	require.NoError(t, m.Register(ctx, f.b32, f.code(), session.UnlockOptions{Remember: true}))

	var held *envelope.Key
	require.NoError(t, m.WithKey(func(key *envelope.Key) error {
		held = key
		return nil
	}))

	m.Lock()
	m.Lock()
	assert.Equal(t, session.StatusLocked, m.Status())
	assert.True(t, held.Destroyed(), "lock destroys the working key")
	assert.True(t, f.record(t).RememberMe, "lock keeps the remember-me preference")

	require.NoError(t, m.Reset(ctx))
	assert.Equal(t, session.StatusUnregistered, m.Status())
	assert.False(t, m.IsRegistered())
	_, err := f.store.Get(ctx, session.DefaultStorageKey)
	assert.ErrorIs(t, err, kvstore.ErrNotFound)

	require.NoError(t, m.Register(ctx, f.b32, f.code(), session.UnlockOptions{}))
}

func TestManager_RateLimited(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	limitStore := kvstore.NewMemoryStore()
	limiter, err := ratelimiter.New(limitStore, ratelimiter.DefaultConfig(), ratelimiter.WithClock(f.clock.Now))
	require.NoError(t, err)

	m := f.manager(t, session.WithRateLimiter(limiter, "acct"))
	require.NoError(t, m.Register(ctx, f.b32, f.code(), session.UnlockOptions{}))
	m.Lock()

	require.ErrorIs(t, m.Unlock(ctx, f.wrongCode(), session.UnlockOptions{}), session.ErrInvalidCode)

	err = m.Unlock(ctx, f.code(), session.UnlockOptions{})
	require.ErrorIs(t, err, session.ErrRateLimited, "backoff applies to the next attempt")
	var limited *ratelimiter.LimitedError
	require.ErrorAs(t, err, &limited)
	assert.Equal(t, 1, limited.WaitSeconds())

	for range 4 {
		f.clock.Advance(time.Minute)
		require.ErrorIs(t, m.Unlock(ctx, f.wrongCode(), session.UnlockOptions{}), session.ErrInvalidCode)
	}

	f.clock.Advance(time.Minute)
	err = m.Unlock(ctx, f.code(), session.UnlockOptions{})
	require.ErrorAs(t, err, &limited)
	assert.True(t, limited.Locked)

	decision, err := m.CanAttempt(ctx)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	f.clock.Advance(15*time.Minute + 5*time.Second)
	require.NoError(t, m.Unlock(ctx, f.code(), session.UnlockOptions{}))

	count, err := limiter.AttemptCount(ctx, "acct")
	require.NoError(t, err)
	assert.Zero(t, count, "success resets the limiter")
}

func TestManager_PassphraseFailuresAreRateLimited(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	limiter, err := ratelimiter.New(kvstore.NewMemoryStore(), ratelimiter.DefaultConfig(), ratelimiter.WithClock(f.clock.Now))
	require.NoError(t, err)

	first := f.manager(t)
	require.NoError(t, first.Register(ctx, f.b32, f.code(), session.UnlockOptions{Remember: true, Passphrase: "pw"}))

	m := f.manager(t, session.WithRateLimiter(limiter, ""))
	_, err = m.InitSession(ctx)
	require.NoError(t, err)

	require.ErrorIs(t, m.UnlockWithPassphrase(ctx, "nope"), session.ErrDecryptionFailed)
	assert.ErrorIs(t, m.UnlockWithPassphrase(ctx, "pw"), session.ErrRateLimited)

	count, err := limiter.AttemptCount(ctx, session.DefaultAccount)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// blockingStore stalls the first Set until released.
type blockingStore struct {
	*kvstore.MemoryStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *blockingStore) Set(ctx context.Context, key string, value []byte) error {
	s.once.Do(func() {
		close(s.entered)
		<-s.release
	})
	return s.MemoryStore.Set(ctx, key, value)
}

func TestManager_SingleFlight(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	store := &blockingStore{
		MemoryStore: kvstore.NewMemoryStore(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}

	m, err := session.NewManager(ctx, store, session.WithClock(f.clock.Now), session.WithAutoLock(0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	done := make(chan error, 1)
	go func() {
		done <- m.Register(ctx, f.b32, f.code(), session.UnlockOptions{})
	}()
	<-store.entered

	assert.ErrorIs(t, m.Register(ctx, f.b32, f.code(), session.UnlockOptions{}), session.ErrBusy)
	assert.ErrorIs(t, m.Unlock(ctx, f.code(), session.UnlockOptions{}), session.ErrBusy)
	assert.ErrorIs(t, m.UnlockWithPassphrase(ctx, "pw"), session.ErrBusy)

	close(store.release)
	require.NoError(t, <-done)
	assert.True(t, m.IsUnlocked())
}

type failingStore struct {
	*kvstore.MemoryStore
}

func (failingStore) Set(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestManager_PersistFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	sink := &reportSink{}

	m, err := session.NewManager(ctx, failingStore{kvstore.NewMemoryStore()},
		session.WithClock(f.clock.Now),
		session.WithErrorReporter(sink),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	err = m.Register(ctx, f.b32, f.code(), session.UnlockOptions{})
	assert.ErrorIs(t, err, session.ErrPersistFailed)
	assert.Equal(t, session.StatusUnregistered, m.Status(), "state is not committed when persistence fails")
	assert.Equal(t, []string{"persist_record"}, sink.Ops())
}

func TestManager_TamperedRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name string
		data string
	}{
		{"not json", "{{{"},
		{"bad envelope", `{"totpSecret":null,"encryptedTotpSecret":{"iv":"AAAA","ciphertext":"AAAA"},"rememberMe":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := kvstore.NewMemoryStore()
			require.NoError(t, store.Set(ctx, session.DefaultStorageKey, []byte(tt.data)))
			sink := &reportSink{}

			m, err := session.NewManager(ctx, store, session.WithErrorReporter(sink))
			require.NoError(t, err)
			t.Cleanup(func() { _ = m.Close() })

			assert.Equal(t, session.StatusUnregistered, m.Status())
			require.Len(t, sink.Errs(), 1)
			assert.ErrorIs(t, sink.Errs()[0], session.ErrStorageTampered)
		})
	}
}

func TestManager_SealedDocuments(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	docs := docstore.NewMemoryStore()
	m := f.manager(t, session.WithDocumentStore(docs))

	id := session.NewDocumentID()
	assert.ErrorIs(t, m.SealDocument(ctx, id, []byte("x")), session.ErrLocked)

	require.NoError(t, m.Register(ctx, f.b32, f.code(), session.UnlockOptions{}))
	require.NoError(t, m.SealDocument(ctx, id, []byte(`{"remote":"https://couch.example.com","password":"xyz789"}`)))

	stored, err := docs.Get(ctx, id)
	require.NoError(t, err)
	assert.NotContains(t, string(stored), "xyz789")

	got, err := m.OpenDocument(ctx, id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"remote":"https://couch.example.com","password":"xyz789"}`, string(got))

	m.Lock()
	_, err = m.OpenDocument(ctx, id)
	assert.ErrorIs(t, err, session.ErrLocked)

	// the working key is derived from the secret, so it is stable across unlocks
	require.NoError(t, m.Unlock(ctx, f.code(), session.UnlockOptions{}))
	got, err = m.OpenDocument(ctx, id)
	require.NoError(t, err)
	assert.NotEmpty(t, got)

	require.NoError(t, docs.Put(ctx, "garbage", []byte("not an envelope")))
	_, err = m.OpenDocument(ctx, "garbage")
	assert.ErrorIs(t, err, session.ErrStorageTampered)

	require.NoError(t, m.DeleteDocument(ctx, id))
	_, err = m.OpenDocument(ctx, id)
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	plain := f.manager(t)
	assert.ErrorIs(t, plain.SealDocument(ctx, id, nil), session.ErrNoDocumentStore)
}

func TestManager_AutoLock(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	m := f.manager(t, session.WithAutoLock(20*time.Millisecond))

	require.NoError(t, m.Register(ctx, f.b32, f.code(), session.UnlockOptions{}))
	assert.Eventually(t, func() bool { return !m.IsUnlocked() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, session.StatusLocked, m.Status())
}

func TestManager_StaleAutoLockIgnored(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	m := f.manager(t, session.WithAutoLock(time.Hour))
	require.NoError(t, m.Register(ctx, f.b32, f.code(), session.UnlockOptions{}))

	t.Run("expiry superseded by activity", func(t *testing.T) {
		stale := m.InactivityGeneration()
		m.Touch()
		m.ExpireInactivity(stale)
		assert.True(t, m.IsUnlocked())
	})

	t.Run("expiry superseded by a fresh unlock", func(t *testing.T) {
		stale := m.InactivityGeneration()
		m.Lock()
		f.clock.Advance(30 * time.Second)
		require.NoError(t, m.Unlock(ctx, f.code(), session.UnlockOptions{}))

		m.ExpireInactivity(stale)
		assert.True(t, m.IsUnlocked())
	})

	t.Run("current expiry locks", func(t *testing.T) {
		m.ExpireInactivity(m.InactivityGeneration())
		assert.Equal(t, session.StatusLocked, m.Status())
	})
}

func TestManager_HandleSignal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for _, sig := range []session.Signal{session.SignalHidden, session.SignalTerminate} {
		t.Run(sig.String(), func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			m := f.manager(t)
			require.NoError(t, m.Register(ctx, f.b32, f.code(), session.UnlockOptions{}))

			m.HandleSignal(session.SignalActivity)
			assert.True(t, m.IsUnlocked())

			m.HandleSignal(sig)
			assert.False(t, m.IsUnlocked())
		})
	}
}

func TestManager_Close(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	m := f.manager(t)
	require.NoError(t, m.Register(ctx, f.b32, f.code(), session.UnlockOptions{}))

	require.NoError(t, m.Close())
	assert.False(t, m.IsUnlocked())
	assert.ErrorIs(t, m.Unlock(ctx, f.code(), session.UnlockOptions{}), session.ErrClosed)
	assert.ErrorIs(t, m.Reset(ctx), session.ErrClosed)
}

func TestNewManager_InvalidConfig(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := session.NewManager(ctx, nil)
	assert.ErrorIs(t, err, session.ErrInvalidConfig)

	_, err = session.NewManager(ctx, kvstore.NewMemoryStore(), session.WithHKDFSalt("short"))
	assert.ErrorIs(t, err, session.ErrInvalidConfig)

	_, err = session.NewManager(ctx, kvstore.NewMemoryStore(), session.WithStorageKey(""))
	assert.ErrorIs(t, err, session.ErrInvalidConfig)
}
