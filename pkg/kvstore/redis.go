package kvstore

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig is populated from REDIS_* environment variables.
type RedisConfig struct {
	ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"` // ConnectionURL is the URL of the database. It should be in the format "redis://:password@localhost:6379/0"
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`                      // RetryAttempts is the number of retry attempts to connect to the database.
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`                     // RetryInterval is the interval between retry attempts.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`                   // ConnectTimeout is the timeout for connecting to the database.
	ScanBatchSize  int64         `env:"REDIS_SCAN_BATCH_SIZE" envDefault:"1000"`                  // ScanBatchSize is the COUNT hint used when listing keys.
}

// ConnectRedis connects, making RetryAttempts attempts (at least one). It
// returns ErrFailedToParseRedisConnString for a bad URL and ErrRedisNotReady,
// joined with the last ping error, when every attempt fails.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisConnString, err)
	}

	attempts := max(1, cfg.RetryAttempts)
	var lastErr error
	for i := range attempts {
		client := redis.NewClient(opts)
		err := client.Ping(ctx).Err()
		if err == nil {
			return client, nil
		}
		_ = client.Close()
		lastErr = err
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, errors.Join(ErrRedisNotReady, lastErr)
}

// RedisHealthcheck returns a probe suitable for readiness checks.
func RedisHealthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

// RedisStore implements Store on top of go-redis. Values never expire.
type RedisStore struct {
	db            redis.UniversalClient
	scanBatchSize int64
}

// NewRedisStore wraps client. A non-positive batch size falls back to 1000.
func NewRedisStore(client redis.UniversalClient, scanBatchSize int64) *RedisStore {
	if scanBatchSize <= 0 {
		scanBatchSize = 1000
	}
	return &RedisStore{db: client, scanBatchSize: scanBatchSize}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	val, err := s.db.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := s.db.Set(ctx, key, value, 0).Err(); err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := s.db.Del(ctx, key).Err(); err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

// Keys uses SCAN so large keyspaces do not block the server.
func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	match := escapeGlob(prefix) + "*"

	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := s.db.Scan(ctx, cursor, match, s.scanBatchSize).Result()
		if err != nil {
			return nil, errors.Join(ErrStoreFailure, err)
		}
		keys = append(keys, batch...)
		if cursor = next; cursor == 0 {
			break
		}
	}

	// SCAN may return a key more than once
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.db.Close()
}

// escapeGlob quotes the characters SCAN MATCH treats as patterns.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
