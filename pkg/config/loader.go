package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// configCache stores parsed configuration values keyed by type and prefix.
type configCache struct {
	mu     sync.RWMutex
	values map[string]any
	onces  map[string]*sync.Once
}

var (
	globalCache = newConfigCache()

	defaultEnvLoaded sync.Once
)

func newConfigCache() *configCache {
	return &configCache{
		values: make(map[string]any),
		onces:  make(map[string]*sync.Once),
	}
}

// Option adjusts how a single Load call parses the environment.
type Option func(*loadOptions)

type loadOptions struct {
	prefix      string
	environment map[string]string
}

// WithPrefix prepends prefix to every env tag, so `env:"MAX_ATTEMPTS"` reads
// VAULT_MAX_ATTEMPTS under WithPrefix("VAULT_"). Prefixed loads are cached
// separately from unprefixed ones.
func WithPrefix(prefix string) Option {
	return func(o *loadOptions) {
		o.prefix = prefix
	}
}

// WithEnvironment parses from the given map instead of the process
// environment. Such loads bypass the cache.
func WithEnvironment(vars map[string]string) Option {
	return func(o *loadOptions) {
		o.environment = vars
	}
}

// Load parses environment variables into v. The default .env file is read
// once per process if present. Each configuration type (and prefix) is parsed
// once; later calls are served from the cache.
//
// Example:
//
//	var limits ratelimiter.Config
//	if err := config.Load(&limits); err != nil {
//		return err
//	}
func Load[T any](v *T, opts ...Option) error {
	defaultEnvLoaded.Do(func() {
		// a missing .env file is fine
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	o := loadOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	if o.environment != nil {
		return parse(v, o)
	}

	key := cacheKey[T](o.prefix)

	globalCache.mu.RLock()
	if cached, ok := globalCache.values[key]; ok {
		*v = cached.(T)
		globalCache.mu.RUnlock()
		return nil
	}
	globalCache.mu.RUnlock()

	globalCache.mu.Lock()
	once, exists := globalCache.onces[key]
	if !exists {
		once = new(sync.Once)
		globalCache.onces[key] = once
	}
	globalCache.mu.Unlock()

	var err error
	once.Do(func() {
		if err = parse(v, o); err != nil {
			// allow a retry once the environment is fixed
			globalCache.mu.Lock()
			delete(globalCache.onces, key)
			globalCache.mu.Unlock()
			return
		}
		globalCache.mu.Lock()
		globalCache.values[key] = *v
		globalCache.mu.Unlock()
	})
	if err != nil {
		return err
	}

	globalCache.mu.RLock()
	defer globalCache.mu.RUnlock()
	if cached, ok := globalCache.values[key]; ok {
		*v = cached.(T)
		return nil
	}
	return ErrConfigNotLoaded
}

// MustLoad works like Load but panics on failure.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("Failed to load required configuration: %v", err))
	}
}

// ForceReload drops the cached value for T and parses again.
func ForceReload[T any](v *T, opts ...Option) error {
	o := loadOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	key := cacheKey[T](o.prefix)

	globalCache.mu.Lock()
	delete(globalCache.values, key)
	delete(globalCache.onces, key)
	globalCache.mu.Unlock()

	return Load(v, opts...)
}

// LoadEnv reads the given .env files into the process environment, or the
// default .env when none are given. Existing variables are not overridden.
func LoadEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}

// MustLoadEnv works like LoadEnv but panics on failure.
func MustLoadEnv(paths ...string) {
	if err := LoadEnv(paths...); err != nil {
		panic(err)
	}
}

// ResetCache forgets every cached configuration.
func ResetCache() {
	globalCache.mu.Lock()
	defer globalCache.mu.Unlock()
	globalCache.values = make(map[string]any)
	globalCache.onces = make(map[string]*sync.Once)
}

func parse[T any](v *T, o loadOptions) error {
	envOpts := env.Options{Prefix: o.prefix}
	if o.environment != nil {
		envOpts.Environment = o.environment
	}
	if err := env.ParseWithOptions(v, envOpts); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

func cacheKey[T any](prefix string) string {
	return prefix + "|" + getTypeName[T]()
}

// getTypeName returns a string identifier for the generic type T
func getTypeName[T any]() string {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return fmt.Sprintf("%T", *new(T))
	}
	return t.String()
}
