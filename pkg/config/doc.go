// Package config loads typed configuration from environment variables.
//
// Every vault component declares its settings as a struct with `env` tags
// (session.Config, ratelimiter.Config, kvstore.RedisConfig and so on) and
// calls Load. Parsing is done by github.com/caarlos0/env/v11; .env files are
// read with github.com/joho/godotenv.
//
// # Loading
//
//	var limits ratelimiter.Config
//	if err := config.Load(&limits); err != nil {
//	    return err
//	}
//
// The default .env in the working directory is read once per process when it
// exists. Additional files are loaded explicitly with LoadEnv; variables
// already present in the environment are never overridden.
//
// # Caching
//
// A parsed value is cached per type and prefix, so repeated Load calls for the
// same struct return the first result. A failed parse is not cached. Use
// ForceReload after changing the environment, or ResetCache to drop every
// entry.
//
// # Options
//
// WithPrefix namespaces every tag, which is how vaultctl reads its own
// settings from VAULT_* without touching the SESSION_* or RATELIMIT_* ones:
//
//	var cli cliConfig
//	err := config.Load(&cli, config.WithPrefix("VAULT_"))
//
// WithEnvironment parses from a map instead of the process environment and
// bypasses the cache. Tests use it to run commands with isolated settings.
//
// # Errors
//
// ErrParsingConfig wraps parse failures from the env library, including
// missing required variables. ErrLoadingEnvFile is returned by LoadEnv,
// ErrNilPointer by Load for a nil target.
package config
