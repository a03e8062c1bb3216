package kvstore

import "errors"

var (
	ErrNotFound       = errors.New("key not found")
	ErrEmptyKey       = errors.New("empty key")
	ErrMalformedValue = errors.New("malformed stored value")
	ErrStoreFailure   = errors.New("storage operation failed")

	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("redis did not become ready within the given time period")
	ErrFailedToParsePostgresConfig  = errors.New("failed to parse postgres config")
	ErrFailedToOpenPostgres         = errors.New("failed to open postgres connection")
	ErrFailedToApplyMigrations      = errors.New("failed to apply kvstore migrations")
	ErrHealthcheckFailed            = errors.New("kvstore healthcheck failed")
)
