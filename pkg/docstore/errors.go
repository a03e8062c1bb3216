package docstore

import "errors"

var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidID    = errors.New("invalid document id")
	ErrStoreFailure = errors.New("document store operation failed")

	// Backend setup errors
	ErrInvalidConfig          = errors.New("invalid configuration")
	ErrFailedToLoadConfig     = errors.New("failed to load AWS config")
	ErrFailedToConnectToMongo = errors.New("failed to connect to mongo")
	ErrHealthcheckFailed      = errors.New("document store healthcheck failed")

	// S3 error classes
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)
