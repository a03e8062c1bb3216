package session

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/vaultcore/pkg/envelope"
	"github.com/dmitrymomot/vaultcore/pkg/ratelimiter"
)

var (
	// ErrInvalidCode indicates the TOTP code did not verify.
	ErrInvalidCode = errors.New("session.invalid_code")

	// ErrDecryptionFailed indicates a wrong passphrase or a corrupted envelope.
	ErrDecryptionFailed = envelope.ErrDecryptionFailed

	// ErrRateLimited indicates the attempt was throttled.
	// The concrete error is *ratelimiter.LimitedError.
	ErrRateLimited = ratelimiter.ErrRateLimited

	// ErrNoCommittedSecret indicates unlock was called before a secret was registered.
	ErrNoCommittedSecret = errors.New("session.no_committed_secret")

	// ErrStorageTampered indicates the persisted auth record could not be decoded.
	// It is reported, never returned from an operation.
	ErrStorageTampered = errors.New("session.storage_tampered")

	// ErrBusy indicates another unlock or register call is in flight.
	ErrBusy = errors.New("session.busy")

	// ErrAlreadyRegistered indicates register was called on a registered vault.
	ErrAlreadyRegistered = errors.New("session.already_registered")

	// ErrNoEnvelope indicates passphrase unlock without an escrowed secret.
	ErrNoEnvelope = errors.New("session.no_envelope")

	// ErrLocked indicates the working key was requested while locked.
	ErrLocked = errors.New("session.locked")

	// ErrPersistFailed wraps failures of the auth record storage.
	ErrPersistFailed = errors.New("session.persist_failed")

	// ErrInvalidConfig indicates a manager option or config value is unusable.
	ErrInvalidConfig = errors.New("session.invalid_config")

	// ErrInvalidSecret indicates the secret offered at registration cannot be decoded.
	ErrInvalidSecret = errors.New("session.invalid_secret")

	// ErrInvalidExpiry indicates an unknown remember-me preset.
	ErrInvalidExpiry = errors.New("session.invalid_expiry")

	// ErrClosed indicates the manager was closed.
	ErrClosed = errors.New("session.closed")

	// ErrNoDocumentStore indicates sealed documents were used without a docstore.
	ErrNoDocumentStore = errors.New("session.no_document_store")
)

// ErrNoTransitionAvailable indicates the current status does not accept the event.
type ErrNoTransitionAvailable struct {
	Status Status
	Event  Event
}

func (e *ErrNoTransitionAvailable) Error() string {
	return fmt.Sprintf("no transition available from status '%s' for event '%s'", e.Status, e.Event)
}

// IsNoTransitionAvailableError reports whether err is an *ErrNoTransitionAvailable.
func IsNoTransitionAvailableError(err error) bool {
	var e *ErrNoTransitionAvailable
	return errors.As(err, &e)
}
