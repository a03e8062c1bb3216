package totp

import "errors"

var (
	ErrFailedToGenerateSecret     = errors.New("failed to generate TOTP secret")
	ErrInvalidSecret              = errors.New("invalid secret")
	ErrMissingSecret              = errors.New("missing secret")
	ErrMissingAccountName         = errors.New("missing account name")
	ErrInvalidBackupCodeCount     = errors.New("invalid backup code count, must be greater than 0")
	ErrFailedToGenerateBackupCode = errors.New("failed to generate backup code")
	ErrEmptyProvisioningURI       = errors.New("provisioning URI cannot be empty")
	ErrFailedToGenerateQRCode     = errors.New("failed to generate QR code")
	ErrFailedToValidateTOTP       = errors.New("failed to validate TOTP")
	ErrInvalidOTP                 = errors.New("invalid OTP format")
)
