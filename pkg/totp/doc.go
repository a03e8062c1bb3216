// Package totp implements the one-time-code side of the vault: secret
// generation and Base32 encoding, RFC 4226/6238 code computation and
// verification, otpauth:// provisioning URIs with QR rendering, and backup codes.
//
// The package works on raw secret bytes. Base32 text is only the display and
// persistence form; DecodeSecret is lenient so that secrets typed by hand
// (lowercase, grouped with spaces or dashes) still decode.
//
// # Usage
//
//	secret, b32, _ := totp.GenerateSecretWithEncoding()
//
//	uri, _ := totp.BuildProvisioningURI(b32, "alice@example.com", "Ledgy")
//	png, _ := totp.ProvisioningQRCode(uri, 256)
//
//	// later, with the code typed by the user
//	if totp.VerifyCode(secret, "123456", totp.DefaultWindow) {
//	    // accepted
//	}
//
// Verification accepts the current 30-second step and DefaultWindow steps on
// each side to tolerate clock drift between the host and the authenticator.
// Codes are compared in constant time.
//
// # Error Handling
//
// Operations return package sentinels such as ErrInvalidSecret or
// ErrInvalidBackupCodeCount, joined with the underlying cause where there is
// one. Inspect them with errors.Is.
//
// # See Also
//
//   - RFC 4226 – HMAC-Based One-Time Password (HOTP) Algorithm
//   - RFC 6238 – Time-Based One-Time Password (TOTP) Algorithm
//   - https://github.com/google/google-authenticator/wiki/Key-Uri-Format
package totp
