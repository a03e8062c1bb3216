package totp

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"regexp"
	"strings"
)

// SecretSize is the length of a generated secret in bytes (160 bits, RFC 4226 recommendation).
const SecretSize = 20

var (
	// ValidateSecretKeyRegex matches canonical Base32 text: uppercase A-Z, digits 2-7, optional padding.
	ValidateSecretKeyRegex = regexp.MustCompile("^[A-Z2-7]+=*$")

	nonBase32 = regexp.MustCompile("[^A-Z2-7]")

	b32 = base32.StdEncoding.WithPadding(base32.NoPadding)
)

// GenerateSecret returns SecretSize bytes from a cryptographically secure source.
func GenerateSecret() ([]byte, error) {
	secret := make([]byte, SecretSize)
	if _, err := rand.Read(secret); err != nil {
		return nil, errors.Join(ErrFailedToGenerateSecret, err)
	}
	return secret, nil
}

// EncodeSecret encodes raw secret bytes as unpadded RFC 4648 Base32.
func EncodeSecret(secret []byte) string {
	return b32.EncodeToString(secret)
}

// DecodeSecret decodes Base32 text into raw secret bytes.
// Decoding is lenient: input is upper-cased, anything outside the Base32
// alphabet (whitespace, dashes, padding) is dropped, and a trailing partial
// quantum that cannot complete a byte is ignored.
func DecodeSecret(text string) ([]byte, error) {
	clean := nonBase32.ReplaceAllString(strings.ToUpper(text), "")

	// Unpadded Base32 never ends with 1, 3 or 6 characters in the last
	// 8-character block; those trailing characters carry fewer than 8 bits.
	switch len(clean) % 8 {
	case 1, 3, 6:
		clean = clean[:len(clean)-1]
	}
	if clean == "" {
		return nil, ErrInvalidSecret
	}

	secret, err := b32.DecodeString(clean)
	if err != nil {
		return nil, errors.Join(ErrInvalidSecret, err)
	}
	return secret, nil
}

// GenerateSecretWithEncoding returns a fresh secret together with its Base32 form.
func GenerateSecretWithEncoding() ([]byte, string, error) {
	secret, err := GenerateSecret()
	if err != nil {
		return nil, "", err
	}
	return secret, EncodeSecret(secret), nil
}
