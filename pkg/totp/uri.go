package totp

import (
	"fmt"
	"strings"
)

// DefaultIssuer is shown in authenticator apps when no issuer is supplied.
const DefaultIssuer = "Ledgy"

// BuildProvisioningURI creates the otpauth:// URI scanned by authenticator apps.
// Parameter order is fixed and issuer and account are escaped with
// encodeURIComponent rules so the output is stable byte-for-byte:
//
//	otpauth://totp/{issuer}:{account}?secret={B32}&issuer={issuer}&algorithm=SHA1&digits=6&period=30
func BuildProvisioningURI(secretB32, account, issuer string) (string, error) {
	if secretB32 == "" {
		return "", ErrMissingSecret
	}
	if !ValidateSecretKeyRegex.MatchString(secretB32) {
		return "", ErrInvalidSecret
	}
	if strings.TrimSpace(account) == "" {
		return "", ErrMissingAccountName
	}
	if issuer == "" {
		issuer = DefaultIssuer
	}

	encodedIssuer := encodeURIComponent(issuer)
	return fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s&algorithm=%s&digits=%d&period=%d",
		encodedIssuer,
		encodeURIComponent(account),
		secretB32,
		encodedIssuer,
		DefaultAlgorithm,
		Digits,
		Period,
	), nil
}

// encodeURIComponent escapes everything except A-Z a-z 0-9 - _ . ! ~ * ' ( ).
// net/url has no equivalent: QueryEscape turns spaces into '+' and PathEscape keeps ':' and '@'.
func encodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isURIUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isURIUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
