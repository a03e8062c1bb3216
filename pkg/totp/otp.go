package totp

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

const (
	Digits           = 6      // Standard 6-digit TOTP codes
	Period           = 30     // 30-second time step (RFC 6238 standard)
	DefaultWindow    = 1      // Steps accepted on each side of the current one
	DefaultAlgorithm = "SHA1" // HMAC-SHA1 algorithm (RFC 6238 standard)
)

var codeRegex = regexp.MustCompile(fmt.Sprintf(`^\d{%d}$`, Digits))

// GenerateHOTP implements RFC 4226 HMAC-based One-Time Password algorithm.
// The algorithm converts a counter value into a numeric code using HMAC-SHA1.
func GenerateHOTP(key []byte, counter uint64, digits int) int {
	// Counter is an 8-byte big-endian value (RFC 4226 requirement)
	var counterBytes [8]byte
	binary.BigEndian.PutUint64(counterBytes[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(counterBytes[:])
	hash := mac.Sum(nil)

	// Dynamic truncation (RFC 4226): use last 4 bits as offset into hash
	offset := hash[len(hash)-1] & 0x0f
	// Extract 31-bit value (clear MSB to ensure positive number)
	code := (int(hash[offset]&0x7f) << 24) |
		(int(hash[offset+1]) << 16) |
		(int(hash[offset+2]) << 8) |
		int(hash[offset+3])

	return code % int(math.Pow10(digits))
}

// ComputeCode returns the zero-padded 6-digit HOTP code for the given time-step counter.
func ComputeCode(secret []byte, counter uint64) string {
	return fmt.Sprintf("%0*d", Digits, GenerateHOTP(secret, counter, Digits))
}

// TimeStep returns the RFC 6238 time-step counter for t.
func TimeStep(t time.Time) uint64 {
	return uint64(t.Unix() / Period)
}

// GenerateCode returns the code for the 30-second step containing t.
// Useful for testing or for showing the current code during enrollment.
func GenerateCode(secret []byte, t time.Time) string {
	return ComputeCode(secret, TimeStep(t))
}

// VerifyCode checks candidate against the current step and window steps on each side.
func VerifyCode(secret []byte, candidate string, window int) bool {
	return VerifyCodeAt(secret, candidate, window, time.Now())
}

// VerifyCodeAt is VerifyCode evaluated at an explicit instant.
// Steps in [current-window, current+window] are accepted so that a device
// clock skewed by up to window steps still verifies.
func VerifyCodeAt(secret []byte, candidate string, window int, now time.Time) bool {
	candidate = strings.TrimSpace(candidate)
	if len(secret) == 0 || !codeRegex.MatchString(candidate) {
		return false
	}
	if window < 0 {
		window = 0
	}

	current := int64(TimeStep(now))
	matched := 0
	for i := -int64(window); i <= int64(window); i++ {
		step := current + i
		if step < 0 {
			continue
		}
		expected := ComputeCode(secret, uint64(step))
		// Every step is compared so the loop duration does not depend on which step matched
		matched |= subtle.ConstantTimeCompare([]byte(expected), []byte(candidate))
	}
	return matched == 1
}

// Validate decodes a Base32 secret and verifies code against it with the default window.
func Validate(secretB32, code string) (bool, error) {
	secret, err := DecodeSecret(secretB32)
	if err != nil {
		return false, errors.Join(ErrFailedToValidateTOTP, err)
	}
	if !codeRegex.MatchString(strings.TrimSpace(code)) {
		return false, ErrInvalidOTP
	}
	return VerifyCode(secret, code, DefaultWindow), nil
}

// SecondsUntilNextStep returns how long the code valid at now stays current, in 1..30.
func SecondsUntilNextStep(now time.Time) int {
	return Period - int(now.Unix()%Period)
}
