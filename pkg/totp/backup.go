package totp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	BackupCodeDigits = 8
	backupCodeModulo = 100_000_000
)

// GenerateBackupCodes creates count unique 8-digit backup codes.
// Each code is drawn independently from 4 secure random bytes; duplicates are
// discarded and redrawn so the returned slice never repeats a code.
func GenerateBackupCodes(count int) ([]string, error) {
	if count < 1 {
		return nil, ErrInvalidBackupCodeCount
	}

	codes := make([]string, 0, count)
	seen := make(map[string]struct{}, count)
	var buf [4]byte
	for len(codes) < count {
		if _, err := rand.Read(buf[:]); err != nil {
			return nil, errors.Join(ErrFailedToGenerateBackupCode, err)
		}
		code := fmt.Sprintf("%0*d", BackupCodeDigits, binary.BigEndian.Uint32(buf[:])%backupCodeModulo)
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes, nil
}

// HashBackupCode creates a SHA-256 hash for storing a backup code at rest.
func HashBackupCode(code string) string {
	hash := sha256.Sum256([]byte(code))
	return hex.EncodeToString(hash[:])
}

// VerifyBackupCode compares code against a stored hash in constant time.
func VerifyBackupCode(code, hashedCode string) bool {
	return subtle.ConstantTimeCompare([]byte(HashBackupCode(code)), []byte(hashedCode)) == 1
}
