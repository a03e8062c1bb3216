package envelope_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dmitrymomot/vaultcore/pkg/envelope"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSalt(b byte) []byte {
	return bytes.Repeat([]byte{b}, envelope.SaltSize)
}

func testTOTPKey(t *testing.T) *envelope.Key {
	t.Helper()
	key, err := envelope.DeriveKeyFromTOTP([]byte("12345678901234567890"), testSalt(1))
	require.NoError(t, err)
	return key
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	t.Parallel()
	key := testTOTPKey(t)

	tests := []struct {
		name      string
		plaintext []byte
	}{
		{"empty", []byte{}},
		{"simple text", []byte("Hello, World!")},
		{"json", []byte(`{"url":"https://couch.example.com","password":"xyz789"}`)},
		{"unicode", []byte("Hello 世界 🌍")},
		{"binary", []byte{0x00, 0xff, 0x10, 0x80}},
		{"large", bytes.Repeat([]byte("ledger-entry;"), 1024)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			iv, ciphertext, err := envelope.Encrypt(key, tt.plaintext)
			require.NoError(t, err)
			assert.Len(t, iv, envelope.IVSize)
			assert.Len(t, ciphertext, len(tt.plaintext)+16)

			plaintext, err := envelope.Decrypt(key, iv, ciphertext)
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, plaintext)
		})
	}
}

func TestEncrypt_FreshIVPerCall(t *testing.T) {
	t.Parallel()
	key := testTOTPKey(t)

	seen := make(map[string]struct{})
	for range 100 {
		iv, ciphertext, err := envelope.Encrypt(key, []byte("same plaintext"))
		require.NoError(t, err)
		_, dup := seen[string(iv)]
		require.False(t, dup, "IV reused")
		seen[string(iv)] = struct{}{}
		assert.NotEmpty(t, ciphertext)
	}
}

func TestDecrypt_TamperDetection(t *testing.T) {
	t.Parallel()
	key := testTOTPKey(t)
	plaintext := []byte("the totp secret")

	iv, ciphertext, err := envelope.Encrypt(key, plaintext)
	require.NoError(t, err)

	t.Run("every ciphertext byte flip fails", func(t *testing.T) {
		t.Parallel()
		for i := range ciphertext {
			tampered := bytes.Clone(ciphertext)
			tampered[i] ^= 0x01
			got, err := envelope.Decrypt(key, iv, tampered)
			require.ErrorIs(t, err, envelope.ErrDecryptionFailed, "byte %d", i)
			require.Nil(t, got)
		}
	})

	t.Run("every iv byte flip fails", func(t *testing.T) {
		t.Parallel()
		for i := range iv {
			tampered := bytes.Clone(iv)
			tampered[i] ^= 0x80
			_, err := envelope.Decrypt(key, tampered, ciphertext)
			require.ErrorIs(t, err, envelope.ErrDecryptionFailed, "byte %d", i)
		}
	})

	t.Run("wrong key fails", func(t *testing.T) {
		t.Parallel()
		other, err := envelope.DeriveKeyFromTOTP([]byte("12345678901234567890"), testSalt(2))
		require.NoError(t, err)
		_, err = envelope.Decrypt(other, iv, ciphertext)
		assert.ErrorIs(t, err, envelope.ErrDecryptionFailed)
	})

	t.Run("truncated inputs fail without panic", func(t *testing.T) {
		t.Parallel()
		_, err := envelope.Decrypt(key, iv[:8], ciphertext)
		assert.ErrorIs(t, err, envelope.ErrDecryptionFailed)
		_, err = envelope.Decrypt(key, iv, ciphertext[:4])
		assert.ErrorIs(t, err, envelope.ErrDecryptionFailed)
		_, err = envelope.Decrypt(key, nil, nil)
		assert.ErrorIs(t, err, envelope.ErrDecryptionFailed)
	})

	t.Run("error is opaque", func(t *testing.T) {
		t.Parallel()
		tampered := bytes.Clone(ciphertext)
		tampered[0] ^= 0xff
		_, err := envelope.Decrypt(key, iv, tampered)
		require.Error(t, err)
		assert.Equal(t, "decryption failed: invalid key or corrupted data", err.Error())
	})
}

func TestDestroyedKey(t *testing.T) {
	t.Parallel()
	key := testTOTPKey(t)
	iv, ciphertext, err := envelope.Encrypt(key, []byte("data"))
	require.NoError(t, err)

	key.Destroy()
	assert.True(t, key.Destroyed())

	_, _, err = envelope.Encrypt(key, []byte("data"))
	assert.ErrorIs(t, err, envelope.ErrKeyDestroyed)
	_, err = envelope.Decrypt(key, iv, ciphertext)
	assert.ErrorIs(t, err, envelope.ErrKeyDestroyed)

	var nilKey *envelope.Key
	assert.True(t, nilKey.Destroyed())
	nilKey.Destroy()
}

func TestEncryptWithIV_RejectsBadIV(t *testing.T) {
	t.Parallel()
	_, err := envelope.EncryptWithIV(testTOTPKey(t), make([]byte, 8), []byte("x"))
	assert.ErrorIs(t, err, envelope.ErrEncryptionFailed)
	assert.False(t, strings.Contains(err.Error(), "panic"))
}
