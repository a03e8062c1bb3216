package envelope

import (
	"crypto/rand"
	"errors"
	"io"
)

// Encrypt seals plaintext under key with a fresh random 12-byte IV.
// A new IV is drawn on every call; GCM loses its guarantees if an IV repeats under one key.
func Encrypt(key *Key, plaintext []byte) (iv, ciphertext []byte, err error) {
	iv = make([]byte, IVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, nil, errors.Join(ErrEncryptionFailed, err)
	}
	ciphertext, err = encryptWithIV(key, iv, plaintext)
	if err != nil {
		return nil, nil, err
	}
	return iv, ciphertext, nil
}

// Decrypt opens ciphertext sealed by Encrypt. Any change to the key, IV or
// ciphertext yields ErrDecryptionFailed without further detail.
func Decrypt(key *Key, iv, ciphertext []byte) ([]byte, error) {
	aead, err := key.aeadCipher()
	if err != nil {
		return nil, err
	}
	// aead.Open panics on a wrong nonce length
	if len(iv) != IVSize || len(ciphertext) < aead.Overhead() {
		return nil, ErrDecryptionFailed
	}

	plaintext, err := aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

func encryptWithIV(key *Key, iv, plaintext []byte) ([]byte, error) {
	aead, err := key.aeadCipher()
	if err != nil {
		return nil, err
	}
	if len(iv) != IVSize {
		return nil, errors.Join(ErrEncryptionFailed, errors.New("iv must be 12 bytes"))
	}
	return aead.Seal(nil, iv, plaintext, nil), nil
}
