// Package envelope derives symmetric keys and performs authenticated
// encryption of secrets for the vault.
//
// Keys come from two paths:
//
//   - DeriveKeyFromTOTP – HKDF-SHA256 over the raw TOTP secret, used for the
//     working key that protects vault contents while the session is unlocked.
//   - DeriveKeyFromPassphrase – PBKDF2-HMAC-SHA256 with 100,000 iterations,
//     used to escrow the TOTP secret behind a passphrase for "remember me".
//
// Both are deterministic for a given input and 16-byte salt. A derived Key is
// opaque: the raw bytes are wiped after the AES-256-GCM cipher is built and
// Destroy drops the cipher itself.
//
// # Architecture
//
//  1. keys.go – derivation, salts and the Key type.
//  2. cipher.go – Encrypt/Decrypt with a fresh 12-byte IV per call.
//  3. envelope.go – the Envelope at-rest format {iv, ciphertext, salt}, with
//     shape validation enforced when decoding JSON.
//
// # Usage
//
//	env, err := envelope.Seal("correct horse", secret)
//	if err != nil {
//	    // handle error
//	}
//	data, _ := json.Marshal(env)
//
//	var restored envelope.Envelope
//	if err := json.Unmarshal(data, &restored); err != nil {
//	    // malformed or tampered envelope
//	}
//	secret, err = restored.Open("correct horse")
//
// # Error Handling
//
// Decryption failures always return ErrDecryptionFailed and never carry the
// cause, so callers cannot tell a wrong key from altered data. Bad derivation
// inputs (wrong salt length, empty secret) return ErrKeyDerivationFailed joined
// with ErrInvalidSalt or ErrEmptyInput; those are programming errors.
package envelope
