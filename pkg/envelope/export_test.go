package envelope

// EncryptWithIV exposes fixed-IV encryption to tests that compare ciphertexts.
var EncryptWithIV = encryptWithIV
