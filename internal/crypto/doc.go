// Package crypto provides the password-based container format for ramvault.
//
// A container is laid out as:
//
//	Header (64) | Salt (16) | Nonce (24) | Ciphertext+Tag (len(plaintext)+16)
//
// Encryption uses NaCl secretbox (XSalsa20-Poly1305) with:
//   - 32-byte key derived from the password via Argon2id
//   - 24-byte random nonce per container
//   - 16-byte Poly1305 tag verified before any plaintext is released
//
// Key derivation uses Argon2id with libsodium's "moderate" limits
// (3 passes, 256 MiB, 1 lane) and a 16-byte random salt per container, so
// containers written by the Roblox Account Manager open unchanged.
//
// Failure handling:
//   - Seal/Open return sentinel errors
//   - Encrypt/Decrypt collapse every failure to nil
//   - A wrong password and a damaged container both surface as
//     ErrDecryptionFailed
//
// Memory safety:
//   - Derived keys are wiped with Wipe on every return path
//   - Use Wipe() on passwords once they are no longer needed
package crypto
