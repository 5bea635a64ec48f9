package crypto

import "errors"

var (
	// ErrEmptyPlaintext is returned by Seal for empty input; sealing nothing is a no-op.
	ErrEmptyPlaintext = errors.New("empty plaintext")

	// ErrDecryptionFailed covers a missing header, a truncated container and
	// a tag that does not verify. Wrong passwords land here too.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrDerivation is returned when key derivation cannot run.
	ErrDerivation = errors.New("key derivation failed")

	// ErrUnavailable is returned when the system random source cannot be used.
	ErrUnavailable = errors.New("crypto environment unavailable")
)
