package crypto

import (
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	SaltSize  = 16 // Argon2id salt size
	KeySize   = 32 // secretbox key size
	NonceSize = 24 // secretbox nonce size
	TagSize   = 16 // Poly1305 tag size

	HeaderSize       = 64
	MinContainerSize = HeaderSize + SaltSize + NonceSize + TagSize
)

// KDFParams are Argon2id cost parameters. Memory is in KiB.
type KDFParams struct {
	Time    uint32
	Memory  uint32
	Threads uint8
}

var (
	// ModerateParams match libsodium's crypto_pwhash OPSLIMIT_MODERATE and
	// MEMLIMIT_MODERATE for Argon2id13. Containers do not record their
	// parameters, so these are the only ones existing data opens with.
	ModerateParams = KDFParams{Time: 3, Memory: 256 * 1024, Threads: 1}

	// InteractiveParams match libsodium's *_INTERACTIVE limits. Not
	// compatible with containers sealed under ModerateParams.
	InteractiveParams = KDFParams{Time: 2, Memory: 64 * 1024, Threads: 1}
)

// Validate checks the parameters against Argon2's minimums.
func (p KDFParams) Validate() error {
	if p.Time < 1 {
		return fmt.Errorf("%w: time must be at least 1", ErrDerivation)
	}
	if p.Threads < 1 {
		return fmt.Errorf("%w: threads must be at least 1", ErrDerivation)
	}
	if p.Memory < 8*uint32(p.Threads) {
		return fmt.Errorf("%w: memory must be at least %d KiB", ErrDerivation, 8*uint32(p.Threads))
	}
	return nil
}

// DeriveKey derives a KeySize key from password and salt with Argon2id.
// The same inputs always produce the same key. The caller owns the returned
// key and must Wipe it.
func DeriveKey(password, salt []byte, params KDFParams) ([]byte, error) {
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: salt must be %d bytes, got %d", ErrDerivation, SaltSize, len(salt))
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return argon2.IDKey(password, salt, params.Time, params.Memory, params.Threads, KeySize), nil
}
