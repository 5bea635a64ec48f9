package crypto

import (
	"crypto/subtle"

	"github.com/awnumar/memguard"
)

// Wipe overwrites b with zeros in a way the compiler cannot elide.
func Wipe(b []byte) {
	memguard.WipeBytes(b)
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
