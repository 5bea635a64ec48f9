// Package digest implements streaming MD5 (RFC 1321) and SHA-256 (FIPS 180-4).
//
// Both engines follow the Merkle-Damgard construction: input is buffered into
// 64-byte blocks, each block is folded into the running state by a compression
// function, and finalization appends 0x80, zero bytes up to 56 mod 64 and the
// 64-bit message length in bits. MD5 packs words and the length little-endian,
// SHA-256 big-endian.
//
// The contexts satisfy hash.Hash. Sum finalizes a copy of the context, so a
// running context can keep absorbing input after a digest was taken.
//
// Digests are rendered as uppercase hex without separators. FileSHA256 and
// FileMD5 never fail: a missing or unreadable file yields the digest of the
// empty string.
package digest
