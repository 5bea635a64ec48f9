package crypto

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
)

// Field offsets within a container.
const (
	SaltOffset       = HeaderSize
	NonceOffset      = SaltOffset + SaltSize
	CiphertextOffset = NonceOffset + NonceSize
)

var probeRandom = sync.OnceValue(func() error {
	var b [1]byte
	if _, err := io.ReadFull(rand.Reader, b[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
})

// Init checks once per process that the system random source is usable.
// It is safe to call repeatedly and concurrently.
func Init() error {
	return probeRandom()
}

// Codec seals and opens containers. A Codec has no mutable state and is safe
// for concurrent use.
type Codec struct {
	params KDFParams
	random io.Reader
}

// Option configures a Codec.
type Option func(*Codec)

// WithKDFParams overrides the Argon2id cost. Containers sealed with anything
// other than ModerateParams only open with a Codec using the same parameters.
func WithKDFParams(p KDFParams) Option {
	return func(c *Codec) {
		c.params = p
	}
}

// WithRandom replaces the salt and nonce source.
func WithRandom(r io.Reader) Option {
	return func(c *Codec) {
		c.random = r
	}
}

// NewCodec creates a codec using ModerateParams and crypto/rand.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{
		params: ModerateParams,
		random: rand.Reader,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Params returns the codec's KDF parameters.
func (c *Codec) Params() KDFParams {
	return c.params
}

func (c *Codec) ready() error {
	if c.random == rand.Reader {
		return Init()
	}
	return nil
}

func (c *Codec) deriveInto(key *[KeySize]byte, password, salt []byte) error {
	derived, err := DeriveKey(password, salt, c.params)
	if err != nil {
		return err
	}
	copy(key[:], derived)
	Wipe(derived)
	return nil
}

// Seal encrypts plaintext under password and returns a complete container.
// Every call draws a fresh salt and nonce.
func (c *Codec) Seal(plaintext, password []byte) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, ErrEmptyPlaintext
	}
	if err := c.ready(); err != nil {
		return nil, err
	}

	out := make([]byte, CiphertextOffset, CiphertextOffset+len(plaintext)+TagSize)
	copy(out, magic)

	salt := out[SaltOffset:NonceOffset]
	if _, err := io.ReadFull(c.random, salt); err != nil {
		return nil, fmt.Errorf("%w: failed to generate salt: %v", ErrUnavailable, err)
	}

	var nonce [NonceSize]byte
	if _, err := io.ReadFull(c.random, nonce[:]); err != nil {
		return nil, fmt.Errorf("%w: failed to generate nonce: %v", ErrUnavailable, err)
	}
	copy(out[NonceOffset:CiphertextOffset], nonce[:])

	var key [KeySize]byte
	defer Wipe(key[:])
	if err := c.deriveInto(&key, password, salt); err != nil {
		return nil, err
	}

	return secretbox.Seal(out, plaintext, &nonce, &key), nil
}

// Open verifies and decrypts a container. No plaintext is returned unless
// the tag verifies.
func (c *Codec) Open(container, password []byte) ([]byte, error) {
	if !HasHeader(container) || len(container) < MinContainerSize {
		return nil, ErrDecryptionFailed
	}
	if err := c.ready(); err != nil {
		return nil, err
	}

	salt := container[SaltOffset:NonceOffset]
	var nonce [NonceSize]byte
	copy(nonce[:], container[NonceOffset:CiphertextOffset])

	var key [KeySize]byte
	defer Wipe(key[:])
	if err := c.deriveInto(&key, password, salt); err != nil {
		return nil, err
	}

	plaintext, ok := secretbox.Open(nil, container[CiphertextOffset:], &nonce, &key)
	if !ok {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// Encrypt is Seal with every failure collapsed to nil.
func (c *Codec) Encrypt(plaintext, password []byte) []byte {
	out, err := c.Seal(plaintext, password)
	if err != nil {
		return nil
	}
	return out
}

// Decrypt is Open with every failure collapsed to nil.
func (c *Codec) Decrypt(container, password []byte) []byte {
	out, err := c.Open(container, password)
	if err != nil {
		return nil
	}
	return out
}

var defaultCodec = NewCodec()

// Encrypt seals plaintext with the default codec. It returns nil for empty
// plaintext and on any failure.
func Encrypt(plaintext, password []byte) []byte {
	return defaultCodec.Encrypt(plaintext, password)
}

// Decrypt opens a container with the default codec. It returns nil on any
// failure, including a wrong password.
func Decrypt(container, password []byte) []byte {
	return defaultCodec.Decrypt(container, password)
}
