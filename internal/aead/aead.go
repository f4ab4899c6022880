// Package aead implements the authenticated-encryption primitives the
// envelope codec treats as black boxes: AES-GCM-128 and Ascon-AEAD-128,
// both exposed behind the same small interface.
package aead

import "errors"

// AlgID identifies an AEAD algorithm by its protected-header tag value.
type AlgID uint16

const (
	// AlgAESGCM128 is algorithm tag 1.
	AlgAESGCM128 AlgID = 1
	// AlgAsconAEAD128 is algorithm tag 35.
	AlgAsconAEAD128 AlgID = 35
)

// Errors mirror spec.md §4.1's failure domain. Decrypt failure is never
// distinguishable from any other decrypt failure, by design: do not add
// a more specific error for authentication failure.
var (
	ErrKeyLength        = errors.New("aead: invalid key length")
	ErrNonceLength      = errors.New("aead: invalid nonce length")
	ErrEncryptionFailed = errors.New("aead: encryption failed")
	ErrDecryptionFailed = errors.New("aead: decryption failed")
	ErrUnknownAlgorithm = errors.New("aead: unknown algorithm")
)

// AEAD is the algorithm-agnostic capability spec.md §4.1 describes.
type AEAD interface {
	// AlgID returns the algorithm's protected-header tag.
	AlgID() AlgID
	// KeyLen returns the required key length in bytes.
	KeyLen() int
	// NonceLen returns the required nonce length in bytes.
	NonceLen() int
	// TagLen returns the authentication tag length in bytes.
	TagLen() int
	// Seal encrypts plaintext and appends the authentication tag.
	Seal(key, nonce, aad, plaintext []byte) ([]byte, error)
	// Open authenticates and decrypts ciphertext||tag.
	Open(key, nonce, aad, ciphertext []byte) ([]byte, error)
}

// New returns the AEAD implementation for the given algorithm tag.
func New(id AlgID) (AEAD, error) {
	switch id {
	case AlgAESGCM128:
		return aesGCM128{}, nil
	case AlgAsconAEAD128:
		return asconAEAD128{}, nil
	default:
		return nil, ErrUnknownAlgorithm
	}
}

// Zero overwrites b with zeros in place. Used to discharge the
// zeroization contract on any buffer that transiently held key material.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
