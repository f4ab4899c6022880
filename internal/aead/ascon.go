package aead

import (
	"github.com/pedroalbanese/go-ascon"
)

const (
	asconKeyLen   = 16
	asconNonceLen = 16
	asconTagLen   = 16
)

// asconAEAD128 implements Ascon-AEAD-128 (protected-header tag 35) via the
// reference cipher.AEAD-compatible implementation.
type asconAEAD128 struct{}

func (asconAEAD128) AlgID() AlgID  { return AlgAsconAEAD128 }
func (asconAEAD128) KeyLen() int   { return asconKeyLen }
func (asconAEAD128) NonceLen() int { return asconNonceLen }
func (asconAEAD128) TagLen() int   { return asconTagLen }

func (a asconAEAD128) Seal(key, nonce, aad, plaintext []byte) ([]byte, error) {
	if len(key) != asconKeyLen {
		return nil, ErrKeyLength
	}
	if len(nonce) != asconNonceLen {
		return nil, ErrNonceLength
	}
	c, err := ascon.New128(key)
	if err != nil {
		return nil, ErrEncryptionFailed
	}
	return c.Seal(nil, nonce, plaintext, aad), nil
}

func (a asconAEAD128) Open(key, nonce, aad, ciphertext []byte) ([]byte, error) {
	if len(key) != asconKeyLen {
		return nil, ErrKeyLength
	}
	if len(nonce) != asconNonceLen {
		return nil, ErrNonceLength
	}
	if len(ciphertext) < asconTagLen {
		return nil, ErrDecryptionFailed
	}
	c, err := ascon.New128(key)
	if err != nil {
		return nil, ErrEncryptionFailed
	}
	pt, err := c.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return pt, nil
}
