package aead

import (
	"bytes"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		id   AlgID
	}{
		{"aes-gcm-128", AlgAESGCM128},
		{"ascon-aead-128", AlgAsconAEAD128},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := New(tc.id)
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			key := bytes.Repeat([]byte{0x11}, a.KeyLen())
			nonce := bytes.Repeat([]byte{0x22}, a.NonceLen())
			aad := []byte("associated-data")
			pt := []byte("hello device")

			ct, err := a.Seal(key, nonce, aad, pt)
			if err != nil {
				t.Fatalf("Seal: %v", err)
			}
			if len(ct) != len(pt)+a.TagLen() {
				t.Fatalf("ciphertext length = %d, want %d", len(ct), len(pt)+a.TagLen())
			}

			got, err := a.Open(key, nonce, aad, ct)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if !bytes.Equal(got, pt) {
				t.Fatalf("Open = %q, want %q", got, pt)
			}
		})
	}
}

func TestOpenRejectsTamperedCiphertext(t *testing.T) {
	a, err := New(AlgAESGCM128)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	key := bytes.Repeat([]byte{0x01}, a.KeyLen())
	nonce := bytes.Repeat([]byte{0x02}, a.NonceLen())
	ct, err := a.Seal(key, nonce, nil, []byte("payload"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	ct[0] ^= 0xff

	if _, err := a.Open(key, nonce, nil, ct); err != ErrDecryptionFailed {
		t.Fatalf("Open with tampered ciphertext: err = %v, want ErrDecryptionFailed", err)
	}
}

func TestOpenRejectsTamperedAAD(t *testing.T) {
	a, err := New(AlgAsconAEAD128)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	key := bytes.Repeat([]byte{0x03}, a.KeyLen())
	nonce := bytes.Repeat([]byte{0x04}, a.NonceLen())
	ct, err := a.Seal(key, nonce, []byte("aad-one"), []byte("payload"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	if _, err := a.Open(key, nonce, []byte("aad-two"), ct); err != ErrDecryptionFailed {
		t.Fatalf("Open with mismatched AAD: err = %v, want ErrDecryptionFailed", err)
	}
}

func TestKeyLengthValidation(t *testing.T) {
	a, err := New(AlgAESGCM128)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	shortKey := make([]byte, 12)
	nonce := make([]byte, a.NonceLen())
	if _, err := a.Seal(shortKey, nonce, nil, []byte("x")); err != ErrKeyLength {
		t.Fatalf("Seal with 12-byte key: err = %v, want ErrKeyLength", err)
	}
}

func TestUnknownAlgorithm(t *testing.T) {
	if _, err := New(AlgID(99)); err != ErrUnknownAlgorithm {
		t.Fatalf("New(99): err = %v, want ErrUnknownAlgorithm", err)
	}
}
