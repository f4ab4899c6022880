package envelope

import (
	"bytes"
	"context"
	"testing"

	"github.com/fleetfw/backend/internal/aead"
)

type fakeResolver struct {
	key []byte
	err error
}

func (f fakeResolver) ResolveKey(_ context.Context, _ uint32, _ aead.AlgID) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	cp := make([]byte, len(f.key))
	copy(cp, f.key)
	return cp, nil
}

func TestRoundTripAESGCM128(t *testing.T) {
	key := bytes.Repeat([]byte{0x00}, 16)
	resolver := fakeResolver{key: key}

	plaintext := []byte{0x81, 0x18, 0x2a} // array(1, 42) in CBOR, opcode 6 payload shape
	msg, err := Encode(aead.AlgAESGCM128, key, 42, 6, plaintext)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(context.Background(), resolver, msg)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.DeviceID != 42 || got.Opcode != 6 {
		t.Fatalf("Decode = (device=%d,opcode=%d), want (42,6)", got.DeviceID, got.Opcode)
	}
	if !bytes.Equal(got.Plaintext, plaintext) {
		t.Fatalf("Decode plaintext = %x, want %x", got.Plaintext, plaintext)
	}
	if got.Algorithm != aead.AlgAESGCM128 {
		t.Fatalf("Decode algorithm = %d, want %d", got.Algorithm, aead.AlgAESGCM128)
	}
}

func TestRoundTripAsconAEAD128(t *testing.T) {
	key := bytes.Repeat([]byte{0x07}, 16)
	resolver := fakeResolver{key: key}

	plaintext := []byte("status update")
	msg, err := Encode(aead.AlgAsconAEAD128, key, 7, 8, plaintext)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(context.Background(), resolver, msg)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got.Plaintext, plaintext) {
		t.Fatalf("Decode plaintext = %q, want %q", got.Plaintext, plaintext)
	}
}

func TestDecodeRejectsFlippedProtectedHeaderByte(t *testing.T) {
	key := bytes.Repeat([]byte{0x01}, 16)
	resolver := fakeResolver{key: key}

	msg, err := Encode(aead.AlgAESGCM128, key, 1, 6, []byte("x"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// Flip msg[2]: after the outer array byte (0x83) and the byte-string
	// head (0x58), this is the length of the 47-byte protected header
	// (0x2f), so the tampered envelope no longer parses.
	tampered := append([]byte(nil), msg...)
	flipped := false
	for i := 2; i < len(tampered) && !flipped; i++ {
		if tampered[i] != 0xff {
			tampered[i] ^= 0xff
			flipped = true
		}
	}

	if _, err := Decode(context.Background(), resolver, tampered); err == nil {
		t.Fatal("Decode with tampered header: want error, got nil")
	}
}

func TestDecodeRejectsFlippedCiphertextByte(t *testing.T) {
	key := bytes.Repeat([]byte{0x02}, 16)
	resolver := fakeResolver{key: key}

	msg, err := Encode(aead.AlgAESGCM128, key, 2, 6, []byte("payload-bytes"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	tampered := append([]byte(nil), msg...)
	tampered[len(tampered)-1] ^= 0xff

	if _, err := Decode(context.Background(), resolver, tampered); err != ErrDecryptionError {
		t.Fatalf("Decode with tampered ciphertext: err = %v, want ErrDecryptionError", err)
	}
}

func TestEncodeInjectiveOverNonce(t *testing.T) {
	key := bytes.Repeat([]byte{0x03}, 16)

	alg, _ := aead.New(aead.AlgAESGCM128)
	nonce := bytes.Repeat([]byte{0x09}, alg.NonceLen())

	header := protectedHeader{algorithmTag: uint16(aead.AlgAESGCM128), deviceID: 9, opcode: 6, nonce: nonce}
	phBytes := encodeProtectedHeader(header)

	pt := []byte("same plaintext")
	ct1, err := alg.Seal(key, nonce, computeAAD(phBytes), pt)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	ct2, err := alg.Seal(key, nonce, computeAAD(phBytes), pt)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if !bytes.Equal(ct1, ct2) {
		t.Fatal("equal nonce+inputs produced different ciphertexts")
	}
}

func TestDecodeUnknownCriticalHeader(t *testing.T) {
	key := bytes.Repeat([]byte{0x04}, 16)
	resolver := fakeResolver{key: key}

	alg, _ := aead.New(aead.AlgAESGCM128)
	nonce := bytes.Repeat([]byte{0x05}, alg.NonceLen())

	buf := make([]byte, 0, 64)
	buf = appendMapHeader(buf, 5)
	buf = appendU16Forced(buf, headerAlgorithm)
	buf = appendU16Forced(buf, uint16(aead.AlgAESGCM128))
	buf = appendU16Forced(buf, headerDeviceID)
	buf = appendU32Forced(buf, 11)
	buf = appendU16Forced(buf, headerOpcode)
	buf = appendU16Forced(buf, 6)
	buf = appendU16Forced(buf, headerNonce)
	buf = appendBytes(buf, nonce)
	buf = appendU16Forced(buf, headerCritical)
	buf = appendArrayHeader(buf, 3)
	buf = appendU16Forced(buf, headerDeviceID)
	buf = appendU16Forced(buf, headerOpcode)
	buf = appendU16Forced(buf, 42) // unknown critical header

	ct, err := alg.Seal(key, nonce, computeAAD(buf), []byte("x"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	msg := encodeEnvelope(buf, ct)

	if _, err := Decode(context.Background(), resolver, msg); err != ErrUnknownCriticalHeader {
		t.Fatalf("Decode: err = %v, want ErrUnknownCriticalHeader", err)
	}
}

func TestDecodeAcceptsIndefiniteLengthHeaderMap(t *testing.T) {
	// Encode always writes a definite-length header map; this builds the
	// same header as an indefinite-length map (0xbf ... 0xff), which decode
	// must accept as well.
	key := bytes.Repeat([]byte{0x06}, 16)
	resolver := fakeResolver{key: key}

	alg, _ := aead.New(aead.AlgAESGCM128)
	nonce := bytes.Repeat([]byte{0x06}, alg.NonceLen())

	buf := make([]byte, 0, 64)
	buf = appendHeaderByte(buf, majorMap, 31) // indefinite-length map
	buf = appendU16Forced(buf, headerAlgorithm)
	buf = appendU16Forced(buf, uint16(aead.AlgAESGCM128))
	buf = appendU16Forced(buf, headerDeviceID)
	buf = appendU32Forced(buf, 99)
	buf = appendU16Forced(buf, headerOpcode)
	buf = appendU16Forced(buf, 6)
	buf = appendU16Forced(buf, headerNonce)
	buf = appendBytes(buf, nonce)
	buf = appendU16Forced(buf, headerCritical)
	buf = appendArrayHeader(buf, 2)
	buf = appendU16Forced(buf, headerDeviceID)
	buf = appendU16Forced(buf, headerOpcode)
	buf = append(buf, 0xff) // break

	ct, err := alg.Seal(key, nonce, computeAAD(buf), []byte("ok"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	msg := encodeEnvelope(buf, ct)

	got, err := Decode(context.Background(), resolver, msg)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.DeviceID != 99 {
		t.Fatalf("DeviceID = %d, want 99", got.DeviceID)
	}
}
