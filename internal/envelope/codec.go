package envelope

import (
	"context"
	"crypto/rand"

	"github.com/fleetfw/backend/internal/aead"
)

// KeyResolver resolves the symmetric key material for a device under a
// specific algorithm. Implemented by internal/keyprovider.
type KeyResolver interface {
	ResolveKey(ctx context.Context, deviceID uint32, alg aead.AlgID) ([]byte, error)
}

// Decoded is the result of a successful Decode: the device operation
// plus the key material that resolved it, so the caller can encrypt the
// matching response without a second catalog lookup (spec.md §4.3).
type Decoded struct {
	DeviceID  uint32
	Opcode    uint16
	Plaintext []byte
	Algorithm aead.AlgID

	// Key is the resolved symmetric key. The caller owns this buffer and
	// MUST call aead.Zero(Key) once it is done with both decrypting the
	// request and encrypting the response.
	Key []byte
}

// Decode parses, validates, and decrypts a single envelope. Any
// structural, policy, or cryptographic failure returns a non-nil error;
// per spec.md §4.7 the datagram service treats every Decode failure the
// same way (silent drop), so callers should not branch on error identity
// except for tests.
func Decode(ctx context.Context, resolver KeyResolver, msg []byte) (*Decoded, error) {
	protectedHeaderBytes, ciphertext, err := decodeEnvelope(msg)
	if err != nil {
		return nil, err
	}

	header, err := decodeProtectedHeader(protectedHeaderBytes)
	if err != nil {
		return nil, err
	}

	alg, err := aead.New(aead.AlgID(header.algorithmTag))
	if err != nil {
		return nil, ErrUnknownAlgorithm
	}

	if len(header.nonce) != alg.NonceLen() {
		return nil, ErrInvalidMessage
	}
	if len(ciphertext) < alg.TagLen() {
		return nil, ErrInvalidMessage
	}

	key, err := resolver.ResolveKey(ctx, header.deviceID, alg.AlgID())
	if err != nil {
		return nil, ErrDecryptionError
	}

	plaintext, err := alg.Open(key, header.nonce, computeAAD(protectedHeaderBytes), ciphertext)
	if err != nil {
		aead.Zero(key)
		return nil, ErrDecryptionError
	}

	return &Decoded{
		DeviceID:  header.deviceID,
		Opcode:    header.opcode,
		Plaintext: plaintext,
		Algorithm: alg.AlgID(),
		Key:       key,
	}, nil
}

// Encode builds a fresh envelope for deviceID/opcode/plaintext, encrypted
// under algorithm with key. key is the caller's responsibility to zero
// once no longer needed (typically after both Decode and this Encode
// call complete for a single request).
func Encode(algorithm aead.AlgID, key []byte, deviceID uint32, opcode uint16, plaintext []byte) ([]byte, error) {
	alg, err := aead.New(algorithm)
	if err != nil {
		return nil, ErrUnknownAlgorithm
	}

	nonce := make([]byte, alg.NonceLen())
	if _, err := rand.Read(nonce); err != nil {
		return nil, ErrRandomnessFailed
	}

	header := protectedHeader{
		algorithmTag: uint16(algorithm),
		deviceID:     deviceID,
		opcode:       opcode,
		nonce:        nonce,
	}
	protectedHeaderBytes := encodeProtectedHeader(header)

	ciphertext, err := alg.Seal(key, nonce, computeAAD(protectedHeaderBytes), plaintext)
	if err != nil {
		return nil, ErrEncryptionError
	}

	return encodeEnvelope(protectedHeaderBytes, ciphertext), nil
}
