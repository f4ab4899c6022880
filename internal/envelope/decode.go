package envelope

import (
	"github.com/fxamacker/cbor/v2"
)

// decodeEnvelope splits the outer 3-element array into its protected
// header bytes, verified-empty unprotected map, and ciphertext bytes.
func decodeEnvelope(msg []byte) (protectedHeaderBytes, ciphertext []byte, err error) {
	var outer []cbor.RawMessage
	if err := cbor.Unmarshal(msg, &outer); err != nil {
		return nil, nil, ErrInvalidMessage
	}
	if len(outer) != 3 {
		return nil, nil, ErrInvalidMessage
	}

	if err := cbor.Unmarshal(outer[0], &protectedHeaderBytes); err != nil {
		return nil, nil, ErrInvalidMessage
	}

	var unprotected map[uint64]cbor.RawMessage
	if err := cbor.Unmarshal(outer[1], &unprotected); err != nil {
		return nil, nil, ErrInvalidMessage
	}
	if len(unprotected) != 0 {
		return nil, nil, ErrInvalidMessage
	}

	if err := cbor.Unmarshal(outer[2], &ciphertext); err != nil {
		return nil, nil, ErrInvalidMessage
	}

	return protectedHeaderBytes, ciphertext, nil
}

// decodeProtectedHeader parses and validates the five-entry protected
// header map, accepting both fixed- and indefinite-length containers
// (handled transparently by the underlying CBOR decoder) and any field
// ordering. Every field must be present; any map key outside the known
// set fails UnknownHeaderKey; any critical-header entry outside the
// known set fails UnknownCriticalHeader.
func decodeProtectedHeader(buf []byte) (protectedHeader, error) {
	var fields map[uint64]cbor.RawMessage
	if err := cbor.Unmarshal(buf, &fields); err != nil {
		return protectedHeader{}, ErrInvalidMessage
	}

	for k := range fields {
		if !isKnownHeaderKey(k) {
			return protectedHeader{}, ErrUnknownHeaderKey
		}
	}

	algRaw, hasAlg := fields[headerAlgorithm]
	deviceRaw, hasDevice := fields[headerDeviceID]
	opcodeRaw, hasOpcode := fields[headerOpcode]
	nonceRaw, hasNonce := fields[headerNonce]
	criticalRaw, hasCritical := fields[headerCritical]

	if !hasAlg || !hasDevice || !hasOpcode || !hasNonce || !hasCritical {
		return protectedHeader{}, ErrMissingHeaderField
	}

	var alg uint16
	if err := cbor.Unmarshal(algRaw, &alg); err != nil {
		return protectedHeader{}, ErrInvalidMessage
	}

	var deviceID uint32
	if err := cbor.Unmarshal(deviceRaw, &deviceID); err != nil {
		return protectedHeader{}, ErrInvalidMessage
	}

	var opcode uint16
	if err := cbor.Unmarshal(opcodeRaw, &opcode); err != nil {
		return protectedHeader{}, ErrInvalidMessage
	}

	var nonce []byte
	if err := cbor.Unmarshal(nonceRaw, &nonce); err != nil {
		return protectedHeader{}, ErrInvalidMessage
	}

	var critical []uint16
	if err := cbor.Unmarshal(criticalRaw, &critical); err != nil {
		return protectedHeader{}, ErrInvalidMessage
	}
	for _, c := range critical {
		if !isKnownCriticalEntry(c) {
			return protectedHeader{}, ErrUnknownCriticalHeader
		}
	}

	return protectedHeader{
		algorithmTag: alg,
		deviceID:     deviceID,
		opcode:       opcode,
		nonce:        nonce,
	}, nil
}
