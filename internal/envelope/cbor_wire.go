package envelope

// Minimal deterministic CBOR writer for the envelope's wire-exact parts.
//
// The protected header and AAD must serialize identically every time for
// a given input (the associated data is bound byte-for-byte into the
// authentication tag), so encode uses fixed-width integer encodings
// rather than a general-purpose marshaler's shortest-form output. Decode
// uses github.com/fxamacker/cbor/v2, which tolerates either form — the
// wire format only requires encoders to be stable, not canonical.

const (
	majorUnsigned = 0
	majorBytes    = 2
	majorText     = 3
	majorArray    = 4
	majorMap      = 5
)

func appendHeaderByte(buf []byte, major byte, additional byte) []byte {
	return append(buf, (major<<5)|additional)
}

// appendUintMinimal appends a CBOR unsigned integer using the shortest
// valid encoding, used for container (array/map) length prefixes and
// byte/text string length prefixes.
func appendUintMinimal(buf []byte, major byte, v uint64) []byte {
	switch {
	case v < 24:
		return appendHeaderByte(buf, major, byte(v))
	case v <= 0xff:
		buf = appendHeaderByte(buf, major, 24)
		return append(buf, byte(v))
	case v <= 0xffff:
		buf = appendHeaderByte(buf, major, 25)
		return append(buf, byte(v>>8), byte(v))
	case v <= 0xffffffff:
		buf = appendHeaderByte(buf, major, 26)
		return append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	default:
		buf = appendHeaderByte(buf, major, 27)
		return append(buf,
			byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
			byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
}

// appendU16Forced appends v as a CBOR unsigned integer always using the
// 2-byte (additional info 25) width, regardless of whether a shorter
// encoding exists — mirroring the reference encoder's explicit u16 field.
func appendU16Forced(buf []byte, v uint16) []byte {
	buf = appendHeaderByte(buf, majorUnsigned, 25)
	return append(buf, byte(v>>8), byte(v))
}

// appendU32Forced appends v as a CBOR unsigned integer always using the
// 4-byte (additional info 26) width.
func appendU32Forced(buf []byte, v uint32) []byte {
	buf = appendHeaderByte(buf, majorUnsigned, 26)
	return append(buf, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func appendArrayHeader(buf []byte, n int) []byte {
	return appendUintMinimal(buf, majorArray, uint64(n))
}

func appendMapHeader(buf []byte, n int) []byte {
	return appendUintMinimal(buf, majorMap, uint64(n))
}

func appendBytes(buf []byte, b []byte) []byte {
	buf = appendUintMinimal(buf, majorBytes, uint64(len(b)))
	return append(buf, b...)
}

func appendText(buf []byte, s string) []byte {
	buf = appendUintMinimal(buf, majorText, uint64(len(s)))
	return append(buf, s...)
}

// encodeProtectedHeader serializes the five-entry protected header map in
// the fixed order spec.md §6.1 specifies: algorithm, device_id, opcode,
// nonce, critical.
func encodeProtectedHeader(h protectedHeader) []byte {
	buf := make([]byte, 0, 64)
	buf = appendMapHeader(buf, 5)

	buf = appendU16Forced(buf, headerAlgorithm)
	buf = appendU16Forced(buf, h.algorithmTag)

	buf = appendU16Forced(buf, headerDeviceID)
	buf = appendU32Forced(buf, h.deviceID)

	buf = appendU16Forced(buf, headerOpcode)
	buf = appendU16Forced(buf, h.opcode)

	buf = appendU16Forced(buf, headerNonce)
	buf = appendBytes(buf, h.nonce)

	buf = appendU16Forced(buf, headerCritical)
	buf = appendArrayHeader(buf, 2)
	buf = appendU16Forced(buf, criticalHeaders[0])
	buf = appendU16Forced(buf, criticalHeaders[1])

	return buf
}

// encodeEnvelope serializes the outer 3-element array.
func encodeEnvelope(protectedHeaderBytes, ciphertext []byte) []byte {
	buf := make([]byte, 0, len(protectedHeaderBytes)+len(ciphertext)+16)
	buf = appendArrayHeader(buf, 3)
	buf = appendBytes(buf, protectedHeaderBytes)
	buf = appendMapHeader(buf, 0)
	buf = appendBytes(buf, ciphertext)
	return buf
}

// computeAAD serializes array(3, "Encrypt0", protected_header_bytes, bytes(0))
// exactly as spec.md §4.2 and the reference implementation define it.
func computeAAD(protectedHeaderBytes []byte) []byte {
	buf := make([]byte, 0, len(protectedHeaderBytes)+16)
	buf = appendArrayHeader(buf, 3)
	buf = appendText(buf, "Encrypt0")
	buf = appendBytes(buf, protectedHeaderBytes)
	buf = appendBytes(buf, nil)
	return buf
}
