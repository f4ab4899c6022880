// Package dispatcher demultiplexes a decoded envelope's opcode to a
// handler and encodes its tagged-value array response (spec.md §4.4).
package dispatcher

import "github.com/fxamacker/cbor/v2"

// Opcode identifies a device operation's plaintext shape.
type Opcode uint16

const (
	OpError                 Opcode = 1
	OpGetDeviceInfoRequest  Opcode = 6
	OpGetDeviceInfoResponse Opcode = 7
	OpSetDeviceInfoRequest  Opcode = 8
	OpSetDeviceInfoResponse Opcode = 9
	OpGetFirmwareRequest    Opcode = 10
	OpGetFirmwareResponse   Opcode = 11
)

// ErrorCode is the closed set of codes an Error operation may carry.
// Any value read off the wire outside this set decodes as
// InvalidOperation (spec.md §4.4).
type ErrorCode uint16

const (
	InvalidOperation ErrorCode = 0
	DecodingError    ErrorCode = 1
	EncodingError    ErrorCode = 2
	UnknownParameter ErrorCode = 3
	DeviceNotFound   ErrorCode = 4
	FirmwareNotFound ErrorCode = 5
	InternalError    ErrorCode = 6
)

// normalizeErrorCode maps any value outside the known set to
// InvalidOperation, matching the decode-time coercion rule.
func normalizeErrorCode(v uint16) ErrorCode {
	switch ErrorCode(v) {
	case InvalidOperation, DecodingError, EncodingError, UnknownParameter, DeviceNotFound, FirmwareNotFound, InternalError:
		return ErrorCode(v)
	default:
		return InvalidOperation
	}
}

// DecodeErrorCode parses an Error operation's plaintext payload into its
// normalized code, for clients and tests that need to interpret a
// dispatcher Error response.
func DecodeErrorCode(payload []byte) (ErrorCode, error) {
	var msg errorMsg
	if err := cbor.Unmarshal(payload, &msg); err != nil {
		return 0, err
	}
	return normalizeErrorCode(msg.Code), nil
}
