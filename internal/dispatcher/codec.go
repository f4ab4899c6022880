package dispatcher

import (
	"github.com/fxamacker/cbor/v2"
)

// Each wire message is a tagged-value array: cbor's "toarray" struct tag
// serializes/parses the fields positionally instead of as a map, which is
// what spec.md's array(N, ...) shapes describe.

type errorMsg struct {
	_    struct{} `cbor:",toarray"`
	Code uint16
}

type getDeviceInfoRequest struct {
	_        struct{} `cbor:",toarray"`
	DeviceID uint32
}

type getDeviceInfoResponse struct {
	_               struct{} `cbor:",toarray"`
	Firmware        *uint32
	DesiredFirmware uint32
	Status          uint8
}

type setDeviceInfoRequest struct {
	_        struct{} `cbor:",toarray"`
	Firmware uint32
	Status   uint8
}

type setDeviceInfoResponse struct {
	_               struct{} `cbor:",toarray"`
	Firmware        uint32
	DesiredFirmware uint32
	Status          uint8
}

type getFirmwareRequest struct {
	_          struct{} `cbor:",toarray"`
	FirmwareID uint32
	Offset     uint32
	Length     uint32
}

type getFirmwareResponse struct {
	_          struct{} `cbor:",toarray"`
	FirmwareID uint32
	Offset     uint32
	Length     uint32
	Data       []byte
}

func encodeError(code ErrorCode) []byte {
	b, err := cbor.Marshal(errorMsg{Code: uint16(code)})
	if err != nil {
		// errorMsg is a fixed, marshalable shape; a failure here means the
		// CBOR library itself is broken, not a data problem.
		panic("dispatcher: failed to encode fixed-shape error message: " + err.Error())
	}
	return b
}
