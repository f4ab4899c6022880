package envelope

// Protected header tags, fixed by the wire format (spec.md §6.1).
const (
	headerAlgorithm = 1
	headerCritical  = 2
	headerNonce     = 5
	headerDeviceID  = 8608
	headerOpcode    = 8633
)

// criticalHeaders is the fixed critical-header set an encoder emits.
var criticalHeaders = [2]uint16{headerDeviceID, headerOpcode}

func isKnownHeaderKey(k uint64) bool {
	switch k {
	case headerAlgorithm, headerCritical, headerNonce, headerDeviceID, headerOpcode:
		return true
	default:
		return false
	}
}

func isKnownCriticalEntry(v uint16) bool {
	return v == headerDeviceID || v == headerOpcode
}

// protectedHeader is the parsed, validated form of the five-entry map.
type protectedHeader struct {
	algorithmTag uint16
	deviceID     uint32
	opcode       uint16
	nonce        []byte
}
