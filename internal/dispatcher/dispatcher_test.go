package dispatcher

import (
	"context"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

func TestDispatchUnknownOpcodeProducesError(t *testing.T) {
	d := New(nil, nil)
	op, payload := d.Dispatch(context.Background(), 1, 999, nil)
	if op != uint16(OpError) {
		t.Fatalf("op = %d, want OpError", op)
	}
	code, err := DecodeErrorCode(payload)
	if err != nil {
		t.Fatalf("DecodeErrorCode: %v", err)
	}
	if code != InvalidOperation {
		t.Fatalf("code = %d, want InvalidOperation", code)
	}
}

func TestNormalizeErrorCodeKnown(t *testing.T) {
	for _, c := range []ErrorCode{InvalidOperation, DecodingError, EncodingError, UnknownParameter, DeviceNotFound, FirmwareNotFound, InternalError} {
		if got := normalizeErrorCode(uint16(c)); got != c {
			t.Fatalf("normalizeErrorCode(%d) = %d, want unchanged", c, got)
		}
	}
}

func TestNormalizeErrorCodeUnknownCoercesToInvalidOperation(t *testing.T) {
	if got := normalizeErrorCode(200); got != InvalidOperation {
		t.Fatalf("normalizeErrorCode(200) = %d, want InvalidOperation", got)
	}
}

func TestGetDeviceInfoRequestRoundTrip(t *testing.T) {
	req := getDeviceInfoRequest{DeviceID: 42}
	b, err := cbor.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got getDeviceInfoRequest
	if err := cbor.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.DeviceID != 42 {
		t.Fatalf("DeviceID = %d, want 42", got.DeviceID)
	}
}

func TestGetDeviceInfoResponseNullFirmware(t *testing.T) {
	resp := getDeviceInfoResponse{Firmware: nil, DesiredFirmware: 9, Status: 0}
	b, err := cbor.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got getDeviceInfoResponse
	if err := cbor.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Firmware != nil {
		t.Fatal("Firmware: want nil")
	}
	if got.DesiredFirmware != 9 || got.Status != 0 {
		t.Fatalf("got = %+v, want desired=9 status=0", got)
	}
}

func TestGetFirmwareResponseRoundTrip(t *testing.T) {
	resp := getFirmwareResponse{FirmwareID: 3, Offset: 900, Length: 100, Data: []byte("last-hundred-bytes-padding-data-to-fill-space-needed-here-now!")}
	b, err := cbor.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got getFirmwareResponse
	if err := cbor.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.FirmwareID != 3 || got.Offset != 900 || got.Length != 100 {
		t.Fatalf("got = %+v, want firmware=3 offset=900 length=100", got)
	}
	if string(got.Data) != string(resp.Data) {
		t.Fatal("Data mismatch after round trip")
	}
}
