package dispatcher

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fxamacker/cbor/v2"

	"github.com/fleetfw/backend/internal/blobstore"
	"github.com/fleetfw/backend/internal/catalog"
)

// Dispatcher routes a decoded envelope's opcode to its handler and
// returns the response opcode/plaintext pair ready for re-encryption
// under the same key (spec.md §4.3, §4.4).
type Dispatcher struct {
	catalog *catalog.Catalog
	blobs   *blobstore.Store
}

// New constructs a Dispatcher over the given catalog and blob store.
func New(cat *catalog.Catalog, blobs *blobstore.Store) *Dispatcher {
	return &Dispatcher{catalog: cat, blobs: blobs}
}

// Dispatch runs the operation named by opcode against deviceID (the
// envelope's device_id, authoritative over any redundant field in the
// request payload). Every failure path is absorbed into an Error
// plaintext; Dispatch itself never returns an error, because §4.7
// requires the datagram service to answer in-protocol even on handler
// failure.
func (d *Dispatcher) Dispatch(ctx context.Context, deviceID uint32, opcode uint16, plaintext []byte) (respOpcode uint16, respPlaintext []byte) {
	switch Opcode(opcode) {
	case OpGetDeviceInfoRequest:
		return d.getDeviceInfo(ctx, deviceID, plaintext)
	case OpSetDeviceInfoRequest:
		return d.setDeviceInfo(ctx, deviceID, plaintext)
	case OpGetFirmwareRequest:
		return d.getFirmware(ctx, plaintext)
	default:
		return uint16(OpError), encodeError(InvalidOperation)
	}
}

func (d *Dispatcher) getDeviceInfo(ctx context.Context, deviceID uint32, plaintext []byte) (uint16, []byte) {
	var req getDeviceInfoRequest
	if err := cbor.Unmarshal(plaintext, &req); err != nil {
		return uint16(OpError), encodeError(DecodingError)
	}

	dev, err := d.catalog.GetDevice(ctx, deviceID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return uint16(OpError), encodeError(DeviceNotFound)
		}
		slog.ErrorContext(ctx, "getDeviceInfo: catalog lookup failed", "device_id", deviceID, "error", err)
		return uint16(OpError), encodeError(InternalError)
	}

	resp := getDeviceInfoResponse{
		Firmware:        dev.Firmware,
		DesiredFirmware: dev.DesiredFirmware,
		Status:          uint8(dev.Status),
	}
	b, err := cbor.Marshal(resp)
	if err != nil {
		return uint16(OpError), encodeError(EncodingError)
	}
	return uint16(OpGetDeviceInfoResponse), b
}

func (d *Dispatcher) setDeviceInfo(ctx context.Context, deviceID uint32, plaintext []byte) (uint16, []byte) {
	var req setDeviceInfoRequest
	if err := cbor.Unmarshal(plaintext, &req); err != nil {
		return uint16(OpError), encodeError(DecodingError)
	}

	if req.Status > uint8(catalog.DeviceStatusMaintenance) {
		return uint16(OpError), encodeError(InvalidOperation)
	}

	dev, err := d.catalog.UpdateDeviceInfo(ctx, deviceID, req.Firmware, catalog.DeviceStatus(req.Status))
	if err != nil {
		// spec.md §4.4: FK violations and NotFound both surface as
		// InternalError here, matching the source's current (unfixed)
		// behavior rather than differentiating DeviceNotFound.
		slog.ErrorContext(ctx, "setDeviceInfo: catalog update failed", "device_id", deviceID, "error", err)
		return uint16(OpError), encodeError(InternalError)
	}
	if dev.Firmware == nil {
		return uint16(OpError), encodeError(InternalError)
	}

	resp := setDeviceInfoResponse{
		Firmware:        *dev.Firmware,
		DesiredFirmware: dev.DesiredFirmware,
		Status:          uint8(dev.Status),
	}
	b, err := cbor.Marshal(resp)
	if err != nil {
		return uint16(OpError), encodeError(EncodingError)
	}
	return uint16(OpSetDeviceInfoResponse), b
}

func (d *Dispatcher) getFirmware(ctx context.Context, plaintext []byte) (uint16, []byte) {
	var req getFirmwareRequest
	if err := cbor.Unmarshal(plaintext, &req); err != nil {
		return uint16(OpError), encodeError(DecodingError)
	}

	if req.Length > blobstore.MaxReadLength {
		return uint16(OpError), encodeError(InvalidOperation)
	}

	fw, err := d.catalog.GetFirmware(ctx, req.FirmwareID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return uint16(OpError), encodeError(FirmwareNotFound)
		}
		slog.ErrorContext(ctx, "getFirmware: catalog lookup failed", "firmware_id", req.FirmwareID, "error", err)
		return uint16(OpError), encodeError(InternalError)
	}

	data, err := d.blobs.Read(ctx, fw, req.Offset, req.Length)
	if err != nil {
		slog.ErrorContext(ctx, "getFirmware: blob read failed", "firmware_id", req.FirmwareID, "error", err)
		return uint16(OpError), encodeError(InternalError)
	}

	resp := getFirmwareResponse{
		FirmwareID: req.FirmwareID,
		Offset:     req.Offset,
		Length:     uint32(len(data)),
		Data:       data,
	}
	b, err := cbor.Marshal(resp)
	if err != nil {
		return uint16(OpError), encodeError(EncodingError)
	}
	return uint16(OpGetFirmwareResponse), b
}
