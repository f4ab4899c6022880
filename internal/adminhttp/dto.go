// Package adminhttp is the administrative HTTP surface (SPEC_FULL §4.8):
// operator-facing CRUD over devices, device types, firmware, and keys,
// fronting the Catalog, Blob Store, and Key Lifecycle Manager.
package adminhttp

import "github.com/fleetfw/backend/internal/catalog"

type createDeviceRequest struct {
	Name            string `json:"name" validate:"required,max=100"`
	DeviceTypeID    uint32 `json:"device_type_id" validate:"required"`
	DesiredFirmware uint32 `json:"desired_firmware" validate:"required"`
}

type updateDeviceRequest struct {
	Firmware *uint32 `json:"firmware"`
	Status   uint8   `json:"status" validate:"lte=2"`
}

type deviceResponse struct {
	ID              uint32  `json:"id"`
	Name            string  `json:"name"`
	DeviceTypeID    uint32  `json:"device_type_id"`
	Firmware        *uint32 `json:"firmware"`
	DesiredFirmware uint32  `json:"desired_firmware"`
	Status          uint8   `json:"status"`
}

func deviceToResponse(d catalog.Device) deviceResponse {
	return deviceResponse{
		ID:              d.ID,
		Name:            d.Name,
		DeviceTypeID:    d.DeviceTypeID,
		Firmware:        d.Firmware,
		DesiredFirmware: d.DesiredFirmware,
		Status:          uint8(d.Status),
	}
}

type createDeviceTypeRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type deviceTypeResponse struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
}

type firmwareResponse struct {
	ID      uint32 `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version"`
	FileID  string `json:"file_id"`
	Size    int64  `json:"size"`
	SHA256  string `json:"sha256"`
}

func firmwareToResponse(f catalog.Firmware) firmwareResponse {
	return firmwareResponse{ID: f.ID, Name: f.Name, Version: f.Version, FileID: f.FileID, Size: f.Size, SHA256: f.SHA256}
}

type createDeviceKeyRequest struct {
	KeyType   string `json:"key_type" validate:"required,oneof=LIGHTWEIGHT"`
	Algorithm string `json:"algorithm" validate:"required,oneof=AesGcm128 AsconAead128"`
	Key       []byte `json:"key" validate:"required"`
}

type deviceKeyResponse struct {
	ID       uint32 `json:"id"`
	DeviceID uint32 `json:"device_id"`
	KeyType  string `json:"key_type"`
	Status   string `json:"status"`
}

func deviceKeyToResponse(k catalog.DeviceKey) deviceKeyResponse {
	return deviceKeyResponse{ID: k.ID, DeviceID: k.DeviceID, KeyType: string(k.KeyType), Status: string(k.Status)}
}
