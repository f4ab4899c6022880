// Package catalog persists the device/firmware/key data model spec.md §3
// defines, and the supplemental rows original_source/src/db/schema.rs
// carries that the distillation dropped (DeviceTypeFirmware,
// DeviceParameter, DeviceTypeParameter).
package catalog

import (
	"time"

	"github.com/fleetfw/backend/internal/pkg/valueobject"
)

// DeviceStatus is a Device's operational state, wire-coded as a uint8
// in GetDeviceInfo/SetDeviceInfo responses (spec.md §4.4).
type DeviceStatus uint8

const (
	DeviceStatusActive DeviceStatus = iota
	DeviceStatusInactive
	DeviceStatusMaintenance
)

// KeyType distinguishes the two families of device key.
type KeyType string

const (
	KeyTypeLightweight KeyType = "LIGHTWEIGHT"
	KeyTypeTLS         KeyType = "TLS"
)

// KeyStatus is a DeviceKey's lifecycle state (spec.md §4.5).
type KeyStatus string

const (
	KeyStatusActive  KeyStatus = "ACTIVE"
	KeyStatusNext    KeyStatus = "NEXT"
	KeyStatusExpired KeyStatus = "EXPIRED"
)

// Algorithm names a LightweightKeyDetails' AEAD algorithm.
type Algorithm string

const (
	AlgorithmAESGCM128    Algorithm = "AesGcm128"
	AlgorithmAsconAEAD128 Algorithm = "AsconAead128"
)

// Device is spec.md §3's Device entity.
type Device struct {
	ID              uint32
	Name            string
	DeviceTypeID    uint32
	Firmware        *uint32
	DesiredFirmware uint32
	Status          DeviceStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DeviceType is spec.md §3's DeviceType entity.
type DeviceType struct {
	ID   uint32
	Name string
}

// Firmware is spec.md §3's Firmware entity.
type Firmware struct {
	ID      uint32
	Name    string
	Version string
	FileID  string // opaque 36-byte identifier
	Size    int64
	SHA256  string // hex
}

// DeviceKey is spec.md §3's DeviceKey entity.
type DeviceKey struct {
	ID       uint32
	DeviceID uint32
	KeyType  KeyType
	Status   KeyStatus
}

// LightweightKeyDetails is spec.md §3's LightweightKeyDetails entity.
type LightweightKeyDetails struct {
	DeviceKeyID uint32
	Algorithm   Algorithm
	Key         []byte
}

// TlsKeyDetails is spec.md §3's TlsKeyDetails entity. The datagram core
// never resolves TLS keys; reserved for the admin plane.
type TlsKeyDetails struct {
	DeviceKeyID uint32
	ValidFrom   time.Time
	ValidTo     time.Time
}

// DeviceTypeFirmware is the supplemented join row naming which firmware
// images are compatible with a device type (original_source schema.rs).
type DeviceTypeFirmware struct {
	DeviceTypeID uint32
	FirmwareID   uint32
}

// DeviceParameter is the supplemented per-device settings bag: one row
// per device holding an arbitrary JSON object, overriding its
// DeviceType's defaults key-by-key.
type DeviceParameter struct {
	DeviceID   uint32
	Parameters valueobject.JSONMap
}

// DeviceTypeParameter is the supplemented per-device-type settings bag
// that DeviceParameter rows are layered over.
type DeviceTypeParameter struct {
	DeviceTypeID uint32
	Parameters   valueobject.JSONMap
}

// AlgorithmKeyLen returns the required raw key length for alg.
func AlgorithmKeyLen(alg Algorithm) int {
	switch alg {
	case AlgorithmAESGCM128:
		return 16
	case AlgorithmAsconAEAD128:
		return 16
	default:
		return 0
	}
}
