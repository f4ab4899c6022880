// Package keylifecycle implements the Key Lifecycle Manager (spec.md
// §4.5): creation, deletion, and ACTIVE/NEXT promotion of a device's
// DeviceKey rows, every transition serialized behind a device-scoped
// Postgres advisory lock.
package keylifecycle

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/fleetfw/backend/internal/aead"
	"github.com/fleetfw/backend/internal/catalog"
)

// Failure-domain errors (spec.md §4.5).
var (
	ErrConflict       = errors.New("keylifecycle: conflicting key state")
	ErrKeyLengthWrong = errors.New("keylifecycle: key length does not match algorithm")
)

// Manager mediates DeviceKey lifecycle transitions.
type Manager struct {
	catalog *catalog.Catalog
}

// New constructs a Manager over cat.
func New(cat *catalog.Catalog) *Manager {
	return &Manager{catalog: cat}
}

func algorithmOf(alg catalog.Algorithm) (aead.AlgID, bool) {
	switch alg {
	case catalog.AlgorithmAESGCM128:
		return aead.AlgAESGCM128, true
	case catalog.AlgorithmAsconAEAD128:
		return aead.AlgAsconAEAD128, true
	default:
		return 0, false
	}
}

// CreateLightweightKey provisions a new LIGHTWEIGHT key for deviceID
// under algorithm alg with raw key bytes, following spec.md §4.5's
// five-step sequence under a device-scoped lock. key is zeroed by the
// caller's responsibility once this returns; the catalog stores its own
// copy.
func (m *Manager) CreateLightweightKey(ctx context.Context, deviceID uint32, alg catalog.Algorithm, key []byte) (created catalog.DeviceKey, err error) {
	algID, known := algorithmOf(alg)
	if !known {
		return catalog.DeviceKey{}, ErrKeyLengthWrong
	}
	a, aerr := aead.New(algID)
	if aerr != nil {
		return catalog.DeviceKey{}, ErrKeyLengthWrong
	}
	if len(key) != a.KeyLen() {
		return catalog.DeviceKey{}, ErrKeyLengthWrong
	}

	lockErr := m.catalog.WithDeviceLock(ctx, deviceID, func(ctx context.Context, tx pgx.Tx) error {
		existing, lerr := m.catalog.ListDeviceKeysTx(ctx, tx, deviceID)
		if lerr != nil {
			return lerr
		}

		status := catalog.KeyStatusActive
		for _, k := range existing {
			if k.Status == catalog.KeyStatusNext {
				return ErrConflict
			}
			if k.Status == catalog.KeyStatusActive {
				status = catalog.KeyStatusNext
			}
		}

		dk, cerr := m.catalog.CreateDeviceKeyTx(ctx, tx, catalog.DeviceKey{
			DeviceID: deviceID,
			KeyType:  catalog.KeyTypeLightweight,
			Status:   status,
		})
		if cerr != nil {
			return cerr
		}

		keyCopy := make([]byte, len(key))
		copy(keyCopy, key)
		if derr := m.catalog.CreateLightweightKeyDetailsTx(ctx, tx, catalog.LightweightKeyDetails{
			DeviceKeyID: dk.ID,
			Algorithm:   alg,
			Key:         keyCopy,
		}); derr != nil {
			return derr
		}

		created = dk
		return nil
	})
	if lockErr != nil {
		return catalog.DeviceKey{}, lockErr
	}

	return created, nil
}

// Delete removes a NEXT or EXPIRED DeviceKey. ACTIVE keys cannot be
// deleted (spec.md §4.5).
func (m *Manager) Delete(ctx context.Context, deviceID, keyID uint32) error {
	return m.catalog.WithDeviceLock(ctx, deviceID, func(ctx context.Context, tx pgx.Tx) error {
		key, err := m.catalog.GetDeviceKeyTx(ctx, tx, keyID)
		if err != nil {
			return err
		}
		if key.DeviceID != deviceID {
			return catalog.ErrNotFound
		}
		if key.Status == catalog.KeyStatusActive {
			return ErrConflict
		}
		return m.catalog.DeleteDeviceKeyTx(ctx, tx, keyID)
	})
}

// Promote performs the only permitted rotation step (spec.md §4.5,
// §9's resolved Open Question): the device's NEXT key becomes ACTIVE
// and its prior ACTIVE key (if any) becomes EXPIRED. The trigger for
// calling this is an explicit admin action; spec.md leaves automatic
// triggers (time, first-use proof) unspecified.
func (m *Manager) Promote(ctx context.Context, deviceID, nextKeyID uint32) error {
	return m.catalog.WithDeviceLock(ctx, deviceID, func(ctx context.Context, tx pgx.Tx) error {
		next, err := m.catalog.GetDeviceKeyTx(ctx, tx, nextKeyID)
		if err != nil {
			return err
		}
		if next.DeviceID != deviceID || next.Status != catalog.KeyStatusNext {
			return ErrConflict
		}

		existing, err := m.catalog.ListDeviceKeysTx(ctx, tx, deviceID)
		if err != nil {
			return err
		}
		for _, k := range existing {
			if k.Status == catalog.KeyStatusActive {
				if uerr := m.catalog.UpdateDeviceKeyStatusTx(ctx, tx, k.ID, catalog.KeyStatusExpired); uerr != nil {
					return uerr
				}
			}
		}

		return m.catalog.UpdateDeviceKeyStatusTx(ctx, tx, nextKeyID, catalog.KeyStatusActive)
	})
}
