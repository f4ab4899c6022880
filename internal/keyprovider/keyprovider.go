// Package keyprovider resolves a device's active symmetric key material
// for the envelope codec, implementing spec.md §4.3's key_for operation
// against internal/catalog.
package keyprovider

import (
	"context"
	"errors"

	"github.com/fleetfw/backend/internal/aead"
	"github.com/fleetfw/backend/internal/catalog"
	"github.com/fleetfw/backend/internal/pkg/instrument"
)

// Failure-domain errors (spec.md §4.3).
var (
	ErrKeyNotFound = errors.New("keyprovider: no active key for device")
	ErrKeyMismatch = errors.New("keyprovider: key type or algorithm mismatch")
)

// Provider resolves (device_id, algorithm) to key material against the
// catalog. It implements envelope.KeyResolver.
type Provider struct {
	catalog *catalog.Catalog
	ins     instrument.Instrumentation
}

// New constructs a Provider over cat.
func New(cat *catalog.Catalog, ins instrument.Instrumentation) *Provider {
	return &Provider{catalog: cat, ins: ins}
}

// algorithmFor maps an aead.AlgID to the catalog's stored Algorithm name.
func algorithmFor(id aead.AlgID) (catalog.Algorithm, bool) {
	switch id {
	case aead.AlgAESGCM128:
		return catalog.AlgorithmAESGCM128, true
	case aead.AlgAsconAEAD128:
		return catalog.AlgorithmAsconAEAD128, true
	default:
		return "", false
	}
}

// ResolveKey implements key_for(device_id, requested_key_type) →
// key_bytes (spec.md §4.3). It never returns key material alongside a
// descriptive error: KeyNotFound/KeyMismatch carry no key bytes, so a
// caller that logs err cannot leak them.
func (p *Provider) ResolveKey(ctx context.Context, deviceID uint32, alg aead.AlgID) ([]byte, error) {
	wantAlgorithm, known := algorithmFor(alg)
	if !known {
		return nil, ErrKeyMismatch
	}

	active, err := p.catalog.GetActiveDeviceKey(ctx, deviceID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}

	if active.KeyType != catalog.KeyTypeLightweight {
		return nil, ErrKeyMismatch
	}

	details, err := p.catalog.GetLightweightKeyDetails(ctx, active.ID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrKeyMismatch
		}
		return nil, err
	}

	if details.Algorithm != wantAlgorithm {
		aead.Zero(details.Key)
		return nil, ErrKeyMismatch
	}

	return details.Key, nil
}
