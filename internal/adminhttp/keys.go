package adminhttp

import (
	"errors"

	"github.com/fleetfw/backend/internal/aead"
	"github.com/fleetfw/backend/internal/catalog"
	"github.com/fleetfw/backend/internal/keylifecycle"
	"github.com/fleetfw/backend/internal/pkg/goerror"
	"github.com/fleetfw/backend/internal/pkg/router"
)

func (h *Handlers) createDeviceKey(r *router.Request) (any, error) {
	deviceID, err := paramUint32(r, "id")
	if err != nil {
		return nil, err
	}

	var req createDeviceKeyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}
	defer aead.Zero(req.Key)
	if err := h.validator.Validate(req); err != nil {
		return nil, mapValidationError(err)
	}

	key, err := h.keys.CreateLightweightKey(r.Context(), deviceID, catalog.Algorithm(req.Algorithm), req.Key)
	if err != nil {
		return nil, mapKeylifecycleError(err)
	}

	return deviceKeyToResponse(key), nil
}

func (h *Handlers) listDeviceKeys(r *router.Request) (any, error) {
	deviceID, err := paramUint32(r, "id")
	if err != nil {
		return nil, err
	}

	keys, err := h.catalog.ListDeviceKeys(r.Context(), deviceID)
	if err != nil {
		return nil, mapCatalogError(err)
	}

	out := make([]deviceKeyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, deviceKeyToResponse(k))
	}
	return out, nil
}

func (h *Handlers) deleteDeviceKey(r *router.Request) (any, error) {
	deviceID, err := paramUint32(r, "id")
	if err != nil {
		return nil, err
	}
	keyID, err := paramUint32(r, "key_id")
	if err != nil {
		return nil, err
	}

	if err := h.keys.Delete(r.Context(), deviceID, keyID); err != nil {
		return nil, mapKeylifecycleError(err)
	}
	return nil, nil
}

// promoteDeviceKey resolves SPEC_FULL's Open Question on key rotation:
// promotion is an explicit admin action, never automatic (spec.md §4.5,
// §9).
func (h *Handlers) promoteDeviceKey(r *router.Request) (any, error) {
	deviceID, err := paramUint32(r, "id")
	if err != nil {
		return nil, err
	}
	keyID, err := paramUint32(r, "key_id")
	if err != nil {
		return nil, err
	}

	if err := h.keys.Promote(r.Context(), deviceID, keyID); err != nil {
		return nil, mapKeylifecycleError(err)
	}
	return nil, nil
}

func mapKeylifecycleError(err error) error {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return goerror.NewBusiness("device key not found", goerror.CodeNotFound)
	case errors.Is(err, keylifecycle.ErrConflict):
		return goerror.NewBusiness("device key is in a conflicting state", goerror.CodeConflict)
	case errors.Is(err, keylifecycle.ErrKeyLengthWrong):
		return goerror.NewInvalidInput(nil, "key", "key length does not match the selected algorithm")
	default:
		return goerror.NewServer(err)
	}
}
