package adminhttp

import (
	"github.com/fleetfw/backend/internal/pkg/router"
)

func (h *Handlers) createDeviceType(r *router.Request) (any, error) {
	var req createDeviceTypeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}
	if err := h.validator.Validate(req); err != nil {
		return nil, mapValidationError(err)
	}

	dt, err := h.catalog.CreateDeviceType(r.Context(), req.Name)
	if err != nil {
		return nil, mapCatalogError(err)
	}

	return deviceTypeResponse{ID: dt.ID, Name: dt.Name}, nil
}

func (h *Handlers) getDeviceType(r *router.Request) (any, error) {
	id, err := paramUint32(r, "id")
	if err != nil {
		return nil, err
	}

	dt, err := h.catalog.GetDeviceType(r.Context(), id)
	if err != nil {
		return nil, mapCatalogError(err)
	}

	return deviceTypeResponse{ID: dt.ID, Name: dt.Name}, nil
}

func (h *Handlers) deleteDeviceType(r *router.Request) (any, error) {
	id, err := paramUint32(r, "id")
	if err != nil {
		return nil, err
	}
	if err := h.catalog.DeleteDeviceType(r.Context(), id); err != nil {
		return nil, mapCatalogError(err)
	}
	return nil, nil
}

func (h *Handlers) listDeviceTypes(r *router.Request) (any, error) {
	types, err := h.catalog.ListDeviceTypes(r.Context())
	if err != nil {
		return nil, mapCatalogError(err)
	}

	out := make([]deviceTypeResponse, 0, len(types))
	for _, dt := range types {
		out = append(out, deviceTypeResponse{ID: dt.ID, Name: dt.Name})
	}
	return out, nil
}

// linkDeviceTypeFirmware records that a firmware image is compatible
// with a device type (spec.md's supplemented DeviceTypeFirmware join).
func (h *Handlers) linkDeviceTypeFirmware(r *router.Request) (any, error) {
	deviceTypeID, err := paramUint32(r, "id")
	if err != nil {
		return nil, err
	}
	firmwareID, err := paramUint32(r, "firmware_id")
	if err != nil {
		return nil, err
	}

	if err := h.catalog.LinkDeviceTypeFirmware(r.Context(), deviceTypeID, firmwareID); err != nil {
		return nil, mapCatalogError(err)
	}
	return nil, nil
}

func (h *Handlers) unlinkDeviceTypeFirmware(r *router.Request) (any, error) {
	deviceTypeID, err := paramUint32(r, "id")
	if err != nil {
		return nil, err
	}
	firmwareID, err := paramUint32(r, "firmware_id")
	if err != nil {
		return nil, err
	}

	if err := h.catalog.UnlinkDeviceTypeFirmware(r.Context(), deviceTypeID, firmwareID); err != nil {
		return nil, mapCatalogError(err)
	}
	return nil, nil
}

func (h *Handlers) listCompatibleFirmware(r *router.Request) (any, error) {
	deviceTypeID, err := paramUint32(r, "id")
	if err != nil {
		return nil, err
	}

	firmware, err := h.catalog.ListCompatibleFirmware(r.Context(), deviceTypeID)
	if err != nil {
		return nil, mapCatalogError(err)
	}

	out := make([]firmwareResponse, 0, len(firmware))
	for _, f := range firmware {
		out = append(out, firmwareToResponse(f))
	}
	return out, nil
}
