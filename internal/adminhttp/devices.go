package adminhttp

import (
	"errors"

	"github.com/fleetfw/backend/internal/catalog"
	"github.com/fleetfw/backend/internal/pkg/goerror"
	"github.com/fleetfw/backend/internal/pkg/router"
	"github.com/fleetfw/backend/internal/pkg/validator"
)

func (h *Handlers) createDevice(r *router.Request) (any, error) {
	var req createDeviceRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}
	if err := h.validator.Validate(req); err != nil {
		return nil, mapValidationError(err)
	}

	dev, err := h.catalog.CreateDevice(r.Context(), catalog.Device{
		Name:            req.Name,
		DeviceTypeID:    req.DeviceTypeID,
		DesiredFirmware: req.DesiredFirmware,
		Status:          catalog.DeviceStatusActive,
	})
	if err != nil {
		return nil, mapCatalogError(err)
	}

	h.publishDeviceEvent(r.Context(), "device.created", dev)

	return deviceToResponse(dev), nil
}

func (h *Handlers) getDevice(r *router.Request) (any, error) {
	id, err := paramUint32(r, "id")
	if err != nil {
		return nil, err
	}

	dev, err := h.catalog.GetDevice(r.Context(), id)
	if err != nil {
		return nil, mapCatalogError(err)
	}

	return deviceToResponse(dev), nil
}

func (h *Handlers) updateDevice(r *router.Request) (any, error) {
	id, err := paramUint32(r, "id")
	if err != nil {
		return nil, err
	}

	var req updateDeviceRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}
	if err := h.validator.Validate(req); err != nil {
		return nil, mapValidationError(err)
	}
	if req.Firmware == nil {
		return nil, goerror.NewInvalidInput(nil, "firmware", "firmware is required")
	}

	dev, err := h.catalog.UpdateDeviceInfo(r.Context(), id, *req.Firmware, catalog.DeviceStatus(req.Status))
	if err != nil {
		return nil, mapCatalogError(err)
	}

	h.publishDeviceEvent(r.Context(), "device.status_changed", dev)

	return deviceToResponse(dev), nil
}

func (h *Handlers) deleteDevice(r *router.Request) (any, error) {
	id, err := paramUint32(r, "id")
	if err != nil {
		return nil, err
	}
	if err := h.catalog.DeleteDevice(r.Context(), id); err != nil {
		return nil, mapCatalogError(err)
	}
	return nil, nil
}

func (h *Handlers) listDevices(r *router.Request) (any, error) {
	devices, err := h.catalog.ListDevices(r.Context())
	if err != nil {
		return nil, mapCatalogError(err)
	}

	out := make([]deviceResponse, 0, len(devices))
	for _, d := range devices {
		out = append(out, deviceToResponse(d))
	}
	return out, nil
}

// mapCatalogError translates catalog sentinels into goerror responses.
func mapCatalogError(err error) error {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return goerror.NewBusiness("resource not found", goerror.CodeNotFound)
	case errors.Is(err, catalog.ErrConflict):
		return goerror.NewBusiness("resource already exists", goerror.CodeConflict)
	default:
		return goerror.NewServer(err)
	}
}

func mapValidationError(err error) error {
	var verr validator.V10ValidationError
	if errors.As(err, &verr) {
		return verr
	}
	return goerror.NewInvalidInput(err)
}
