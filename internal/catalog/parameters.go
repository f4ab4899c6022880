package catalog

import (
	"context"

	"github.com/fleetfw/backend/internal/pkg/valueobject"
)

// GetDeviceTypeParameters loads the default settings bag for a device type.
// A device type with no row yet returns an empty JSONMap, not ErrNotFound:
// the bag is optional, absence means "no overrides configured".
func (c *Catalog) GetDeviceTypeParameters(ctx context.Context, deviceTypeID uint32) (params valueobject.JSONMap, err error) {
	ctx, span := c.startSpan(ctx, "GetDeviceTypeParameters")
	defer func() { c.endSpan(span, err) }()

	row := c.conn.QueryRow(ctx, `SELECT parameters FROM device_type_parameter WHERE device_type_id = $1`, deviceTypeID)
	if err = row.Scan(&params); err != nil {
		if c.mapError(err) == ErrNotFound {
			return valueobject.JSONMap{}, nil
		}
		return nil, c.mapError(err)
	}
	return params, nil
}

// UpsertDeviceTypeParameters replaces a device type's settings bag.
func (c *Catalog) UpsertDeviceTypeParameters(ctx context.Context, deviceTypeID uint32, params valueobject.JSONMap) (err error) {
	ctx, span := c.startSpan(ctx, "UpsertDeviceTypeParameters")
	defer func() { c.endSpan(span, err) }()

	_, err = c.conn.Exec(ctx, `
		INSERT INTO device_type_parameter (device_type_id, parameters)
		VALUES ($1, $2)
		ON CONFLICT (device_type_id) DO UPDATE SET parameters = EXCLUDED.parameters`,
		deviceTypeID, params)
	if err != nil {
		return c.mapError(err)
	}
	return nil
}

// GetDeviceParameters loads a device's settings-bag overrides. Absence
// returns an empty JSONMap, matching GetDeviceTypeParameters.
func (c *Catalog) GetDeviceParameters(ctx context.Context, deviceID uint32) (params valueobject.JSONMap, err error) {
	ctx, span := c.startSpan(ctx, "GetDeviceParameters")
	defer func() { c.endSpan(span, err) }()

	row := c.conn.QueryRow(ctx, `SELECT parameters FROM device_parameter WHERE device_id = $1`, deviceID)
	if err = row.Scan(&params); err != nil {
		if c.mapError(err) == ErrNotFound {
			return valueobject.JSONMap{}, nil
		}
		return nil, c.mapError(err)
	}
	return params, nil
}

// UpsertDeviceParameters replaces a device's settings-bag overrides.
func (c *Catalog) UpsertDeviceParameters(ctx context.Context, deviceID uint32, params valueobject.JSONMap) (err error) {
	ctx, span := c.startSpan(ctx, "UpsertDeviceParameters")
	defer func() { c.endSpan(span, err) }()

	_, err = c.conn.Exec(ctx, `
		INSERT INTO device_parameter (device_id, parameters)
		VALUES ($1, $2)
		ON CONFLICT (device_id) DO UPDATE SET parameters = EXCLUDED.parameters`,
		deviceID, params)
	if err != nil {
		return c.mapError(err)
	}
	return nil
}

// EffectiveParameters merges a device type's defaults with a device's
// overrides, the device's values winning key-by-key.
func (c *Catalog) EffectiveParameters(ctx context.Context, deviceID, deviceTypeID uint32) (valueobject.JSONMap, error) {
	base, err := c.GetDeviceTypeParameters(ctx, deviceTypeID)
	if err != nil {
		return nil, err
	}
	overrides, err := c.GetDeviceParameters(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	merged := make(valueobject.JSONMap, len(base)+len(overrides))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged, nil
}
