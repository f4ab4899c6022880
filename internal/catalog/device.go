package catalog

import (
	"context"
)

// GetDevice loads a Device by id.
func (c *Catalog) GetDevice(ctx context.Context, id uint32) (device Device, err error) {
	ctx, span := c.startSpan(ctx, "GetDevice")
	defer func() { c.endSpan(span, err) }()

	row := c.conn.QueryRow(ctx, `
		SELECT id, name, device_type_id, firmware_id, desired_firmware_id, status, created_at, updated_at
		FROM device WHERE id = $1`, id)

	var firmware *uint32
	if err = row.Scan(&device.ID, &device.Name, &device.DeviceTypeID, &firmware, &device.DesiredFirmware, &device.Status, &device.CreatedAt, &device.UpdatedAt); err != nil {
		return Device{}, c.mapError(err)
	}
	device.Firmware = firmware

	return device, nil
}

// CreateDevice inserts a new Device row.
func (c *Catalog) CreateDevice(ctx context.Context, d Device) (device Device, err error) {
	ctx, span := c.startSpan(ctx, "CreateDevice")
	defer func() { c.endSpan(span, err) }()

	row := c.conn.QueryRow(ctx, `
		INSERT INTO device (name, device_type_id, firmware_id, desired_firmware_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, device_type_id, firmware_id, desired_firmware_id, status, created_at, updated_at`,
		d.Name, d.DeviceTypeID, d.Firmware, d.DesiredFirmware, d.Status)

	var firmware *uint32
	if err = row.Scan(&device.ID, &device.Name, &device.DeviceTypeID, &firmware, &device.DesiredFirmware, &device.Status, &device.CreatedAt, &device.UpdatedAt); err != nil {
		return Device{}, c.mapError(err)
	}
	device.Firmware = firmware

	return device, nil
}

// UpdateDeviceInfo applies SetDeviceInfo's mutation (spec.md §4.4):
// firmware and status are overwritten unconditionally.
func (c *Catalog) UpdateDeviceInfo(ctx context.Context, deviceID uint32, firmware uint32, status DeviceStatus) (device Device, err error) {
	ctx, span := c.startSpan(ctx, "UpdateDeviceInfo")
	defer func() { c.endSpan(span, err) }()

	row := c.conn.QueryRow(ctx, `
		UPDATE device SET firmware_id = $2, status = $3, updated_at = now()
		WHERE id = $1
		RETURNING id, name, device_type_id, firmware_id, desired_firmware_id, status, created_at, updated_at`,
		deviceID, firmware, status)

	var gotFirmware *uint32
	if err = row.Scan(&device.ID, &device.Name, &device.DeviceTypeID, &gotFirmware, &device.DesiredFirmware, &device.Status, &device.CreatedAt, &device.UpdatedAt); err != nil {
		return Device{}, c.mapError(err)
	}
	device.Firmware = gotFirmware

	return device, nil
}

// DeleteDevice removes a Device row.
func (c *Catalog) DeleteDevice(ctx context.Context, id uint32) (err error) {
	ctx, span := c.startSpan(ctx, "DeleteDevice")
	defer func() { c.endSpan(span, err) }()

	tag, err := c.conn.Exec(ctx, `DELETE FROM device WHERE id = $1`, id)
	if err != nil {
		return c.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDevices returns every Device row, newest first.
func (c *Catalog) ListDevices(ctx context.Context) (devices []Device, err error) {
	ctx, span := c.startSpan(ctx, "ListDevices")
	defer func() { c.endSpan(span, err) }()

	rows, err := c.conn.Query(ctx, `
		SELECT id, name, device_type_id, firmware_id, desired_firmware_id, status, created_at, updated_at
		FROM device ORDER BY created_at DESC`)
	if err != nil {
		return nil, c.mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var d Device
		var firmware *uint32
		if err = rows.Scan(&d.ID, &d.Name, &d.DeviceTypeID, &firmware, &d.DesiredFirmware, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, c.mapError(err)
		}
		d.Firmware = firmware
		devices = append(devices, d)
	}
	if err = rows.Err(); err != nil {
		return nil, c.mapError(err)
	}

	return devices, nil
}
