package catalog

import "context"

// GetDeviceType loads a DeviceType by id.
func (c *Catalog) GetDeviceType(ctx context.Context, id uint32) (dt DeviceType, err error) {
	ctx, span := c.startSpan(ctx, "GetDeviceType")
	defer func() { c.endSpan(span, err) }()

	row := c.conn.QueryRow(ctx, `SELECT id, name FROM device_type WHERE id = $1`, id)
	if err = row.Scan(&dt.ID, &dt.Name); err != nil {
		return DeviceType{}, c.mapError(err)
	}
	return dt, nil
}

// CreateDeviceType inserts a new DeviceType row.
func (c *Catalog) CreateDeviceType(ctx context.Context, name string) (dt DeviceType, err error) {
	ctx, span := c.startSpan(ctx, "CreateDeviceType")
	defer func() { c.endSpan(span, err) }()

	row := c.conn.QueryRow(ctx, `INSERT INTO device_type (name) VALUES ($1) RETURNING id, name`, name)
	if err = row.Scan(&dt.ID, &dt.Name); err != nil {
		return DeviceType{}, c.mapError(err)
	}
	return dt, nil
}

// DeleteDeviceType removes a DeviceType row.
func (c *Catalog) DeleteDeviceType(ctx context.Context, id uint32) (err error) {
	ctx, span := c.startSpan(ctx, "DeleteDeviceType")
	defer func() { c.endSpan(span, err) }()

	tag, err := c.conn.Exec(ctx, `DELETE FROM device_type WHERE id = $1`, id)
	if err != nil {
		return c.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDeviceTypes returns every DeviceType row.
func (c *Catalog) ListDeviceTypes(ctx context.Context) (types []DeviceType, err error) {
	ctx, span := c.startSpan(ctx, "ListDeviceTypes")
	defer func() { c.endSpan(span, err) }()

	rows, err := c.conn.Query(ctx, `SELECT id, name FROM device_type ORDER BY id`)
	if err != nil {
		return nil, c.mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var dt DeviceType
		if err = rows.Scan(&dt.ID, &dt.Name); err != nil {
			return nil, c.mapError(err)
		}
		types = append(types, dt)
	}
	if err = rows.Err(); err != nil {
		return nil, c.mapError(err)
	}
	return types, nil
}

// LinkDeviceTypeFirmware records that firmwareID is compatible with
// deviceTypeID (the supplemented DeviceTypeFirmware join row).
func (c *Catalog) LinkDeviceTypeFirmware(ctx context.Context, deviceTypeID, firmwareID uint32) (err error) {
	ctx, span := c.startSpan(ctx, "LinkDeviceTypeFirmware")
	defer func() { c.endSpan(span, err) }()

	_, err = c.conn.Exec(ctx, `
		INSERT INTO device_type_firmware (device_type_id, firmware_id)
		VALUES ($1, $2)
		ON CONFLICT (device_type_id, firmware_id) DO NOTHING`, deviceTypeID, firmwareID)
	if err != nil {
		return c.mapError(err)
	}
	return nil
}

// UnlinkDeviceTypeFirmware removes a DeviceTypeFirmware association.
func (c *Catalog) UnlinkDeviceTypeFirmware(ctx context.Context, deviceTypeID, firmwareID uint32) (err error) {
	ctx, span := c.startSpan(ctx, "UnlinkDeviceTypeFirmware")
	defer func() { c.endSpan(span, err) }()

	tag, err := c.conn.Exec(ctx, `
		DELETE FROM device_type_firmware WHERE device_type_id = $1 AND firmware_id = $2`,
		deviceTypeID, firmwareID)
	if err != nil {
		return c.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCompatibleFirmware returns the firmware images linked to deviceTypeID.
func (c *Catalog) ListCompatibleFirmware(ctx context.Context, deviceTypeID uint32) (firmware []Firmware, err error) {
	ctx, span := c.startSpan(ctx, "ListCompatibleFirmware")
	defer func() { c.endSpan(span, err) }()

	rows, err := c.conn.Query(ctx, `
		SELECT f.id, f.name, f.version, f.file_id, f.size, f.sha256
		FROM firmware f
		JOIN device_type_firmware dtf ON dtf.firmware_id = f.id
		WHERE dtf.device_type_id = $1
		ORDER BY f.id`, deviceTypeID)
	if err != nil {
		return nil, c.mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var f Firmware
		if err = rows.Scan(&f.ID, &f.Name, &f.Version, &f.FileID, &f.Size, &f.SHA256); err != nil {
			return nil, c.mapError(err)
		}
		firmware = append(firmware, f)
	}
	if err = rows.Err(); err != nil {
		return nil, c.mapError(err)
	}
	return firmware, nil
}
