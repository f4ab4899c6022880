package catalog

import "context"

// GetFirmware loads a Firmware row by id.
func (c *Catalog) GetFirmware(ctx context.Context, id uint32) (fw Firmware, err error) {
	ctx, span := c.startSpan(ctx, "GetFirmware")
	defer func() { c.endSpan(span, err) }()

	row := c.conn.QueryRow(ctx, `
		SELECT id, name, version, file_id, size, sha256 FROM firmware WHERE id = $1`, id)
	if err = row.Scan(&fw.ID, &fw.Name, &fw.Version, &fw.FileID, &fw.Size, &fw.SHA256); err != nil {
		return Firmware{}, c.mapError(err)
	}
	return fw, nil
}

// CreateFirmware inserts a Firmware row. Callers write the blob to the
// Firmware Blob Store before calling this, so fw.FileID/Size/SHA256 are
// already known at insert time.
func (c *Catalog) CreateFirmware(ctx context.Context, fw Firmware) (created Firmware, err error) {
	ctx, span := c.startSpan(ctx, "CreateFirmware")
	defer func() { c.endSpan(span, err) }()

	row := c.conn.QueryRow(ctx, `
		INSERT INTO firmware (name, version, file_id, size, sha256)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, version, file_id, size, sha256`,
		fw.Name, fw.Version, fw.FileID, fw.Size, fw.SHA256)
	if err = row.Scan(&created.ID, &created.Name, &created.Version, &created.FileID, &created.Size, &created.SHA256); err != nil {
		return Firmware{}, c.mapError(err)
	}
	return created, nil
}

// DeleteFirmware removes a Firmware row. It does not touch the blob
// store; callers remove the backing file after this succeeds.
func (c *Catalog) DeleteFirmware(ctx context.Context, id uint32) (err error) {
	ctx, span := c.startSpan(ctx, "DeleteFirmware")
	defer func() { c.endSpan(span, err) }()

	tag, err := c.conn.Exec(ctx, `DELETE FROM firmware WHERE id = $1`, id)
	if err != nil {
		return c.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFirmware returns every Firmware row.
func (c *Catalog) ListFirmware(ctx context.Context) (firmware []Firmware, err error) {
	ctx, span := c.startSpan(ctx, "ListFirmware")
	defer func() { c.endSpan(span, err) }()

	rows, err := c.conn.Query(ctx, `SELECT id, name, version, file_id, size, sha256 FROM firmware ORDER BY id`)
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
