package catalog

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// GetDeviceKey loads a DeviceKey by id.
func (c *Catalog) GetDeviceKey(ctx context.Context, id uint32) (key DeviceKey, err error) {
	ctx, span := c.startSpan(ctx, "GetDeviceKey")
	defer func() { c.endSpan(span, err) }()

	row := c.conn.QueryRow(ctx, `
		SELECT id, device_id, key_type, status FROM device_key WHERE id = $1`, id)
	if err = row.Scan(&key.ID, &key.DeviceID, &key.KeyType, &key.Status); err != nil {
		return DeviceKey{}, c.mapError(err)
	}
	return key, nil
}

// GetActiveDeviceKey returns the device's ACTIVE key, if any. spec.md §3
// requires at most one ACTIVE key per device across both key types;
// callers treat ErrNotFound as "device has no active key".
func (c *Catalog) GetActiveDeviceKey(ctx context.Context, deviceID uint32) (key DeviceKey, err error) {
	ctx, span := c.startSpan(ctx, "GetActiveDeviceKey")
	defer func() { c.endSpan(span, err) }()

	row := c.conn.QueryRow(ctx, `
		SELECT id, device_id, key_type, status FROM device_key
		WHERE device_id = $1 AND status = $2`,
		deviceID, KeyStatusActive)
	if err = row.Scan(&key.ID, &key.DeviceID, &key.KeyType, &key.Status); err != nil {
		return DeviceKey{}, c.mapError(err)
	}
	return key, nil
}

// GetNextDeviceKey returns the device's NEXT key, if any.
func (c *Catalog) GetNextDeviceKey(ctx context.Context, deviceID uint32) (key DeviceKey, err error) {
	ctx, span := c.startSpan(ctx, "GetNextDeviceKey")
	defer func() { c.endSpan(span, err) }()

	row := c.conn.QueryRow(ctx, `
		SELECT id, device_id, key_type, status FROM device_key
		WHERE device_id = $1 AND status = $2`,
		deviceID, KeyStatusNext)
	if err = row.Scan(&key.ID, &key.DeviceID, &key.KeyType, &key.Status); err != nil {
		return DeviceKey{}, c.mapError(err)
	}
	return key, nil
}

// ListDeviceKeys returns every key row owned by deviceID.
func (c *Catalog) ListDeviceKeys(ctx context.Context, deviceID uint32) (keys []DeviceKey, err error) {
	ctx, span := c.startSpan(ctx, "ListDeviceKeys")
	defer func() { c.endSpan(span, err) }()

	rows, err := c.conn.Query(ctx, `
		SELECT id, device_id, key_type, status FROM device_key WHERE device_id = $1 ORDER BY id`, deviceID)
	if err != nil {
		return nil, c.mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var k DeviceKey
		if err = rows.Scan(&k.ID, &k.DeviceID, &k.KeyType, &k.Status); err != nil {
			return nil, c.mapError(err)
		}
		keys = append(keys, k)
	}
	if err = rows.Err(); err != nil {
		return nil, c.mapError(err)
	}
	return keys, nil
}

// GetLightweightKeyDetails loads the algorithm/key bytes tied to a
// LIGHTWEIGHT DeviceKey. The returned Key slice is a fresh copy the
// caller owns and must aead.Zero after use.
func (c *Catalog) GetLightweightKeyDetails(ctx context.Context, deviceKeyID uint32) (details LightweightKeyDetails, err error) {
	ctx, span := c.startSpan(ctx, "GetLightweightKeyDetails")
	defer func() { c.endSpan(span, err) }()

	row := c.conn.QueryRow(ctx, `
		SELECT device_key_id, algorithm, key FROM lightweight_key_details WHERE device_key_id = $1`, deviceKeyID)
	if err = row.Scan(&details.DeviceKeyID, &details.Algorithm, &details.Key); err != nil {
		return LightweightKeyDetails{}, c.mapError(err)
	}
	return details, nil
}

// WithDeviceLock runs fn inside a transaction holding
// pg_advisory_xact_lock(device_id), serializing concurrent key-lifecycle
// transitions for the same device. The lock is transaction-scoped and
// released automatically on commit or rollback.
func (c *Catalog) WithDeviceLock(ctx context.Context, deviceID uint32, fn func(ctx context.Context, tx pgx.Tx) error) (err error) {
	ctx, span := c.startSpan(ctx, "WithDeviceLock")
	defer func() { c.endSpan(span, err) }()

	tx, rollback, err := c.beginTx(ctx)
	if err != nil {
		return err
	}
	defer rollback()

	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(deviceID)); err != nil {
		return err
	}

	if err = fn(ctx, tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// CreateDeviceKeyTx inserts a DeviceKey row within an already-locked
// transaction (see WithDeviceLock).
func (c *Catalog) CreateDeviceKeyTx(ctx context.Context, tx pgx.Tx, key DeviceKey) (created DeviceKey, err error) {
	row := tx.QueryRow(ctx, `
		INSERT INTO device_key (device_id, key_type, status)
		VALUES ($1, $2, $3)
		RETURNING id, device_id, key_type, status`,
		key.DeviceID, key.KeyType, key.Status)
	if err = row.Scan(&created.ID, &created.DeviceID, &created.KeyType, &created.Status); err != nil {
		return DeviceKey{}, c.mapError(err)
	}
	return created, nil
}

// CreateLightweightKeyDetailsTx inserts the key-material row for a
// LIGHTWEIGHT DeviceKey within an already-locked transaction.
func (c *Catalog) CreateLightweightKeyDetailsTx(ctx context.Context, tx pgx.Tx, details LightweightKeyDetails) (err error) {
	_, err = tx.Exec(ctx, `
		INSERT INTO lightweight_key_details (device_key_id, algorithm, key)
		VALUES ($1, $2, $3)`,
		details.DeviceKeyID, details.Algorithm, details.Key)
	if err != nil {
		return c.mapError(err)
	}
	return nil
}

// UpdateDeviceKeyStatusTx transitions a DeviceKey's status within an
// already-locked transaction.
func (c *Catalog) UpdateDeviceKeyStatusTx(ctx context.Context, tx pgx.Tx, id uint32, status KeyStatus) (err error) {
	tag, err := tx.Exec(ctx, `UPDATE device_key SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return c.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDeviceKeyTx removes a DeviceKey row (and, via ON DELETE CASCADE,
// its key-details row) within an already-locked transaction.
func (c *Catalog) DeleteDeviceKeyTx(ctx context.Context, tx pgx.Tx, id uint32) (err error) {
	tag, err := tx.Exec(ctx, `DELETE FROM device_key WHERE id = $1`, id)
	if err != nil {
		return c.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetDeviceKeyTx loads a DeviceKey by id within an already-locked
// transaction, so lifecycle transitions observe a consistent snapshot.
func (c *Catalog) GetDeviceKeyTx(ctx context.Context, tx pgx.Tx, id uint32) (key DeviceKey, err error) {
	row := tx.QueryRow(ctx, `SELECT id, device_id, key_type, status FROM device_key WHERE id = $1`, id)
	if err = row.Scan(&key.ID, &key.DeviceID, &key.KeyType, &key.Status); err != nil {
		return DeviceKey{}, c.mapError(err)
	}
	return key, nil
}

// ListDeviceKeysTx lists every key row owned by deviceID within an
// already-locked transaction, used to enforce the at-most-one-ACTIVE/
// at-most-one-NEXT invariant before inserting or promoting.
func (c *Catalog) ListDeviceKeysTx(ctx context.Context, tx pgx.Tx, deviceID uint32) (keys []DeviceKey, err error) {
	rows, err := tx.Query(ctx, `
		SELECT id, device_id, key_type, status FROM device_key
		WHERE device_id = $1
		FOR UPDATE`, deviceID)
	if err != nil {
		return nil, c.mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var k DeviceKey
		if err = rows.Scan(&k.ID, &k.DeviceID, &k.KeyType, &k.Status); err != nil {
			return nil, c.mapError(err)
		}
		keys = append(keys, k)
	}
	if err = rows.Err(); err != nil {
		return nil, c.mapError(err)
	}
	return keys, nil
}
