package catalog

import "errors"

// Sentinel errors mapped from Postgres conditions (mapError), mirroring
// the teacher's internal/identity/outbound/db.mapError pattern.
var (
	ErrNotFound = errors.New("catalog: not found")
	ErrConflict = errors.New("catalog: conflict")
)
