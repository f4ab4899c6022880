// Package blobstore implements the Firmware Blob Store (spec.md §4.6):
// firmware files stored under a generated file_id, referenced by catalog
// rows that also record each file's SHA-256.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"

	"github.com/fleetfw/backend/internal/catalog"
	"github.com/fleetfw/backend/internal/pkg/goroutine"
	"github.com/fleetfw/backend/internal/pkg/storage"
	"github.com/fleetfw/backend/internal/pkg/uid"
)

// bucket is the storage bucket/prefix firmware blobs live under; the
// Filesystem adapter maps it to <data_root>/firmware/.
const bucket = "firmware"

// Errors matching the Operation Dispatcher's GetFirmware failure domain
// (spec.md §4.4).
var (
	ErrNotFound      = errors.New("blobstore: firmware not found")
	ErrTooLarge      = errors.New("blobstore: requested length exceeds maximum")
	ErrInvalidUpload = errors.New("blobstore: invalid upload")
)

// MaxReadLength is the hard cap on a single GetFirmware read (spec.md §4.4).
const MaxReadLength = 1 << 20 // 1 MiB

// Store writes firmware blobs to a primary Storage backend and records
// their catalog rows, optionally best-effort replicating to secondary
// backends (e.g. S3/GCS/MinIO) for disaster recovery.
type Store struct {
	primary  storage.Storage
	replicas []storage.Storage
	catalog  *catalog.Catalog
	ids      *uid.UUID
	async    *goroutine.Manager
}

// New constructs a Store. replicas may be empty; their writes never
// block or fail an upload.
func New(primary storage.Storage, replicas []storage.Storage, cat *catalog.Catalog, async *goroutine.Manager) *Store {
	return &Store{primary: primary, replicas: replicas, catalog: cat, ids: uid.NewUUID(), async: async}
}

// Upload computes the SHA-256 of data, allocates a fresh file_id, writes
// data to the primary backend, and inserts the catalog row, in that order;
// on catalog insert failure the file is removed best-effort (spec.md §4.6).
func (s *Store) Upload(ctx context.Context, name, version string, data []byte) (catalog.Firmware, error) {
	if len(data) == 0 {
		return catalog.Firmware{}, ErrInvalidUpload
	}

	sum := sha256.Sum256(data)
	fileID := s.ids.Generate()
	key := fileID + ".bin"

	info, err := s.primary.PutObject(ctx, bucket, key, bytes.NewReader(data), storage.PutOptions{
		Size:        int64(len(data)),
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return catalog.Firmware{}, err
	}

	fw, err := s.catalog.CreateFirmware(ctx, catalog.Firmware{
		Name:    name,
		Version: version,
		FileID:  fileID,
		Size:    info.Size,
		SHA256:  hex.EncodeToString(sum[:]),
	})
	if err != nil {
		if delErr := s.primary.DeleteObject(ctx, bucket, key); delErr != nil {
			slog.ErrorContext(ctx, "failed to remove orphaned firmware blob after catalog insert failure",
				"file_id", fileID, "error", delErr)
		}
		return catalog.Firmware{}, err
	}

	s.replicate(ctx, key, data)

	return fw, nil
}

// replicate best-effort copies a freshly uploaded blob to every
// secondary backend without blocking the caller or failing the upload.
func (s *Store) replicate(ctx context.Context, key string, data []byte) {
	for _, r := range s.replicas {
		r := r
		s.async.Go(ctx, func(ctx context.Context) error {
			_, err := r.PutObject(ctx, bucket, key, bytes.NewReader(data), storage.PutOptions{
				Size:        int64(len(data)),
				ContentType: "application/octet-stream",
			})
			if err != nil {
				slog.WarnContext(ctx, "failed to replicate firmware blob", "key", key, "error", err)
			}
			return err
		})
	}
}

// Read serves GetFirmware's ranged read (spec.md §4.4): up to length
// bytes starting at offset, returning fewer at end-of-file with no
// explicit EOF marker.
func (s *Store) Read(ctx context.Context, fw catalog.Firmware, offset, length uint32) ([]byte, error) {
	if length > MaxReadLength {
		return nil, ErrTooLarge
	}
	if int64(offset) >= fw.Size {
		return []byte{}, nil
	}

	key := fw.FileID + ".bin"
	end := int64(offset) + int64(length) - 1
	rc, _, err := s.primary.GetObject(ctx, bucket, key, storage.GetOptions{
		Range: &storage.ByteRange{Start: int64(offset), End: end},
	})
	if err != nil {
		if errors.Is(err, storage.ErrMissingSigner) {
			return nil, err
		}
		return nil, err
	}
	defer rc.Close()

	buf := make([]byte, length)
	n, err := io.ReadFull(rc, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:n], nil
}

// Delete removes the catalog row first (so FK constraints hold before
// the blob disappears), then the backing file best-effort.
func (s *Store) Delete(ctx context.Context, fw catalog.Firmware) error {
	if err := s.catalog.DeleteFirmware(ctx, fw.ID); err != nil {
		return err
	}

	key := fw.FileID + ".bin"
	if err := s.primary.DeleteObject(ctx, bucket, key); err != nil {
		slog.ErrorContext(ctx, "failed to remove firmware blob after catalog row deletion",
			"firmware_id", fw.ID, "file_id", fw.FileID, "error", err)
	}
	for _, r := range s.replicas {
		if err := r.DeleteObject(ctx, bucket, key); err != nil {
			slog.WarnContext(ctx, "failed to remove replicated firmware blob", "file_id", fw.FileID, "error", err)
		}
	}

	return nil
}
