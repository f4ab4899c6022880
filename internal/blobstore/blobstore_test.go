package blobstore

import (
	"bytes"
	"context"
	"testing"

	"github.com/fleetfw/backend/internal/catalog"
	"github.com/fleetfw/backend/internal/pkg/storage"
)

func newTestPrimary(t *testing.T) *storage.FilesystemAdapter {
	t.Helper()
	fs, err := storage.NewFilesystem(storage.FilesystemOptions{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("NewFilesystem: %v", err)
	}
	return fs
}

func TestReadFullRange(t *testing.T) {
	fs := newTestPrimary(t)
	data := bytes.Repeat([]byte{0xAB}, 1000)
	if _, err := fs.PutObject(context.Background(), bucket, "f1.bin", bytes.NewReader(data), storage.PutOptions{Size: int64(len(data))}); err != nil {
		t.Fatalf("PutObject: %v", err)
	}

	s := &Store{primary: fs}
	fw := catalog.Firmware{ID: 1, FileID: "f1", Size: 1000}

	got, err := s.Read(context.Background(), fw, 0, 1000)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("Read returned %d bytes, want %d", len(got), len(data))
	}
}

func TestReadPartialNearEOF(t *testing.T) {
	fs := newTestPrimary(t)
	data := bytes.Repeat([]byte{0x01}, 1000)
	if _, err := fs.PutObject(context.Background(), bucket, "f3.bin", bytes.NewReader(data), storage.PutOptions{Size: int64(len(data))}); err != nil {
		t.Fatalf("PutObject: %v", err)
	}

	s := &Store{primary: fs}
	fw := catalog.Firmware{ID: 3, FileID: "f3", Size: 1000}

	got, err := s.Read(context.Background(), fw, 900, 200)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 100 {
		t.Fatalf("Read returned %d bytes, want 100 (short read at EOF)", len(got))
	}
	if !bytes.Equal(got, data[900:1000]) {
		t.Fatal("Read returned wrong tail bytes")
	}
}

func TestReadOffsetAtOrPastSize(t *testing.T) {
	fs := newTestPrimary(t)
	s := &Store{primary: fs}
	fw := catalog.Firmware{ID: 4, FileID: "f4", Size: 500}

	got, err := s.Read(context.Background(), fw, 500, 10)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Read past EOF returned %d bytes, want 0", len(got))
	}
}

func TestReadRejectsOversizedLength(t *testing.T) {
	fs := newTestPrimary(t)
	s := &Store{primary: fs}
	fw := catalog.Firmware{ID: 5, FileID: "f5", Size: 10 << 20}

	if _, err := s.Read(context.Background(), fw, 0, MaxReadLength+1); err != ErrTooLarge {
		t.Fatalf("Read with oversized length: err = %v, want ErrTooLarge", err)
	}
}
