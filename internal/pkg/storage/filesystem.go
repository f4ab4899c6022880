package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrObjectNotFound indicates the requested object does not exist.
var ErrObjectNotFound = errors.New("storage: object not found")

// FilesystemAdapter implements Storage on top of a local directory tree,
// keyed as <root>/<bucket>/<key>. It has no presign capability: PresignGet
// and PresignPut always return ErrMissingSigner.
type FilesystemAdapter struct {
	root string
}

// FilesystemOptions configures the Filesystem adapter.
type FilesystemOptions struct {
	// Root is the base directory all buckets are created under.
	Root string
}

// NewFilesystem constructs a Filesystem adapter rooted at opts.Root.
func NewFilesystem(opts FilesystemOptions) (*FilesystemAdapter, error) {
	root := filepath.Clean(opts.Root)
	if root == "" || root == "." {
		return nil, errors.New("storage: filesystem root must not be empty")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, err
	}
	return &FilesystemAdapter{root: root}, nil
}

func (f *FilesystemAdapter) path(bucket, key string) (string, error) {
	clean := filepath.Clean(filepath.Join(bucket, key))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(os.PathSeparator)) {
		return "", errors.New("storage: object key escapes bucket root")
	}
	return filepath.Join(f.root, clean), nil
}

// PutObject writes r to disk, creating parent directories as needed.
func (f *FilesystemAdapter) PutObject(_ context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	p, err := f.path(bucket, key)
	if err != nil {
		return ObjectInfo{}, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return ObjectInfo{}, err
	}

	tmp := p + ".tmp"
	// #nosec G304 -- path is derived from validated bucket/key under the configured root.
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return ObjectInfo{}, err
	}
	n, err := io.Copy(out, r)
	closeErr := out.Close()
	if err != nil {
		os.Remove(tmp) //nolint:errcheck // best effort cleanup
		return ObjectInfo{}, err
	}
	if closeErr != nil {
		os.Remove(tmp) //nolint:errcheck // best effort cleanup
		return ObjectInfo{}, closeErr
	}
	if err := os.Rename(tmp, p); err != nil {
		return ObjectInfo{}, err
	}

	return ObjectInfo{
		Bucket:      bucket,
		Key:         key,
		Size:        n,
		ContentType: opts.ContentType,
		Metadata:    opts.Metadata,
		UpdatedAt:   time.Now(),
	}, nil
}

// GetObject opens the object for reading, honoring an optional byte range.
func (f *FilesystemAdapter) GetObject(_ context.Context, bucket, key string, opts GetOptions) (io.ReadCloser, ObjectInfo, error) {
	p, err := f.path(bucket, key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}

	// #nosec G304 -- path is derived from validated bucket/key under the configured root.
	fh, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ObjectInfo{}, ErrObjectNotFound
		}
		return nil, ObjectInfo{}, err
	}

	stat, err := fh.Stat()
	if err != nil {
		fh.Close() //nolint:errcheck // reporting the stat error
		return nil, ObjectInfo{}, err
	}

	if opts.Range != nil {
		if _, err := fh.Seek(opts.Range.Start, io.SeekStart); err != nil {
			fh.Close() //nolint:errcheck // reporting the seek error
			return nil, ObjectInfo{}, err
		}
	}

	info := ObjectInfo{
		Bucket:    bucket,
		Key:       key,
		Size:      stat.Size(),
		UpdatedAt: stat.ModTime(),
	}

	return fh, info, nil
}

// StatObject returns metadata without opening the object for reading.
func (f *FilesystemAdapter) StatObject(_ context.Context, bucket, key string) (ObjectInfo, error) {
	p, err := f.path(bucket, key)
	if err != nil {
		return ObjectInfo{}, err
	}

	stat, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return ObjectInfo{}, ErrObjectNotFound
		}
		return ObjectInfo{}, err
	}

	return ObjectInfo{
		Bucket:    bucket,
		Key:       key,
		Size:      stat.Size(),
		UpdatedAt: stat.ModTime(),
	}, nil
}

// DeleteObject removes the object, treating a missing file as success.
func (f *FilesystemAdapter) DeleteObject(_ context.Context, bucket, key string) error {
	p, err := f.path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ListObjects lists objects directly under bucket/prefix, sorted by key.
func (f *FilesystemAdapter) ListObjects(_ context.Context, bucket, prefix string, opts ListOptions) ([]ObjectInfo, error) {
	dir := filepath.Join(f.root, bucket)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var infos []ObjectInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		infos = append(infos, ObjectInfo{
			Bucket:    bucket,
			Key:       e.Name(),
			Size:      fi.Size(),
			UpdatedAt: fi.ModTime(),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })

	if opts.Limit > 0 && int32(len(infos)) > opts.Limit {
		infos = infos[:opts.Limit]
	}

	return infos, nil
}

// PresignGet is unsupported on the filesystem backend.
func (f *FilesystemAdapter) PresignGet(context.Context, string, string, time.Duration) (string, error) {
	return "", ErrMissingSigner
}

// PresignPut is unsupported on the filesystem backend.
func (f *FilesystemAdapter) PresignPut(context.Context, string, string, PutOptions, time.Duration) (string, error) {
	return "", ErrMissingSigner
}

// Close is a no-op; the filesystem adapter holds no persistent connections.
func (f *FilesystemAdapter) Close() error {
	return nil
}
