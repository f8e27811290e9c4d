package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/osse101/opitemdb/internal/domain"
)

// ErrObjectTooLarge is returned by Put when the body exceeds the limit
var ErrObjectTooLarge = errors.New("object too large")

// DiskStore keeps objects as files under root/<bucket>/<path>. It backs the storage
// routes of the server.
type DiskStore struct {
	root string
}

// NewDiskStore creates the root directory if needed
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &DiskStore{root: root}, nil
}

func (d *DiskStore) file(bucket, objectPath string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", fmt.Errorf("%w: bucket %q", domain.ErrInvalidInput, bucket)
	}
	p, err := CleanPath(objectPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.root, bucket, filepath.FromSlash(p)), nil
}

// Put writes at most limit bytes of r to the object. Existing objects are not overwritten.
func (d *DiskStore) Put(bucket, objectPath string, r io.Reader, limit int64) (int64, error) {
	name, err := d.file(bucket, objectPath)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create object dir: %w", err)
	}

	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return 0, fmt.Errorf("%w: object %s already exists", domain.ErrInvalidInput, objectPath)
		}
		return 0, fmt.Errorf("failed to create object: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, limit+1))
	closeErr := f.Close()
	if err == nil && n > limit {
		err = fmt.Errorf("%w: %w (limit %d bytes)", domain.ErrInvalidInput, ErrObjectTooLarge, limit)
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(name)
		return 0, err
	}
	return n, nil
}

// Open returns the object's content and its content type
func (d *DiskStore) Open(bucket, objectPath string) (*os.File, string, error) {
	name, err := d.file(bucket, objectPath)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", domain.ErrObjectNotFound
		}
		return nil, "", err
	}
	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return f, ct, nil
}

// Delete removes the given objects and returns the paths that existed
func (d *DiskStore) Delete(bucket string, objectPaths []string) ([]string, error) {
	removed := make([]string, 0, len(objectPaths))
	for _, p := range objectPaths {
		name, err := d.file(bucket, p)
		if err != nil {
			return removed, err
		}
		if err := os.Remove(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return removed, fmt.Errorf("failed to remove %s: %w", p, err)
		}
		removed = append(removed, p)
	}
	return removed, nil
}

// Bucket returns a Bucket view of one bucket whose public URLs are rooted at publicBase
func (d *DiskStore) Bucket(bucket, publicBase string) Bucket {
	return &diskBucket{store: d, bucket: bucket, publicBase: publicBase}
}

type diskBucket struct {
	store      *DiskStore
	bucket     string
	publicBase string
}

func (b *diskBucket) Upload(ctx context.Context, objectPath string, body io.Reader, contentType string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	p, err := CleanPath(objectPath)
	if err != nil {
		return Object{}, err
	}
	if _, err := b.store.Put(b.bucket, p, body, domain.MaxUploadBytes); err != nil {
		return Object{}, err
	}
	return Object{Path: p, PublicURL: PublicURL(b.publicBase, b.bucket, p)}, nil
}

func (b *diskBucket) Remove(ctx context.Context, objectPaths []string) error {
	_, err := b.store.Delete(b.bucket, objectPaths)
	return err
}
