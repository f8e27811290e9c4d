// Package storage uploads and removes item images in a hosted-storage compatible object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/osse101/opitemdb/internal/domain"
)

// Object is an uploaded object
type Object struct {
	Path      string `json:"path"`
	PublicURL string `json:"public_url"`
}

// Bucket is the storage capability used by the submission pipeline
type Bucket interface {
	Upload(ctx context.Context, objectPath string, body io.Reader, contentType string) (Object, error)
	Remove(ctx context.Context, objectPaths []string) error
}

// Route prefixes of the storage API
const (
	ObjectPrefix       = "/storage/v1/object/"
	PublicObjectPrefix = "/storage/v1/object/public/"
)

// PublicURL returns the public URL of an object served by the storage API at baseURL
func PublicURL(baseURL, bucket, objectPath string) string {
	return strings.TrimRight(baseURL, "/") + PublicObjectPrefix + bucket + "/" + strings.TrimLeft(objectPath, "/")
}

// CleanPath normalizes an object path and rejects paths escaping the bucket
func CleanPath(objectPath string) (string, error) {
	p := strings.TrimLeft(objectPath, "/")
	if p == "" {
		return "", fmt.Errorf("%w: empty object path", domain.ErrInvalidInput)
	}
	cleaned := path.Clean(p)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") || strings.Contains(cleaned, "/../") {
		return "", fmt.Errorf("%w: object path %q escapes bucket", domain.ErrInvalidInput, objectPath)
	}
	return cleaned, nil
}

// OwnerPrefix returns the first path segment, which names the owning user
func OwnerPrefix(objectPath string) string {
	p := strings.TrimLeft(objectPath, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[:i]
	}
	return ""
}
