package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/osse101/opitemdb/internal/bff"
	"github.com/osse101/opitemdb/internal/domain"
)

// HTTPBucket is a client of the storage API for one bucket
type HTTPBucket struct {
	baseURL string
	bucket  string
	http    *http.Client
	tokens  bff.TokenSource
}

// NewHTTPBucket creates a client for bucket at the storage API rooted at baseURL
func NewHTTPBucket(baseURL, bucket string, tokens bff.TokenSource) *HTTPBucket {
	return &HTTPBucket{
		baseURL: strings.TrimRight(baseURL, "/"),
		bucket:  bucket,
		http:    &http.Client{Timeout: 60 * time.Second},
		tokens:  tokens,
	}
}

// Upload stores body at objectPath and returns its public URL
func (b *HTTPBucket) Upload(ctx context.Context, objectPath string, body io.Reader, contentType string) (Object, error) {
	p, err := CleanPath(objectPath)
	if err != nil {
		return Object{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+ObjectPrefix+b.bucket+"/"+p, body)
	if err != nil {
		return Object{}, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")
	if err := b.authorize(ctx, req); err != nil {
		return Object{}, err
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return Object{}, fmt.Errorf("upload %s: %w", p, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Object{}, &domain.Error{
			Kind:    domain.KindForStatus(resp.StatusCode),
			Op:      "upload image",
			Status:  resp.StatusCode,
			Message: "The image could not be uploaded.",
			Err:     fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
		}
	}

	return Object{Path: p, PublicURL: PublicURL(b.baseURL, b.bucket, p)}, nil
}

// removeRequest is the body of a bulk delete
type removeRequest struct {
	Prefixes []string `json:"prefixes"`
}

// Remove deletes the given objects in one request
func (b *HTTPBucket) Remove(ctx context.Context, objectPaths []string) error {
	if len(objectPaths) == 0 {
		return nil
	}
	data, err := json.Marshal(removeRequest{Prefixes: objectPaths})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, b.baseURL+ObjectPrefix+b.bucket, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create remove request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := b.authorize(ctx, req); err != nil {
		return err
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return fmt.Errorf("remove objects: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("remove objects: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (b *HTTPBucket) authorize(ctx context.Context, req *http.Request) error {
	if b.tokens == nil {
		return nil
	}
	token, err := b.tokens.AccessToken(ctx)
	if err != nil {
		return &domain.Error{Kind: domain.KindAuthorization, Op: "authorize", Message: bff.MsgSignInRequired, Err: err}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}
