// Package upload publishes image bytes to an image host and returns their
// public URL. Backends (Imgur, S3-compatible storage) can be wrapped by
// decorators that rasterize SVG payloads or cache results on disk.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Sentinel errors.
var (
	ErrEmptyPayload = errors.New("empty upload payload")
	ErrUploadFailed = errors.New("upload failed")
	ErrRateLimited  = errors.New("upload rate limited")
	ErrRasterize    = errors.New("SVG rasterization failed")
	ErrCache        = errors.New("upload cache error")
)

// Uploader publishes data under name and returns its URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, name string) (string, error)
}

// Func adapts a function to Uploader.
type Func func(ctx context.Context, data []byte, name string) (string, error)

// Upload implements Uploader.
func (f Func) Upload(ctx context.Context, data []byte, name string) (string, error) {
	return f(ctx, data, name)
}

// maxResponseBytes caps API response bodies read into memory.
const maxResponseBytes = 1 << 20

// readLimited reads at most limit bytes from r and fails beyond that.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("response body exceeds %d bytes", limit)
	}
	return data, nil
}
