package upload

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// Rasterizer converts SVG markup to PNG bytes.
type Rasterizer interface {
	Rasterize(ctx context.Context, svg []byte) ([]byte, error)
}

// SVGToPNG rasterizes ".svg" payloads before handing them to the next
// uploader, for hosts that reject vector images.
type SVGToPNG struct {
	next       Uploader
	rasterizer Rasterizer
}

// NewSVGToPNG wraps next.
func NewSVGToPNG(next Uploader, r Rasterizer) *SVGToPNG {
	return &SVGToPNG{next: next, rasterizer: r}
}

// Upload implements Uploader.
func (s *SVGToPNG) Upload(ctx context.Context, data []byte, name string) (string, error) {
	ext := path.Ext(name)
	if !strings.EqualFold(ext, ".svg") {
		return s.next.Upload(ctx, data, name)
	}

	png, err := s.rasterizer.Rasterize(ctx, data)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrRasterize, name, err)
	}
	return s.next.Upload(ctx, png, strings.TrimSuffix(name, ext)+".png")
}
