// Package diagram renders diagram source code into images: D2 through its
// command-line tool and Mermaid inside a headless Chrome managed by go-rod.
// The same browser rasterizes SVG images for hosts that only accept bitmaps.
package diagram

import (
	"errors"

	"github.com/alnah/go-md2blog/internal/pipeline"
)

// Sentinel errors.
var (
	ErrD2NotFound     = errors.New("d2 executable not found")
	ErrRender         = errors.New("diagram rendering failed")
	ErrEmptySource    = errors.New("empty diagram source")
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrRasterize      = errors.New("SVG rasterization failed")
)

// Compile-time interface checks
var (
	_ pipeline.DiagramRenderer = (*D2)(nil)
	_ pipeline.DiagramRenderer = (*Mermaid)(nil)
)

// Renderers returns the renderer registry for the diagram stage, keyed by
// code block language. Nil renderers are left out.
func Renderers(d2 *D2, mermaid *Mermaid) map[string]pipeline.DiagramRenderer {
	m := make(map[string]pipeline.DiagramRenderer, 2)
	if d2 != nil {
		m["d2"] = d2
	}
	if mermaid != nil {
		m["mermaid"] = mermaid
	}
	return m
}
