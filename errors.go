package md2blog

import (
	"errors"

	"github.com/alnah/go-md2blog/internal/diagram"
)

// Sentinel errors for library operations.
var (
	ErrEmptyInput      = errors.New("input needs a note path or content")
	ErrNoVault         = errors.New("no vault configured")
	ErrNotMarkdown     = errors.New("not a markdown note")
	ErrHTMLConversion  = errors.New("HTML conversion failed")
	ErrConversionPanic = errors.New("internal conversion error")
	ErrPreviewRender   = errors.New("preview rendering failed")

	// ErrBrowserConnect reports a headless Chrome that failed to start,
	// for mermaid diagrams or SVG rasterizing.
	ErrBrowserConnect = diagram.ErrBrowserConnect

	// Asset loading errors.
	ErrStyleNotFound    = errors.New("style not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidAssetPath = errors.New("invalid asset path")
)
