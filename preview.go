package md2blog

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/alnah/go-md2blog/internal/pipeline"
)

// PathMapper turns the absolute path of a local file referenced by a
// preview into the URL written in its place.
type PathMapper func(absPath string) string

// Preview renders b as a standalone HTML page: title, converter style
// followed by extraCSS, content, then hidden links. Relative src and href
// attributes resolve against the note's directory and are passed through
// mapPath (file:// URLs when nil).
func (c *Converter) Preview(ctx context.Context, b *Bundle, extraCSS string, mapPath PathMapper) (string, error) {
	if b == nil {
		return "", fmt.Errorf("%w: nil bundle", ErrPreviewRender)
	}

	page, err := c.page.Render(ctx, pipeline.PageData{
		Title:       b.Title,
		Labels:      b.Labels,
		Content:     b.Content,
		HiddenLinks: b.HiddenLinks,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", ErrPreviewRender, err)
	}

	css := c.css
	if extraCSS != "" {
		css += "\n" + extraCSS
	}
	page = c.cssInjector.InjectCSS(ctx, page, css)

	page, err = pipeline.RewriteRelativePaths(page, c.noteDir(b.Path), pipeline.PathMapper(mapPath))
	if err != nil {
		return "", fmt.Errorf("rewriting relative paths: %w", err)
	}
	return page, nil
}

// CSS returns the resolved converter style.
func (c *Converter) CSS() string {
	return c.css
}

// noteDir returns the directory relative references of a note resolve
// against, or "" when the bundle has no path.
func (c *Converter) noteDir(path string) string {
	if path == "" {
		return ""
	}
	if c.vault != nil {
		if abs, err := c.vault.Abs(path); err == nil {
			return filepath.Dir(abs)
		}
	}
	return filepath.Dir(path)
}
