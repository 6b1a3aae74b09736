package pipeline

import (
	"bytes"
	"context"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// HTMLConverter turns markdown into an HTML fragment.
type HTMLConverter interface {
	ToHTML(ctx context.Context, content string) (string, error)
}

type markdownSettings struct {
	gfm       bool
	hardWraps bool
}

// MarkdownOption tunes a GoldmarkConverter.
type MarkdownOption func(*markdownSettings)

// WithoutGFM disables tables, strikethrough, autolinks and task lists.
func WithoutGFM() MarkdownOption {
	return func(s *markdownSettings) { s.gfm = false }
}

// WithoutHardWraps renders single newlines as spaces.
func WithoutHardWraps() MarkdownOption {
	return func(s *markdownSettings) { s.hardWraps = false }
}

// GoldmarkConverter renders markdown with goldmark. Raw HTML from earlier
// stages (marks, math wrappers, callouts) passes through.
type GoldmarkConverter struct {
	md goldmark.Markdown
}

// NewGoldmarkConverter returns a converter with GFM, hard wraps, footnotes,
// heading IDs and class-based chroma highlighting.
func NewGoldmarkConverter(opts ...MarkdownOption) *GoldmarkConverter {
	s := markdownSettings{gfm: true, hardWraps: true}
	for _, opt := range opts {
		opt(&s)
	}

	exts := []goldmark.Extender{
		extension.Footnote,
		highlighting.NewHighlighting(
			highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
		),
	}
	if s.gfm {
		exts = append(exts, extension.GFM)
	}

	rendererOpts := []renderer.Option{html.WithUnsafe()}
	if s.hardWraps {
		rendererOpts = append(rendererOpts, html.WithHardWraps())
	}

	return &GoldmarkConverter{md: goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOpts...),
	)}
}

// ToHTML converts markdown to an HTML fragment. Goldmark has no context
// support; cancellation is checked before and after the conversion.
func (c *GoldmarkConverter) ToHTML(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.Grow(len(content) + len(content)/2)
	if err := c.md.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
