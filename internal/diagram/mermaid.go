package diagram

import (
	"context"
	"fmt"
	"strings"

	"github.com/alnah/go-md2blog/internal/pipeline"
)

// DefaultMermaidScript is the mermaid.js bundle loaded into the page.
const DefaultMermaidScript = "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"

// MermaidFlowchart holds flowchart layout settings.
type MermaidFlowchart struct {
	NodeSpacing int    `json:"nodeSpacing"`
	RankSpacing int    `json:"rankSpacing"`
	Curve       string `json:"curve"`
	HTMLLabels  bool   `json:"htmlLabels"`
	Padding     int    `json:"padding"`
	UseMaxWidth bool   `json:"useMaxWidth"`
}

// MermaidConfig is passed to mermaid.initialize.
type MermaidConfig struct {
	StartOnLoad bool             `json:"startOnLoad"`
	Theme       string           `json:"theme"`
	FontSize    int              `json:"fontSize"`
	FontFamily  string           `json:"fontFamily"`
	Flowchart   MermaidFlowchart `json:"flowchart"`
}

// DefaultMermaidConfig returns the dark theme used for blog posts.
func DefaultMermaidConfig() MermaidConfig {
	return MermaidConfig{
		Theme:      "dark",
		FontSize:   16,
		FontFamily: "Arial",
		Flowchart: MermaidFlowchart{
			NodeSpacing: 50,
			RankSpacing: 70,
			Curve:       "basis",
			HTMLLabels:  true,
			Padding:     15,
		},
	}
}

// Mermaid renders Mermaid source to SVG inside a headless browser.
type Mermaid struct {
	browser *Browser
	script  string
	config  MermaidConfig
}

// MermaidOption configures a Mermaid renderer.
type MermaidOption func(*Mermaid)

// WithMermaidScript sets the URL mermaid.js is loaded from.
func WithMermaidScript(url string) MermaidOption {
	return func(m *Mermaid) {
		if url != "" {
			m.script = url
		}
	}
}

// WithMermaidTheme overrides the theme name.
func WithMermaidTheme(theme string) MermaidOption {
	return func(m *Mermaid) {
		if theme != "" {
			m.config.Theme = theme
		}
	}
}

// NewMermaid creates a Mermaid renderer on b.
func NewMermaid(b *Browser, opts ...MermaidOption) *Mermaid {
	m := &Mermaid{browser: b, script: DefaultMermaidScript, config: DefaultMermaidConfig()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

const renderJS = `(cfg, code) => {
	mermaid.initialize(cfg);
	return mermaid.render('md2blog-diagram', code).then(r => r.svg);
}`

// RenderDiagram implements pipeline.DiagramRenderer.
func (m *Mermaid) RenderDiagram(ctx context.Context, source string) (pipeline.Diagram, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return pipeline.Diagram{}, ErrEmptySource
	}

	page, err := m.browser.page(ctx)
	if err != nil {
		return pipeline.Diagram{}, err
	}
	defer page.Close()

	if err := page.AddScriptTag(m.script, ""); err != nil {
		return pipeline.Diagram{}, fmt.Errorf("%w: loading mermaid: %v", ErrRender, err)
	}

	res, err := page.Eval(renderJS, m.config, source)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return pipeline.Diagram{}, ctxErr
		}
		return pipeline.Diagram{}, fmt.Errorf("%w: mermaid: %v", ErrRender, err)
	}

	svg := res.Value.Str()
	if !strings.Contains(svg, "<svg") {
		return pipeline.Diagram{}, fmt.Errorf("%w: mermaid returned no SVG", ErrRender)
	}
	return pipeline.Diagram{Data: []byte(svg), Ext: "svg"}, nil
}
