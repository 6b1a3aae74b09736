package md2blog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/alnah/go-md2blog/internal/assets"
	"github.com/alnah/go-md2blog/internal/diagram"
	"github.com/alnah/go-md2blog/internal/fileutil"
	"github.com/alnah/go-md2blog/internal/linkdata"
	"github.com/alnah/go-md2blog/internal/logger"
	"github.com/alnah/go-md2blog/internal/pipeline"
	"github.com/alnah/go-md2blog/internal/upload"
	"github.com/alnah/go-md2blog/internal/vault"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.HTMLConverter   = (*pipeline.GoldmarkConverter)(nil)
	_ pipeline.CSSInjector     = (*pipeline.CSSInjection)(nil)
	_ pipeline.Vault           = (*vault.Vault)(nil)
	_ pipeline.DiagramRenderer = diagramAdapter{}
	_ upload.Rasterizer        = (*diagram.Browser)(nil)
)

// Converter turns vault notes into blog bundles.
// Create with NewConverter, use Convert and Preview, and Close when done.
// A Converter is safe for concurrent use.
type Converter struct {
	cfg           converterConfig
	htmlConverter pipeline.HTMLConverter
	cssInjector   pipeline.CSSInjector
	page          *pipeline.PageRenderer
	css           string
	vault         *vault.Vault
	browser       *diagram.Browser
	pipeline      *pipeline.Pipeline
	log           *logger.Logger
}

// NewConverter creates a Converter. Without options it converts markdown
// content with no vault, no image host and no diagram renderers.
// Returns an error if the vault, assets or callout dialect are invalid.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg:         converterConfig{timeout: defaultTimeout},
		cssInjector: &pipeline.CSSInjection{},
	}

	for _, opt := range opts {
		opt(c)
	}

	var mdOpts []pipeline.MarkdownOption
	if c.cfg.noGFM {
		mdOpts = append(mdOpts, pipeline.WithoutGFM())
	}
	if c.cfg.noHardWraps {
		mdOpts = append(mdOpts, pipeline.WithoutHardWraps())
	}
	c.htmlConverter = pipeline.NewGoldmarkConverter(mdOpts...)

	c.log = logger.Discard()
	if c.cfg.logger != nil {
		c.log = &logger.Logger{Logger: c.cfg.logger}
	}

	lib, err := assets.Open(c.cfg.assetPath)
	if err != nil {
		return nil, convertAssetError(err)
	}
	defer func() { _ = lib.Close() }()

	if err := c.resolveStyle(lib); err != nil {
		return nil, err
	}
	tmpl, err := lib.Template(assets.PreviewTemplateName)
	if err != nil {
		return nil, convertAssetError(err)
	}
	if c.page, err = pipeline.NewPageRenderer(tmpl); err != nil {
		return nil, err
	}

	// pipeline.Vault must stay a nil interface when no vault is set.
	var pv pipeline.Vault
	if c.cfg.vaultRoot != "" {
		if c.vault, err = vault.Open(c.cfg.vaultRoot); err != nil {
			return nil, fmt.Errorf("opening vault: %w", err)
		}
		pv = c.vault
	}

	if c.cfg.mermaid != nil || (c.cfg.rasterizeSVG && c.cfg.uploader != nil) {
		c.browser = diagram.NewBrowser(c.cfg.browserTimeout)
	}

	c.pipeline, err = pipeline.New(pipeline.Config{
		Vault:       pv,
		Uploader:    c.imageUploader(),
		Diagrams:    c.diagramRenderers(),
		Converter:   c.htmlConverter,
		Dialect:     c.cfg.dialect,
		Markers:     pipeline.Markers(c.cfg.markers),
		WrapClass:   c.cfg.wrapClass,
		Concurrency: c.cfg.concurrency,
		Logger:      c.log,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("configuring pipeline: %w", err), c.Close())
	}
	return c, nil
}

// Convert runs the pipeline on one note and returns its bundle.
// The context is used for cancellation; the converter timeout also applies.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, input Input) (bundle *Bundle, err error) {
	defer func() {
		if r := recover(); r != nil {
			bundle = nil
			err = fmt.Errorf("%w: %v", ErrConversionPanic, r)
		}
	}()

	content, err := c.readInput(input)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.timeout)
	defer cancel()

	fm, _, fmErr := vault.SplitFrontmatter(content)
	if fmErr != nil {
		c.log.Warn("ignoring frontmatter", "path", input.Path, "err", fmErr)
		fm = map[string]any{}
	}

	htmlContent, err := c.pipeline.Run(ctx, content, pipeline.Document)
	if err != nil {
		if errors.Is(err, pipeline.ErrHTMLConversion) {
			return nil, wrapError(ErrHTMLConversion, err)
		}
		return nil, fmt.Errorf("converting %s: %w", displayName(input.Path), err)
	}

	b := &Bundle{
		Path:        input.Path,
		Title:       bundleTitle(input.Path, fm),
		Content:     htmlContent,
		Frontmatter: fm,
	}
	c.attachLinkData(b, content)
	return b, nil
}

// Refresh drops the vault file index so that files added or removed since
// the last conversion are found. No-op without a vault.
func (c *Converter) Refresh() {
	if c.vault != nil {
		c.vault.Refresh()
	}
}

// Close releases the headless Chrome browser, if one was started.
func (c *Converter) Close() error {
	if c.browser != nil {
		return c.browser.Close()
	}
	return nil
}

// readInput returns the markdown to convert.
//
// This is a TRUST BOUNDARY for direct library users who build Input manually.
func (c *Converter) readInput(input Input) (string, error) {
	if input.Content != "" {
		return input.Content, nil
	}
	if input.Path == "" {
		return "", ErrEmptyInput
	}
	if !fileutil.IsMarkdown(input.Path) {
		return "", fmt.Errorf("%w: %q", ErrNotMarkdown, input.Path)
	}
	if c.vault == nil {
		return "", fmt.Errorf("%w: cannot read %q", ErrNoVault, input.Path)
	}
	content, err := c.vault.ReadFile(input.Path)
	if err != nil {
		return "", fmt.Errorf("reading note: %w", err)
	}
	return content, nil
}

// attachLinkData fills labels, tags and hidden links. Notes of the vault
// get their backlinks; other content only its own links and tags.
func (c *Converter) attachLinkData(b *Bundle, content string) {
	raw, ok := c.vaultLinks(b.Path)
	if !ok {
		md, err := vault.ParseMetadata(content)
		if err != nil {
			return
		}
		raw = vault.Links{
			Outlinks:     append(slices.Clone(md.FrontmatterLinks), md.Links...),
			ContentLinks: md.Links,
			Tags:         md.Tags,
		}
	}

	set := linkdata.Build(raw, linkdata.Filters(c.cfg.filters))
	b.Labels = set.Labels
	b.Tags = slices.Sorted(slices.Values(set.Tags))
	if c.cfg.hiddenLinks && c.vault != nil {
		b.HiddenLinks = linkdata.HiddenLinksHTML(set, linkdata.VaultLookup(c.vault))
	}
}

func (c *Converter) vaultLinks(path string) (vault.Links, bool) {
	if c.vault == nil || path == "" {
		return vault.Links{}, false
	}
	raw, err := c.vault.LinksAndTags(path)
	if err != nil {
		c.log.Debug("no vault links", "path", path, "err", err)
		return vault.Links{}, false
	}
	return raw, true
}

// imageUploader returns the uploader handed to the pipeline, or nil.
func (c *Converter) imageUploader() pipeline.ImageUploader {
	if c.cfg.uploader == nil {
		return nil
	}
	if c.cfg.rasterizeSVG && c.browser != nil {
		return upload.NewSVGToPNG(c.cfg.uploader, c.browser)
	}
	return c.cfg.uploader
}

// diagramRenderers builds the renderer registry. Renderers registered with
// WithDiagramRenderer replace built-in ones for the same language.
func (c *Converter) diagramRenderers() map[string]pipeline.DiagramRenderer {
	var d2 *diagram.D2
	if c.cfg.d2 != nil {
		d2 = diagram.NewD2(c.cfg.d2.bin, c.cfg.d2.timeout)
	}
	var mermaid *diagram.Mermaid
	if c.cfg.mermaid != nil {
		mermaid = diagram.NewMermaid(c.browser,
			diagram.WithMermaidScript(c.cfg.mermaid.script),
			diagram.WithMermaidTheme(c.cfg.mermaid.theme),
		)
	}

	m := diagram.Renderers(d2, mermaid)
	for lang, r := range c.cfg.renderers {
		m[lang] = diagramAdapter{r: r}
	}
	return m
}

// resolveStyle resolves the style input (name, path, or CSS content) to CSS content.
// An empty input selects the default embedded style.
func (c *Converter) resolveStyle(lib *assets.Library) error {
	input := c.cfg.style
	if input == "" {
		input = assets.DefaultStyleName
	}

	if fileutil.IsFilePath(input) {
		content, err := os.ReadFile(input) // #nosec G304 -- user-provided path
		if err != nil {
			return fmt.Errorf("loading style file %q: %w", input, err)
		}
		c.css = string(content)
		return nil
	}

	if fileutil.IsCSS(input) {
		c.css = input
		return nil
	}

	css, err := lib.Style(input)
	if err != nil {
		return convertAssetError(err)
	}
	c.css = css
	return nil
}

// bundleTitle prefers the blogTitle frontmatter key, then the note name.
func bundleTitle(path string, fm map[string]any) string {
	if title := vault.PostMetaFrom(fm).Title; title != "" {
		return title
	}
	if path == "" {
		return ""
	}
	return vault.NoteName(path)
}

func displayName(path string) string {
	if path == "" {
		return "content"
	}
	return path
}

// diagramAdapter wraps a public DiagramRenderer for the pipeline.
type diagramAdapter struct {
	r DiagramRenderer
}

func (a diagramAdapter) RenderDiagram(ctx context.Context, source string) (pipeline.Diagram, error) {
	d, err := a.r.RenderDiagram(ctx, source)
	if err != nil {
		return pipeline.Diagram{}, err
	}
	return pipeline.Diagram{Data: d.Data, Ext: d.Ext}, nil
}
