package md2blog

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// Callout dialect names accepted by WithCalloutDialect.
const (
	DialectBlock    = "block"
	DialectLineScan = "linescan"
)

// Input identifies the note to convert.
type Input struct {
	Path    string // vault-relative note path; drives the title and link data
	Content string // note markdown; read from the vault at Path when empty
}

// Bundle is a converted note ready for preview or publishing.
type Bundle struct {
	Path        string
	Title       string
	Content     string   // HTML
	Labels      []string // label links in source order
	Tags        []string // sorted
	HiddenLinks string   // HTML fragment, empty unless enabled
	Frontmatter map[string]any
}

// Markers clip a note to the region between two marker strings.
type Markers struct {
	Start        string
	End          string
	IncludeStart bool
	IncludeEnd   bool
}

// LinkFilters narrow the link graph used for labels, tags and hidden links.
type LinkFilters struct {
	IncludePrefixes       []string
	ExcludeExtensions     []string
	LabelPrefixes         []string
	ExcludeTagsContaining []string
}

// Uploader stores image bytes and returns their public URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, name string) (string, error)
}

// Diagram is a rendered diagram image.
type Diagram struct {
	Data []byte
	Ext  string // without dot, e.g. "svg"
}

// DiagramRenderer compiles diagram source into an image.
type DiagramRenderer interface {
	RenderDiagram(ctx context.Context, source string) (Diagram, error)
}

// Option configures a Converter.
type Option func(*Converter)

// converterConfig holds internal configuration for Converter.
type converterConfig struct {
	timeout        time.Duration
	browserTimeout time.Duration
	vaultRoot      string
	uploader       Uploader
	renderers      map[string]DiagramRenderer
	d2             *d2Settings
	mermaid        *mermaidSettings
	rasterizeSVG   bool
	dialect        string
	markers        Markers
	wrapClass      string
	noGFM          bool
	noHardWraps    bool
	concurrency    int
	filters        LinkFilters
	hiddenLinks    bool
	style          string
	assetPath      string
	logger         *log.Logger
}

type d2Settings struct {
	bin     string
	timeout time.Duration
}

type mermaidSettings struct {
	script string
	theme  string
}

// defaultTimeout is used when no timeout is specified.
const defaultTimeout = 2 * time.Minute

// WithTimeout bounds a single Convert call.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("md2blog: WithTimeout duration must be positive")
	}
	return func(c *Converter) {
		c.cfg.timeout = d
	}
}

// WithVault sets the vault root directory. Without a vault, embeds and
// links cannot resolve and no link data is built.
func WithVault(root string) Option {
	return func(c *Converter) {
		c.cfg.vaultRoot = root
	}
}

// WithUploader sets the image host for embedded images and diagrams.
func WithUploader(u Uploader) Option {
	return func(c *Converter) {
		c.cfg.uploader = u
	}
}

// WithSVGRasterizing converts SVG uploads to PNG in headless Chrome first,
// for hosts that reject SVG.
func WithSVGRasterizing() Option {
	return func(c *Converter) {
		c.cfg.rasterizeSVG = true
	}
}

// WithDiagramRenderer registers r for code blocks tagged lang. It takes
// precedence over the built-in d2 and mermaid renderers.
func WithDiagramRenderer(lang string, r DiagramRenderer) Option {
	return func(c *Converter) {
		if c.cfg.renderers == nil {
			c.cfg.renderers = make(map[string]DiagramRenderer)
		}
		c.cfg.renderers[lang] = r
	}
}

// WithD2 enables d2 blocks using the d2 executable at bin ("" searches
// $PATH). A non-positive timeout uses the renderer default.
func WithD2(bin string, timeout time.Duration) Option {
	return func(c *Converter) {
		c.cfg.d2 = &d2Settings{bin: bin, timeout: timeout}
	}
}

// WithMermaid enables mermaid blocks, rendered in headless Chrome.
// Empty script or theme keep the defaults.
func WithMermaid(script, theme string) Option {
	return func(c *Converter) {
		c.cfg.mermaid = &mermaidSettings{script: script, theme: theme}
	}
}

// WithBrowserTimeout bounds each headless Chrome operation.
func WithBrowserTimeout(d time.Duration) Option {
	return func(c *Converter) {
		c.cfg.browserTimeout = d
	}
}

// WithCalloutDialect selects the callout parser: DialectBlock (default) or
// DialectLineScan.
func WithCalloutDialect(name string) Option {
	return func(c *Converter) {
		c.cfg.dialect = name
	}
}

// WithMarkers clips every note to the region between markers.
func WithMarkers(m Markers) Option {
	return func(c *Converter) {
		c.cfg.markers = m
	}
}

// WithWrapClass wraps converted content in a div of this class.
func WithWrapClass(class string) Option {
	return func(c *Converter) {
		c.cfg.wrapClass = class
	}
}

// WithMarkdown toggles GitHub-flavored extensions and hard line breaks,
// both on by default.
func WithMarkdown(gfm, hardWraps bool) Option {
	return func(c *Converter) {
		c.cfg.noGFM = !gfm
		c.cfg.noHardWraps = !hardWraps
	}
}

// WithConcurrency caps parallel uploads and callout renders per note.
func WithConcurrency(n int) Option {
	return func(c *Converter) {
		c.cfg.concurrency = n
	}
}

// WithLinkFilters sets the filters applied to the note's link graph.
func WithLinkFilters(f LinkFilters) Option {
	return func(c *Converter) {
		c.cfg.filters = f
	}
}

// WithHiddenLinks appends hidden anchors to published backlinks and
// outlinks in Bundle.HiddenLinks.
func WithHiddenLinks() Option {
	return func(c *Converter) {
		c.cfg.hiddenLinks = true
	}
}

// WithStyle sets the preview CSS: a style name, a file path, or CSS content.
func WithStyle(style string) Option {
	return func(c *Converter) {
		c.cfg.style = style
	}
}

// WithAssetPath sets a directory whose styles/ and templates/ override the
// embedded assets.
func WithAssetPath(path string) Option {
	return func(c *Converter) {
		c.cfg.assetPath = path
	}
}

// WithLogger sets the logger for unresolved references, uploads and
// diagram rendering. Defaults to discarding.
func WithLogger(l *log.Logger) Option {
	return func(c *Converter) {
		c.cfg.logger = l
	}
}
