package pipeline

import (
	"context"
	"fmt"

	"github.com/alnah/go-md2blog/internal/logger"
)

// Mode selects which stages a run applies.
type Mode int

const (
	// Document runs every stage on a whole note.
	Document Mode = iota
	// Fragment skips the document-level stages (frontmatter, markers,
	// highlight and math wrapping, outer wrap class) for content that
	// already went through them, such as a callout body.
	Fragment
)

// Config holds the collaborators and options of a Pipeline.
type Config struct {
	Vault       Vault
	Uploader    ImageUploader
	Diagrams    map[string]DiagramRenderer
	Converter   HTMLConverter
	Dialect     string
	Markers     Markers
	WrapClass   string
	Concurrency int
	Logger      *logger.Logger
}

// Pipeline turns note markdown into publishable HTML.
type Pipeline struct {
	resolver  *Resolver
	diagrams  *DiagramStage
	callouts  CalloutRenderer
	converter HTMLConverter
	markers   Markers
	wrapClass string
}

// New builds a Pipeline. Missing collaborators get defaults: an empty
// vault, no uploader, no diagram renderers, and a GoldmarkConverter.
func New(cfg Config) (*Pipeline, error) {
	v := cfg.Vault
	if v == nil {
		v = emptyVault{}
	}
	conv := cfg.Converter
	if conv == nil {
		conv = NewGoldmarkConverter()
	}

	p := &Pipeline{
		resolver:  NewResolver(v, cfg.Uploader, cfg.Logger, cfg.Concurrency),
		diagrams:  NewDiagramStage(cfg.Diagrams, cfg.Uploader, cfg.Logger),
		converter: conv,
		markers:   cfg.Markers,
		wrapClass: cfg.WrapClass,
	}

	callouts, err := NewCalloutRenderer(cfg.Dialect, p, cfg.Concurrency)
	if err != nil {
		return nil, err
	}
	p.callouts = callouts
	return p, nil
}

// Run preprocesses content and converts it to HTML.
func (p *Pipeline) Run(ctx context.Context, content string, mode Mode) (string, error) {
	md, err := p.Preprocess(ctx, content, mode)
	if err != nil {
		return "", err
	}
	return p.Finish(ctx, md, mode)
}

// RenderFragment implements FragmentRenderer.
func (p *Pipeline) RenderFragment(ctx context.Context, markdown string) (string, error) {
	return p.Run(ctx, markdown, Fragment)
}

// Preprocess applies the markdown-to-markdown stages: frontmatter and
// marker trimming (documents only), then image, link and diagram
// resolution.
func (p *Pipeline) Preprocess(ctx context.Context, content string, mode Mode) (string, error) {
	content = Normalize(content)
	if mode == Document {
		content = StripFrontmatter(content)
		content = TrimToMarkers(content, p.markers)
	}

	var err error
	if content, err = p.resolver.ResolveImages(ctx, content); err != nil {
		return "", fmt.Errorf("resolving images: %w", err)
	}
	if content, err = p.resolver.ResolveLinks(ctx, content); err != nil {
		return "", fmt.Errorf("resolving links: %w", err)
	}
	if content, err = p.diagrams.Render(ctx, content); err != nil {
		return "", fmt.Errorf("rendering diagrams: %w", err)
	}
	return content, nil
}

// Finish converts preprocessed markdown to HTML: highlight and math
// wrapping, callouts, markdown conversion, list repair, YouTube embeds,
// image unwrapping, and the optional wrap class.
func (p *Pipeline) Finish(ctx context.Context, content string, mode Mode) (string, error) {
	stash := &BlockStash{}
	if mode == Document {
		content = ConvertHighlights(content)
		content = WrapMath(content, stash)
	}

	content, err := p.callouts.RenderCallouts(ctx, content, stash)
	if err != nil {
		return "", fmt.Errorf("rendering callouts: %w", err)
	}

	html, err := p.converter.ToHTML(ctx, content)
	if err != nil {
		return "", err
	}
	html = stash.Restore(html)

	html = RepairLists(html)
	html = EmbedYouTube(html)
	html = UnwrapImages(html)

	if mode == Document {
		html = WrapClass(html, p.wrapClass)
	}
	return html, nil
}

// emptyVault resolves nothing.
type emptyVault struct{}

func (emptyVault) FindFileByName(string) (string, bool) { return "", false }

func (emptyVault) ReadBytes(string) ([]byte, error) { return nil, ErrFileNotFound }

func (emptyVault) Frontmatter(string) (map[string]any, error) { return nil, ErrFileNotFound }
