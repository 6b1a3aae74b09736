package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/alnah/go-md2blog/internal/fileutil"
	"github.com/alnah/go-md2blog/internal/logger"
)

// diagramBlock matches a fenced block whose info string reads
// "<lang> render <alt>". Groups: language, alt text, body.
var diagramBlock = regexp.MustCompile("(?m)^[ \\t]*```[ \\t]*(\\w+)[ \\t]+render(?:[ \\t]+(.*?))?[ \\t]*\\n((?s:.*?))```")

// Diagram is a rendered diagram image.
type Diagram struct {
	Data []byte
	Ext  string // file extension without dot, e.g. "svg"
}

// DiagramRenderer compiles diagram source text into an image.
type DiagramRenderer interface {
	RenderDiagram(ctx context.Context, source string) (Diagram, error)
}

// DiagramStage replaces diagram code blocks with uploaded images.
// Blocks are rendered one at a time.
type DiagramStage struct {
	renderers map[string]DiagramRenderer
	uploader  ImageUploader
	log       *logger.Logger
}

// NewDiagramStage creates a DiagramStage. Renderer keys are language tags
// and are matched case-insensitively.
func NewDiagramStage(renderers map[string]DiagramRenderer, u ImageUploader, log *logger.Logger) *DiagramStage {
	byLang := make(map[string]DiagramRenderer, len(renderers))
	for lang, r := range renderers {
		byLang[strings.ToLower(lang)] = r
	}
	return &DiagramStage{renderers: byLang, uploader: u, log: logger.OrDiscard(log)}
}

// Render substitutes every diagram block in content. Unknown languages
// are re-emitted as plain fenced blocks; render or upload failures become
// an inline error message. Only context cancellation aborts the stage.
func (d *DiagramStage) Render(ctx context.Context, content string) (string, error) {
	locs := diagramBlock.FindAllStringSubmatchIndex(content, -1)
	if len(locs) == 0 {
		return content, nil
	}

	var b strings.Builder
	last := 0
	for _, loc := range locs {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		groups := submatches(content, loc)
		lang, alt, code := groups[0], strings.TrimSpace(groups[1]), strings.TrimSpace(groups[2])

		// The match may start with indentation; keep it with the gap.
		start := loc[0] + strings.Index(content[loc[0]:loc[1]], "```")
		b.WriteString(content[last:start])
		b.WriteString(d.renderBlock(ctx, lang, alt, code))
		last = loc[1]
	}
	b.WriteString(content[last:])
	return b.String(), nil
}

func (d *DiagramStage) renderBlock(ctx context.Context, lang, alt, code string) string {
	r, ok := d.renderers[strings.ToLower(lang)]
	if !ok {
		return fmt.Sprintf("```%s\n%s\n```", lang, code)
	}

	started := time.Now()
	url, err := d.renderAndUpload(ctx, r, lang, alt, code)
	if err != nil {
		d.log.DiagramFailed(lang, alt, err)
		return fmt.Sprintf("Error rendering %s diagram: %v", lang, err)
	}
	d.log.DiagramRendered(lang, alt, time.Since(started))

	if alt == "" {
		alt = lang + " diagram"
	}
	return fmt.Sprintf("![%s](%s)", alt, url)
}

func (d *DiagramStage) renderAndUpload(ctx context.Context, r DiagramRenderer, lang, alt, code string) (string, error) {
	img, err := r.RenderDiagram(ctx, code)
	if err != nil {
		return "", err
	}
	if d.uploader == nil {
		return "", ErrNoUploader
	}
	base := alt
	if base == "" {
		base = lang
	}
	ext := img.Ext
	if ext == "" {
		ext = "svg"
	}
	return d.uploader.Upload(ctx, img.Data, fileutil.UniqueName(base, ext))
}
