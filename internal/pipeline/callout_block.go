package pipeline

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"
)

// FragmentRenderer converts a markdown fragment to HTML with every
// content stage of the pipeline, skipping document-level steps.
type FragmentRenderer interface {
	RenderFragment(ctx context.Context, markdown string) (string, error)
}

// Body lines that need the full markdown converter.
var (
	blockSyntax = regexp.MustCompile("^(#{1,6}\\s|>|\\||```|~~~|\\d+[.)]\\s|[*+]\\s|<)")
)

// BlockCallouts renders each callout block (header plus the quoted lines
// up to a blank or unquoted line) independently. Bodies holding only
// paragraphs and "-" lists use the line-scan body renderer; any other
// body runs through the full pipeline as a fragment, so callouts may
// contain images, diagrams, tables and nested callouts.
type BlockCallouts struct {
	fragments FragmentRenderer
	limit     int
}

// NewBlockCallouts creates a BlockCallouts. With a nil fragment renderer
// every body uses the line-scan body renderer.
func NewBlockCallouts(fragments FragmentRenderer, limit int) *BlockCallouts {
	if limit <= 0 {
		limit = DefaultResolveConcurrency
	}
	return &BlockCallouts{fragments: fragments, limit: limit}
}

// calloutSpan locates one callout block by line index, end exclusive.
type calloutSpan struct {
	first, end int
	c          callout
}

// RenderCallouts implements CalloutRenderer. Blocks render concurrently
// and are substituted in source order.
func (r *BlockCallouts) RenderCallouts(ctx context.Context, content string, stash *BlockStash) (string, error) {
	lines := strings.Split(content, "\n")
	spans := findCalloutBlocks(lines)
	if len(spans) == 0 {
		return content, nil
	}

	rendered := make([]string, len(spans))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit)
	for i, sp := range spans {
		g.Go(func() error {
			html, err := r.renderBlock(gCtx, sp.c)
			if err != nil {
				return err
			}
			rendered[i] = html
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var out []string
	last := 0
	for i, sp := range spans {
		out = append(out, lines[last:sp.first]...)
		if stash != nil {
			out = append(out, "", stash.Put(rendered[i]), "")
		} else {
			out = append(out, rendered[i], "")
		}
		last = sp.end
	}
	out = append(out, lines[last:]...)
	return strings.Join(out, "\n"), nil
}

func (r *BlockCallouts) renderBlock(ctx context.Context, c callout) (string, error) {
	if r.fragments == nil || isSimpleBody(c.body) {
		return c.wrap(ApplyInlineStyles(renderCalloutBody(c.body))), nil
	}

	body := make([]string, len(c.body))
	for i, line := range c.body {
		// One level of quoting was removed with the ">"; drop the space
		// that followed it so nested quotes stay quotes.
		body[i] = strings.TrimPrefix(line, " ")
	}
	html, err := r.fragments.RenderFragment(ctx, strings.Join(body, "\n"))
	if err != nil {
		return "", err
	}
	return c.wrap(strings.TrimSpace(html)), nil
}

// findCalloutBlocks returns every callout block in lines. A block ends
// at a blank line, an unquoted line, or the next header.
func findCalloutBlocks(lines []string) []calloutSpan {
	var spans []calloutSpan
	for i := 0; i < len(lines); {
		m := calloutHeader.FindStringSubmatch(lines[i])
		if m == nil {
			i++
			continue
		}
		sp := calloutSpan{first: i, c: callout{kind: m[1], title: m[2]}}
		j := i + 1
		for ; j < len(lines); j++ {
			line := lines[j]
			if !strings.HasPrefix(line, ">") || calloutHeader.MatchString(line) {
				break
			}
			sp.c.body = append(sp.c.body, line[1:])
		}
		sp.end = j
		spans = append(spans, sp)
		i = j
	}
	return spans
}

// isSimpleBody reports whether every body line is blank, a "-" list item,
// or plain paragraph text.
func isSimpleBody(body []string) bool {
	for _, line := range body {
		text := strings.TrimSpace(line)
		switch {
		case text == "":
		case strings.Contains(text, "!["):
			return false
		case strings.HasPrefix(text, "-"):
		case blockSyntax.MatchString(text):
			return false
		}
	}
	return true
}
