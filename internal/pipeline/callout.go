package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
)

// Callout dialect names accepted by NewCalloutRenderer.
const (
	DialectBlock    = "block"
	DialectLineScan = "linescan"
)

// CheckboxGlyph replaces a task marker at the start of a callout list item.
const CheckboxGlyph = "☑️"

var (
	// > [!kind] optional title
	calloutHeader = regexp.MustCompile(`^>\s?\[!([\w-]+)\][+-]?\s*(.*?)\s*$`)

	// Leading quote marker and following whitespace of a body line.
	quotePrefix = regexp.MustCompile(`^>\s*`)
)

// CalloutRenderer turns callout blocks into HTML inside markdown content.
// Rendered blocks are parked in stash when it is non-nil, so the markdown
// converter never sees them; with a nil stash the HTML is inlined.
type CalloutRenderer interface {
	RenderCallouts(ctx context.Context, content string, stash *BlockStash) (string, error)
}

// NewCalloutRenderer returns the renderer for a dialect name. An empty
// name selects the block dialect. fragments is only used by the block
// dialect.
func NewCalloutRenderer(dialect string, fragments FragmentRenderer, limit int) (CalloutRenderer, error) {
	switch strings.ToLower(dialect) {
	case "", DialectBlock:
		return NewBlockCallouts(fragments, limit), nil
	case DialectLineScan:
		return LineScanCallouts{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, dialect)
	}
}

// BlockStash holds rendered HTML behind placeholder tokens so the markdown
// converter never parses it.
type BlockStash struct {
	id      uint64
	entries []stashEntry
}

// stashIDs keeps tokens of nested stashes apart.
var stashIDs atomic.Uint64

type stashEntry struct {
	html   string
	inline bool
}

func (s *BlockStash) token(i int) string {
	return "\uE002" + strconv.FormatUint(s.id, 10) + ":" + strconv.Itoa(i) + "\uE003"
}

// Put stores a block and returns the text that stands in for it.
// A nil stash returns block itself.
func (s *BlockStash) Put(block string) string {
	return s.put(block, false)
}

// PutInline stores inline HTML. Its token keeps the paragraph it sits in.
func (s *BlockStash) PutInline(html string) string {
	return s.put(html, true)
}

func (s *BlockStash) put(html string, inline bool) string {
	if s == nil {
		return html
	}
	if s.id == 0 {
		s.id = stashIDs.Add(1)
	}
	s.entries = append(s.entries, stashEntry{html: html, inline: inline})
	return s.token(len(s.entries) - 1)
}

// Restore swaps placeholders in converted HTML for their content. Blocks
// drop the paragraph the converter wrapped around them. Later entries are
// restored first since they may hold tokens of earlier ones.
func (s *BlockStash) Restore(html string) string {
	if s == nil {
		return html
	}
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		token := s.token(i)
		if !e.inline {
			html = strings.Replace(html, "<p>"+token+"</p>", e.html, 1)
		}
		html = strings.Replace(html, token, e.html, 1)
	}
	return html
}

// callout is one parsed admonition.
type callout struct {
	kind  string
	title string
	body  []string // lines without their first quote marker
}

// wrap assembles the callout HTML around already rendered body HTML.
func (c callout) wrap(bodyHTML string) string {
	title := c.title
	if title == "" {
		title = c.kind
	}
	return strings.Join([]string{
		fmt.Sprintf(`<div class="callout callout-%s">`, strings.ToLower(c.kind)),
		`<div class="callout-title">` + ApplyInlineStyles(title) + `</div>`,
		`<div class="callout-content">`,
		bodyHTML,
		`</div>`,
		`</div>`,
	}, "\n")
}

// ---------------------------------------------------------------------------
// Line-scan dialect
// ---------------------------------------------------------------------------

// LineScanCallouts renders callouts with a single top-to-bottom line scan.
// A callout runs from its header to the first line that is neither quoted
// nor a new header. Bodies are rendered by renderCalloutBody.
type LineScanCallouts struct{}

// RenderCallouts implements CalloutRenderer.
func (LineScanCallouts) RenderCallouts(ctx context.Context, content string, stash *BlockStash) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var out []string
	var open *callout

	flush := func() {
		if open == nil {
			return
		}
		html := open.wrap(ApplyInlineStyles(renderCalloutBody(open.body)))
		if stash != nil {
			out = append(out, "", stash.Put(html), "")
		} else {
			out = append(out, html, "")
		}
		open = nil
	}

	for _, line := range strings.Split(content, "\n") {
		if m := calloutHeader.FindStringSubmatch(line); m != nil {
			flush()
			open = &callout{kind: m[1], title: m[2]}
			continue
		}
		if open != nil && strings.HasPrefix(line, ">") {
			open.body = append(open.body, line[1:])
			continue
		}
		flush()
		out = append(out, line)
	}
	flush()

	return strings.Join(out, "\n"), nil
}

// renderCalloutBody renders stripped body lines to paragraphs and nested
// lists. Paragraph lines are joined with <br>; list depth follows the
// indentation of "-" items relative to the shallowest item; any other
// text line closes every open list.
func renderCalloutBody(lines []string) string {
	minIndent, unit := listIndentMetrics(lines)

	var out, paragraph []string
	depth := 0

	flushParagraph := func() {
		if len(paragraph) > 0 {
			out = append(out, "<p>"+strings.Join(paragraph, "<br>")+"</p>")
			paragraph = nil
		}
	}
	closeLists := func(to int) {
		for depth > to {
			out = append(out, "</ul>")
			depth--
		}
	}

	for _, line := range lines {
		cleaned := quotePrefix.ReplaceAllString(line, "")
		stripped := strings.TrimLeft(cleaned, " \t")

		if strings.TrimSpace(stripped) == "" {
			flushParagraph()
			continue
		}

		if strings.HasPrefix(stripped, "-") {
			flushParagraph()

			indent := len(cleaned) - len(stripped)
			level := max(0, (indent-minIndent)/unit) + 1

			closeLists(level)
			for depth < level {
				out = append(out, "<ul>")
				depth++
			}
			out = append(out, "<li>"+checkbox(strings.TrimSpace(stripped[1:]))+"</li>")
			continue
		}

		closeLists(0)
		paragraph = append(paragraph, strings.TrimRight(stripped, " \t"))
	}

	flushParagraph()
	closeLists(0)
	return strings.Join(out, "\n")
}

// listIndentMetrics returns the smallest indent among list lines and the
// indent unit: the smallest positive offset from it. Without list lines
// both default so that every indent maps to level one.
func listIndentMetrics(lines []string) (minIndent, unit int) {
	var indents []int
	for _, line := range lines {
		cleaned := quotePrefix.ReplaceAllString(line, "")
		stripped := strings.TrimLeft(cleaned, " \t")
		if strings.HasPrefix(stripped, "-") {
			indents = append(indents, len(cleaned)-len(stripped))
		}
	}
	if len(indents) == 0 {
		return 0, 1
	}

	minIndent = indents[0]
	for _, in := range indents[1:] {
		minIndent = min(minIndent, in)
	}
	for _, in := range indents {
		if d := in - minIndent; d > 0 && (unit == 0 || d < unit) {
			unit = d
		}
	}
	if unit == 0 {
		unit = 1
	}
	return minIndent, unit
}

// checkbox replaces a leading "[ ]" or "[x]" task marker with the glyph.
func checkbox(item string) string {
	if len(item) >= 3 && (strings.HasPrefix(item, "[ ]") || strings.EqualFold(item[:3], "[x]")) {
		return strings.TrimSpace(CheckboxGlyph + " " + strings.TrimSpace(item[3:]))
	}
	return item
}
