package pipeline

import (
	"html"
	"regexp"
	"strings"
)

// Inline markdown styles applied inside callouts rendered without the
// markdown converter.
var (
	inlineBold   = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	inlineEm     = regexp.MustCompile(`\*([^*\n]+)\*`)
	inlineMark   = regexp.MustCompile(`==([^=\n]+)==`)
	inlineImage  = regexp.MustCompile(`!\[([^\]\n]*)\]\(([^)\s]+)\)`)
	inlineLink   = regexp.MustCompile(`\[([^\]\n]+)\]\(([^)\s]+)\)`)
	inlineCodeRe = regexp.MustCompile("`[^`\\n]+`")
)

// ApplyInlineStyles converts ![alt](src), **bold**, *em*, ==mark==, `code`
// and [text](url) to HTML. Code spans are converted first and their content
// is not restyled. A span touching another backtick is left alone.
func ApplyInlineStyles(s string) string {
	locs := inlineCodeRe.FindAllStringIndex(s, -1)

	var b strings.Builder
	last := 0
	for _, loc := range locs {
		if (loc[0] > 0 && s[loc[0]-1] == '`') || (loc[1] < len(s) && s[loc[1]] == '`') {
			continue
		}
		b.WriteString(styleText(s[last:loc[0]]))
		b.WriteString("<code>" + html.EscapeString(s[loc[0]+1:loc[1]-1]) + "</code>")
		last = loc[1]
	}
	b.WriteString(styleText(s[last:]))
	return b.String()
}

func styleText(s string) string {
	s = inlineImage.ReplaceAllStringFunc(s, func(m string) string {
		g := inlineImage.FindStringSubmatch(m)
		return `<img src="` + html.EscapeString(g[2]) + `" alt="` + html.EscapeString(g[1]) + `">`
	})
	s = inlineBold.ReplaceAllString(s, "<b>$1</b>")
	s = inlineEm.ReplaceAllString(s, "<em>$1</em>")
	s = inlineMark.ReplaceAllString(s, "<mark>$1</mark>")
	return inlineLink.ReplaceAllString(s, `<a href="$2">$1</a>`)
}
