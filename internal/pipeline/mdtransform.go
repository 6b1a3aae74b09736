package pipeline

import (
	"regexp"
	"strings"
)

// Precompiled regex patterns.
var (
	// Line ending normalization
	crlfOrCR = regexp.MustCompile(`\r\n?`)

	// Compress multiple blank lines to max 2
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)

	// Highlight syntax ==text==
	highlightPattern = regexp.MustCompile(`==([^\n=][^\n]*?)==`)

	// Fenced blocks and inline code spans, left untouched by text passes.
	codeRegion = regexp.MustCompile("(?ms)^[ \\t]*```.*?^[ \\t]*```[ \\t]*$|(?ms)^[ \\t]*~~~.*?^[ \\t]*~~~[ \\t]*$|`[^`\\n]+`")
)

// Math wrappers consumed by a client-side renderer.
const (
	mathInlineOpen   = `<span class="math math-inline">`
	mathInlineClose  = `</span>`
	mathDisplayOpen  = `<div class="math math-display">`
	mathDisplayClose = `</div>`
)

// Normalize converts line endings to \n and limits blank line runs.
func Normalize(content string) string {
	content = crlfOrCR.ReplaceAllString(content, "\n")
	return multipleBlankLines.ReplaceAllString(content, "\n\n")
}

// ConvertHighlights transforms ==text== into <mark>text</mark> outside code.
func ConvertHighlights(content string) string {
	return outsideCode(content, func(s string) string {
		return highlightPattern.ReplaceAllString(s, "<mark>$1</mark>")
	})
}

// WrapMath wraps $inline$ and $$display$$ math outside code.
// The math itself is kept verbatim; escaped \$ never delimits. Wrapped math
// is parked in stash so markdown conversion leaves the LaTeX alone; a nil
// stash inlines it.
func WrapMath(content string, stash *BlockStash) string {
	return outsideCode(content, func(s string) string {
		return wrapMathText(s, stash)
	})
}

// outsideCode applies fn to every region of content that is not code.
func outsideCode(content string, fn func(string) string) string {
	locs := codeRegion.FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		return fn(content)
	}

	var b strings.Builder
	last := 0
	for _, loc := range locs {
		b.WriteString(fn(content[last:loc[0]]))
		b.WriteString(content[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(fn(content[last:]))
	return b.String()
}

// wrapMathText scans s once, emitting display blocks first when both
// forms could start at the same dollar sign.
func wrapMathText(s string, stash *BlockStash) string {
	if !strings.Contains(s, "$") {
		return s
	}

	var b strings.Builder
	i := 0
	for i < len(s) {
		if s[i] != '$' || escaped(s, i) {
			b.WriteByte(s[i])
			i++
			continue
		}

		if strings.HasPrefix(s[i:], "$$") {
			if end := findDelim(s, i+2, "$$", true); end != -1 {
				b.WriteString(stash.Put(mathDisplayOpen + s[i:end+2] + mathDisplayClose))
				i = end + 2
				continue
			}
			b.WriteString("$$")
			i += 2
			continue
		}

		if end := inlineMathEnd(s, i); end != -1 {
			b.WriteString(stash.PutInline(mathInlineOpen + s[i:end+1] + mathInlineClose))
			i = end + 1
			continue
		}
		b.WriteByte('$')
		i++
	}
	return b.String()
}

// inlineMathEnd returns the index of the dollar closing the inline math
// opened at i, or -1. The content must be non-empty, on one line, and not
// padded with spaces, so prices like "$5 and $10" stay text.
func inlineMathEnd(s string, i int) int {
	start := i + 1
	if start >= len(s) || s[start] == ' ' || s[start] == '\t' || s[start] == '\n' {
		return -1
	}
	end := findDelim(s, start, "$", false)
	if end == -1 || end == start {
		return -1
	}
	if c := s[end-1]; c == ' ' || c == '\t' {
		return -1
	}
	if end+1 < len(s) && s[end+1] == '$' {
		return -1
	}
	return end
}

// findDelim finds the next unescaped delim at or after from.
// Without multiline, the search stops at the end of the line.
func findDelim(s string, from int, delim string, multiline bool) int {
	for j := from; j+len(delim) <= len(s); j++ {
		if s[j] == '\n' && !multiline {
			return -1
		}
		if strings.HasPrefix(s[j:], delim) && !escaped(s, j) {
			return j
		}
	}
	return -1
}

// escaped reports whether s[i] is preceded by an odd number of backslashes.
func escaped(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}
