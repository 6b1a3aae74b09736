package pipeline

import (
	"regexp"
	"strings"
)

// frontmatterBlock matches one leading metadata block delimited by --- lines.
var frontmatterBlock = regexp.MustCompile(`^\s*---[ \t]*\n(?:.*\n)*?---[ \t]*(?:\n|$)`)

// Markers clip content to the region between two marker strings.
// Empty markers are ignored.
type Markers struct {
	Start        string
	End          string
	IncludeStart bool
	IncludeEnd   bool
}

// StripFrontmatter removes a single leading frontmatter block.
// Content without a block is returned unchanged.
func StripFrontmatter(content string) string {
	loc := frontmatterBlock.FindStringIndex(content)
	if loc == nil {
		return content
	}
	return content[loc[1]:]
}

// TrimToMarkers clips content to the configured markers and trims
// surrounding whitespace. The end marker is searched from the start
// position, so an end marker preceding the start marker is ignored.
func TrimToMarkers(content string, m Markers) string {
	start, end := 0, len(content)

	if m.Start != "" {
		if i := strings.Index(content, m.Start); i != -1 {
			start = i
			if !m.IncludeStart {
				start = i + len(m.Start)
			}
		}
	}

	if m.End != "" {
		if i := strings.Index(content[start:], m.End); i != -1 {
			end = start + i
			if m.IncludeEnd {
				end += len(m.End)
			}
		}
	}

	return strings.TrimSpace(content[start:end])
}
