package vault

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/alnah/go-md2blog/internal/yamlutil"
)

var (
	// Leading frontmatter block. Group 1 is the YAML body.
	frontmatterRe = regexp.MustCompile(`^\s*---[ \t]*\n((?:.*\n)*?)---[ \t]*(?:\n|$)`)

	// [[target]], [[target|alias]], ![[embed]]
	wikilinkRe = regexp.MustCompile(`!?\[\[([^\]]+)\]\]`)

	// Inline #tag preceded by start of line or whitespace.
	tagRe = regexp.MustCompile(`(?:^|\s)#([\p{L}_][\p{L}\p{N}_/-]*)`)

	// Fenced code, skipped when collecting tags and links.
	fenceRe = regexp.MustCompile("(?ms)^[ \\t]*(```|~~~).*?^[ \\t]*(```|~~~)[ \\t]*$")
)

// Metadata is what a note declares about itself.
type Metadata struct {
	Frontmatter      map[string]any
	Tags             []string // "#tag" form, frontmatter first, then inline
	Links            []string // content link targets in source order
	FrontmatterLinks []string // wikilink targets inside frontmatter values
}

// Frontmatter parses the frontmatter of a note. A note without a block
// yields an empty map.
func (v *Vault) Frontmatter(rel string) (map[string]any, error) {
	content, err := v.ReadFile(rel)
	if err != nil {
		return nil, err
	}
	fm, _, err := SplitFrontmatter(content)
	if err != nil {
		return nil, fmt.Errorf("vault: %s: %w", rel, err)
	}
	return fm, nil
}

// Metadata parses the frontmatter, tags and links of a note.
func (v *Vault) Metadata(rel string) (Metadata, error) {
	content, err := v.ReadFile(rel)
	if err != nil {
		return Metadata{}, err
	}
	md, err := ParseMetadata(content)
	if err != nil {
		return Metadata{}, fmt.Errorf("vault: %s: %w", rel, err)
	}
	return md, nil
}

// ParseMetadata extracts Metadata from note text.
func ParseMetadata(content string) (Metadata, error) {
	fm, body, err := SplitFrontmatter(content)
	if err != nil {
		return Metadata{}, err
	}
	body = fenceRe.ReplaceAllString(body, "")
	return Metadata{
		Frontmatter:      fm,
		Tags:             append(frontmatterTags(fm), inlineTags(body)...),
		Links:            LinkTargets(body),
		FrontmatterLinks: frontmatterLinks(fm),
	}, nil
}

// SplitFrontmatter separates the YAML frontmatter from the body. Invalid
// YAML is an error; a missing or empty block yields an empty map.
func SplitFrontmatter(content string) (map[string]any, string, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	m := frontmatterRe.FindStringSubmatchIndex(content)
	if m == nil {
		return map[string]any{}, content, nil
	}

	block := content[m[2]:m[3]]
	body := content[m[1]:]

	fm, err := yamlutil.UnmarshalMapping([]byte(block))
	if err != nil {
		return nil, "", fmt.Errorf("invalid frontmatter: %w", err)
	}
	return fm, body, nil
}

// LinkTargets returns the target of every wikilink and embed in text, in
// order and with duplicates. Aliases and heading suffixes are removed.
func LinkTargets(text string) []string {
	var out []string
	for _, m := range wikilinkRe.FindAllStringSubmatch(text, -1) {
		if target := linkTarget(m[1]); target != "" {
			out = append(out, target)
		}
	}
	return out
}

func linkTarget(raw string) string {
	if i := strings.Index(raw, "|"); i != -1 {
		raw = raw[:i]
	}
	if i := strings.Index(raw, "#"); i != -1 {
		raw = raw[:i]
	}
	return strings.TrimSpace(raw)
}

// frontmatterTags reads the "tags" key as a list or a comma/space
// separated string.
func frontmatterTags(fm map[string]any) []string {
	var raw []string
	switch v := fm["tags"].(type) {
	case string:
		raw = strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' })
	case []any:
		for _, item := range v {
			if item != nil {
				raw = append(raw, fmt.Sprint(item))
			}
		}
	}

	var out []string
	for _, t := range raw {
		if t = strings.TrimPrefix(strings.TrimSpace(t), "#"); t != "" {
			out = append(out, "#"+t)
		}
	}
	return out
}

func inlineTags(body string) []string {
	var out []string
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		out = append(out, "#"+m[1])
	}
	return out
}

// frontmatterLinks collects wikilink targets from every string value,
// descending into lists and maps. Keys are visited in sorted order.
func frontmatterLinks(fm map[string]any) []string {
	var out []string
	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case string:
			out = append(out, LinkTargets(t)...)
		case []any:
			for _, item := range t {
				walk(item)
			}
		case map[string]any:
			keys := make([]string, 0, len(t))
			for k := range t {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				walk(t[k])
			}
		}
	}
	walk(fm)
	return out
}

// NoteName returns the base name of a vault path without its extension.
func NoteName(rel string) string {
	base := path.Base(rel)
	return strings.TrimSuffix(base, path.Ext(base))
}
