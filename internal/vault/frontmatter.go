package vault

import (
	"fmt"
	"strconv"
	"strings"
)

// Frontmatter keys written back after publishing.
const (
	KeyAlias      = "blogAlias"
	KeyBlogID     = "blogId"
	KeyBlogURL    = "blogUrl"
	KeyType       = "blogType"
	KeyTitle      = "blogTitle"
	KeyArticleID  = "blogArticleId"
	KeyArticleURL = "blogArticleUrl"
	KeyLabels     = "blogLabels"
	KeyIsDraft    = "blogIsDraft"
	KeyPublished  = "blogPublished"
	KeyUpdated    = "blogUpdated"
)

// PostMeta is the publishing state kept in a note's frontmatter.
type PostMeta struct {
	Alias      string
	BlogID     string
	BlogURL    string
	Type       string // "post" or "page"
	Title      string
	ArticleID  string
	ArticleURL string
	Labels     []string
	IsDraft    bool
	Published  string
	Updated    string
}

// field is one frontmatter entry in serialized form.
type field struct {
	key, value string
}

// fields returns the entries to write, in canonical key order. Empty
// strings are skipped; the draft flag is always written.
func (m PostMeta) fields() []field {
	all := []field{
		{KeyAlias, m.Alias},
		{KeyBlogID, m.BlogID},
		{KeyBlogURL, m.BlogURL},
		{KeyType, m.Type},
		{KeyTitle, m.Title},
		{KeyArticleID, m.ArticleID},
		{KeyArticleURL, m.ArticleURL},
		{KeyLabels, strings.Join(m.Labels, ", ")},
		{KeyIsDraft, strconv.FormatBool(m.IsDraft)},
		{KeyPublished, m.Published},
		{KeyUpdated, m.Updated},
	}
	out := all[:0]
	for _, f := range all {
		if f.value != "" {
			out = append(out, f)
		}
	}
	return out
}

// PostMetaFrom reads publishing state from parsed frontmatter. Keys are
// matched as written or with a capitalized first letter ("BlogId").
func PostMetaFrom(fm map[string]any) PostMeta {
	get := func(key string) string {
		for _, k := range []string{key, strings.ToUpper(key[:1]) + key[1:]} {
			if v, ok := fm[k]; ok && v != nil {
				return strings.TrimSpace(fmt.Sprint(v))
			}
		}
		return ""
	}

	m := PostMeta{
		Alias:      get(KeyAlias),
		BlogID:     get(KeyBlogID),
		BlogURL:    get(KeyBlogURL),
		Type:       get(KeyType),
		Title:      get(KeyTitle),
		ArticleID:  get(KeyArticleID),
		ArticleURL: get(KeyArticleURL),
		Published:  get(KeyPublished),
		Updated:    get(KeyUpdated),
	}
	m.IsDraft, _ = strconv.ParseBool(get(KeyIsDraft))

	switch labels := fm[KeyLabels].(type) {
	case []any:
		for _, l := range labels {
			if s := strings.TrimSpace(fmt.Sprint(l)); s != "" {
				m.Labels = append(m.Labels, s)
			}
		}
	default:
		for _, l := range strings.Split(get(KeyLabels), ",") {
			if s := strings.TrimSpace(l); s != "" {
				m.Labels = append(m.Labels, s)
			}
		}
	}
	return m
}

// MergeFrontmatter writes meta into the frontmatter of content. Existing
// entries keep their order and formatting; publishing keys already present
// are replaced in place, new ones are appended. Publishing values are
// double-quoted. Content without a block gets a new one.
func MergeFrontmatter(content string, meta PostMeta) string {
	fields := meta.fields()
	normalized := strings.ReplaceAll(content, "\r\n", "\n")

	m := frontmatterRe.FindStringSubmatchIndex(normalized)
	if m == nil {
		var b strings.Builder
		b.WriteString("---\n")
		for _, f := range fields {
			b.WriteString(f.line() + "\n")
		}
		b.WriteString("---\n\n")
		b.WriteString(normalized)
		return b.String()
	}

	block := strings.TrimSuffix(normalized[m[2]:m[3]], "\n")
	merged := mergeBlock(block, fields)

	var b strings.Builder
	b.WriteString(normalized[:m[2]])
	if merged != "" {
		b.WriteString(merged + "\n")
	}
	b.WriteString(normalized[m[3]:])
	return b.String()
}

// UpdateFrontmatter merges meta into the note at rel and writes it back.
func (v *Vault) UpdateFrontmatter(rel string, meta PostMeta) error {
	content, err := v.ReadFile(rel)
	if err != nil {
		return err
	}
	return v.WriteFile(rel, []byte(MergeFrontmatter(content, meta)))
}

func (f field) line() string {
	return f.key + ": " + strconv.Quote(f.value)
}

// mergeBlock replaces or appends fields in a YAML block. A top-level entry
// spans its key line and every following indented, list or blank line.
func mergeBlock(block string, fields []field) string {
	pending := make(map[string]field, len(fields))
	for _, f := range fields {
		pending[f.key] = f
	}

	var lines []string
	if block != "" {
		lines = strings.Split(block, "\n")
	}

	var out []string
	skipping := false
	for _, line := range lines {
		if key, ok := topLevelKey(line); ok {
			skipping = false
			if f, found := pending[key]; found {
				out = append(out, f.line())
				delete(pending, key)
				skipping = true
				continue
			}
		} else if skipping {
			continue
		}
		out = append(out, line)
	}

	for _, f := range fields {
		if _, left := pending[f.key]; left {
			out = append(out, f.line())
		}
	}
	return strings.Join(out, "\n")
}

// topLevelKey returns the key of an unindented "key:" line.
func topLevelKey(line string) (string, bool) {
	if line == "" || line[0] == ' ' || line[0] == '\t' || line[0] == '-' || line[0] == '#' {
		return "", false
	}
	i := strings.Index(line, ":")
	if i <= 0 {
		return "", false
	}
	key := strings.TrimSpace(line[:i])
	return strings.Trim(key, `"'`), true
}
