// Package linkdata derives publishing labels and hidden related-link
// markup from a note's link graph.
package linkdata

import (
	"html"
	"strings"

	"github.com/alnah/go-md2blog/internal/vault"
)

// Filters narrow the raw link graph.
type Filters struct {
	IncludePrefixes       []string // keep only links starting with one of these; empty keeps all
	ExcludeExtensions     []string // drop links ending in ".<ext>"
	LabelPrefixes         []string // content links starting with one of these become labels
	ExcludeTagsContaining []string
}

// Set is the filtered link data of one note.
type Set struct {
	Backlinks []string
	Outlinks  []string
	Labels    []string
	Tags      []string
}

// ParseList splits a comma separated setting, trimming items and dropping
// empty ones.
func ParseList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Build applies f to raw links.
func Build(raw vault.Links, f Filters) Set {
	return Set{
		Backlinks: f.links(raw.Backlinks),
		Outlinks:  f.links(raw.Outlinks),
		Labels:    f.labels(raw.ContentLinks),
		Tags:      f.tags(raw.Tags),
	}
}

// links dedupes, then applies the prefix and extension filters.
func (f Filters) links(in []string) []string {
	var out []string
	for _, link := range dedupe(in) {
		if len(f.IncludePrefixes) > 0 && !hasAnyPrefix(link, f.IncludePrefixes) {
			continue
		}
		if hasAnyExtension(link, f.ExcludeExtensions) {
			continue
		}
		out = append(out, link)
	}
	return out
}

// labels keeps content links matching a label prefix, case-insensitively,
// in source order with duplicates.
func (f Filters) labels(links []string) []string {
	var out []string
	for _, link := range links {
		lower := strings.ToLower(link)
		for _, p := range f.LabelPrefixes {
			if strings.HasPrefix(lower, strings.ToLower(p)) {
				out = append(out, link)
				break
			}
		}
	}
	return out
}

func (f Filters) tags(in []string) []string {
	var kept []string
	for _, tag := range in {
		excluded := false
		for _, sub := range f.ExcludeTagsContaining {
			if strings.Contains(tag, sub) {
				excluded = true
				break
			}
		}
		if !excluded {
			kept = append(kept, tag)
		}
	}
	return dedupe(kept)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func hasAnyExtension(s string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(s, "."+strings.TrimPrefix(ext, ".")) {
			return true
		}
	}
	return false
}

// Target is a published note a hidden link points to.
type Target struct {
	Name string
	URL  string
}

// Lookup resolves a backlink path or outlink name to its published
// article. ok is false for notes that were never published.
type Lookup func(link string) (t Target, ok bool)

// HiddenLinksHTML renders backlinks and outlinks of published notes as
// hidden anchors under "Related Links". Nothing published yields "".
func HiddenLinksHTML(s Set, lookup Lookup) string {
	backlinks := anchors(s.Backlinks, "backlink", lookup)
	outlinks := anchors(s.Outlinks, "outlink", lookup)

	var b strings.Builder
	if backlinks != "" || outlinks != "" {
		b.WriteString("<h2 class=\"hidden link-heading\">Related Links</h2>\n")
	}
	if backlinks != "" {
		b.WriteString("<h3 class=\"hidden link-heading\">Backlinks</h3>\n" + backlinks)
	}
	if outlinks != "" {
		b.WriteString("<h3 class=\"hidden link-heading\">Outlinks</h3>\n" + outlinks)
	}
	return b.String()
}

func anchors(links []string, class string, lookup Lookup) string {
	var out []string
	for _, link := range links {
		t, ok := lookup(link)
		if !ok || t.URL == "" {
			continue
		}
		out = append(out, `<a href="`+html.EscapeString(t.URL)+`" class="`+class+` hiddenlink">`+html.EscapeString(t.Name)+`</a>`)
	}
	return strings.Join(out, "\n")
}

// PublishLabels picks the labels sent to the blog: tags without "#", or,
// with useLinks, label links with their "<prefix> " lead removed.
func PublishLabels(s Set, useLinks bool, labelPrefixes []string) []string {
	var out []string
	if !useLinks {
		for _, tag := range s.Tags {
			if t := strings.TrimPrefix(tag, "#"); t != "" {
				out = append(out, t)
			}
		}
		return dedupe(out)
	}

	for _, label := range s.Labels {
		for _, p := range labelPrefixes {
			if len(label) >= len(p)+1 && strings.EqualFold(label[:len(p)], p) && label[len(p)] == ' ' {
				label = label[len(p)+1:]
				break
			}
		}
		if label = strings.TrimSpace(label); label != "" {
			out = append(out, label)
		}
	}
	return dedupe(out)
}
