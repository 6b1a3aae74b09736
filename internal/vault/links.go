package vault

import (
	"path"
	"strings"
)

// Links is the raw link graph around one note, before any filtering.
type Links struct {
	Outlinks     []string // frontmatter links then content links
	ContentLinks []string // content links only, source order
	Backlinks    []string // vault paths of notes linking here
	Tags         []string
}

// LinksAndTags gathers the outlinks, backlinks and tags of a note.
func (v *Vault) LinksAndTags(rel string) (Links, error) {
	md, err := v.Metadata(rel)
	if err != nil {
		return Links{}, err
	}
	backlinks, err := v.Backlinks(rel)
	if err != nil {
		return Links{}, err
	}

	outlinks := make([]string, 0, len(md.FrontmatterLinks)+len(md.Links))
	outlinks = append(outlinks, md.FrontmatterLinks...)
	outlinks = append(outlinks, md.Links...)

	return Links{
		Outlinks:     outlinks,
		ContentLinks: md.Links,
		Backlinks:    backlinks,
		Tags:         md.Tags,
	}, nil
}

// Backlinks returns the sorted paths of notes whose body links to rel.
// A link matches by note name, by file name, or by vault path with or
// without the extension. Notes that cannot be parsed are skipped.
func (v *Vault) Backlinks(rel string) ([]string, error) {
	notes, err := v.Notes()
	if err != nil {
		return nil, err
	}

	targets := linkAliases(rel)
	var out []string
	for _, note := range notes {
		if note == rel {
			continue
		}
		content, err := v.ReadFile(note)
		if err != nil {
			continue
		}
		_, body, err := SplitFrontmatter(content)
		if err != nil {
			body = content
		}
		for _, link := range LinkTargets(fenceRe.ReplaceAllString(body, "")) {
			if targets[strings.ToLower(link)] {
				out = append(out, note)
				break
			}
		}
	}
	return out, nil
}

// linkAliases lists the lower-cased link texts that point at rel.
func linkAliases(rel string) map[string]bool {
	noExt := strings.TrimSuffix(rel, path.Ext(rel))
	return map[string]bool{
		strings.ToLower(rel):            true,
		strings.ToLower(noExt):          true,
		strings.ToLower(path.Base(rel)): true,
		strings.ToLower(NoteName(rel)):  true,
	}
}
