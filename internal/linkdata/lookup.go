package linkdata

import (
	"fmt"
	"path"
	"strings"

	"github.com/alnah/go-md2blog/internal/vault"
)

// Notes is the part of a vault a Lookup reads.
type Notes interface {
	FindFileByName(name string) (string, bool)
	Frontmatter(path string) (map[string]any, error)
}

// URL keys checked in order on the linked note's frontmatter.
var urlKeys = []string{"PostUrl", vault.KeyArticleURL}

// VaultLookup resolves links against notes. A link may be a vault path
// ("dir/Note.md"), a file name ("Note.md") or a note name ("Note").
func VaultLookup(n Notes) Lookup {
	return func(link string) (Target, bool) {
		p, ok := locate(n, link)
		if !ok {
			return Target{}, false
		}
		fm, err := n.Frontmatter(p)
		if err != nil {
			return Target{}, false
		}
		for _, key := range urlKeys {
			if v, ok := fm[key]; ok && v != nil {
				if url := strings.TrimSpace(fmt.Sprint(v)); url != "" {
					return Target{Name: vault.NoteName(p), URL: url}, true
				}
			}
		}
		return Target{}, false
	}
}

func locate(n Notes, link string) (string, bool) {
	if strings.Contains(link, "/") {
		p := link
		if path.Ext(p) == "" {
			p += ".md"
		}
		if _, err := n.Frontmatter(p); err == nil {
			return p, true
		}
		link = path.Base(link)
	}
	if path.Ext(link) == "" {
		return n.FindFileByName(link + ".md")
	}
	return n.FindFileByName(link)
}
