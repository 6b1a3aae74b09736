package pipeline

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-md2blog/internal/logger"
)

// DefaultResolveConcurrency bounds concurrent reference resolutions per run.
const DefaultResolveConcurrency = 8

// Reference patterns.
var (
	// ![[name.png]] or ![[name.png|300]]
	imageEmbedPattern = regexp.MustCompile(`(?i)!\[\[([^\]|]*?\.(?:png|jpe?g|gif|svg)(?:\.\w+)*)(?:\|[^\]]+)?\]\]`)

	// [[target]] or [[target|alias]]
	wikiLinkPattern = regexp.MustCompile(`\[\[([^\]]+)\]\]`)

	// Image link targets, with the same trailing extensions embeds allow.
	imageExtension = regexp.MustCompile(`(?i)\.(?:png|jpe?g|gif|svg)(?:\.\w+)*$`)
)

// Vault is the note store references are resolved against.
type Vault interface {
	// FindFileByName returns the vault path of the file with exactly this
	// base name. With duplicates, the first path in lexicographic order wins.
	FindFileByName(name string) (string, bool)
	ReadBytes(path string) ([]byte, error)
	Frontmatter(path string) (map[string]any, error)
}

// ImageUploader publishes image bytes and returns their public URL.
type ImageUploader interface {
	Upload(ctx context.Context, data []byte, name string) (string, error)
}

// Resolver replaces wiki-style embeds and links with external URLs.
// All references of one kind are resolved concurrently, then substituted
// in source order.
type Resolver struct {
	vault    Vault
	uploader ImageUploader
	log      *logger.Logger
	limit    int
}

// NewResolver creates a Resolver. A nil uploader leaves images unresolved.
func NewResolver(v Vault, u ImageUploader, log *logger.Logger, limit int) *Resolver {
	if limit <= 0 {
		limit = DefaultResolveConcurrency
	}
	return &Resolver{vault: v, uploader: u, log: logger.OrDiscard(log), limit: limit}
}

// match is one occurrence of a reference: its byte span and the index
// of the task producing its replacement.
type match struct {
	start, end int
	task       int
}

// resolveFunc computes the replacement for one distinct token.
// groups holds the submatches of the token's first occurrence.
type resolveFunc func(ctx context.Context, token string, groups []string) string

// fold runs a two-phase substitution. Phase one collects every match of re
// in order and schedules one task per distinct token text; phase two joins
// the tasks and rebuilds the content from literal gaps and resolved values.
func (r *Resolver) fold(ctx context.Context, content string, re *regexp.Regexp, resolve resolveFunc) (string, error) {
	locs := re.FindAllStringSubmatchIndex(content, -1)
	if len(locs) == 0 {
		return content, nil
	}

	matches := make([]match, 0, len(locs))
	taskIndex := make(map[string]int)
	var tokens []string
	var groups [][]string

	for _, loc := range locs {
		token := content[loc[0]:loc[1]]
		idx, seen := taskIndex[token]
		if !seen {
			idx = len(tokens)
			taskIndex[token] = idx
			tokens = append(tokens, token)
			groups = append(groups, submatches(content, loc))
		}
		matches = append(matches, match{start: loc[0], end: loc[1], task: idx})
	}

	results := make([]string, len(tokens))
	var g errgroup.Group
	g.SetLimit(r.limit)
	for i := range tokens {
		g.Go(func() error {
			results[i] = resolve(ctx, tokens[i], groups[i])
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(len(content))
	last := 0
	for _, m := range matches {
		b.WriteString(content[last:m.start])
		b.WriteString(results[m.task])
		last = m.end
	}
	b.WriteString(content[last:])
	return b.String(), nil
}

// submatches extracts the capture groups of one match location.
func submatches(content string, loc []int) []string {
	out := make([]string, 0, len(loc)/2)
	for i := 2; i+1 < len(loc); i += 2 {
		if loc[i] < 0 {
			out = append(out, "")
			continue
		}
		out = append(out, content[loc[i]:loc[i+1]])
	}
	return out
}

// ResolveImages replaces ![[image.ext]] embeds with markdown images
// pointing at the uploaded file. Missing files and failed uploads keep
// the original token.
func (r *Resolver) ResolveImages(ctx context.Context, content string) (string, error) {
	return r.fold(ctx, content, imageEmbedPattern, r.resolveImage)
}

func (r *Resolver) resolveImage(ctx context.Context, token string, groups []string) string {
	name := path.Base(groups[0])

	filePath, ok := r.vault.FindFileByName(name)
	if !ok {
		r.log.Unresolved(token, "file not found")
		return token
	}

	url, err := r.upload(ctx, filePath, name)
	if err != nil {
		r.log.UploadFailed(name, err)
		return token
	}
	return fmt.Sprintf("![%s](%s)", strings.TrimSuffix(name, path.Ext(name)), url)
}

// ResolveLinks replaces [[target|alias]] links. Image targets pass through;
// an SVG asset becomes a link to its upload; a note becomes a link to its
// published article; anything else becomes the bare display text.
func (r *Resolver) ResolveLinks(ctx context.Context, content string) (string, error) {
	return r.fold(ctx, content, wikiLinkPattern, r.resolveLink)
}

func (r *Resolver) resolveLink(ctx context.Context, token string, groups []string) string {
	target, display := splitLink(groups[0])
	if imageExtension.MatchString(target) {
		return token
	}

	if svgPath, ok := r.vault.FindFileByName(target + ".svg"); ok {
		url, err := r.upload(ctx, svgPath, target+".svg")
		if err == nil {
			return fmt.Sprintf("[%s](%s)", display, url)
		}
		r.log.UploadFailed(target+".svg", err)
		return display
	}

	notePath, ok := r.vault.FindFileByName(target + ".md")
	if !ok {
		r.log.Unresolved(token, "no matching note or asset")
		return display
	}

	fm, err := r.vault.Frontmatter(notePath)
	if err != nil {
		r.log.Unresolved(token, err.Error())
		return display
	}
	if url := StringField(fm, "blogArticleUrl"); url != "" {
		return fmt.Sprintf("[%s](%s)", display, url)
	}
	return display
}

// upload reads a vault file and sends it to the uploader.
func (r *Resolver) upload(ctx context.Context, filePath, name string) (string, error) {
	if r.uploader == nil {
		return "", ErrNoUploader
	}
	data, err := r.vault.ReadBytes(filePath)
	if err != nil {
		return "", err
	}
	url, err := r.uploader.Upload(ctx, data, name)
	if err != nil {
		return "", err
	}
	r.log.Uploaded(name, url)
	return url, nil
}

// splitLink separates a link body into its lookup target and display text.
// "Note#Heading|Alias" yields ("Note", "Alias"); "Note#Heading" yields
// ("Note", "Note#Heading").
func splitLink(raw string) (target, display string) {
	target, display = raw, raw
	if i := strings.Index(raw, "|"); i != -1 {
		target, display = raw[:i], raw[i+1:]
	}
	if i := strings.Index(target, "#"); i != -1 {
		target = target[:i]
	}
	return strings.TrimSpace(target), strings.TrimSpace(display)
}

// StringField returns a frontmatter value as a string, or "" when absent.
func StringField(fm map[string]any, key string) string {
	v, ok := fm[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
