package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	md2blog "github.com/alnah/go-md2blog"
	"github.com/alnah/go-md2blog/internal/blogger"
	"github.com/alnah/go-md2blog/internal/config"
	"github.com/alnah/go-md2blog/internal/dateutil"
	"github.com/alnah/go-md2blog/internal/linkdata"
	"github.com/alnah/go-md2blog/internal/logger"
	"github.com/alnah/go-md2blog/internal/vault"
)

// publishPlan is a resolved publish call for one note.
type publishPlan struct {
	Note    string
	Blog    config.Blog
	Request blogger.PostRequest
}

// runPublish converts one note, publishes it to Blogger and writes the
// resulting article state back into the note's frontmatter.
func runPublish(ctx context.Context, args []string, f *publishFlags, env *Environment) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: publish takes exactly one note, got %d", ErrUsage, len(args))
	}
	if f.draft && f.public {
		return fmt.Errorf("%w: --draft and --public are mutually exclusive", ErrUsage)
	}

	s, err := openSession(&f.common, f.style, f.timeout, !f.dryRun, env)
	if err != nil {
		return err
	}
	defer s.Close()

	rel, err := resolveNote(s.vault, args[0])
	if err != nil {
		return err
	}

	conv, err := md2blog.NewConverter(s.setup.opts...)
	if err != nil {
		return err
	}
	defer conv.Close()

	bundle, err := conv.Convert(ctx, md2blog.Input{Path: rel})
	if err != nil {
		return err
	}

	plan, err := planPublish(s.cfg, f, bundle, conv.CSS())
	if err != nil {
		return err
	}

	if f.dryRun {
		printPlan(env, plan)
		return nil
	}

	pub, err := env.NewPublisher(ctx, &s.cfg.Blogger)
	if err != nil {
		return err
	}
	post, err := pub.Publish(ctx, plan.Blog.ID, plan.Request)
	if err != nil {
		return fmt.Errorf("publishing %s: %w", rel, err)
	}

	meta := publishedMeta(s.cfg, plan, post, env.Now().Location(), s.log)
	if err := s.vault.UpdateFrontmatter(rel, meta); err != nil {
		return fmt.Errorf("updating frontmatter of %s: %w", rel, err)
	}
	s.log.Published(rel, post.URL, plan.Request.IsDraft)

	if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "Published %s\n", post.URL)
	}
	if post.URL != "" && (f.open || s.cfg.Blogger.OpenBrowserAfterPublish) {
		if err := env.OpenURL(post.URL); err != nil {
			s.log.Warn("opening browser failed", "url", post.URL, "error", err)
		}
	}
	return nil
}

// planPublish builds the request from the bundle, the note's publishing
// state and the flags. Flags win over frontmatter, which wins over config.
func planPublish(cfg *config.Config, f *publishFlags, b *md2blog.Bundle, css string) (publishPlan, error) {
	meta := vault.PostMetaFrom(b.Frontmatter)

	blog, ok := selectBlog(&cfg.Blogger, f.blog, meta)
	if !ok {
		if f.blog != "" {
			return publishPlan{}, fmt.Errorf("%w: no configured blog %q", ErrNoBlog, f.blog)
		}
		return publishPlan{}, fmt.Errorf("%w: use --blog, set blogger.defaultBlog or add blogId to the note", ErrNoBlog)
	}

	req := blogger.PostRequest{
		Type:    blogger.TypePost,
		Title:   b.Title,
		Content: b.Content,
		IsDraft: meta.IsDraft,
	}
	if f.page || meta.Type == blogger.TypePage {
		req.Type = blogger.TypePage
	}
	if f.title != "" {
		req.Title = f.title
	}
	// An article id only identifies an article on the blog it came from.
	if meta.ArticleID != "" && (meta.BlogID == "" || meta.BlogID == blog.ID) {
		req.ArticleID = meta.ArticleID
	}
	switch {
	case f.draft:
		req.IsDraft = true
	case f.public:
		req.IsDraft = false
	}

	if req.Type == blogger.TypePost {
		req.Labels = meta.Labels
		if len(req.Labels) == 0 {
			req.Labels = linkdata.PublishLabels(
				linkdata.Set{Labels: b.Labels, Tags: b.Tags},
				cfg.Links.UseOutlinksForLabels,
				linkdata.ParseList(cfg.Links.LabelPrefixes),
			)
		}
	}

	if cfg.Links.MakeDataSet && b.HiddenLinks != "" {
		req.Content += "\n" + b.HiddenLinks
	}
	if cfg.HTML.IncludeCSSInPub && css != "" {
		req.Content = "<style>" + css + "</style>\n" + req.Content
	}

	return publishPlan{Note: b.Path, Blog: blog, Request: req}, nil
}

// selectBlog resolves the target blog: the flag, then the note's alias
// and id, then the configured default.
func selectBlog(cfg *config.BloggerConfig, flagBlog string, meta vault.PostMeta) (config.Blog, bool) {
	if flagBlog != "" {
		return cfg.FindBlog(flagBlog)
	}
	if meta.Alias != "" {
		if blog, ok := cfg.FindBlog(meta.Alias); ok {
			return blog, true
		}
	}
	if meta.BlogID != "" {
		if blog, ok := cfg.FindBlog(meta.BlogID); ok {
			return blog, true
		}
		return config.Blog{ID: meta.BlogID, URL: meta.BlogURL, Alias: meta.Alias}, true
	}
	return cfg.FindBlog("")
}

// publishedMeta is the frontmatter state written after a publish.
// Timestamps are shown in the configured date format; a timestamp that
// cannot be parsed is kept as returned.
func publishedMeta(cfg *config.Config, plan publishPlan, post *blogger.Post, loc *time.Location, lg *logger.Logger) vault.PostMeta {
	format := func(ts string) string {
		out, err := dateutil.FormatTimestamp(ts, cfg.Date.Format, cfg.Date.Language, loc)
		if err != nil {
			lg.Warn("keeping raw timestamp", "timestamp", ts, "error", err)
			return ts
		}
		return out
	}

	return vault.PostMeta{
		Alias:      plan.Blog.Alias,
		BlogID:     plan.Blog.ID,
		BlogURL:    plan.Blog.URL,
		Type:       plan.Request.Type,
		Title:      plan.Request.Title,
		ArticleID:  post.ID,
		ArticleURL: post.URL,
		Labels:     plan.Request.Labels,
		IsDraft:    plan.Request.IsDraft,
		Published:  format(post.Published),
		Updated:    format(post.Updated),
	}
}

// printPlan describes a publish call without sending it.
func printPlan(env *Environment, p publishPlan) {
	action := "create"
	if p.Request.ArticleID != "" {
		action = "update " + p.Request.ArticleID
	}
	fmt.Fprintf(env.Stdout, "Note:    %s\n", p.Note)
	fmt.Fprintf(env.Stdout, "Blog:    %s\n", p.Blog.ID)
	fmt.Fprintf(env.Stdout, "Action:  %s %s\n", action, p.Request.Type)
	fmt.Fprintf(env.Stdout, "Title:   %s\n", p.Request.Title)
	fmt.Fprintf(env.Stdout, "Labels:  %s\n", strings.Join(p.Request.Labels, ", "))
	fmt.Fprintf(env.Stdout, "Draft:   %t\n", p.Request.IsDraft)
	fmt.Fprintf(env.Stdout, "Content: %d bytes\n", len(p.Request.Content))
}
