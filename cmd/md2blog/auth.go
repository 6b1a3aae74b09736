package main

import (
	"context"
	"fmt"

	"github.com/alnah/go-md2blog/internal/blogger"
	"github.com/alnah/go-md2blog/internal/config"
	"github.com/alnah/go-md2blog/internal/logger"
)

// runAuth authorizes md2blog against Google, stores the token and checks
// that the configured blogs are reachable.
func runAuth(ctx context.Context, args []string, f *authFlags, env *Environment) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: auth takes no arguments, got %d", ErrUsage, len(args))
	}

	cfg, err := loadConfig(&f.common, env)
	if err != nil {
		return err
	}
	lg := newLogger(env.Stderr, cfg, &f.common)

	oc, err := blogger.LoadOAuthConfig(cfg.Blogger.CredentialsFile)
	if err != nil {
		return err
	}
	store := blogger.NewTokenStore(tokenPath(&cfg.Blogger))

	tok, err := blogger.Authorize(ctx, oc, func(u string) error {
		fmt.Fprintf(env.Stdout, "Opening the Google consent page. If no browser opens, visit:\n  %s\n", u)
		return env.OpenURL(u)
	})
	if err != nil {
		return err
	}
	if err := store.Save(tok); err != nil {
		return err
	}
	if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "Token saved to %s\n", store.Path())
	}

	ts, err := blogger.TokenSource(ctx, oc, store)
	if err != nil {
		return err
	}
	client := blogger.NewClient(blogger.HTTPClient(ctx, ts))
	for _, blog := range cfg.Blogger.Blogs {
		if blog.URL == "" {
			continue
		}
		checkBlog(ctx, client, blog, env, lg, f.common.quiet)
	}
	return nil
}

// checkBlog resolves a configured blog by URL and reports id mismatches.
func checkBlog(ctx context.Context, client *blogger.Client, blog config.Blog, env *Environment, lg *logger.Logger, quiet bool) {
	got, err := client.BlogByURL(ctx, blog.URL)
	if err != nil {
		lg.Warn("blog not reachable", "url", blog.URL, "error", err)
		return
	}
	if got.ID != blog.ID {
		lg.Warn("blog id mismatch", "url", blog.URL, "configured", blog.ID, "actual", got.ID)
		return
	}
	if !quiet {
		fmt.Fprintf(env.Stdout, "Blog %q (%s): OK\n", got.Name, got.ID)
	}
}
