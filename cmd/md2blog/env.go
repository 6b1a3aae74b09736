package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/alnah/go-md2blog/internal/blogger"
	"github.com/alnah/go-md2blog/internal/config"
)

// Publisher creates or updates an article on a blog.
type Publisher interface {
	Publish(ctx context.Context, blogID string, req blogger.PostRequest) (*blogger.Post, error)
}

// Compile-time interface implementation check.
var _ Publisher = (*blogger.Client)(nil)

// Environment holds injectable dependencies for testability.
// Includes I/O, time, configuration, browser opening and the blog client.
type Environment struct {
	Now          func() time.Time
	Stdout       io.Writer
	Stderr       io.Writer
	Config       *config.Config // Used as is when set, skipping file and env lookup
	OpenURL      func(url string) error
	NewPublisher func(ctx context.Context, cfg *config.BloggerConfig) (Publisher, error)
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:          time.Now,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		OpenURL:      openInBrowser,
		NewPublisher: newBloggerClient,
	}
}

// openInBrowser opens url with the system default browser.
func openInBrowser(url string) error {
	launcher.Open(url)
	return nil
}

// newBloggerClient builds an authorized Blogger client from the stored
// OAuth token.
func newBloggerClient(ctx context.Context, cfg *config.BloggerConfig) (Publisher, error) {
	oc, err := blogger.LoadOAuthConfig(cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	ts, err := blogger.TokenSource(ctx, oc, blogger.NewTokenStore(tokenPath(cfg)))
	if err != nil {
		return nil, err
	}
	return blogger.NewClient(blogger.HTTPClient(ctx, ts)), nil
}

// tokenPath returns the configured token file or the one derived from the
// credentials file.
func tokenPath(cfg *config.BloggerConfig) string {
	if cfg.TokenFile != "" {
		return cfg.TokenFile
	}
	return blogger.DefaultTokenPath(cfg.CredentialsFile)
}
