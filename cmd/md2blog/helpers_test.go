package main

// Notes:
// - This file contains test helpers and fakes used across command tests.
// No coverage gaps: this is test infrastructure, not production code.

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	md2blog "github.com/alnah/go-md2blog"
	"github.com/alnah/go-md2blog/internal/blogger"
	"github.com/alnah/go-md2blog/internal/config"
	"github.com/alnah/go-md2blog/internal/vault"
)

// ---------------------------------------------------------------------------
// Vault and environment
// ---------------------------------------------------------------------------

// writeVault writes files (vault path -> content) into a temp dir and
// returns its path.
func writeVault(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for rel, content := range files {
		abs := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
			t.Fatalf("failed to create dir for %s: %v", rel, err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", rel, err)
		}
	}
	return dir
}

// openVault opens dir as a vault.
func openVault(t *testing.T, dir string) *vault.Vault {
	t.Helper()

	v, err := vault.Open(dir)
	if err != nil {
		t.Fatalf("vault.Open() unexpected error: %v", err)
	}
	return v
}

// testEnv returns an environment writing to buffers, with a default
// config rooted at dir.
func testEnv(dir string) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	cfg := config.DefaultConfig()
	cfg.Vault.Root = dir
	env := &Environment{
		Now:     func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) },
		Stdout:  &stdout,
		Stderr:  &stderr,
		Config:  cfg,
		OpenURL: func(string) error { return nil },
		NewPublisher: func(context.Context, *config.BloggerConfig) (Publisher, error) {
			return nil, errors.New("no publisher in tests")
		},
	}
	return env, &stdout, &stderr
}

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

// fakeConverter records converted notes and renders a fixed page.
type fakeConverter struct {
	mu        sync.Mutex
	calls     []string
	refreshed int
	err       error
}

func (f *fakeConverter) Convert(_ context.Context, in md2blog.Input) (*md2blog.Bundle, error) {
	f.mu.Lock()
	f.calls = append(f.calls, in.Path)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &md2blog.Bundle{Path: in.Path, Title: in.Path, Content: "<p>" + in.Path + "</p>"}, nil
}

func (f *fakeConverter) Preview(_ context.Context, b *md2blog.Bundle, _ string, mapPath md2blog.PathMapper) (string, error) {
	page := "<html>" + b.Content
	if mapPath != nil {
		page += `<img src="` + mapPath("/elsewhere/a.png") + `">`
	}
	return page + "</html>", nil
}

func (f *fakeConverter) Refresh() {
	f.mu.Lock()
	f.refreshed++
	f.mu.Unlock()
}

func (f *fakeConverter) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshed
}

func (f *fakeConverter) getCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fakePool hands out one shared fakeConverter.
type fakePool struct {
	conv       *fakeConverter
	size       int
	acquireErr error
}

func (p *fakePool) Acquire() (CLIConverter, error) {
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	return p.conv, nil
}

func (p *fakePool) Release(CLIConverter) {}

func (p *fakePool) Size() int { return p.size }

// fakePublisher records publish requests and returns post.
type fakePublisher struct {
	blogID string
	req    blogger.PostRequest
	post   *blogger.Post
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, blogID string, req blogger.PostRequest) (*blogger.Post, error) {
	p.blogID = blogID
	p.req = req
	if p.err != nil {
		return nil, p.err
	}
	return p.post, nil
}
