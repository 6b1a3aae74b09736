package main

// Notes:
// - poolAdapter: we test Acquire/Release/Size and panic on wrong type.
// - runMain: we test exit codes and output for dispatch, help, version and
//   usage errors. A full convert run goes through the real converter on a
//   temp vault without uploads.
// - hintFor: we test that known errors map to a hint.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	md2blog "github.com/alnah/go-md2blog"
	"github.com/alnah/go-md2blog/internal/blogger"
	"github.com/alnah/go-md2blog/internal/config"
	"github.com/alnah/go-md2blog/internal/diagram"
)

// ---------------------------------------------------------------------------
// TestPoolAdapter - Pool adapter behavior
// ---------------------------------------------------------------------------

func TestPoolAdapter_AcquireRelease(t *testing.T) {
	t.Parallel()

	pool := md2blog.NewConverterPool(1)
	defer pool.Close()

	adapter := &poolAdapter{pool: pool}

	conv, err := adapter.Acquire()
	if err != nil {
		t.Fatalf("Acquire() unexpected error: %v", err)
	}
	if _, ok := conv.(*md2blog.Converter); !ok {
		t.Errorf("Acquire() returned %T, want *md2blog.Converter", conv)
	}
	adapter.Release(conv)
}

func TestPoolAdapter_Release_WrongType(t *testing.T) {
	t.Parallel()

	pool := md2blog.NewConverterPool(1)
	defer pool.Close()

	adapter := &poolAdapter{pool: pool}

	// Release with wrong type should panic (programmer error)
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for wrong type, got none")
		}
		msg, ok := r.(string)
		if !ok {
			t.Fatalf("expected string panic, got %T", r)
		}
		if !strings.Contains(msg, "unexpected type") {
			t.Errorf("panic message should contain 'unexpected type', got %q", msg)
		}
	}()

	adapter.Release(&fakeConverter{})
}

func TestPoolAdapter_Size(t *testing.T) {
	t.Parallel()

	pool := md2blog.NewConverterPool(3)
	defer pool.Close()

	adapter := &poolAdapter{pool: pool}

	if adapter.Size() != 3 {
		t.Errorf("Size() = %d, want 3", adapter.Size())
	}
}

// ---------------------------------------------------------------------------
// TestRunMain - Command dispatch and exit codes
// ---------------------------------------------------------------------------

func TestRunMain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no command", []string{"md2blog"}, ExitUsage, "", "Usage: md2blog"},
		{"unknown command", []string{"md2blog", "frobnicate"}, ExitUsage, "", "unknown command: frobnicate"},
		{"version", []string{"md2blog", "version"}, ExitSuccess, "md2blog " + Version, ""},
		{"help", []string{"md2blog", "help"}, ExitSuccess, "Commands:", ""},
		{"help publish", []string{"md2blog", "help", "publish"}, ExitSuccess, "Usage: md2blog publish", ""},
		{"help unknown", []string{"md2blog", "help", "nope"}, ExitUsage, "", "unknown command: nope"},
		{"convert --help", []string{"md2blog", "convert", "--help"}, ExitSuccess, "", "Usage: md2blog convert"},
		{"unknown flag", []string{"md2blog", "convert", "--bogus"}, ExitUsage, "", "error:"},
		{"publish without note", []string{"md2blog", "publish"}, ExitUsage, "", "exactly one note"},
		{"publish draft and public", []string{"md2blog", "publish", "--draft", "--public", "a.md"}, ExitUsage, "", "mutually exclusive"},
		{"serve with args", []string{"md2blog", "serve", "extra"}, ExitUsage, "", "no arguments"},
		{"negative workers", []string{"md2blog", "convert", "--workers", "-1"}, ExitUsage, "", "invalid worker count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := testEnv(t.TempDir())
			code := runMain(tt.args, env)

			if code != tt.wantCode {
				t.Errorf("runMain() = %d, want %d\nstderr: %s", code, tt.wantCode, stderr.String())
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want to contain %q", stdout.String(), tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want to contain %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestRunMain_ConvertVault(t *testing.T) {
	t.Parallel()

	dir := writeVault(t, map[string]string{
		"posts/Hello.md": "---\nblogTitle: Hello there\n---\n# Hello\n\nBody.",
		"Other.md":       "Other note.",
	})
	out := t.TempDir()
	env, stdout, stderr := testEnv(dir)

	code := runMain([]string{"md2blog", "convert", "--no-upload", "-o", out}, env)
	if code != ExitSuccess {
		t.Fatalf("runMain() = %d, want %d\nstderr: %s", code, ExitSuccess, stderr.String())
	}

	page, err := os.ReadFile(filepath.Join(out, "posts", "Hello.html"))
	if err != nil {
		t.Fatalf("expected preview for posts/Hello.md: %v", err)
	}
	if !strings.Contains(string(page), "<title>Hello there</title>") {
		t.Errorf("preview missing title:\n%s", page)
	}
	if _, err := os.Stat(filepath.Join(out, "Other.html")); err != nil {
		t.Errorf("expected preview for Other.md: %v", err)
	}
	if !strings.Contains(stdout.String(), "2 succeeded, 0 failed") {
		t.Errorf("stdout = %q, want summary", stdout.String())
	}
}

func TestRunMain_ConvertMissingNote(t *testing.T) {
	t.Parallel()

	dir := writeVault(t, map[string]string{"a.md": "x"})
	env, _, stderr := testEnv(dir)

	code := runMain([]string{"md2blog", "convert", "--no-upload", "missing.md"}, env)
	if code != ExitIO {
		t.Errorf("runMain() = %d, want %d\nstderr: %s", code, ExitIO, stderr.String())
	}
}

// ---------------------------------------------------------------------------
// TestHintFor - Actionable hints
// ---------------------------------------------------------------------------

func TestHintFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"config not found", fmt.Errorf("loading: %w", config.ErrConfigNotFound), "--config"},
		{"missing credentials", blogger.ErrCredentials, "credentialsFile"},
		{"missing token", blogger.ErrNoToken, "md2blog auth"},
		{"unauthorized", &blogger.APIError{StatusCode: 401}, "md2blog auth"},
		{"timeout", fmt.Errorf("converting: %w", context.DeadlineExceeded), "--timeout"},
		{"write html", ErrWriteHTML, "writable"},
		{"d2 missing", diagram.ErrD2NotFound, "d2"},
		{"style not found", md2blog.ErrStyleNotFound, "minimal"},
		{"unknown", errors.New("boom"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := hintFor(tt.err)
			if tt.want == "" {
				if got != "" {
					t.Errorf("hintFor() = %q, want empty", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("hintFor() = %q, want to contain %q", got, tt.want)
			}
		})
	}
}
