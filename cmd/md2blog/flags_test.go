package main

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	flag "github.com/spf13/pflag"
)

// ---------------------------------------------------------------------------
// TestParseFlags - Per-command flag parsing
// ---------------------------------------------------------------------------

func TestParseConvertFlags(t *testing.T) {
	t.Parallel()

	f, pos, err := parseConvertFlags([]string{
		"-c", "work", "--vault", "/v", "-q", "--style", "minimal",
		"-o", "/out", "-w", "3", "-t", "45s", "--no-upload", "a.md", "posts",
	}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseConvertFlags() unexpected error: %v", err)
	}

	want := &convertFlags{
		common:   commonFlags{config: "work", vault: "/v", quiet: true},
		style:    styleFlags{style: "minimal"},
		output:   "/out",
		workers:  3,
		timeout:  "45s",
		noUpload: true,
	}
	if !reflect.DeepEqual(f, want) {
		t.Errorf("flags = %+v, want %+v", f, want)
	}
	if !reflect.DeepEqual(pos, []string{"a.md", "posts"}) {
		t.Errorf("positional = %v, want [a.md posts]", pos)
	}
}

func TestParsePublishFlags(t *testing.T) {
	t.Parallel()

	f, pos, err := parsePublishFlags([]string{"-b", "side", "--title", "T", "--page", "--draft", "-n", "--open", "note.md"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parsePublishFlags() unexpected error: %v", err)
	}
	if f.blog != "side" || f.title != "T" || !f.page || !f.draft || !f.dryRun || !f.open || f.public {
		t.Errorf("flags = %+v", f)
	}
	if len(pos) != 1 || pos[0] != "note.md" {
		t.Errorf("positional = %v, want [note.md]", pos)
	}
}

func TestParseServeFlags_Defaults(t *testing.T) {
	t.Parallel()

	f, _, err := parseServeFlags(nil, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseServeFlags() unexpected error: %v", err)
	}
	if f.addr != "127.0.0.1:8080" || f.upload {
		t.Errorf("flags = %+v, want default addr without uploads", f)
	}
}

func TestParseWatchFlags_Defaults(t *testing.T) {
	t.Parallel()

	f, _, err := parseWatchFlags([]string{"-v"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseWatchFlags() unexpected error: %v", err)
	}
	if f.debounce != "300ms" || !f.common.verbose {
		t.Errorf("flags = %+v, want 300ms debounce and verbose", f)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		parse func([]string) error
		args  []string
	}{
		{"convert unknown flag", func(a []string) error { _, _, err := parseConvertFlags(a, &bytes.Buffer{}); return err }, []string{"--pdf"}},
		{"convert bad workers", func(a []string) error { _, _, err := parseConvertFlags(a, &bytes.Buffer{}); return err }, []string{"-w", "many"}},
		{"auth unknown flag", func(a []string) error { _, _, err := parseAuthFlags(a, &bytes.Buffer{}); return err }, []string{"--style", "x"}},
		{"doctor unknown flag", func(a []string) error { _, _, err := parseDoctorFlags(a, &bytes.Buffer{}); return err }, []string{"--yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if err := tt.parse(tt.args); !errors.Is(err, ErrUsage) {
				t.Errorf("error = %v, want ErrUsage", err)
			}
		})
	}
}

func TestParseFlags_Help(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	_, _, err := parseWatchFlags([]string{"--help"}, &buf)
	if !errors.Is(err, flag.ErrHelp) {
		t.Errorf("error = %v, want flag.ErrHelp", err)
	}
	if !strings.Contains(buf.String(), "Usage: md2blog watch") {
		t.Errorf("usage = %q, want watch usage", buf.String())
	}
}
