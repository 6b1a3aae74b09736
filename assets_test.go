package md2blog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-md2blog/internal/assets"
)

func TestConvertAssetError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"style not found", assets.ErrStyleNotFound, ErrStyleNotFound},
		{"template not found", assets.ErrTemplateNotFound, ErrTemplateNotFound},
		{"invalid dir", assets.ErrInvalidDir, ErrInvalidAssetPath},
		{"unreadable", assets.ErrUnreadable, ErrInvalidAssetPath},
		{"invalid name", assets.ErrInvalidName, ErrStyleNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			wrapped := fmt.Errorf("loading: %w", tt.in)
			got := convertAssetError(wrapped)
			if !errors.Is(got, tt.want) {
				t.Errorf("convertAssetError() = %v, want %v", got, tt.want)
			}
			if got.Error() != wrapped.Error() {
				t.Errorf("Error() = %q, want original message %q", got.Error(), wrapped.Error())
			}
		})
	}

	if convertAssetError(nil) != nil {
		t.Error("convertAssetError(nil) should be nil")
	}
	other := errors.New("other")
	if got := convertAssetError(other); got != other {
		t.Errorf("convertAssetError(other) = %v, want passthrough", got)
	}
}

func TestWithAssetPath_CustomOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for rel, content := range map[string]string{
		"styles/blog.css":        "h1 { color: teal; }",
		"templates/preview.html": "<html><head></head><body><h1>{{.Title}}</h1>{{.Content}}</body></html>",
	} {
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	conv := newTestConverter(t, WithAssetPath(dir), WithStyle("blog"))
	if conv.css != "h1 { color: teal; }" {
		t.Errorf("css = %q, want custom style", conv.css)
	}

	page, err := conv.Preview(t.Context(), &Bundle{Title: "T", Content: "<p>x</p>"}, "", nil)
	if err != nil {
		t.Fatalf("Preview() unexpected error: %v", err)
	}
	if !strings.Contains(page, "<h1>T</h1><p>x</p>") {
		t.Errorf("Preview() = %q, want custom template", page)
	}

	// Embedded styles remain reachable through the fallback
	conv = newTestConverter(t, WithAssetPath(dir), WithStyle(MinimalStyle))
	if conv.css == "" {
		t.Error("minimal style not loaded through fallback")
	}
}
