package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// Notes:
// - These run the full stage chain with in-memory collaborators and the
//   real goldmark converter; assertions check fragments of the output.

func newTestPipeline(t *testing.T, dialect string) *Pipeline {
	t.Helper()

	v := newFakeVault().
		add("img/a.png", "png").
		add("notes/Other.md", "x")
	v.frontmatter["notes/Other.md"] = map[string]any{"blogArticleUrl": "https://blog.test/other"}

	p, err := New(Config{
		Vault:     v,
		Uploader:  &fakeUploader{},
		Diagrams:  map[string]DiagramRenderer{"d2": &fakeRenderer{}},
		Dialect:   dialect,
		WrapClass: "post",
	})
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	return p
}

// ---------------------------------------------------------------------------
// TestPipeline_Run - End to end
// ---------------------------------------------------------------------------

func TestPipeline_Run(t *testing.T) {
	t.Parallel()

	input := "---\ntitle: x\n---\n# Hello\n\nSee ![[a.png]] and [[Other]] ==now==.\n\n> [!note] Hi\n> - item\n"

	for _, dialect := range []string{DialectBlock, DialectLineScan} {
		t.Run(dialect, func(t *testing.T) {
			t.Parallel()

			got, err := newTestPipeline(t, dialect).Run(context.Background(), input, Document)
			if err != nil {
				t.Fatalf("Run() unexpected error: %v", err)
			}

			wants := []string{
				`<h1 id="hello">Hello</h1>`,
				`<img src="https://img.test/a.png" alt="a">`,
				`<a href="https://blog.test/other">Other</a>`,
				`<mark>now</mark>`,
				`<div class="callout callout-note">`,
				`<li>item</li>`,
			}
			for _, want := range wants {
				if !strings.Contains(got, want) {
					t.Errorf("Run() output missing %q\n%s", want, got)
				}
			}
			if !strings.HasPrefix(got, `<div class="post">`) {
				t.Errorf("Run() output not wrapped: %q", got)
			}
			if strings.Contains(got, "title: x") {
				t.Errorf("Run() output kept frontmatter: %q", got)
			}
			if strings.ContainsAny(got, "\uE002\uE003") {
				t.Errorf("Run() output kept stash placeholders: %q", got)
			}
		})
	}
}

func TestPipeline_CalloutWithImage(t *testing.T) {
	t.Parallel()

	got, err := newTestPipeline(t, DialectBlock).Run(context.Background(), "> [!info] Pic\n> ![[a.png]]", Document)
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}

	want := "<div class=\"callout-content\">\n<img src=\"https://img.test/a.png\" alt=\"a\">\n</div>"
	if !strings.Contains(got, want) {
		t.Errorf("Run() = %q, want image inside callout content", got)
	}
}

func TestPipeline_Diagram(t *testing.T) {
	t.Parallel()

	got, err := newTestPipeline(t, "").Run(context.Background(), "```d2 render Flow\na -> b\n```", Document)
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	if !strings.Contains(got, `<img src="https://img.test/flow-`) || !strings.Contains(got, `alt="Flow"`) {
		t.Errorf("Run() = %q, want uploaded diagram image", got)
	}
}

func TestPipeline_Math(t *testing.T) {
	t.Parallel()

	got, err := newTestPipeline(t, "").Run(context.Background(), "Area $a^2$ only.", Document)
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	if !strings.Contains(got, `<span class="math math-inline">$a^2$</span>`) {
		t.Errorf("Run() = %q, want wrapped inline math", got)
	}
}

func TestPipeline_MathVerbatim(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"emphasis markers", "Area $a*b*c$ here", `<span class="math math-inline">$a*b*c$</span>`},
		{"escaped braces", `Set $\{x\}$ here`, `<span class="math math-inline">$\{x\}$</span>`},
		{"underscores", "Sum $x_1 + y_1$ here", `<span class="math math-inline">$x_1 + y_1$</span>`},
		{"display", "$$\na*b*c\n$$", "<div class=\"math math-display\">$$\na*b*c\n$$</div>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := newTestPipeline(t, "").Run(context.Background(), tt.input, Document)
			if err != nil {
				t.Fatalf("Run() unexpected error: %v", err)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("Run(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if strings.Contains(got, "<p>"+mathDisplayOpen) {
				t.Errorf("Run(%q) = %q, display math left inside a paragraph", tt.input, got)
			}
		})
	}
}

func TestPipeline_MathInsideCallout(t *testing.T) {
	t.Parallel()

	for _, dialect := range []string{DialectBlock, DialectLineScan} {
		t.Run(dialect, func(t *testing.T) {
			t.Parallel()

			got, err := newTestPipeline(t, dialect).Run(context.Background(), "> [!note] Area\n> is $a*b*c$ here", Document)
			if err != nil {
				t.Fatalf("Run() unexpected error: %v", err)
			}
			if !strings.Contains(got, `<span class="math math-inline">$a*b*c$</span>`) {
				t.Errorf("Run() = %q, want verbatim math in the callout", got)
			}
			if strings.Contains(got, "\uE002") {
				t.Errorf("Run() = %q, placeholder left behind", got)
			}
		})
	}
}

func TestPipeline_MissingSizedImageKept(t *testing.T) {
	t.Parallel()

	for _, dialect := range []string{DialectBlock, DialectLineScan} {
		t.Run(dialect, func(t *testing.T) {
			t.Parallel()

			p := newTestPipeline(t, dialect)
			for _, input := range []string{"![[missing.png|300]]", "> [!note] Pic\n> ![[missing.png|300]]"} {
				got, err := p.Run(context.Background(), input, Document)
				if err != nil {
					t.Fatalf("Run() unexpected error: %v", err)
				}
				if !strings.Contains(got, "![[missing.png|300]]") {
					t.Errorf("Run(%q) = %q, want the original embed kept", input, got)
				}
			}
		})
	}
}

func TestPipeline_Markers(t *testing.T) {
	t.Parallel()

	p, err := New(Config{Markers: Markers{Start: "<!-- start -->", End: "<!-- end -->"}})
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}

	got, err := p.Run(context.Background(), "private\n<!-- start -->\npublic\n<!-- end -->\nhidden", Document)
	if err != nil {
		t.Fatalf("Run() unexpected error: %v", err)
	}
	if got != "<p>public</p>\n" {
		t.Errorf("Run() = %q, want only the marked region", got)
	}
}

func TestPipeline_FragmentSkipsDocumentStages(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t, "")
	got, err := p.RenderFragment(context.Background(), "---\na: 1\n---\n==x==")
	if err != nil {
		t.Fatalf("RenderFragment() unexpected error: %v", err)
	}
	if strings.Contains(got, `class="post"`) {
		t.Errorf("RenderFragment() = %q, want no wrap class", got)
	}
	if strings.Contains(got, "<mark>") {
		t.Errorf("RenderFragment() = %q, want highlights left to the document pass", got)
	}
}

func TestPipeline_ConverterError(t *testing.T) {
	t.Parallel()

	p, err := New(Config{Converter: failingConverter{}})
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}
	if _, err := p.Run(context.Background(), "x", Document); !errors.Is(err, ErrHTMLConversion) {
		t.Errorf("Run() error = %v, want ErrHTMLConversion", err)
	}
}

func TestNew_UnknownDialect(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Dialect: "nope"}); !errors.Is(err, ErrUnknownDialect) {
		t.Errorf("New() error = %v, want ErrUnknownDialect", err)
	}
}

func TestPipeline_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestPipeline(t, "").Run(ctx, "![[a.png]]", Document)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
