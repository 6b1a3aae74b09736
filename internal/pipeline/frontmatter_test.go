package pipeline

import "testing"

// ---------------------------------------------------------------------------
// TestStripFrontmatter - Leading metadata block removal
// ---------------------------------------------------------------------------

func TestStripFrontmatter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "block removed",
			input: "---\ntitle: x\ntags: [a]\n---\n# Body\n",
			want:  "# Body\n",
		},
		{
			name:  "leading blank lines allowed",
			input: "\n\n---\na: 1\n---\nbody",
			want:  "body",
		},
		{
			name:  "block at end of input",
			input: "---\na: 1\n---",
			want:  "",
		},
		{
			name:  "empty block",
			input: "---\n---\nbody",
			want:  "body",
		},
		{
			name:  "no block",
			input: "# Title\n\n---\nnot: frontmatter\n---\n",
			want:  "# Title\n\n---\nnot: frontmatter\n---\n",
		},
		{
			name:  "only first block removed",
			input: "---\na: 1\n---\n---\nb: 2\n---\n",
			want:  "---\nb: 2\n---\n",
		},
		{
			name:  "unterminated block kept",
			input: "---\na: 1\nbody",
			want:  "---\na: 1\nbody",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := StripFrontmatter(tt.input); got != tt.want {
				t.Errorf("StripFrontmatter(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestTrimToMarkers - Start/end marker clipping
// ---------------------------------------------------------------------------

func TestTrimToMarkers(t *testing.T) {
	t.Parallel()

	const doc = "draft notes\n<!-- start -->\nPublished part\n<!-- end -->\nprivate"

	tests := []struct {
		name    string
		markers Markers
		want    string
	}{
		{
			name:    "no markers trims whitespace only",
			markers: Markers{},
			want:    doc,
		},
		{
			name:    "both markers excluded",
			markers: Markers{Start: "<!-- start -->", End: "<!-- end -->"},
			want:    "Published part",
		},
		{
			name:    "both markers included",
			markers: Markers{Start: "<!-- start -->", End: "<!-- end -->", IncludeStart: true, IncludeEnd: true},
			want:    "<!-- start -->\nPublished part\n<!-- end -->",
		},
		{
			name:    "start only",
			markers: Markers{Start: "<!-- start -->"},
			want:    "Published part\n<!-- end -->\nprivate",
		},
		{
			name:    "end only",
			markers: Markers{End: "<!-- end -->"},
			want:    "draft notes\n<!-- start -->\nPublished part",
		},
		{
			name:    "missing markers use full text",
			markers: Markers{Start: "%%begin%%", End: "%%stop%%"},
			want:    doc,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := TrimToMarkers(doc, tt.markers); got != tt.want {
				t.Errorf("TrimToMarkers() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTrimToMarkers_EndBeforeStartIgnored(t *testing.T) {
	t.Parallel()

	input := "END\nintro\nSTART\nbody"
	got := TrimToMarkers(input, Markers{Start: "START", End: "END"})
	if got != "body" {
		t.Errorf("TrimToMarkers() = %q, want %q", got, "body")
	}
}

func TestTrimToMarkers_Idempotent(t *testing.T) {
	t.Parallel()

	m := Markers{Start: "<!-- start -->", End: "<!-- end -->"}
	once := TrimToMarkers("  a\n<!-- start -->\nb\n<!-- end -->\nc  ", m)
	twice := TrimToMarkers(once, m)
	if once != twice {
		t.Errorf("second trim changed content: %q -> %q", once, twice)
	}
}
