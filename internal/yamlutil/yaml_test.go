package yamlutil_test

// Notes:
// - Marshal's error branch is not tested: goccy/go-yaml only fails on
//   channels or functions, which no caller passes.

import (
	"errors"
	"strings"
	"testing"

	"github.com/alnah/go-md2blog/internal/yamlutil"
)

type testSettings struct {
	Backend string   `yaml:"backend"`
	Workers int      `yaml:"workers"`
	Draft   bool     `yaml:"draft"`
	Labels  []string `yaml:"labels"`
}

// ---------------------------------------------------------------------------
// TestUnmarshal
// ---------------------------------------------------------------------------

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		dest    any
		wantErr error
		wantMsg string
	}{
		{name: "valid", data: []byte("backend: imgur\nworkers: 4\ndraft: true\nlabels: [go, yaml]"), dest: &testSettings{}},
		{name: "unknown field ignored", data: []byte("backend: s3\nextra: 1"), dest: &testSettings{}},
		{name: "nil data", data: nil, dest: &testSettings{}, wantErr: yamlutil.ErrNilData},
		{name: "empty data", data: []byte{}, dest: &testSettings{}, wantErr: yamlutil.ErrNilData},
		{name: "nil destination", data: []byte("backend: s3"), dest: nil, wantErr: yamlutil.ErrNilDestination},
		{name: "invalid syntax", data: []byte("labels: [unclosed"), dest: &testSettings{}, wantMsg: "yamlutil:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := yamlutil.Unmarshal(tt.data, tt.dest)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Unmarshal() error = %v, want %v", err, tt.wantErr)
				}
			case tt.wantMsg != "":
				if err == nil || !strings.HasPrefix(err.Error(), tt.wantMsg) {
					t.Errorf("Unmarshal() error = %v, want prefix %q", err, tt.wantMsg)
				}
			case err != nil:
				t.Errorf("Unmarshal() unexpected error: %v", err)
			}
		})
	}
}

func TestUnmarshal_Values(t *testing.T) {
	t.Parallel()

	var s testSettings
	if err := yamlutil.Unmarshal([]byte("backend: imgur\nworkers: 4\ndraft: true\nlabels: [go, 日本語]"), &s); err != nil {
		t.Fatalf("Unmarshal() unexpected error: %v", err)
	}
	if s.Backend != "imgur" || s.Workers != 4 || !s.Draft || len(s.Labels) != 2 || s.Labels[1] != "日本語" {
		t.Errorf("Unmarshal() = %+v", s)
	}
}

// ---------------------------------------------------------------------------
// TestUnmarshalStrict
// ---------------------------------------------------------------------------

func TestUnmarshalStrict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		dest    any
		wantErr bool
	}{
		{"known fields", []byte("backend: s3\nworkers: 2"), &testSettings{}, false},
		{"unknown field", []byte("backend: s3\nbakend: typo"), &testSettings{}, true},
		{"nil destination", []byte("backend: s3"), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := yamlutil.UnmarshalStrict(tt.data, tt.dest)
			if (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalStrict() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestUnmarshalMapping - Frontmatter documents
// ---------------------------------------------------------------------------

func TestUnmarshalMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantLen int
		wantErr error
	}{
		{name: "mapping", data: "blogTitle: \"Hello\"\ntags: [a, b]\n", wantLen: 2},
		{name: "empty", data: "", wantLen: 0},
		{name: "null document", data: "~\n", wantLen: 0},
		{name: "comment only", data: "# nothing\n", wantLen: 0},
		{name: "list root", data: "- a\n- b\n", wantErr: yamlutil.ErrNotMapping},
		{name: "scalar root", data: "just text\n", wantErr: yamlutil.ErrNotMapping},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := yamlutil.UnmarshalMapping([]byte(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("UnmarshalMapping() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("UnmarshalMapping() unexpected error: %v", err)
			}
			if got == nil || len(got) != tt.wantLen {
				t.Errorf("UnmarshalMapping() = %v, want %d keys", got, tt.wantLen)
			}
		})
	}
}

func TestUnmarshalMapping_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := yamlutil.UnmarshalMapping([]byte("a: [unclosed")); err == nil {
		t.Error("UnmarshalMapping() expected error for invalid YAML")
	}
}

// ---------------------------------------------------------------------------
// TestMarshal
// ---------------------------------------------------------------------------

func TestMarshal_RoundTrip(t *testing.T) {
	t.Parallel()

	in := testSettings{Backend: "s3", Workers: 3, Labels: []string{"go"}}
	data, err := yamlutil.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() unexpected error: %v", err)
	}
	var out testSettings
	if err := yamlutil.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() unexpected error: %v", err)
	}
	if out.Backend != in.Backend || out.Workers != in.Workers || len(out.Labels) != 1 {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

// ---------------------------------------------------------------------------
// TestMaxInputSize
// ---------------------------------------------------------------------------

// Not parallel: mutates the package-level limit.
func TestMaxInputSize(t *testing.T) {
	original := yamlutil.MaxInputSize
	t.Cleanup(func() { yamlutil.MaxInputSize = original })
	yamlutil.MaxInputSize = 20

	big := []byte("backend: " + strings.Repeat("x", 30))
	var s testSettings
	if err := yamlutil.Unmarshal(big, &s); !errors.Is(err, yamlutil.ErrInputTooLarge) {
		t.Errorf("Unmarshal() error = %v, want ErrInputTooLarge", err)
	}
	if err := yamlutil.UnmarshalStrict(big, &s); !errors.Is(err, yamlutil.ErrInputTooLarge) {
		t.Errorf("UnmarshalStrict() error = %v, want ErrInputTooLarge", err)
	}
	if _, err := yamlutil.UnmarshalMapping(big); !errors.Is(err, yamlutil.ErrInputTooLarge) {
		t.Errorf("UnmarshalMapping() error = %v, want ErrInputTooLarge", err)
	}
	if err := yamlutil.Unmarshal([]byte("workers: 1"), &s); err != nil {
		t.Errorf("Unmarshal() under limit unexpected error: %v", err)
	}
}
