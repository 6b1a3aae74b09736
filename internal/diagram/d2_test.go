package diagram

// Notes:
// - The d2 executable is replaced by small shell scripts so the exec,
//   temp-dir and timeout paths run without d2 installed. Output rendering
//   by the real binary is covered by TestD2_RealBinary when d2 is on PATH.

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// fakeD2 writes an executable shell script and returns its path.
func fakeD2(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts unavailable on windows")
	}
	p := filepath.Join(t.TempDir(), "d2")
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return p
}

// ---------------------------------------------------------------------------
// TestD2_RenderDiagram
// ---------------------------------------------------------------------------

func TestD2_RenderDiagram(t *testing.T) {
	t.Parallel()

	bin := fakeD2(t, `printf '<svg>' > "$2"; cat "$1" >> "$2"; printf '</svg>' >> "$2"`)

	d := NewD2(bin, 5*time.Second)
	got, err := d.RenderDiagram(context.Background(), "a -> b")
	if err != nil {
		t.Fatalf("RenderDiagram() unexpected error: %v", err)
	}
	if string(got.Data) != "<svg>a -> b</svg>" {
		t.Errorf("Data = %q, want wrapped source", got.Data)
	}
	if got.Ext != "svg" {
		t.Errorf("Ext = %q, want svg", got.Ext)
	}
}

func TestD2_RemovesTempDir(t *testing.T) {
	t.Parallel()

	record := filepath.Join(t.TempDir(), "dir.txt")
	bin := fakeD2(t, `dirname "$1" > `+record+`; echo '<svg/>' > "$2"`)

	if _, err := NewD2(bin, 5*time.Second).RenderDiagram(context.Background(), "x"); err != nil {
		t.Fatalf("RenderDiagram() unexpected error: %v", err)
	}
	dir, err := os.ReadFile(record)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(strings.TrimSpace(string(dir))); !os.IsNotExist(err) {
		t.Errorf("temp dir %s still exists after render", dir)
	}
}

func TestD2_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		script  string
		source  string
		wantErr error
		wantMsg string
	}{
		{
			name:    "compile error uses stderr",
			script:  `echo "err: bad arrow" >&2; exit 1`,
			source:  "a -",
			wantErr: ErrRender,
			wantMsg: "err: bad arrow",
		},
		{
			name:    "no output file",
			script:  `exit 0`,
			source:  "a",
			wantErr: ErrRender,
			wantMsg: "reading d2 output",
		},
		{
			name:    "empty source",
			script:  `exit 0`,
			source:  "  \n",
			wantErr: ErrEmptySource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewD2(fakeD2(t, tt.script), 5*time.Second).RenderDiagram(context.Background(), tt.source)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("RenderDiagram() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("RenderDiagram() error = %q, want it to contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestD2_Timeout(t *testing.T) {
	t.Parallel()

	bin := fakeD2(t, `sleep 30`)

	start := time.Now()
	_, err := NewD2(bin, 200*time.Millisecond).RenderDiagram(context.Background(), "a")
	if !errors.Is(err, ErrRender) || !strings.Contains(err.Error(), "timed out") {
		t.Errorf("RenderDiagram() error = %v, want timeout", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("RenderDiagram() took %s, process group not killed", elapsed)
	}
}

func TestD2_CanceledContext(t *testing.T) {
	t.Parallel()

	bin := fakeD2(t, `sleep 30`)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := NewD2(bin, time.Minute).RenderDiagram(ctx, "a")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("RenderDiagram() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestD2_NotFound(t *testing.T) {
	t.Parallel()

	d := NewD2(filepath.Join(t.TempDir(), "missing-d2"), 0)
	if _, err := d.RenderDiagram(context.Background(), "a"); !errors.Is(err, ErrD2NotFound) {
		t.Errorf("RenderDiagram() error = %v, want ErrD2NotFound", err)
	}
}

func TestNewD2_Defaults(t *testing.T) {
	t.Parallel()

	d := NewD2("", 0)
	if d.bin != "d2" || d.timeout != DefaultD2Timeout {
		t.Errorf("NewD2() = %+v, want d2 with default timeout", d)
	}
}

func TestD2_RealBinary(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping d2 integration test in short mode")
	}
	if _, err := exec.LookPath("d2"); err != nil {
		t.Skip("d2 not installed")
	}
	t.Parallel()

	got, err := NewD2("", 0).RenderDiagram(context.Background(), "a -> b")
	if err != nil {
		t.Fatalf("RenderDiagram() unexpected error: %v", err)
	}
	if !strings.Contains(string(got.Data), "<svg") {
		t.Error("d2 output is not SVG")
	}
}
