package diagram

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-md2blog/internal/fileutil"
	"github.com/alnah/go-md2blog/internal/pipeline"
	"github.com/alnah/go-md2blog/internal/process"
)

// DefaultD2Timeout bounds a single d2 invocation.
const DefaultD2Timeout = 30 * time.Second

// D2 renders D2 source to SVG by running the d2 executable.
type D2 struct {
	bin     string
	timeout time.Duration
}

// NewD2 creates a D2 renderer. An empty bin means "d2" from $PATH; a
// non-positive timeout means DefaultD2Timeout.
func NewD2(bin string, timeout time.Duration) *D2 {
	if bin == "" {
		bin = "d2"
	}
	if timeout <= 0 {
		timeout = DefaultD2Timeout
	}
	return &D2{bin: bin, timeout: timeout}
}

// LookPath resolves the configured executable.
func (d *D2) LookPath() (string, error) {
	p, err := exec.LookPath(d.bin)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrD2NotFound, d.bin)
	}
	return p, nil
}

// RenderDiagram implements pipeline.DiagramRenderer. Source and output
// live in a private temporary directory removed before returning.
func (d *D2) RenderDiagram(ctx context.Context, source string) (pipeline.Diagram, error) {
	if strings.TrimSpace(source) == "" {
		return pipeline.Diagram{}, ErrEmptySource
	}
	bin, err := d.LookPath()
	if err != nil {
		return pipeline.Diagram{}, err
	}

	dir, cleanup, err := fileutil.TempDir("d2")
	if err != nil {
		return pipeline.Diagram{}, err
	}
	defer cleanup()

	in := filepath.Join(dir, "diagram.d2")
	out := filepath.Join(dir, "diagram.svg")
	if err := os.WriteFile(in, []byte(source), 0o600); err != nil {
		return pipeline.Diagram{}, fmt.Errorf("writing d2 source: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, bin, in, out)
	cmd.Stderr = &stderr
	process.NewGroup(cmd)
	cmd.Cancel = func() error {
		process.KillProcessGroup(cmd.Process.Pid)
		return nil
	}
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return pipeline.Diagram{}, ctxErr
		}
		if runCtx.Err() != nil {
			return pipeline.Diagram{}, fmt.Errorf("%w: d2 timed out after %s", ErrRender, d.timeout)
		}
		return pipeline.Diagram{}, fmt.Errorf("%w: d2: %s", ErrRender, firstLine(stderr.String(), err))
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return pipeline.Diagram{}, fmt.Errorf("%w: reading d2 output: %v", ErrRender, err)
	}
	return pipeline.Diagram{Data: data, Ext: "svg"}, nil
}

// firstLine returns the first non-empty stderr line, or err's text.
func firstLine(stderr string, err error) string {
	for _, line := range strings.Split(stderr, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return err.Error()
}
