package diagram

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-md2blog/internal/process"
)

// DefaultBrowserTimeout bounds page work when the context has no deadline.
const DefaultBrowserTimeout = 30 * time.Second

// Browser is a lazily launched headless Chrome shared by the Mermaid
// renderer and the SVG rasterizer. Rod downloads Chromium on first use
// when no browser is installed. Safe for concurrent use.
type Browser struct {
	timeout time.Duration

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewBrowser creates a Browser. Nothing is launched until first use.
func NewBrowser(timeout time.Duration) *Browser {
	if timeout <= 0 {
		timeout = DefaultBrowserTimeout
	}
	return &Browser{timeout: timeout}
}

// ensure launches and connects the browser once.
func (b *Browser) ensure() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		return b.browser, nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	b.launcher, b.browser = l, browser
	return browser, nil
}

// page opens a blank page bound to ctx. The caller closes it.
func (b *Browser) page(ctx context.Context) (*rod.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	browser, err := b.ensure()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}

	timeout := b.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			_ = page.Close()
			return nil, context.DeadlineExceeded
		}
	}
	return page.Context(ctx).Timeout(timeout), nil
}

// Rasterize renders SVG markup to PNG bytes by screenshotting the
// <svg> element on a transparent page.
func (b *Browser) Rasterize(ctx context.Context, svg []byte) ([]byte, error) {
	if !strings.Contains(string(svg), "<svg") {
		return nil, fmt.Errorf("%w: payload has no <svg> element", ErrRasterize)
	}

	page, err := b.page(ctx)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	doc := `<!DOCTYPE html><html><head><style>html,body{margin:0;background:transparent}svg{display:block}</style></head><body>` +
		string(svg) + `</body></html>`
	if err := page.SetDocumentContent(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterize, err)
	}

	el, err := page.Element("svg")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterize, err)
	}
	png, err := el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrRasterize, err)
	}
	return png, nil
}

// Close shuts the browser down and kills its process group.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	if pid := b.launcher.PID(); pid > 0 {
		process.KillProcessGroup(pid)
	}
	b.launcher.Kill()
	b.browser, b.launcher = nil, nil
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("closing browser: %w", err)
	}
	return nil
}
