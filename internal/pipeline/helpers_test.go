package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// fakeVault maps base names to vault paths and paths to content.
type fakeVault struct {
	files       map[string][]byte         // path -> content
	frontmatter map[string]map[string]any // path -> frontmatter
	readErr     error
}

func newFakeVault() *fakeVault {
	return &fakeVault{
		files:       make(map[string][]byte),
		frontmatter: make(map[string]map[string]any),
	}
}

func (v *fakeVault) add(path, content string) *fakeVault {
	v.files[path] = []byte(content)
	return v
}

func (v *fakeVault) FindFileByName(name string) (string, bool) {
	var paths []string
	for p := range v.files {
		base := p
		if i := strings.LastIndex(p, "/"); i != -1 {
			base = p[i+1:]
		}
		if base == name {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return "", false
	}
	sort.Strings(paths)
	return paths[0], true
}

func (v *fakeVault) ReadBytes(path string) ([]byte, error) {
	if v.readErr != nil {
		return nil, v.readErr
	}
	data, ok := v.files[path]
	if !ok {
		return nil, ErrFileNotFound
	}
	return data, nil
}

func (v *fakeVault) Frontmatter(path string) (map[string]any, error) {
	if _, ok := v.files[path]; !ok {
		return nil, ErrFileNotFound
	}
	return v.frontmatter[path], nil
}

// fakeUploader returns https://img.test/<name>, optionally failing for
// names listed in fail, with an optional random delay.
type fakeUploader struct {
	mu       sync.Mutex
	names    []string
	fail     map[string]bool
	jitter   bool
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (u *fakeUploader) Upload(ctx context.Context, data []byte, name string) (string, error) {
	n := u.inFlight.Add(1)
	defer u.inFlight.Add(-1)
	for {
		m := u.maxSeen.Load()
		if n <= m || u.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}

	if u.jitter {
		time.Sleep(time.Duration(rand.IntN(5)) * time.Millisecond)
	}

	u.mu.Lock()
	u.names = append(u.names, name)
	u.mu.Unlock()

	if u.fail[name] {
		return "", errors.New("upload rejected")
	}
	return "https://img.test/" + name, nil
}

func (u *fakeUploader) calls() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.names...)
}

// fakeRenderer returns fixed SVG bytes or an error, recording calls.
type fakeRenderer struct {
	mu       sync.Mutex
	sources  []string
	err      error
	inFlight atomic.Int32
	overlap  atomic.Bool
}

func (r *fakeRenderer) RenderDiagram(ctx context.Context, source string) (Diagram, error) {
	if r.inFlight.Add(1) > 1 {
		r.overlap.Store(true)
	}
	defer r.inFlight.Add(-1)
	time.Sleep(time.Millisecond)

	r.mu.Lock()
	r.sources = append(r.sources, source)
	r.mu.Unlock()

	if r.err != nil {
		return Diagram{}, r.err
	}
	return Diagram{Data: []byte("<svg/>"), Ext: "svg"}, nil
}

// fakeFragments records fragment bodies and returns them wrapped.
type fakeFragments struct {
	mu     sync.Mutex
	bodies []string
	err    error
}

func (f *fakeFragments) RenderFragment(ctx context.Context, markdown string) (string, error) {
	f.mu.Lock()
	f.bodies = append(f.bodies, markdown)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return "<frag>" + markdown + "</frag>\n", nil
}

// failingConverter always fails.
type failingConverter struct{}

func (failingConverter) ToHTML(context.Context, string) (string, error) {
	return "", ErrHTMLConversion
}
