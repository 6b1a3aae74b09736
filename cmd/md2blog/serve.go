package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	md2blog "github.com/alnah/go-md2blog"
	"github.com/alnah/go-md2blog/internal/fileutil"
	"github.com/alnah/go-md2blog/internal/logger"
	"github.com/alnah/go-md2blog/internal/vault"
)

// Route prefixes of the preview server.
const (
	notesPrefix = "/notes/"
	filesPrefix = "/files/"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>md2blog: {{.Root}}</title></head>
<body>
<h1>{{.Root}}</h1>
<ul>
{{- range .Notes}}
<li><a href="{{.URL}}">{{.Path}}</a></li>
{{- end}}
</ul>
</body>
</html>
`))

// previewServer serves converted notes of a vault over HTTP.
type previewServer struct {
	pool  Pool
	vault *vault.Vault
	log   *logger.Logger
}

// newPreviewRouter mounts the index, note and file routes.
func newPreviewRouter(s *previewServer) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/", s.index)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get(notesPrefix+"*", s.note)
	r.Get(filesPrefix+"*", s.file)
	return r
}

// requestLogger logs every request at debug level.
func requestLogger(lg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			lg.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start).Round(time.Millisecond))
		})
	}
}

// index lists every note of the vault.
func (s *previewServer) index(w http.ResponseWriter, _ *http.Request) {
	s.vault.Refresh()
	notes, err := s.vault.Notes()
	if err != nil {
		s.log.Error("listing notes", "error", err)
		http.Error(w, "listing notes failed", http.StatusInternalServerError)
		return
	}

	type entry struct{ Path, URL string }
	data := struct {
		Root  string
		Notes []entry
	}{Root: s.vault.Root()}
	for _, n := range notes {
		data.Notes = append(data.Notes, entry{Path: n, URL: routeURL(notesPrefix, n)})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		s.log.Error("rendering index", "error", err)
	}
}

// note converts a note and serves its preview page.
func (s *previewServer) note(w http.ResponseWriter, r *http.Request) {
	rel := wildcardPath(r)
	if !fileutil.IsMarkdown(rel) {
		http.NotFound(w, r)
		return
	}

	conv, err := s.pool.Acquire()
	if err != nil {
		s.log.Error("creating converter", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer s.pool.Release(conv)

	conv.Refresh()
	bundle, err := conv.Convert(r.Context(), md2blog.Input{Path: rel})
	if err != nil {
		if errors.Is(err, vault.ErrNotFound) || errors.Is(err, vault.ErrOutsideVault) {
			http.NotFound(w, r)
			return
		}
		s.log.Error("converting note", "note", rel, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	page, err := conv.Preview(r.Context(), bundle, "", s.fileURL)
	if err != nil {
		s.log.Error("rendering preview", "note", rel, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(page))
}

// file serves an attachment of the vault.
func (s *previewServer) file(w http.ResponseWriter, r *http.Request) {
	abs, err := s.vault.Abs(wildcardPath(r))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}

// fileURL maps a local file referenced by a preview to its /files/ route.
// Files outside the vault keep a file:// URL.
func (s *previewServer) fileURL(abs string) string {
	rel, err := s.vault.Rel(abs)
	if err != nil {
		return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
	}
	return routeURL(filesPrefix, rel)
}

// routeURL joins a route prefix and a vault path, escaping the path.
func routeURL(prefix, rel string) string {
	return (&url.URL{Path: prefix + rel}).EscapedPath()
}

// wildcardPath returns the decoded vault path matched by a route.
func wildcardPath(r *http.Request) string {
	p := chi.URLParam(r, "*")
	if u, err := url.PathUnescape(p); err == nil {
		p = u
	}
	return p
}

// runServe serves vault previews until ctx is canceled.
func runServe(ctx context.Context, args []string, f *serveFlags, env *Environment) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: serve takes no arguments, got %d", ErrUsage, len(args))
	}

	s, err := openSession(&f.common, f.style, f.timeout, f.upload, env)
	if err != nil {
		return err
	}
	defer s.Close()

	pool := md2blog.NewConverterPool(md2blog.ResolvePoolSize(0), s.setup.opts...)
	defer pool.Close()

	srv := &previewServer{pool: &poolAdapter{pool: pool}, vault: s.vault, log: s.log}
	httpServer := &http.Server{
		Handler:           newPreviewRouter(srv),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", f.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", f.addr, err)
	}
	if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "Serving %s at http://%s/\n", s.vault.Root(), ln.Addr())
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
