package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	md2blog "github.com/alnah/go-md2blog"
	"github.com/alnah/go-md2blog/internal/fileutil"
	"github.com/alnah/go-md2blog/internal/logger"
	"github.com/alnah/go-md2blog/internal/vault"
)

// watchScope selects the notes a watch session re-exports.
type watchScope struct {
	all   bool
	notes map[string]bool
	dirs  []string // vault paths, no trailing slash
}

// newWatchScope builds the scope from command-line arguments, which name
// notes or directories. No arguments watches the whole vault.
func newWatchScope(v *vault.Vault, args []string) (*watchScope, error) {
	s := &watchScope{all: len(args) == 0, notes: make(map[string]bool)}
	for _, arg := range args {
		if info, err := os.Stat(arg); err == nil && info.IsDir() {
			rel, err := v.Rel(arg)
			if err != nil {
				return nil, err
			}
			if rel == "." {
				s.all = true
				continue
			}
			s.dirs = append(s.dirs, rel)
			continue
		}
		rel, err := resolveNote(v, arg)
		if err != nil {
			return nil, err
		}
		s.notes[rel] = true
	}
	return s, nil
}

// contains reports whether note is watched.
func (s *watchScope) contains(note string) bool {
	if s.all || s.notes[note] {
		return true
	}
	for _, d := range s.dirs {
		if strings.HasPrefix(note, d+"/") {
			return true
		}
	}
	return false
}

// runWatch exports the selected notes, then re-exports each note that
// changes until ctx is canceled.
func runWatch(ctx context.Context, args []string, f *watchFlags, env *Environment) error {
	debounce, err := time.ParseDuration(f.debounce)
	if err != nil || debounce < 0 {
		return fmt.Errorf("%w: invalid debounce %q", ErrUsage, f.debounce)
	}

	s, err := openSession(&f.common, f.style, f.timeout, !f.noUpload, env)
	if err != nil {
		return err
	}
	defer s.Close()

	scope, err := newWatchScope(s.vault, args)
	if err != nil {
		return err
	}
	outputDir := f.output
	if outputDir == "" {
		outputDir = s.cfg.Output.DefaultDir
	}

	conv, err := md2blog.NewConverter(s.setup.opts...)
	if err != nil {
		return err
	}
	defer conv.Close()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()
	if err := addDirsRecursive(w, s.vault.Root()); err != nil {
		return fmt.Errorf("watching %s: %w", s.vault.Root(), err)
	}

	initial, err := discoverNotes(s.vault, args, outputDir)
	if err != nil {
		return fmt.Errorf("discovering notes: %w", err)
	}
	exportAll(ctx, conv, initial, f.common, env)

	if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "Watching %s (Ctrl+C to stop)\n", s.vault.Root())
	}

	pending := make(map[string]bool)
	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			s.log.Debug("watcher stopped")
			return nil

		case <-fire:
			conv.Refresh()
			changed := make([]string, 0, len(pending))
			for n := range pending {
				changed = append(changed, n)
			}
			sort.Strings(changed)
			clear(pending)

			var notes []NoteToExport
			for _, n := range changed {
				outPath, err := resolveOutputPath(s.vault, n, outputDir)
				if err != nil {
					s.log.Warn("skipping note", "note", n, "error", err)
					continue
				}
				notes = append(notes, NoteToExport{Note: n, OutputPath: outPath})
			}
			exportAll(ctx, conv, notes, f.common, env)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			note, ok := handleEvent(w, s.vault, ev, s.log)
			if ok && scope.contains(note) {
				pending[note] = true
				schedule()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("watcher error", "error", err)
		}
	}
}

// handleEvent watches new directories and returns the vault path of a
// created or written note.
func handleEvent(w *fsnotify.Watcher, v *vault.Vault, ev fsnotify.Event, lg *logger.Logger) (string, bool) {
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := addDirsRecursive(w, ev.Name); err != nil {
				lg.Warn("watching new directory failed", "path", ev.Name, "error", err)
			}
			return "", false
		}
	}
	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !fileutil.IsMarkdown(ev.Name) {
		return "", false
	}
	rel, err := v.Rel(ev.Name)
	if err != nil || strings.HasPrefix(path.Base(rel), ".") {
		return "", false
	}
	return rel, true
}

// exportAll exports notes one by one and prints the results.
func exportAll(ctx context.Context, conv CLIConverter, notes []NoteToExport, f commonFlags, env *Environment) {
	results := make([]ConversionResult, 0, len(notes))
	for _, n := range notes {
		if ctx.Err() != nil {
			return
		}
		results = append(results, exportNote(ctx, conv, n))
	}
	printResultsWithWriter(results, f.quiet, f.verbose, env)
}

// addDirsRecursive adds root and all its subdirectories to the watcher,
// skipping dot directories.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
