package main

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	md2blog "github.com/alnah/go-md2blog"
	"github.com/alnah/go-md2blog/internal/fileutil"
	"github.com/alnah/go-md2blog/internal/vault"
)

// NoteToExport represents a single note to process.
type NoteToExport struct {
	Note       string // vault path
	OutputPath string
}

// discoverNotes finds the notes named by args, files or directories, or
// every note of the vault when args is empty.
func discoverNotes(v *vault.Vault, args []string, outputDir string) ([]NoteToExport, error) {
	var notes []string
	if len(args) == 0 {
		all, err := v.Notes()
		if err != nil {
			return nil, err
		}
		notes = all
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err == nil && info.IsDir() {
			found, err := walkNotes(v, arg)
			if err != nil {
				return nil, err
			}
			notes = append(notes, found...)
			continue
		}
		rel, err := resolveNote(v, arg)
		if err != nil {
			return nil, err
		}
		notes = append(notes, rel)
	}

	seen := make(map[string]bool, len(notes))
	out := make([]NoteToExport, 0, len(notes))
	for _, n := range notes {
		if seen[n] {
			continue
		}
		seen[n] = true
		outPath, err := resolveOutputPath(v, n, outputDir)
		if err != nil {
			return nil, err
		}
		out = append(out, NoteToExport{Note: n, OutputPath: outPath})
	}
	return out, nil
}

// walkNotes returns the vault paths of markdown files under dir, skipping
// dot directories.
func walkNotes(v *vault.Vault, dir string) ([]string, error) {
	var notes []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", p, err)
		}
		if d.IsDir() {
			if p != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !fileutil.IsMarkdown(p) {
			return nil
		}
		rel, err := v.Rel(p)
		if err != nil {
			return err
		}
		notes = append(notes, rel)
		return nil
	})
	return notes, err
}

// resolveOutputPath determines the HTML path for a note: next to the note
// without an output directory, else mirrored under it.
func resolveOutputPath(v *vault.Vault, note, outputDir string) (string, error) {
	base := strings.TrimSuffix(note, path.Ext(note)) + ".html"
	if outputDir == "" {
		return v.Abs(base)
	}
	return filepath.Join(outputDir, filepath.FromSlash(base)), nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > md2blog.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, md2blog.MaxPoolSize)
	}
	return nil
}
