// Package vault reads and writes notes in a folder-based markdown vault.
//
// Paths handed in and out of a Vault are vault-relative and use forward
// slashes, whatever the host OS.
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Sentinel errors.
var (
	ErrNotDirectory = errors.New("vault root is not a directory")
	ErrOutsideVault = errors.New("path escapes vault root")
	ErrNotFound     = errors.New("file not found in vault")
)

// Vault is a directory of notes and attachments.
type Vault struct {
	root string // absolute

	mu    sync.Mutex
	index map[string][]string // base name -> sorted vault paths
}

// Open returns a Vault rooted at dir. The directory must exist.
func Open(dir string) (*Vault, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("vault: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("vault: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, abs)
	}
	return &Vault{root: abs}, nil
}

// Root returns the absolute vault directory.
func (v *Vault) Root() string { return v.root }

// Abs returns the absolute OS path of a vault path.
func (v *Vault) Abs(rel string) (string, error) {
	return v.safePath(rel)
}

// Rel converts an absolute or working-directory relative OS path to a
// vault path.
func (v *Vault) Rel(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(v.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideVault, p)
	}
	return filepath.ToSlash(rel), nil
}

// safePath resolves a vault path and rejects results outside the root.
func (v *Vault) safePath(rel string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("%w: %s", ErrOutsideVault, rel)
	}
	abs := filepath.Join(v.root, cleaned)
	if abs != v.root && !strings.HasPrefix(abs, v.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideVault, rel)
	}
	return abs, nil
}

// FindFileByName returns the vault path of a file whose base name is
// exactly name. With duplicates the first path in lexicographic order
// wins. Dot directories are not searched.
func (v *Vault) FindFileByName(name string) (string, bool) {
	index, err := v.loadIndex()
	if err != nil {
		return "", false
	}
	paths := index[name]
	if len(paths) == 0 {
		return "", false
	}
	return paths[0], true
}

// Notes returns every markdown note in the vault, sorted.
func (v *Vault) Notes() ([]string, error) {
	index, err := v.loadIndex()
	if err != nil {
		return nil, err
	}
	var notes []string
	for base, paths := range index {
		if strings.EqualFold(path.Ext(base), ".md") {
			notes = append(notes, paths...)
		}
	}
	sort.Strings(notes)
	return notes, nil
}

// Refresh drops the cached file index; the next lookup rescans the tree.
func (v *Vault) Refresh() {
	v.mu.Lock()
	v.index = nil
	v.mu.Unlock()
}

func (v *Vault) loadIndex() (map[string][]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.index != nil {
		return v.index, nil
	}

	index := make(map[string][]string)
	err := filepath.WalkDir(v.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != v.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(v.root, p)
		if err != nil {
			return err
		}
		index[d.Name()] = append(index[d.Name()], filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vault: scan: %w", err)
	}
	for _, paths := range index {
		sort.Strings(paths)
	}
	v.index = index
	return index, nil
}

// ReadBytes returns the raw content of a vault file.
func (v *Vault) ReadBytes(rel string) ([]byte, error) {
	abs, err := v.safePath(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, rel)
		}
		return nil, fmt.Errorf("vault: read %s: %w", rel, err)
	}
	return data, nil
}

// ReadFile returns a vault file as text.
func (v *Vault) ReadFile(rel string) (string, error) {
	data, err := v.ReadBytes(rel)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteFile replaces a vault file atomically: temp file, fsync, rename.
func (v *Vault) WriteFile(rel string, content []byte) error {
	abs, err := v.safePath(rel)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("vault: mkdir: %w", err)
	}

	perm := fs.FileMode(0o644)
	if info, err := os.Stat(abs); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, ".md2blog-tmp-*")
	if err != nil {
		return fmt.Errorf("vault: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("vault: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("vault: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("vault: close temp: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("vault: chmod: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("vault: rename: %w", err)
	}
	success = true

	v.addToIndex(rel)
	return nil
}

// addToIndex records a newly written file without a rescan.
func (v *Vault) addToIndex(rel string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.index == nil {
		return
	}
	rel = path.Clean(filepath.ToSlash(rel))
	base := path.Base(rel)
	for _, p := range v.index[base] {
		if p == rel {
			return
		}
	}
	paths := append(v.index[base], rel)
	sort.Strings(paths)
	v.index[base] = paths
}
