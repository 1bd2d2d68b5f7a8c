// Package scanner implements the Scanner collaborator described in
// spec.md §6: it walks a directory tree and produces the
// (normalized_path, bytes, mtime_ms, editable) tuples that feed
// load_file_batch, handling binary detection, VCS/ignore-file exclusion,
// and unreadable-file skipping so the core never has to touch the
// filesystem directly.
package scanner

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"

	"github.com/fileidx/fileidx/internal/config"
)

const (
	gitignoreFile  = ".gitignore"
	fileidxIgnore  = ".fileidxignore"
	binarySniffLen = 8000 // matches the common "sniff the first N bytes" heuristic
)

// File is one tuple a Scanner hands to fileidx.Index.LoadFileBatch.
type File struct {
	Path     string
	Bytes    []byte
	MTimeMS  int64
	Editable bool
}

// Scanner walks a directory tree under a fixed set of exclusion rules:
// .git is never descended into, .gitignore/.fileidxignore patterns (plus
// the index's own ScanExcludeGlobs) are honored, and symlinks are never
// followed.
type Scanner struct {
	opts config.IndexOptions
}

// New builds a Scanner governed by opts.ScanExcludeGlobs.
func New(opts config.IndexOptions) *Scanner {
	return &Scanner{opts: opts}
}

// Scan walks root and returns every non-ignored regular file, sorted by
// normalized (slash-separated, root-relative) path. A read error on an
// individual file is treated as "unreadable" and the file is skipped, per
// spec.md §6's Scanner contract. Scan itself only fails if root cannot be
// walked at all or ctx's deadline passes mid-walk; a ctx cancelled with
// context.Canceled stops the walk early, and Scan then returns the files
// gathered so far with a nil error.
func (s *Scanner) Scan(ctx context.Context, root string) ([]File, error) {
	if root == "" {
		return nil, nil
	}

	ignores := s.loadIgnoreGlobs(root)

	var mu sync.Mutex
	var files []File

	walkErr := fastwalk.Walk(&fastwalk.Config{Follow: false}, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			if matchesAny(rel, ignores) || matchesAny(rel, s.opts.ScanExcludeGlobs) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if matchesAny(rel, ignores) || matchesAny(rel, s.opts.ScanExcludeGlobs) {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		var mtime int64
		if info, infoErr := d.Info(); infoErr == nil {
			mtime = info.ModTime().UnixMilli()
		}

		f := File{Path: rel, Bytes: data, MTimeMS: mtime, Editable: !looksBinary(data)}
		mu.Lock()
		files = append(files, f)
		mu.Unlock()
		return nil
	})
	if walkErr != nil && walkErr != context.Canceled {
		return nil, walkErr
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// looksBinary applies the common "null byte in the first N bytes" sniff
// heuristic used by text-search tools such as ripgrep.
func looksBinary(data []byte) bool {
	n := len(data)
	if n > binarySniffLen {
		n = binarySniffLen
	}
	return bytes.IndexByte(data[:n], 0) != -1
}

// loadIgnoreGlobs reads root's .gitignore and .fileidxignore, if present,
// into a flat pattern list. Only plain patterns and directory prefixes are
// supported; negation ("!pattern") is not.
func (s *Scanner) loadIgnoreGlobs(root string) []string {
	var patterns []string
	for _, name := range []string{gitignoreFile, fileidxIgnore} {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
				continue
			}
			line = strings.TrimPrefix(line, "/")
			line = strings.TrimSuffix(line, "/")
			patterns = append(patterns, line)
		}
	}
	return patterns
}

// matchesAny reports whether path matches any of globs, trying a direct
// doublestar match, a basename match (so an extension pattern like
// "*.generated.go" matches at any depth), and a directory-prefix match
// (so a bare "vendor" ignore line matches everything under vendor/). A
// malformed glob is silently skipped rather than failing the scan.
func matchesAny(path string, globs []string) bool {
	for _, g := range globs {
		if g == "" {
			continue
		}
		if ok, err := doublestar.Match(g, path); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(g, baseName(path)); err == nil && ok {
			return true
		}
		if path == g || strings.HasPrefix(path, g+"/") {
			return true
		}
	}
	return false
}

func baseName(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}
