// Package fswriter implements the reference filesystem writer described in
// spec.md §6: a collaborator that consumes a txn.CommitReport and replays it
// onto disk. It is intentionally outside the core index — the core only
// produces CommitReport values, it never touches a filesystem itself.
package fswriter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fileidx/fileidx/internal/txn"
)

// Writer applies a txn.CommitReport to a filesystem rooted at Dir. Each
// modified file is written atomically (temp file + rename into place);
// each deleted file is removed if still present. A writer error on one
// path is recorded and retried up to Retries times before being added to
// the returned Result's Failed list — spec.md §6 is explicit that commit
// does not roll back on writer errors, so Apply never fails outright over
// a single bad path.
type Writer struct {
	Dir     string
	Retries int
	log     *slog.Logger
}

// New builds a Writer rooted at dir. A Retries of 0 means no retry: one
// attempt per path.
func New(dir string, log *slog.Logger) *Writer {
	if log == nil {
		log = slog.Default()
	}
	return &Writer{Dir: dir, Retries: 2, log: log}
}

// Failure records one path that could not be written or deleted after
// exhausting retries.
type Failure struct {
	Path string
	Err  error
}

// Result summarizes one Apply call.
type Result struct {
	Written []string
	Removed []string
	Failed  []Failure
}

// Apply writes every modified entry and removes every deleted entry in
// report, tolerating individual failures per spec.md §6.
func (w *Writer) Apply(report txn.CommitReport) Result {
	var res Result

	for _, m := range report.Modified {
		full := filepath.Join(w.Dir, m.Path)
		if err := w.retry(func() error { return writeFileAtomic(full, m.Content, 0o644) }); err != nil {
			w.log.Warn("fswriter: failed to write file", "path", m.Path, "error", err)
			res.Failed = append(res.Failed, Failure{Path: m.Path, Err: err})
			continue
		}
		res.Written = append(res.Written, m.Path)
	}

	for _, p := range report.Deleted {
		full := filepath.Join(w.Dir, p)
		if err := w.retry(func() error { return removeIfExists(full) }); err != nil {
			w.log.Warn("fswriter: failed to remove file", "path", p, "error", err)
			res.Failed = append(res.Failed, Failure{Path: p, Err: err})
			continue
		}
		res.Removed = append(res.Removed, p)
	}

	return res
}

func (w *Writer) retry(fn func() error) error {
	var err error
	for attempt := 0; attempt <= w.Retries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}

// writeFileAtomic writes data to path via a temp file in the same
// directory followed by a rename, so a reader never observes a partially
// written file and a crash mid-write never corrupts the original.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("fswriter: create parent dir for %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, ".fileidx-tmp-*")
	if err != nil {
		return fmt.Errorf("fswriter: create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("fswriter: write temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("fswriter: close temp file for %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("fswriter: chmod temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("fswriter: rename into place %s: %w", path, err)
	}
	return nil
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	return fmt.Errorf("fswriter: remove %s: %w", path, err)
}
