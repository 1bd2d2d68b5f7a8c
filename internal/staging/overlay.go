// Package staging implements the Staging Overlay: the mutable layer of
// created, modified, and deleted paths sitting atop an immutable Active
// generation. See spec.md §3 ("Staging Overlay", "Effective view") and §4.4.
package staging

import (
	"sort"

	"github.com/fileidx/fileidx/internal/ferrors"
	"github.com/fileidx/fileidx/internal/generation"
	"github.com/fileidx/fileidx/internal/record"
)

// Overlay is the mutation layer over one Active generation. It is not
// safe for concurrent use; callers serialize access the way the
// single-threaded cooperative model of spec.md §5 requires.
type Overlay struct {
	active            *generation.Generation
	createdOrModified map[string]*record.Record
	deleted           map[string]struct{}
}

// New opens a fresh, empty overlay on top of active.
func New(active *generation.Generation) *Overlay {
	if active == nil {
		active = generation.Empty()
	}
	return &Overlay{
		active:            active,
		createdOrModified: make(map[string]*record.Record),
		deleted:           make(map[string]struct{}),
	}
}

// Active returns the generation this overlay sits atop.
func (o *Overlay) Active() *generation.Generation { return o.active }

// Get resolves the effective view of path: deleted shadows everything,
// overlay entries shadow Active, otherwise falls through to Active.
func (o *Overlay) Get(path string) (*record.Record, bool) {
	if _, del := o.deleted[path]; del {
		return nil, false
	}
	if r, ok := o.createdOrModified[path]; ok {
		return r, true
	}
	return o.active.Get(path)
}

// Has reports whether path is visible in the effective view.
func (o *Overlay) Has(path string) bool {
	_, ok := o.Get(path)
	return ok
}

// Paths returns every path visible in the effective view, in
// lexicographic order.
func (o *Overlay) Paths() []string {
	set := make(map[string]struct{}, o.active.Len()+len(o.createdOrModified))
	for _, p := range o.active.Paths() {
		if _, del := o.deleted[p]; !del {
			set[p] = struct{}{}
		}
	}
	for p := range o.createdOrModified {
		set[p] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Create installs new text content at path. If path is currently shadowed
// by a staged deletion, the deletion is cancelled. Otherwise, if path
// already exists in the effective view, the call fails with AlreadyExists
// unless allowOverwrite is set, in which case it fails with ReadOnly when
// the existing record is not editable. New content is always editable
// (spec.md §9, Open Question (a)).
func (o *Overlay) Create(path, text string, mtime int64, allowOverwrite bool) error {
	return o.install(path, record.FromText(text, mtime, true), allowOverwrite)
}

// install is the shared cancel-delete / exists-check / write path behind
// Create, Move's destination half, and Copy.
func (o *Overlay) install(path string, rec *record.Record, allowOverwrite bool) error {
	if _, isDeleted := o.deleted[path]; isDeleted {
		delete(o.deleted, path)
		o.createdOrModified[path] = rec
		return nil
	}
	if existing, exists := o.Get(path); exists {
		if !allowOverwrite {
			return ferrors.WithPath(ferrors.AlreadyExists, path, "")
		}
		if !existing.Editable {
			return ferrors.WithPath(ferrors.ReadOnly, path, "cannot overwrite a read-only file")
		}
	}
	o.createdOrModified[path] = rec
	return nil
}

// Put installs rec at path unconditionally as a modification — used by the
// Line Edit Engine to write the copy-on-write result of an edit back into
// the overlay. The path must already be visible in the effective view.
func (o *Overlay) Put(path string, rec *record.Record) error {
	if !o.Has(path) {
		return ferrors.WithPath(ferrors.NotFound, path, "")
	}
	delete(o.deleted, path)
	o.createdOrModified[path] = rec
	return nil
}

// Delete shadows path. If path was only ever staged in this session (never
// present in Active), it is simply dropped from created_or_modified rather
// than recorded as a deletion — the overlay must never ask the filesystem
// writer to remove a file that was never written (spec.md §4.4, §4.7
// scenario S2).
func (o *Overlay) Delete(path string) error {
	if !o.Has(path) {
		return ferrors.WithPath(ferrors.NotFound, path, "")
	}
	if _, staged := o.createdOrModified[path]; staged && !o.active.Has(path) {
		delete(o.createdOrModified, path)
		return nil
	}
	delete(o.createdOrModified, path)
	o.deleted[path] = struct{}{}
	return nil
}

// Move relocates src to dst, preserving src's record (bytes, text,
// editable flag) unchanged — a rename is a path operation, not a content
// rewrite. It composes Delete's ghost-deletion collapsing automatically,
// so a create-then-move-chain never produces a phantom filesystem removal
// (spec.md §4.4 "move chain" scenario, testable property 7).
func (o *Overlay) Move(src, dst string) error {
	srcRec, exists := o.Get(src)
	if !exists {
		return ferrors.WithPath(ferrors.NotFound, src, "")
	}
	if o.Has(dst) {
		return ferrors.WithPath(ferrors.AlreadyExists, dst, "")
	}
	if err := o.install(dst, srcRec, false); err != nil {
		return err
	}
	return o.Delete(src)
}

// Copy duplicates src's current content at dst, preserving src's editable
// flag (spec.md §9, Open Question (b)).
func (o *Overlay) Copy(src, dst string) error {
	srcRec, exists := o.Get(src)
	if !exists {
		return ferrors.WithPath(ferrors.NotFound, src, "")
	}
	if o.Has(dst) {
		return ferrors.WithPath(ferrors.AlreadyExists, dst, "")
	}
	return o.install(dst, srcRec, false)
}

// Entry pairs a staged path with its record, for Modified/CommitReport.
type Entry struct {
	Path   string
	Record *record.Record
}

// Modified returns every created-or-modified entry, sorted by path.
func (o *Overlay) Modified() []Entry {
	out := make([]Entry, 0, len(o.createdOrModified))
	for p, r := range o.createdOrModified {
		out = append(out, Entry{Path: p, Record: r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// DeletedPaths returns every staged deletion, sorted.
func (o *Overlay) DeletedPaths() []string {
	out := make([]string, 0, len(o.deleted))
	for p := range o.deleted {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// IsDeleted reports whether path is shadowed by a staged deletion.
func (o *Overlay) IsDeleted(path string) bool {
	_, ok := o.deleted[path]
	return ok
}

// StagedRecord returns the raw created_or_modified entry for path, without
// falling through to Active — used by the Diff Engine, which needs to
// distinguish "unmodified" from "identical to Active by coincidence".
func (o *Overlay) StagedRecord(path string) (*record.Record, bool) {
	r, ok := o.createdOrModified[path]
	return r, ok
}

// Apply produces the new Active generation a commit swaps in: Active minus
// every deleted path, overlaid with every created_or_modified entry.
func (o *Overlay) Apply() *generation.Generation {
	merged := make(map[string]*record.Record, o.active.Len()+len(o.createdOrModified))
	o.active.ForEach(func(p string, r *record.Record) bool {
		if _, del := o.deleted[p]; !del {
			merged[p] = r
		}
		return true
	})
	for p, r := range o.createdOrModified {
		merged[p] = r
	}
	return generation.New(merged)
}
