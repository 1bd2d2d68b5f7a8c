package generation

import (
	"github.com/fileidx/fileidx/internal/ferrors"
	"github.com/fileidx/fileidx/internal/record"
)

// Loader accumulates batches of file records off to the side and produces a
// Generation only on Commit, so readers of the prior generation never
// observe a partial load (spec.md §4.3, "Atomicity contract").
//
// A Loader cycles through Begin, any number of LoadBatch calls, then
// Commit or Abort; after either it can be begun again.
type Loader struct {
	open  bool
	files map[string]*record.Record
}

// NewLoader returns a Loader not yet begun.
func NewLoader() *Loader {
	return &Loader{}
}

// Begin opens the load-staging buffer. Fails with LoadInProgress if one is
// already open.
func (l *Loader) Begin() error {
	if l.open {
		return ferrors.New(ferrors.LoadInProgress, "a load is already in progress")
	}
	l.open = true
	l.files = make(map[string]*record.Record)
	return nil
}

// IsOpen reports whether a load is currently in progress.
func (l *Loader) IsOpen() bool { return l.open }

// Batch is one normalized (path, record) pair appended to the load buffer.
type Batch struct {
	Path   string
	Record *record.Record
}

// LoadBatch appends records to the load-staging buffer. Duplicate paths
// within or across calls cause the later record to overwrite the earlier,
// per spec.md §4.3.
func (l *Loader) LoadBatch(batch []Batch) error {
	if !l.open {
		return ferrors.New(ferrors.Internal, "load_batch called without an open load")
	}
	for _, b := range batch {
		l.files[b.Path] = b.Record
	}
	return nil
}

// Commit atomically produces a Generation from the accumulated buffer and
// closes the load. The returned count is the number of distinct files.
func (l *Loader) Commit() (*Generation, int, error) {
	if !l.open {
		return nil, 0, ferrors.New(ferrors.Internal, "commit_load called without an open load")
	}
	gen := New(l.files)
	count := gen.Len()
	l.open = false
	l.files = nil
	return gen, count, nil
}

// Abort discards the load-staging buffer without producing a Generation.
func (l *Loader) Abort() {
	l.open = false
	l.files = nil
}
