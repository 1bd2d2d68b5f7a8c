// Package generation implements the Generation Store: an immutable,
// lexicographically ordered mapping from normalized path to *record.Record,
// plus a Loader that assembles a new generation atomically from a stream of
// batches. See spec.md §4.3.
package generation

import (
	"sort"

	"github.com/fileidx/fileidx/internal/ferrors"
	"github.com/fileidx/fileidx/internal/record"
)

// Generation is an immutable path -> Record mapping. The zero value is the
// empty generation.
type Generation struct {
	byPath map[string]*record.Record
	order  []string // lexicographic, computed once at construction
}

// Empty returns the empty generation.
func Empty() *Generation {
	return &Generation{byPath: map[string]*record.Record{}}
}

// New builds a Generation from a path -> Record map, establishing the
// stable lexicographic iteration order.
func New(files map[string]*record.Record) *Generation {
	order := make([]string, 0, len(files))
	for p := range files {
		order = append(order, p)
	}
	sort.Strings(order)
	return &Generation{byPath: files, order: order}
}

// Get returns the record at path, if present.
func (g *Generation) Get(path string) (*record.Record, bool) {
	if g == nil {
		return nil, false
	}
	r, ok := g.byPath[path]
	return r, ok
}

// Has reports whether path exists in this generation.
func (g *Generation) Has(path string) bool {
	_, ok := g.Get(path)
	return ok
}

// Len returns the number of files in this generation.
func (g *Generation) Len() int {
	if g == nil {
		return 0
	}
	return len(g.order)
}

// Paths returns every path in this generation, in lexicographic order. The
// returned slice must not be mutated by the caller.
func (g *Generation) Paths() []string {
	if g == nil {
		return nil
	}
	return g.order
}

// ForEach visits every (path, record) pair in lexicographic order.
func (g *Generation) ForEach(fn func(path string, r *record.Record) bool) {
	if g == nil {
		return
	}
	for _, p := range g.order {
		if !fn(p, g.byPath[p]) {
			return
		}
	}
}

// WithReplaced returns a new Generation equal to g except that path now maps
// to r. path must already exist in g. Generations are otherwise immutable;
// this is the one sanctioned copy-on-write rebuild, used by MutableView to
// apply an edit directly to Active without a staging session.
func (g *Generation) WithReplaced(path string, r *record.Record) *Generation {
	next := make(map[string]*record.Record, g.Len())
	g.ForEach(func(p string, rec *record.Record) bool {
		next[p] = rec
		return true
	})
	next[path] = r
	return New(next)
}

// MutableView adapts a Generation pointer, read through get and swapped
// through set, into the lineedit.Surface contract. It is how the Line Edit
// Engine applies an edit directly to Active in place when no staging
// session is open (spec.md §4.5, "bypass"): each Put rebuilds a whole new
// Generation via WithReplaced and hands it to set, which the caller wires
// to atomically replace its held Active pointer.
type MutableView struct {
	get func() *Generation
	set func(*Generation)
}

// NewMutableView builds a MutableView over the generation pointer accessed
// through get/set.
func NewMutableView(get func() *Generation, set func(*Generation)) *MutableView {
	return &MutableView{get: get, set: set}
}

// Get reads through to the current generation.
func (v *MutableView) Get(path string) (*record.Record, bool) {
	return v.get().Get(path)
}

// Put requires path to already exist (Active membership never changes
// outside a staging session) and swaps in the rebuilt generation.
func (v *MutableView) Put(path string, r *record.Record) error {
	cur := v.get()
	if !cur.Has(path) {
		return ferrors.WithPath(ferrors.NotFound, path, "")
	}
	v.set(cur.WithReplaced(path, r))
	return nil
}
