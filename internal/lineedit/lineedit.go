// Package lineedit implements the Line Edit Engine: replace_lines,
// delete_lines, insert_before_line, and insert_after_line, applied against
// either the staging overlay or the Active generation directly (the
// "bypass" case). See spec.md §4.5.
package lineedit

import (
	"fmt"
	"sort"

	"github.com/fileidx/fileidx/internal/ferrors"
	"github.com/fileidx/fileidx/internal/record"
)

// Surface is the minimal read/write contract a line edit needs. Both
// *staging.Overlay and generation.MutableView satisfy it, which is how the
// same edit algebra serves both the staged path and the Active-in-place
// bypass path without duplicating logic.
type Surface interface {
	Get(path string) (*record.Record, bool)
	Put(path string, rec *record.Record) error
}

// EditReport describes the effect of one edit call (spec.md §4.5).
type EditReport struct {
	LinesReplaced int
	LinesAdded    int
	TotalLines    int
	OriginalLines int
}

// Replacement is one element of a replace_lines call: a 1-based inclusive
// line range and its replacement text. A single-line replacement sets
// Start == End.
type Replacement struct {
	Start int
	End   int
	Text  string
}

func getEditable(s Surface, path string) (*record.Record, error) {
	rec, ok := s.Get(path)
	if !ok {
		return nil, ferrors.WithPath(ferrors.NotFound, path, "")
	}
	if !rec.Editable {
		return nil, ferrors.WithPath(ferrors.ReadOnly, path, "file is not editable")
	}
	return rec, nil
}

// ReplaceLines validates, then applies, every replacement in reps against
// path. Ranges are validated against the current line count; overlapping
// ranges fail OverlappingEdits and leave the file untouched. Replacements
// are applied in descending start order so earlier indices stay valid
// without recomputation (spec.md §4.5).
func ReplaceLines(s Surface, path string, reps []Replacement) (*EditReport, error) {
	rec, err := getEditable(s, path)
	if err != nil {
		return nil, err
	}
	n := rec.LineCount()
	if len(reps) == 0 {
		return &EditReport{TotalLines: n, OriginalLines: n}, nil
	}

	for _, r := range reps {
		if r.Start < 1 || r.End < r.Start || r.End > n {
			return nil, ferrors.WithPath(ferrors.LineOutOfRange, path,
				fmt.Sprintf("range [%d,%d] outside [1,%d]", r.Start, r.End, n))
		}
	}

	ascending := append([]Replacement(nil), reps...)
	sort.Slice(ascending, func(i, j int) bool { return ascending[i].Start < ascending[j].Start })
	for i := 0; i+1 < len(ascending); i++ {
		if ascending[i].End >= ascending[i+1].Start {
			return nil, ferrors.WithPath(ferrors.OverlappingEdits, path, "")
		}
	}

	descending := append([]Replacement(nil), ascending...)
	sort.Slice(descending, func(i, j int) bool { return descending[i].Start > descending[j].Start })

	lines := rec.AllLines()
	totalReplaced := 0
	for _, r := range descending {
		totalReplaced += r.End - r.Start + 1
		lines = spliceLines(lines, r.Start, r.End, record.SplitTextToLines(r.Text))
	}

	newRec := rec.WithLines(lines, rec.MTime)
	if err := s.Put(path, newRec); err != nil {
		return nil, err
	}
	return &EditReport{
		LinesReplaced: totalReplaced,
		LinesAdded:    newRec.LineCount() - n,
		TotalLines:    newRec.LineCount(),
		OriginalLines: n,
	}, nil
}

// DeleteLines removes every line number in lineNumbers from path,
// deduplicating and applying in descending order. Deleting every line
// yields a single empty line, matching record.Record's empty-file
// invariant.
func DeleteLines(s Surface, path string, lineNumbers []int) (*EditReport, error) {
	rec, err := getEditable(s, path)
	if err != nil {
		return nil, err
	}
	n := rec.LineCount()

	set := make(map[int]struct{}, len(lineNumbers))
	for _, ln := range lineNumbers {
		if ln < 1 || ln > n {
			return nil, ferrors.WithPath(ferrors.LineOutOfRange, path,
				fmt.Sprintf("line %d outside [1,%d]", ln, n))
		}
		set[ln] = struct{}{}
	}

	descending := make([]int, 0, len(set))
	for ln := range set {
		descending = append(descending, ln)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(descending)))

	lines := rec.AllLines()
	for _, ln := range descending {
		lines = append(lines[:ln-1], lines[ln:]...)
	}

	newRec := rec.WithLines(lines, rec.MTime)
	if err := s.Put(path, newRec); err != nil {
		return nil, err
	}
	return &EditReport{
		LinesReplaced: len(set),
		LinesAdded:    newRec.LineCount() - n,
		TotalLines:    newRec.LineCount(),
		OriginalLines: n,
	}, nil
}

// InsertBeforeLine inserts text, split on "\n", immediately before line n.
// n must be in [1, line_count].
func InsertBeforeLine(s Surface, path string, n int, text string) (*EditReport, error) {
	return insertAt(s, path, n, text, false)
}

// InsertAfterLine inserts text immediately after line n. n must be in
// [1, line_count], or line_count+1 to append (spec.md §4.5).
func InsertAfterLine(s Surface, path string, n int, text string) (*EditReport, error) {
	return insertAt(s, path, n, text, true)
}

func insertAt(s Surface, path string, n int, text string, after bool) (*EditReport, error) {
	rec, err := getEditable(s, path)
	if err != nil {
		return nil, err
	}
	lineCount := rec.LineCount()

	maxN := lineCount
	if after {
		maxN = lineCount + 1
	}
	if n < 1 || n > maxN {
		return nil, ferrors.WithPath(ferrors.LineOutOfRange, path,
			fmt.Sprintf("line %d outside [1,%d]", n, maxN))
	}

	lines := rec.AllLines()
	idx := n - 1
	if after {
		idx = n
		if idx > len(lines) {
			idx = len(lines)
		}
	}

	newLines := record.SplitTextToLines(text)
	result := make([]string, 0, len(lines)+len(newLines))
	result = append(result, lines[:idx]...)
	result = append(result, newLines...)
	result = append(result, lines[idx:]...)

	newRec := rec.WithLines(result, rec.MTime)
	if err := s.Put(path, newRec); err != nil {
		return nil, err
	}
	return &EditReport{
		LinesAdded:    newRec.LineCount() - lineCount,
		TotalLines:    newRec.LineCount(),
		OriginalLines: lineCount,
	}, nil
}

// spliceLines replaces the 1-based inclusive range [start, end] of lines
// with repl.
func spliceLines(lines []string, start, end int, repl []string) []string {
	out := make([]string, 0, len(lines)-(end-start+1)+len(repl))
	out = append(out, lines[:start-1]...)
	out = append(out, repl...)
	out = append(out, lines[end:]...)
	return out
}
