// Package query implements the Query Engine: paged, glob-filtered listing
// and regex search with context windows. See spec.md §4.7.
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dlclark/regexp2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fileidx/fileidx/internal/ferrors"
	"github.com/fileidx/fileidx/internal/record"
)

// Source is the read surface the Query Engine iterates: either a
// *generation.Generation (bypass) or a *staging.Overlay (staged effective
// view). Both already satisfy this.
type Source interface {
	Paths() []string
	Get(path string) (*record.Record, bool)
}

const defaultPatternCacheSize = 256

// Engine holds the compiled-pattern cache behind find_in_files, so a
// pattern reused across many find_in_files calls in one session is
// compiled once (spec.md §9 "Regex engine").
type Engine struct {
	patterns *lru.Cache[string, *regexp2.Regexp]
}

// NewEngine builds a query Engine whose compiled-regex cache holds up to
// cacheSize entries. cacheSize <= 0 selects a sane default.
func NewEngine(cacheSize int) *Engine {
	if cacheSize <= 0 {
		cacheSize = defaultPatternCacheSize
	}
	c, _ := lru.New[string, *regexp2.Regexp](cacheSize)
	return &Engine{patterns: c}
}

// Page is the result of List: the filtered, paginated path slice plus the
// total count of the filtered (not unfiltered) sequence.
type Page struct {
	Files []string
	Total int
	Start int
	End   int
}

// List iterates src's paths in lexicographic order, optionally filtered by
// glob, and returns the [start, stop) page of the filtered sequence. stop
// == 0 means unbounded.
func (e *Engine) List(src Source, start, stop int, glob string) (Page, error) {
	paths := src.Paths()
	if glob != "" {
		filtered, err := matchAny(paths, []string{glob})
		if err != nil {
			return Page{}, err
		}
		paths = filtered
	}

	total := len(paths)
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := stop
	if stop == 0 || stop > total {
		end = total
	}
	if end < start {
		end = start
	}

	// Paths() returns a slice callers must not mutate; re-slicing for the
	// page is safe since we never write through it.
	return Page{Files: paths[start:end], Total: total, Start: start, End: end}, nil
}

// LineRange is a 1-based inclusive run of matching lines inside a preview.
type LineRange struct {
	Start int
	End   int
}

// Hunk is one preview window of matched lines within a single file.
type Hunk struct {
	Path              string
	PreviewStartLine  int
	PreviewEndLine    int
	MatchedLineRanges []LineRange
	Excerpt           string
}

// FindOptions configures find_in_files.
type FindOptions struct {
	CaseInsensitive bool
	WholeWord       bool
	IncludeGlobs    []string
	ExcludeGlobs    []string
	ContextLines    int
}

// FindInFiles compiles pattern (applying the case/whole-word modifiers),
// then scans every path in src surviving the include/exclude glob filters,
// line by line. A path with no matches contributes zero hunks. ctx is
// checked between files so a caller-supplied deadline aborts the remaining
// scan with Cancelled instead of running unbounded; per spec.md §5, partial
// results are discarded, never returned.
func (e *Engine) FindInFiles(ctx context.Context, src Source, pattern string, opts FindOptions) ([]Hunk, error) {
	re, err := e.compile(pattern, opts.CaseInsensitive, opts.WholeWord)
	if err != nil {
		return nil, err
	}

	paths := src.Paths()
	if len(opts.IncludeGlobs) > 0 {
		paths, err = matchAny(paths, opts.IncludeGlobs)
		if err != nil {
			return nil, err
		}
	}
	if len(opts.ExcludeGlobs) > 0 {
		excluded, err := matchAny(paths, opts.ExcludeGlobs)
		if err != nil {
			return nil, err
		}
		excludedSet := make(map[string]struct{}, len(excluded))
		for _, p := range excluded {
			excludedSet[p] = struct{}{}
		}
		kept := paths[:0:0]
		for _, p := range paths {
			if _, ok := excludedSet[p]; !ok {
				kept = append(kept, p)
			}
		}
		paths = kept
	}

	var hunks []Hunk
	for _, p := range paths {
		if ctx.Err() != nil {
			return nil, ferrors.New(ferrors.Cancelled, "find_in_files deadline exceeded")
		}
		rec, ok := src.Get(p)
		if !ok || !rec.HasText {
			continue
		}
		lines := rec.AllLines()
		matched := matchedLineNumbers(re, lines)
		if len(matched) == 0 {
			continue
		}
		hunks = append(hunks, buildHunks(p, lines, matched, opts.ContextLines)...)
	}
	return hunks, nil
}

func (e *Engine) compile(pattern string, caseInsensitive, wholeWord bool) (*regexp2.Regexp, error) {
	key := fmt.Sprintf("%t\x00%t\x00%s", caseInsensitive, wholeWord, pattern)
	if re, ok := e.patterns.Get(key); ok {
		return re, nil
	}

	effective := pattern
	if wholeWord {
		effective = `\b(?:` + pattern + `)\b`
	}
	opts := regexp2.None
	if caseInsensitive {
		opts = regexp2.IgnoreCase
	}
	re, err := regexp2.Compile(effective, opts)
	if err != nil {
		return nil, ferrors.Newf(ferrors.InvalidPattern, "invalid pattern %q: %v", pattern, err)
	}
	e.patterns.Add(key, re)
	return re, nil
}

func matchedLineNumbers(re *regexp2.Regexp, lines []string) []int {
	var out []int
	for i, line := range lines {
		if m, _ := re.FindStringMatch(line); m != nil {
			out = append(out, i+1)
		}
	}
	return out
}

// buildHunks groups matchedLines (sorted, 1-based) into contiguous match
// runs, expands each run by context lines (clamped to the file), and
// merges any two windows that touch or overlap (spec.md §4.7).
func buildHunks(path string, lines []string, matchedLines []int, context int) []Hunk {
	type run struct{ start, end int }
	var runs []run
	for _, n := range matchedLines {
		if len(runs) > 0 && runs[len(runs)-1].end == n-1 {
			runs[len(runs)-1].end = n
			continue
		}
		runs = append(runs, run{n, n})
	}

	total := len(lines)
	type window struct {
		start, end int
		matchRuns  []LineRange
	}
	var windows []window
	for _, r := range runs {
		ws := r.start - context
		if ws < 1 {
			ws = 1
		}
		we := r.end + context
		if we > total {
			we = total
		}
		if len(windows) > 0 && windows[len(windows)-1].end >= ws-1 {
			last := &windows[len(windows)-1]
			if we > last.end {
				last.end = we
			}
			last.matchRuns = append(last.matchRuns, LineRange{r.start, r.end})
		} else {
			windows = append(windows, window{start: ws, end: we, matchRuns: []LineRange{{r.start, r.end}}})
		}
	}

	hunks := make([]Hunk, 0, len(windows))
	for _, w := range windows {
		hunks = append(hunks, Hunk{
			Path:              path,
			PreviewStartLine:  w.start,
			PreviewEndLine:    w.end,
			MatchedLineRanges: w.matchRuns,
			Excerpt:           strings.Join(lines[w.start-1:w.end], "\n"),
		})
	}
	return hunks
}

func matchAny(paths []string, globs []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		for _, g := range globs {
			ok, err := doublestar.Match(g, p)
			if err != nil {
				return nil, ferrors.Newf(ferrors.InvalidPattern, "invalid glob %q: %v", g, err)
			}
			if ok {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}
