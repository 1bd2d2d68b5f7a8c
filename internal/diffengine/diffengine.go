// Package diffengine computes structured line-level diffs between an
// Active record and its staged counterpart, and the per-path modification
// summary consumed by get_modified_files_summary. See spec.md §4.6.
package diffengine

import (
	"github.com/aymanbagabas/go-udiff"

	"github.com/fileidx/fileidx/internal/ferrors"
	"github.com/fileidx/fileidx/internal/record"
	"github.com/fileidx/fileidx/internal/staging"
)

// Region is one contiguous run of changed lines, in the shape spec.md §4.6
// requires.
type Region struct {
	OriginalStart int
	LinesRemoved  int
	RemovedLines  []string
	ModifiedStart int
	LinesAdded    int
	AddedLines    []string
}

// Stats aggregates every region of one file diff.
type Stats struct {
	LinesAdded     int
	LinesRemoved   int
	RegionsChanged int
}

// DiffFiles computes the region list and aggregate stats between original
// and modified. Either may be nil: a nil original means pure creation (one
// region, LinesRemoved 0); a nil modified means deletion (one region,
// LinesAdded 0).
func DiffFiles(original, modified *record.Record) ([]Region, Stats) {
	a := linesOf(original)
	b := linesOf(modified)

	ops := lcsOps(a, b)
	regions := groupRegions(ops)

	stats := Stats{RegionsChanged: len(regions)}
	for _, r := range regions {
		stats.LinesAdded += r.LinesAdded
		stats.LinesRemoved += r.LinesRemoved
	}
	return regions, stats
}

func linesOf(r *record.Record) []string {
	if r == nil {
		return nil
	}
	return r.AllLines()
}

type opKind uint8

const (
	opEqual opKind = iota
	opDelete
	opInsert
)

type op struct {
	kind opKind
	line string
}

// lcsOps computes an edit script from a to b via a classic O(n*m) LCS
// dynamic-program, per spec.md §4.6's "standard longest-common-subsequence
// over line arrays (Hunt–McIlroy or Myers)" guidance.
func lcsOps(a, b []string) []op {
	n, m := len(a), len(b)
	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				dp[i][j] = dp[i+1][j+1] + 1
			} else if dp[i+1][j] >= dp[i][j+1] {
				dp[i][j] = dp[i+1][j]
			} else {
				dp[i][j] = dp[i][j+1]
			}
		}
	}

	ops := make([]op, 0, n+m)
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			ops = append(ops, op{kind: opEqual, line: a[i]})
			i++
			j++
		case dp[i+1][j] >= dp[i][j+1]:
			ops = append(ops, op{kind: opDelete, line: a[i]})
			i++
		default:
			ops = append(ops, op{kind: opInsert, line: b[j]})
			j++
		}
	}
	for ; i < n; i++ {
		ops = append(ops, op{kind: opDelete, line: a[i]})
	}
	for ; j < m; j++ {
		ops = append(ops, op{kind: opInsert, line: b[j]})
	}
	return ops
}

// groupRegions collapses consecutive non-equal ops into Regions, tracking
// 1-based positions in both the original and modified line arrays as it
// walks the script.
func groupRegions(ops []op) []Region {
	var regions []Region
	origPos, modPos := 1, 1
	var cur *Region

	flush := func() {
		if cur != nil {
			regions = append(regions, *cur)
			cur = nil
		}
	}

	for _, o := range ops {
		switch o.kind {
		case opEqual:
			flush()
			origPos++
			modPos++
		case opDelete:
			if cur == nil {
				cur = &Region{OriginalStart: origPos, ModifiedStart: modPos}
			}
			cur.RemovedLines = append(cur.RemovedLines, o.line)
			cur.LinesRemoved++
			origPos++
		case opInsert:
			if cur == nil {
				cur = &Region{OriginalStart: origPos, ModifiedStart: modPos}
			}
			cur.AddedLines = append(cur.AddedLines, o.line)
			cur.LinesAdded++
			modPos++
		}
	}
	flush()
	return regions
}

// Status is the per-path classification returned by Summarize.
type Status string

const (
	StatusCreated  Status = "created"
	StatusModified Status = "modified"
	StatusDeleted  Status = "deleted"
	StatusMoved    Status = "moved"
)

// PathSummary is one entry of get_modified_files_summary.
type PathSummary struct {
	Path         string
	LinesAdded   int
	LinesRemoved int
	Status       Status
}

// Summarize produces the per-modified-path summary for every created,
// modified, and deleted path in ov, pairing a deletion and a creation that
// carry byte-identical content into a single StatusMoved entry rather than
// reporting them as an independent delete and create (spec.md §4.6).
func Summarize(ov *staging.Overlay) []PathSummary {
	active := ov.Active()
	deletedPaths := ov.DeletedPaths()
	modifiedEntries := ov.Modified()

	deletedByContent := make(map[string][]string, len(deletedPaths))
	for _, p := range deletedPaths {
		if r, ok := active.Get(p); ok {
			key := string(r.Bytes)
			deletedByContent[key] = append(deletedByContent[key], p)
		}
	}

	matchedDelete := make(map[string]bool, len(deletedPaths))
	matchedCreate := make(map[string]bool, len(modifiedEntries))
	for _, e := range modifiedEntries {
		if active.Has(e.Path) {
			continue
		}
		cands := deletedByContent[string(e.Record.Bytes)]
		for _, src := range cands {
			if !matchedDelete[src] {
				matchedDelete[src] = true
				matchedCreate[e.Path] = true
				break
			}
		}
	}

	out := make([]PathSummary, 0, len(modifiedEntries)+len(deletedPaths))
	for _, e := range modifiedEntries {
		if matchedCreate[e.Path] {
			out = append(out, PathSummary{Path: e.Path, Status: StatusMoved})
			continue
		}
		orig, existed := active.Get(e.Path)
		status := StatusModified
		if !existed {
			orig = nil
			status = StatusCreated
		}
		_, stats := DiffFiles(orig, e.Record)
		out = append(out, PathSummary{
			Path:         e.Path,
			LinesAdded:   stats.LinesAdded,
			LinesRemoved: stats.LinesRemoved,
			Status:       status,
		})
	}
	for _, p := range deletedPaths {
		if matchedDelete[p] {
			continue
		}
		orig, _ := active.Get(p)
		_, stats := DiffFiles(orig, nil)
		out = append(out, PathSummary{Path: p, LinesRemoved: stats.LinesRemoved, Status: StatusDeleted})
	}
	sortSummaries(out)
	return out
}

func sortSummaries(s []PathSummary) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1].Path > s[j].Path; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// FileDiff computes get_file_diff(path): the region list and stats between
// path's Active record (or nil, for a pure creation) and its staged
// counterpart (or nil, for a staged deletion).
func FileDiff(ov *staging.Overlay, path string) ([]Region, Stats, error) {
	if staged, ok := ov.StagedRecord(path); ok {
		orig, _ := ov.Active().Get(path)
		regions, stats := DiffFiles(orig, staged)
		return regions, stats, nil
	}
	if ov.IsDeleted(path) {
		orig, _ := ov.Active().Get(path)
		regions, stats := DiffFiles(orig, nil)
		return regions, stats, nil
	}
	return nil, Stats{}, ferrors.WithPath(ferrors.NotFound, path, "no staged modification for this path")
}

// UnifiedPreview renders path's pending change as conventional unified-diff
// text, for callers that want something to print or log rather than walk
// Region/Stats themselves. original or modified may be nil for a pure
// creation or deletion, same as DiffFiles.
func UnifiedPreview(path string, original, modified *record.Record) string {
	return udiff.Unified(path, path, textOf(original), textOf(modified))
}

// UnifiedFileDiff is UnifiedPreview sourced the same way FileDiff sources
// Region/Stats: from ov's staged modification or deletion of path.
func UnifiedFileDiff(ov *staging.Overlay, path string) (string, error) {
	if staged, ok := ov.StagedRecord(path); ok {
		orig, _ := ov.Active().Get(path)
		return UnifiedPreview(path, orig, staged), nil
	}
	if ov.IsDeleted(path) {
		orig, _ := ov.Active().Get(path)
		return UnifiedPreview(path, orig, nil), nil
	}
	return "", ferrors.WithPath(ferrors.NotFound, path, "no staged modification for this path")
}

func textOf(r *record.Record) string {
	if r == nil {
		return ""
	}
	return r.Text
}
