// Package fileidx is the external-interface façade described in spec.md §6:
// it wires the Path Normalizer, Generation Store, Staging Overlay,
// Transaction Controller, Line Edit Engine, Diff Engine, and Query Engine
// together behind one Index type and re-exports the ferrors taxonomy so
// callers never import internal/ferrors directly.
package fileidx

import (
	"context"
	"log/slog"
	"time"

	"github.com/fileidx/fileidx/internal/config"
	"github.com/fileidx/fileidx/internal/diffengine"
	"github.com/fileidx/fileidx/internal/ferrors"
	"github.com/fileidx/fileidx/internal/generation"
	"github.com/fileidx/fileidx/internal/lineedit"
	"github.com/fileidx/fileidx/internal/pathutil"
	"github.com/fileidx/fileidx/internal/query"
	"github.com/fileidx/fileidx/internal/record"
	"github.com/fileidx/fileidx/internal/staging"
	"github.com/fileidx/fileidx/internal/txn"
)

// Kind is the ferrors error-category taxonomy, re-exported so callers never
// need to import internal/ferrors directly.
type Kind = ferrors.Kind

// Error kind constants, re-exported from ferrors (spec.md §7).
const (
	KindInvalidPath        = ferrors.InvalidPath
	KindNotFound           = ferrors.NotFound
	KindAlreadyExists      = ferrors.AlreadyExists
	KindReadOnly           = ferrors.ReadOnly
	KindNotUTF8            = ferrors.NotUTF8
	KindLineOutOfRange     = ferrors.LineOutOfRange
	KindOverlappingEdits   = ferrors.OverlappingEdits
	KindInvalidPattern     = ferrors.InvalidPattern
	KindStagingActive      = ferrors.StagingActive
	KindNoStaging          = ferrors.NoStaging
	KindLoadInProgress     = ferrors.LoadInProgress
	KindLoadWhileStaging   = ferrors.LoadWhileStaging
	KindWouldBypassStaging = ferrors.WouldBypassStaging
	KindShapeMismatch      = ferrors.ShapeMismatch
	KindCancelled          = ferrors.Cancelled
	KindInternal           = ferrors.Internal
)

// Sentinel errors, usable with errors.Is.
var (
	ErrInvalidPath        = ferrors.ErrInvalidPath
	ErrNotFound           = ferrors.ErrNotFound
	ErrAlreadyExists      = ferrors.ErrAlreadyExists
	ErrReadOnly           = ferrors.ErrReadOnly
	ErrNotUTF8            = ferrors.ErrNotUTF8
	ErrLineOutOfRange     = ferrors.ErrLineOutOfRange
	ErrOverlappingEdits   = ferrors.ErrOverlappingEdits
	ErrInvalidPattern     = ferrors.ErrInvalidPattern
	ErrStagingActive      = ferrors.ErrStagingActive
	ErrNoStaging          = ferrors.ErrNoStaging
	ErrLoadInProgress     = ferrors.ErrLoadInProgress
	ErrLoadWhileStaging   = ferrors.ErrLoadWhileStaging
	ErrWouldBypassStaging = ferrors.ErrWouldBypassStaging
	ErrShapeMismatch      = ferrors.ErrShapeMismatch
	ErrCancelled          = ferrors.ErrCancelled
	ErrInternal           = ferrors.ErrInternal
)

// Is reports whether err carries kind, following errors.As through any
// wrapping.
func Is(err error, kind Kind) bool { return ferrors.Is(err, kind) }

// Replacement and EditReport are re-exported so callers of replace_lines
// never need to import internal/lineedit directly.
type Replacement = lineedit.Replacement
type EditReport = lineedit.EditReport

// Region, Stats, PathSummary, and Status are re-exported from the Diff
// Engine.
type Region = diffengine.Region
type Stats = diffengine.Stats
type PathSummary = diffengine.PathSummary
type Status = diffengine.Status

// Page, Hunk, LineRange, and FindOptions are re-exported from the Query
// Engine.
type Page = query.Page
type Hunk = query.Hunk
type LineRange = query.LineRange
type FindOptions = query.FindOptions

// Entry pairs a staged path with its record (get_staged_modifications).
type Entry = staging.Entry

// ModifiedEntry and CommitReport are re-exported from the Transaction
// Controller.
type ModifiedEntry = txn.ModifiedEntry
type CommitReport = txn.CommitReport

// Index is the top-level handle a host process opens once and drives
// through the lifecycle described in spec.md §6. It is not safe for
// concurrent use from more than one logical session at a time — see
// spec.md §5 — though Controller itself defends with a mutex.
type Index struct {
	opts   config.IndexOptions
	ctrl   *txn.Controller
	engine *query.Engine
	log    *slog.Logger
}

// New builds an Index with the given options. A zero config.IndexOptions
// falls back to config.DefaultIndexOptions(). A nil logger falls back to
// slog.Default().
func New(opts config.IndexOptions, log *slog.Logger) *Index {
	opts = config.DefaultIndexOptions().Merge(opts)
	if log == nil {
		log = slog.Default()
	}
	return &Index{
		opts:   opts,
		ctrl:   txn.New(generation.Empty(), log),
		engine: query.NewEngine(opts.PatternCacheSize),
		log:    log,
	}
}

// Ping is a liveness no-op: it never fails.
func (ix *Index) Ping() error { return nil }

// Init resets the Index to a fresh, empty Active generation with no
// staging session and no load in progress.
func (ix *Index) Init() error {
	ix.ctrl = txn.New(generation.Empty(), ix.log)
	return nil
}

// --- Lifecycle -------------------------------------------------------

// BeginFileLoad opens a load-staging buffer. See txn.Controller.BeginLoad.
func (ix *Index) BeginFileLoad() error {
	return ix.ctrl.BeginLoad()
}

// LoadFileBatch appends one batch of files delivered by a Scanner. paths,
// contents, mtimes, and editables must all be the same length; texts, if
// non-nil, must be too (a nil element means "derive text from contents",
// a non-nil element supplies an already-extracted rendition for binary
// originals such as PDFs). Mismatched lengths fail ShapeMismatch and load
// none of the batch.
func (ix *Index) LoadFileBatch(paths []string, contents [][]byte, texts []*string, mtimes []int64, editables []bool) (int, error) {
	n := len(paths)
	if len(contents) != n || len(mtimes) != n || len(editables) != n {
		return 0, ferrors.New(ferrors.ShapeMismatch, "paths/contents/mtimes/editables must have equal length")
	}
	if texts != nil && len(texts) != n {
		return 0, ferrors.New(ferrors.ShapeMismatch, "texts, when provided, must match paths in length")
	}

	batch := make([]generation.Batch, 0, n)
	for i, raw := range paths {
		p, err := pathutil.Normalize(raw)
		if err != nil {
			return 0, err
		}

		var text *string
		if texts != nil {
			text = texts[i]
		}

		var rec *record.Record
		if text != nil {
			rec, err = record.FromBytesWithText(contents[i], *text, mtimes[i], editables[i])
		} else {
			rec, err = record.FromBytes(contents[i], mtimes[i], editables[i], ix.opts.LossyUTF8)
		}
		if err != nil {
			return 0, ferrors.Wrap(ferrors.NotUTF8, p, err)
		}
		batch = append(batch, generation.Batch{Path: p, Record: rec})
	}

	if err := ix.ctrl.LoadBatch(batch); err != nil {
		return 0, err
	}
	return len(batch), nil
}

// CommitFileLoad atomically promotes the accumulated load buffer to Active.
func (ix *Index) CommitFileLoad() (int, error) {
	return ix.ctrl.CommitLoad()
}

// AbortFileLoad discards the accumulated load buffer.
func (ix *Index) AbortFileLoad() {
	ix.ctrl.AbortLoad()
}

// ClearIndex resets Active to empty. Fails StagingActive if a session is
// open.
func (ix *Index) ClearIndex() error {
	return ix.ctrl.ClearIndex()
}

// FileCount returns the number of files in the current Active generation.
func (ix *Index) FileCount() int {
	return ix.ctrl.Active().Len()
}

// IndexStats is the result of get_index_stats.
type IndexStats struct {
	FileCount int
}

// GetIndexStats reports summary counters over the current Active
// generation.
func (ix *Index) GetIndexStats() IndexStats {
	return IndexStats{FileCount: ix.FileCount()}
}

// --- Reads -------------------------------------------------------------

// source resolves the effective read view: useStaged selects the open
// overlay if a session is active, falling back to Active when none is
// (the effective view is Active with no overlay); useStaged=false always
// reads Active directly, regardless of whether a session is open (spec.md
// §8 property 4, "Staging isolation").
func (ix *Index) source(useStaged bool) query.Source {
	if useStaged {
		if ov, err := ix.ctrl.Overlay(); err == nil {
			return ov
		}
	}
	return ix.ctrl.Active()
}

// ReadResult is the result of read_file_lines.
type ReadResult struct {
	Path       string
	StartLine  int
	EndLine    int
	Content    string
	TotalLines int
}

// ReadFileLines returns the 1-based inclusive [start, end] line range of
// path's effective content.
func (ix *Index) ReadFileLines(path string, start, end int, useStaged bool) (ReadResult, error) {
	p, err := pathutil.Normalize(path)
	if err != nil {
		return ReadResult{}, err
	}
	rec, ok := ix.source(useStaged).Get(p)
	if !ok {
		return ReadResult{}, ferrors.WithPath(ferrors.NotFound, p, "")
	}
	if !rec.HasText {
		return ReadResult{}, ferrors.WithPath(ferrors.NotUTF8, p, "file has no text rendition")
	}
	total := rec.LineCount()
	if start < 1 || end < start || end > total {
		return ReadResult{}, ferrors.WithPath(ferrors.LineOutOfRange, p, "requested range outside file bounds")
	}
	return ReadResult{
		Path:       p,
		StartLine:  start,
		EndLine:    end,
		Content:    rec.Lines(start, end),
		TotalLines: total,
	}, nil
}

// ListFiles returns the [start, stop) page of the effective view's paths,
// optionally filtered by glob. stop == 0 means unbounded, per spec.md §9.
func (ix *Index) ListFiles(start, stop int, useStaged bool, glob string) (Page, error) {
	return ix.engine.List(ix.source(useStaged), start, stop, glob)
}

// FindInFiles runs a regex search with context windows over the effective
// view. A zero opts.ContextLines falls back to the Index's configured
// DefaultContextLines (spec.md §9); pass a negative ContextLines to force no context. A ctx
// deadline is the optional find_in_files deadline from spec.md §5: once it
// passes, the remaining scan aborts with Cancelled and no partial hunks are
// returned. Pass context.Background() for the common, unbounded case.
func (ix *Index) FindInFiles(ctx context.Context, pattern string, useStaged bool, opts FindOptions) ([]Hunk, error) {
	if opts.ContextLines == 0 {
		opts.ContextLines = ix.opts.DefaultContextLines
	}
	if opts.ContextLines < 0 {
		opts.ContextLines = 0
	}
	return ix.engine.FindInFiles(ctx, ix.source(useStaged), pattern, opts)
}

// --- Staging -------------------------------------------------------------

// BeginIndexStaging opens a staging session and returns its correlation ID.
func (ix *Index) BeginIndexStaging() (string, error) {
	return ix.ctrl.BeginStaging()
}

// CommitIndexStaging promotes the open overlay to Active and returns the
// report a filesystem writer consumes.
func (ix *Index) CommitIndexStaging() (CommitReport, error) {
	return ix.ctrl.CommitStaging()
}

// RevertIndexStaging discards the open overlay, leaving Active untouched.
func (ix *Index) RevertIndexStaging() error {
	return ix.ctrl.RevertStaging()
}

// GetStagedModifications returns every created-or-modified path in the
// open session.
func (ix *Index) GetStagedModifications() ([]Entry, error) {
	ov, err := ix.ctrl.Overlay()
	if err != nil {
		return nil, err
	}
	return ov.Modified(), nil
}

// GetStagedDeletions returns every staged deletion in the open session.
func (ix *Index) GetStagedDeletions() ([]string, error) {
	ov, err := ix.ctrl.Overlay()
	if err != nil {
		return nil, err
	}
	return ov.DeletedPaths(), nil
}

// ModificationWithActive pairs a staged path with both its new content and
// its prior Active content (nil when the path did not exist in Active).
type ModificationWithActive struct {
	Path   string
	Staged *record.Record
	Active *record.Record
}

// GetStagedModificationsWithActive returns every created-or-modified path
// alongside its pre-session Active record, for callers building a diff
// view without a second round trip.
func (ix *Index) GetStagedModificationsWithActive() ([]ModificationWithActive, error) {
	ov, err := ix.ctrl.Overlay()
	if err != nil {
		return nil, err
	}
	modified := ov.Modified()
	out := make([]ModificationWithActive, 0, len(modified))
	for _, e := range modified {
		active, _ := ov.Active().Get(e.Path)
		out = append(out, ModificationWithActive{Path: e.Path, Staged: e.Record, Active: active})
	}
	return out, nil
}

// GetModifiedFilesSummary returns the per-path created/modified/deleted/
// moved summary for the open session.
func (ix *Index) GetModifiedFilesSummary() ([]PathSummary, error) {
	ov, err := ix.ctrl.Overlay()
	if err != nil {
		return nil, err
	}
	return diffengine.Summarize(ov), nil
}

// GetFileDiff returns the region list and aggregate stats for one staged
// path.
func (ix *Index) GetFileDiff(path string) ([]Region, Stats, error) {
	p, err := pathutil.Normalize(path)
	if err != nil {
		return nil, Stats{}, err
	}
	ov, err := ix.ctrl.Overlay()
	if err != nil {
		return nil, Stats{}, err
	}
	return diffengine.FileDiff(ov, p)
}

// GetUnifiedDiff renders the same staged change GetFileDiff reports as
// conventional unified-diff text, for callers (e.g. the reference CLI) that
// want something to print rather than walk Region/Stats themselves.
func (ix *Index) GetUnifiedDiff(path string) (string, error) {
	p, err := pathutil.Normalize(path)
	if err != nil {
		return "", err
	}
	ov, err := ix.ctrl.Overlay()
	if err != nil {
		return "", err
	}
	return diffengine.UnifiedFileDiff(ov, p)
}

// --- Mutations (always staged) -------------------------------------------

// CreateIndexFile stages a new file at path with the given content (empty
// string if content is nil). Fails AlreadyExists unless allowOverwrite is
// set; always produces an editable record (spec.md §9, Open Question (a)).
func (ix *Index) CreateIndexFile(path string, content *string, allowOverwrite bool) error {
	p, err := pathutil.Normalize(path)
	if err != nil {
		return err
	}
	ov, err := ix.ctrl.Overlay()
	if err != nil {
		return err
	}
	text := ""
	if content != nil {
		text = *content
	}
	return ov.Create(p, text, time.Now().UnixMilli(), allowOverwrite)
}

// DeleteIndexFile stages a deletion at path.
func (ix *Index) DeleteIndexFile(path string) error {
	p, err := pathutil.Normalize(path)
	if err != nil {
		return err
	}
	ov, err := ix.ctrl.Overlay()
	if err != nil {
		return err
	}
	return ov.Delete(p)
}

// MoveFile stages a rename from src to dst.
func (ix *Index) MoveFile(src, dst string) error {
	sp, err := pathutil.Normalize(src)
	if err != nil {
		return err
	}
	dp, err := pathutil.Normalize(dst)
	if err != nil {
		return err
	}
	ov, err := ix.ctrl.Overlay()
	if err != nil {
		return err
	}
	return ov.Move(sp, dp)
}

// PathPair is one (src, dst) element of move_files/copy_files.
type PathPair struct {
	Src string
	Dst string
}

// MoveFiles applies MoveFile to every pair in order, stopping at the first
// failure (the pairs already applied remain staged; move_files is not
// itself an atomic unit — each element is, per spec.md §7).
func (ix *Index) MoveFiles(pairs []PathPair) error {
	for _, pr := range pairs {
		if err := ix.MoveFile(pr.Src, pr.Dst); err != nil {
			return err
		}
	}
	return nil
}

// CopyFile stages a copy of src's current content at dst, preserving src's
// editable flag (spec.md §9, Open Question (b)).
func (ix *Index) CopyFile(src, dst string) error {
	sp, err := pathutil.Normalize(src)
	if err != nil {
		return err
	}
	dp, err := pathutil.Normalize(dst)
	if err != nil {
		return err
	}
	ov, err := ix.ctrl.Overlay()
	if err != nil {
		return err
	}
	return ov.Copy(sp, dp)
}

// CopyFiles applies CopyFile to every pair in order, stopping at the
// first failure.
func (ix *Index) CopyFiles(pairs []PathPair) error {
	for _, pr := range pairs {
		if err := ix.CopyFile(pr.Src, pr.Dst); err != nil {
			return err
		}
	}
	return nil
}

// --- Line edits (use_staged selects staged vs. bypass) --------------------

// editSurface resolves the write target for a line edit: useStaged routes
// into the open overlay (NoStaging if none is open); useStaged=false
// bypasses straight to Active, but only when no session is open —
// otherwise it fails WouldBypassStaging, since editing Active directly
// while a session holds a divergent view of it would let the eventual
// commit silently clobber the bypassed edit (spec.md §4.5).
func (ix *Index) editSurface(useStaged bool) (lineedit.Surface, error) {
	if useStaged {
		return ix.ctrl.Overlay()
	}
	if ix.ctrl.State() == txn.Staging {
		return nil, ferrors.New(ferrors.WouldBypassStaging, "a staging session is open; pass use_staged=true")
	}
	return ix.ctrl.MutableActiveView(), nil
}

// ReplaceLines applies non-overlapping line replacements to path.
func (ix *Index) ReplaceLines(path string, reps []Replacement, useStaged bool) (*EditReport, error) {
	p, err := pathutil.Normalize(path)
	if err != nil {
		return nil, err
	}
	s, err := ix.editSurface(useStaged)
	if err != nil {
		return nil, err
	}
	return lineedit.ReplaceLines(s, p, reps)
}

// DeleteLines removes the given 1-based line numbers from path.
func (ix *Index) DeleteLines(path string, lineNumbers []int, useStaged bool) (*EditReport, error) {
	p, err := pathutil.Normalize(path)
	if err != nil {
		return nil, err
	}
	s, err := ix.editSurface(useStaged)
	if err != nil {
		return nil, err
	}
	return lineedit.DeleteLines(s, p, lineNumbers)
}

// InsertBeforeLine inserts content immediately before line n of path.
func (ix *Index) InsertBeforeLine(path string, n int, content string, useStaged bool) (*EditReport, error) {
	p, err := pathutil.Normalize(path)
	if err != nil {
		return nil, err
	}
	s, err := ix.editSurface(useStaged)
	if err != nil {
		return nil, err
	}
	return lineedit.InsertBeforeLine(s, p, n, content)
}

// InsertAfterLine inserts content immediately after line n of path (or
// appends, when n == line_count+1).
func (ix *Index) InsertAfterLine(path string, n int, content string, useStaged bool) (*EditReport, error) {
	p, err := pathutil.Normalize(path)
	if err != nil {
		return nil, err
	}
	s, err := ix.editSurface(useStaged)
	if err != nil {
		return nil, err
	}
	return lineedit.InsertAfterLine(s, p, n, content)
}
