package query

import (
	"context"
	"errors"
	"testing"

	"github.com/fileidx/fileidx/internal/ferrors"
	"github.com/fileidx/fileidx/internal/generation"
	"github.com/fileidx/fileidx/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureGeneration() *generation.Generation {
	return generation.New(map[string]*record.Record{
		"src/a.ts":  record.FromText("fn foo()\n  body\nend\n", 0, true),
		"test/a.ts": record.FromText("foo", 0, true),
	})
}

// TestFindInFilesScenarioS6 is spec.md §8 scenario S6.
func TestFindInFilesScenarioS6(t *testing.T) {
	e := NewEngine(0)
	hunks, err := e.FindInFiles(context.Background(), fixtureGeneration(), "foo", FindOptions{
		IncludeGlobs: []string{"src/**"},
		ContextLines: 1,
	})
	require.NoError(t, err)
	require.Len(t, hunks, 1)
	h := hunks[0]
	assert.Equal(t, "src/a.ts", h.Path)
	assert.Equal(t, 1, h.PreviewStartLine)
	assert.Equal(t, 2, h.PreviewEndLine)
	assert.Equal(t, []LineRange{{Start: 1, End: 1}}, h.MatchedLineRanges)
	assert.Equal(t, "fn foo()\n  body", h.Excerpt)
}

func TestFindInFilesCaseInsensitive(t *testing.T) {
	e := NewEngine(0)
	gen := generation.New(map[string]*record.Record{
		"a.txt": record.FromText("Hello World", 0, true),
	})
	hunks, err := e.FindInFiles(context.Background(), gen, "hello", FindOptions{CaseInsensitive: true})
	require.NoError(t, err)
	require.Len(t, hunks, 1)

	hunks, err = e.FindInFiles(context.Background(), gen, "hello", FindOptions{})
	require.NoError(t, err)
	assert.Empty(t, hunks)
}

func TestFindInFilesWholeWord(t *testing.T) {
	e := NewEngine(0)
	gen := generation.New(map[string]*record.Record{
		"a.txt": record.FromText("catalog cat category", 0, true),
	})
	hunks, err := e.FindInFiles(context.Background(), gen, "cat", FindOptions{WholeWord: true})
	require.NoError(t, err)
	require.Len(t, hunks, 1)
	assert.Equal(t, "catalog cat category", hunks[0].Excerpt)
}

func TestFindInFilesInvalidPattern(t *testing.T) {
	e := NewEngine(0)
	gen := generation.New(map[string]*record.Record{"a.txt": record.FromText("x", 0, true)})
	_, err := e.FindInFiles(context.Background(), gen, "(unclosed", FindOptions{})
	require.Error(t, err)
}

func TestFindInFilesAdjacentHunksMerge(t *testing.T) {
	e := NewEngine(0)
	gen := generation.New(map[string]*record.Record{
		"a.txt": record.FromText("foo\nb\nc\nd\nfoo\ne", 0, true),
	})
	// Lines 1 and 5 match; with context 2 their windows [1-2,1+2]=[1,3] and
	// [3,7]->clamped[3,6] touch at line 3 and must merge into one hunk.
	hunks, err := e.FindInFiles(context.Background(), gen, "foo", FindOptions{ContextLines: 2})
	require.NoError(t, err)
	require.Len(t, hunks, 1)
	assert.Equal(t, 1, hunks[0].PreviewStartLine)
	assert.Equal(t, 6, hunks[0].PreviewEndLine)
	assert.Equal(t, []LineRange{{Start: 1, End: 1}, {Start: 5, End: 5}}, hunks[0].MatchedLineRanges)
}

// TestSearchContextMonotonicity is testable property 10: increasing
// context_lines never reduces any hunk's preview span.
func TestSearchContextMonotonicity(t *testing.T) {
	e := NewEngine(0)
	gen := generation.New(map[string]*record.Record{
		"a.txt": record.FromText("1\n2\nfoo\n4\n5\n6\n7", 0, true),
	})
	prevSpan := -1
	for ctx := 0; ctx <= 5; ctx++ {
		hunks, err := e.FindInFiles(context.Background(), gen, "foo", FindOptions{ContextLines: ctx})
		require.NoError(t, err)
		require.Len(t, hunks, 1)
		span := hunks[0].PreviewEndLine - hunks[0].PreviewStartLine
		assert.GreaterOrEqual(t, span, prevSpan)
		prevSpan = span
	}
}

func TestListPaginationAndGlob(t *testing.T) {
	e := NewEngine(0)
	gen := generation.New(map[string]*record.Record{
		"a.txt":     record.FromText("1", 0, true),
		"b.txt":     record.FromText("2", 0, true),
		"c.txt":     record.FromText("3", 0, true),
		"sub/d.txt": record.FromText("4", 0, true),
	})

	page, err := e.List(gen, 0, 0, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt", "sub/d.txt"}, page.Files)
	assert.Equal(t, 4, page.Total)

	page, err = e.List(gen, 1, 3, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt", "c.txt"}, page.Files)
	assert.Equal(t, 1, page.Start)
	assert.Equal(t, 3, page.End)

	page, err = e.List(gen, 0, 0, "*.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, page.Files)
	assert.Equal(t, 3, page.Total)
}

func TestListInvalidGlob(t *testing.T) {
	e := NewEngine(0)
	gen := fixtureGeneration()
	_, err := e.List(gen, 0, 0, "[")
	require.Error(t, err)
}

// TestFindInFilesCancelledContextAbortsScan is spec.md §5: an already-past
// deadline aborts the scan with Cancelled and no partial hunks.
func TestFindInFilesCancelledContextAbortsScan(t *testing.T) {
	e := NewEngine(0)
	gen := fixtureGeneration()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	hunks, err := e.FindInFiles(ctx, gen, "foo", FindOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ferrors.ErrCancelled))
	assert.Nil(t, hunks)
}
