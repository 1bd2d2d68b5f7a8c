package staging

import (
	"testing"

	"github.com/fileidx/fileidx/internal/ferrors"
	"github.com/fileidx/fileidx/internal/generation"
	"github.com/fileidx/fileidx/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReadRoundTrip(t *testing.T) {
	ov := New(generation.Empty())
	require.NoError(t, ov.Create("a.txt", "x\ny\nz", 0, false))
	r, ok := ov.Get("a.txt")
	require.True(t, ok)
	assert.Equal(t, "x\ny\nz", r.Lines(1, r.LineCount()))
}

func TestCreateAlreadyExists(t *testing.T) {
	ov := New(generation.Empty())
	require.NoError(t, ov.Create("a.txt", "1", 0, false))
	err := ov.Create("a.txt", "2", 0, false)
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.AlreadyExists))
}

func TestCreateOverwriteReadOnlyFails(t *testing.T) {
	active := generation.New(map[string]*record.Record{
		"doc.pdf": mustRecord(t, "extracted text", false),
	})
	ov := New(active)
	err := ov.Create("doc.pdf", "new text", 0, true)
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.ReadOnly))
}

func TestDeleteGhostPathCollapses(t *testing.T) {
	ov := New(generation.Empty())
	require.NoError(t, ov.Create("a.txt", "1", 0, false))
	require.NoError(t, ov.Delete("a.txt"))
	assert.Empty(t, ov.DeletedPaths(), "never-committed creation must not become a filesystem deletion")
	assert.False(t, ov.Has("a.txt"))
}

func TestDeleteExistingActiveRecordsDeletion(t *testing.T) {
	active := generation.New(map[string]*record.Record{"a.txt": record.FromText("1", 0, true)})
	ov := New(active)
	require.NoError(t, ov.Delete("a.txt"))
	assert.Equal(t, []string{"a.txt"}, ov.DeletedPaths())
}

func TestDeleteNotFound(t *testing.T) {
	ov := New(generation.Empty())
	err := ov.Delete("missing.txt")
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.NotFound))
}

// TestMoveChainCollapsesGhostDeletion is scenario S2 from spec.md §8.
func TestMoveChainCollapsesGhostDeletion(t *testing.T) {
	ov := New(generation.Empty())
	require.NoError(t, ov.Create("A", "1", 0, false))
	require.NoError(t, ov.Move("A", "B"))
	require.NoError(t, ov.Move("B", "C"))

	assert.Empty(t, ov.DeletedPaths())
	mod := ov.Modified()
	require.Len(t, mod, 1)
	assert.Equal(t, "C", mod[0].Path)
	assert.False(t, ov.Has("A"))
	assert.False(t, ov.Has("B"))
	r, ok := ov.Get("C")
	require.True(t, ok)
	assert.Equal(t, "1", r.Text)
}

// TestMoveExistingFileRecordsDeletion is scenario S3.
func TestMoveExistingFileRecordsDeletion(t *testing.T) {
	active := generation.New(map[string]*record.Record{"old.txt": record.FromText("hi", 0, true)})
	ov := New(active)
	require.NoError(t, ov.Move("old.txt", "new.txt"))

	mod := ov.Modified()
	require.Len(t, mod, 1)
	assert.Equal(t, "new.txt", mod[0].Path)
	assert.Equal(t, []string{"old.txt"}, ov.DeletedPaths())
}

func TestMoveNotFoundAndAlreadyExists(t *testing.T) {
	active := generation.New(map[string]*record.Record{
		"a.txt": record.FromText("1", 0, true),
		"b.txt": record.FromText("2", 0, true),
	})
	ov := New(active)

	err := ov.Move("missing.txt", "c.txt")
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.NotFound))

	err = ov.Move("a.txt", "b.txt")
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.AlreadyExists))
}

func TestCopyPreservesEditableFlag(t *testing.T) {
	active := generation.New(map[string]*record.Record{
		"doc.pdf": mustRecord(t, "extracted", false),
	})
	ov := New(active)
	require.NoError(t, ov.Copy("doc.pdf", "doc-copy.pdf"))
	r, ok := ov.Get("doc-copy.pdf")
	require.True(t, ok)
	assert.False(t, r.Editable)
	// the source is untouched
	assert.True(t, ov.Has("doc.pdf"))
}

func TestRevertPurity(t *testing.T) {
	active := generation.New(map[string]*record.Record{
		"a.txt": record.FromText("1", 0, true),
		"b.txt": record.FromText("2", 0, true),
	})
	before := active
	ov := New(active)
	require.NoError(t, ov.Create("c.txt", "new", 0, false))
	require.NoError(t, ov.Delete("a.txt"))
	require.NoError(t, ov.Put("b.txt", record.FromText("modified", 0, true)))

	// Reverting means simply dropping the overlay; Active is untouched.
	assert.Same(t, before, ov.Active())
	r, _ := before.Get("a.txt")
	assert.Equal(t, "1", r.Text)
	r, _ = before.Get("b.txt")
	assert.Equal(t, "2", r.Text)
	assert.False(t, before.Has("c.txt"))
}

func TestApplyMergesOverlayOntoActive(t *testing.T) {
	active := generation.New(map[string]*record.Record{
		"a.txt": record.FromText("1", 0, true),
		"b.txt": record.FromText("2", 0, true),
	})
	ov := New(active)
	require.NoError(t, ov.Delete("a.txt"))
	require.NoError(t, ov.Create("c.txt", "3", 0, false))

	next := ov.Apply()
	assert.False(t, next.Has("a.txt"))
	r, ok := next.Get("b.txt")
	require.True(t, ok)
	assert.Equal(t, "2", r.Text)
	r, ok = next.Get("c.txt")
	require.True(t, ok)
	assert.Equal(t, "3", r.Text)
}

func mustRecord(t *testing.T, text string, editable bool) *record.Record {
	t.Helper()
	if editable {
		return record.FromText(text, 0, true)
	}
	r, err := record.FromBytesWithText([]byte("%PDF-raw"), text, 0, false)
	require.NoError(t, err)
	return r
}
