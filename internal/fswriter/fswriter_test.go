package fswriter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fileidx/fileidx/internal/txn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyWritesModifiedFiles(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, nil)

	report := txn.CommitReport{
		FileCount: 2,
		Modified: []txn.ModifiedEntry{
			{Path: "a.txt", Content: []byte("hello")},
			{Path: "nested/b.txt", Content: []byte("world")},
		},
	}

	res := w.Apply(report)
	assert.ElementsMatch(t, []string{"a.txt", "nested/b.txt"}, res.Written)
	assert.Empty(t, res.Failed)

	data, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "nested", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "world", string(data))
}

func TestApplyRemovesDeletedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gone.txt"), []byte("x"), 0o644))

	w := New(dir, nil)
	res := w.Apply(txn.CommitReport{Deleted: []string{"gone.txt"}})
	assert.Equal(t, []string{"gone.txt"}, res.Removed)
	assert.Empty(t, res.Failed)

	_, err := os.Stat(filepath.Join(dir, "gone.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestApplyDeleteOfAlreadyMissingFileIsNotAFailure(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, nil)
	res := w.Apply(txn.CommitReport{Deleted: []string{"never-existed.txt"}})
	assert.Equal(t, []string{"never-existed.txt"}, res.Removed)
	assert.Empty(t, res.Failed)
}

func TestApplyOverwritesExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("old"), 0o644))

	w := New(dir, nil)
	res := w.Apply(txn.CommitReport{
		Modified: []txn.ModifiedEntry{{Path: "a.txt", Content: []byte("new")}},
	})
	assert.Equal(t, []string{"a.txt"}, res.Written)

	data, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestApplyOneFailureDoesNotBlockOthers(t *testing.T) {
	dir := t.TempDir()
	// Create a file at the path a later "directory" write would collide with,
	// forcing MkdirAll to fail for that one entry while others still succeed.
	blocked := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("im a file, not a dir"), 0o644))

	w := New(dir, nil)
	res := w.Apply(txn.CommitReport{
		Modified: []txn.ModifiedEntry{
			{Path: "blocked/child.txt", Content: []byte("x")},
			{Path: "ok.txt", Content: []byte("y")},
		},
	})
	assert.Equal(t, []string{"ok.txt"}, res.Written)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "blocked/child.txt", res.Failed[0].Path)
}

func TestApplyEmptyReport(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, nil)
	res := w.Apply(txn.CommitReport{})
	assert.Empty(t, res.Written)
	assert.Empty(t, res.Removed)
	assert.Empty(t, res.Failed)
}
