package txn

import (
	"testing"

	"github.com/fileidx/fileidx/internal/ferrors"
	"github.com/fileidx/fileidx/internal/generation"
	"github.com/fileidx/fileidx/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateTransitions(t *testing.T) {
	c := New(nil, nil)
	assert.Equal(t, Idle, c.State())

	sessionID, err := c.BeginStaging()
	require.NoError(t, err)
	assert.NotEmpty(t, sessionID)
	assert.Equal(t, Staging, c.State())

	_, err = c.BeginStaging()
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.StagingActive))

	_, err = c.CommitStaging()
	require.NoError(t, err)
	assert.Equal(t, Idle, c.State())
}

func TestCommitStagingNoStaging(t *testing.T) {
	c := New(nil, nil)
	_, err := c.CommitStaging()
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.NoStaging))

	err = c.RevertStaging()
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.NoStaging))

	_, err = c.Overlay()
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.NoStaging))
}

func TestLoadWhileStagingRejected(t *testing.T) {
	c := New(nil, nil)
	_, err := c.BeginStaging()
	require.NoError(t, err)

	err = c.BeginLoad()
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.LoadWhileStaging))
}

func TestStagingWhileLoadingRejected(t *testing.T) {
	c := New(nil, nil)
	require.NoError(t, c.BeginLoad())

	_, err := c.BeginStaging()
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.LoadInProgress))
}

func TestLoadInProgressRejectsNestedBegin(t *testing.T) {
	c := New(nil, nil)
	require.NoError(t, c.BeginLoad())
	err := c.BeginLoad()
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.LoadInProgress))
}

func TestCommitLoadSwapsActive(t *testing.T) {
	c := New(nil, nil)
	require.NoError(t, c.BeginLoad())
	require.NoError(t, c.LoadBatch([]generation.Batch{
		{Path: "a.txt", Record: record.FromText("1", 0, true)},
	}))
	count, err := c.CommitLoad()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.True(t, c.Active().Has("a.txt"))
}

// TestCommitStagingScenarioS2 is spec.md §8 scenario S2 exercised through
// the Controller, confirming CommitReport reflects the collapsed ghost
// deletion end to end.
func TestCommitStagingScenarioS2(t *testing.T) {
	c := New(nil, nil)
	_, err := c.BeginStaging()
	require.NoError(t, err)

	ov, err := c.Overlay()
	require.NoError(t, err)
	require.NoError(t, ov.Create("A", "1", 0, false))
	require.NoError(t, ov.Move("A", "B"))
	require.NoError(t, ov.Move("B", "C"))

	report, err := c.CommitStaging()
	require.NoError(t, err)
	require.Len(t, report.Modified, 1)
	assert.Equal(t, "C", report.Modified[0].Path)
	assert.Empty(t, report.Deleted)
}

// TestCommitStagingScenarioS3 is spec.md §8 scenario S3.
func TestCommitStagingScenarioS3(t *testing.T) {
	active := generation.New(map[string]*record.Record{
		"old.txt": record.FromText("hi", 0, true),
	})
	c := New(active, nil)
	_, err := c.BeginStaging()
	require.NoError(t, err)

	ov, err := c.Overlay()
	require.NoError(t, err)
	require.NoError(t, ov.Move("old.txt", "new.txt"))

	report, err := c.CommitStaging()
	require.NoError(t, err)
	assert.Equal(t, []ModifiedEntry{{Path: "new.txt", Content: []byte("hi")}}, report.Modified)
	assert.Equal(t, []string{"old.txt"}, report.Deleted)

	assert.True(t, c.Active().Has("new.txt"))
	assert.False(t, c.Active().Has("old.txt"))
}

// TestRevertStagingPurity is testable property 5.
func TestRevertStagingPurity(t *testing.T) {
	active := generation.New(map[string]*record.Record{
		"a.txt": record.FromText("1", 0, true),
	})
	c := New(active, nil)
	before := c.Active()

	_, err := c.BeginStaging()
	require.NoError(t, err)
	ov, err := c.Overlay()
	require.NoError(t, err)
	require.NoError(t, ov.Delete("a.txt"))
	require.NoError(t, ov.Create("b.txt", "new", 0, false))

	require.NoError(t, c.RevertStaging())
	assert.Equal(t, Idle, c.State())
	assert.Same(t, before, c.Active())
}

func TestClearIndexRejectedDuringStaging(t *testing.T) {
	c := New(nil, nil)
	_, err := c.BeginStaging()
	require.NoError(t, err)
	err = c.ClearIndex()
	require.Error(t, err)
	assert.True(t, ferrors.Is(err, ferrors.StagingActive))
}

func TestMutableActiveViewEditsActiveInPlace(t *testing.T) {
	active := generation.New(map[string]*record.Record{
		"a.txt": record.FromText("1", 0, true),
	})
	c := New(active, nil)
	view := c.MutableActiveView()
	require.NoError(t, view.Put("a.txt", record.FromText("1-edited", 0, true)))

	r, ok := c.Active().Get("a.txt")
	require.True(t, ok)
	assert.Equal(t, "1-edited", r.Text)
}
