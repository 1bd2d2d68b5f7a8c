// Package txn implements the Transaction Controller: the Idle -> Staging
// -> Idle state machine that guarantees at most one active staging session
// and atomic promotion of a staged generation to Active. See spec.md §4.4.
package txn

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/fileidx/fileidx/internal/ferrors"
	"github.com/fileidx/fileidx/internal/generation"
	"github.com/fileidx/fileidx/internal/record"
	"github.com/fileidx/fileidx/internal/staging"
)

// State is the Controller's lifecycle position.
type State string

const (
	Idle    State = "idle"
	Staging State = "staging"
)

// ModifiedEntry is one (path, staged content) pair of a CommitReport.
type ModifiedEntry struct {
	Path    string
	Content []byte
}

// CommitReport is what commit_staging hands to the external filesystem
// writer (spec.md §4.4).
type CommitReport struct {
	FileCount int
	Modified  []ModifiedEntry
	Deleted   []string
}

// Controller guards one index's Active generation and, while a session is
// open, its Staging Overlay. The spec's scheduling model (§5) is
// single-threaded cooperative and requires no internal locking, but a
// Controller is a long-lived service value reachable from multiple API
// entry points, so it carries a mutex the way the teacher's own service
// types do — defensive, not spec-mandated.
type Controller struct {
	mu sync.Mutex

	active  *generation.Generation
	overlay *staging.Overlay
	loader  *generation.Loader

	sessionID string
	log       *slog.Logger
}

// New builds a Controller over the given initial Active generation (use
// generation.Empty() for a fresh index).
func New(active *generation.Generation, log *slog.Logger) *Controller {
	if active == nil {
		active = generation.Empty()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Controller{active: active, loader: generation.NewLoader(), log: log}
}

// State reports the Controller's current lifecycle position.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state()
}

func (c *Controller) state() State {
	if c.overlay != nil {
		return Staging
	}
	return Idle
}

// Active returns the current Active generation. Safe to call in any state;
// while Staging, it is the pre-session snapshot, not the effective view.
func (c *Controller) Active() *generation.Generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// MutableActiveView builds a lineedit.Surface over Active for bypass edits.
// Callers must only invoke this outside a staging session (WouldBypassStaging
// is the caller's responsibility to enforce, since it is an API-layer
// concern, not the Controller's).
func (c *Controller) MutableActiveView() *generation.MutableView {
	return generation.NewMutableView(
		func() *generation.Generation {
			c.mu.Lock()
			defer c.mu.Unlock()
			return c.active
		},
		func(g *generation.Generation) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.active = g
		},
	)
}

// BeginLoad opens a load-staging buffer. Fails LoadInProgress if one is
// already open, or LoadWhileStaging if a staging session is open.
func (c *Controller) BeginLoad() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loader.IsOpen() {
		return ferrors.New(ferrors.LoadInProgress, "a load is already in progress")
	}
	if c.overlay != nil {
		return ferrors.New(ferrors.LoadWhileStaging, "cannot begin a load while a staging session is open")
	}
	err := c.loader.Begin()
	if err == nil {
		c.log.Debug("file load begun")
	}
	return err
}

// LoadBatch appends a batch of records to the open load buffer.
func (c *Controller) LoadBatch(batch []generation.Batch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loader.LoadBatch(batch)
}

// CommitLoad atomically swaps the accumulated load buffer in as the new
// Active generation.
func (c *Controller) CommitLoad() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen, count, err := c.loader.Commit()
	if err != nil {
		return 0, err
	}
	c.active = gen
	c.log.Info("file load committed", "fileCount", count)
	return count, nil
}

// AbortLoad discards the accumulated load buffer.
func (c *Controller) AbortLoad() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loader.Abort()
	c.log.Debug("file load aborted")
}

// ClearIndex resets Active to the empty generation. Fails StagingActive if
// a staging session is open.
func (c *Controller) ClearIndex() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.overlay != nil {
		return ferrors.New(ferrors.StagingActive, "cannot clear the index while a staging session is open")
	}
	c.active = generation.Empty()
	return nil
}

// BeginStaging opens a staging session over the current Active generation
// and returns a session ID stamped for log correlation. Fails StagingActive
// if a session is already open, or LoadInProgress if a load is in flight.
func (c *Controller) BeginStaging() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.overlay != nil {
		return "", ferrors.New(ferrors.StagingActive, "a staging session is already active")
	}
	if c.loader.IsOpen() {
		return "", ferrors.New(ferrors.LoadInProgress, "cannot begin staging while a load is in progress")
	}
	c.overlay = staging.New(c.active)
	c.sessionID = uuid.NewString()
	c.log.Debug("staging session begun", "session", c.sessionID)
	return c.sessionID, nil
}

// Overlay returns the open session's overlay, or NoStaging if idle.
func (c *Controller) Overlay() (*staging.Overlay, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overlayLocked()
}

func (c *Controller) overlayLocked() (*staging.Overlay, error) {
	if c.overlay == nil {
		return nil, ferrors.New(ferrors.NoStaging, "no staging session is open")
	}
	return c.overlay, nil
}

// CommitStaging produces a CommitReport from the open overlay, swaps it in
// as the new Active generation, and closes the session. Fails NoStaging if
// idle.
func (c *Controller) CommitStaging() (CommitReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ov, err := c.overlayLocked()
	if err != nil {
		return CommitReport{}, err
	}

	modifiedEntries := ov.Modified()
	modified := make([]ModifiedEntry, 0, len(modifiedEntries))
	for _, e := range modifiedEntries {
		modified = append(modified, ModifiedEntry{Path: e.Path, Content: contentBytes(e.Record)})
	}
	report := CommitReport{
		FileCount: len(modified),
		Modified:  modified,
		Deleted:   ov.DeletedPaths(),
	}

	c.active = ov.Apply()
	c.log.Info("staging session committed",
		"session", c.sessionID, "modified", len(report.Modified), "deleted", len(report.Deleted))
	c.overlay = nil
	c.sessionID = ""
	return report, nil
}

// RevertStaging discards the open overlay, leaving Active untouched. Fails
// NoStaging if idle.
func (c *Controller) RevertStaging() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.overlayLocked(); err != nil {
		return err
	}
	c.log.Debug("staging session reverted", "session", c.sessionID)
	c.overlay = nil
	c.sessionID = ""
	return nil
}

func contentBytes(r *record.Record) []byte {
	if r.HasText {
		return []byte(r.Text)
	}
	return r.Bytes
}
