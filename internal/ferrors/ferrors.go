// Package ferrors defines the error taxonomy shared by every fileidx core
// package. A single tagged Error type carries a Kind, an optional Path, and
// a wrapped cause so callers can branch on errors.Is against the sentinel
// values below without string-matching messages.
package ferrors

import (
	"errors"
	"fmt"
)

// Kind enumerates the recoverable error categories from spec.md §7.
type Kind string

const (
	InvalidPath        Kind = "invalid_path"
	NotFound           Kind = "not_found"
	AlreadyExists      Kind = "already_exists"
	ReadOnly           Kind = "read_only"
	NotUTF8            Kind = "not_utf8"
	LineOutOfRange     Kind = "line_out_of_range"
	OverlappingEdits   Kind = "overlapping_edits"
	InvalidPattern     Kind = "invalid_pattern"
	StagingActive      Kind = "staging_active"
	NoStaging          Kind = "no_staging"
	LoadInProgress     Kind = "load_in_progress"
	LoadWhileStaging   Kind = "load_while_staging"
	WouldBypassStaging Kind = "would_bypass_staging"
	ShapeMismatch      Kind = "shape_mismatch"
	Cancelled          Kind = "cancelled"
	Internal           Kind = "internal"
)

// Error is the concrete error type returned at every fileidx API boundary.
type Error struct {
	Kind Kind
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Path != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Msg)
	case e.Path != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Path)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes *Error comparable against a sentinel constructed with the same
// Kind via errors.New-style plain sentinels (see the Err* vars below): a
// sentinel's Kind matching is sufficient, path and message are ignored.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New constructs an *Error with no path or wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf constructs an *Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WithPath constructs an *Error scoped to a path.
func WithPath(kind Kind, path, msg string) *Error {
	return &Error{Kind: kind, Path: path, Msg: msg}
}

// Wrap constructs an *Error scoped to a path that wraps a lower-level cause.
func Wrap(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// KindOf returns the Kind of err if it is (or wraps) a *Error, and false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Is reports whether err's Kind matches kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Sentinel values usable with errors.Is(err, ferrors.ErrNotFound); only the
// Kind is ever compared, see (*Error).Is above.
var (
	ErrInvalidPath        = &Error{Kind: InvalidPath}
	ErrNotFound           = &Error{Kind: NotFound}
	ErrAlreadyExists      = &Error{Kind: AlreadyExists}
	ErrReadOnly           = &Error{Kind: ReadOnly}
	ErrNotUTF8            = &Error{Kind: NotUTF8}
	ErrLineOutOfRange     = &Error{Kind: LineOutOfRange}
	ErrOverlappingEdits   = &Error{Kind: OverlappingEdits}
	ErrInvalidPattern     = &Error{Kind: InvalidPattern}
	ErrStagingActive      = &Error{Kind: StagingActive}
	ErrNoStaging          = &Error{Kind: NoStaging}
	ErrLoadInProgress     = &Error{Kind: LoadInProgress}
	ErrLoadWhileStaging   = &Error{Kind: LoadWhileStaging}
	ErrWouldBypassStaging = &Error{Kind: WouldBypassStaging}
	ErrShapeMismatch      = &Error{Kind: ShapeMismatch}
	ErrCancelled          = &Error{Kind: Cancelled}
	ErrInternal           = &Error{Kind: Internal}
)
