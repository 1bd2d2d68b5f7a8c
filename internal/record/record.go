// Package record implements FileRecord, the immutable per-file value that
// backs every generation and overlay entry. See spec.md §4.2.
package record

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/fileidx/fileidx/internal/ferrors"
)

// Record is an immutable snapshot of one file's content. Line indexing is
// computed once on first access and memoized; because Records are never
// mutated after construction, the compute-once pattern is safe without
// further synchronization (spec.md §9, "Lazy line index").
type Record struct {
	Bytes    []byte
	Text     string
	HasText  bool
	MTime    int64
	Editable bool

	lineOnce    sync.Once
	lineOffsets []int
	textEnd     int // len(Text), minus 1 if Text ends with a trailing '\n'
}

// FromBytes treats bytes as UTF-8 text. When the bytes are not valid UTF-8:
// if lossy is true they are lossy-decoded (replacement characters inserted);
// otherwise construction fails with NotUtf8 unless editable is false, in
// which case the record is kept byte-only with no Text (spec.md §9(c)).
func FromBytes(data []byte, mtime int64, editable, lossy bool) (*Record, error) {
	if utf8.Valid(data) {
		return &Record{Bytes: data, Text: string(data), HasText: true, MTime: mtime, Editable: editable}, nil
	}
	if lossy {
		return &Record{Bytes: data, Text: string([]rune(string(data))), HasText: true, MTime: mtime, Editable: editable}, nil
	}
	if editable {
		return nil, ferrors.New(ferrors.NotUTF8, "content is not valid UTF-8")
	}
	return &Record{Bytes: data, HasText: false, MTime: mtime, Editable: false}, nil
}

// FromBytesWithText is used for extracted documents (PDF/DOCX): bytes holds
// the original (possibly binary) payload, text holds the extracted
// rendition used for line-addressable reads. Extracted documents are never
// directly editable — editable must be false.
func FromBytesWithText(data []byte, text string, mtime int64, editable bool) (*Record, error) {
	if editable {
		return nil, ferrors.New(ferrors.Internal, "records constructed with a secondary text payload must not be editable")
	}
	return &Record{Bytes: data, Text: text, HasText: true, MTime: mtime, Editable: editable}, nil
}

// FromText constructs a plain, editable text record — the common case for
// staged creates and line edits, where the caller already has the final
// string and only needs it wrapped.
func FromText(text string, mtime int64, editable bool) *Record {
	return &Record{Bytes: []byte(text), Text: text, HasText: true, MTime: mtime, Editable: editable}
}

func (r *Record) offsets() []int {
	r.lineOnce.Do(func() {
		r.lineOffsets = computeLineOffsets(r.Text)
		r.textEnd = len(r.Text)
		if r.textEnd > 0 && r.Text[r.textEnd-1] == '\n' {
			r.textEnd--
		}
	})
	return r.lineOffsets
}

// computeLineOffsets returns the byte offset of the start of each line.
// Lines are delimited by '\n'; a trailing '\n' does not create an empty
// final line. An empty text has exactly one line of length zero.
func computeLineOffsets(text string) []int {
	offsets := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' && i != len(text)-1 {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// LineCount returns the number of lines in the record's text.
func (r *Record) LineCount() int {
	return len(r.offsets())
}

// Lines returns the substring covering 1-based lines [start, end] inclusive,
// joined by "\n". start and end are clamped to [1, LineCount()], never an
// error. The result carries a trailing newline iff the range does not reach
// the file's last line.
func (r *Record) Lines(start, end int) string {
	offsets := r.offsets()
	n := len(offsets)
	if start < 1 {
		start = 1
	}
	if start > n {
		start = n
	}
	if end > n {
		end = n
	}
	if end < start {
		return ""
	}

	from := offsets[start-1]
	var to int
	if end == n {
		to = r.textEnd
	} else {
		to = offsets[end] // keep the delimiting '\n'
	}
	return r.Text[from:to]
}

// LineSlice returns the 1-based [start, end] inclusive range as individual
// lines, with no trailing newline on any element.
func (r *Record) LineSlice(start, end int) []string {
	joined := r.Lines(start, end)
	if joined == "" && r.LineCount() == 0 {
		return nil
	}
	return strings.Split(strings.TrimSuffix(joined, "\n"), "\n")
}

// AllLines returns every line in the record.
func (r *Record) AllLines() []string {
	return r.LineSlice(1, r.LineCount())
}

// SplitTextToLines splits replacement text the way the Line Edit Engine
// requires: a string with k newlines produces k+1 lines unless it ends in
// '\n', and an empty string produces one empty line (spec.md §4.5). It
// follows the same trailing-'\n' convention as line_offsets, so a trailing
// newline in replacement text does not introduce a phantom empty line
// ("a\nb\n" yields two lines, like "a\nb").
func SplitTextToLines(text string) []string {
	return FromText(text, 0, true).AllLines()
}

// WithLines builds a new Record whose text is the given lines joined by
// "\n", copying MTime/Editable from the receiver and stamping mtime if
// provided non-zero. Used by the Line Edit Engine to produce the
// copy-on-write replacement after every edit.
func (r *Record) WithLines(lines []string, mtime int64) *Record {
	if mtime == 0 {
		mtime = r.MTime
	}
	return FromText(strings.Join(lines, "\n"), mtime, r.Editable)
}
