// Package pathutil canonicalizes the path strings used as keys throughout
// the file index: forward slashes, no doubled separators, no leading "./",
// no trailing slash. See spec.md §4.1.
package pathutil

import (
	"strings"

	"github.com/fileidx/fileidx/internal/ferrors"
)

// Normalize canonicalizes raw into the index's path form. It is idempotent:
// Normalize(Normalize(p)) == Normalize(p) for every p that normalizes
// successfully.
func Normalize(raw string) (string, error) {
	s := strings.ReplaceAll(raw, "\\", "/")
	s = collapseSlashes(s)
	for strings.HasPrefix(s, "./") {
		s = s[2:]
	}
	if s != "/" {
		s = strings.TrimSuffix(s, "/")
	}
	if s == "" {
		return "", ferrors.WithPath(ferrors.InvalidPath, raw, "path normalizes to empty string")
	}
	return s, nil
}

// MustNormalize panics on invalid input; it exists for call sites that
// already validated raw (tests, literals) and want to skip error plumbing.
func MustNormalize(raw string) string {
	p, err := Normalize(raw)
	if err != nil {
		panic(err)
	}
	return p
}

func collapseSlashes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSlash := false
	for _, r := range s {
		if r == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
