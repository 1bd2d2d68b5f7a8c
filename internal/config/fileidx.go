package config

import (
	"cmp"
	"sort"
)

// IndexOptions configures a fileidx.Index: default pagination, search
// defaults, and the glob patterns a Scanner should skip outright.
type IndexOptions struct {
	// DefaultPageSize is the page size a list_files caller should apply
	// when it wants a bounded first page instead of the engine's
	// stop == 0 "unbounded" behavior (default: 500). The Index itself
	// never consults this; callers such as the reference CLI use it as
	// their own --stop default.
	DefaultPageSize int `json:"default_page_size,omitempty" jsonschema:"description=Suggested bounded list_files page size for callers that don't want stop=0's unbounded behavior"`
	// DefaultContextLines is the find_in_files context window applied when
	// the caller omits one (default: 2).
	DefaultContextLines int `json:"default_context_lines,omitempty" jsonschema:"description=Default find_in_files context window in lines"`
	// PatternCacheSize bounds the Query Engine's compiled-regex cache.
	PatternCacheSize int `json:"pattern_cache_size,omitempty" jsonschema:"description=Compiled find_in_files pattern cache size"`
	// ScanExcludeGlobs are additional glob patterns the Scanner skips
	// outright, on top of its built-in VCS/binary heuristics.
	ScanExcludeGlobs []string `json:"scan_exclude_globs,omitempty" jsonschema:"description=Additional glob patterns the scanner should never load"`
	// LossyUTF8 makes the Index lossy-decode non-UTF-8 content loaded as
	// editable, instead of failing the load with NotUTF8.
	LossyUTF8 bool `json:"lossy_utf8,omitempty" jsonschema:"description=Lossy-decode non-UTF-8 editable content instead of failing the load with NotUTF8"`
}

// Merge overlays t onto o: a zero field in t keeps o's value, a set
// scalar field in t wins, and slice fields accumulate.
func (o IndexOptions) Merge(t IndexOptions) IndexOptions {
	o.DefaultPageSize = cmp.Or(t.DefaultPageSize, o.DefaultPageSize)
	o.DefaultContextLines = cmp.Or(t.DefaultContextLines, o.DefaultContextLines)
	o.PatternCacheSize = cmp.Or(t.PatternCacheSize, o.PatternCacheSize)
	o.ScanExcludeGlobs = sortedCompact(append(o.ScanExcludeGlobs, t.ScanExcludeGlobs...))
	o.LossyUTF8 = o.LossyUTF8 || t.LossyUTF8
	return o
}

// DefaultIndexOptions returns IndexOptions with default values applied.
func DefaultIndexOptions() IndexOptions {
	return IndexOptions{
		DefaultPageSize:     500,
		DefaultContextLines: 2,
		PatternCacheSize:    256,
		ScanExcludeGlobs:    []string{".git/**", "node_modules/**"},
	}
}

// sortedCompact returns ss sorted and deduplicated.
func sortedCompact(ss []string) []string {
	if len(ss) == 0 {
		return ss
	}
	out := append([]string(nil), ss...)
	sort.Strings(out)
	compacted := out[:1]
	for _, s := range out[1:] {
		if s != compacted[len(compacted)-1] {
			compacted = append(compacted, s)
		}
	}
	return compacted
}
