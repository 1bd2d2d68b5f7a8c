package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestConfigMerging defines the rules on how configuration merging works.
// Generally, things are either appended to or replaced by the later
// configuration. Whether one or the other happens depends on its effects.
func TestConfigMerging(t *testing.T) {
	t.Run("index_options_merged", func(t *testing.T) {
		c := IndexOptions{
			DefaultPageSize:     500,
			DefaultContextLines: 2,
			PatternCacheSize:    256,
			ScanExcludeGlobs:    []string{".git/**"},
			LossyUTF8:           false,
		}.Merge(IndexOptions{
			DefaultPageSize:  1000,
			ScanExcludeGlobs: []string{"node_modules/**"},
			LossyUTF8:        true,
		})

		require.Equal(t, 1000, c.DefaultPageSize, "default_page_size should use second value (non-zero)")
		require.Equal(t, 2, c.DefaultContextLines, "default_context_lines should keep first when second is zero")
		require.Equal(t, []string{".git/**", "node_modules/**"}, c.ScanExcludeGlobs, "scan_exclude_globs should be appended and deduplicated")
		require.True(t, c.LossyUTF8, "lossy_utf8 should be ORed")
	})

	t.Run("index_options_exclude_globs_deduplicated", func(t *testing.T) {
		c := IndexOptions{ScanExcludeGlobs: []string{"vendor/**", "*.min.js"}}.
			Merge(IndexOptions{ScanExcludeGlobs: []string{"*.min.js", "dist/**"}})

		require.Equal(t, []string{"*.min.js", "dist/**", "vendor/**"}, c.ScanExcludeGlobs)
	})

	t.Run("index_options_pattern_cache_size_last_non_zero", func(t *testing.T) {
		c := IndexOptions{PatternCacheSize: 256}.
			Merge(IndexOptions{PatternCacheSize: 0}).
			Merge(IndexOptions{PatternCacheSize: 1024})

		require.Equal(t, 1024, c.PatternCacheSize)
	})
}
