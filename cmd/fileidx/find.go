package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fileidx/fileidx/internal/fileidx"
)

func (a *app) newFindCmd() *cobra.Command {
	var caseInsensitive, wholeWord bool
	var include, exclude []string
	var contextLines int
	var deadline time.Duration

	cmd := &cobra.Command{
		Use:   "find <pattern>",
		Short: "Search indexed files with a regex and print matching hunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, _, err := a.buildIndex(cmd.Context())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if deadline > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, deadline)
				defer cancel()
			}
			hunks, err := ix.FindInFiles(ctx, args[0], false, fileidx.FindOptions{
				CaseInsensitive: caseInsensitive,
				WholeWord:       wholeWord,
				IncludeGlobs:    include,
				ExcludeGlobs:    exclude,
				ContextLines:    contextLines,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, h := range hunks {
				fmt.Fprintf(out, "%s:%d-%d\n%s\n\n", h.Path, h.PreviewStartLine, h.PreviewEndLine, h.Excerpt)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d hunk(s)\n", len(hunks))
			return nil
		},
	}
	cmd.Flags().BoolVar(&caseInsensitive, "ignore-case", false, "case-insensitive match")
	cmd.Flags().BoolVar(&wholeWord, "word", false, "whole-word match")
	cmd.Flags().StringSliceVar(&include, "include", nil, "only search paths matching one of these globs")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "skip paths matching one of these globs")
	cmd.Flags().IntVar(&contextLines, "context", 0, "lines of context around each match")
	cmd.Flags().DurationVar(&deadline, "deadline", 0, "abort the scan with an error after this long (0 = unbounded)")
	return cmd
}
