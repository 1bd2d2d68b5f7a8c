package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) newDiffCmd() *cobra.Command {
	var m mutationFlags
	var unified bool
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Open a staging session, apply one mutation, and print its diff regions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, _, err := a.buildIndex(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := ix.BeginIndexStaging(); err != nil {
				return err
			}
			if err := m.apply(ix); err != nil {
				return err
			}

			path := m.touchedPath()
			out := cmd.OutOrStdout()

			if unified {
				text, err := ix.GetUnifiedDiff(path)
				if err != nil {
					return err
				}
				fmt.Fprint(out, text)
				return nil
			}

			regions, stats, err := ix.GetFileDiff(path)
			if err != nil {
				return err
			}
			for _, r := range regions {
				fmt.Fprintf(out, "@@ -%d,%d +%d,%d @@\n", r.OriginalStart, r.LinesRemoved, r.ModifiedStart, r.LinesAdded)
				for _, l := range r.RemovedLines {
					fmt.Fprintf(out, "-%s\n", l)
				}
				for _, l := range r.AddedLines {
					fmt.Fprintf(out, "+%s\n", l)
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "+%d -%d across %d region(s)\n", stats.LinesAdded, stats.LinesRemoved, stats.RegionsChanged)
			return nil
		},
	}
	cmd.Flags().BoolVar(&unified, "unified", false, "print a conventional unified-diff preview instead of structured regions")
	m.register(cmd)
	return cmd
}
