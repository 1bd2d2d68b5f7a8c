package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fileidx/fileidx/internal/fswriter"
)

func (a *app) newCommitCmd() *cobra.Command {
	var m mutationFlags
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Open a staging session, apply one mutation, commit it, and write it to disk",
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

			report, err := ix.CommitIndexStaging()
			if err != nil {
				return err
			}

			w := fswriter.New(a.root, a.log)
			res := w.Apply(report)

			out := cmd.OutOrStdout()
			for _, p := range res.Written {
				fmt.Fprintf(out, "wrote %s\n", p)
			}
			for _, p := range res.Removed {
				fmt.Fprintf(out, "removed %s\n", p)
			}
			for _, f := range res.Failed {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed %s: %v\n", f.Path, f.Err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "committed %d file(s)\n", report.FileCount)
			if len(res.Failed) > 0 {
				return fail("%d file(s) failed to write", len(res.Failed))
			}
			return nil
		},
	}
	m.register(cmd)
	return cmd
}
