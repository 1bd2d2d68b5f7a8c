package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) newStageCmd() *cobra.Command {
	var m mutationFlags
	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Open a staging session, apply one mutation, and print the staged summary",
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
			summary, err := ix.GetModifiedFilesSummary()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range summary {
				fmt.Fprintf(out, "%s\t%s\t+%d -%d\n", s.Status, s.Path, s.LinesAdded, s.LinesRemoved)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "session left uncommitted; rerun with \"commit\" to persist it")
			return nil
		},
	}
	m.register(cmd)
	return cmd
}
