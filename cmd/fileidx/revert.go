package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) newRevertCmd() *cobra.Command {
	var m mutationFlags
	cmd := &cobra.Command{
		Use:   "revert",
		Short: "Open a staging session, apply one mutation, then discard it",
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
			if err := ix.RevertIndexStaging(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "staged changes discarded; Active and disk are unchanged")
			return nil
		},
	}
	m.register(cmd)
	return cmd
}
