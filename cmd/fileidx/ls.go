package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fileidx/fileidx/internal/config"
)

func (a *app) newLsCmd() *cobra.Command {
	var glob string
	var start, stop int

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List indexed files, optionally filtered by glob",
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, _, err := a.buildIndex(cmd.Context())
			if err != nil {
				return err
			}
			page, err := ix.ListFiles(start, stop, false, glob)
			if err != nil {
				return err
			}
			for _, p := range page.Files {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d-%d of %d\n", page.Start, page.End, page.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&glob, "glob", "", "only list paths matching this glob")
	cmd.Flags().IntVar(&start, "start", 0, "page start offset")
	// The engine itself treats stop == 0 as unbounded; this CLI defaults to
	// a bounded first page so `fileidx ls` doesn't dump an entire large repo
	// by default. Pass --stop=0 explicitly to see everything.
	cmd.Flags().IntVar(&stop, "stop", config.DefaultIndexOptions().DefaultPageSize, "page stop offset (0 = unbounded)")
	return cmd
}
