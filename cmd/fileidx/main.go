// Command fileidx is a reference CLI over the in-memory file index: it
// scans a directory into the index, then exposes load/ls/find/stage/
// commit/revert/diff as subcommands so the index can be driven from a
// shell the same way an assistant would drive it through its API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"charm.land/fang/v2"
	"github.com/spf13/cobra"
)

func main() {
	root := newRootCmd()
	if err := fang.Execute(context.Background(), root); err != nil {
		os.Exit(1)
	}
}

type app struct {
	log  *slog.Logger
	root string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "fileidx",
		Short:         "Inspect and edit an in-memory, content-addressable file index",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				level = slog.LevelDebug
			}
			a.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			return nil
		},
	}
	cmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&a.root, "root", ".", "directory to scan and load into the index")

	cmd.AddCommand(
		a.newLoadCmd(),
		a.newLsCmd(),
		a.newFindCmd(),
		a.newStageCmd(),
		a.newCommitCmd(),
		a.newRevertCmd(),
		a.newDiffCmd(),
	)
	return cmd
}

func fail(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
