package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/fileidx/fileidx/internal/config"
	"github.com/fileidx/fileidx/internal/fileidx"
	"github.com/fileidx/fileidx/internal/scanner"
)

// buildIndex scans root and loads every discovered file into a fresh
// Index, in one shot. A CLI process has no durable session state across
// invocations, so every subcommand below starts from this same snapshot
// rather than attaching to a long-lived index the way an in-process
// caller (e.g. an editing assistant) would.
func (a *app) buildIndex(ctx context.Context) (*fileidx.Index, []scanner.File, error) {
	opts := config.DefaultIndexOptions()
	ix := fileidx.New(opts, a.log)

	files, err := scanner.New(opts).Scan(ctx, a.root)
	if err != nil {
		return nil, nil, fail("scan %s: %w", a.root, err)
	}

	if err := ix.BeginFileLoad(); err != nil {
		return nil, nil, err
	}
	paths := make([]string, len(files))
	contents := make([][]byte, len(files))
	mtimes := make([]int64, len(files))
	editables := make([]bool, len(files))
	for i, f := range files {
		paths[i] = f.Path
		contents[i] = f.Bytes
		mtimes[i] = f.MTimeMS
		editables[i] = f.Editable
	}
	if _, err := ix.LoadFileBatch(paths, contents, nil, mtimes, editables); err != nil {
		ix.AbortFileLoad()
		return nil, nil, err
	}
	if _, err := ix.CommitFileLoad(); err != nil {
		return nil, nil, err
	}
	return ix, files, nil
}

func (a *app) newLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Scan the root directory and report how many files were indexed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ix, files, err := a.buildIndex(cmd.Context())
			if err != nil {
				return err
			}
			var total uint64
			for _, f := range files {
				total += uint64(len(f.Bytes))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d files (%s) from %s\n", ix.FileCount(), humanize.Bytes(total), a.root)
			return nil
		},
	}
}
