package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/fileidx/fileidx/internal/fileidx"
)

// mutationFlags describes the single staged mutation a stage/commit/
// revert/diff invocation may request. A CLI invocation only has one shot
// at the staging lifecycle (see buildIndex), so it supports exactly one
// mutation per run rather than an arbitrary batch.
type mutationFlags struct {
	create  string
	content string
	delete  string
	move    string
	copy    string
	replace string
	line    int
	text    string
}

func (m *mutationFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&m.create, "create", "", "stage creation of this path")
	cmd.Flags().StringVar(&m.content, "content", "", "content for --create")
	cmd.Flags().StringVar(&m.delete, "delete", "", "stage deletion of this path")
	cmd.Flags().StringVar(&m.move, "move", "", "stage a rename, as src:dst")
	cmd.Flags().StringVar(&m.copy, "copy", "", "stage a copy, as src:dst")
	cmd.Flags().StringVar(&m.replace, "replace", "", "stage a line replacement on this path")
	cmd.Flags().IntVar(&m.line, "line", 0, "1-based line number for --replace")
	cmd.Flags().StringVar(&m.text, "text", "", "replacement text for --replace")
}

// apply performs the one requested mutation against ix's open staging
// session.
func (m *mutationFlags) apply(ix *fileidx.Index) error {
	switch {
	case m.create != "":
		content := m.content
		return ix.CreateIndexFile(m.create, &content, false)
	case m.delete != "":
		return ix.DeleteIndexFile(m.delete)
	case m.move != "":
		src, dst, ok := strings.Cut(m.move, ":")
		if !ok {
			return fail("--move expects src:dst, got %q", m.move)
		}
		return ix.MoveFile(src, dst)
	case m.copy != "":
		src, dst, ok := strings.Cut(m.copy, ":")
		if !ok {
			return fail("--copy expects src:dst, got %q", m.copy)
		}
		return ix.CopyFile(src, dst)
	case m.replace != "":
		_, err := ix.ReplaceLines(m.replace, []fileidx.Replacement{{Start: m.line, End: m.line, Text: m.text}}, true)
		return err
	default:
		return fail("no mutation requested: pass one of --create/--delete/--move/--copy/--replace")
	}
}

// touchedPath returns the path the requested mutation targets, for diff
// reporting.
func (m *mutationFlags) touchedPath() string {
	switch {
	case m.create != "":
		return m.create
	case m.delete != "":
		return m.delete
	case m.move != "":
		_, dst, _ := strings.Cut(m.move, ":")
		return dst
	case m.copy != "":
		_, dst, _ := strings.Cut(m.copy, ":")
		return dst
	case m.replace != "":
		return m.replace
	default:
		return ""
	}
}
