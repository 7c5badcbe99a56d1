// Package cli provides the command-line interface for taskprobe.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/taskprobe/taskprobe/internal/app"
)

// NewRootCommand creates the root command for taskprobe.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "taskprobe",
		Short: "Live inspector for async task runtimes",
		Long: `taskprobe reconstructs the task set of an asynchronous task runtime
from a halted target's memory and symbol metadata, and renders it as a
live panel: which tasks exist, their state, poll counts, and who is
expected to wake them.

Targets are reached either post-mortem (an ELF core dump plus the
executable) or live (a gdbserver-compatible stub). The target is never
written to; taskprobe is an inspector, not a debugger with side effects.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
	}

	root.AddCommand(
		newAttachCommand(c),
		newCoreCommand(c),
		newDumpCommand(c),
	)

	return root
}
