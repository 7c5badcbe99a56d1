package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskprobe/taskprobe/internal/app"
	"github.com/taskprobe/taskprobe/internal/tui"
)

// newCoreCommand creates the core command for post-mortem inspection.
func newCoreCommand(c *app.Container) *cobra.Command {
	var exe string

	cmd := &cobra.Command{
		Use:   "core <core-file>",
		Short: "Inspect a core dump",
		Long: `Open the inspector panel over an ELF core dump. The dump is a
permanently stopped target: the panel can be scrolled and re-rendered
but never changes until a different dump is opened.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if exe == "" {
				exe = c.Config.Target.Executable
			}
			if exe == "" {
				return errors.New("no executable (use --exe or set target.executable in the config)")
			}

			session, err := c.NewCoreSession(args[0], exe)
			if err != nil {
				return fmt.Errorf("open core %s: %w", args[0], err)
			}
			defer session.Close()

			return tui.Run(session)
		},
	}

	cmd.Flags().StringVarP(&exe, "exe", "e", "", "path to the executable the core was dumped from")
	return cmd
}
