package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskprobe/taskprobe/internal/app"
	"github.com/taskprobe/taskprobe/internal/tui"
)

// newAttachCommand creates the attach command for inspecting a live target.
func newAttachCommand(c *app.Container) *cobra.Command {
	var remote string
	var exe string

	cmd := &cobra.Command{
		Use:   "attach",
		Short: "Attach to a live target via a gdbserver-compatible stub",
		Long: `Attach to a running target through a gdbserver-compatible remote stub
and open the inspector panel. Symbols are read from the executable on
disk; memory is read from the stub while the target is stopped.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			remote, exe := resolveTarget(c, remote, exe)
			if remote == "" {
				return errors.New("no remote address (use --remote or set target.remote in the config)")
			}
			if exe == "" {
				return errors.New("no executable (use --exe or set target.executable in the config)")
			}

			session, err := c.NewLiveSession(remote, exe)
			if err != nil {
				return fmt.Errorf("attach to %s: %w", remote, err)
			}
			defer session.Close()

			return tui.Run(session)
		},
	}

	cmd.Flags().StringVarP(&remote, "remote", "r", "", "stub address (host:port)")
	cmd.Flags().StringVarP(&exe, "exe", "e", "", "path to the target executable")
	return cmd
}

// resolveTarget fills missing flags from the configuration.
func resolveTarget(c *app.Container, remote, exe string) (string, string) {
	if remote == "" {
		remote = c.Config.Target.Remote
	}
	if exe == "" {
		exe = c.Config.Target.Executable
	}
	return remote, exe
}
