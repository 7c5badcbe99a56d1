package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskprobe/taskprobe/internal/app"
	"github.com/taskprobe/taskprobe/internal/infra/elffile"
	"github.com/taskprobe/taskprobe/internal/infra/target"
	"github.com/taskprobe/taskprobe/internal/render"
	"github.com/taskprobe/taskprobe/internal/walker"
)

// newDumpCommand creates the dump command: one snapshot, printed to stdout.
// Useful from scripts and for inspecting without taking over the terminal.
func newDumpCommand(c *app.Container) *cobra.Command {
	var remote string
	var exe string
	var corePath string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print one task snapshot and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			remote, exe := resolveTarget(c, remote, exe)
			if exe == "" {
				return errors.New("no executable (use --exe or set target.executable in the config)")
			}
			if (corePath == "") == (remote == "") {
				return errors.New("need exactly one of --core or --remote")
			}

			w, cleanup, err := newDumpWalker(c, corePath, remote, exe)
			if err != nil {
				return err
			}
			defer cleanup()

			for _, line := range render.Lines(w.Walk()) {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&corePath, "core", "", "path to an ELF core dump")
	cmd.Flags().StringVarP(&remote, "remote", "r", "", "stub address (host:port)")
	cmd.Flags().StringVarP(&exe, "exe", "e", "", "path to the target executable")
	return cmd
}

// newDumpWalker builds a walker over whichever target kind was requested.
func newDumpWalker(c *app.Container, corePath, remote, exe string) (*walker.Walker, func(), error) {
	if corePath != "" {
		accessor, err := elffile.OpenCore(corePath, exe)
		if err != nil {
			return nil, nil, err
		}
		w, err := walker.New(accessor, c.Config.Registry, c.Logger)
		if err != nil {
			accessor.Close()
			return nil, nil, err
		}
		return w, func() { accessor.Close() }, nil
	}

	live, err := target.Connect(remote, exe, c.Logger)
	if err != nil {
		return nil, nil, err
	}
	w, err := walker.New(live, c.Config.Registry, c.Logger)
	if err != nil {
		live.Close()
		return nil, nil, err
	}
	return w, func() { live.Close() }, nil
}
