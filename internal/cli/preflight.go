package cli

import (
	"github.com/spf13/cobra"

	"github.com/danieljhkim/bigdata-wsl/internal/util"
)

func newPreflightCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "preflight",
		Aliases: []string{"doctor"},
		Short:   "Check that this machine can host the stack",
		Long: `Run the preflight checks without installing anything.

Checks required commands, the filesystem the install and working directories
live on (Windows mounts are rejected), WSL version, memory, free disk and sudo.
Exits 2 when a check fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := sess.getApp()
			if err != nil {
				return err
			}
			util.Section("preflight")
			report, err := a.Validator.Validate(cmd.Context())
			report.Print(util.Stdout)
			if err != nil {
				return err
			}
			if n := len(report.Warnings()); n > 0 {
				util.Warn("%d warning(s); install will ask before continuing", n)
				return nil
			}
			util.Success("all checks passed")
			return nil
		},
	}
	return cmd
}
