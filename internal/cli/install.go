package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/bigdata-wsl/internal/app"
	"github.com/danieljhkim/bigdata-wsl/internal/preflight"
	"github.com/danieljhkim/bigdata-wsl/internal/util"
)

type installFlags struct {
	steps         []string
	yes           bool
	strict        bool
	skipPreflight bool
	noStart       bool
}

func newInstallCmd() *cobra.Command {
	var flags installFlags

	cmd := &cobra.Command{
		Use:   "install [step...]",
		Short: "Install the stack, resuming a previous run",
		Long: `Install every component, render its configuration and start the stack.

Steps that completed in an earlier run are skipped. Name steps to run only
those (see: bigdata steps). Preflight warnings ask for confirmation on a
terminal and are accepted otherwise, unless --strict is given.

Examples:
  bigdata install                      # Full install, resuming if interrupted
  bigdata install --yes                # Accept preflight warnings
  bigdata install hive_config          # Re-run one step
  bigdata install --no-start           # Install without starting daemons`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.steps = args
			return runInstall(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "accept preflight warnings without asking")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "treat preflight warnings as failures")
	cmd.Flags().BoolVar(&flags.skipPreflight, "skip-preflight", false, "skip the preflight checks")
	cmd.Flags().BoolVar(&flags.noStart, "no-start", false, "do not start or verify services")
	return cmd
}

func runInstall(ctx context.Context, flags installFlags) error {
	a, err := sess.getApp()
	if err != nil {
		return err
	}

	util.Section("bigdata install")
	util.Log("install dir: %s", a.Config.InstallDir)
	util.Log("log file:    %s", a.Config.Paths().LogFile())

	report, err := a.Install(ctx, app.InstallOptions{
		RunID:         sess.runID(),
		Steps:         flags.steps,
		SkipPreflight: flags.skipPreflight,
		NoStart:       flags.noStart,
		ReviewPreflight: func(r *preflight.Report) bool {
			r.Print(util.Stdout)
			return acceptWarnings(r, flags, util.IsInteractive(), stdin, util.Stderr)
		},
	})
	if report != nil {
		fmt.Fprintln(util.Stdout)
		util.Section("verify")
		util.StatusTable(report.Rows())
	}
	if err != nil {
		return err
	}

	util.Success("installation complete")
	util.Hint("open a new shell or run: source %s", a.Config.Paths().EnvFile())
	return nil
}

// acceptWarnings decides whether a preflight report with warnings may
// proceed. Without a terminal warnings are accepted unless strict.
func acceptWarnings(r *preflight.Report, flags installFlags, interactive bool, in *bufio.Reader, out io.Writer) bool {
	warnings := r.Warnings()
	if len(warnings) == 0 || flags.yes {
		return true
	}
	if flags.strict {
		return false
	}
	if !interactive {
		return true
	}
	return confirm(in, out, fmt.Sprintf("%d preflight warning(s). Continue anyway?", len(warnings)))
}

// confirm asks a yes/no question; anything but y or yes is no.
func confirm(in *bufio.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
