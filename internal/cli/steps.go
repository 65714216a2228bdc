package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/bigdata-wsl/internal/install"
	"github.com/danieljhkim/bigdata-wsl/internal/util"
)

func newStepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List installation steps in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := sess.getApp()
			if err != nil {
				return err
			}
			done, err := a.Store().List()
			if err != nil {
				return err
			}
			completed := make(map[string]bool, len(done))
			for _, name := range done {
				completed[name] = true
			}

			var rows []util.StatusTableRow
			for _, s := range a.Plan() {
				row := util.StatusTableRow{Name: s.Name, Status: "pending", Detail: s.Description}
				if completed[s.Name] {
					row.Status, row.Ok = "done", true
				}
				rows = append(rows, row)
			}
			util.StatusTable(rows)
			return nil
		},
	}
}

func newStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show or reset the record of completed steps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := sess.getApp()
			if err != nil {
				return err
			}
			store := a.Store()
			done, err := store.List()
			if err != nil {
				return err
			}
			fmt.Fprintf(util.Stdout, "state file: %s\n", store.Path())
			if len(done) == 0 {
				fmt.Fprintln(util.Stdout, "no steps completed")
				return nil
			}
			for _, name := range done {
				fmt.Fprintf(util.Stdout, "  %s\n", name)
			}
			return nil
		},
	}
	cmd.AddCommand(newStateResetCmd())
	return cmd
}

func newStateResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset step...",
		Short: "Forget completed steps so the next install repeats them",
		Long: `Forget completed steps so the next install repeats them.

Installed files are left in place; every step tolerates already existing
results. The state file is rewritten, never removed.

Examples:
  bigdata state reset hive_config hive_schema`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := sess.getApp()
			if err != nil {
				return err
			}
			if _, err := install.Select(a.Plan(), args); err != nil {
				return err
			}

			lock := a.Lock(sess.runID())
			if err := lock.Acquire(time.Now()); err != nil {
				return err
			}
			defer func() {
				install.BestEffort(a.Log, "release lock", lock.Release())
			}()

			if err := a.Store().Forget(args...); err != nil {
				return err
			}
			util.Success("forgot %s", strings.Join(args, ", "))
			return nil
		},
	}
}
