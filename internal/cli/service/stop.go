package service

import (
	"github.com/spf13/cobra"

	"github.com/danieljhkim/bigdata-wsl/internal/app"
	"github.com/danieljhkim/bigdata-wsl/internal/util"
)

func newStopCmd(getApp app.Getter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop [service...]",
		Short: "Stop one or all services",
		Long: `Stop the daemons of the stack in reverse start order.

Each daemon gets SIGTERM and is killed if it has not exited after the stop
grace period (services.stop_grace).

Examples:
  bigdata stop                # Stop everything
  bigdata stop hive           # Stop the metastore and HiveServer2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, stack, err := selectStack(getApp, args)
			if err != nil {
				return err
			}
			if err := stack.Stop(cmd.Context(), a.Supervisor); err != nil {
				return err
			}
			util.Success("services stopped")
			return nil
		},
	}

	return cmd
}
