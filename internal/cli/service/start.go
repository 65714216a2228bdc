package service

import (
	"github.com/spf13/cobra"

	"github.com/danieljhkim/bigdata-wsl/internal/app"
	"github.com/danieljhkim/bigdata-wsl/internal/util"
)

func newStartCmd(getApp app.Getter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start [service...]",
		Short: "Start one or all services",
		Long: `Start the daemons of the stack and wait until they are ready.

With no arguments every service starts in order:
  hdfs -> yarn -> zookeeper -> kafka -> hive

Services already running are left alone. With service names only those
start, still in stack order.

Examples:
  bigdata start               # Start everything
  bigdata start hdfs yarn     # Start HDFS and YARN only
  bigdata start kafka         # Start the broker (zookeeper must be up)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, stack, err := selectStack(getApp, args)
			if err != nil {
				return err
			}
			for _, name := range stack.Names() {
				util.Log("starting %s", name)
			}
			if err := stack.Start(cmd.Context(), a.Supervisor); err != nil {
				return err
			}
			util.Success("services started")
			return nil
		},
	}

	return cmd
}
