package service

import (
	"github.com/spf13/cobra"

	"github.com/danieljhkim/bigdata-wsl/internal/app"
	"github.com/danieljhkim/bigdata-wsl/internal/util"
)

func newVerifyCmd(getApp app.Getter) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that every service answers",
		Long: `Run the verification pass against the running stack.

Probes every daemon, the HDFS home directory, broker registration in
ZooKeeper, a Kafka produce round trip and ssh to localhost. A failing optional
check is reported as a warning.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp()
			if err != nil {
				return err
			}
			report := a.Verifier(a.Stack()).Run(cmd.Context())
			util.StatusTable(report.Rows())
			if err := report.Err(); err != nil {
				return err
			}
			util.Success("stack verified")
			return nil
		},
	}
}
