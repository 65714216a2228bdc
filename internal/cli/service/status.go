package service

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/bigdata-wsl/internal/app"
	svc "github.com/danieljhkim/bigdata-wsl/internal/service"
	"github.com/danieljhkim/bigdata-wsl/internal/util"
)

func newStatusCmd(getApp app.Getter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [service...]",
		Short: "Show status of one or all services",
		Long: `Show whether each daemon runs and passes its health check.

Examples:
  bigdata status              # All services
  bigdata status hdfs kafka   # HDFS and Kafka only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, stack, err := selectStack(getApp, args)
			if err != nil {
				return err
			}
			util.StatusTable(statusRows(stack.Status(cmd.Context(), a.Supervisor)))
			return nil
		},
	}

	return cmd
}

func statusRows(statuses []svc.ServiceStatus) []util.StatusTableRow {
	rows := make([]util.StatusTableRow, 0, len(statuses))
	for _, s := range statuses {
		row := util.StatusTableRow{Name: s.Stage + "/" + s.Name, Detail: s.Check}
		switch {
		case s.Healthy:
			row.Status, row.Ok = "running", true
		case s.Running:
			row.Status = "unhealthy"
		default:
			row.Status = "stopped"
		}
		if s.PID > 0 {
			row.Detail = fmt.Sprintf("pid %d, %s", s.PID, s.Check)
		}
		rows = append(rows, row)
	}
	return rows
}
