package env

import (
	"github.com/spf13/cobra"

	"github.com/danieljhkim/bigdata-wsl/internal/config"
)

// ConfigGetter returns the loaded configuration
type ConfigGetter func() (*config.Config, error)

// NewEnvCmd creates the env command with all subcommands
func NewEnvCmd(getConfig ConfigGetter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Environment commands",
		Long: `Commands for inspecting and using the stack environment.

Includes environment variable printing and command execution with
HADOOP_HOME, SPARK_HOME, KAFKA_HOME, HIVE_HOME and PATH set.`,
	}

	// Add subcommands
	cmd.AddCommand(newPrintCmd(getConfig))
	cmd.AddCommand(newExecCmd(getConfig))

	return cmd
}
