package env

import (
	"github.com/spf13/cobra"

	envpkg "github.com/danieljhkim/bigdata-wsl/internal/env"
)

func newPrintCmd(getConfig ConfigGetter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print export statements for the stack environment",
		Long: `Print environment variable export statements.

Output can be evaluated in your shell:

  eval "$(bigdata env print)"

This sets JAVA_HOME, HADOOP_HOME, HADOOP_CONF_DIR, SPARK_HOME, KAFKA_HOME,
HIVE_HOME, PIG_HOME and PATH to the installed components.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig()
			if err != nil {
				return err
			}
			envpkg.Compute(cfg, "").PrintShell()
			return nil
		},
	}

	return cmd
}
