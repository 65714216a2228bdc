package env

import (
	"github.com/spf13/cobra"

	envpkg "github.com/danieljhkim/bigdata-wsl/internal/env"
	"github.com/danieljhkim/bigdata-wsl/internal/install"
)

func newExecCmd(getConfig ConfigGetter) *cobra.Command {
	return &cobra.Command{
		Use:   "exec -- <command> [args...]",
		Short: "Run a command with the stack environment",
		Long: `Run a command with JAVA_HOME, the component homes and PATH set to the
installed stack. Everything after '--' is passed to the command untouched.

Examples:
  bigdata env exec -- hdfs dfs -ls /
  bigdata env exec -- spark-shell
  bigdata env exec -- kafka-console-consumer.sh --bootstrap-server localhost:9092 --topic t`,
		// Flags belong to the child command
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			argv := commandArgs(args)
			if len(argv) == 0 {
				return install.PreconditionError("bigdata env exec -- <command> [args...]", "no command given")
			}
			if argv[0] == "-h" || argv[0] == "--help" {
				return cmd.Help()
			}
			cfg, err := getConfig()
			if err != nil {
				return err
			}
			return envpkg.Exec(cmd.Context(), cfg, argv)
		},
	}
}

// commandArgs drops the leading "--" separator.
func commandArgs(args []string) []string {
	if len(args) > 0 && args[0] == "--" {
		return args[1:]
	}
	return args
}
