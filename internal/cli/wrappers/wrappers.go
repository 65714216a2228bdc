// Package wrappers holds passthrough commands that run the installed
// component binaries with the stack environment.
package wrappers

import (
	"github.com/spf13/cobra"

	"github.com/danieljhkim/bigdata-wsl/internal/config"
	envpkg "github.com/danieljhkim/bigdata-wsl/internal/env"
)

// ConfigGetter returns the loaded configuration
type ConfigGetter func() (*config.Config, error)

// passthrough describes one wrapper command.
type passthrough struct {
	use   string
	short string
	long  string
	// argv returns the program and its leading arguments.
	argv     func(cfg *config.Config) []string
	extraEnv map[string]string
}

// Commands returns every wrapper command.
func Commands(getConfig ConfigGetter) []*cobra.Command {
	var cmds []*cobra.Command
	for _, p := range append(append(hadoopWrappers(), sparkWrappers()...), hiveWrapper(), kafkaTopicsWrapper()) {
		cmds = append(cmds, p.command(getConfig))
	}
	return cmds
}

func (p passthrough) command(getConfig ConfigGetter) *cobra.Command {
	return &cobra.Command{
		Use:                p.use + " [args...]",
		Short:              p.short,
		Long:               p.long,
		DisableFlagParsing: true, // Critical: pass all args through
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig()
			if err != nil {
				return err
			}
			return envpkg.ExecWithEnv(cmd.Context(), cfg, p.args(cfg, args), p.extraEnv)
		},
	}
}

func (p passthrough) args(cfg *config.Config, extra []string) []string {
	return append(p.argv(cfg), extra...)
}

func fixed(argv ...string) func(*config.Config) []string {
	return func(*config.Config) []string { return append([]string(nil), argv...) }
}
