package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/bigdata-wsl/internal/config/generator"
	"github.com/danieljhkim/bigdata-wsl/internal/install"
	"github.com/danieljhkim/bigdata-wsl/internal/install/steps"
	"github.com/danieljhkim/bigdata-wsl/internal/util"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and re-render the stack configuration",
		Long: `Commands for the rendered daemon configuration.

Rendered files are derived from the installer configuration and the
overrides file ($STATE_DIR/conf/overrides.yaml).`,
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigRenderCmd())
	cmd.AddCommand(newConfigDiffCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective installer configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := sess.config()
			if err != nil {
				return err
			}
			redacted := *cfg
			redacted.Hive.DBPassword = "********"
			out, err := yaml.Marshal(&redacted)
			if err != nil {
				return err
			}
			if cfg.Source != "" {
				fmt.Fprintf(util.Stdout, "# source: %s\n", cfg.Source)
			}
			_, err = util.Stdout.Write(out)
			return err
		},
	}
}

func newConfigRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Rewrite every rendered configuration file",
		Long: `Rewrite the Hadoop, Spark, Kafka, Hive and shell environment files.

Files that already hold the rendered content are left untouched. Restart
the affected services afterwards (bigdata stop && bigdata start).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := sess.getApp()
			if err != nil {
				return err
			}
			changed, err := steps.Render(cmd.Context(), a.StepDeps())
			if err != nil {
				return err
			}
			if len(changed) == 0 {
				util.Skip("configuration is up to date")
				return nil
			}
			for _, path := range changed {
				util.Success("wrote %s", path)
			}
			return nil
		},
	}
}

func newConfigDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "Show what config render would change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := sess.getApp()
			if err != nil {
				return err
			}
			files, err := a.Generator().All()
			if err != nil {
				return install.Wrap(install.Configuration, "render", err)
			}
			diffs, err := generator.Diff(files)
			if err != nil {
				return err
			}
			if len(diffs) == 0 {
				util.Skip("configuration is up to date")
				return nil
			}
			for _, d := range diffs {
				if d.Missing {
					util.Section("%s (new file)", d.Path)
				} else {
					util.Section("%s", d.Path)
				}
				fmt.Fprint(util.Stdout, d.Text)
			}
			return nil
		},
	}
}
