package cli

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danieljhkim/bigdata-wsl/internal/app"
	"github.com/danieljhkim/bigdata-wsl/internal/cli/env"
	"github.com/danieljhkim/bigdata-wsl/internal/cli/service"
	"github.com/danieljhkim/bigdata-wsl/internal/cli/wrappers"
	"github.com/danieljhkim/bigdata-wsl/internal/config"
	"github.com/danieljhkim/bigdata-wsl/internal/install"
	"github.com/danieljhkim/bigdata-wsl/internal/logging"
	"github.com/danieljhkim/bigdata-wsl/internal/util"
)

var (
	configFile string
	verbose    bool
	overrides  []string

	// Per-invocation state, built on first use
	sess = &session{}
)

// session lazily loads the configuration, the log file and the app.
type session struct {
	cfg *config.Config
	log *logging.Logger
	app *app.App
}

func (s *session) config() (*config.Config, error) {
	if s.cfg != nil {
		return s.cfg, nil
	}
	sets, err := parseOverrides(overrides)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(config.LoadOptions{File: configFile, Overrides: sets})
	if err != nil {
		return nil, install.Wrap(install.Precondition, "load configuration", err)
	}
	s.cfg = cfg
	return cfg, nil
}

func (s *session) getApp() (*app.App, error) {
	if s.app != nil {
		return s.app, nil
	}
	cfg, err := s.config()
	if err != nil {
		return nil, err
	}
	log, err := logging.Configure(cfg, logging.Options{Verbose: verbose})
	if err != nil {
		return nil, install.Wrap(install.Precondition, "open log file", err)
	}
	s.log = log
	log.Info("bigdata started", zap.Strings("args", os.Args[1:]), zap.String("config", cfg.Source))
	s.app = app.New(cfg, log.Logger, consoleSink())
	return s.app, nil
}

func (s *session) runID() string {
	if s.log == nil {
		return ""
	}
	return s.log.RunID
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bigdata",
	Short: "Install and run a single-node Hadoop, Spark, Kafka and Hive stack on WSL2",
	Long: `bigdata: install and run a single-node big-data stack on WSL2.

Installs Hadoop (HDFS + YARN), Spark, Kafka, Pig and Hive, renders their
configuration, and starts the daemons. Every step is recorded, so an
interrupted install resumes where it stopped.

Run without arguments for an interactive menu, or without a terminal for a
full installation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if util.IsInteractive() {
			return runMenu(cmd.Context(), cmd)
		}
		return runInstall(cmd.Context(), installFlags{})
	},
}

// Execute runs the command line and returns the process exit status. The
// context is cancelled on SIGINT or SIGTERM.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return finish(rootCmd.ExecuteContext(ctx))
}

// finish reports err and maps it to an exit status. Passthrough commands
// keep the exit status of the program they ran.
func finish(err error) int {
	if sess.log != nil {
		defer sess.log.Close()
	}
	if err == nil {
		return install.ExitOK
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	code := install.ExitCode(err)
	if code == install.ExitInterrupted {
		util.Error("interrupted; rerun the same command to resume")
	} else {
		util.Error("%v", err)
	}
	if hint := install.HintOf(err); hint != "" {
		util.Hint("hint: %s", hint)
	}
	if sess.log != nil {
		sess.log.Error("bigdata failed",
			zap.String("kind", install.KindOf(err).String()),
			zap.Int("exit_code", code),
			zap.Error(err),
		)
		util.Hint("log: %s", sess.log.File)
	}
	return code
}

// parseOverrides turns repeated key=value flags into config overrides.
func parseOverrides(sets []string) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(sets))
	for _, set := range sets {
		key, value, ok := strings.Cut(set, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, install.PreconditionError("use --set key=value, e.g. --set versions.hadoop=3.3.6",
				"invalid override %q", set)
		}
		out[key] = value
	}
	return out, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default $HOME/.bigdata/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "also write log lines to stderr")
	rootCmd.PersistentFlags().StringArrayVar(&overrides, "set", nil, "override a config key (key=value, repeatable)")

	rootCmd.AddCommand(newInstallCmd())
	rootCmd.AddCommand(newPreflightCmd())
	rootCmd.AddCommand(newStepsCmd())
	rootCmd.AddCommand(newStateCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newLogsCmd())

	rootCmd.AddCommand(service.NewStartCmd(sess.getApp))
	rootCmd.AddCommand(service.NewStopCmd(sess.getApp))
	rootCmd.AddCommand(service.NewStatusCmd(sess.getApp))
	rootCmd.AddCommand(service.NewVerifyCmd(sess.getApp))
	rootCmd.AddCommand(env.NewEnvCmd(sess.config))

	// Add wrapper commands
	for _, cmd := range wrappers.Commands(sess.config) {
		rootCmd.AddCommand(cmd)
	}
}
