// Package app assembles the installer from a loaded configuration.
package app

import (
	"context"
	"time"

	"github.com/pbnjay/memory"
	"go.uber.org/zap"

	"github.com/danieljhkim/bigdata-wsl/internal/config"
	"github.com/danieljhkim/bigdata-wsl/internal/config/generator"
	"github.com/danieljhkim/bigdata-wsl/internal/download"
	"github.com/danieljhkim/bigdata-wsl/internal/env"
	"github.com/danieljhkim/bigdata-wsl/internal/event"
	"github.com/danieljhkim/bigdata-wsl/internal/install"
	"github.com/danieljhkim/bigdata-wsl/internal/install/steps"
	"github.com/danieljhkim/bigdata-wsl/internal/preflight"
	"github.com/danieljhkim/bigdata-wsl/internal/runner"
	"github.com/danieljhkim/bigdata-wsl/internal/service"
	"github.com/danieljhkim/bigdata-wsl/internal/service/hdfs"
	"github.com/danieljhkim/bigdata-wsl/internal/service/hive"
	"github.com/danieljhkim/bigdata-wsl/internal/service/kafka"
	"github.com/danieljhkim/bigdata-wsl/internal/service/yarn"
	"github.com/danieljhkim/bigdata-wsl/internal/sshkey"
	"github.com/danieljhkim/bigdata-wsl/internal/state"
	"github.com/danieljhkim/bigdata-wsl/internal/verify"
)

// SSHAddr is where the verification pass expects sshd.
const SSHAddr = "localhost:22"

// Getter returns the App of the running command, building it on first use.
type Getter func() (*App, error)

// App holds every collaborator of one invocation.
type App struct {
	Config  *config.Config
	Log     *zap.Logger
	Events  event.Sink
	Environ []string
	Runner  runner.Runner

	// Fetcher downloads component archives. New uses the mirrored downloader.
	Fetcher steps.Fetcher
	// Validator runs the preflight checks. New uses the system probes.
	Validator *preflight.Validator
	// MemoryMB sizes the rendered daemon configuration.
	MemoryMB int

	Supervisor *service.Supervisor
	Metrics    *install.Metrics

	HDFS  *hdfs.HDFSService
	YARN  *yarn.YARNService
	Kafka *kafka.KafkaService
	Hive  *hive.HiveService
}

// New builds an App running real commands with the computed environment.
func New(cfg *config.Config, log *zap.Logger, sink event.Sink) *App {
	environ := env.Compute(cfg, "").MergeWithCurrent()
	a := NewWithRunner(cfg, runner.NewExec(environ, log), environ, log, sink)
	a.Fetcher = download.New(cfg.Download, download.WithLogger(log), download.WithEvents(sink))
	a.Validator = preflight.NewValidator(cfg, a.Runner, log)
	a.MemoryMB = int(memory.TotalMemory() / (1 << 20))
	return a
}

// NewWithRunner builds an App over r. Fetcher and Validator are left for
// the caller to set.
func NewWithRunner(cfg *config.Config, r runner.Runner, environ []string, log *zap.Logger, sink event.Sink) *App {
	if log == nil {
		log = zap.NewNop()
	}
	host := &service.Host{Config: cfg, Runner: r, Environ: environ, Log: log, Events: sink}
	return &App{
		Config:  cfg,
		Log:     log,
		Events:  sink,
		Environ: environ,
		Runner:  r,
		Supervisor: service.NewSupervisor(r,
			service.WithLogger(log),
			service.WithEvents(sink),
			service.WithStopGrace(cfg.Services.StopGrace),
		),
		Metrics: install.NewMetrics(),
		HDFS:    hdfs.NewHDFSService(host),
		YARN:    yarn.NewYARNService(host),
		Kafka:   kafka.NewKafkaService(host),
		Hive:    hive.NewHiveService(host),
	}
}

// Stack returns the service stages in start order.
func (a *App) Stack() *service.Stack {
	return &service.Stack{Stages: []*service.Stage{
		a.HDFS.Stage(),
		a.YARN.Stage(),
		a.Kafka.ZooKeeperStage(),
		a.Kafka.BrokerStage(),
		a.Hive.Stage(),
	}}
}

// Generator returns the config generator sized for this machine.
func (a *App) Generator() *generator.ConfigGenerator {
	return generator.NewConfigGenerator(a.Config, a.MemoryMB)
}

// StepDeps returns the collaborators of the installation plan.
func (a *App) StepDeps() steps.Deps {
	return steps.Deps{
		Config:    a.Config,
		Runner:    a.Runner,
		Fetcher:   a.Fetcher,
		Generator: a.Generator(),
		HDFS:      a.HDFS,
		Hive:      a.Hive,
		Events:    a.Events,
		Log:       a.Log,
	}
}

// Plan returns the full installation plan.
func (a *App) Plan() []install.Step {
	return steps.Plan(a.StepDeps())
}

// Store returns the persistent step store.
func (a *App) Store() *state.Store {
	return state.NewStore(a.Config.Paths().StateFile())
}

// Executor returns an executor over the persistent store.
func (a *App) Executor() *install.Executor {
	return install.NewExecutor(a.Store(),
		install.WithEvents(a.Events),
		install.WithLogger(a.Log),
		install.WithMetrics(a.Metrics),
	)
}

// Lock returns the installation lock labelled with runID.
func (a *App) Lock(runID string) *state.Lock {
	return state.NewLock(a.Config.Paths().LockFile(), a.Config.Lock.StaleAfter, runID)
}

// Verifier returns the verification pass over stack.
func (a *App) Verifier(stack *service.Stack) *verify.Verifier {
	sshDir := a.Config.Paths().SSHDir()
	return verify.New(verify.Deps{
		Stack:      stack,
		Supervisor: a.Supervisor,
		HDFSUser:   a.HDFS.UserDirExists,
		ZooKeeper:  a.Kafka.ZooKeeperServers(),
		Brokers:    a.Kafka.Brokers(),
		SSHLogin: func(ctx context.Context) error {
			return sshkey.CheckLogin(ctx, sshDir, SSHAddr, a.Config.User)
		},
		Log: a.Log,
	})
}

// WriteMetrics writes the run metrics to the textfile collector path. A
// failure is logged and swallowed.
func (a *App) WriteMetrics(finished time.Time) {
	install.BestEffort(a.Log, "write metrics", a.Metrics.WriteTextfile(a.Config.Paths().MetricsFile(), finished))
}
