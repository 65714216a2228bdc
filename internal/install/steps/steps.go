// Package steps declares the installation plan: every step the installer
// knows, in the order it runs them.
package steps

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/danieljhkim/bigdata-wsl/internal/archive"
	"github.com/danieljhkim/bigdata-wsl/internal/config"
	"github.com/danieljhkim/bigdata-wsl/internal/config/generator"
	"github.com/danieljhkim/bigdata-wsl/internal/download"
	"github.com/danieljhkim/bigdata-wsl/internal/event"
	"github.com/danieljhkim/bigdata-wsl/internal/install"
	"github.com/danieljhkim/bigdata-wsl/internal/metastore"
	"github.com/danieljhkim/bigdata-wsl/internal/runner"
	"github.com/danieljhkim/bigdata-wsl/internal/service/hdfs"
	"github.com/danieljhkim/bigdata-wsl/internal/service/hive"
	"github.com/danieljhkim/bigdata-wsl/internal/sshkey"
	"github.com/danieljhkim/bigdata-wsl/internal/util"
)

// Step names, in plan order.
const (
	SystemPackages  = "system_packages"
	SSHKeys         = "ssh_keys"
	HadoopInstall   = "hadoop_install"
	HadoopConfig    = "hadoop_config"
	HDFSFormat      = "hdfs_format"
	SparkInstall    = "spark_install"
	SparkConfig     = "spark_config"
	KafkaInstall    = "kafka_install"
	KafkaConfig     = "kafka_config"
	PigInstall      = "pig_install"
	HiveInstall     = "hive_install"
	HiveJDBCDriver  = "hive_jdbc_driver"
	HiveConfig      = "hive_config"
	HiveMetastoreDB = "hive_metastore_db"
	HiveSchema      = "hive_schema"
	EclipseInstall  = "eclipse_install"
	Environment     = "environment"
)

// Fetcher downloads a target and returns the local path.
type Fetcher interface {
	Download(ctx context.Context, t download.Target) (string, error)
}

// Deps are the collaborators the step actions use.
type Deps struct {
	Config    *config.Config
	Runner    runner.Runner
	Fetcher   Fetcher
	Generator *generator.ConfigGenerator
	HDFS      *hdfs.HDFSService
	Hive      *hive.HiveService
	Events    event.Sink
	Log       *zap.Logger
}

type planner struct {
	Deps
	paths *config.Paths
}

// Plan returns the ordered installation steps. eclipse_install is present
// only when Eclipse is enabled.
func Plan(deps Deps) []install.Step {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	p := &planner{Deps: deps, paths: deps.Config.Paths()}

	plan := []install.Step{
		{Name: SystemPackages, Description: "Install system packages with apt-get", Action: p.systemPackages},
		{Name: SSHKeys, Description: "Set up passwordless ssh to localhost", Action: p.sshKeys},
		{Name: HadoopInstall, Description: "Download and extract Hadoop", Action: p.installComponent(config.Hadoop)},
		{Name: HadoopConfig, Description: "Render Hadoop configuration", Action: p.hadoopConfig},
		{Name: HDFSFormat, Description: "Format the HDFS NameNode", Action: p.hdfsFormat},
		{Name: SparkInstall, Description: "Download and extract Spark", Action: p.installComponent(config.Spark)},
		{Name: SparkConfig, Description: "Render Spark configuration", Action: p.render(p.Generator.Spark)},
		{Name: KafkaInstall, Description: "Download and extract Kafka", Action: p.installComponent(config.Kafka)},
		{Name: KafkaConfig, Description: "Render Kafka and ZooKeeper configuration", Action: p.kafkaConfig},
		{Name: PigInstall, Description: "Download and extract Pig", Action: p.installComponent(config.Pig)},
		{Name: HiveInstall, Description: "Download and extract Hive", Action: p.installComponent(config.Hive)},
		{Name: HiveJDBCDriver, Description: "Install the MySQL JDBC driver for Hive and Spark", Action: p.hiveJDBCDriver},
		{Name: HiveConfig, Description: "Render Hive configuration", Action: p.render(p.Generator.Hive)},
		{Name: HiveMetastoreDB, Description: "Create the metastore database", Action: p.Hive.EnsureDatabase},
		{Name: HiveSchema, Description: "Initialize the metastore schema", Action: p.hiveSchema},
	}
	if deps.Config.Eclipse.Enabled {
		plan = append(plan, install.Step{
			Name: EclipseInstall, Description: "Download and extract Eclipse", Action: p.installComponent(config.Eclipse),
		})
	}
	return append(plan, install.Step{
		Name: Environment, Description: "Write the shell environment", Action: p.render(p.Generator.UserEnv),
	})
}

// Names returns the step names of plan.
func Names(plan []install.Step) []string {
	names := make([]string, 0, len(plan))
	for _, s := range plan {
		names = append(names, s.Name)
	}
	return names
}

func (p *planner) packages() []string {
	var pkgs []string
	for _, pkg := range p.Config.Packages {
		if pkg == "mysql-server" && p.Config.Hive.Metastore != string(metastore.MySQL) {
			continue
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs
}

func (p *planner) systemPackages(ctx context.Context) error {
	if _, err := runner.Check(ctx, p.Runner, "sudo", "apt-get", "update", "-q"); err != nil {
		return install.WithHint(install.Wrap(install.Precondition, "apt-get update", err),
			"check network access and /etc/apt/sources.list")
	}
	args := append([]string{"env", "DEBIAN_FRONTEND=noninteractive", "apt-get", "install", "-y", "-q"}, p.packages()...)
	if _, err := runner.Check(ctx, p.Runner, "sudo", args...); err != nil {
		return install.Wrap(install.Precondition, "apt-get install", err)
	}
	return nil
}

func (p *planner) sshKeys(ctx context.Context) error {
	res, err := sshkey.Ensure(p.paths.SSHDir(), p.Config.User+"@bigdata")
	if err != nil {
		return install.Wrap(install.Configuration, "ssh keys", err)
	}
	if res.Generated {
		p.Events.Infof(SSHKeys, "generated %s", sshkey.FilesIn(p.paths.SSHDir()).PrivateKey)
	}
	// WSL distributions often boot without the ssh daemon.
	if _, err := runner.Check(ctx, p.Runner, "sudo", "service", "ssh", "start"); err != nil {
		install.BestEffort(p.Log, "start sshd", err)
	}
	return nil
}

// installComponent fetches, extracts and links one catalog component.
func (p *planner) installComponent(name string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		comp, err := p.Config.Component(name)
		if err != nil {
			return install.Wrap(install.Configuration, "catalog", err)
		}
		if _, err := p.extract(ctx, comp); err != nil {
			return err
		}
		if comp.Link == "" {
			return nil
		}
		return archive.Link(p.paths.ExtractedDir(comp), p.paths.ComponentHome(comp.Link))
	}
}

func (p *planner) extract(ctx context.Context, comp config.Component) (string, error) {
	dest := p.paths.ExtractedDir(comp)
	if util.DirExists(dest) {
		p.Events.Infof(comp.Name, "%s already extracted at %s", comp.Name, dest)
		return dest, nil
	}
	path, err := p.Fetcher.Download(ctx, download.TargetFor(p.Config, comp))
	if err != nil {
		return "", err
	}
	p.Events.Progressf(comp.Name, "extracting %s", filepath.Base(path))
	return archive.Extract(ctx, path, p.paths.InstallDir, comp.DirName)
}

func (p *planner) hadoopConfig(ctx context.Context) error {
	if err := util.MkdirAll(p.paths.AllServiceDirs()...); err != nil {
		return install.Wrap(install.Configuration, "service dirs", err)
	}
	if err := hdfs.EnsureLocalStorageDirs(p.paths); err != nil {
		return install.Wrap(install.Configuration, "hdfs storage dirs", err)
	}
	return p.render(p.Generator.Hadoop)(ctx)
}

func (p *planner) hdfsFormat(ctx context.Context) error {
	formatted, err := p.HDFS.EnsureNameNodeFormatted(ctx)
	if err != nil {
		return err
	}
	if !formatted {
		p.Events.Infof(HDFSFormat, "NameNode already formatted")
	}
	return nil
}

func (p *planner) kafkaConfig(ctx context.Context) error {
	if err := util.MkdirAll(p.paths.KafkaPaths().DataDir, p.paths.ZooKeeperPaths().DataDir); err != nil {
		return install.Wrap(install.Configuration, "kafka dirs", err)
	}
	return p.render(p.Generator.Kafka)(ctx)
}

// hiveJDBCDriver is a no-op for the embedded Derby metastore.
func (p *planner) hiveJDBCDriver(ctx context.Context) error {
	if p.Config.Hive.Metastore != string(metastore.MySQL) {
		p.Events.Infof(HiveJDBCDriver, "metastore is %s, no JDBC driver needed", p.Config.Hive.Metastore)
		return nil
	}
	comp, err := p.Config.Component(config.MySQLConnector)
	if err != nil {
		return install.Wrap(install.Configuration, "catalog", err)
	}
	dir, err := p.extract(ctx, comp)
	if err != nil {
		return err
	}
	jar, err := hive.InstallJDBCDriver(dir, p.paths.HiveHome(), p.paths.SparkHome())
	if err != nil {
		return err
	}
	p.Log.Info("jdbc driver installed", zap.String("jar", jar))
	return nil
}

func (p *planner) hiveSchema(ctx context.Context) error {
	_, err := p.Hive.EnsureSchema(ctx)
	return err
}

// render writes the files produced by fn.
func (p *planner) render(fn func() ([]generator.File, error)) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		files, err := fn()
		if err != nil {
			return install.Wrap(install.Configuration, "render", err)
		}
		changed, err := generator.WriteFiles(files)
		if err != nil {
			return install.Wrap(install.Configuration, "write config", err)
		}
		for _, path := range changed {
			p.Log.Info("wrote config", zap.String("path", path))
		}
		return nil
	}
}

// Render rewrites every configuration file regardless of step state. It
// backs `bigdata config render`.
func Render(ctx context.Context, deps Deps) ([]string, error) {
	files, err := deps.Generator.All()
	if err != nil {
		return nil, install.Wrap(install.Configuration, "render", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	changed, err := generator.WriteFiles(files)
	if err != nil {
		return changed, install.Wrap(install.Configuration, "write config", err)
	}
	return changed, nil
}

// Describe returns "name: description" lines for listing.
func Describe(plan []install.Step) []string {
	lines := make([]string, 0, len(plan))
	for _, s := range plan {
		lines = append(lines, fmt.Sprintf("%-18s %s", s.Name, s.Description))
	}
	return lines
}
