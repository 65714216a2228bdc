package generator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/danieljhkim/bigdata-wsl/internal/config"
	"github.com/danieljhkim/bigdata-wsl/internal/config/profiles"
	"github.com/danieljhkim/bigdata-wsl/internal/config/schema"
	"github.com/danieljhkim/bigdata-wsl/internal/util"
)

// Managed block names inside files the installer shares with the
// distribution or the user.
const (
	EnvBlock    = "env"
	BashrcBlock = "source-env"
)

// File is one rendered configuration artifact.
type File struct {
	Path    string
	Content []byte
	Mode    os.FileMode
	// Block, when set, means Content replaces only the named managed block
	// of the existing file instead of the whole file.
	Block string
	// DistDir is the distribution conf dir preserved as <dir>.dist before
	// the first overwrite. Empty for files outside a distribution.
	DistDir string
}

// ConfigGenerator renders configuration files for the stack.
type ConfigGenerator struct {
	cfg     *config.Config
	paths   *config.Paths
	sizing  schema.Sizing
	context *schema.TemplateContext
}

// NewConfigGenerator creates a generator for a host with totalMemoryMB of RAM.
func NewConfigGenerator(cfg *config.Config, totalMemoryMB int) *ConfigGenerator {
	return &ConfigGenerator{
		cfg:     cfg,
		paths:   cfg.Paths(),
		sizing:  schema.ComputeSizing(totalMemoryMB),
		context: profiles.NewTemplateContext(cfg),
	}
}

// Sizing returns the memory allocation applied to YARN.
func (g *ConfigGenerator) Sizing() schema.Sizing {
	return g.sizing
}

// ConfigSet returns the built-in profile with sizing and user overrides applied.
func (g *ConfigGenerator) ConfigSet() (*schema.ConfigSet, error) {
	// 1. Built-in single node profile
	set, err := profiles.SingleNode(g.cfg)
	if err != nil {
		return nil, err
	}

	// 2. Host memory sizing
	g.sizing.ApplySizing(set.Hadoop)
	if set.Spark != nil && g.sizing.ContainerMB > 0 {
		set.Spark.FitContainer(g.sizing.ContainerMB)
	}

	// 3. User overrides from YAML
	overrides, err := LoadOverrides(g.paths.OverridesFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load overrides: %w", err)
	}
	return MergeOverrides(set, overrides), nil
}

// Hadoop renders core, hdfs, yarn, mapred, capacity-scheduler and hadoop-env.
func (g *ConfigGenerator) Hadoop() ([]File, error) {
	set, err := g.ConfigSet()
	if err != nil {
		return nil, err
	}
	h := set.Hadoop
	dir := g.paths.HadoopConfDir()

	xmls := []struct {
		name  string
		props []schema.Property
	}{
		{"core-site.xml", h.CoreSite.ToProperties(g.context)},
		{"hdfs-site.xml", h.HDFSSite.ToProperties(g.context)},
		{"yarn-site.xml", h.YarnSite.ToProperties(g.context)},
		{"mapred-site.xml", h.MapredSite.ToProperties(g.context)},
		{"capacity-scheduler.xml", h.CapacityScheduler.ToProperties(g.context)},
	}

	var files []File
	for _, x := range xmls {
		content, err := RenderHadoopXML(x.props)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", x.name, err)
		}
		files = append(files, File{Path: filepath.Join(dir, x.name), Content: content, Mode: 0644, DistDir: dir})
	}

	env, err := RenderEnvExports(schema.EnvMap(set.Env.Hadoop, g.context), nil)
	if err != nil {
		return nil, fmt.Errorf("hadoop-env.sh: %w", err)
	}
	files = append(files, File{
		Path:    filepath.Join(dir, "hadoop-env.sh"),
		Content: env,
		Mode:    0755,
		Block:   EnvBlock,
		DistDir: dir,
	})
	return files, nil
}

// Spark renders spark-defaults.conf, spark-env.sh and the client hive-site.
func (g *ConfigGenerator) Spark() ([]File, error) {
	set, err := g.ConfigSet()
	if err != nil {
		return nil, err
	}
	dir := g.paths.SparkConfDir()

	defaults, err := RenderProperties(set.Spark.ToProperties(g.context), "Spark defaults")
	if err != nil {
		return nil, fmt.Errorf("spark-defaults.conf: %w", err)
	}
	env, err := RenderEnvExports(schema.EnvMap(set.Env.Spark, g.context), nil)
	if err != nil {
		return nil, fmt.Errorf("spark-env.sh: %w", err)
	}
	// Spark only needs to find the metastore service, never its credentials.
	client, err := RenderHadoopXML([]schema.Property{
		{Name: "hive.metastore.uris", Value: set.Hive.MetastoreURIs},
		{Name: "hive.metastore.warehouse.dir", Value: g.context.Substitute(set.Hive.WarehouseDir)},
	})
	if err != nil {
		return nil, fmt.Errorf("spark hive-site.xml: %w", err)
	}

	return []File{
		{Path: filepath.Join(dir, "spark-defaults.conf"), Content: defaults, Mode: 0644, DistDir: dir},
		{Path: filepath.Join(dir, "spark-env.sh"), Content: env, Mode: 0755, Block: EnvBlock, DistDir: dir},
		{Path: filepath.Join(dir, "hive-site.xml"), Content: client, Mode: 0644, DistDir: dir},
	}, nil
}

// Kafka renders server.properties and zookeeper.properties.
func (g *ConfigGenerator) Kafka() ([]File, error) {
	set, err := g.ConfigSet()
	if err != nil {
		return nil, err
	}
	dir := g.paths.KafkaConfDir()

	server, err := RenderProperties(set.Kafka.ToProperties(g.context), "Kafka broker")
	if err != nil {
		return nil, fmt.Errorf("server.properties: %w", err)
	}
	zk, err := RenderProperties(set.ZooKeeper.ToProperties(g.context), "ZooKeeper")
	if err != nil {
		return nil, fmt.Errorf("zookeeper.properties: %w", err)
	}
	return []File{
		{Path: filepath.Join(dir, "server.properties"), Content: server, Mode: 0644, DistDir: dir},
		{Path: filepath.Join(dir, "zookeeper.properties"), Content: zk, Mode: 0644, DistDir: dir},
	}, nil
}

// Hive renders hive-site.xml and hive-env.sh. hive-site is owner-only when
// it carries the metastore password.
func (g *ConfigGenerator) Hive() ([]File, error) {
	set, err := g.ConfigSet()
	if err != nil {
		return nil, err
	}
	dir := g.paths.HiveConfDir()

	site, err := RenderHadoopXML(set.Hive.ToProperties(g.context))
	if err != nil {
		return nil, fmt.Errorf("hive-site.xml: %w", err)
	}
	mode := os.FileMode(0644)
	if set.Hive.HasSecret() {
		mode = 0600
	}
	env, err := RenderEnvExports(schema.EnvMap(set.Env.Hive, g.context), nil)
	if err != nil {
		return nil, fmt.Errorf("hive-env.sh: %w", err)
	}
	return []File{
		{Path: filepath.Join(dir, "hive-site.xml"), Content: site, Mode: mode, DistDir: dir},
		{Path: filepath.Join(dir, "hive-env.sh"), Content: env, Mode: 0755, Block: EnvBlock, DistDir: dir},
	}, nil
}

// UserEnv renders ~/.bigdata_env and the ~/.bashrc line that sources it.
func (g *ConfigGenerator) UserEnv() ([]File, error) {
	set, err := g.ConfigSet()
	if err != nil {
		return nil, err
	}
	envFile := g.paths.EnvFile()

	content, err := RenderEnvExports(
		schema.EnvMap(set.Env.User, g.context),
		schema.ExpandDirs(set.Env.PathDirs, g.context),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", envFile, err)
	}
	header := []byte("# Generated by bigdata. Re-run `bigdata config render` to refresh.\n")
	source := fmt.Sprintf("[ -f %s ] && . %s\n", util.ShellQuote(envFile), util.ShellQuote(envFile))

	return []File{
		{Path: envFile, Content: append(header, content...), Mode: 0644},
		{Path: g.paths.BashRC(), Content: []byte(source), Mode: 0644, Block: BashrcBlock},
	}, nil
}

// All renders every file of the stack.
func (g *ConfigGenerator) All() ([]File, error) {
	var all []File
	for _, render := range []func() ([]File, error){g.Hadoop, g.Spark, g.Kafka, g.Hive, g.UserEnv} {
		files, err := render()
		if err != nil {
			return nil, err
		}
		all = append(all, files...)
	}
	return all, nil
}
