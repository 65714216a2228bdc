package config

import (
	"path/filepath"
)

// Paths holds all standard path locations of an installation.
type Paths struct {
	Home       string // User home directory
	InstallDir string // Where component archives are extracted and linked
	StateDir   string // Installer state, logs, downloads and daemon data
}

// NewPaths derives the path layout from cfg.
func NewPaths(cfg *Config) *Paths {
	return &Paths{
		Home:       cfg.Home,
		InstallDir: cfg.InstallDir,
		StateDir:   cfg.StateDir,
	}
}

// StateFile returns the step completion log: $STATE_DIR/install.state
func (p *Paths) StateFile() string {
	return filepath.Join(p.StateDir, "install.state")
}

// LockFile returns the installation lock: $STATE_DIR/install.lock
func (p *Paths) LockFile() string {
	return filepath.Join(p.StateDir, "install.lock")
}

// LogDir returns the installer log directory: $STATE_DIR/logs
func (p *Paths) LogDir() string {
	return filepath.Join(p.StateDir, "logs")
}

// LogFile returns the installer log: $STATE_DIR/logs/install.log
func (p *Paths) LogFile() string {
	return filepath.Join(p.LogDir(), "install.log")
}

// DownloadsDir returns where archives are cached: $STATE_DIR/downloads
func (p *Paths) DownloadsDir() string {
	return filepath.Join(p.StateDir, "downloads")
}

// MetricsFile returns the textfile-collector output of the last run.
func (p *Paths) MetricsFile() string {
	return filepath.Join(p.StateDir, "metrics", "install.prom")
}

// ConfRootDir returns the user configuration directory: $STATE_DIR/conf
func (p *Paths) ConfRootDir() string {
	return filepath.Join(p.StateDir, "conf")
}

// OverridesFile returns the rendered-config overrides: $STATE_DIR/conf/overrides.yaml
func (p *Paths) OverridesFile() string {
	return filepath.Join(p.ConfRootDir(), "overrides.yaml")
}

// SSHDir returns the user's ssh directory.
func (p *Paths) SSHDir() string {
	return filepath.Join(p.Home, ".ssh")
}

// EnvFile returns the shell environment file sourced from ~/.bashrc.
func (p *Paths) EnvFile() string {
	return filepath.Join(p.Home, ".bigdata_env")
}

// BashRC returns the user's ~/.bashrc.
func (p *Paths) BashRC() string {
	return filepath.Join(p.Home, ".bashrc")
}

// ComponentHome returns the stable symlinked home of a component.
func (p *Paths) ComponentHome(link string) string {
	return filepath.Join(p.InstallDir, link)
}

// HadoopHome returns $INSTALL_DIR/hadoop
func (p *Paths) HadoopHome() string { return p.ComponentHome("hadoop") }

// SparkHome returns $INSTALL_DIR/spark
func (p *Paths) SparkHome() string { return p.ComponentHome("spark") }

// KafkaHome returns $INSTALL_DIR/kafka
func (p *Paths) KafkaHome() string { return p.ComponentHome("kafka") }

// PigHome returns $INSTALL_DIR/pig
func (p *Paths) PigHome() string { return p.ComponentHome("pig") }

// HiveHome returns $INSTALL_DIR/hive
func (p *Paths) HiveHome() string { return p.ComponentHome("hive") }

// EclipseHome returns $INSTALL_DIR/eclipse
func (p *Paths) EclipseHome() string { return p.ComponentHome("eclipse") }

// HadoopConfDir returns $HADOOP_HOME/etc/hadoop
func (p *Paths) HadoopConfDir() string {
	return filepath.Join(p.HadoopHome(), "etc", "hadoop")
}

// SparkConfDir returns $SPARK_HOME/conf
func (p *Paths) SparkConfDir() string {
	return filepath.Join(p.SparkHome(), "conf")
}

// KafkaConfDir returns $KAFKA_HOME/config
func (p *Paths) KafkaConfDir() string {
	return filepath.Join(p.KafkaHome(), "config")
}

// HiveConfDir returns $HIVE_HOME/conf
func (p *Paths) HiveConfDir() string {
	return filepath.Join(p.HiveHome(), "conf")
}

// ServicePaths holds paths for a specific service
type ServicePaths struct {
	StateDir string // Service state directory
	LogsDir  string // Service logs directory
	PidsDir  string // Service PID files directory
	DataDir  string // Service data directory
}

// ServiceStateDir returns paths for a specific service
// service: "hdfs", "yarn", "zookeeper", "kafka" or "hive"
func (p *Paths) ServiceStateDir(service string) *ServicePaths {
	baseStateDir := filepath.Join(p.StateDir, "services", service)
	return &ServicePaths{
		StateDir: baseStateDir,
		LogsDir:  filepath.Join(baseStateDir, "logs"),
		PidsDir:  filepath.Join(baseStateDir, "pids"),
		DataDir:  filepath.Join(baseStateDir, "data"),
	}
}

// HDFSPaths returns HDFS-specific paths
func (p *Paths) HDFSPaths() *ServicePaths {
	return p.ServiceStateDir("hdfs")
}

// NameNodeDir returns the local namenode metadata directory.
func (p *Paths) NameNodeDir() string {
	return filepath.Join(p.HDFSPaths().DataDir, "namenode")
}

// DataNodeDir returns the local datanode block directory.
func (p *Paths) DataNodeDir() string {
	return filepath.Join(p.HDFSPaths().DataDir, "datanode")
}

// YARNPaths returns YARN-specific paths
func (p *Paths) YARNPaths() *ServicePaths {
	return p.ServiceStateDir("yarn")
}

// ZooKeeperPaths returns ZooKeeper-specific paths
func (p *Paths) ZooKeeperPaths() *ServicePaths {
	return p.ServiceStateDir("zookeeper")
}

// KafkaPaths returns Kafka-specific paths; DataDir holds the broker log dirs.
func (p *Paths) KafkaPaths() *ServicePaths {
	return p.ServiceStateDir("kafka")
}

// HivePaths returns Hive-specific paths
func (p *Paths) HivePaths() *ServicePaths {
	return p.ServiceStateDir("hive")
}

// DerbyDir returns the embedded Derby metastore location.
func (p *Paths) DerbyDir() string {
	return filepath.Join(p.HivePaths().DataDir, "metastore_db")
}

// HadoopTmpDir returns the Hadoop temporary directory
// $STATE_DIR/services/hadoop/tmp
func (p *Paths) HadoopTmpDir() string {
	return filepath.Join(p.ServiceStateDir("hadoop").StateDir, "tmp")
}

// AllServiceDirs returns every directory daemons expect to exist.
func (p *Paths) AllServiceDirs() []string {
	var dirs []string
	for _, sp := range []*ServicePaths{p.HDFSPaths(), p.YARNPaths(), p.ZooKeeperPaths(), p.KafkaPaths(), p.HivePaths()} {
		dirs = append(dirs, sp.LogsDir, sp.PidsDir, sp.DataDir)
	}
	return append(dirs, p.NameNodeDir(), p.DataNodeDir(), p.HadoopTmpDir())
}
