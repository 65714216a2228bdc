package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	units "github.com/docker/go-units"
	"github.com/spf13/viper"
	"golang.org/x/mod/semver"

	"github.com/danieljhkim/bigdata-wsl/internal/util"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "BIGDATA"

// Config is the runtime configuration. It is built once by Load and must
// not be modified afterwards; components receive it by pointer.
type Config struct {
	User       string `mapstructure:"user"`
	Home       string `mapstructure:"home"`
	InstallDir string `mapstructure:"install_dir"`
	StateDir   string `mapstructure:"state_dir"`
	JavaHome   string `mapstructure:"java_home"`

	Versions  Versions          `mapstructure:"versions"`
	Mirrors   []string          `mapstructure:"mirrors"`
	Checksums map[string]string `mapstructure:"checksums"`
	Download  DownloadConfig    `mapstructure:"download"`
	Preflight PreflightConfig   `mapstructure:"preflight"`
	Lock      LockConfig        `mapstructure:"lock"`
	Services  ServicesConfig    `mapstructure:"services"`
	Hive      HiveConfig        `mapstructure:"hive"`
	Eclipse   EclipseConfig     `mapstructure:"eclipse"`
	Log       LogConfig         `mapstructure:"log"`

	// Packages installed by the system_packages step.
	Packages []string `mapstructure:"packages"`

	// Source is the config file that was read, if any.
	Source string `mapstructure:"-"`
}

// Versions pins every downloaded component.
type Versions struct {
	Hadoop         string `mapstructure:"hadoop"`
	Spark          string `mapstructure:"spark"`
	Kafka          string `mapstructure:"kafka"`
	Scala          string `mapstructure:"scala"`
	Pig            string `mapstructure:"pig"`
	Hive           string `mapstructure:"hive"`
	MySQLConnector string `mapstructure:"mysql_connector"`
}

// DownloadConfig controls the mirrored downloader.
type DownloadConfig struct {
	Retries         int           `mapstructure:"retries"`
	Backoff         time.Duration `mapstructure:"backoff"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	ResponseTimeout time.Duration `mapstructure:"response_timeout"`
	AttemptTimeout  time.Duration `mapstructure:"attempt_timeout"`
	MinSizeBytes    int64         `mapstructure:"min_size_bytes"`
}

// PreflightConfig holds the environment thresholds.
type PreflightConfig struct {
	MinMemory         string   `mapstructure:"min_memory"`
	MinDisk           string   `mapstructure:"min_disk"`
	SlowMountPrefixes []string `mapstructure:"slow_mount_prefixes"`
	WSLVersion        int      `mapstructure:"wsl_version"`
	WSLConf           string   `mapstructure:"wsl_conf"`

	MinMemoryBytes int64 `mapstructure:"-"`
	MinDiskBytes   int64 `mapstructure:"-"`
}

// LockConfig controls the single-instance installation lock.
type LockConfig struct {
	StaleAfter time.Duration `mapstructure:"stale_after"`
}

// ServiceConfig is the port and readiness budget of one daemon.
type ServiceConfig struct {
	Port     int `mapstructure:"port"`
	Attempts int `mapstructure:"attempts"`
}

// ServicesConfig holds ports and readiness budgets of every daemon.
type ServicesConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	StopGrace    time.Duration `mapstructure:"stop_grace"`

	NameNode        ServiceConfig `mapstructure:"namenode"`
	NameNodeHTTP    ServiceConfig `mapstructure:"namenode_http"`
	DataNode        ServiceConfig `mapstructure:"datanode"`
	SafeMode        ServiceConfig `mapstructure:"safemode"`
	ResourceManager ServiceConfig `mapstructure:"resourcemanager"`
	NodeManager     ServiceConfig `mapstructure:"nodemanager"`
	ZooKeeper       ServiceConfig `mapstructure:"zookeeper"`
	Kafka           ServiceConfig `mapstructure:"kafka"`
	Metastore       ServiceConfig `mapstructure:"metastore"`
	HiveServer2     ServiceConfig `mapstructure:"hiveserver2"`

	HiveServer2Enabled bool `mapstructure:"hiveserver2_enabled"`

	HDFSDirAttempts int           `mapstructure:"hdfs_dir_attempts"`
	HDFSDirBackoff  time.Duration `mapstructure:"hdfs_dir_backoff"`
}

// HiveConfig selects and configures the metastore database.
type HiveConfig struct {
	Metastore  string `mapstructure:"metastore"`
	DBHost     string `mapstructure:"db_host"`
	DBPort     int    `mapstructure:"db_port"`
	DBName     string `mapstructure:"db_name"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`
}

// EclipseConfig controls the optional IDE component.
type EclipseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Release string `mapstructure:"release"`
}

// LogConfig controls the install log file.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// File is an explicit config file. When empty, $HOME/.bigdata/config.yaml
	// is read if it exists.
	File string
	// Overrides are applied with the highest precedence (command-line flags).
	Overrides map[string]interface{}
	// Environ replaces os.Environ lookups, for tests. Nil uses the process
	// environment.
	Environ []string
}

// LegacyEnv maps config keys to the unprefixed variable names older
// installer scripts honored.
var LegacyEnv = map[string]string{
	"install_dir":      "INSTALL_DIR",
	"java_home":        "JAVA_HOME",
	"versions.hadoop":  "HADOOP_VERSION",
	"versions.spark":   "SPARK_VERSION",
	"versions.kafka":   "KAFKA_VERSION",
	"versions.scala":   "SCALA_VERSION",
	"versions.hive":    "HIVE_VERSION",
	"versions.pig":     "PIG_VERSION",
	"eclipse.enabled":  "INSTALL_ECLIPSE",
	"eclipse.release":  "ECLIPSE_VERSION",
	"hive.metastore":   "HIVE_METASTORE_DB",
	"hive.db_password": "HIVE_DB_PASSWORD",
}

// Load builds the configuration from defaults, the config file, the
// environment and overrides, in increasing precedence, then validates it.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()

	home, userName := currentUser(opts.Environ)
	setDefaults(v, home, userName)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if opts.Environ != nil {
		// viper reads os.Getenv; tests provide a scoped environment instead.
		for key, value := range environMap(opts.Environ) {
			if strings.HasPrefix(key, EnvPrefix+"_") || isLegacyEnv(key) {
				v.Set(envKeyToConfigKey(key), value)
			}
		}
	} else {
		v.AutomaticEnv()
		for key, legacy := range LegacyEnv {
			prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
			if err := v.BindEnv(key, prefixed, legacyPrefixedName(key), legacy); err != nil {
				return nil, fmt.Errorf("failed to bind %s: %w", legacy, err)
			}
		}
	}

	configFile := opts.File
	if configFile == "" {
		candidate := filepath.Join(home, ".bigdata", "config.yaml")
		if util.FileExists(candidate) {
			configFile = candidate
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.Source = configFile

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// legacyPrefixedName returns the BIGDATA_<COMPONENT>_VERSION spelling for
// version keys, so both BIGDATA_VERSIONS_HADOOP and BIGDATA_HADOOP_VERSION work.
func legacyPrefixedName(key string) string {
	if name, ok := strings.CutPrefix(key, "versions."); ok {
		return EnvPrefix + "_" + strings.ToUpper(name) + "_VERSION"
	}
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func isLegacyEnv(name string) bool {
	for _, legacy := range LegacyEnv {
		if legacy == name {
			return true
		}
	}
	return false
}

// envKeyToConfigKey maps an environment variable name back to its config key.
func envKeyToConfigKey(name string) string {
	for key, legacy := range LegacyEnv {
		if name == legacy || name == legacyPrefixedName(key) {
			return key
		}
	}
	rest := strings.ToLower(strings.TrimPrefix(name, EnvPrefix+"_"))
	for _, section := range []string{"versions", "download", "preflight", "lock", "services", "hive", "eclipse", "log"} {
		if after, ok := strings.CutPrefix(rest, section+"_"); ok {
			return section + "." + after
		}
	}
	return rest
}

func environMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, val, ok := strings.Cut(kv, "="); ok {
			m[k] = val
		}
	}
	return m
}

func currentUser(environ []string) (home, name string) {
	if environ != nil {
		env := environMap(environ)
		return env["HOME"], env["USER"]
	}
	home = os.Getenv("HOME")
	name = os.Getenv("USER")
	if u, err := user.Current(); err == nil {
		if home == "" {
			home = u.HomeDir
		}
		if name == "" {
			name = u.Username
		}
	}
	return home, name
}

// DefaultJavaHome is where Ubuntu's openjdk-11-jdk package installs.
func DefaultJavaHome() string {
	return "/usr/lib/jvm/java-11-openjdk-" + runtime.GOARCH
}

// DefaultMirrors are tried in order for every Apache artifact.
var DefaultMirrors = []string{
	"https://dlcdn.apache.org",
	"https://downloads.apache.org",
	"https://archive.apache.org/dist",
}

// DefaultPackages are installed with apt-get by the system_packages step.
var DefaultPackages = []string{
	"openjdk-11-jdk",
	"openssh-server",
	"openssh-client",
	"curl",
	"wget",
	"tar",
	"rsync",
	"python3",
	"procps",
	"mysql-server",
}

func setDefaults(v *viper.Viper, home, userName string) {
	v.SetDefault("user", userName)
	v.SetDefault("home", home)
	v.SetDefault("install_dir", filepath.Join(home, "bigdata"))
	v.SetDefault("state_dir", filepath.Join(home, ".bigdata"))
	v.SetDefault("java_home", DefaultJavaHome())

	v.SetDefault("versions.hadoop", "3.3.6")
	v.SetDefault("versions.spark", "3.5.1")
	v.SetDefault("versions.kafka", "3.7.0")
	v.SetDefault("versions.scala", "2.13")
	v.SetDefault("versions.pig", "0.17.0")
	v.SetDefault("versions.hive", "3.1.3")
	v.SetDefault("versions.mysql_connector", "8.3.0")

	v.SetDefault("mirrors", DefaultMirrors)
	v.SetDefault("checksums", map[string]string{})
	v.SetDefault("packages", DefaultPackages)

	v.SetDefault("download.retries", 3)
	v.SetDefault("download.backoff", 5*time.Second)
	v.SetDefault("download.connect_timeout", 30*time.Second)
	v.SetDefault("download.response_timeout", 60*time.Second)
	v.SetDefault("download.attempt_timeout", 30*time.Minute)
	v.SetDefault("download.min_size_bytes", 1000000)

	v.SetDefault("preflight.min_memory", "8GB")
	v.SetDefault("preflight.min_disk", "12GB")
	v.SetDefault("preflight.slow_mount_prefixes", []string{"/mnt/"})
	v.SetDefault("preflight.wsl_version", 2)
	v.SetDefault("preflight.wsl_conf", "/etc/wsl.conf")

	v.SetDefault("lock.stale_after", time.Hour)

	v.SetDefault("services.poll_interval", time.Second)
	v.SetDefault("services.stop_grace", 15*time.Second)
	v.SetDefault("services.namenode.port", 9000)
	v.SetDefault("services.namenode.attempts", 60)
	v.SetDefault("services.namenode_http.port", 9870)
	v.SetDefault("services.datanode.port", 9866)
	v.SetDefault("services.datanode.attempts", 60)
	v.SetDefault("services.safemode.attempts", 60)
	v.SetDefault("services.resourcemanager.port", 8088)
	v.SetDefault("services.resourcemanager.attempts", 60)
	v.SetDefault("services.nodemanager.port", 8042)
	v.SetDefault("services.nodemanager.attempts", 60)
	v.SetDefault("services.zookeeper.port", 2181)
	v.SetDefault("services.zookeeper.attempts", 30)
	v.SetDefault("services.kafka.port", 9092)
	v.SetDefault("services.kafka.attempts", 60)
	v.SetDefault("services.metastore.port", 9083)
	v.SetDefault("services.metastore.attempts", 90)
	v.SetDefault("services.hiveserver2.port", 10000)
	v.SetDefault("services.hiveserver2.attempts", 120)
	v.SetDefault("services.hiveserver2_enabled", true)
	v.SetDefault("services.hdfs_dir_attempts", 5)
	v.SetDefault("services.hdfs_dir_backoff", 3*time.Second)

	v.SetDefault("hive.metastore", "mysql")
	v.SetDefault("hive.db_host", "localhost")
	v.SetDefault("hive.db_port", 3306)
	v.SetDefault("hive.db_name", "metastore")
	v.SetDefault("hive.db_user", "hive")
	v.SetDefault("hive.db_password", "hive")

	v.SetDefault("eclipse.enabled", false)
	v.SetDefault("eclipse.release", "2024-03")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
}

// finish normalizes derived fields and validates the result.
func (c *Config) finish() error {
	c.InstallDir = filepath.Clean(expandHome(c.InstallDir, c.Home))
	c.StateDir = filepath.Clean(expandHome(c.StateDir, c.Home))
	c.Hive.Metastore = strings.ToLower(strings.TrimSpace(c.Hive.Metastore))
	for i, m := range c.Mirrors {
		c.Mirrors[i] = strings.TrimRight(strings.TrimSpace(m), "/")
	}

	mem, err := units.RAMInBytes(c.Preflight.MinMemory)
	if err != nil {
		return fmt.Errorf("invalid preflight.min_memory %q: %w", c.Preflight.MinMemory, err)
	}
	c.Preflight.MinMemoryBytes = mem

	disk, err := units.FromHumanSize(c.Preflight.MinDisk)
	if err != nil {
		return fmt.Errorf("invalid preflight.min_disk %q: %w", c.Preflight.MinDisk, err)
	}
	c.Preflight.MinDiskBytes = disk

	return c.Validate()
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.User == "" {
		return fmt.Errorf("user is not set (USER is empty)")
	}
	if !filepath.IsAbs(c.InstallDir) {
		return fmt.Errorf("install_dir must be an absolute path, got %q", c.InstallDir)
	}
	if !filepath.IsAbs(c.StateDir) {
		return fmt.Errorf("state_dir must be an absolute path, got %q", c.StateDir)
	}

	versions := map[string]string{
		"hadoop":          c.Versions.Hadoop,
		"spark":           c.Versions.Spark,
		"kafka":           c.Versions.Kafka,
		"scala":           c.Versions.Scala,
		"pig":             c.Versions.Pig,
		"hive":            c.Versions.Hive,
		"mysql_connector": c.Versions.MySQLConnector,
	}
	for name, version := range versions {
		if !semver.IsValid("v" + version) {
			return fmt.Errorf("versions.%s: %q is not a valid version", name, version)
		}
	}

	if len(c.Mirrors) == 0 {
		return fmt.Errorf("at least one mirror is required")
	}
	if c.Download.Retries < 1 {
		return fmt.Errorf("download.retries must be >= 1, got %d", c.Download.Retries)
	}
	if c.Download.MinSizeBytes < 0 {
		return fmt.Errorf("download.min_size_bytes must not be negative")
	}
	if c.Lock.StaleAfter <= 0 {
		return fmt.Errorf("lock.stale_after must be positive")
	}
	switch c.Hive.Metastore {
	case "mysql", "derby":
	default:
		return fmt.Errorf("hive.metastore must be mysql or derby, got %q", c.Hive.Metastore)
	}
	return nil
}

// Paths returns the derived path layout.
func (c *Config) Paths() *Paths {
	return NewPaths(c)
}

// SparkMajorHadoop returns the Hadoop flavor suffix Spark publishes
// binaries for.
func (c *Config) SparkMajorHadoop() string {
	if semver.Compare("v"+c.Versions.Spark, "v3.3.0") >= 0 {
		return "hadoop3"
	}
	return "hadoop3.2"
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(home, rest)
	}
	return path
}
