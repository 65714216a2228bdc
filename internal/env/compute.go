package env

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/danieljhkim/bigdata-wsl/internal/config"
	"github.com/danieljhkim/bigdata-wsl/internal/util"
)

// Environment holds the variables the vendored scripts and daemons expect.
type Environment struct {
	InstallDir string
	StateDir   string

	HadoopHome       string
	HadoopCommonHome string
	HadoopHDFSHome   string
	HadoopMapredHome string
	HadoopYarnHome   string
	HadoopConfDir    string
	HadoopLogDir     string
	YarnLogDir       string

	HiveHome    string
	HiveConfDir string

	SparkHome    string
	SparkConfDir string

	KafkaHome string
	PigHome   string

	JavaHome string

	Path string
}

// Compute derives the environment of an installation from cfg. Component
// homes are the stable symlinks, so the result does not change when a
// version is upgraded. basePath is the PATH to extend; empty uses the
// current process PATH.
func Compute(cfg *config.Config, basePath string) *Environment {
	paths := cfg.Paths()
	if basePath == "" {
		basePath = os.Getenv("PATH")
	}

	env := &Environment{
		InstallDir:    paths.InstallDir,
		StateDir:      paths.StateDir,
		HadoopHome:    paths.HadoopHome(),
		HadoopConfDir: paths.HadoopConfDir(),
		HadoopLogDir:  paths.HDFSPaths().LogsDir,
		YarnLogDir:    paths.YARNPaths().LogsDir,
		HiveHome:      paths.HiveHome(),
		HiveConfDir:   paths.HiveConfDir(),
		SparkHome:     paths.SparkHome(),
		SparkConfDir:  paths.SparkConfDir(),
		KafkaHome:     paths.KafkaHome(),
		PigHome:       paths.PigHome(),
		JavaHome:      cfg.JavaHome,
	}
	env.HadoopCommonHome = env.HadoopHome
	env.HadoopHDFSHome = env.HadoopHome
	env.HadoopMapredHome = env.HadoopHome
	env.HadoopYarnHome = env.HadoopHome

	env.Path = util.DeduplicatePath(env.PathDirs(), basePath)
	return env
}

// PathDirs returns the bin directories prepended to PATH, in order.
func (e *Environment) PathDirs() []string {
	var dirs []string
	add := func(home string, subdirs ...string) {
		if home == "" {
			return
		}
		for _, s := range subdirs {
			dirs = append(dirs, filepath.Join(home, s))
		}
	}
	add(e.JavaHome, "bin")
	add(e.HadoopHome, "bin", "sbin")
	add(e.SparkHome, "bin")
	add(e.KafkaHome, "bin")
	add(e.PigHome, "bin")
	add(e.HiveHome, "bin")
	return dirs
}

// Vars returns the variables as a map, without PATH.
func (e *Environment) Vars() map[string]string {
	m := map[string]string{}
	add := func(name, value string) {
		if value != "" {
			m[name] = value
		}
	}
	add("BIGDATA_INSTALL_DIR", e.InstallDir)
	add("BIGDATA_STATE_DIR", e.StateDir)
	add("HADOOP_HOME", e.HadoopHome)
	add("HADOOP_COMMON_HOME", e.HadoopCommonHome)
	add("HADOOP_HDFS_HOME", e.HadoopHDFSHome)
	add("HADOOP_MAPRED_HOME", e.HadoopMapredHome)
	add("HADOOP_YARN_HOME", e.HadoopYarnHome)
	add("HADOOP_CONF_DIR", e.HadoopConfDir)
	add("HADOOP_LOG_DIR", e.HadoopLogDir)
	add("YARN_LOG_DIR", e.YarnLogDir)
	add("HIVE_HOME", e.HiveHome)
	add("HIVE_CONF_DIR", e.HiveConfDir)
	add("SPARK_HOME", e.SparkHome)
	add("SPARK_CONF_DIR", e.SparkConfDir)
	add("KAFKA_HOME", e.KafkaHome)
	add("PIG_HOME", e.PigHome)
	add("JAVA_HOME", e.JavaHome)
	return m
}

// Export returns environment variables as []string for exec.Cmd.Env,
// sorted by name with PATH last.
func (e *Environment) Export() []string {
	vars := e.Vars()
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	exports := make([]string, 0, len(names)+1)
	for _, name := range names {
		exports = append(exports, name+"="+vars[name])
	}
	if e.Path != "" {
		exports = append(exports, "PATH="+e.Path)
	}
	return exports
}

// PrintShell writes shell export statements to stdout.
func (e *Environment) PrintShell() {
	for _, entry := range e.Export() {
		name, value, _ := strings.Cut(entry, "=")
		fmt.Printf("export %s=%s\n", name, util.ShellEscape(value))
	}
}

// MergeWith overlays the environment onto base (typically os.Environ())
// and returns a complete environment suitable for exec.Cmd.Env.
func (e *Environment) MergeWith(base []string) []string {
	envMap := make(map[string]string, len(base))
	var order []string
	set := func(entry string) {
		name, value, ok := strings.Cut(entry, "=")
		if !ok {
			return
		}
		if _, seen := envMap[name]; !seen {
			order = append(order, name)
		}
		envMap[name] = value
	}
	for _, entry := range base {
		set(entry)
	}
	for _, entry := range e.Export() {
		set(entry)
	}

	result := make([]string, 0, len(order))
	for _, name := range order {
		result = append(result, name+"="+envMap[name])
	}
	return result
}

// MergeWithCurrent overlays the environment onto the process environment.
func (e *Environment) MergeWithCurrent() []string {
	return e.MergeWith(os.Environ())
}
