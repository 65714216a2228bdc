package schema

import (
	"strconv"
	"strings"
)

// Property represents a single configuration property
type Property struct {
	Name  string
	Value string
}

// TemplateContext holds variables for value substitution
type TemplateContext struct {
	User       string // {{USER}} - installing user
	Home       string // {{HOME}} - user home directory
	InstallDir string // {{INSTALL_DIR}} - component install root
	StateDir   string // {{STATE_DIR}} - installer state root
	HadoopHome string // {{HADOOP_HOME}} - stable Hadoop symlink
	JavaHome   string // {{JAVA_HOME}} - JDK location
}

// Substitute replaces template variables in a string. Every occurrence is
// replaced; unknown tokens are left as they are.
func (ctx *TemplateContext) Substitute(value string) string {
	if !strings.Contains(value, "{{") {
		return value
	}
	return strings.NewReplacer(
		"{{USER}}", ctx.User,
		"{{HOME}}", ctx.Home,
		"{{INSTALL_DIR}}", ctx.InstallDir,
		"{{STATE_DIR}}", ctx.StateDir,
		"{{HADOOP_HOME}}", ctx.HadoopHome,
		"{{JAVA_HOME}}", ctx.JavaHome,
	).Replace(value)
}

// ConfigSet represents every rendered configuration file of the stack
type ConfigSet struct {
	Hadoop    *HadoopConfig
	Hive      *HiveConfig
	Spark     *SparkConfig
	Kafka     *KafkaConfig
	ZooKeeper *ZooKeeperConfig
	Env       *EnvConfig
}

// Clone creates a deep copy of the ConfigSet
func (cs *ConfigSet) Clone() *ConfigSet {
	if cs == nil {
		return nil
	}
	return &ConfigSet{
		Hadoop:    cs.Hadoop.Clone(),
		Hive:      cs.Hive.Clone(),
		Spark:     cs.Spark.Clone(),
		Kafka:     cs.Kafka.Clone(),
		ZooKeeper: cs.ZooKeeper.Clone(),
		Env:       cs.Env.Clone(),
	}
}

// Helper functions

func boolToString(b bool) string {
	return strconv.FormatBool(b)
}

// propertyList collects properties in order, leaving out unset values.
type propertyList []Property

func (l *propertyList) set(name, value string) {
	if value != "" {
		*l = append(*l, Property{Name: name, Value: value})
	}
}

// setInt adds a positive integer; zero means unset.
func (l *propertyList) setInt(name string, value int) {
	if value > 0 {
		l.set(name, strconv.Itoa(value))
	}
}

func (l *propertyList) setBool(name string, value bool) {
	l.set(name, boolToString(value))
}

func appendExtraProperties(props []Property, extra []Property, ctx *TemplateContext) []Property {
	for _, p := range extra {
		prop := Property{Name: p.Name, Value: ctx.Substitute(p.Value)}
		replaced := false
		for i := range props {
			if props[i].Name == prop.Name {
				props[i] = prop
				replaced = true
				break
			}
		}
		if !replaced {
			props = append(props, prop)
		}
	}
	return props
}
