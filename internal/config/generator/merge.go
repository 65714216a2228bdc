package generator

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/bigdata-wsl/internal/config/schema"
)

// OverrideConfig holds user overrides keyed by rendered file name without
// extension, e.g. "core-site", "server" or "spark-defaults".
type OverrideConfig map[string]map[string]interface{}

// OverrideSections lists every file that accepts overrides.
var OverrideSections = []string{
	"core-site", "hdfs-site", "yarn-site", "mapred-site", "capacity-scheduler",
	"hive-site", "spark-defaults", "server", "zookeeper",
}

// LoadOverrides loads user overrides from the override file. A missing
// file yields no overrides.
func LoadOverrides(path string) (OverrideConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return OverrideConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read overrides file: %w", err)
	}

	cfg := OverrideConfig{}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for section := range cfg {
		if !isOverrideSection(section) {
			return nil, fmt.Errorf("%s: unknown section %q (supported: %v)", path, section, OverrideSections)
		}
	}
	return cfg, nil
}

func isOverrideSection(name string) bool {
	for _, s := range OverrideSections {
		if s == name {
			return true
		}
	}
	return false
}

// MergeOverrides applies user overrides to a ConfigSet
func MergeOverrides(configSet *schema.ConfigSet, overrides OverrideConfig) *schema.ConfigSet {
	if len(overrides) == 0 {
		return configSet
	}

	result := configSet.Clone()

	// Apply Hadoop overrides
	if h := result.Hadoop; h != nil {
		if h.CoreSite != nil {
			h.CoreSite.Extra = mergeProperties(h.CoreSite.Extra, overrides["core-site"])
		}
		if h.HDFSSite != nil {
			h.HDFSSite.Extra = mergeProperties(h.HDFSSite.Extra, overrides["hdfs-site"])
		}
		if h.YarnSite != nil {
			h.YarnSite.Extra = mergeProperties(h.YarnSite.Extra, overrides["yarn-site"])
		}
		if h.MapredSite != nil {
			h.MapredSite.Extra = mergeProperties(h.MapredSite.Extra, overrides["mapred-site"])
		}
		if h.CapacityScheduler != nil {
			h.CapacityScheduler.Extra = mergeProperties(h.CapacityScheduler.Extra, overrides["capacity-scheduler"])
		}
	}

	if result.Hive != nil {
		result.Hive.Extra = mergeProperties(result.Hive.Extra, overrides["hive-site"])
	}
	if result.Spark != nil {
		result.Spark.Extra = mergeProperties(result.Spark.Extra, overrides["spark-defaults"])
	}
	if result.Kafka != nil {
		result.Kafka.Extra = mergeProperties(result.Kafka.Extra, overrides["server"])
	}
	if result.ZooKeeper != nil {
		result.ZooKeeper.Extra = mergeProperties(result.ZooKeeper.Extra, overrides["zookeeper"])
	}

	return result
}

// mergeProperties merges override map into existing properties in sorted
// key order so rendering is deterministic.
func mergeProperties(existing []schema.Property, overrides map[string]interface{}) []schema.Property {
	if len(overrides) == 0 {
		return existing
	}

	propMap := make(map[string]int)
	for i, p := range existing {
		propMap[p.Name] = i
	}

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop := schema.Property{
			Name:  name,
			Value: fmt.Sprint(overrides[name]),
		}

		if idx, ok := propMap[name]; ok {
			existing[idx] = prop
		} else {
			propMap[name] = len(existing)
			existing = append(existing, prop)
		}
	}

	return existing
}
