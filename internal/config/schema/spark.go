package schema

import "fmt"

// SparkConfig represents spark-defaults.conf for Spark on the local YARN.
type SparkConfig struct {
	Master     string // spark.master
	DeployMode string // spark.submit.deployMode

	// YARN containers; memory values carry a unit suffix ("1g", "1664m")
	DriverMemory      string // spark.driver.memory
	ExecutorMemory    string // spark.executor.memory
	ExecutorCores     int    // spark.executor.cores
	ExecutorInstances int    // spark.executor.instances
	AMMemory          string // spark.yarn.am.memory

	HadoopDefaultFS string // spark.hadoop.fs.defaultFS

	// Tables live in the shared Hive metastore
	CatalogImplementation string // spark.sql.catalogImplementation
	WarehouseDir          string // spark.sql.warehouse.dir (templated)

	// EventLogDir turns on event logging when set and doubles as the
	// history server directory.
	EventLogDir string

	ShufflePartitions int    // spark.sql.shuffle.partitions
	AdaptiveEnabled   bool   // spark.sql.adaptive.enabled
	Serializer        string // spark.serializer

	Extra []Property
}

// Clone creates a deep copy
func (c *SparkConfig) Clone() *SparkConfig {
	return cloned(c, func(c *SparkConfig) *[]Property { return &c.Extra })
}

// FitContainer sizes executors and the application master so that memory
// plus YARN overhead fits a container of containerMB.
func (c *SparkConfig) FitContainer(containerMB int) {
	heap := containerMB - sparkOverheadMB(containerMB)
	if heap < minSparkHeapMB {
		heap = minSparkHeapMB
	}
	c.ExecutorMemory = fmt.Sprintf("%dm", heap)
	c.AMMemory = fmt.Sprintf("%dm", heap)
}

const minSparkHeapMB = 512

// sparkOverheadMB mirrors spark.executor.memoryOverhead: 10% of the
// container with a 384 MB floor.
func sparkOverheadMB(containerMB int) int {
	if o := containerMB / 10; o > 384 {
		return o
	}
	return 384
}

// ToProperties converts config to a list of properties with template substitution
func (c *SparkConfig) ToProperties(ctx *TemplateContext) []Property {
	var l propertyList
	l.set("spark.master", c.Master)
	l.set("spark.submit.deployMode", c.DeployMode)

	l.set("spark.driver.memory", c.DriverMemory)
	l.set("spark.executor.memory", c.ExecutorMemory)
	l.setInt("spark.executor.cores", c.ExecutorCores)
	l.setInt("spark.executor.instances", c.ExecutorInstances)
	l.set("spark.yarn.am.memory", c.AMMemory)

	l.set("spark.hadoop.fs.defaultFS", c.HadoopDefaultFS)
	l.set("spark.sql.catalogImplementation", c.CatalogImplementation)
	l.set("spark.sql.warehouse.dir", ctx.Substitute(c.WarehouseDir))

	l.setBool("spark.eventLog.enabled", c.EventLogDir != "")
	if dir := ctx.Substitute(c.EventLogDir); dir != "" {
		l.set("spark.eventLog.dir", dir)
		l.set("spark.history.fs.logDirectory", dir)
	}

	l.setInt("spark.sql.shuffle.partitions", c.ShufflePartitions)
	l.setBool("spark.sql.adaptive.enabled", c.AdaptiveEnabled)
	l.set("spark.serializer", c.Serializer)

	return appendExtraProperties(l, c.Extra, ctx)
}
