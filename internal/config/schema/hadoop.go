package schema

import "strconv"

// HadoopConfig groups the *-site.xml files under $HADOOP_HOME/etc/hadoop.
type HadoopConfig struct {
	CoreSite          *CoreSiteConfig
	HDFSSite          *HDFSSiteConfig
	YarnSite          *YarnSiteConfig
	MapredSite        *MapredSiteConfig
	CapacityScheduler *CapacitySchedulerConfig
}

// Clone creates a deep copy of HadoopConfig
func (c *HadoopConfig) Clone() *HadoopConfig {
	if c == nil {
		return nil
	}
	return &HadoopConfig{
		CoreSite:          c.CoreSite.Clone(),
		HDFSSite:          c.HDFSSite.Clone(),
		YarnSite:          c.YarnSite.Clone(),
		MapredSite:        c.MapredSite.Clone(),
		CapacityScheduler: c.CapacityScheduler.Clone(),
	}
}

// cloned copies a site config together with its Extra slice.
func cloned[T any](c *T, extra func(*T) *[]Property) *T {
	if c == nil {
		return nil
	}
	clone := *c
	e := extra(&clone)
	*e = append([]Property{}, *e...)
	return &clone
}

// CoreSiteConfig is core-site.xml.
type CoreSiteConfig struct {
	DefaultFS string // fs.defaultFS
	TmpDir    string // hadoop.tmp.dir (templated)
	// ProxyUser may impersonate any user from any host; HiveServer2 needs
	// this for its own user. Templated, empty to skip.
	ProxyUser string
	Extra     []Property
}

func (c *CoreSiteConfig) Clone() *CoreSiteConfig {
	return cloned(c, func(c *CoreSiteConfig) *[]Property { return &c.Extra })
}

func (c *CoreSiteConfig) ToProperties(ctx *TemplateContext) []Property {
	var l propertyList
	l.set("fs.defaultFS", c.DefaultFS)
	l.set("hadoop.tmp.dir", ctx.Substitute(c.TmpDir))
	if user := ctx.Substitute(c.ProxyUser); user != "" {
		prefix := "hadoop.proxyuser." + user
		l.set(prefix+".hosts", "*")
		l.set(prefix+".groups", "*")
	}
	return appendExtraProperties(l, c.Extra, ctx)
}

// HDFSSiteConfig is hdfs-site.xml for a single NameNode and DataNode.
type HDFSSiteConfig struct {
	Replication         int    // dfs.replication
	NameNodeNameDir     string // dfs.namenode.name.dir (templated)
	DataNodeDataDir     string // dfs.datanode.data.dir (templated)
	NameNodeHTTPAddress string // dfs.namenode.http-address
	DataNodeAddress     string // dfs.datanode.address
	PermissionsEnabled  bool   // dfs.permissions.enabled
	Extra               []Property
}

func (c *HDFSSiteConfig) Clone() *HDFSSiteConfig {
	return cloned(c, func(c *HDFSSiteConfig) *[]Property { return &c.Extra })
}

func (c *HDFSSiteConfig) ToProperties(ctx *TemplateContext) []Property {
	var l propertyList
	l.setInt("dfs.replication", c.Replication)
	l.set("dfs.namenode.name.dir", ctx.Substitute(c.NameNodeNameDir))
	l.set("dfs.datanode.data.dir", ctx.Substitute(c.DataNodeDataDir))
	l.set("dfs.namenode.http-address", c.NameNodeHTTPAddress)
	l.set("dfs.datanode.address", c.DataNodeAddress)
	l.setBool("dfs.permissions.enabled", c.PermissionsEnabled)
	return appendExtraProperties(l, c.Extra, ctx)
}

// YarnSiteConfig is yarn-site.xml. The memory fields are filled in from
// host sizing.
type YarnSiteConfig struct {
	ResourceManagerHostname string // yarn.resourcemanager.hostname
	ResourceManagerWebApp   string // yarn.resourcemanager.webapp.address
	NodeManagerWebApp       string // yarn.nodemanager.webapp.address

	AuxServices      string // yarn.nodemanager.aux-services
	AuxServicesClass string // yarn.nodemanager.aux-services.mapreduce_shuffle.class
	EnvWhitelist     string // yarn.nodemanager.env-whitelist

	MemoryMB         int  // yarn.nodemanager.resource.memory-mb
	MaxAllocationMB  int  // yarn.scheduler.maximum-allocation-mb
	MinAllocationMB  int  // yarn.scheduler.minimum-allocation-mb
	VCores           int  // yarn.nodemanager.resource.cpu-vcores
	VMemCheckEnabled bool // yarn.nodemanager.vmem-check-enabled

	LocalDirs string // yarn.nodemanager.local-dirs (templated)
	LogDirs   string // yarn.nodemanager.log-dirs (templated)
	Extra     []Property
}

func (c *YarnSiteConfig) Clone() *YarnSiteConfig {
	return cloned(c, func(c *YarnSiteConfig) *[]Property { return &c.Extra })
}

func (c *YarnSiteConfig) ToProperties(ctx *TemplateContext) []Property {
	var l propertyList
	l.set("yarn.resourcemanager.hostname", c.ResourceManagerHostname)
	l.set("yarn.resourcemanager.webapp.address", c.ResourceManagerWebApp)
	l.set("yarn.nodemanager.webapp.address", c.NodeManagerWebApp)

	l.set("yarn.nodemanager.aux-services", c.AuxServices)
	l.set("yarn.nodemanager.aux-services.mapreduce_shuffle.class", c.AuxServicesClass)
	l.set("yarn.nodemanager.env-whitelist", c.EnvWhitelist)

	l.setInt("yarn.nodemanager.resource.memory-mb", c.MemoryMB)
	l.setInt("yarn.scheduler.maximum-allocation-mb", c.MaxAllocationMB)
	l.setInt("yarn.scheduler.minimum-allocation-mb", c.MinAllocationMB)
	l.setInt("yarn.nodemanager.resource.cpu-vcores", c.VCores)
	l.setBool("yarn.nodemanager.vmem-check-enabled", c.VMemCheckEnabled)

	l.set("yarn.nodemanager.local-dirs", ctx.Substitute(c.LocalDirs))
	l.set("yarn.nodemanager.log-dirs", ctx.Substitute(c.LogDirs))
	return appendExtraProperties(l, c.Extra, ctx)
}

// MapredSiteConfig is mapred-site.xml for MapReduce on YARN.
type MapredSiteConfig struct {
	FrameworkName        string // mapreduce.framework.name
	ApplicationClasspath string // mapreduce.application.classpath (templated)
	// MapredHome becomes HADOOP_MAPRED_HOME in the AM, map and reduce
	// environments. Templated.
	MapredHome     string
	MapMemoryMB    int // mapreduce.map.memory.mb
	ReduceMemoryMB int // mapreduce.reduce.memory.mb
	AMMemoryMB     int // yarn.app.mapreduce.am.resource.mb
	Extra          []Property
}

func (c *MapredSiteConfig) Clone() *MapredSiteConfig {
	return cloned(c, func(c *MapredSiteConfig) *[]Property { return &c.Extra })
}

func (c *MapredSiteConfig) ToProperties(ctx *TemplateContext) []Property {
	var l propertyList
	l.set("mapreduce.framework.name", c.FrameworkName)
	l.set("mapreduce.application.classpath", ctx.Substitute(c.ApplicationClasspath))
	if home := ctx.Substitute(c.MapredHome); home != "" {
		env := "HADOOP_MAPRED_HOME=" + home
		for _, name := range []string{"yarn.app.mapreduce.am.env", "mapreduce.map.env", "mapreduce.reduce.env"} {
			l.set(name, env)
		}
	}
	l.setInt("mapreduce.map.memory.mb", c.MapMemoryMB)
	l.setInt("mapreduce.reduce.memory.mb", c.ReduceMemoryMB)
	l.setInt("yarn.app.mapreduce.am.resource.mb", c.AMMemoryMB)
	return appendExtraProperties(l, c.Extra, ctx)
}

// CapacitySchedulerConfig is capacity-scheduler.xml with a single root queue
// layout.
type CapacitySchedulerConfig struct {
	RootQueues         string  // yarn.scheduler.capacity.root.queues
	DefaultCapacity    int     // yarn.scheduler.capacity.root.default.capacity
	DefaultMaxCapacity int     // yarn.scheduler.capacity.root.default.maximum-capacity
	DefaultState       string  // yarn.scheduler.capacity.root.default.state
	MaxAMResourcePct   float64 // yarn.scheduler.capacity.maximum-am-resource-percent
	Extra              []Property
}

func (c *CapacitySchedulerConfig) Clone() *CapacitySchedulerConfig {
	return cloned(c, func(c *CapacitySchedulerConfig) *[]Property { return &c.Extra })
}

func (c *CapacitySchedulerConfig) ToProperties(ctx *TemplateContext) []Property {
	const queue = "yarn.scheduler.capacity.root."
	var l propertyList
	l.set(queue+"queues", c.RootQueues)
	l.setInt(queue+"default.capacity", c.DefaultCapacity)
	l.setInt(queue+"default.maximum-capacity", c.DefaultMaxCapacity)
	l.set(queue+"default.state", c.DefaultState)
	if c.MaxAMResourcePct > 0 {
		l.set("yarn.scheduler.capacity.maximum-am-resource-percent", strconv.FormatFloat(c.MaxAMResourcePct, 'f', -1, 64))
	}
	return appendExtraProperties(l, c.Extra, ctx)
}
