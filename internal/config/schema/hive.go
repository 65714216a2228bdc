package schema

// HiveConfig represents hive-site.xml of the metastore and HiveServer2.
type HiveConfig struct {
	// JDBC connection of the metastore database
	ConnectionURL        string // javax.jdo.option.ConnectionURL
	ConnectionDriverName string // javax.jdo.option.ConnectionDriverName
	ConnectionUserName   string // javax.jdo.option.ConnectionUserName (templated)
	ConnectionPassword   string // javax.jdo.option.ConnectionPassword

	MetastoreURIs string // hive.metastore.uris
	// NotificationAuth guards the notification API; off lets HiveServer2
	// and Spark reuse one metastore without impersonation.
	NotificationAuth bool // hive.metastore.event.db.notification.api.auth

	WarehouseDir string // hive.metastore.warehouse.dir (templated)
	ScratchDir   string // hive.exec.scratchdir
	LocalScratch string // hive.exec.local.scratchdir (templated)

	ExecutionEngine string // hive.execution.engine

	TransportMode  string // hive.server2.transport.mode
	BindHost       string // hive.server2.thrift.bind.host
	ThriftPort     int    // hive.server2.thrift.port
	Authentication string // hive.server2.authentication
	EnableDoAs     bool   // hive.server2.enable.doAs

	// The schema is created once by schematool, never by DataNucleus
	SchemaVerification bool // hive.metastore.schema.verification
	AutoCreateSchema   bool // datanucleus.schema.autoCreateAll

	Extra []Property
}

// HasSecret reports whether the rendered file carries a database password
// and must be written owner-only.
func (c *HiveConfig) HasSecret() bool {
	return c.ConnectionPassword != ""
}

// Clone creates a deep copy
func (c *HiveConfig) Clone() *HiveConfig {
	return cloned(c, func(c *HiveConfig) *[]Property { return &c.Extra })
}

// ToProperties converts config to a list of properties with template substitution
func (c *HiveConfig) ToProperties(ctx *TemplateContext) []Property {
	var l propertyList
	l.set("javax.jdo.option.ConnectionURL", c.ConnectionURL)
	l.set("javax.jdo.option.ConnectionDriverName", c.ConnectionDriverName)
	l.set("javax.jdo.option.ConnectionUserName", ctx.Substitute(c.ConnectionUserName))
	l.set("javax.jdo.option.ConnectionPassword", c.ConnectionPassword)

	l.set("hive.metastore.uris", c.MetastoreURIs)
	l.setBool("hive.metastore.event.db.notification.api.auth", c.NotificationAuth)

	l.set("hive.metastore.warehouse.dir", ctx.Substitute(c.WarehouseDir))
	l.set("hive.exec.scratchdir", c.ScratchDir)
	l.set("hive.exec.local.scratchdir", ctx.Substitute(c.LocalScratch))
	l.set("hive.execution.engine", c.ExecutionEngine)

	l.set("hive.server2.transport.mode", c.TransportMode)
	l.set("hive.server2.thrift.bind.host", c.BindHost)
	l.setInt("hive.server2.thrift.port", c.ThriftPort)
	l.set("hive.server2.authentication", c.Authentication)
	l.setBool("hive.server2.enable.doAs", c.EnableDoAs)

	l.setBool("hive.metastore.schema.verification", c.SchemaVerification)
	l.setBool("datanucleus.schema.autoCreateAll", c.AutoCreateSchema)

	return appendExtraProperties(l, c.Extra, ctx)
}
