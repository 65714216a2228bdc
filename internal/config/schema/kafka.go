package schema

import "strconv"

// KafkaConfig represents the broker's server.properties
type KafkaConfig struct {
	BrokerID            int    // broker.id
	Listeners           string // listeners
	AdvertisedListeners string // advertised.listeners
	LogDirs             string // log.dirs (templated)
	ZooKeeperConnect    string // zookeeper.connect
	NumPartitions       int    // num.partitions
	ReplicationFactor   int    // offsets/transaction state replication factors
	AutoCreateTopics    bool   // auto.create.topics.enable
	LogRetentionHours   int    // log.retention.hours
	Extra               []Property
}

// Clone creates a deep copy
func (c *KafkaConfig) Clone() *KafkaConfig {
	return cloned(c, func(c *KafkaConfig) *[]Property { return &c.Extra })
}

// ToProperties converts config to a list of properties with template substitution
func (c *KafkaConfig) ToProperties(ctx *TemplateContext) []Property {
	replication := strconv.Itoa(c.ReplicationFactor)
	props := []Property{
		{Name: "broker.id", Value: strconv.Itoa(c.BrokerID)},
		{Name: "listeners", Value: c.Listeners},
		{Name: "advertised.listeners", Value: c.AdvertisedListeners},
		{Name: "log.dirs", Value: ctx.Substitute(c.LogDirs)},
		{Name: "zookeeper.connect", Value: c.ZooKeeperConnect},
		{Name: "num.partitions", Value: strconv.Itoa(c.NumPartitions)},
		{Name: "offsets.topic.replication.factor", Value: replication},
		{Name: "transaction.state.log.replication.factor", Value: replication},
		{Name: "transaction.state.log.min.isr", Value: replication},
		{Name: "auto.create.topics.enable", Value: boolToString(c.AutoCreateTopics)},
		{Name: "log.retention.hours", Value: strconv.Itoa(c.LogRetentionHours)},
	}
	return appendExtraProperties(props, c.Extra, ctx)
}

// ZooKeeperConfig represents the bundled zookeeper.properties
type ZooKeeperConfig struct {
	DataDir        string // dataDir (templated)
	ClientPort     int    // clientPort
	MaxClientCnxns int    // maxClientCnxns
	AdminEnabled   bool   // admin.enableServer
	Extra          []Property
}

// Clone creates a deep copy
func (c *ZooKeeperConfig) Clone() *ZooKeeperConfig {
	return cloned(c, func(c *ZooKeeperConfig) *[]Property { return &c.Extra })
}

// ToProperties converts config to a list of properties with template substitution
func (c *ZooKeeperConfig) ToProperties(ctx *TemplateContext) []Property {
	props := []Property{
		{Name: "dataDir", Value: ctx.Substitute(c.DataDir)},
		{Name: "clientPort", Value: strconv.Itoa(c.ClientPort)},
		{Name: "maxClientCnxns", Value: strconv.Itoa(c.MaxClientCnxns)},
		{Name: "admin.enableServer", Value: boolToString(c.AdminEnabled)},
	}
	return appendExtraProperties(props, c.Extra, ctx)
}
