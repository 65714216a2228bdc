// Package profiles holds the built-in configuration of the pseudo-distributed
// single-node stack.
package profiles

import (
	"fmt"
	"runtime"

	"github.com/danieljhkim/bigdata-wsl/internal/config"
	"github.com/danieljhkim/bigdata-wsl/internal/config/schema"
	"github.com/danieljhkim/bigdata-wsl/internal/metastore"
)

// HDFS directories created once the namenode leaves safe mode.
const (
	SparkLogDir  = "/spark-logs"
	WarehouseDir = "/user/hive/warehouse"
	HiveScratch  = "/tmp/hive"
)

// SingleNode returns the configuration of every component for a single
// host running all daemons. Values are templated and substituted against
// NewTemplateContext at render time. Memory sizing is applied separately.
func SingleNode(cfg *config.Config) (*schema.ConfigSet, error) {
	ms, err := metastore.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	svc := cfg.Services
	defaultFS := fmt.Sprintf("hdfs://localhost:%d", svc.NameNode.Port)

	return &schema.ConfigSet{
		Hadoop: &schema.HadoopConfig{
			CoreSite: &schema.CoreSiteConfig{
				DefaultFS: defaultFS,
				TmpDir:    "{{STATE_DIR}}/services/hadoop/tmp",
				ProxyUser: "{{USER}}",
			},
			HDFSSite: &schema.HDFSSiteConfig{
				Replication:         1,
				NameNodeNameDir:     "file:{{STATE_DIR}}/services/hdfs/data/namenode",
				DataNodeDataDir:     "file:{{STATE_DIR}}/services/hdfs/data/datanode",
				NameNodeHTTPAddress: fmt.Sprintf("0.0.0.0:%d", svc.NameNodeHTTP.Port),
				DataNodeAddress:     fmt.Sprintf("0.0.0.0:%d", svc.DataNode.Port),
				PermissionsEnabled:  false,
			},
			YarnSite: &schema.YarnSiteConfig{
				AuxServices:             "mapreduce_shuffle",
				AuxServicesClass:        "org.apache.hadoop.mapred.ShuffleHandler",
				ResourceManagerHostname: "localhost",
				ResourceManagerWebApp:   fmt.Sprintf("0.0.0.0:%d", svc.ResourceManager.Port),
				NodeManagerWebApp:       fmt.Sprintf("0.0.0.0:%d", svc.NodeManager.Port),
				EnvWhitelist:            "JAVA_HOME,HADOOP_COMMON_HOME,HADOOP_HDFS_HOME,HADOOP_CONF_DIR,CLASSPATH_PREPEND_DISTCACHE,HADOOP_YARN_HOME,HADOOP_HOME,PATH,LANG,TZ,HADOOP_MAPRED_HOME",
				MinAllocationMB:         512,
				VCores:                  vcores(),
				VMemCheckEnabled:        false,
				LocalDirs:               "{{STATE_DIR}}/services/yarn/data/local",
				LogDirs:                 "{{STATE_DIR}}/services/yarn/logs/containers",
			},
			MapredSite: &schema.MapredSiteConfig{
				FrameworkName:        "yarn",
				ApplicationClasspath: "{{HADOOP_HOME}}/share/hadoop/mapreduce/*,{{HADOOP_HOME}}/share/hadoop/mapreduce/lib/*",
				MapredHome:           "{{HADOOP_HOME}}",
			},
			CapacityScheduler: &schema.CapacitySchedulerConfig{
				RootQueues:         "default",
				DefaultCapacity:    100,
				DefaultMaxCapacity: 100,
				DefaultState:       "RUNNING",
				MaxAMResourcePct:   0.5,
			},
		},
		Hive: &schema.HiveConfig{
			ConnectionURL:        ms.URL(),
			ConnectionDriverName: ms.DriverClass(),
			ConnectionUserName:   ms.ConnectionUser(),
			ConnectionPassword:   ms.ConnectionPassword(),
			MetastoreURIs:        fmt.Sprintf("thrift://localhost:%d", svc.Metastore.Port),
			WarehouseDir:         WarehouseDir,
			ScratchDir:           HiveScratch,
			LocalScratch:         "{{STATE_DIR}}/services/hive/data/scratch",
			ExecutionEngine:      "mr",
			TransportMode:        "binary",
			BindHost:             "localhost",
			ThriftPort:           svc.HiveServer2.Port,
			Authentication:       "NONE",
		},
		Spark: &schema.SparkConfig{
			Master:                "yarn",
			DeployMode:            "client",
			DriverMemory:          "1g",
			ExecutorMemory:        "1g",
			ExecutorCores:         1,
			ExecutorInstances:     1,
			HadoopDefaultFS:       defaultFS,
			CatalogImplementation: "hive",
			WarehouseDir:          WarehouseDir,
			EventLogDir:           defaultFS + SparkLogDir,
			ShufflePartitions:     8,
			AdaptiveEnabled:       true,
			Serializer:            "org.apache.spark.serializer.KryoSerializer",
		},
		Kafka: &schema.KafkaConfig{
			BrokerID:            0,
			Listeners:           fmt.Sprintf("PLAINTEXT://localhost:%d", svc.Kafka.Port),
			AdvertisedListeners: fmt.Sprintf("PLAINTEXT://localhost:%d", svc.Kafka.Port),
			LogDirs:             "{{STATE_DIR}}/services/kafka/data",
			ZooKeeperConnect:    fmt.Sprintf("localhost:%d", svc.ZooKeeper.Port),
			NumPartitions:       1,
			ReplicationFactor:   1,
			AutoCreateTopics:    true,
			LogRetentionHours:   168,
		},
		ZooKeeper: &schema.ZooKeeperConfig{
			DataDir:        "{{STATE_DIR}}/services/zookeeper/data",
			ClientPort:     svc.ZooKeeper.Port,
			MaxClientCnxns: 0,
			AdminEnabled:   false,
		},
		Env: &schema.EnvConfig{
			Hadoop: []schema.Property{
				{Name: "JAVA_HOME", Value: "{{JAVA_HOME}}"},
				{Name: "HADOOP_HOME", Value: "{{HADOOP_HOME}}"},
				{Name: "HADOOP_CONF_DIR", Value: "{{HADOOP_HOME}}/etc/hadoop"},
				{Name: "HADOOP_LOG_DIR", Value: "{{STATE_DIR}}/services/hdfs/logs"},
				{Name: "HADOOP_PID_DIR", Value: "{{STATE_DIR}}/services/hdfs/pids"},
				{Name: "YARN_LOG_DIR", Value: "{{STATE_DIR}}/services/yarn/logs"},
				{Name: "YARN_PID_DIR", Value: "{{STATE_DIR}}/services/yarn/pids"},
			},
			Spark: []schema.Property{
				{Name: "JAVA_HOME", Value: "{{JAVA_HOME}}"},
				{Name: "HADOOP_CONF_DIR", Value: "{{HADOOP_HOME}}/etc/hadoop"},
				{Name: "YARN_CONF_DIR", Value: "{{HADOOP_HOME}}/etc/hadoop"},
			},
			Hive: []schema.Property{
				{Name: "HADOOP_HOME", Value: "{{HADOOP_HOME}}"},
				{Name: "HIVE_CONF_DIR", Value: "{{INSTALL_DIR}}/hive/conf"},
			},
			User: []schema.Property{
				{Name: "JAVA_HOME", Value: "{{JAVA_HOME}}"},
				{Name: "HADOOP_HOME", Value: "{{HADOOP_HOME}}"},
				{Name: "HADOOP_CONF_DIR", Value: "{{HADOOP_HOME}}/etc/hadoop"},
				{Name: "SPARK_HOME", Value: "{{INSTALL_DIR}}/spark"},
				{Name: "KAFKA_HOME", Value: "{{INSTALL_DIR}}/kafka"},
				{Name: "PIG_HOME", Value: "{{INSTALL_DIR}}/pig"},
				{Name: "HIVE_HOME", Value: "{{INSTALL_DIR}}/hive"},
				{Name: "HIVE_CONF_DIR", Value: "{{INSTALL_DIR}}/hive/conf"},
			},
			PathDirs: []string{
				"{{HADOOP_HOME}}/bin",
				"{{HADOOP_HOME}}/sbin",
				"{{INSTALL_DIR}}/spark/bin",
				"{{INSTALL_DIR}}/kafka/bin",
				"{{INSTALL_DIR}}/pig/bin",
				"{{INSTALL_DIR}}/hive/bin",
			},
		},
	}, nil
}

// NewTemplateContext returns the substitution values for cfg.
func NewTemplateContext(cfg *config.Config) *schema.TemplateContext {
	paths := cfg.Paths()
	return &schema.TemplateContext{
		User:       cfg.User,
		Home:       cfg.Home,
		InstallDir: cfg.InstallDir,
		StateDir:   cfg.StateDir,
		HadoopHome: paths.HadoopHome(),
		JavaHome:   cfg.JavaHome,
	}
}

func vcores() int {
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}
