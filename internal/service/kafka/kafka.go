// Package kafka supervises the ZooKeeper and Kafka broker shipped with the
// Kafka distribution.
package kafka

import (
	"net"
	"path/filepath"
	"strconv"
	"time"

	"github.com/danieljhkim/bigdata-wsl/internal/service"
)

// JVM main classes.
const (
	ZooKeeperClass = "org.apache.zookeeper.server.quorum.QuorumPeerMain"
	BrokerClass    = "kafka.Kafka"
)

// Stage names accepted by `bigdata start|stop`.
const (
	ZooKeeperStage = "zookeeper"
	BrokerStage    = "kafka"
)

const probeTimeout = 5 * time.Second

// KafkaService manages ZooKeeper and the broker.
type KafkaService struct {
	host  *service.Host
	zk    *service.ProcessManager
	kafka *service.ProcessManager
}

// NewKafkaService creates a new Kafka service manager
func NewKafkaService(host *service.Host) *KafkaService {
	paths := host.Config.Paths()
	return &KafkaService{
		host:  host,
		zk:    service.Procs(paths.ZooKeeperPaths()),
		kafka: service.Procs(paths.KafkaPaths()),
	}
}

// ZooKeeperServers returns the client address list.
func (k *KafkaService) ZooKeeperServers() []string {
	return []string{net.JoinHostPort("localhost", strconv.Itoa(k.host.Config.Services.ZooKeeper.Port))}
}

// Brokers returns the bootstrap address list.
func (k *KafkaService) Brokers() []string {
	return []string{net.JoinHostPort("localhost", strconv.Itoa(k.host.Config.Services.Kafka.Port))}
}

func (k *KafkaService) script(name string) string {
	return filepath.Join(k.host.Config.Paths().KafkaHome(), "bin", name)
}

func (k *KafkaService) conf(name string) string {
	return filepath.Join(k.host.Config.Paths().KafkaConfDir(), name)
}

// ZooKeeperStage returns the ZooKeeper daemon.
func (k *KafkaService) ZooKeeperStage() *service.Stage {
	svc := k.host.Config.Services
	return &service.Stage{
		Name: ZooKeeperStage,
		Daemons: []*service.Daemon{{
			Name:    "zookeeper",
			Procs:   k.zk,
			Command: k.host.Command(k.script("zookeeper-server-start.sh"), k.conf("zookeeper.properties")),
			LogFile: "zookeeper.log",
			Health: service.ZooKeeperCheck{
				Servers: k.ZooKeeperServers(),
				Timeout: probeTimeout,
				Log:     k.host.Logger(),
			},
			Ready:   k.host.Poll(svc.ZooKeeper.Attempts),
			Pattern: service.ClassPattern(ZooKeeperClass),
		}},
	}
}

// BrokerStage returns the Kafka broker daemon.
func (k *KafkaService) BrokerStage() *service.Stage {
	svc := k.host.Config.Services
	return &service.Stage{
		Name: BrokerStage,
		Daemons: []*service.Daemon{{
			Name:    "kafka",
			Procs:   k.kafka,
			Command: k.host.Command(k.script("kafka-server-start.sh"), k.conf("server.properties")),
			LogFile: "kafka.log",
			Health: service.AllOf(
				service.Port(svc.Kafka.Port),
				service.KafkaCheck{Brokers: k.Brokers(), Timeout: probeTimeout},
			),
			Ready:   k.host.Poll(svc.Kafka.Attempts),
			Pattern: service.ClassPattern(BrokerClass) + `\s`,
		}},
	}
}
