package wrappers

import (
	"fmt"

	"github.com/danieljhkim/bigdata-wsl/internal/config"
)

func kafkaTopicsWrapper() passthrough {
	return passthrough{
		use:   "kafka-topics",
		short: "Run kafka-topics.sh against the local broker",
		long: `Run kafka-topics.sh with --bootstrap-server set to the local broker.

Examples:
  bigdata kafka-topics --list
  bigdata kafka-topics --create --topic events --partitions 1 --replication-factor 1`,
		argv: func(cfg *config.Config) []string {
			return []string{"kafka-topics.sh", "--bootstrap-server", fmt.Sprintf("localhost:%d", cfg.Services.Kafka.Port)}
		},
	}
}
