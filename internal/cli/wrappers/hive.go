package wrappers

import (
	"fmt"

	"github.com/danieljhkim/bigdata-wsl/internal/config"
)

func hiveWrapper() passthrough {
	return passthrough{
		use:   "hive",
		short: "Open beeline against the local HiveServer2",
		long: `Run beeline connected to the local HiveServer2. HiveServer2 takes a
minute or two to accept connections after it starts.`,
		argv: func(cfg *config.Config) []string {
			url := fmt.Sprintf("jdbc:hive2://localhost:%d", cfg.Services.HiveServer2.Port)
			return []string{"beeline", "-u", url, "-n", cfg.User}
		},
		// JLine misbehaves on some terminals
		extraEnv: map[string]string{"TERM": "dumb"},
	}
}
