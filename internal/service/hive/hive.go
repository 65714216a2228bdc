package hive

import (
	"path/filepath"

	"github.com/danieljhkim/bigdata-wsl/internal/config"
	"github.com/danieljhkim/bigdata-wsl/internal/service"
)

// JVM main classes of the Hive daemons.
const (
	MetastoreClass   = "org.apache.hadoop.hive.metastore.HiveMetaStore"
	HiveServer2Class = "org.apache.hive.service.server.HiveServer2"
)

// StageName is the name `bigdata start|stop` accepts for Hive.
const StageName = "hive"

// HiveService manages the Hive Metastore and HiveServer2 services
type HiveService struct {
	host  *service.Host
	paths *config.Paths
	procs *service.ProcessManager
}

// NewHiveService creates a new Hive service manager
func NewHiveService(host *service.Host) *HiveService {
	paths := host.Config.Paths()
	return &HiveService{
		host:  host,
		paths: paths,
		procs: service.Procs(paths.HivePaths()),
	}
}

// Bin returns the absolute path of the hive launcher.
func (h *HiveService) Bin() string {
	return filepath.Join(h.paths.HiveHome(), "bin", "hive")
}

// SchemaTool returns the absolute path of schematool.
func (h *HiveService) SchemaTool() string {
	return filepath.Join(h.paths.HiveHome(), "bin", "schematool")
}

// Stage returns the metastore and, when enabled, HiveServer2. HiveServer2
// is optional: it is slow to start and nothing else depends on it.
func (h *HiveService) Stage() *service.Stage {
	svc := h.host.Config.Services
	daemons := []*service.Daemon{{
		Name:    "metastore",
		Procs:   h.procs,
		Command: h.host.Command(h.Bin(), "--service", "metastore"),
		LogFile: "metastore.log",
		Health:  service.Port(svc.Metastore.Port),
		Ready:   h.host.Poll(svc.Metastore.Attempts),
		Pattern: service.ClassPattern(MetastoreClass),
	}}

	if svc.HiveServer2Enabled {
		daemons = append(daemons, &service.Daemon{
			Name:     "hiveserver2",
			Procs:    h.procs,
			Command:  h.host.Command(h.Bin(), "--service", "hiveserver2"),
			LogFile:  "hiveserver2.log",
			Health:   service.Port(svc.HiveServer2.Port),
			Ready:    h.host.Poll(svc.HiveServer2.Attempts),
			Pattern:  service.ClassPattern(HiveServer2Class),
			Optional: true,
		})
	}

	return &service.Stage{Name: StageName, Daemons: daemons}
}
