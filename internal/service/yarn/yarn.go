package yarn

import (
	"path/filepath"

	"github.com/danieljhkim/bigdata-wsl/internal/service"
)

// JVM main classes of the YARN daemons.
const (
	ResourceManagerClass = "org.apache.hadoop.yarn.server.resourcemanager.ResourceManager"
	NodeManagerClass     = "org.apache.hadoop.yarn.server.nodemanager.NodeManager"
)

// StageName is the name `bigdata start|stop` accepts for YARN.
const StageName = "yarn"

// YARNService manages the YARN ResourceManager and NodeManager services
type YARNService struct {
	host  *service.Host
	procs *service.ProcessManager
}

// NewYARNService creates a new YARN service manager
func NewYARNService(host *service.Host) *YARNService {
	return &YARNService{
		host:  host,
		procs: service.Procs(host.Config.Paths().YARNPaths()),
	}
}

// Bin returns the absolute path of the yarn launcher.
func (y *YARNService) Bin() string {
	return filepath.Join(y.host.Config.Paths().HadoopHome(), "bin", "yarn")
}

// Stage returns the ResourceManager followed by the NodeManager.
func (y *YARNService) Stage() *service.Stage {
	svc := y.host.Config.Services
	return &service.Stage{
		Name: StageName,
		Daemons: []*service.Daemon{
			{
				Name:    "resourcemanager",
				Procs:   y.procs,
				Command: y.host.Command(y.Bin(), "resourcemanager"),
				LogFile: "resourcemanager.log",
				Health:  service.Port(svc.ResourceManager.Port),
				Ready:   y.host.Poll(svc.ResourceManager.Attempts),
				Pattern: service.ClassPattern(ResourceManagerClass),
			},
			{
				Name:    "nodemanager",
				Procs:   y.procs,
				Command: y.host.Command(y.Bin(), "nodemanager"),
				LogFile: "nodemanager.log",
				Health:  service.Port(svc.NodeManager.Port),
				Ready:   y.host.Poll(svc.NodeManager.Attempts),
				Pattern: service.ClassPattern(NodeManagerClass),
			},
		},
	}
}
