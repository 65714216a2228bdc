package hdfs

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/danieljhkim/bigdata-wsl/internal/install"
	"github.com/danieljhkim/bigdata-wsl/internal/runner"
	"github.com/danieljhkim/bigdata-wsl/internal/service"
)

// JVM main classes of the HDFS daemons.
const (
	NameNodeClass = "org.apache.hadoop.hdfs.server.namenode.NameNode"
	DataNodeClass = "org.apache.hadoop.hdfs.server.datanode.DataNode"
)

// StageName is the name `bigdata start|stop` accepts for HDFS.
const StageName = "hdfs"

// Dir is an HDFS directory the stack expects after startup.
type Dir struct {
	Path string
	Mode string // chmod argument; empty leaves the default
}

// CommonDirs returns the directories created once the NameNode leaves
// safe mode.
func CommonDirs(user string) []Dir {
	return []Dir{
		{"/tmp", "1777"},
		{"/user/" + user, ""},
		{"/user/hive/warehouse", "g+w"},
		{"/spark-logs", "1777"},
	}
}

// HDFSService manages the HDFS NameNode and DataNode
type HDFSService struct {
	host  *service.Host
	procs *service.ProcessManager
}

// NewHDFSService creates a new HDFS service manager
func NewHDFSService(host *service.Host) *HDFSService {
	return &HDFSService{
		host:  host,
		procs: service.Procs(host.Config.Paths().HDFSPaths()),
	}
}

// Bin returns the absolute path of the hdfs launcher.
func (h *HDFSService) Bin() string {
	return filepath.Join(h.host.Config.Paths().HadoopHome(), "bin", "hdfs")
}

// Stage returns the NameNode and DataNode daemons, the safe mode gate and
// the directory bootstrap.
func (h *HDFSService) Stage() *service.Stage {
	svc := h.host.Config.Services
	bin := h.Bin()

	namenode := &service.Daemon{
		Name:    "namenode",
		Procs:   h.procs,
		Command: h.host.Command(bin, "namenode"),
		LogFile: "namenode.log",
		Health:  service.Port(svc.NameNode.Port),
		Ready:   h.host.Poll(svc.NameNode.Attempts),
		Pattern: service.ClassPattern(NameNodeClass),
	}
	datanode := &service.Daemon{
		Name:    "datanode",
		Procs:   h.procs,
		Command: h.host.Command(bin, "datanode"),
		LogFile: "datanode.log",
		Health:  service.Port(svc.DataNode.Port),
		Ready:   h.host.Poll(svc.DataNode.Attempts),
		Pattern: service.ClassPattern(DataNodeClass),
	}
	safemode := &service.Gate{
		Name:      "safemode",
		Check:     h.SafeModeCheck(),
		Poll:      h.host.Poll(svc.SafeMode.Attempts),
		OnTimeout: service.Force,
		Force:     h.LeaveSafeMode,
		LogFile:   namenode.LogPath(),
	}

	return &service.Stage{
		Name:    StageName,
		Daemons: []*service.Daemon{namenode, datanode},
		Gates:   []*service.Gate{safemode},
		After:   h.EnsureDirs,
	}
}

// SafeModeCheck passes once the NameNode reports safe mode OFF.
func (h *HDFSService) SafeModeCheck() service.HealthCheck {
	return service.Command(h.host.Runner, "Safe mode is OFF", h.Bin(), "dfsadmin", "-safemode", "get")
}

// LeaveSafeMode forces the NameNode out of safe mode.
func (h *HDFSService) LeaveSafeMode(ctx context.Context) error {
	_, err := runner.Check(ctx, h.host.Runner, h.Bin(), "dfsadmin", "-safemode", "leave")
	return err
}

// EnsureDirs creates CommonDirs, retrying each a bounded number of times.
// A directory that cannot be created is reported and skipped.
func (h *HDFSService) EnsureDirs(ctx context.Context) error {
	svc := h.host.Config.Services
	poll := service.Poll{Interval: svc.HDFSDirBackoff, Attempts: svc.HDFSDirAttempts}
	log := h.host.Logger()

	for _, dir := range CommonDirs(h.host.Config.User) {
		var last error
		err := service.WaitUntil(ctx, poll, func(ctx context.Context) bool {
			last = h.ensureDir(ctx, dir)
			if last != nil {
				log.Debug("hdfs directory not created yet", zap.String("path", dir.Path), zap.Error(last))
			}
			return last == nil
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			werr := install.Wrap(install.NonCritical, "hdfs mkdir "+dir.Path, last)
			h.host.Events.Warnf(StageName, werr, "could not create HDFS directory %s after %d attempts", dir.Path, poll.Attempts)
			install.BestEffort(log, "hdfs mkdir "+dir.Path, werr)
		}
	}
	return nil
}

func (h *HDFSService) ensureDir(ctx context.Context, dir Dir) error {
	if _, err := runner.Check(ctx, h.host.Runner, h.Bin(), "dfs", "-mkdir", "-p", dir.Path); err != nil {
		return err
	}
	if dir.Mode == "" {
		return nil
	}
	if _, err := runner.Check(ctx, h.host.Runner, h.Bin(), "dfs", "-chmod", dir.Mode, dir.Path); err != nil {
		return fmt.Errorf("chmod %s %s: %w", dir.Mode, dir.Path, err)
	}
	return nil
}

// UserDirExists reports whether /user/<user> exists in HDFS.
func (h *HDFSService) UserDirExists(ctx context.Context) error {
	_, err := runner.Check(ctx, h.host.Runner, h.Bin(), "dfs", "-test", "-d", "/user/"+h.host.Config.User)
	return err
}
