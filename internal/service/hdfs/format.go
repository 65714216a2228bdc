package hdfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danieljhkim/bigdata-wsl/internal/config"
	"github.com/danieljhkim/bigdata-wsl/internal/install"
	"github.com/danieljhkim/bigdata-wsl/internal/service"
	"github.com/danieljhkim/bigdata-wsl/internal/util"
)

// EnsureLocalStorageDirs creates the local filesystem directories needed by HDFS
func EnsureLocalStorageDirs(paths *config.Paths) error {
	return util.MkdirAll(paths.NameNodeDir(), paths.DataNodeDir(), paths.HadoopTmpDir())
}

// EnsureNameNodeFormatted formats the NameNode metadata directories unless
// one of them already holds a VERSION file. It returns true when a format
// ran. A non-empty directory without VERSION is never formatted.
func (h *HDFSService) EnsureNameNodeFormatted(ctx context.Context) (bool, error) {
	confPath := filepath.Join(h.host.Config.Paths().HadoopConfDir(), "hdfs-site.xml")
	site, err := util.ReadSiteXML(confPath)
	if err != nil {
		return false, install.Errorf(install.Configuration, "re-run the hadoop_config step",
			"cannot read namenode directories: %v", err)
	}
	dirs, err := site.LocalPaths("dfs.namenode.name.dir")
	if err != nil {
		return false, install.Errorf(install.Configuration, "re-run the hadoop_config step",
			"cannot read namenode directories: %v", err)
	}

	for _, dir := range dirs {
		if util.FileExists(versionFile(dir)) {
			return false, nil
		}
	}

	// A running NameNode on unformatted storage means something else owns
	// these directories.
	res, err := h.host.Runner.Run(ctx, "pgrep", "-f", service.ClassPattern(NameNodeClass))
	if err != nil {
		return false, err
	}
	if res.Success() {
		return false, install.PreconditionError("bigdata stop hdfs",
			"NameNode process is running but %s is not formatted", dirs[0])
	}

	for _, dir := range dirs {
		empty, err := util.IsDirEmpty(dir)
		if err != nil && !os.IsNotExist(err) {
			return false, fmt.Errorf("failed to check if directory is empty: %w", err)
		}
		if err == nil && !empty {
			return false, install.PreconditionError("rm -rf "+dir,
				"NameNode directory exists but is not formatted: %s", dir)
		}
	}

	h.host.Events.Infof("hdfs_format", "formatting NameNode (first time)")
	res, err = h.host.Runner.Run(ctx, h.Bin(), "namenode", "-format", "-force", "-nonInteractive")
	if err != nil {
		return false, err
	}
	if !res.Success() {
		return false, install.Errorf(install.Configuration, "", "namenode -format exited with %d: %s",
			res.ExitCode, res.Output())
	}

	for _, dir := range dirs {
		if !util.FileExists(versionFile(dir)) {
			return false, install.Errorf(install.Configuration, "check HADOOP_CONF_DIR points at "+h.host.Config.Paths().HadoopConfDir(),
				"NameNode format completed but VERSION file not created: %s", versionFile(dir))
		}
	}
	return true, nil
}

func versionFile(dir string) string {
	return filepath.Join(dir, "current", "VERSION")
}
