package hive

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/danieljhkim/bigdata-wsl/internal/install"
	"github.com/danieljhkim/bigdata-wsl/internal/metastore"
	"github.com/danieljhkim/bigdata-wsl/internal/runner"
	"github.com/danieljhkim/bigdata-wsl/internal/util"
)

// DetectMetastore reads the backing database type and JDBC URL from the
// rendered hive-site.xml, so user overrides win over the built-in profile.
func (h *HiveService) DetectMetastore() (metastore.DBType, string, error) {
	hiveSite := filepath.Join(h.paths.HiveConfDir(), "hive-site.xml")
	conf, err := util.ReadSiteXML(hiveSite)
	if err != nil {
		return "", "", install.Errorf(install.Configuration, "re-run the hive_config step",
			"failed to parse hive metastore config %s: %v", hiveSite, err)
	}

	dbURL := strings.TrimSpace(conf.Value("javax.jdo.option.ConnectionURL"))
	driver := strings.ToLower(conf.Value("javax.jdo.option.ConnectionDriverName"))
	dbType := metastore.InferDBTypeFromURL(dbURL)
	if dbType == "" {
		if strings.Contains(driver, "mysql") {
			dbType = metastore.MySQL
		} else {
			dbType = metastore.Derby
		}
	}
	return dbType, dbURL, nil
}

// EnsureDatabase prepares the metastore database. For MySQL the local
// server is started and the database and user are created through the
// root socket login; every statement is idempotent. Derby only needs its
// parent directory.
func (h *HiveService) EnsureDatabase(ctx context.Context) error {
	settings, err := metastore.FromConfig(h.host.Config)
	if err != nil {
		return install.Wrap(install.Configuration, "metastore settings", err)
	}

	if settings.Type == metastore.Derby {
		return os.MkdirAll(filepath.Dir(settings.DerbyDir), 0755)
	}

	sql, err := settings.BootstrapSQL()
	if err != nil {
		return install.Wrap(install.Configuration, "metastore bootstrap", err)
	}

	r := h.host.Runner
	if _, err := runner.Check(ctx, r, "sudo", "service", "mysql", "start"); err != nil {
		return install.WithHint(install.Wrap(install.ServiceStart, "start mysql", err),
			"sudo apt-get install -y mysql-server")
	}
	if _, err := runner.Check(ctx, r, "sudo", "mysql", "--batch", "-e", sql); err != nil {
		return install.Wrap(install.Configuration, "create metastore database", err)
	}

	h.host.Logger().Info("metastore database ready",
		zap.String("database", settings.Name),
		zap.String("user", settings.User),
	)
	return nil
}
