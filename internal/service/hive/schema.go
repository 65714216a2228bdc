package hive

import (
	"context"
	"strings"

	"github.com/danieljhkim/bigdata-wsl/internal/install"
	"github.com/danieljhkim/bigdata-wsl/internal/metastore"
)

// SchemaStatus represents the result of checking metastore schema
type SchemaStatus int

const (
	SchemaUnknown SchemaStatus = iota
	SchemaNotInitialized
	SchemaInitialized
)

func (s SchemaStatus) String() string {
	switch s {
	case SchemaNotInitialized:
		return "not initialized"
	case SchemaInitialized:
		return "initialized"
	default:
		return "unknown"
	}
}

var notInitializedMarkers = []string{
	"does not exist",
	"doesn't exist",
	"Table",
	"not exist",
	"Schema initialization",
	"Failed to get schema version",
}

var connectionMarkers = []string{
	"Connection refused",
	"Communications link failure",
	"Access denied",
}

// CheckSchema runs schematool -info and classifies the result.
func (h *HiveService) CheckSchema(ctx context.Context, dbType metastore.DBType) (SchemaStatus, error) {
	res, err := h.host.Runner.Run(ctx, h.SchemaTool(), "-dbType", string(dbType), "-info")
	if err != nil {
		return SchemaUnknown, err
	}
	if res.Success() {
		return SchemaInitialized, nil
	}

	output := res.Output()
	// Connection problems can mention missing tables too, so check them first.
	for _, m := range connectionMarkers {
		if strings.Contains(output, m) {
			return SchemaUnknown, install.Errorf(install.Configuration, "re-run the hive_metastore_db step",
				"metastore database connection error: %s", lastLine(output))
		}
	}
	for _, m := range notInitializedMarkers {
		if strings.Contains(output, m) {
			return SchemaNotInitialized, nil
		}
	}
	return SchemaUnknown, install.Errorf(install.Configuration, "", "schematool -info exited with %d: %s",
		res.ExitCode, lastLine(output))
}

// EnsureSchema initializes the metastore schema unless it already exists.
// It returns true when -initSchema ran.
func (h *HiveService) EnsureSchema(ctx context.Context) (bool, error) {
	dbType, _, err := h.DetectMetastore()
	if err != nil {
		return false, err
	}

	status, err := h.CheckSchema(ctx, dbType)
	if err != nil {
		return false, err
	}
	if status == SchemaInitialized {
		h.host.Events.Infof("hive_schema", "metastore schema already initialized")
		return false, nil
	}

	h.host.Events.Infof("hive_schema", "initializing %s metastore schema", dbType)
	res, err := h.host.Runner.Run(ctx, h.SchemaTool(), "-dbType", string(dbType), "-initSchema")
	if err != nil {
		return false, err
	}
	if !res.Success() {
		return false, install.Errorf(install.Configuration, "check "+h.paths.HiveConfDir()+"/hive-site.xml",
			"failed to initialize metastore schema: %s", lastLine(res.Output()))
	}
	return true, nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "\n"); i >= 0 {
		return s[i+1:]
	}
	return s
}
