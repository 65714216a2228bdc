package hive

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/danieljhkim/bigdata-wsl/internal/install"
	"github.com/danieljhkim/bigdata-wsl/internal/util"
)

// InstallJDBCDriver copies the MySQL connector jar found under connectorDir
// into Hive's lib and Spark's jars directories. Directories that already
// hold a connector jar are left alone. Returns the jar that was used.
func InstallJDBCDriver(connectorDir, hiveHome, sparkHome string) (string, error) {
	jar, err := findMySQLJar(connectorDir)
	if err != nil {
		return "", install.Errorf(install.Extraction, "re-run the hive_jdbc_driver step",
			"MySQL JDBC driver not found: %v", err)
	}

	for _, dir := range []string{filepath.Join(hiveHome, "lib"), filepath.Join(sparkHome, "jars")} {
		if !util.DirExists(dir) {
			continue
		}
		if _, err := findMySQLJar(dir); err == nil {
			continue
		}
		if err := util.CopyFile(jar, filepath.Join(dir, filepath.Base(jar))); err != nil {
			return "", install.Wrap(install.Configuration, "copy JDBC driver", err)
		}
	}
	return jar, nil
}

// findMySQLJar returns the newest connector jar directly in dir or one
// level below it.
func findMySQLJar(dir string) (string, error) {
	var candidates []string
	for _, pattern := range []string{"*.jar", "*/*.jar"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return "", err
		}
		for _, m := range matches {
			if isMySQLJar(filepath.Base(m)) {
				candidates = append(candidates, m)
			}
		}
	}

	if len(candidates) == 0 {
		if _, err := os.Stat(dir); err != nil {
			return "", err
		}
		return "", fmt.Errorf("no mysql jdbc jar found in %s", dir)
	}

	sort.Strings(candidates)
	return candidates[len(candidates)-1], nil
}

func isMySQLJar(name string) bool {
	if !strings.HasSuffix(name, ".jar") {
		return false
	}
	return strings.HasPrefix(name, "mysql-connector-j-") || strings.HasPrefix(name, "mysql-connector-java-")
}
