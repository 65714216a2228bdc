package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// Component describes one downloadable archive and where it lands.
type Component struct {
	Name    string // catalog key, also the checksum key
	Version string
	Archive string // file name under the downloads dir
	// MirrorPath is relative to every Apache mirror base. Empty when the
	// component is not hosted on Apache mirrors.
	MirrorPath string
	// URLs are absolute download locations used instead of mirrors.
	URLs    []string
	DirName string // extracted directory under the install dir
	Link    string // stable symlink under the install dir; empty for none
}

// Component names.
const (
	Hadoop         = "hadoop"
	Spark          = "spark"
	Kafka          = "kafka"
	Pig            = "pig"
	Hive           = "hive"
	MySQLConnector = "mysql-connector"
	Eclipse        = "eclipse"
)

// Components returns the catalog in install order. Eclipse is included
// only when enabled.
func (c *Config) Components() []Component {
	v := c.Versions
	sparkDir := fmt.Sprintf("spark-%s-bin-%s", v.Spark, c.SparkMajorHadoop())
	kafkaDir := fmt.Sprintf("kafka_%s-%s", v.Scala, v.Kafka)
	hiveDir := fmt.Sprintf("apache-hive-%s-bin", v.Hive)
	connectorDir := "mysql-connector-j-" + v.MySQLConnector

	components := []Component{
		{
			Name:       Hadoop,
			Version:    v.Hadoop,
			Archive:    "hadoop-" + v.Hadoop + ".tar.gz",
			MirrorPath: fmt.Sprintf("hadoop/common/hadoop-%s/hadoop-%s.tar.gz", v.Hadoop, v.Hadoop),
			DirName:    "hadoop-" + v.Hadoop,
			Link:       "hadoop",
		},
		{
			Name:       Spark,
			Version:    v.Spark,
			Archive:    sparkDir + ".tgz",
			MirrorPath: fmt.Sprintf("spark/spark-%s/%s.tgz", v.Spark, sparkDir),
			DirName:    sparkDir,
			Link:       "spark",
		},
		{
			Name:       Kafka,
			Version:    v.Kafka,
			Archive:    kafkaDir + ".tgz",
			MirrorPath: fmt.Sprintf("kafka/%s/%s.tgz", v.Kafka, kafkaDir),
			DirName:    kafkaDir,
			Link:       "kafka",
		},
		{
			Name:       Pig,
			Version:    v.Pig,
			Archive:    "pig-" + v.Pig + ".tar.gz",
			MirrorPath: fmt.Sprintf("pig/pig-%s/pig-%s.tar.gz", v.Pig, v.Pig),
			DirName:    "pig-" + v.Pig,
			Link:       "pig",
		},
		{
			Name:       Hive,
			Version:    v.Hive,
			Archive:    hiveDir + ".tar.gz",
			MirrorPath: fmt.Sprintf("hive/hive-%s/%s.tar.gz", v.Hive, hiveDir),
			DirName:    hiveDir,
			Link:       "hive",
		},
		{
			Name:    MySQLConnector,
			Version: v.MySQLConnector,
			Archive: connectorDir + ".tar.gz",
			URLs: []string{
				"https://dev.mysql.com/get/Downloads/Connector-J/" + connectorDir + ".tar.gz",
				"https://downloads.mysql.com/archives/get/p/3/file/" + connectorDir + ".tar.gz",
			},
			DirName: connectorDir,
		},
	}

	if c.Eclipse.Enabled {
		components = append(components, c.eclipseComponent())
	}
	return components
}

func (c *Config) eclipseComponent() Component {
	arch := "x86_64"
	if runtime.GOARCH == "arm64" {
		arch = "aarch64"
	}
	release := c.Eclipse.Release
	file := fmt.Sprintf("eclipse-java-%s-R-linux-gtk-%s.tar.gz", release, arch)
	path := fmt.Sprintf("technology/epp/downloads/release/%s/R/%s", release, file)
	return Component{
		Name:    Eclipse,
		Version: release,
		Archive: file,
		URLs: []string{
			"https://www.eclipse.org/downloads/download.php?file=/" + path + "&r=1",
			"https://archive.eclipse.org/" + path,
		},
		DirName: "eclipse-" + release,
		Link:    "eclipse",
	}
}

// Component looks up a catalog entry by name.
func (c *Config) Component(name string) (Component, error) {
	for _, comp := range c.Components() {
		if comp.Name == name {
			return comp, nil
		}
	}
	if name == Eclipse {
		return c.eclipseComponent(), nil
	}
	return Component{}, fmt.Errorf("unknown component: %s", name)
}

// DownloadURLs returns the candidate URLs in the order they are tried.
func (comp Component) DownloadURLs(mirrors []string) []string {
	if comp.MirrorPath == "" {
		return append([]string(nil), comp.URLs...)
	}
	urls := make([]string, 0, len(mirrors)+len(comp.URLs))
	for _, m := range mirrors {
		urls = append(urls, strings.TrimRight(m, "/")+"/"+comp.MirrorPath)
	}
	return append(urls, comp.URLs...)
}

// ArchivePath returns the cached archive location.
func (p *Paths) ArchivePath(comp Component) string {
	return filepath.Join(p.DownloadsDir(), comp.Archive)
}

// ExtractedDir returns the versioned directory under the install dir.
func (p *Paths) ExtractedDir(comp Component) string {
	return filepath.Join(p.InstallDir, comp.DirName)
}
