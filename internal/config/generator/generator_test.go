package generator

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danieljhkim/bigdata-wsl/internal/config"
	"github.com/danieljhkim/bigdata-wsl/internal/config/schema"
	"github.com/danieljhkim/bigdata-wsl/internal/util"
)

func newTestGenerator(t *testing.T, totalMB int, env ...string) (*ConfigGenerator, *config.Config) {
	t.Helper()
	home := t.TempDir()
	environ := append([]string{
		"HOME=" + home,
		"USER=tester",
		"INSTALL_DIR=" + filepath.Join(home, "bigdata"),
		"JAVA_HOME=/usr/lib/jvm/java-11",
	}, env...)
	cfg, err := config.Load(config.LoadOptions{Environ: environ})
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	return NewConfigGenerator(cfg, totalMB), cfg
}

func findFile(t *testing.T, files []File, name string) File {
	t.Helper()
	for _, f := range files {
		if filepath.Base(f.Path) == name {
			return f
		}
	}
	t.Fatalf("%s not rendered", name)
	return File{}
}

func TestHadoop_AppliesSizing(t *testing.T) {
	tests := []struct {
		totalMB       int
		wantNode      string
		wantContainer string
	}{
		{8192, "4096", "2048"},
		{4096, "2867", "1433"},
	}

	for _, tt := range tests {
		g, _ := newTestGenerator(t, tt.totalMB)
		files, err := g.Hadoop()
		if err != nil {
			t.Fatalf("Hadoop() error = %v", err)
		}

		yarn := parseXML(t, findFile(t, files, "yarn-site.xml").Content)
		if got := yarn.Value("yarn.nodemanager.resource.memory-mb"); got != tt.wantNode {
			t.Errorf("total %d: nodemanager memory = %s, want %s", tt.totalMB, got, tt.wantNode)
		}
		if got := yarn.Value("yarn.scheduler.maximum-allocation-mb"); got != tt.wantNode {
			t.Errorf("total %d: max allocation = %s, want %s", tt.totalMB, got, tt.wantNode)
		}

		mapred := parseXML(t, findFile(t, files, "mapred-site.xml").Content)
		for _, name := range []string{"mapreduce.map.memory.mb", "mapreduce.reduce.memory.mb", "yarn.app.mapreduce.am.resource.mb"} {
			if got := mapred.Value(name); got != tt.wantContainer {
				t.Errorf("total %d: %s = %s, want %s", tt.totalMB, name, got, tt.wantContainer)
			}
		}
	}
}

func parseXML(t *testing.T, content []byte) *util.SiteXML {
	t.Helper()
	conf, err := util.DecodeSiteXML(content)
	if err != nil {
		t.Fatalf("rendered XML does not parse: %v\n%s", err, content)
	}
	return conf
}

func TestHadoop_RendersAbsolutePaths(t *testing.T) {
	g, cfg := newTestGenerator(t, 8192)
	files, err := g.Hadoop()
	if err != nil {
		t.Fatal(err)
	}

	hdfs := parseXML(t, findFile(t, files, "hdfs-site.xml").Content)
	want := "file:" + filepath.Join(cfg.StateDir, "services", "hdfs", "data", "namenode")
	if got := hdfs.Value("dfs.namenode.name.dir"); got != want {
		t.Errorf("dfs.namenode.name.dir = %s, want %s", got, want)
	}

	for _, f := range files {
		if f.Block == "" && strings.Contains(string(f.Content), "{{") {
			t.Errorf("%s contains unsubstituted placeholders", f.Path)
		}
	}
}

func TestHive_EscapesPasswordAndRestrictsMode(t *testing.T) {
	g, _ := newTestGenerator(t, 8192, "HIVE_DB_PASSWORD=p<a&ss\"word")
	files, err := g.Hive()
	if err != nil {
		t.Fatal(err)
	}

	site := findFile(t, files, "hive-site.xml")
	if site.Mode != 0600 {
		t.Errorf("hive-site.xml mode = %o, want 0600", site.Mode)
	}
	conf := parseXML(t, site.Content)
	if got := conf.Value("javax.jdo.option.ConnectionPassword"); got != "p<a&ss\"word" {
		t.Errorf("password round-trip = %q", got)
	}
	if got := conf.Value("javax.jdo.option.ConnectionURL"); !strings.Contains(got, "&useSSL=false") {
		t.Errorf("connection URL = %q", got)
	}
}

func TestHive_DerbyIsWorldReadable(t *testing.T) {
	g, _ := newTestGenerator(t, 8192, "BIGDATA_HIVE_METASTORE=derby")
	files, err := g.Hive()
	if err != nil {
		t.Fatal(err)
	}
	if mode := findFile(t, files, "hive-site.xml").Mode; mode != 0644 {
		t.Errorf("hive-site.xml mode = %o, want 0644", mode)
	}
}

func TestKafka_RendersProperties(t *testing.T) {
	g, cfg := newTestGenerator(t, 8192)
	files, err := g.Kafka()
	if err != nil {
		t.Fatal(err)
	}

	server := string(findFile(t, files, "server.properties").Content)
	for _, want := range []string{
		"broker.id = 0",
		"zookeeper.connect = localhost:2181",
		"log.dirs = " + filepath.Join(cfg.StateDir, "services", "kafka", "data"),
	} {
		if !strings.Contains(server, want) {
			t.Errorf("server.properties missing %q:\n%s", want, server)
		}
	}

	zk := string(findFile(t, files, "zookeeper.properties").Content)
	if !strings.Contains(zk, "clientPort = 2181") {
		t.Errorf("zookeeper.properties:\n%s", zk)
	}
}

func TestRenderEnvExports(t *testing.T) {
	out, err := RenderEnvExports(
		map[string]string{"JAVA_HOME": "/usr/lib/jvm/java 11", "HADOOP_HOME": "/opt/hadoop"},
		[]string{"/opt/hadoop/bin", "/opt/spark/bin"},
	)
	if err != nil {
		t.Fatal(err)
	}

	want := "export HADOOP_HOME=\"/opt/hadoop\"\n" +
		"export JAVA_HOME=\"/usr/lib/jvm/java 11\"\n" +
		"export PATH='/opt/hadoop/bin:/opt/spark/bin':\"$PATH\"\n"
	if string(out) != want {
		t.Errorf("RenderEnvExports() =\n%s\nwant\n%s", out, want)
	}
}

func TestRenderEnvExports_SourcedByBash(t *testing.T) {
	bash, err := exec.LookPath("bash")
	if err != nil {
		t.Skip("bash not available")
	}
	values := map[string]string{
		"BANG":   "pa!ss",
		"QUOTES": `say "hi" it's $HOME \ ok`,
		"PLAIN":  "/opt/hive",
	}
	out, err := RenderEnvExports(values, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "export BANG='pa!ss'\n") {
		t.Errorf("'!' value not single-quoted:\n%s", out)
	}

	file := filepath.Join(t.TempDir(), "env.sh")
	if err := os.WriteFile(file, out, 0644); err != nil {
		t.Fatal(err)
	}
	for name, want := range values {
		got, err := exec.Command(bash, "-c", `. "$1" && printf %s "${!2}"`, "bash", file, name).Output()
		if err != nil {
			t.Fatalf("sourcing %s: %v", file, err)
		}
		if string(got) != want {
			t.Errorf("%s = %q after sourcing, want %q", name, got, want)
		}
	}
}

func TestRenderEnvExports_RejectsMultilineValue(t *testing.T) {
	_, err := RenderEnvExports(map[string]string{"HIVE_OPTS": "a\nb"}, nil)
	if err == nil || !strings.Contains(err.Error(), "HIVE_OPTS") {
		t.Errorf("RenderEnvExports() error = %v, want multi-line rejection", err)
	}
}

func TestPreserveDist_IgnoresInterruptedCopy(t *testing.T) {
	confDir := filepath.Join(t.TempDir(), "conf")
	if err := os.MkdirAll(confDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(confDir, "core-site.xml"), []byte("<configuration/>"), 0644); err != nil {
		t.Fatal(err)
	}
	// Leftover of a copy that was interrupted.
	staging := DistDir(confDir) + ".tmp"
	if err := os.MkdirAll(staging, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(staging, "stale"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	if err := PreserveDist(confDir); err != nil {
		t.Fatalf("PreserveDist() error = %v", err)
	}
	if !util.FileExists(filepath.Join(DistDir(confDir), "core-site.xml")) {
		t.Error("dist copy missing core-site.xml")
	}
	if util.FileExists(filepath.Join(DistDir(confDir), "stale")) {
		t.Error("dist copy kept content of the interrupted copy")
	}
	if util.DirExists(staging) {
		t.Error("staging directory left behind")
	}
}

func TestWriteFiles_PreservesDistOnce(t *testing.T) {
	g, cfg := newTestGenerator(t, 8192)
	confDir := cfg.Paths().HadoopConfDir()
	if err := os.MkdirAll(confDir, 0755); err != nil {
		t.Fatal(err)
	}
	original := "# distribution hadoop-env.sh\nexport HADOOP_OS_TYPE=Linux\n"
	if err := os.WriteFile(filepath.Join(confDir, "hadoop-env.sh"), []byte(original), 0644); err != nil {
		t.Fatal(err)
	}

	files, err := g.Hadoop()
	if err != nil {
		t.Fatal(err)
	}
	changed, err := WriteFiles(files)
	if err != nil {
		t.Fatalf("WriteFiles() error = %v", err)
	}
	if len(changed) != len(files) {
		t.Errorf("changed %d files, want %d", len(changed), len(files))
	}

	dist, err := os.ReadFile(filepath.Join(DistDir(confDir), "hadoop-env.sh"))
	if err != nil {
		t.Fatalf("dist copy missing: %v", err)
	}
	if string(dist) != original {
		t.Errorf("dist copy = %q", dist)
	}

	env, err := os.ReadFile(filepath.Join(confDir, "hadoop-env.sh"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(env), original) {
		t.Errorf("distribution content not kept:\n%s", env)
	}
	if !strings.Contains(string(env), "export JAVA_HOME=\"/usr/lib/jvm/java-11\"") {
		t.Errorf("managed block missing:\n%s", env)
	}

	// Second write changes nothing and leaves the dist copy alone.
	if err := os.WriteFile(filepath.Join(DistDir(confDir), "marker"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	changed, err = WriteFiles(files)
	if err != nil {
		t.Fatal(err)
	}
	if len(changed) != 0 {
		t.Errorf("second write changed %v", changed)
	}
	if !util.FileExists(filepath.Join(DistDir(confDir), "marker")) {
		t.Error("dist copy was replaced")
	}
}

func TestMergeOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overrides.yaml")
	content := "core-site:\n  fs.trash.interval: 60\nhdfs-site:\n  dfs.replication: 2\nserver:\n  log.retention.hours: 24\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	overrides, err := LoadOverrides(path)
	if err != nil {
		t.Fatalf("LoadOverrides() error = %v", err)
	}

	set := &schema.ConfigSet{
		Hadoop: &schema.HadoopConfig{
			CoreSite: &schema.CoreSiteConfig{},
			HDFSSite: &schema.HDFSSiteConfig{Replication: 1},
		},
		Kafka: &schema.KafkaConfig{LogRetentionHours: 168},
	}
	merged := MergeOverrides(set, overrides)
	ctx := &schema.TemplateContext{}

	values := func(props []schema.Property) map[string]string {
		m := map[string]string{}
		for _, p := range props {
			m[p.Name] = p.Value
		}
		return m
	}

	if got := values(merged.Hadoop.CoreSite.ToProperties(ctx))["fs.trash.interval"]; got != "60" {
		t.Errorf("fs.trash.interval = %q", got)
	}
	if got := values(merged.Hadoop.HDFSSite.ToProperties(ctx))["dfs.replication"]; got != "2" {
		t.Errorf("dfs.replication = %q", got)
	}
	if got := values(merged.Kafka.ToProperties(ctx))["log.retention.hours"]; got != "24" {
		t.Errorf("log.retention.hours = %q", got)
	}
	if len(set.Hadoop.CoreSite.Extra) != 0 {
		t.Error("MergeOverrides modified its input")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		o, err := LoadOverrides(filepath.Join(t.TempDir(), "none.yaml"))
		if err != nil || len(o) != 0 {
			t.Errorf("LoadOverrides() = %v, %v", o, err)
		}
	})

	t.Run("unknown section", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "overrides.yaml")
		if err := os.WriteFile(path, []byte("nope:\n  a: b\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadOverrides(path); err == nil {
			t.Error("expected error for unknown section")
		}
	})
}

func TestDiff(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "a.conf")
	if err := os.WriteFile(existing, []byte("one\ntwo\nthree\n"), 0644); err != nil {
		t.Fatal(err)
	}

	files := []File{
		{Path: existing, Content: []byte("one\n2\nthree\n"), Mode: 0644},
		{Path: filepath.Join(dir, "new.conf"), Content: []byte("fresh\n"), Mode: 0644},
		{Path: filepath.Join(dir, "same.conf"), Content: []byte("same\n"), Mode: 0644},
	}
	if err := os.WriteFile(files[2].Path, []byte("same\n"), 0644); err != nil {
		t.Fatal(err)
	}

	diffs, err := Diff(files)
	if err != nil {
		t.Fatalf("Diff() error = %v", err)
	}
	if len(diffs) != 2 {
		t.Fatalf("Diff() returned %d diffs, want 2", len(diffs))
	}
	if !strings.Contains(diffs[0].Text, "- two\n") || !strings.Contains(diffs[0].Text, "+ 2\n") {
		t.Errorf("diff text:\n%s", diffs[0].Text)
	}
	if !diffs[1].Missing || !strings.Contains(diffs[1].Text, "+ fresh") {
		t.Errorf("new file diff = %+v", diffs[1])
	}
}
