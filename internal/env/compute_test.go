package env

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danieljhkim/bigdata-wsl/internal/config"
	"github.com/danieljhkim/bigdata-wsl/internal/runner"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	home := t.TempDir()
	cfg, err := config.Load(config.LoadOptions{
		Environ: []string{"HOME=" + home, "USER=dev", "JAVA_HOME=/usr/lib/jvm/java-11-openjdk-amd64"},
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return cfg
}

func exportMap(exported []string) map[string]string {
	m := make(map[string]string)
	for _, line := range exported {
		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			m[parts[0]] = parts[1]
		}
	}
	return m
}

func TestCompute(t *testing.T) {
	cfg := testConfig(t)
	env := Compute(cfg, "/usr/bin:/bin")
	paths := cfg.Paths()

	expectedVars := map[string]string{
		"HADOOP_HOME":        paths.HadoopHome(),
		"HADOOP_MAPRED_HOME": paths.HadoopHome(),
		"HADOOP_CONF_DIR":    paths.HadoopConfDir(),
		"HIVE_HOME":          paths.HiveHome(),
		"SPARK_HOME":         paths.SparkHome(),
		"KAFKA_HOME":         paths.KafkaHome(),
		"PIG_HOME":           paths.PigHome(),
		"JAVA_HOME":          "/usr/lib/jvm/java-11-openjdk-amd64",
	}

	exported := exportMap(env.Export())
	for key, expectedValue := range expectedVars {
		if actualValue, ok := exported[key]; !ok {
			t.Errorf("Environment variable %s not found in exported vars", key)
		} else if actualValue != expectedValue {
			t.Errorf("Environment variable %s = %q, want %q", key, actualValue, expectedValue)
		}
	}

	if !strings.HasPrefix(env.Path, "/usr/lib/jvm/java-11-openjdk-amd64/bin:"+paths.HadoopHome()+"/bin:") {
		t.Errorf("PATH = %q, want java then hadoop bin first", env.Path)
	}
	if !strings.HasSuffix(env.Path, ":/usr/bin:/bin") {
		t.Errorf("PATH = %q, want base path kept at the end", env.Path)
	}
}

func TestCompute_PathIsDeduplicated(t *testing.T) {
	cfg := testConfig(t)
	hadoopBin := cfg.Paths().HadoopHome() + "/bin"

	env := Compute(cfg, hadoopBin+":/usr/bin")
	if n := strings.Count(env.Path, hadoopBin+":"); n != 1 {
		t.Errorf("hadoop bin appears %d times in %q", n, env.Path)
	}
}

func TestEnvironment_Export_PathLast(t *testing.T) {
	env := &Environment{
		Path:       "/custom/bin:/usr/bin",
		HadoopHome: "/hadoop",
		JavaHome:   "/jdk",
	}

	exported := env.Export()
	if len(exported) == 0 {
		t.Fatal("Export() returned empty slice")
	}
	lastVar := exported[len(exported)-1]
	if !strings.HasPrefix(lastVar, "PATH=") {
		t.Errorf("Last exported var = %q, want PATH=...", lastVar)
	}
}

func TestEnvironment_Export_EmptyValues(t *testing.T) {
	env := &Environment{
		InstallDir: "/opt/bigdata",
		HadoopHome: "", // Empty value should not be exported
		Path:       "/usr/bin",
	}

	exported := exportMap(env.Export())
	if _, ok := exported["HADOOP_HOME"]; ok {
		t.Error("Empty HADOOP_HOME should not be exported")
	}
	if exported["BIGDATA_INSTALL_DIR"] != "/opt/bigdata" {
		t.Errorf("BIGDATA_INSTALL_DIR not exported correctly")
	}
}

func TestEnvironment_MergeWith(t *testing.T) {
	env := &Environment{HadoopHome: "/opt/hadoop", Path: "/opt/hadoop/bin:/usr/bin"}
	merged := env.MergeWith([]string{"HOME=/home/dev", "HADOOP_HOME=/old", "PATH=/usr/bin"})

	got := exportMap(merged)
	if got["HOME"] != "/home/dev" {
		t.Errorf("HOME = %q, want base value kept", got["HOME"])
	}
	if got["HADOOP_HOME"] != "/opt/hadoop" {
		t.Errorf("HADOOP_HOME = %q, want override", got["HADOOP_HOME"])
	}
	if got["PATH"] != "/opt/hadoop/bin:/usr/bin" {
		t.Errorf("PATH = %q", got["PATH"])
	}
	if len(merged) != 3 {
		t.Errorf("len(merged) = %d, want 3 (no duplicates)", len(merged))
	}
}

func TestParseJavaMajor(t *testing.T) {
	tests := []struct {
		output string
		want   int
	}{
		{`openjdk version "11.0.22" 2024-01-16`, 11},
		{`java version "1.8.0_392"`, 8},
		{`openjdk version "17.0.9" 2023-10-17`, 17},
		{`openjdk version "21" 2023-09-19`, 21},
		{`openjdk version "21-ea" 2023-09-19`, 21},
		{"command not found", 0},
	}

	for _, tt := range tests {
		if got := ParseJavaMajor(tt.output); got != tt.want {
			t.Errorf("ParseJavaMajor(%q) = %d, want %d", tt.output, got, tt.want)
		}
	}
}

func TestJavaDetector_MajorVersion(t *testing.T) {
	fake := runner.NewFake()
	fake.On("/jdk/bin/java -version", runner.Result{Stderr: `openjdk version "11.0.22" 2024-01-16`})

	d := NewJavaDetector(fake)
	if got := d.MajorVersion(context.Background(), "/jdk"); got != 11 {
		t.Errorf("MajorVersion() = %d, want 11", got)
	}
	if got := d.MajorVersion(context.Background(), "/missing"); got != 0 {
		t.Errorf("MajorVersion() for missing java = %d, want 0", got)
	}
}

func TestToolDetector(t *testing.T) {
	installed := map[string]bool{"wget": true, "tar": true}
	d := NewToolDetector(func(cmd string) (string, error) {
		if installed[cmd] {
			return "/usr/bin/" + cmd, nil
		}
		return "", errors.New("not found")
	})

	if got := d.FirstInstalled("curl", "wget"); got != "wget" {
		t.Errorf("FirstInstalled() = %q, want wget", got)
	}
	if got := d.FirstInstalled("curl"); got != "" {
		t.Errorf("FirstInstalled() = %q, want empty", got)
	}
	results := d.DetectAll([]string{"tar", "ssh-keygen"})
	if !results["tar"] || results["ssh-keygen"] {
		t.Errorf("DetectAll() = %v", results)
	}
}

func TestLookPath(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "hdfs")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		file    string
		want    string
		wantErr bool
	}{
		{"hdfs", bin, false},
		{"notes", "", true},
		{"missing", "", true},
		{"./local", "./local", false},
	}
	for _, tt := range tests {
		got, err := LookPath(tt.file, "/nonexistent:"+dir)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("LookPath(%q) = %q, %v; want %q, err=%v", tt.file, got, err, tt.want, tt.wantErr)
		}
	}
}
