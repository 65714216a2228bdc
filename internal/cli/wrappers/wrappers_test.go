package wrappers

import (
	"reflect"
	"testing"

	"github.com/danieljhkim/bigdata-wsl/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(config.LoadOptions{Environ: []string{"HOME=" + t.TempDir(), "USER=dev"}})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return cfg
}

func TestCommands_Names(t *testing.T) {
	cfg := testConfig(t)
	get := func() (*config.Config, error) { return cfg, nil }

	var got []string
	for _, cmd := range Commands(get) {
		got = append(got, cmd.Name())
		if !cmd.DisableFlagParsing {
			t.Errorf("%s must pass flags through", cmd.Name())
		}
	}
	want := []string{"hdfs", "yarn", "hadoop", "spark-submit", "pyspark", "hive", "kafka-topics"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Commands() = %v, want %v", got, want)
	}
}

func TestPassthroughArgs(t *testing.T) {
	cfg := testConfig(t)

	tests := []struct {
		name  string
		p     passthrough
		extra []string
		want  []string
	}{
		{"hdfs", hadoopWrappers()[0], []string{"dfs", "-ls", "/"}, []string{"hdfs", "dfs", "-ls", "/"}},
		{"hive", hiveWrapper(), []string{"-e", "show databases"},
			[]string{"beeline", "-u", "jdbc:hive2://localhost:10000", "-n", "dev", "-e", "show databases"}},
		{"kafka-topics", kafkaTopicsWrapper(), []string{"--list"},
			[]string{"kafka-topics.sh", "--bootstrap-server", "localhost:9092", "--list"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.args(cfg, tt.extra); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("args() = %v, want %v", got, tt.want)
			}
		})
	}

	// Leading arguments are not shared between invocations.
	p := hadoopWrappers()[0]
	_ = p.args(cfg, []string{"a"})
	if got := p.args(cfg, nil); !reflect.DeepEqual(got, []string{"hdfs"}) {
		t.Errorf("args() after reuse = %v", got)
	}
}
