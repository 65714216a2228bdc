package preflight

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/bigdata-wsl/internal/config"
	"github.com/danieljhkim/bigdata-wsl/internal/install"
	"github.com/danieljhkim/bigdata-wsl/internal/runner"
)

const gib = 1 << 30

type fixture struct {
	cfg    *config.Config
	runner *runner.Fake
	probes Probes
	files  map[string]string
	paths  map[string]bool
}

func newFixture(t *testing.T, overrides map[string]interface{}) *fixture {
	t.Helper()
	home := t.TempDir()
	cfg, err := config.Load(config.LoadOptions{
		Environ:   []string{"HOME=" + home, "USER=dev"},
		Overrides: overrides,
	})
	require.NoError(t, err)

	f := &fixture{
		cfg:    cfg,
		runner: runner.NewFake(),
		files: map[string]string{
			"/proc/version": "Linux version 5.15.146.1-microsoft-standard-WSL2",
		},
		paths: map[string]bool{"/run/WSL": true},
	}
	f.runner.On("sudo -n true", runner.Result{})
	f.probes = Probes{
		LookPath: func(file string) (string, error) { return "/usr/bin/" + file, nil },
		ReadFile: func(path string) ([]byte, error) {
			if content, ok := f.files[path]; ok {
				return []byte(content), nil
			}
			return nil, os.ErrNotExist
		},
		Exists:      func(path string) bool { return f.paths[path] },
		Getwd:       func() (string, error) { return home, nil },
		TotalMemory: func() uint64 { return 16 * gib },
		FreeDisk:    func(string) (uint64, error) { return 100 * gib, nil },
		Interactive: func() bool { return false },
	}
	return f
}

func (f *fixture) validate(t *testing.T) (*Report, error) {
	t.Helper()
	return NewValidatorWithProbes(f.cfg, f.runner, f.probes, nil).Validate(context.Background())
}

func findCheck(t *testing.T, r *Report, name string) Check {
	t.Helper()
	for _, c := range r.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no check named %q", name)
	return Check{}
}

func TestValidate_AllPass(t *testing.T) {
	f := newFixture(t, nil)
	report, err := f.validate(t)
	require.NoError(t, err)
	assert.False(t, report.Failed())
	assert.Empty(t, report.Warnings())
	assert.Equal(t, install.ExitOK, report.ExitCode())
}

func TestValidate_MissingCommand(t *testing.T) {
	f := newFixture(t, nil)
	f.probes.LookPath = func(file string) (string, error) {
		if file == "ssh-keygen" {
			return "", errors.New("not found")
		}
		return "/usr/bin/" + file, nil
	}

	report, err := f.validate(t)
	require.Error(t, err)
	assert.Equal(t, install.Precondition, install.KindOf(err))
	assert.Equal(t, "sudo apt-get install -y openssh-client", install.HintOf(err))
	assert.Equal(t, Fail, findCheck(t, report, "ssh-keygen").Status)
}

func TestValidate_DownloadToolAlternatives(t *testing.T) {
	f := newFixture(t, nil)
	f.probes.LookPath = func(file string) (string, error) {
		if file == "curl" {
			return "", errors.New("not found")
		}
		return "/usr/bin/" + file, nil
	}

	report, err := f.validate(t)
	require.NoError(t, err)
	assert.Equal(t, "wget found", findCheck(t, report, "download tool").Message)
}

func TestValidate_SlowMount(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]interface{}
		wsl       string
		wd        string
	}{
		{name: "install dir under /mnt", overrides: map[string]interface{}{"install_dir": "/mnt/c/bigdata"}},
		{name: "working dir under /mnt", wd: "/mnt/d/work"},
		{
			name:      "custom automount root",
			overrides: map[string]interface{}{"install_dir": "/windows/c/bigdata"},
			wsl:       "[automount]\nroot = /windows/\noptions = \"metadata\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.overrides)
			if tt.wsl != "" {
				f.files[f.cfg.Preflight.WSLConf] = tt.wsl
			}
			if tt.wd != "" {
				f.probes.Getwd = func() (string, error) { return tt.wd, nil }
			}

			report, err := f.validate(t)
			require.Error(t, err)
			assert.Equal(t, install.ExitPrecondition, install.ExitCode(err))
			assert.Equal(t, Fail, findCheck(t, report, "filesystem").Status)
		})
	}
}

func TestValidate_Virtualization(t *testing.T) {
	tests := []struct {
		name    string
		version string
		runWSL  bool
		want    Status
	}{
		{"wsl2", "Linux version 5.15.146.1-microsoft-standard-WSL2", true, OK},
		{"wsl1", "Linux version 4.4.0-19041-Microsoft", false, Warn},
		{"plain linux", "Linux version 6.5.0-generic", false, Warn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.files["/proc/version"] = tt.version
			f.paths["/run/WSL"] = tt.runWSL

			report, err := f.validate(t)
			require.NoError(t, err, "virtualization never fails")
			assert.Equal(t, tt.want, findCheck(t, report, "virtualization").Status)
		})
	}
}

func TestValidate_LowMemoryWarns(t *testing.T) {
	f := newFixture(t, nil)
	f.probes.TotalMemory = func() uint64 { return 4 * gib }

	report, err := f.validate(t)
	require.NoError(t, err)
	warns := report.Warnings()
	require.Len(t, warns, 1)
	assert.Equal(t, "memory", warns[0].Name)
}

func TestValidate_LowDiskFails(t *testing.T) {
	f := newFixture(t, nil)
	f.probes.FreeDisk = func(string) (uint64, error) { return 2 * gib, nil }

	report, err := f.validate(t)
	require.Error(t, err)
	assert.Equal(t, Fail, findCheck(t, report, "disk").Status)
}

func TestValidate_Privilege(t *testing.T) {
	t.Run("no terminal", func(t *testing.T) {
		f := newFixture(t, nil)
		f.runner = runner.NewFake()
		f.runner.On("sudo -n true", runner.Result{ExitCode: 1})

		report, err := f.validate(t)
		require.Error(t, err)
		assert.Equal(t, Fail, findCheck(t, report, "privilege").Status)
	})

	t.Run("interactive prompt", func(t *testing.T) {
		f := newFixture(t, nil)
		f.runner = runner.NewFake()
		f.runner.On("sudo -n true", runner.Result{ExitCode: 1})
		prompted := 0
		f.probes.Interactive = func() bool { return true }
		f.probes.SudoPrompt = func(context.Context) error { prompted++; return nil }

		report, err := f.validate(t)
		require.NoError(t, err)
		assert.Equal(t, 1, prompted)
		assert.Equal(t, OK, findCheck(t, report, "privilege").Status)
	})
}

func TestReport_Print(t *testing.T) {
	r := &Report{Checks: []Check{
		{Name: "tar", Status: OK, Message: "tar found"},
		{Name: "disk", Status: Fail, Message: "1GB free", Hint: "free disk space"},
	}}
	var buf bytes.Buffer
	r.Print(&buf)

	out := buf.String()
	assert.Contains(t, out, "tar found")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "Fix: free disk space")
}
