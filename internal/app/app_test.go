package app

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/bigdata-wsl/internal/config"
	"github.com/danieljhkim/bigdata-wsl/internal/event"
	"github.com/danieljhkim/bigdata-wsl/internal/install"
	"github.com/danieljhkim/bigdata-wsl/internal/install/steps"
	"github.com/danieljhkim/bigdata-wsl/internal/preflight"
	"github.com/danieljhkim/bigdata-wsl/internal/runner"
)

func newTestApp(t *testing.T) (*App, *event.Recorder) {
	t.Helper()
	cfg, err := config.Load(config.LoadOptions{
		Environ: []string{"HOME=" + t.TempDir(), "USER=dev"},
	})
	require.NoError(t, err)

	f := runner.NewFake()
	f.Handler = func(runner.Call) (runner.Result, error) { return runner.Result{}, nil }
	rec := &event.Recorder{}
	a := NewWithRunner(cfg, f, nil, nil, rec.Sink())
	a.MemoryMB = 8192
	return a, rec
}

func TestStack_StartOrder(t *testing.T) {
	a, _ := newTestApp(t)
	assert.Equal(t, []string{"hdfs", "yarn", "zookeeper", "kafka", "hive"}, a.Stack().Names())
}

func TestPlan_MatchesSteps(t *testing.T) {
	a, _ := newTestApp(t)
	names := steps.Names(a.Plan())
	assert.Equal(t, steps.SystemPackages, names[0])
	assert.Equal(t, steps.Environment, names[len(names)-1])
}

func TestInstall_SelectedStepWithoutStart(t *testing.T) {
	a, rec := newTestApp(t)
	paths := a.Config.Paths()

	report, err := a.Install(context.Background(), InstallOptions{
		RunID:         "run-1",
		Steps:         []string{steps.Environment},
		SkipPreflight: true,
		NoStart:       true,
	})
	require.NoError(t, err)
	assert.Nil(t, report)

	assert.FileExists(t, paths.EnvFile())
	assert.NoFileExists(t, paths.LockFile(), "lock must be released")
	assert.FileExists(t, paths.MetricsFile())

	done, err := a.Store().List()
	require.NoError(t, err)
	assert.Equal(t, []string{steps.Environment}, done)
	assert.Equal(t, 1, rec.Count(event.StepCompleted))

	// A second run skips the completed step.
	_, err = a.Install(context.Background(), InstallOptions{
		Steps: []string{steps.Environment}, SkipPreflight: true, NoStart: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Count(event.StepSkipped))
}

func TestInstall_UnknownStep(t *testing.T) {
	a, _ := newTestApp(t)
	_, err := a.Install(context.Background(), InstallOptions{Steps: []string{"nope"}, SkipPreflight: true})
	require.Error(t, err)
	assert.True(t, install.IsKind(err, install.Precondition))
	assert.NoFileExists(t, a.Config.Paths().LockFile())
}

func TestInstall_HeldLock(t *testing.T) {
	a, _ := newTestApp(t)
	lock := a.Lock("other")
	require.NoError(t, lock.Acquire(time.Now()))
	defer lock.Release()

	_, err := a.Install(context.Background(), InstallOptions{
		Steps: []string{steps.Environment}, SkipPreflight: true, NoStart: true,
	})
	require.Error(t, err)
	assert.Equal(t, install.ExitPrecondition, install.ExitCode(err))
	assert.FileExists(t, lock.Path(), "a held lock is not removed by the losing run")
}

func TestInstall_RejectedPreflightWarnings(t *testing.T) {
	a, _ := newTestApp(t)
	probes := preflight.Probes{
		LookPath:    func(file string) (string, error) { return "/usr/bin/" + file, nil },
		ReadFile:    func(string) ([]byte, error) { return nil, os.ErrNotExist },
		Exists:      func(string) bool { return false },
		Getwd:       func() (string, error) { return a.Config.Home, nil },
		TotalMemory: func() uint64 { return 64 << 30 },
		FreeDisk:    func(string) (uint64, error) { return 500 << 30, nil },
		Interactive: func() bool { return false },
		SudoPrompt:  func(context.Context) error { return nil },
	}
	a.Validator = preflight.NewValidatorWithProbes(a.Config, a.Runner, probes, nil)

	reviewed := false
	_, err := a.Install(context.Background(), InstallOptions{
		Steps: []string{steps.Environment},
		ReviewPreflight: func(r *preflight.Report) bool {
			reviewed = true
			assert.NotEmpty(t, r.Warnings(), "not running under WSL")
			return false
		},
	})
	require.Error(t, err)
	assert.True(t, reviewed)
	assert.True(t, install.IsKind(err, install.Precondition))
	assert.NoFileExists(t, a.Config.Paths().EnvFile(), "no step runs after a rejected preflight")
	assert.NoFileExists(t, a.Config.Paths().LockFile())
}
