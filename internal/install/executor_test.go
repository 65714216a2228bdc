package install

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/bigdata-wsl/internal/event"
	"github.com/danieljhkim/bigdata-wsl/internal/state"
)

func newTestExecutor(t *testing.T) (*Executor, *state.Store, *event.Recorder) {
	t.Helper()
	store := state.NewStore(filepath.Join(t.TempDir(), "install.state"))
	rec := &event.Recorder{}
	return NewExecutor(store, WithEvents(rec.Sink())), store, rec
}

func countingStep(name string, calls *int, err error) Step {
	return Step{
		Name: name,
		Action: func(context.Context) error {
			*calls++
			return err
		},
	}
}

func TestRunStep_SkipsCompletedStep(t *testing.T) {
	exec, store, rec := newTestExecutor(t)
	require.NoError(t, store.Mark("hadoop_install"))

	calls := 0
	require.NoError(t, exec.RunStep(context.Background(), countingStep("hadoop_install", &calls, nil)))

	assert.Equal(t, 0, calls)
	assert.Equal(t, []event.Kind{event.StepSkipped}, rec.Kinds())
}

func TestRunStep_MarksOnlyOnSuccess(t *testing.T) {
	exec, store, rec := newTestExecutor(t)
	boom := errors.New("boom")

	calls := 0
	err := exec.RunStep(context.Background(), countingStep("spark_install", &calls, boom))
	require.ErrorIs(t, err, boom)

	done, err := store.Contains("spark_install")
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, []event.Kind{event.StepStarted, event.StepFailed}, rec.Kinds())

	// The retry runs the action again and records it.
	require.NoError(t, exec.RunStep(context.Background(), countingStep("spark_install", &calls, nil)))
	assert.Equal(t, 2, calls)
	done, err = store.Contains("spark_install")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestRun_IsIdempotentAcrossRuns(t *testing.T) {
	exec, store, _ := newTestExecutor(t)
	calls := map[string]int{}
	var steps []Step
	for _, name := range []string{"preflight", "hadoop_install", "hadoop_config"} {
		name := name
		steps = append(steps, Step{Name: name, Action: func(context.Context) error {
			calls[name]++
			return nil
		}})
	}

	require.NoError(t, exec.Run(context.Background(), steps))
	require.NoError(t, exec.Run(context.Background(), steps))

	for name, n := range calls {
		assert.Equal(t, 1, n, name)
	}
	got, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"preflight", "hadoop_install", "hadoop_config"}, got)
}

func TestRun_AbortsOnFirstFailure(t *testing.T) {
	exec, store, rec := newTestExecutor(t)
	var first, second, third int
	steps := []Step{
		countingStep("a", &first, nil),
		countingStep("b", &second, Errorf(Download, "", "mirrors exhausted")),
		countingStep("c", &third, nil),
	}

	err := exec.Run(context.Background(), steps)
	require.Error(t, err)
	assert.Equal(t, Download, KindOf(err))
	assert.Equal(t, []int{1, 1, 0}, []int{first, second, third})

	got, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
	assert.Equal(t, 1, rec.Count(event.StepFailed))
}

func TestRunStep_CancelledActionIsNotMarked(t *testing.T) {
	exec, store, _ := newTestExecutor(t)
	ctx, cancel := context.WithCancel(context.Background())

	step := Step{Name: "kafka_install", Action: func(context.Context) error {
		cancel()
		return nil
	}}
	err := exec.RunStep(ctx, step)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, ExitInterrupted, ExitCode(err))

	done, err := store.Contains("kafka_install")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestRun_StopsBeforeNextStepWhenCancelled(t *testing.T) {
	exec, _, _ := newTestExecutor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := exec.Run(ctx, []Step{countingStep("a", &calls, nil)})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestSelect(t *testing.T) {
	steps := []Step{{Name: "a"}, {Name: "b"}, {Name: "c"}}

	got, err := Select(steps, []string{"c", "a"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "c", got[1].Name)

	all, err := Select(steps, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = Select(steps, []string{"nope"})
	require.Error(t, err)
	assert.Equal(t, Precondition, KindOf(err))
}

func TestMetrics_RecordsOutcomes(t *testing.T) {
	store := state.NewStore(filepath.Join(t.TempDir(), "install.state"))
	m := NewMetrics()
	exec := NewExecutor(store, WithMetrics(m))
	require.NoError(t, store.Mark("done"))

	var calls int
	_ = exec.Run(context.Background(), []Step{
		countingStep("done", &calls, nil),
		countingStep("ok", &calls, nil),
		countingStep("bad", &calls, errors.New("x")),
	})

	path := filepath.Join(t.TempDir(), "metrics", "install.prom")
	require.NoError(t, m.WriteTextfile(path, fixedTime))
	data := readFile(t, path)
	for _, line := range []string{
		`bigdata_install_step_outcome{outcome="skipped",step="done"} 1`,
		`bigdata_install_step_outcome{outcome="completed",step="ok"} 1`,
		`bigdata_install_step_outcome{outcome="failed",step="bad"} 1`,
		`bigdata_install_step_outcome{outcome="completed",step="bad"} 0`,
	} {
		assert.True(t, strings.Contains(data, line), "missing %s in\n%s", line, data)
	}
	assert.Contains(t, data, "bigdata_install_last_run_timestamp_seconds")
}
