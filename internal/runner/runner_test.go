package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExec_Run_CapturesOutput(t *testing.T) {
	r := NewExec(nil, nil)

	res, err := r.Run(context.Background(), "sh", "-c", "echo out; echo err >&2")
	require.NoError(t, err)
	assert.True(t, res.Success())
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
}

func TestExec_Run_NonZeroExitIsNotAnError(t *testing.T) {
	r := NewExec(nil, nil)

	res, err := r.Run(context.Background(), "sh", "-c", "exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.False(t, res.Success())
}

func TestExec_Run_MissingBinary(t *testing.T) {
	r := NewExec(nil, nil)

	_, err := r.Run(context.Background(), "definitely-not-a-real-binary-xyz")
	assert.Error(t, err)
}

func TestExec_Run_Cancelled(t *testing.T) {
	r := NewExec(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, "sleep", "5")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheck_WrapsExitError(t *testing.T) {
	f := NewFake().On("sudo -n true", Result{ExitCode: 1, Stderr: "a password is required"})

	_, err := Check(context.Background(), f, "sudo", "-n", "true")
	require.Error(t, err)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.Result.ExitCode)
	assert.Contains(t, err.Error(), "a password is required")
}

func TestFake_ConsumesResultsInOrder(t *testing.T) {
	f := NewFake().On("hdfs dfsadmin -safemode get",
		Result{Stdout: "Safe mode is ON"},
		Result{Stdout: "Safe mode is OFF"},
	)
	ctx := context.Background()

	first, _ := f.Run(ctx, "hdfs", "dfsadmin", "-safemode", "get")
	second, _ := f.Run(ctx, "hdfs", "dfsadmin", "-safemode", "get")
	third, _ := f.Run(ctx, "hdfs", "dfsadmin", "-safemode", "get")

	assert.Equal(t, "Safe mode is ON", first.Stdout)
	assert.Equal(t, "Safe mode is OFF", second.Stdout)
	assert.Equal(t, "Safe mode is OFF", third.Stdout)
	assert.Equal(t, 3, f.Count("hdfs dfsadmin -safemode get"))
}

func TestFake_UnknownCommand(t *testing.T) {
	_, err := NewFake().Run(context.Background(), "unknown", "command")
	assert.Error(t, err)
}
