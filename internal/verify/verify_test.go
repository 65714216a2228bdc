package verify

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/bigdata-wsl/internal/install"
	"github.com/danieljhkim/bigdata-wsl/internal/service"
)

func listen(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	return ln.Addr().(*net.TCPAddr).Port
}

func closedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

func portCheck(port int) service.PortCheck {
	return service.PortCheck{Host: "127.0.0.1", Port: port, Timeout: time.Second}
}

func TestRun_AllHealthy(t *testing.T) {
	stack := &service.Stack{Stages: []*service.Stage{{
		Name:    "hdfs",
		Daemons: []*service.Daemon{{Name: "namenode", Health: portCheck(listen(t))}},
	}}}
	v := New(Deps{
		Stack:    stack,
		HDFSUser: func(context.Context) error { return nil },
	})

	report := v.Run(context.Background())
	require.Len(t, report.Results, 2)
	assert.False(t, report.Failed())
	assert.NoError(t, report.Err())
	for _, row := range report.Rows() {
		assert.True(t, row.Ok, row.Name)
	}
}

func TestRun_FailedDaemon(t *testing.T) {
	stack := &service.Stack{Stages: []*service.Stage{{
		Name: "yarn",
		Daemons: []*service.Daemon{
			{Name: "resourcemanager", Health: portCheck(closedPort(t))},
		},
	}}}
	report := New(Deps{Stack: stack}).Run(context.Background())

	require.True(t, report.Failed())
	assert.True(t, install.IsKind(report.Err(), install.ServiceStart))
	rows := report.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "failed", rows[0].Status)
}

func TestRun_OptionalFailuresOnlyWarn(t *testing.T) {
	stack := &service.Stack{Stages: []*service.Stage{{
		Name:    "hive",
		Daemons: []*service.Daemon{{Name: "hiveserver2", Health: portCheck(closedPort(t)), Optional: true}},
	}}}
	report := New(Deps{
		Stack:    stack,
		SSHLogin: func(context.Context) error { return errors.New("permission denied") },
	}).Run(context.Background())

	assert.False(t, report.Failed())
	for _, row := range report.Rows() {
		assert.Equal(t, "warning", row.Status, row.Name)
	}
}

func TestRun_HDFSUserDirMissing(t *testing.T) {
	report := New(Deps{
		HDFSUser: func(context.Context) error { return errors.New("exit status 1") },
	}).Run(context.Background())

	require.Len(t, report.Results, 1)
	assert.Equal(t, "hdfs user dir", report.Results[0].Name)
	assert.True(t, report.Failed())
}

func TestRun_KafkaUnreachable(t *testing.T) {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(closedPort(t)))
	report := New(Deps{Brokers: []string{addr}, Timeout: 500 * time.Millisecond}).Run(context.Background())

	require.Len(t, report.Results, 1)
	assert.Error(t, report.Results[0].Err)
	assert.True(t, report.Failed())
}
