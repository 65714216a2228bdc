package service

import (
	"os/exec"
	"regexp"

	"go.uber.org/zap"

	"github.com/danieljhkim/bigdata-wsl/internal/config"
	"github.com/danieljhkim/bigdata-wsl/internal/event"
	"github.com/danieljhkim/bigdata-wsl/internal/runner"
)

// Host bundles what the component stage builders share. Runner and the
// commands built by Command both run with Environ.
type Host struct {
	Config  *config.Config
	Runner  runner.Runner
	Environ []string
	Log     *zap.Logger
	Events  event.Sink
}

// Command returns a constructor for a fresh exec.Cmd of bin with args.
func (h *Host) Command(bin string, args ...string) func() *exec.Cmd {
	return func() *exec.Cmd {
		cmd := exec.Command(bin, args...)
		cmd.Env = h.Environ
		return cmd
	}
}

// Poll returns a poll of attempts at the configured interval.
func (h *Host) Poll(attempts int) Poll {
	return Poll{Interval: h.Config.Services.PollInterval, Attempts: attempts}
}

// Logger returns the host logger, never nil.
func (h *Host) Logger() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

// ClassPattern returns a pgrep -f pattern matching a JVM main class.
func ClassPattern(class string) string {
	return regexp.QuoteMeta(class)
}

// Procs returns a process manager for the pid and log dirs of sp.
func Procs(sp *config.ServicePaths) *ProcessManager {
	return NewProcessManager(sp.PidsDir, sp.LogsDir)
}
