package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/danieljhkim/bigdata-wsl/internal/event"
	"github.com/danieljhkim/bigdata-wsl/internal/install"
	"github.com/danieljhkim/bigdata-wsl/internal/runner"
)

// Policy decides what happens when a readiness wait times out.
type Policy int

const (
	// Fatal turns a timeout into a ServiceStart error.
	Fatal Policy = iota
	// Force runs the Force action once, warns and carries on.
	Force
)

func (p Policy) String() string {
	if p == Force {
		return "force"
	}
	return "fatal"
}

// Daemon is one supervised long-running process.
type Daemon struct {
	Name    string
	Procs   *ProcessManager
	Command func() *exec.Cmd
	LogFile string // relative to Procs.LogDir

	Health    HealthCheck
	Ready     Poll
	OnTimeout Policy
	Force     func(ctx context.Context) error

	// Pattern is matched against full command lines (pgrep -f) to find a
	// daemon started outside our pid file.
	Pattern string
	// Optional daemons that fail to become ready only produce a warning.
	Optional bool
}

// LogPath returns the absolute log file of d.
func (d *Daemon) LogPath() string {
	if d.Procs == nil {
		return d.LogFile
	}
	return d.Procs.LogPath(d.LogFile)
}

// Gate is a readiness condition that is not tied to a process of its own,
// such as HDFS leaving safe mode.
type Gate struct {
	Name      string
	Check     HealthCheck
	Poll      Poll
	OnTimeout Policy
	Force     func(ctx context.Context) error
	LogFile   string // pointed to when the gate fails
}

// Supervisor starts, stops and probes daemons.
type Supervisor struct {
	runner    runner.Runner
	log       *zap.Logger
	events    event.Sink
	stopGrace time.Duration
	stopPoll  time.Duration
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLogger sets the structured logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Supervisor) { s.log = log }
}

// WithEvents sets the event sink.
func WithEvents(sink event.Sink) Option {
	return func(s *Supervisor) { s.events = sink }
}

// WithStopGrace sets how long Stop waits after SIGTERM before SIGKILL.
func WithStopGrace(grace time.Duration) Option {
	return func(s *Supervisor) { s.stopGrace = grace }
}

// NewSupervisor creates a supervisor that uses r for pgrep lookups.
func NewSupervisor(r runner.Runner, opts ...Option) *Supervisor {
	s := &Supervisor{
		runner:    r,
		log:       zap.NewNop(),
		stopGrace: 15 * time.Second,
		stopPoll:  200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start brings d up. A daemon whose health check already passes is left
// alone. Otherwise it is launched, unless a process is already recorded,
// and awaited under its readiness policy.
func (s *Supervisor) Start(ctx context.Context, d *Daemon) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log := s.log.With(zap.String("daemon", d.Name))

	if d.Health.Check(ctx) == nil {
		pid := s.adopt(ctx, d)
		log.Info("already running", zap.Int("pid", pid))
		s.events.Infof(d.Name, "%s already running", d.Name)
		return nil
	}

	pid, _ := d.Procs.Status(d.Name)
	if pid == 0 {
		pids, _ := s.FindByPattern(ctx, d.Pattern)
		if len(pids) > 0 {
			pid = pids[0]
			_ = d.Procs.WritePid(d.Name, pid)
			log.Info("found unmanaged process, waiting for it", zap.Int("pid", pid))
		}
	}

	if pid == 0 {
		started, err := d.Procs.Start(d.Name, d.Command(), d.LogFile)
		if err != nil {
			return s.failed(d, install.Errorf(install.ServiceStart, "check logs: "+d.LogPath(),
				"failed to start %s: %v", d.Name, err))
		}
		pid = started
		log.Info("started", zap.Int("pid", pid), zap.String("log", d.LogPath()))
		s.events.Infof(d.Name, "%s started (pid %d)", d.Name, pid)
	}

	err := s.await(ctx, d.Name, d.Health, d.Ready, d.OnTimeout, d.Force, d.LogPath())
	if err != nil {
		return s.failed(d, err)
	}
	return nil
}

func (s *Supervisor) failed(d *Daemon, err error) error {
	if d.Optional && install.KindOf(err) == install.ServiceStart {
		s.events.Warnf(d.Name, err, "optional daemon %s is not ready", d.Name)
		install.BestEffort(s.log, "start "+d.Name, err)
		return nil
	}
	return err
}

// Await blocks until g passes, applying its timeout policy.
func (s *Supervisor) Await(ctx context.Context, g *Gate) error {
	return s.await(ctx, g.Name, g.Check, g.Poll, g.OnTimeout, g.Force, g.LogFile)
}

func (s *Supervisor) await(ctx context.Context, name string, check HealthCheck, poll Poll,
	policy Policy, force func(context.Context) error, logFile string) error {
	started := time.Now()
	var last error
	err := WaitUntil(ctx, poll, func(ctx context.Context) bool {
		last = check.Check(ctx)
		return last == nil
	})
	if err == nil {
		s.log.Debug("ready", zap.String("name", name), zap.Duration("took", time.Since(started)))
		return nil
	}
	if !errors.Is(err, ErrTimeout) {
		return err
	}

	hint := ""
	if logFile != "" {
		hint = "check logs: " + logFile
	}

	if policy == Force && force != nil {
		s.log.Warn("not ready, forcing", zap.String("name", name), zap.Error(last))
		if ferr := force(ctx); ferr != nil {
			return install.Errorf(install.ServiceStart, hint, "%s: forcing readiness failed: %v", name, ferr)
		}
		s.events.Warnf(name, last, "%s was not ready after %s; forced past it", name, poll.Budget())
		return nil
	}

	return install.Errorf(install.ServiceStart, hint, "%s did not become ready (%s) after %d attempts: %v",
		name, check, poll.Attempts, last)
}

// adopt records the pid of a healthy daemon so later stops find it.
func (s *Supervisor) adopt(ctx context.Context, d *Daemon) int {
	if pid, _ := d.Procs.Status(d.Name); pid != 0 {
		return pid
	}
	pids, _ := s.FindByPattern(ctx, d.Pattern)
	if len(pids) == 0 {
		return 0
	}
	_ = d.Procs.WritePid(d.Name, pids[0])
	return pids[0]
}

// WaitUntilReady reports whether d becomes healthy within its poll budget.
func (s *Supervisor) WaitUntilReady(ctx context.Context, d *Daemon) bool {
	return WaitUntil(ctx, d.Ready, func(ctx context.Context) bool {
		return d.Health.Check(ctx) == nil
	}) == nil
}

// Stop terminates d. The pid file is tried first, then the command line
// pattern. A daemon that is already gone counts as stopped.
func (s *Supervisor) Stop(ctx context.Context, d *Daemon) error {
	var pids []int
	pid, err := d.Procs.ReadPid(d.Name)
	if err != nil {
		s.log.Warn("ignoring unreadable pid file", zap.String("daemon", d.Name), zap.Error(err))
	}
	if pid != 0 && IsProcessRunning(pid) {
		pids = append(pids, pid)
	} else {
		found, err := s.FindByPattern(ctx, d.Pattern)
		if err != nil {
			return err
		}
		pids = found
	}

	for _, pid := range pids {
		if err := s.terminate(ctx, d.Name, pid); err != nil {
			return err
		}
	}

	if err := d.Procs.RemovePid(d.Name); err != nil {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	if len(pids) > 0 {
		s.events.Infof(d.Name, "stopped %s", d.Name)
	}
	return nil
}

func (s *Supervisor) terminate(ctx context.Context, name string, pid int) error {
	if err := Terminate(pid); err != nil {
		return err
	}
	poll := Poll{Interval: s.stopPoll, Attempts: int(s.stopGrace/s.stopPoll) + 1}
	err := WaitUntil(ctx, poll, func(context.Context) bool { return !IsProcessRunning(pid) })
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrTimeout) {
		return err
	}
	s.log.Warn("did not exit after SIGTERM, killing", zap.String("daemon", name), zap.Int("pid", pid))
	return Kill(pid)
}

// FindByPattern returns the pids whose command line matches pattern. No
// match is not an error.
func (s *Supervisor) FindByPattern(ctx context.Context, pattern string) ([]int, error) {
	if pattern == "" || s.runner == nil {
		return nil, nil
	}
	res, err := s.runner.Run(ctx, "pgrep", "-f", pattern)
	if err != nil {
		return nil, err
	}
	if !res.Success() {
		return nil, nil
	}
	var pids []int
	self := os.Getpid()
	for _, field := range strings.Fields(res.Stdout) {
		pid, err := strconv.Atoi(field)
		if err == nil && pid > 0 && pid != self {
			pids = append(pids, pid)
		}
	}
	return pids, nil
}

// Status probes d without changing anything.
func (s *Supervisor) Status(ctx context.Context, d *Daemon) ServiceStatus {
	pid, _ := d.Procs.Status(d.Name)
	if pid == 0 {
		if pids, _ := s.FindByPattern(ctx, d.Pattern); len(pids) > 0 {
			pid = pids[0]
		}
	}
	return ServiceStatus{
		Name:    d.Name,
		Running: pid != 0,
		Healthy: d.Health.Check(ctx) == nil,
		PID:     pid,
		Check:   d.Health.String(),
	}
}
