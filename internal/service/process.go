package service

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// DefaultSettle is how long Start watches a new process before trusting
// that it did not crash on launch.
const DefaultSettle = time.Second

// ProcessManager keeps one pid file and one log file per daemon.
type ProcessManager struct {
	PidDir string
	LogDir string
	Settle time.Duration
}

func NewProcessManager(pidDir, logDir string) *ProcessManager {
	return &ProcessManager{PidDir: pidDir, LogDir: logDir, Settle: DefaultSettle}
}

// PidFile returns the pid file of name.
func (pm *ProcessManager) PidFile(name string) string {
	return filepath.Join(pm.PidDir, name+".pid")
}

// LogPath resolves a log file name inside LogDir.
func (pm *ProcessManager) LogPath(logFile string) string {
	return filepath.Join(pm.LogDir, logFile)
}

// Start launches cmd as the leader of a new process group with stdout and
// stderr appended to logFile, then records its pid. A process that exits
// within Settle is reported as a failure and leaves no pid file.
func (pm *ProcessManager) Start(name string, cmd *exec.Cmd, logFile string) (int, error) {
	for _, dir := range []string{pm.PidDir, pm.LogDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, err
		}
	}
	logPath := pm.LogPath(logFile)
	out, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	cmd.Stdout, cmd.Stderr = out, out
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("launch %s: %w", name, err)
	}
	pid := cmd.Process.Pid

	// Reap the child so a crashed daemon does not stay a zombie.
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	if err := pm.WritePid(name, pid); err != nil {
		return 0, err
	}
	if pm.Settle <= 0 {
		return pid, nil
	}

	timer := time.NewTimer(pm.Settle)
	defer timer.Stop()
	select {
	case waitErr := <-done:
		_ = pm.RemovePid(name)
		return 0, fmt.Errorf("%s exited right after launch (%v), see %s", name, waitErr, logPath)
	case <-timer.C:
		return pid, nil
	}
}

// WritePid records pid for name, also used to adopt a daemon started by
// hand.
func (pm *ProcessManager) WritePid(name string, pid int) error {
	if err := os.MkdirAll(pm.PidDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(pm.PidFile(name), []byte(strconv.Itoa(pid)+"\n"), 0644)
}

// ReadPid returns the recorded pid, or 0 without a pid file.
func (pm *ProcessManager) ReadPid(name string) (int, error) {
	path := pm.PidFile(name)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid file %s holds %q", path, strings.TrimSpace(string(data)))
	}
	return pid, nil
}

// RemovePid deletes the pid file of name if there is one.
func (pm *ProcessManager) RemovePid(name string) error {
	err := os.Remove(pm.PidFile(name))
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Status returns the pid of a live recorded process, or 0. A pid file
// naming a dead process is removed.
func (pm *ProcessManager) Status(name string) (int, error) {
	pid, err := pm.ReadPid(name)
	if pid == 0 {
		return 0, err
	}
	if IsProcessRunning(pid) {
		return pid, nil
	}
	return 0, pm.RemovePid(name)
}

// Terminate sends SIGTERM. A process that is already gone is not an error.
func Terminate(pid int) error { return sendSignal(pid, unix.SIGTERM) }

// Kill sends SIGKILL. A process that is already gone is not an error.
func Kill(pid int) error { return sendSignal(pid, unix.SIGKILL) }

func sendSignal(pid int, sig unix.Signal) error {
	switch err := unix.Kill(pid, sig); {
	case err == nil, errors.Is(err, unix.ESRCH):
		return nil
	default:
		return fmt.Errorf("%s pid %d: %w", unix.SignalName(sig), pid, err)
	}
}

// IsProcessRunning probes pid with signal 0. EPERM means the process
// exists under another user.
func IsProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
