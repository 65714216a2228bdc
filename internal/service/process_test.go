package service

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func newTestProcessManager(t *testing.T) *ProcessManager {
	t.Helper()
	dir := t.TempDir()
	pm := NewProcessManager(filepath.Join(dir, "pids"), filepath.Join(dir, "logs"))
	pm.Settle = 200 * time.Millisecond
	return pm
}

// exitedPid returns the pid of a process that has already been reaped.
func exitedPid(t *testing.T) int {
	t.Helper()
	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Fatal(err)
	}
	return cmd.Process.Pid
}

func TestProcessManager_StartRecordsPid(t *testing.T) {
	pm := newTestProcessManager(t)

	pid, err := pm.Start("sleeper", exec.Command("sleep", "10"), "sleeper.log")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { Kill(pid) })

	recorded, err := pm.ReadPid("sleeper")
	if err != nil || recorded != pid {
		t.Errorf("ReadPid() = %d, %v; want %d", recorded, err, pid)
	}
	if got, _ := pm.Status("sleeper"); got != pid {
		t.Errorf("Status() = %d, want %d", got, pid)
	}
	if _, err := os.Stat(pm.LogPath("sleeper.log")); err != nil {
		t.Errorf("log file missing: %v", err)
	}
	if pgid, err := unix.Getpgid(pid); err != nil || pgid != pid {
		t.Errorf("pgid = %d (%v), want own group %d", pgid, err, pid)
	}
}

func TestProcessManager_StartCrashOnLaunch(t *testing.T) {
	pm := newTestProcessManager(t)

	_, err := pm.Start("crasher", exec.Command("sh", "-c", "echo boom; exit 3"), "crasher.log")
	if err == nil {
		t.Fatal("Start() should fail for a process that exits at once")
	}
	if !strings.Contains(err.Error(), pm.LogPath("crasher.log")) {
		t.Errorf("error %q should point at the log", err)
	}
	if pid, _ := pm.ReadPid("crasher"); pid != 0 {
		t.Errorf("pid file left behind with %d", pid)
	}
	if out, _ := os.ReadFile(pm.LogPath("crasher.log")); !strings.Contains(string(out), "boom") {
		t.Errorf("log = %q, want the child's output", out)
	}
}

func TestProcessManager_StatusDropsStalePidFile(t *testing.T) {
	pm := newTestProcessManager(t)
	if err := pm.WritePid("stale", exitedPid(t)); err != nil {
		t.Fatal(err)
	}

	pid, err := pm.Status("stale")
	if err != nil || pid != 0 {
		t.Errorf("Status() = %d, %v; want 0, nil", pid, err)
	}
	if _, err := os.Stat(pm.PidFile("stale")); !os.IsNotExist(err) {
		t.Error("stale pid file should be removed")
	}
}

func TestProcessManager_ReadPid(t *testing.T) {
	pm := newTestProcessManager(t)

	if pid, err := pm.ReadPid("absent"); pid != 0 || err != nil {
		t.Errorf("ReadPid(absent) = %d, %v", pid, err)
	}

	os.MkdirAll(pm.PidDir, 0755)
	for _, content := range []string{"not-a-pid", "-4", ""} {
		os.WriteFile(pm.PidFile("bad"), []byte(content), 0644)
		if _, err := pm.ReadPid("bad"); err == nil {
			t.Errorf("ReadPid() of %q should fail", content)
		}
	}

	if err := pm.RemovePid("bad"); err != nil {
		t.Errorf("RemovePid() error = %v", err)
	}
	if err := pm.RemovePid("bad"); err != nil {
		t.Errorf("RemovePid() of a missing file error = %v", err)
	}
}

func TestSignals(t *testing.T) {
	if !IsProcessRunning(os.Getpid()) {
		t.Error("IsProcessRunning(self) = false")
	}
	if IsProcessRunning(0) || IsProcessRunning(-1) {
		t.Error("non-positive pids are never running")
	}

	gone := exitedPid(t)
	if err := Terminate(gone); err != nil {
		t.Errorf("Terminate(exited) error = %v", err)
	}
	if err := Kill(gone); err != nil {
		t.Errorf("Kill(exited) error = %v", err)
	}
}
