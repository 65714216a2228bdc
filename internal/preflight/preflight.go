package preflight

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	units "github.com/docker/go-units"
	"github.com/pbnjay/memory"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
	"gopkg.in/ini.v1"

	"github.com/danieljhkim/bigdata-wsl/internal/config"
	"github.com/danieljhkim/bigdata-wsl/internal/env"
	"github.com/danieljhkim/bigdata-wsl/internal/runner"
	"github.com/danieljhkim/bigdata-wsl/internal/util"
)

// requirement is a command the installer shells out to, with the apt
// package that provides it. Alternatives satisfy the requirement when any
// one of them is present.
type requirement struct {
	name         string
	alternatives []string
	pkg          string
}

var requiredCommands = []requirement{
	{name: "download tool", alternatives: []string{"curl", "wget"}, pkg: "curl"},
	{name: "tar", alternatives: []string{"tar"}, pkg: "tar"},
	{name: "ssh-keygen", alternatives: []string{"ssh-keygen"}, pkg: "openssh-client"},
	{name: "sed", alternatives: []string{"sed"}, pkg: "sed"},
	{name: "grep", alternatives: []string{"grep"}, pkg: "grep"},
	{name: "sudo", alternatives: []string{"sudo"}, pkg: "sudo"},
	{name: "apt-get", alternatives: []string{"apt-get"}},
}

// Probes are the system lookups a Validator performs. Tests replace them.
type Probes struct {
	LookPath    func(file string) (string, error)
	ReadFile    func(path string) ([]byte, error)
	Exists      func(path string) bool
	Getwd       func() (string, error)
	TotalMemory func() uint64
	FreeDisk    func(path string) (uint64, error)
	Interactive func() bool
	// SudoPrompt asks for the sudo password on the terminal.
	SudoPrompt func(ctx context.Context) error
}

// SystemProbes returns probes backed by the running system.
func SystemProbes() Probes {
	return Probes{
		LookPath:    exec.LookPath,
		ReadFile:    os.ReadFile,
		Exists:      func(path string) bool { _, err := os.Stat(path); return err == nil },
		Getwd:       os.Getwd,
		TotalMemory: memory.TotalMemory,
		FreeDisk:    freeDisk,
		Interactive: util.IsInteractive,
		SudoPrompt: func(ctx context.Context) error {
			cmd := exec.CommandContext(ctx, "sudo", "-v")
			cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
			return cmd.Run()
		},
	}
}

func freeDisk(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	return st.Bavail * uint64(st.Bsize), nil
}

// Validator runs every preflight check.
type Validator struct {
	cfg    *config.Config
	runner runner.Runner
	probes Probes
	log    *zap.Logger
}

// NewValidator creates a Validator over the real system.
func NewValidator(cfg *config.Config, r runner.Runner, log *zap.Logger) *Validator {
	return NewValidatorWithProbes(cfg, r, SystemProbes(), log)
}

// NewValidatorWithProbes creates a Validator with explicit probes.
func NewValidatorWithProbes(cfg *config.Config, r runner.Runner, probes Probes, log *zap.Logger) *Validator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Validator{cfg: cfg, runner: r, probes: probes, log: log}
}

// Validate performs every check and returns the report together with the
// Precondition error of the first failure, if any. Warnings never produce
// an error; the caller decides whether to proceed.
func (v *Validator) Validate(ctx context.Context) (*Report, error) {
	report := &Report{}
	v.checkCommands(report)
	v.checkSlowMount(report)
	v.checkVirtualization(report)
	v.checkMemory(report)
	v.checkDisk(report)
	v.checkPrivilege(ctx, report)

	for _, c := range report.Checks {
		v.log.Info("preflight check",
			zap.String("check", c.Name),
			zap.String("status", strings.TrimSpace(c.Status.String())),
			zap.String("message", c.Message),
		)
	}
	return report, report.Err()
}

func (v *Validator) checkCommands(report *Report) {
	tools := env.NewToolDetector(v.probes.LookPath)
	for _, req := range requiredCommands {
		if found := tools.FirstInstalled(req.alternatives...); found != "" {
			report.add(Check{Name: req.name, Status: OK, Message: found + " found"})
			continue
		}
		hint := "this installer supports Debian/Ubuntu WSL distributions only"
		if req.pkg != "" {
			hint = "sudo apt-get install -y " + req.pkg
		}
		report.add(Check{
			Name:    req.name,
			Status:  Fail,
			Message: strings.Join(req.alternatives, " or ") + " not found in PATH",
			Hint:    hint,
		})
	}
}

// slowMountPrefixes returns the configured prefixes plus the automount
// root from wsl.conf.
func (v *Validator) slowMountPrefixes() []string {
	prefixes := append([]string(nil), v.cfg.Preflight.SlowMountPrefixes...)
	if data, err := v.probes.ReadFile(v.cfg.Preflight.WSLConf); err == nil {
		if f, err := ini.Load(data); err == nil {
			root := strings.TrimSpace(f.Section("automount").Key("root").String())
			if root != "" {
				prefixes = append(prefixes, strings.TrimRight(root, "/")+"/")
			}
		} else {
			v.log.Warn("unreadable wsl.conf", zap.String("path", v.cfg.Preflight.WSLConf), zap.Error(err))
		}
	}
	return prefixes
}

func (v *Validator) checkSlowMount(report *Report) {
	prefixes := v.slowMountPrefixes()
	locations := map[string]string{"install dir": v.cfg.InstallDir, "state dir": v.cfg.StateDir}
	if wd, err := v.probes.Getwd(); err == nil {
		locations["working dir"] = wd
	}

	names := make([]string, 0, len(locations))
	for name := range locations {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := resolve(locations[name])
		for _, prefix := range prefixes {
			if prefix != "" && strings.HasPrefix(path+"/", prefix) {
				report.add(Check{
					Name:    "filesystem",
					Status:  Fail,
					Message: fmt.Sprintf("%s %s is on a Windows mount (%s); I/O there is 10-20x slower", name, path, prefix),
					Hint:    "cd ~ and set BIGDATA_INSTALL_DIR to a path inside the Linux filesystem",
				})
				return
			}
		}
	}
	report.add(Check{Name: "filesystem", Status: OK, Message: "install and working dirs are on the Linux filesystem"})
}

// resolve evaluates symlinks of the nearest existing ancestor of path.
func resolve(path string) string {
	existing := nearestExisting(path)
	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return filepath.Clean(path)
	}
	rest, err := filepath.Rel(existing, path)
	if err != nil || rest == "." {
		return resolved
	}
	return filepath.Join(resolved, rest)
}

func nearestExisting(path string) string {
	p := filepath.Clean(path)
	for {
		if _, err := os.Stat(p); err == nil {
			return p
		}
		parent := filepath.Dir(p)
		if parent == p {
			return p
		}
		p = parent
	}
}

func (v *Validator) checkVirtualization(report *Report) {
	data, err := v.probes.ReadFile("/proc/version")
	version := strings.ToLower(string(data))
	if err != nil || !(strings.Contains(version, "microsoft") || strings.Contains(version, "wsl")) {
		report.add(Check{
			Name:    "virtualization",
			Status:  Warn,
			Message: "not running under WSL",
			Hint:    "the stack is tuned for WSL2; other Linux hosts are untested",
		})
		return
	}

	detected := 1
	if v.probes.Exists("/run/WSL") || strings.Contains(version, "wsl2") {
		detected = 2
	}
	if detected != v.cfg.Preflight.WSLVersion {
		report.add(Check{
			Name:    "virtualization",
			Status:  Warn,
			Message: fmt.Sprintf("WSL%d detected, expected WSL%d", detected, v.cfg.Preflight.WSLVersion),
			Hint:    "wsl --set-version <distro> 2 (run from Windows)",
		})
		return
	}
	report.add(Check{Name: "virtualization", Status: OK, Message: fmt.Sprintf("WSL%d", detected)})
}

func (v *Validator) checkMemory(report *Report) {
	total := v.probes.TotalMemory()
	minimum := v.cfg.Preflight.MinMemoryBytes
	msg := fmt.Sprintf("%s total (minimum %s)", units.BytesSize(float64(total)), units.BytesSize(float64(minimum)))
	if int64(total) < minimum {
		report.add(Check{
			Name:    "memory",
			Status:  Warn,
			Message: msg,
			Hint:    "raise the memory limit in %UserProfile%\\.wslconfig, then wsl --shutdown",
		})
		return
	}
	report.add(Check{Name: "memory", Status: OK, Message: msg})
}

func (v *Validator) checkDisk(report *Report) {
	path := nearestExisting(v.cfg.InstallDir)
	free, err := v.probes.FreeDisk(path)
	if err != nil {
		report.add(Check{Name: "disk", Status: Fail, Message: fmt.Sprintf("cannot stat %s: %v", path, err)})
		return
	}
	minimum := v.cfg.Preflight.MinDiskBytes
	msg := fmt.Sprintf("%s free on %s (minimum %s)", units.HumanSize(float64(free)), path, units.HumanSize(float64(minimum)))
	if int64(free) < minimum {
		report.add(Check{Name: "disk", Status: Fail, Message: msg, Hint: "free disk space or set BIGDATA_INSTALL_DIR to a larger volume"})
		return
	}
	report.add(Check{Name: "disk", Status: OK, Message: msg})
}

func (v *Validator) checkPrivilege(ctx context.Context, report *Report) {
	res, err := v.runner.Run(ctx, "sudo", "-n", "true")
	if err == nil && res.Success() {
		report.add(Check{Name: "privilege", Status: OK, Message: "sudo available"})
		return
	}
	if v.probes.Interactive() && v.probes.SudoPrompt != nil {
		if err := v.probes.SudoPrompt(ctx); err == nil {
			report.add(Check{Name: "privilege", Status: OK, Message: "sudo credentials cached"})
			return
		}
	}
	report.add(Check{
		Name:    "privilege",
		Status:  Fail,
		Message: "sudo requires a password and no terminal is attached",
		Hint:    "run `sudo -v` before the installer, or configure passwordless sudo",
	})
}
