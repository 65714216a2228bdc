package env

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/danieljhkim/bigdata-wsl/internal/config"
)

// Exec runs args with the computed environment of cfg, connected to the
// terminal. The command's exit status is returned as *exec.ExitError.
func Exec(ctx context.Context, cfg *config.Config, args []string) error {
	return ExecWithEnv(ctx, cfg, args, nil)
}

// ExecWithEnv executes a command with the computed environment plus extra env vars
func ExecWithEnv(ctx context.Context, cfg *config.Config, args []string, extraEnv map[string]string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: bigdata env exec -- <cmd...>")
	}

	environment := Compute(cfg, "")
	bin, err := LookPath(args[0], environment.Path)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, bin, args[1:]...)
	cmdEnv := environment.MergeWithCurrent()
	for key, value := range extraEnv {
		cmdEnv = append(cmdEnv, key+"="+value)
	}
	cmd.Env = cmdEnv

	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// LookPath resolves file against the directories of path rather than the
// PATH of this process. Names containing a slash are returned unchanged.
func LookPath(file, path string) (string, error) {
	if strings.Contains(file, "/") {
		return file, nil
	}
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, file)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() && info.Mode()&0111 != 0 {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s not found in the stack PATH; is the component installed? (bigdata steps)", file)
}
