// Package runner executes external commands (package manager, vendored
// Hadoop/Kafka/Hive scripts, sudo) behind a small interface so callers can
// be exercised with a recording fake.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Result represents the outcome of a finished command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true if the command exited with code 0.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Output returns stdout and stderr combined and trimmed.
func (r Result) Output() string {
	return strings.TrimSpace(r.Stdout + "\n" + r.Stderr)
}

// Runner executes commands. A non-zero exit is reported through
// Result.ExitCode, not as an error; errors mean the command could not run.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// Exec runs real processes with exec.CommandContext.
type Exec struct {
	Env    []string // nil inherits the current environment
	Dir    string
	Logger *zap.Logger
}

// NewExec creates an Exec runner with the given environment.
func NewExec(env []string, logger *zap.Logger) *Exec {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exec{Env: env, Logger: logger}
}

// WithEnv returns a copy of the runner using env.
func (e *Exec) WithEnv(env []string) *Exec {
	clone := *e
	clone.Env = env
	return &clone
}

// Run executes name with args and waits for it to finish.
func (e *Exec) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = e.Env
	cmd.Dir = e.Dir

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	err := cmd.Run()

	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			result.ExitCode = exitErr.ExitCode()
		} else {
			e.logger().Debug("command did not run",
				zap.String("command", name),
				zap.Strings("args", args),
				zap.Error(err),
			)
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			return result, fmt.Errorf("failed to run %s: %w", name, err)
		}
	}

	e.logger().Debug("command finished",
		zap.String("command", name),
		zap.Strings("args", args),
		zap.Int("exit_code", result.ExitCode),
		zap.Duration("took", time.Since(started)),
		zap.String("output", truncate(result.Output(), 2048)),
	)
	return result, nil
}

func (e *Exec) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// Check runs a command and converts a non-zero exit into an error carrying
// the command output.
func Check(ctx context.Context, r Runner, name string, args ...string) (Result, error) {
	res, err := r.Run(ctx, name, args...)
	if err != nil {
		return res, err
	}
	if !res.Success() {
		return res, &ExitError{Command: name, Args: args, Result: res}
	}
	return res, nil
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Command string
	Args    []string
	Result  Result
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s %s exited with code %d", e.Command, strings.Join(e.Args, " "), e.Result.ExitCode)
	if out := e.Result.Output(); out != "" {
		msg += ": " + truncate(out, 512)
	}
	return msg
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

var _ Runner = (*Exec)(nil)
