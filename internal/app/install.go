package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/danieljhkim/bigdata-wsl/internal/install"
	"github.com/danieljhkim/bigdata-wsl/internal/preflight"
	"github.com/danieljhkim/bigdata-wsl/internal/verify"
)

// InstallOptions controls one installation run.
type InstallOptions struct {
	// RunID labels the lock file.
	RunID string
	// Steps limits the run to the named steps; empty runs the whole plan.
	Steps         []string
	SkipPreflight bool
	// NoStart stops after the steps, leaving the daemons alone.
	NoStart bool
	// ReviewPreflight receives the report of a passing preflight. Returning
	// false aborts the run. Nil accepts every warning.
	ReviewPreflight func(*preflight.Report) bool
}

// Install runs lock, preflight, steps, service start and verification in
// that order, stopping at the first failure. The lock is released before
// Install returns. The verification report is nil when verification did
// not run.
func (a *App) Install(ctx context.Context, opts InstallOptions) (*verify.Report, error) {
	plan, err := install.Select(a.Plan(), opts.Steps)
	if err != nil {
		return nil, err
	}

	lock := a.Lock(opts.RunID)
	if err := lock.Acquire(time.Now()); err != nil {
		return nil, err
	}
	defer func() {
		install.BestEffort(a.Log, "release lock", lock.Release())
	}()

	if !opts.SkipPreflight {
		if err := a.preflight(ctx, opts.ReviewPreflight); err != nil {
			return nil, err
		}
	}

	err = a.Executor().Run(ctx, plan)
	a.WriteMetrics(time.Now())
	if err != nil {
		return nil, err
	}
	if opts.NoStart {
		a.Log.Info("skipping service start")
		return nil, nil
	}

	stack := a.Stack()
	if err := stack.Start(ctx, a.Supervisor); err != nil {
		return nil, err
	}

	report := a.Verifier(stack).Run(ctx)
	return report, report.Err()
}

func (a *App) preflight(ctx context.Context, review func(*preflight.Report) bool) error {
	if a.Validator == nil {
		return nil
	}
	report, err := a.Validator.Validate(ctx)
	if err != nil {
		return err
	}
	if review != nil && !review(report) {
		return install.PreconditionError("rerun with --yes to accept preflight warnings",
			"preflight warnings were not accepted")
	}
	a.Log.Info("preflight passed", zap.Int("warnings", len(report.Warnings())))
	return nil
}
