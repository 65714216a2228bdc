package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/danieljhkim/bigdata-wsl/internal/install"
)

// Stage is a group of daemons brought up together. Gates are awaited after
// every daemon is ready; After runs last.
type Stage struct {
	Name    string
	Daemons []*Daemon
	Gates   []*Gate
	After   func(ctx context.Context) error
}

// Stack is the ordered list of stages. Start walks it forwards, Stop in
// reverse.
type Stack struct {
	Stages []*Stage
}

// Names returns the stage names in start order.
func (st *Stack) Names() []string {
	names := make([]string, 0, len(st.Stages))
	for _, s := range st.Stages {
		names = append(names, s.Name)
	}
	return names
}

// Select returns a stack holding only the named stages, in stack order.
// No names selects everything.
func (st *Stack) Select(names ...string) (*Stack, error) {
	if len(names) == 0 {
		return st, nil
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	out := &Stack{}
	for _, s := range st.Stages {
		if wanted[s.Name] {
			out.Stages = append(out.Stages, s)
			delete(wanted, s.Name)
		}
	}
	for n := range wanted {
		return nil, install.Errorf(install.Precondition, "known services: "+strings.Join(st.Names(), ", "),
			"unknown service %q", n)
	}
	return out, nil
}

// Start brings every stage up in order and stops at the first failure.
func (st *Stack) Start(ctx context.Context, sup *Supervisor) error {
	for _, stage := range st.Stages {
		for _, d := range stage.Daemons {
			if err := sup.Start(ctx, d); err != nil {
				return err
			}
		}
		for _, g := range stage.Gates {
			if err := sup.Await(ctx, g); err != nil {
				return err
			}
		}
		if stage.After != nil {
			if err := stage.After(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Stop takes every stage down in reverse order. It keeps going after a
// failure and returns all errors joined.
func (st *Stack) Stop(ctx context.Context, sup *Supervisor) error {
	var errs []error
	for i := len(st.Stages) - 1; i >= 0; i-- {
		stage := st.Stages[i]
		for j := len(stage.Daemons) - 1; j >= 0; j-- {
			d := stage.Daemons[j]
			if err := sup.Stop(ctx, d); err != nil {
				errs = append(errs, fmt.Errorf("stop %s: %w", d.Name, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Status probes every daemon of the stack.
func (st *Stack) Status(ctx context.Context, sup *Supervisor) []ServiceStatus {
	var out []ServiceStatus
	for _, stage := range st.Stages {
		for _, d := range stage.Daemons {
			status := sup.Status(ctx, d)
			status.Stage = stage.Name
			out = append(out, status)
		}
	}
	return out
}

// Daemons returns every daemon in start order.
func (st *Stack) Daemons() []*Daemon {
	var out []*Daemon
	for _, stage := range st.Stages {
		out = append(out, stage.Daemons...)
	}
	return out
}
