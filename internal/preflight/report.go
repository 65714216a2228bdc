// Package preflight checks that the machine can host the stack before any
// step runs.
package preflight

import (
	"fmt"
	"io"

	"github.com/danieljhkim/bigdata-wsl/internal/install"
	"github.com/danieljhkim/bigdata-wsl/internal/util"
)

// Status is the outcome of one check.
type Status int

const (
	OK Status = iota
	Warn
	Fail
)

func (s Status) String() string {
	switch s {
	case Warn:
		return "WARN"
	case Fail:
		return "FAIL"
	default:
		return "OK  "
	}
}

// Check is one named finding. Hint is the remediation for a warning or
// failure.
type Check struct {
	Name    string
	Status  Status
	Message string
	Hint    string
}

// Report holds every check in the order performed.
type Report struct {
	Checks []Check
}

func (r *Report) add(c Check) {
	r.Checks = append(r.Checks, c)
}

// Failed reports whether any check failed.
func (r *Report) Failed() bool {
	for _, c := range r.Checks {
		if c.Status == Fail {
			return true
		}
	}
	return false
}

// Err returns a Precondition error for the first failed check, or nil.
func (r *Report) Err() error {
	for _, c := range r.Checks {
		if c.Status == Fail {
			return install.PreconditionError(c.Hint, "preflight %s: %s", c.Name, c.Message)
		}
	}
	return nil
}

// Warnings returns the checks that need operator confirmation.
func (r *Report) Warnings() []Check {
	var warns []Check
	for _, c := range r.Checks {
		if c.Status == Warn {
			warns = append(warns, c)
		}
	}
	return warns
}

// Print writes the report in the doctor format.
func (r *Report) Print(w io.Writer) {
	util.Log("Preflight:")
	for _, c := range r.Checks {
		status := c.Status.String()
		switch c.Status {
		case Warn:
			status = util.Colorf(util.Yellow, "%s", status)
		case Fail:
			status = util.Colorf(util.Red, "%s", status)
		default:
			status = util.Colorf(util.Green, "%s", status)
		}
		fmt.Fprintf(w, "  %s %-14s %s\n", status, c.Name, c.Message)
		if c.Status != OK && c.Hint != "" {
			fmt.Fprintf(w, "       Fix: %s\n", c.Hint)
		}
	}
}

// ExitCode returns 0 when no check failed, else the precondition exit code.
func (r *Report) ExitCode() int {
	if r.Failed() {
		return install.ExitPrecondition
	}
	return install.ExitOK
}
