package runner

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Call records a command invocation.
type Call struct {
	Name string
	Args []string
}

// String renders the call as a single command line.
func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Fake is a Runner that returns canned results keyed by full command line.
// Unknown commands fall through to Handler, then to an error.
type Fake struct {
	mu      sync.Mutex
	results map[string][]Result
	calls   []Call

	// Handler answers commands without a registered result.
	Handler func(call Call) (Result, error)
}

// NewFake creates an empty Fake.
func NewFake() *Fake {
	return &Fake{results: make(map[string][]Result)}
}

// On registers results for a command line. Consecutive calls consume the
// results in order; the last one repeats.
func (f *Fake) On(line string, results ...Result) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[line] = append(f.results[line], results...)
	return f
}

// Run implements Runner.
func (f *Fake) Run(ctx context.Context, name string, args ...string) (Result, error) {
	call := Call{Name: name, Args: append([]string(nil), args...)}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	queued, ok := f.results[call.String()]
	if ok && len(queued) > 0 {
		res := queued[0]
		if len(queued) > 1 {
			f.results[call.String()] = queued[1:]
		}
		f.mu.Unlock()
		return res, nil
	}
	handler := f.Handler
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if handler != nil {
		return handler(call)
	}
	return Result{}, fmt.Errorf("fake runner: no result registered for %q", call.String())
}

// Calls returns every invocation so far.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Count returns how many times the exact command line was run.
func (f *Fake) Count(line string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.String() == line {
			n++
		}
	}
	return n
}

var _ Runner = (*Fake)(nil)
