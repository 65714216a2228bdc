package install

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/danieljhkim/bigdata-wsl/internal/event"
	"github.com/danieljhkim/bigdata-wsl/internal/state"
)

// Step is one named unit of installation work. Action must be idempotent:
// re-running it after the state file was removed must not corrupt what an
// earlier run installed.
type Step struct {
	Name        string
	Description string
	Action      func(ctx context.Context) error
}

// Store is the subset of *state.Store the executor needs.
type Store interface {
	Contains(name string) (bool, error)
	Mark(name string) error
}

var _ Store = (*state.Store)(nil)

// Executor runs steps at most once per machine.
type Executor struct {
	store   Store
	events  event.Sink
	log     *zap.Logger
	metrics *Metrics
	now     func() time.Time
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithEvents sets the progress sink.
func WithEvents(sink event.Sink) ExecutorOption {
	return func(e *Executor) { e.events = sink }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) ExecutorOption {
	return func(e *Executor) { e.log = log }
}

// WithMetrics records step outcomes into m.
func WithMetrics(m *Metrics) ExecutorOption {
	return func(e *Executor) { e.metrics = m }
}

// NewExecutor creates an executor over store.
func NewExecutor(store Store, opts ...ExecutorOption) *Executor {
	e := &Executor{
		store: store,
		log:   zap.NewNop(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunStep runs step unless the store already marks it done. The step is
// marked only after its action returns nil; a failed or interrupted step is
// left unmarked so the next run retries it.
func (e *Executor) RunStep(ctx context.Context, step Step) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done, err := e.store.Contains(step.Name)
	if err != nil {
		return fmt.Errorf("failed to read install state: %w", err)
	}
	if done {
		e.log.Info("step already complete", zap.String("step", step.Name))
		e.events.Emit(event.Event{Kind: event.StepSkipped, Subject: step.Name, Message: step.Description})
		e.metrics.observe(step.Name, outcomeSkipped, 0)
		return nil
	}

	e.log.Info("step started", zap.String("step", step.Name))
	e.events.Emit(event.Event{Kind: event.StepStarted, Subject: step.Name, Message: step.Description})
	started := e.now()

	err = step.Action(ctx)
	if err == nil && ctx.Err() != nil {
		// An action that ignored cancellation may not have finished its work.
		err = ctx.Err()
	}
	took := e.now().Sub(started)

	if err != nil {
		e.log.Error("step failed",
			zap.String("step", step.Name),
			zap.String("kind", KindOf(err).String()),
			zap.Duration("took", took),
			zap.Error(err),
		)
		e.events.Emit(event.Event{Kind: event.StepFailed, Subject: step.Name, Err: err, Duration: took})
		e.metrics.observe(step.Name, outcomeFailed, took)
		return err
	}

	if err := e.store.Mark(step.Name); err != nil {
		return fmt.Errorf("step %s succeeded but could not be recorded: %w", step.Name, err)
	}
	e.log.Info("step completed", zap.String("step", step.Name), zap.Duration("took", took))
	e.events.Emit(event.Event{Kind: event.StepCompleted, Subject: step.Name, Duration: took})
	e.metrics.observe(step.Name, outcomeCompleted, took)
	return nil
}

// Run runs steps in order and stops at the first failure.
func (e *Executor) Run(ctx context.Context, steps []Step) error {
	for _, step := range steps {
		if err := e.RunStep(ctx, step); err != nil {
			return err
		}
	}
	return nil
}

// Select returns the steps whose names are in names, in declared order.
// Unknown names are an error.
func Select(steps []Step, names []string) ([]Step, error) {
	if len(names) == 0 {
		return steps, nil
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	var selected []Step
	for _, s := range steps {
		if wanted[s.Name] {
			selected = append(selected, s)
			delete(wanted, s.Name)
		}
	}
	for n := range wanted {
		return nil, Errorf(Precondition, "run `bigdata steps` to list step names", "unknown step %q", n)
	}
	return selected, nil
}
