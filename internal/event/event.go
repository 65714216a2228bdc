// Package event carries progress notifications from the installer core to
// whatever front end is listening. The core never prints.
package event

import (
	"fmt"
	"time"
)

// Kind classifies an event.
type Kind string

const (
	StepSkipped   Kind = "step_skipped"
	StepStarted   Kind = "step_started"
	StepCompleted Kind = "step_completed"
	StepFailed    Kind = "step_failed"
	Info          Kind = "info"
	Warning       Kind = "warning"
	Progress      Kind = "progress"
)

// Event is a single notification. Subject names the step, artifact or
// service the event is about.
type Event struct {
	Kind     Kind
	Subject  string
	Message  string
	Err      error
	Duration time.Duration
}

// Sink receives events. Implementations must not block for long.
type Sink func(Event)

// Discard drops every event.
func Discard(Event) {}

// Emit delivers e to s, tolerating a nil sink.
func (s Sink) Emit(e Event) {
	if s != nil {
		s(e)
	}
}

// Infof emits an Info event.
func (s Sink) Infof(subject, format string, args ...interface{}) {
	s.Emit(Event{Kind: Info, Subject: subject, Message: fmt.Sprintf(format, args...)})
}

// Warnf emits a Warning event.
func (s Sink) Warnf(subject string, err error, format string, args ...interface{}) {
	s.Emit(Event{Kind: Warning, Subject: subject, Message: fmt.Sprintf(format, args...), Err: err})
}

// Progressf emits a Progress event.
func (s Sink) Progressf(subject, format string, args ...interface{}) {
	s.Emit(Event{Kind: Progress, Subject: subject, Message: fmt.Sprintf(format, args...)})
}

// Recorder collects events, for tests.
type Recorder struct {
	Events []Event
}

// Sink returns a Sink appending to the recorder. Not safe for concurrent use.
func (r *Recorder) Sink() Sink {
	return func(e Event) { r.Events = append(r.Events, e) }
}

// Kinds returns the kinds of recorded events in order.
func (r *Recorder) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.Events))
	for _, e := range r.Events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

// Count returns how many events of kind k were recorded.
func (r *Recorder) Count(k Kind) int {
	n := 0
	for _, e := range r.Events {
		if e.Kind == k {
			n++
		}
	}
	return n
}
