// Package install runs named, idempotent installation steps guarded by the
// persistent state store, and defines the error taxonomy shared by every
// installer component.
package install

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/danieljhkim/bigdata-wsl/internal/state"
)

// Kind classifies installer failures.
type Kind int

const (
	// Unclassified failures abort the run with exit code 1.
	Unclassified Kind = iota
	// Precondition: the environment does not meet a hard requirement.
	Precondition
	// Download: every mirror and attempt for an artifact was exhausted.
	Download
	// Extraction: an archive is present but unreadable.
	Extraction
	// Configuration: rendering or writing a config file failed.
	Configuration
	// ServiceStart: a daemon never became healthy.
	ServiceStart
	// NonCritical: a best-effort operation failed; logged, never propagated.
	NonCritical
)

func (k Kind) String() string {
	switch k {
	case Precondition:
		return "precondition"
	case Download:
		return "download"
	case Extraction:
		return "extraction"
	case Configuration:
		return "configuration"
	case ServiceStart:
		return "service start"
	case NonCritical:
		return "non-critical"
	default:
		return "error"
	}
}

// Error is a classified installer failure. Hint is the concrete next action
// shown to the operator, e.g. a command to run or a log file to read.
type Error struct {
	Kind Kind
	Op   string
	Hint string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String() + " error"
	if e.Op != "" {
		msg = e.Op
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf returns a classified error with a formatted message.
func Errorf(kind Kind, hint, format string, args ...interface{}) error {
	return &Error{Kind: kind, Hint: hint, Err: fmt.Errorf(format, args...)}
}

// PreconditionError returns a Precondition error. hint should name the
// exact remediation command.
func PreconditionError(hint, format string, args ...interface{}) error {
	return Errorf(Precondition, hint, format, args...)
}

// Wrap classifies err under kind. A nil err stays nil, and an error that
// already carries a kind keeps it.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		if op == "" {
			return err
		}
		return &Error{Kind: classified.Kind, Op: op, Hint: classified.Hint, Err: err}
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithHint returns err with the operator hint set.
func WithHint(err error, hint string) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return &Error{Kind: classified.Kind, Op: classified.Op, Hint: hint, Err: classified.Err}
	}
	return &Error{Kind: Unclassified, Hint: hint, Err: err}
}

// KindOf returns the kind of err. A held installation lock is a
// Precondition failure.
func KindOf(err error) Kind {
	if err == nil {
		return Unclassified
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	var held *state.HeldError
	if errors.As(err, &held) {
		return Precondition
	}
	return Unclassified
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HintOf returns the operator hint carried by err, if any.
func HintOf(err error) string {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Hint
	}
	var held *state.HeldError
	if errors.As(err, &held) {
		return "wait for the other run to finish, or remove " + held.Path + " if no installer is running"
	}
	return ""
}

// BestEffort logs err as a NonCritical warning and swallows it.
func BestEffort(log *zap.Logger, op string, err error) {
	if err == nil {
		return
	}
	if log == nil {
		log = zap.NewNop()
	}
	log.Warn("best-effort operation failed",
		zap.String("op", op),
		zap.String("kind", NonCritical.String()),
		zap.Error(err),
	)
}

// Exit codes.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitPrecondition  = 2
	ExitDownload      = 3
	ExitConfiguration = 4
	ExitServiceStart  = 5
	ExitInterrupted   = 130
)

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) {
		return ExitInterrupted
	}
	switch KindOf(err) {
	case Precondition:
		return ExitPrecondition
	case Download, Extraction:
		return ExitDownload
	case Configuration:
		return ExitConfiguration
	case ServiceStart:
		return ExitServiceStart
	default:
		return ExitFailure
	}
}
