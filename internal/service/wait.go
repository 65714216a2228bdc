package service

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned by WaitUntil when every attempt failed.
var ErrTimeout = errors.New("timed out waiting for condition")

// Poll bounds a readiness wait: at most Attempts checks, Interval apart.
type Poll struct {
	Interval time.Duration
	Attempts int
}

// Budget is the longest a wait with p can take, ignoring check time.
func (p Poll) Budget() time.Duration {
	if p.Attempts <= 1 {
		return 0
	}
	return time.Duration(p.Attempts-1) * p.Interval
}

// WaitUntil calls cond until it returns true, up to p.Attempts times. It
// returns nil on success, ErrTimeout when attempts are exhausted and the
// context error when ctx is cancelled. Every readiness wait goes through
// here.
func WaitUntil(ctx context.Context, p Poll, cond func(ctx context.Context) bool) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if cond(ctx) {
			return nil
		}
		if i == attempts-1 {
			break
		}

		if timer == nil {
			timer = time.NewTimer(p.Interval)
		} else {
			timer.Reset(p.Interval)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return ErrTimeout
}
