package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitUntil(t *testing.T) {
	tests := []struct {
		name      string
		attempts  int
		passAfter int
		wantErr   error
		wantCalls int
	}{
		{"immediately ready", 5, 0, nil, 1},
		{"ready on third attempt", 5, 2, nil, 3},
		{"never ready", 4, -1, ErrTimeout, 4},
		{"zero attempts still checks once", 0, -1, ErrTimeout, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := &fakeCheck{passAfter: tt.passAfter}
			err := WaitUntil(context.Background(), Poll{Interval: time.Millisecond, Attempts: tt.attempts},
				func(ctx context.Context) bool { return check.Check(ctx) == nil })
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("WaitUntil() error = %v, want %v", err, tt.wantErr)
			}
			if check.Calls() != tt.wantCalls {
				t.Errorf("condition called %d times, want %d", check.Calls(), tt.wantCalls)
			}
		})
	}
}

func TestWaitUntil_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := WaitUntil(ctx, Poll{Interval: time.Hour, Attempts: 3}, func(context.Context) bool {
		calls++
		cancel()
		return false
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("WaitUntil() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("condition called %d times, want 1", calls)
	}
}

func TestPoll_Budget(t *testing.T) {
	p := Poll{Interval: 2 * time.Second, Attempts: 31}
	if got := p.Budget(); got != time.Minute {
		t.Errorf("Budget() = %v, want 1m", got)
	}
	if got := (Poll{Interval: time.Second, Attempts: 1}).Budget(); got != 0 {
		t.Errorf("Budget() = %v, want 0", got)
	}
}
