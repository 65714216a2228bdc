package service

import (
	"context"
	"errors"
	"sync"
)

// fakeCheck fails until it has been called passAfter times. passAfter < 0
// never passes.
type fakeCheck struct {
	mu        sync.Mutex
	calls     int
	passAfter int
}

func (f *fakeCheck) Check(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.passAfter >= 0 && f.calls > f.passAfter {
		return nil
	}
	return errors.New("not ready")
}

func (f *fakeCheck) String() string { return "fake" }

func (f *fakeCheck) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
