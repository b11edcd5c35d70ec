// Package screen provides the lifecycle and phase types shared by every screen.
//
// A screen is mounted with NewLifecycle and disposed with Teardown. Work it
// started uses Context, which is cancelled on teardown, and any state change
// that happens after waiting on the network goes through Guard so a late
// response cannot touch a disposed screen.
package screen

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrTornDown is returned by operations attempted on a disposed screen
	ErrTornDown = errors.New("screen torn down")
	// ErrBusy is returned when an operation is started while the same one is
	// still in flight
	ErrBusy = errors.New("operation already in progress")
)

// Lifecycle tracks whether a screen is still mounted
type Lifecycle struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	alive    bool
	cleanups []func()
}

// NewLifecycle mounts a screen under parent
func NewLifecycle(parent context.Context) *Lifecycle {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Lifecycle{ctx: ctx, cancel: cancel, alive: true}
}

// Context is cancelled when the screen is torn down
func (l *Lifecycle) Context() context.Context {
	return l.ctx
}

// Alive reports whether the screen is still mounted
func (l *Lifecycle) Alive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.alive && l.ctx.Err() == nil
}

// Guard runs fn only while the screen is mounted and reports whether it ran.
// Teardown waits for a running fn to return.
func (l *Lifecycle) Guard(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.alive || l.ctx.Err() != nil {
		return false
	}
	fn()
	return true
}

// OnTeardown registers fn to run once when the screen is disposed.
// Cleanups run in reverse registration order. If the screen is already
// torn down fn runs immediately.
func (l *Lifecycle) OnTeardown(fn func()) {
	l.mu.Lock()
	if !l.alive {
		l.mu.Unlock()
		fn()
		return
	}
	l.cleanups = append(l.cleanups, fn)
	l.mu.Unlock()
}

// Teardown disposes the screen. Safe to call more than once.
func (l *Lifecycle) Teardown() {
	l.mu.Lock()
	if !l.alive {
		l.mu.Unlock()
		return
	}
	l.alive = false
	cleanups := l.cleanups
	l.cleanups = nil
	l.mu.Unlock()

	l.cancel()
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}
