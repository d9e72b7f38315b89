// Package search runs on-demand gazette searches under the
// client-wide execution mutex and keeps a local history of runs.
package search

import (
	"sync"

	"github.com/vigia-dou/vigia/errors"
)

// Lock is the client-wide execution mutex. At most one search runs at
// a time; acquisition never blocks and never queues. While held,
// schedule and settings mutations are refused as well, so it doubles
// as the Gate those managers consult.
type Lock struct {
	mu   sync.Mutex
	held bool
}

// NewLock creates a released execution lock.
func NewLock() *Lock {
	return &Lock{}
}

// Acquire takes the lock. If it is already held the call fails with
// ErrAlreadyRunning and the held state is untouched.
func (l *Lock) Acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return errors.ErrAlreadyRunning
	}
	l.held = true
	return nil
}

// Release frees the lock. Releasing a free lock is a no-op.
func (l *Lock) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
}

// Held reports whether the lock is currently taken. Implements
// schedule.Gate and settings.Gate.
func (l *Lock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

// Do runs fn under the lock. The lock is released on every exit path,
// error or not; a panic in fn still releases before propagating.
func (l *Lock) Do(fn func() error) error {
	if err := l.Acquire(); err != nil {
		return err
	}
	defer l.Release()
	return fn()
}
