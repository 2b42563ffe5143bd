package runlock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrAcquireTimeout is returned when the lock for a key could not be
// acquired before the context deadline.
var ErrAcquireTimeout = errors.New("lock acquisition timed out")

// DefaultAcquireTimeout bounds acquisition when the caller's context has
// no deadline of its own.
const DefaultAcquireTimeout = 10 * time.Second

type entry struct {
	ch      chan struct{} // holds one token when the lock is free
	waiters int
}

// Registry hands out exclusive locks keyed by run ID. Writers to the
// same run serialize; readers never touch the registry.
type Registry struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func NewRegistry() *Registry {
	return &Registry{locks: make(map[string]*entry)}
}

// Acquire blocks until the lock for key is held or ctx expires.
func (r *Registry) Acquire(ctx context.Context, key string) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultAcquireTimeout)
		defer cancel()
	}

	r.mu.Lock()
	e, ok := r.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		e.ch <- struct{}{}
		r.locks[key] = e
	}
	e.waiters++
	r.mu.Unlock()

	select {
	case <-e.ch:
		return nil
	case <-ctx.Done():
		r.mu.Lock()
		e.waiters--
		if e.waiters == 0 && len(e.ch) == 1 {
			delete(r.locks, key)
		}
		r.mu.Unlock()
		return ErrAcquireTimeout
	}
}

// Release returns the lock for key. Releasing a key that is not held is
// a no-op.
func (r *Registry) Release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.locks[key]
	if !ok {
		return
	}
	e.waiters--
	select {
	case e.ch <- struct{}{}:
	default:
	}
	if e.waiters <= 0 {
		delete(r.locks, key)
	}
}

// WithLock runs fn while holding the lock for key.
func (r *Registry) WithLock(ctx context.Context, key string, fn func() error) error {
	if err := r.Acquire(ctx, key); err != nil {
		return err
	}
	defer r.Release(key)
	return fn()
}
