// Package inflight tracks computations that have started but not finished, so
// a duplicate request can wait for the running one instead of recomputing.
//
// Registry is deliberately a plain concurrent map: it offers no
// insert-if-absent. Callers that need "check, then register" to be atomic
// together with other state (see dedup.Coordinator) hold their own lock.
package inflight

import (
	"context"
	"sync"
)

// Call is the handle of one pending computation.
type Call[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

func NewCall[T any]() *Call[T] {
	return &Call[T]{done: make(chan struct{})}
}

// Resolve publishes the outcome and wakes all waiters. Only the first call has
// an effect.
func (c *Call[T]) Resolve(v T, err error) {
	c.once.Do(func() {
		c.val, c.err = v, err
		close(c.done)
	})
}

// Done is closed once the call is resolved.
func (c *Call[T]) Done() <-chan struct{} { return c.done }

// Wait blocks until the call resolves or ctx ends.
func (c *Call[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-c.done:
		return c.val, c.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result returns the outcome without blocking; ok is false while pending.
func (c *Call[T]) Result() (v T, ok bool, err error) {
	select {
	case <-c.done:
		return c.val, true, c.err
	default:
		var zero T
		return zero, false, nil
	}
}

// Registry maps request keys to pending calls. A miss is not an error.
type Registry[T any] interface {
	Add(key string, c *Call[T])
	Get(key string, remove bool) (*Call[T], bool)
	Remove(key string)
}

// Map is the in-process Registry.
type Map[T any] struct {
	mu sync.RWMutex
	m  map[string]*Call[T]
}

var _ Registry[string] = (*Map[string])(nil)

func NewMap[T any]() *Map[T] {
	return &Map[T]{m: make(map[string]*Call[T])}
}

// Add registers c under key, replacing any existing handle.
func (r *Map[T]) Add(key string, c *Call[T]) {
	r.mu.Lock()
	r.m[key] = c
	r.mu.Unlock()
}

func (r *Map[T]) Get(key string, remove bool) (*Call[T], bool) {
	if !remove {
		r.mu.RLock()
		c, ok := r.m[key]
		r.mu.RUnlock()
		return c, ok
	}
	r.mu.Lock()
	c, ok := r.m[key]
	delete(r.m, key)
	r.mu.Unlock()
	return c, ok
}

func (r *Map[T]) Remove(key string) {
	r.mu.Lock()
	delete(r.m, key)
	r.mu.Unlock()
}

func (r *Map[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.m)
}

// Nop discards everything; for deployments with deduplication disabled.
type Nop[T any] struct{}

var _ Registry[string] = Nop[string]{}

func (Nop[T]) Add(string, *Call[T])               {}
func (Nop[T]) Get(string, bool) (*Call[T], bool) { return nil, false }
func (Nop[T]) Remove(string)                      {}
