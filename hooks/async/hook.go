// Package asynchook moves mpsdk.Hooks calls off the request path.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    ReplayEvery: 10, // log ~every 10th replayed webhook
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	tokens, _ := credential.NewTokenCache(fetcher, credential.Options{
//	    Name:  "access_token",
//	    Hooks: hooks, // or `raw` if you don't want async
//	})
//
// Events are dropped when the queue is full.
package asynchook

import (
	"sync"
	"time"

	"github.com/unkn0wn-root/mpsdk"
)

type Hooks struct {
	inner mpsdk.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

var _ mpsdk.Hooks = (*Hooks)(nil)

func New(inner mpsdk.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Hooks must not be called
// after Close.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default: // drop
	}
}

func (h *Hooks) CredentialRefreshed(name, source string, exp time.Time) {
	h.try(func() { h.inner.CredentialRefreshed(name, source, exp) })
}
func (h *Hooks) CredentialRefreshFailed(name string, err error) {
	h.try(func() { h.inner.CredentialRefreshFailed(name, err) })
}
func (h *Hooks) RefreshSuppressed(name string) { h.try(func() { h.inner.RefreshSuppressed(name) }) }
func (h *Hooks) GenerationSwept(n int)         { h.try(func() { h.inner.GenerationSwept(n) }) }
func (h *Hooks) ResponseReplayed(k string)     { h.try(func() { h.inner.ResponseReplayed(k) }) }
func (h *Hooks) ExecutionJoined(k string)      { h.try(func() { h.inner.ExecutionJoined(k) }) }
func (h *Hooks) StoreError(op, k string, err error) {
	h.try(func() { h.inner.StoreError(op, k, err) })
}
