package respcache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/unkn0wn-root/mpsdk/internal/wire"
	pr "github.com/unkn0wn-root/mpsdk/provider"
	"github.com/unkn0wn-root/mpsdk/provider/bigcache"
	"github.com/unkn0wn-root/mpsdk/provider/ristretto"
)

type memProvider struct {
	mu     sync.Mutex
	m      map[string][]byte
	getErr error
}

var _ pr.Provider = (*memProvider)(nil)

func newMemProvider() *memProvider { return &memProvider{m: make(map[string][]byte)} }

func (p *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.getErr != nil {
		return nil, false, p.getErr
	}
	b, ok := p.m[key]
	return b, ok, nil
}

func (p *memProvider) Set(_ context.Context, key string, value []byte, _ int64, _ time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[key] = value
	return true, nil
}

func (p *memProvider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.m, key)
	return nil
}

func (p *memProvider) Close(context.Context) error { return nil }

func (p *memProvider) has(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.m[key]
	return ok
}

func newTestProvided(t *testing.T, mp pr.Provider, now func() time.Time) *Provided {
	t.Helper()
	p, err := NewProvided(ProvidedOptions{Namespace: "wh", Provider: mp, Retention: time.Minute, Clock: now})
	if err != nil {
		t.Fatalf("NewProvided: %v", err)
	}
	return p
}

func TestProvidedValidatesOptions(t *testing.T) {
	if _, err := NewProvided(ProvidedOptions{Namespace: "x"}); err != ErrNilProvider {
		t.Fatalf("got %v", err)
	}
	if _, err := NewProvided(ProvidedOptions{Provider: newMemProvider()}); err != ErrNamespaceMissing {
		t.Fatalf("got %v", err)
	}
}

func TestProvidedContract(t *testing.T) {
	mp := newMemProvider()
	p := newTestProvided(t, mp, nil)

	p.Add("k", "v1")
	p.Add("k", "v2")
	if v, ok := p.Get("k", false); !ok || v != "v2" {
		t.Fatalf("got %q ok=%v", v, ok)
	}
	if !mp.has("resp:wh:k") {
		t.Fatalf("entry should be namespaced")
	}
	if v, ok := p.Get("k", true); !ok || v != "v2" {
		t.Fatalf("removing read: %q %v", v, ok)
	}
	if _, ok := p.Get("k", false); ok {
		t.Fatalf("entry should be gone")
	}
	p.Add("x", "y")
	p.Remove("x")
	p.Remove("x")
	if _, ok := p.Get("x", false); ok {
		t.Fatalf("Remove should delete")
	}
}

func TestProvidedSelfHealsOutlivedAndCorrupt(t *testing.T) {
	mp := newMemProvider()
	now := time.Unix(1000, 0)
	p := newTestProvided(t, mp, func() time.Time { return now })

	_, _ = mp.Set(context.Background(), "resp:wh:old", wire.EncodeResponse(now.Add(-time.Minute), []byte("v")), 0, 0)
	if _, ok := p.Get("old", false); ok {
		t.Fatalf("entry older than retention must miss")
	}
	if mp.has("resp:wh:old") {
		t.Fatalf("outlived entry should be deleted")
	}

	_, _ = mp.Set(context.Background(), "resp:wh:bad", []byte("not-wire-format"), 0, 0)
	if _, ok := p.Get("bad", false); ok {
		t.Fatalf("corrupt entry must miss")
	}
	if mp.has("resp:wh:bad") {
		t.Fatalf("corrupt entry should be deleted")
	}
}

func TestProvidedErrorsAreMisses(t *testing.T) {
	mp := newMemProvider()
	mp.getErr = errors.New("conn reset")
	h := &storeHooks{}
	p, _ := NewProvided(ProvidedOptions{Namespace: "wh", Provider: mp, Hooks: h})
	p.Add("k", "v")
	if _, ok := p.Get("k", false); ok {
		t.Fatalf("provider error must behave as a miss")
	}
	if h.n != 1 {
		t.Fatalf("expected one StoreError, got %d", h.n)
	}
}

// takingProvider adds an atomic read-and-delete to memProvider.
type takingProvider struct {
	*memProvider
	takes int
}

var _ pr.Taker = (*takingProvider)(nil)

func (p *takingProvider) Take(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.takes++
	b, ok := p.m[key]
	delete(p.m, key)
	return b, ok, nil
}

func TestProvidedRemovingReadIsExclusiveWithTaker(t *testing.T) {
	tp := &takingProvider{memProvider: newMemProvider()}
	p := newTestProvided(t, tp, nil)
	p.Add("k", "v")

	const readers = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		hits int
	)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := p.Get("k", true); ok {
				mu.Lock()
				hits++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if hits != 1 {
		t.Fatalf("want exactly one removing read to win, got %d", hits)
	}
	if tp.takes != readers {
		t.Fatalf("removing reads should use Take, got %d of %d", tp.takes, readers)
	}

	// plain reads keep using Get
	p.Add("k", "v")
	if _, ok := p.Get("k", false); !ok || tp.takes != readers {
		t.Fatalf("peek must not take")
	}
}

type storeHooks struct {
	sweepHooks
	n int
}

func (h *storeHooks) StoreError(string, string, error) { h.n++ }

func TestProvidedOverRistretto(t *testing.T) {
	rp, err := ristretto.New(ristretto.Config{NumCounters: 1000, MaxCost: 1 << 20, BufferItems: 64})
	if err != nil {
		t.Fatalf("ristretto.New: %v", err)
	}
	p := newTestProvided(t, rp, nil)
	defer p.Close(context.Background())

	p.Add("msg-1", "success")
	if v, ok := p.Get("msg-1", true); !ok || v != "success" {
		t.Fatalf("got %q ok=%v", v, ok)
	}
	if _, ok := p.Get("msg-1", false); ok {
		t.Fatalf("entry should be removed")
	}
}

func TestProvidedOverBigcache(t *testing.T) {
	bp, err := bigcache.New(bigcache.Config{LifeWindow: time.Minute, CleanWindow: time.Minute})
	if err != nil {
		t.Fatalf("bigcache.New: %v", err)
	}
	p := newTestProvided(t, bp, nil)
	defer p.Close(context.Background())

	p.Add("msg-1", "success")
	if v, ok := p.Get("msg-1", false); !ok || v != "success" {
		t.Fatalf("got %q ok=%v", v, ok)
	}
	p.Remove("msg-1")
	p.Remove("msg-1") // missing key is not an error
	if _, ok := p.Get("msg-1", false); ok {
		t.Fatalf("entry should be removed")
	}
}
