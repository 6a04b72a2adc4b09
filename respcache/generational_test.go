package respcache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/unkn0wn-root/mpsdk"
)

func newManual(t *testing.T) *Generational {
	t.Helper()
	g, err := NewGenerational(Options{DisableSweep: true})
	if err != nil {
		t.Fatalf("NewGenerational: %v", err)
	}
	t.Cleanup(func() { _ = g.Close(context.Background()) })
	return g
}

func TestGenerationalRejectsNegativePeriod(t *testing.T) {
	if _, err := NewGenerational(Options{Period: -time.Second}); err != ErrNegativePeriod {
		t.Fatalf("got %v, want ErrNegativePeriod", err)
	}
}

func TestGenerationalDefaultPeriod(t *testing.T) {
	g := newManual(t)
	if g.Period() != DefaultPeriod {
		t.Fatalf("period = %v, want %v", g.Period(), DefaultPeriod)
	}
}

func TestSurvivesOneSweepNotTwo(t *testing.T) {
	g := newManual(t)
	g.Add("msg-1", "success")

	g.Sweep()
	if v, ok := g.Get("msg-1", false); !ok || v != "success" {
		t.Fatalf("entry must survive one sweep, got %q ok=%v", v, ok)
	}
	g.Sweep()
	if _, ok := g.Get("msg-1", false); ok {
		t.Fatalf("entry must be gone after two sweeps")
	}
	if g.Len() != 0 {
		t.Fatalf("Len = %d after full eviction", g.Len())
	}
}

func TestReAddAcrossSweepReturnsNewestOnly(t *testing.T) {
	g := newManual(t)
	g.Add("k", "v1")
	g.Sweep() // v1 now in previous
	g.Add("k", "v2")

	if v, ok := g.Get("k", false); !ok || v != "v2" {
		t.Fatalf("got %q ok=%v, want v2", v, ok)
	}
	if g.Len() != 1 {
		t.Fatalf("stale copy left in previous generation: Len = %d", g.Len())
	}
	// v2 is in current, so one sweep must not resurrect v1
	g.Sweep()
	if v, _ := g.Get("k", false); v != "v2" {
		t.Fatalf("after sweep got %q, want v2", v)
	}
}

func TestGetRemoveRoundTrip(t *testing.T) {
	g := newManual(t)
	g.Add("a", "1")
	g.Add("b", "2")
	g.Sweep() // b, a in previous
	g.Add("c", "3")

	for _, k := range []string{"a", "c"} {
		if _, ok := g.Get(k, true); !ok {
			t.Fatalf("Get(%q, remove) should hit", k)
		}
		if _, ok := g.Get(k, false); ok {
			t.Fatalf("%q should be gone after removing read", k)
		}
	}
	if v, ok := g.Get("b", false); !ok || v != "2" {
		t.Fatalf("untouched entry lost: %q %v", v, ok)
	}
	if _, ok := g.Get("missing", true); ok {
		t.Fatalf("miss must report absent")
	}
}

func TestRemoveBothGenerationsIdempotent(t *testing.T) {
	g := newManual(t)
	g.Add("k", "v")
	g.Sweep()
	g.Remove("k")
	g.Remove("k")
	if _, ok := g.Get("k", false); ok {
		t.Fatalf("Remove must delete from previous generation")
	}
}

type sweepHooks struct {
	mpsdk.NopHooks
	sweeps  atomic.Int32
	dropped atomic.Int32
}

func (h *sweepHooks) GenerationSwept(n int) {
	h.sweeps.Add(1)
	h.dropped.Add(int32(n))
}

func TestSweepReportsDropped(t *testing.T) {
	h := &sweepHooks{}
	g, _ := NewGenerational(Options{DisableSweep: true, Hooks: h})
	for i := 0; i < 5; i++ {
		g.Add(fmt.Sprint(i), "x")
	}
	g.Sweep()
	g.Sweep()
	if h.sweeps.Load() != 2 || h.dropped.Load() != 5 {
		t.Fatalf("sweeps=%d dropped=%d", h.sweeps.Load(), h.dropped.Load())
	}
}

func TestBackgroundRetentionBound(t *testing.T) {
	const period = 50 * time.Millisecond
	g, err := NewGenerational(Options{Period: period})
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close(context.Background())

	g.Add("k", "v")
	time.Sleep(period - 20*time.Millisecond)
	if _, ok := g.Get("k", false); !ok {
		t.Fatalf("entry must be retrievable before T elapses")
	}
	time.Sleep(period + 20*time.Millisecond + 60*time.Millisecond)
	if _, ok := g.Get("k", false); ok {
		t.Fatalf("entry must be evicted after 2T")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	g, _ := NewGenerational(Options{Period: time.Millisecond})
	if err := g.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := g.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestConcurrentAccessWithSweeps(t *testing.T) {
	g, _ := NewGenerational(Options{Period: time.Millisecond})
	defer g.Close(context.Background())

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				k := fmt.Sprintf("%d-%d", w, i%17)
				g.Add(k, "v")
				g.Get(k, i%3 == 0)
				if i%5 == 0 {
					g.Remove(k)
				}
			}
		}(w)
	}
	wg.Wait()
}

func TestNopNeverRetains(t *testing.T) {
	var c Cache = Nop{}
	c.Add("k", "v")
	if _, ok := c.Get("k", false); ok {
		t.Fatalf("Nop must always miss")
	}
	if _, ok := c.Get("k", true); ok {
		t.Fatalf("Nop must always miss")
	}
	c.Remove("k")
}
