package respcache

import (
	"context"
	"sync"
	"time"

	"github.com/unkn0wn-root/mpsdk"
	"github.com/unkn0wn-root/mpsdk/internal/util"
)

// Options tune a Generational cache.
type Options struct {
	Period       time.Duration // sweep period T; 0 => DefaultPeriod
	DisableSweep bool          // no background loop; caller drives Sweep
	Logger       mpsdk.Logger
	Hooks        mpsdk.Hooks
}

// Generational is an in-process Cache with [Period, 2*Period] retention.
//
// One RWMutex covers both generations. Peeks share the read lock; Add,
// removing reads, Remove and the sweep take the write lock.
type Generational struct {
	mu       sync.RWMutex
	current  map[string]string
	previous map[string]string

	period time.Duration
	log    mpsdk.Logger
	hooks  mpsdk.Hooks

	ticker    *time.Ticker
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ Cache = (*Generational)(nil)

func NewGenerational(opts Options) (*Generational, error) {
	if opts.Period < 0 {
		return nil, ErrNegativePeriod
	}
	g := &Generational{
		current:  make(map[string]string),
		previous: make(map[string]string),
		period:   util.Coalesce(opts.Period, DefaultPeriod),
	}
	g.log = util.Coalesce[mpsdk.Logger](opts.Logger, mpsdk.NopLogger{})
	g.hooks = util.Coalesce[mpsdk.Hooks](opts.Hooks, mpsdk.NopHooks{})

	if !opts.DisableSweep {
		g.ticker = time.NewTicker(g.period)
		g.stopCh = make(chan struct{})
		g.wg.Add(1)
		go func() {
			defer g.wg.Done()
			for {
				select {
				case <-g.ticker.C:
					g.Sweep()
				case <-g.stopCh:
					return
				}
			}
		}()
	}
	return g, nil
}

// Period reports the sweep period T.
func (g *Generational) Period() time.Duration { return g.period }

func (g *Generational) Add(key, value string) {
	g.mu.Lock()
	g.current[key] = value
	delete(g.previous, key)
	g.mu.Unlock()
}

func (g *Generational) Get(key string, remove bool) (string, bool) {
	if !remove {
		g.mu.RLock()
		defer g.mu.RUnlock()
		if v, ok := g.current[key]; ok {
			return v, true
		}
		v, ok := g.previous[key]
		return v, ok
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if v, ok := g.current[key]; ok {
		delete(g.current, key)
		return v, true
	}
	if v, ok := g.previous[key]; ok {
		delete(g.previous, key)
		return v, true
	}
	return "", false
}

func (g *Generational) Remove(key string) {
	g.mu.Lock()
	delete(g.current, key)
	delete(g.previous, key)
	g.mu.Unlock()
}

// Sweep drops the previous generation and demotes the current one. The
// cleared map is reused as the new current generation.
func (g *Generational) Sweep() {
	g.mu.Lock()
	dropped := len(g.previous)
	clear(g.previous)
	g.current, g.previous = g.previous, g.current
	g.mu.Unlock()

	if dropped > 0 {
		g.log.Debug("response generation swept", mpsdk.Fields{"dropped": dropped})
	}
	g.hooks.GenerationSwept(dropped)
}

// Len counts entries in both generations.
func (g *Generational) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.current) + len(g.previous)
}

// Close stops the sweep loop. Safe to call more than once.
func (g *Generational) Close(_ context.Context) error {
	g.closeOnce.Do(func() {
		if g.stopCh != nil {
			close(g.stopCh)
			g.ticker.Stop() // stop ticker before waiting
			g.wg.Wait()
		}
	})
	return nil
}
