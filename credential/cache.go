package credential

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/mpsdk"
	"github.com/unkn0wn-root/mpsdk/internal/util"
)

var ErrEmptyGrant = errors.New("credential: fetcher returned an empty value")

// request describes why a caller needs the slow path.
type request struct {
	force    bool
	rejected string // forced token refresh: fetch only while this value is installed
	withPrev bool   // hand the replaced value to the fetcher
}

// cache is the shared core of TokenCache and TicketCache.
//
// cur is published with atomic.Pointer: Store under the gate is the release,
// the lock-free Load on the fast path is the acquire. A *Credential is never
// mutated after it is stored, so value and expiry are always read together.
//
// Refreshes go through sf under the cache name, so at most one runs at a time
// and callers arriving meanwhile share its result.
type cache struct {
	name    string
	fetcher Fetcher
	margin  time.Duration
	now     func() time.Time
	store   Store
	log     mpsdk.Logger
	hooks   mpsdk.Hooks

	cur atomic.Pointer[Credential]

	gate sync.Mutex // orders the fetch decision against installs
	sf   singleflight.Group
}

func newCache(defName string, f Fetcher, opts Options) (*cache, error) {
	if f == nil {
		return nil, ErrNilFetcher
	}
	if opts.SafetyMargin < 0 {
		return nil, ErrNegativeMargin
	}
	c := &cache{
		name:    util.Coalesce(opts.Name, defName),
		fetcher: f,
		margin:  util.Coalesce(opts.SafetyMargin, DefaultSafetyMargin),
		store:   opts.Store,
		now:     opts.Clock,
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.log = util.Coalesce[mpsdk.Logger](opts.Logger, mpsdk.NopLogger{})
	c.hooks = util.Coalesce[mpsdk.Hooks](opts.Hooks, mpsdk.NopHooks{})
	return c, nil
}

// valid is the fast path: no locking, may observe the old value while a
// refresh is running, which is fine because that value is still unexpired.
func (c *cache) valid() (Credential, bool) {
	cr := c.cur.Load()
	if cr == nil || !cr.ValidAt(c.now()) {
		return Credential{}, false
	}
	return *cr, true
}

func (c *cache) get(ctx context.Context) (Credential, error) {
	if cr, ok := c.valid(); ok {
		return cr, nil
	}
	return c.acquire(ctx, request{})
}

// acquire is the slow path. A caller arriving while a refresh runs joins it
// whatever its own request was; each caller waits only as long as its ctx.
func (c *cache) acquire(ctx context.Context, r request) (Credential, error) {
	// the refresh is shared, so it must not die with the first caller's ctx;
	// the fetcher bounds its own duration
	fctx := context.WithoutCancel(ctx)
	ch := c.sf.DoChan(c.name, func() (any, error) {
		return c.refresh(fctx, r)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return Credential{}, res.Err
		}
		return res.Val.(Credential), nil
	case <-ctx.Done():
		return Credential{}, ctx.Err()
	}
}

// refresh runs inside the singleflight call. The condition is re-checked
// first: a caller that raced a finished refresh gets the new value, and a
// forced refresh of a value that is no longer installed is suppressed.
// On failure the installed credential is left untouched.
func (c *cache) refresh(ctx context.Context, r request) (cr Credential, err error) {
	defer func() {
		if p := recover(); p != nil {
			c.log.Error("credential fetcher panicked", mpsdk.Fields{"name": c.name, "panic": p})
			cr, err = Credential{}, fmt.Errorf("%w: %v", ErrFetchAborted, p)
		}
	}()

	c.gate.Lock()
	cur := c.cur.Load()
	c.gate.Unlock()
	if r.force && r.rejected != "" && cur != nil && cur.Value != r.rejected {
		c.hooks.RefreshSuppressed(c.name)
		return *cur, nil
	}
	if !r.force && cur != nil && cur.ValidAt(c.now()) {
		return *cur, nil
	}

	if c.store != nil && (!r.force || r.rejected != "") {
		if sc, ok := c.loadShared(ctx, r.rejected); ok {
			c.install(sc)
			c.log.Debug("credential adopted from store", mpsdk.Fields{"name": c.name, "expires_at": sc.ExpiresAt})
			c.hooks.CredentialRefreshed(c.name, "store", sc.ExpiresAt)
			return sc, nil
		}
	}

	var prev string
	if r.withPrev && cur != nil {
		prev = cur.Value
	}
	start := c.now()
	g, err := c.fetcher.Fetch(ctx, prev)
	if err == nil && g.Value == "" {
		err = ErrEmptyGrant
	}
	if err != nil {
		c.hooks.CredentialRefreshFailed(c.name, err)
		return Credential{}, err
	}

	cr = Credential{Value: g.Value, ExpiresAt: start.Add(g.Lifetime - c.margin)}
	c.install(cr)
	c.log.Debug("credential refreshed", mpsdk.Fields{
		"name":       c.name,
		"forced":     r.force,
		"expires_at": cr.ExpiresAt,
	})
	c.hooks.CredentialRefreshed(c.name, "fetch", cr.ExpiresAt)
	if c.store != nil {
		c.saveShared(ctx, cr)
	}
	return cr, nil
}

func (c *cache) install(cr Credential) {
	c.gate.Lock()
	c.cur.Store(&cr)
	c.gate.Unlock()
}

func (c *cache) loadShared(ctx context.Context, rejected string) (Credential, bool) {
	sc, ok, err := c.store.Load(ctx, c.name)
	if err != nil {
		c.storeFailed(&StoreError{Op: "load", Name: c.name, Err: err})
		return Credential{}, false
	}
	if !ok || !sc.ValidAt(c.now()) || (rejected != "" && sc.Value == rejected) {
		return Credential{}, false
	}
	return sc, true
}

func (c *cache) saveShared(ctx context.Context, cr Credential) {
	if err := c.store.Save(ctx, c.name, cr); err != nil {
		c.storeFailed(&StoreError{Op: "save", Name: c.name, Err: err})
	}
}

func (c *cache) storeFailed(e *StoreError) {
	c.log.Warn("credential store error", mpsdk.Fields{"name": e.Name, "op": e.Op, "err": e.Err})
	c.hooks.StoreError(e.Op, e.Name, e)
}
