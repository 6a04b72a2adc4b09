package respcache

import (
	"context"
	"errors"
	"time"

	"github.com/unkn0wn-root/mpsdk"
	"github.com/unkn0wn-root/mpsdk/internal/util"
	"github.com/unkn0wn-root/mpsdk/internal/wire"
	"github.com/unkn0wn-root/mpsdk/provider"
)

var (
	ErrNilProvider      = errors.New("respcache: provider is required")
	ErrNamespaceMissing = errors.New("respcache: namespace is required")
)

// ProvidedOptions tune a Provided cache. Namespace and Provider are required.
type ProvidedOptions struct {
	Namespace string // e.g. "app:prod:webhook"
	Provider  provider.Provider
	Retention time.Duration // 0 => 2*DefaultPeriod
	OpTimeout time.Duration // per provider call; 0 => 1s
	Clock     func() time.Time
	Logger    mpsdk.Logger
	Hooks     mpsdk.Hooks
}

// Provided is a Cache over a provider.Provider, for replicas that receive
// redeliveries of each other's webhooks. Every entry is framed with its store
// time; frames older than Retention or not in our format are deleted on read.
// Provider failures are logged and behave as misses.
type Provided struct {
	ns        string
	provider  provider.Provider
	retention time.Duration
	timeout   time.Duration
	now       func() time.Time
	log       mpsdk.Logger
	hooks     mpsdk.Hooks
}

var _ Cache = (*Provided)(nil)

func NewProvided(opts ProvidedOptions) (*Provided, error) {
	if opts.Provider == nil {
		return nil, ErrNilProvider
	}
	if opts.Namespace == "" {
		return nil, ErrNamespaceMissing
	}
	if opts.Retention < 0 {
		return nil, ErrNegativePeriod
	}
	p := &Provided{
		ns:        opts.Namespace,
		provider:  opts.Provider,
		retention: util.Coalesce(opts.Retention, 2*DefaultPeriod),
		timeout:   util.Coalesce(opts.OpTimeout, time.Second),
		now:       opts.Clock,
	}
	if p.now == nil {
		p.now = time.Now
	}
	p.log = util.Coalesce[mpsdk.Logger](opts.Logger, mpsdk.NopLogger{})
	p.hooks = util.Coalesce[mpsdk.Hooks](opts.Hooks, mpsdk.NopHooks{})
	return p, nil
}

func (p *Provided) storageKey(key string) string {
	// isolate by namespace
	return "resp:" + p.ns + ":" + key
}

func (p *Provided) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), p.timeout)
}

func (p *Provided) Add(key, value string) {
	ctx, cancel := p.opCtx()
	defer cancel()
	k := p.storageKey(key)
	b := wire.EncodeResponse(p.now(), []byte(value))
	ok, err := p.provider.Set(ctx, k, b, int64(len(b)), p.retention)
	if err != nil {
		p.failed("set", k, err)
		return
	}
	if !ok {
		p.log.Debug("response rejected by provider (pressure)", mpsdk.Fields{"key": k})
	}
}

// Get with remove=true is atomic only when the provider implements
// provider.Taker; otherwise it is a read followed by a delete, and two
// concurrent removing reads may both return the value.
func (p *Provided) Get(key string, remove bool) (string, bool) {
	ctx, cancel := p.opCtx()
	defer cancel()
	k := p.storageKey(key)

	var (
		raw   []byte
		ok    bool
		err   error
		taken bool
	)
	if t, can := p.provider.(provider.Taker); remove && can {
		raw, ok, err = t.Take(ctx, k)
		taken = true
	} else {
		raw, ok, err = p.provider.Get(ctx, k)
	}
	if err != nil {
		p.failed("get", k, err)
		return "", false
	}
	if !ok {
		return "", false
	}
	storedAt, payload, err := wire.DecodeResponse(raw)
	if err != nil || p.now().Sub(storedAt) >= p.retention {
		if !taken {
			p.del(ctx, k) // self-heal corrupt or outlived entry
		}
		return "", false
	}
	v := string(payload)
	if remove && !taken {
		p.del(ctx, k)
	}
	return v, true
}

func (p *Provided) Remove(key string) {
	ctx, cancel := p.opCtx()
	defer cancel()
	p.del(ctx, p.storageKey(key))
}

func (p *Provided) del(ctx context.Context, k string) {
	if err := p.provider.Del(ctx, k); err != nil {
		p.failed("del", k, err)
	}
}

func (p *Provided) failed(op, k string, err error) {
	p.log.Warn("response provider error", mpsdk.Fields{"op": op, "key": k, "err": err})
	p.hooks.StoreError(op, k, err)
}

// Close releases the provider.
func (p *Provided) Close(ctx context.Context) error {
	return p.provider.Close(ctx)
}
