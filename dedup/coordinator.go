// Package dedup makes request handling idempotent under redelivery.
//
// A Coordinator answers a request in one of three ways: replay a response
// already published for the same key, wait for the computation already
// running for that key, or run the handler itself. The first two checks and
// the registration of a new computation happen under a lock held per key, so
// two concurrent deliveries of the same message never both run the handler,
// while different messages never wait on each other's cache round-trips.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/unkn0wn-root/mpsdk"
	"github.com/unkn0wn-root/mpsdk/codec"
	"github.com/unkn0wn-root/mpsdk/inflight"
	"github.com/unkn0wn-root/mpsdk/internal/util"
	"github.com/unkn0wn-root/mpsdk/respcache"
)

var (
	ErrNilHandler = errors.New("dedup: handler is required")
	ErrNilKey     = errors.New("dedup: Options.Key is required")
	ErrNilCodec   = errors.New("dedup: Options.Codec is required")

	// ErrKey wraps failures of Options.Key.
	ErrKey = errors.New("dedup: cannot derive request key")

	// ErrHandlerPanic is what joiners receive when the leading handler panicked.
	ErrHandlerPanic = errors.New("dedup: handler panicked")
)

// HandlerFunc computes the response for one request.
type HandlerFunc[Req, Resp any] func(ctx context.Context, req Req) (Resp, error)

// KeyFunc derives the deduplication key of a request. Equal keys mean
// "the same message delivered again".
type KeyFunc[Req any] func(req Req) (string, error)

type Options[Req, Resp any] struct {
	Key   KeyFunc[Req]      // required
	Codec codec.Codec[Resp] // required; responses are stored encoded

	// Responses holds published responses. nil => an owned respcache.Generational.
	Responses respcache.Cache
	// Registry holds running computations. nil => inflight.Map.
	Registry inflight.Registry[string]

	// Disabled swaps both stores for their Nop variants; every request runs
	// the handler.
	Disabled bool

	Period time.Duration // sweep period of the owned response cache; 0 => respcache.DefaultPeriod
	Logger mpsdk.Logger
	Hooks  mpsdk.Hooks
}

// Coordinator deduplicates calls to a single handler.
type Coordinator[Req, Resp any] struct {
	handler HandlerFunc[Req, Resp]
	key     KeyFunc[Req]
	codec   codec.Codec[Resp]

	// locks span the response cache and the registry for one key: check,
	// check, register and publish, unregister are each atomic with respect
	// to one another.
	locks     *keyLocks
	responses respcache.Cache
	registry  inflight.Registry[string]
	owned     *respcache.Generational

	log   mpsdk.Logger
	hooks mpsdk.Hooks
}

func New[Req, Resp any](h HandlerFunc[Req, Resp], opts Options[Req, Resp]) (*Coordinator[Req, Resp], error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	if opts.Key == nil {
		return nil, ErrNilKey
	}
	if opts.Codec == nil {
		return nil, ErrNilCodec
	}

	c := &Coordinator[Req, Resp]{
		handler:   h,
		key:       opts.Key,
		codec:     opts.Codec,
		responses: opts.Responses,
		registry:  opts.Registry,
		locks:     newKeyLocks(),
	}
	c.log = util.Coalesce[mpsdk.Logger](opts.Logger, mpsdk.NopLogger{})
	c.hooks = util.Coalesce[mpsdk.Hooks](opts.Hooks, mpsdk.NopHooks{})

	if opts.Disabled {
		c.responses = respcache.Nop{}
		c.registry = inflight.Nop[string]{}
		return c, nil
	}
	if c.responses == nil {
		g, err := respcache.NewGenerational(respcache.Options{
			Period: opts.Period,
			Logger: c.log,
			Hooks:  c.hooks,
		})
		if err != nil {
			return nil, err
		}
		c.responses, c.owned = g, g
	}
	if c.registry == nil {
		c.registry = inflight.NewMap[string]()
	}
	return c, nil
}

// Do returns the response for req, running the handler at most once per key
// while a response for that key is retained.
//
// Handler errors reach the leader and every joiner unchanged and are never
// published, so a later redelivery runs the handler again.
func (c *Coordinator[Req, Resp]) Do(ctx context.Context, req Req) (Resp, error) {
	var zero Resp
	key, err := c.key(req)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrKey, err)
	}

	unlock := c.locks.lock(key)
	if raw, ok := c.responses.Get(key, false); ok {
		unlock()
		c.hooks.ResponseReplayed(key)
		return c.codec.Decode([]byte(raw))
	}
	if call, ok := c.registry.Get(key, false); ok {
		unlock()
		c.hooks.ExecutionJoined(key)
		raw, err := call.Wait(ctx)
		if err != nil {
			return zero, err
		}
		return c.codec.Decode([]byte(raw))
	}
	call := inflight.NewCall[string]()
	c.registry.Add(key, call)
	unlock()

	return c.lead(ctx, key, req, call)
}

func (c *Coordinator[Req, Resp]) lead(ctx context.Context, key string, req Req, call *inflight.Call[string]) (resp Resp, err error) {
	finished := false
	defer func() {
		if finished {
			return
		}
		// handler panicked: unblock joiners, then let the panic continue
		unlock := c.locks.lock(key)
		c.registry.Remove(key)
		unlock()
		call.Resolve("", ErrHandlerPanic)
		c.log.Error("dedup handler panicked", mpsdk.Fields{"key": key})
	}()

	resp, err = c.handler(ctx, req)
	var raw []byte
	if err == nil {
		if raw, err = c.codec.Encode(resp); err != nil {
			err = fmt.Errorf("dedup: encode response: %w", err)
		}
	}
	finished = true

	unlock := c.locks.lock(key)
	if err == nil {
		c.responses.Add(key, string(raw))
	}
	c.registry.Remove(key)
	unlock()

	call.Resolve(string(raw), err)
	if err != nil {
		var zero Resp
		return zero, err
	}
	return resp, nil
}

// Close stops the response cache the coordinator created for itself.
// Caches supplied through Options are left to their owner.
func (c *Coordinator[Req, Resp]) Close(ctx context.Context) error {
	if c.owned != nil {
		return c.owned.Close(ctx)
	}
	return nil
}
