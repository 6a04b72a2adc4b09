package credential

import "context"

// TicketCache holds the short-lived API ticket. Ticket consumers cannot tell
// a rejected ticket apart, so forcing is a plain flag.
type TicketCache struct {
	c *cache
}

func NewTicketCache(f Fetcher, opts Options) (*TicketCache, error) {
	c, err := newCache("ticket", f, opts)
	if err != nil {
		return nil, err
	}
	return &TicketCache{c: c}, nil
}

func (t *TicketCache) GetInfo(ctx context.Context) (Credential, error) {
	return t.c.get(ctx)
}

// RefreshInfo with forceRefresh=false behaves like GetInfo. With true it
// fetches unless a refresh is already in flight, in which case it joins it.
func (t *TicketCache) RefreshInfo(ctx context.Context, forceRefresh bool) (Credential, error) {
	if !forceRefresh {
		return t.c.get(ctx)
	}
	return t.c.acquire(ctx, request{force: true})
}
