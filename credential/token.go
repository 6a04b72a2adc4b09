package credential

import "context"

// TokenCache holds the long-lived access token.
type TokenCache struct {
	c *cache
}

// NewTokenCache creates an empty token cache; the first GetInfo fetches.
func NewTokenCache(f Fetcher, opts Options) (*TokenCache, error) {
	c, err := newCache("token", f, opts)
	if err != nil {
		return nil, err
	}
	return &TokenCache{c: c}, nil
}

// GetInfo returns a currently valid token, fetching first if needed.
func (t *TokenCache) GetInfo(ctx context.Context) (Credential, error) {
	return t.c.get(ctx)
}

// RefreshInfo forces a refresh because oldValue was rejected by the platform.
// If oldValue is no longer the installed token someone already refreshed it,
// and the current token is returned without a fetch. oldValue "" always forces.
// The fetcher receives the installed value as prev.
func (t *TokenCache) RefreshInfo(ctx context.Context, oldValue string) (Credential, error) {
	return t.c.acquire(ctx, request{force: true, rejected: oldValue, withPrev: true})
}

// Token is GetInfo returning only the value.
func (t *TokenCache) Token(ctx context.Context) (string, error) {
	cr, err := t.c.get(ctx)
	if err != nil {
		return "", err
	}
	return cr.Value, nil
}
