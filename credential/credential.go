package credential

import (
	"context"
	"errors"
	"time"

	"github.com/unkn0wn-root/mpsdk"
)

// DefaultSafetyMargin is subtracted once from the declared lifetime at fetch time.
const DefaultSafetyMargin = 10 * time.Second

var (
	ErrNilFetcher     = errors.New("credential: fetcher is required")
	ErrNegativeMargin = errors.New("credential: safety margin must not be negative")
	// ErrFetchAborted is returned to every caller of a refresh whose fetcher panicked.
	ErrFetchAborted = errors.New("credential: fetch aborted")
)

// Credential is a bearer value with its absolute expiry.
// ExpiresAt already has the safety margin applied.
type Credential struct {
	Value     string
	ExpiresAt time.Time
}

// ValidAt reports whether the credential can still be handed out at now.
func (c Credential) ValidAt(now time.Time) bool {
	return c.Value != "" && now.Before(c.ExpiresAt)
}

// Grant is what the remote side returns: a value and its declared lifetime.
type Grant struct {
	Value    string
	Lifetime time.Duration
}

// Fetcher retrieves a fresh credential from the platform.
// prev is the value being replaced on a forced token refresh ("" otherwise);
// implementations may ignore it. Timeouts are the fetcher's responsibility.
type Fetcher interface {
	Fetch(ctx context.Context, prev string) (Grant, error)
}

// FetchFunc adapts a function to Fetcher.
type FetchFunc func(ctx context.Context, prev string) (Grant, error)

func (f FetchFunc) Fetch(ctx context.Context, prev string) (Grant, error) { return f(ctx, prev) }

// Options tune a credential cache. All fields are optional.
type Options struct {
	Name         string        // used in logs, hooks and as the Store key; "" => "token" / "ticket"
	SafetyMargin time.Duration // 0 => DefaultSafetyMargin
	Clock        func() time.Time
	Store        Store // nil => process-local only
	Logger       mpsdk.Logger
	Hooks        mpsdk.Hooks
}
