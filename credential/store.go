package credential

import (
	"context"
	"fmt"
)

// Store shares credentials between replicas so that each refresh window costs
// the platform one fetch, not one per process. Optional; see redisstore.
type Store interface {
	// Load returns (cred, true, nil) on hit; (Credential{}, false, nil) on miss.
	Load(ctx context.Context, name string) (Credential, bool, error)
	// Save publishes cred under name. Called best-effort after a fetch.
	Save(ctx context.Context, name string, cred Credential) error
}

// StoreError is reported through logs and hooks; it never reaches callers of
// GetInfo or RefreshInfo.
type StoreError struct {
	Op   string
	Name string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("credential store %s %q: %v", e.Op, e.Name, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
