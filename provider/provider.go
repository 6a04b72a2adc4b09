// Package provider defines the byte store behind respcache.Provided.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key (no prepended/appended
// metadata, no re-encoding, no mutation).
//
// The keyspace "resp:<ns>:" is owned by respcache. Foreign writes under that
// prefix fail frame validation and are deleted on read.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs. Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL. May ignore cost if unsupported.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key (best-effort).
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// Taker is implemented by providers that can read and delete a key in one
// atomic step. respcache.Provided uses it for removing reads; without it a
// removing read is a Get followed by a Del, and two concurrent removing reads
// may both see the value.
type Taker interface {
	// Take returns the value and deletes the key. Same result shape as Get.
	Take(ctx context.Context, key string) ([]byte, bool, error)
}
