// Package respcache remembers responses already produced for inbound requests
// so that a redelivered webhook is answered without running the handler again.
//
// Retention is approximate: Generational keeps two maps and drops
// the older one every Period, so an entry survives at least Period and at most
// 2*Period, with O(1) sweep cost and no per-entry timers.
package respcache

import (
	"errors"
	"time"
)

// DefaultPeriod is the sweep period T.
const DefaultPeriod = 15 * time.Second

var ErrNegativePeriod = errors.New("respcache: period must not be negative")

// Cache is the response side of request deduplication.
// A miss is a normal result, never an error.
type Cache interface {
	// Add stores value under key, replacing any older copy.
	Add(key, value string)
	// Get returns the value for key. With remove=true the entry is also deleted.
	Get(key string, remove bool) (string, bool)
	// Remove deletes key. Idempotent.
	Remove(key string)
}

// Nop never retains anything; for deployments with deduplication disabled.
type Nop struct{}

var _ Cache = Nop{}

func (Nop) Add(string, string)              {}
func (Nop) Get(string, bool) (string, bool) { return "", false }
func (Nop) Remove(string)                   {}
