package mpsdk

import "time"

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// Credential and dedup paths call them inline.
type Hooks interface {
	// A credential cache installed a freshly fetched (or shared-store) value.
	// source ∈ {"fetch", "store"}
	CredentialRefreshed(name, source string, expiresAt time.Time)

	// The fetch collaborator failed; the previous credential stays installed.
	CredentialRefreshFailed(name string, err error)

	// A forced refresh carried a stale old value and was answered without a fetch.
	RefreshSuppressed(name string)

	// A sweep dropped the previous generation of a response cache.
	GenerationSwept(dropped int)

	// A duplicate request was answered from the response cache.
	ResponseReplayed(key string)

	// A duplicate request attached to an in-flight computation.
	ExecutionJoined(key string)

	// A shared store or provider failed; op ∈ {"load", "save", "get", "set", "del"}.
	StoreError(op, key string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) CredentialRefreshed(string, string, time.Time) {}
func (NopHooks) CredentialRefreshFailed(string, error)         {}
func (NopHooks) RefreshSuppressed(string)                      {}
func (NopHooks) GenerationSwept(int)                           {}
func (NopHooks) ResponseReplayed(string)                       {}
func (NopHooks) ExecutionJoined(string)                        {}
func (NopHooks) StoreError(string, string, error)              {}
