// Package sloghooks logs mpsdk.Hooks events through log/slog.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/mpsdk"
)

type Options struct {
	// Sampling for the chatty events; 0/1 = log all.
	ReplayEvery uint64
	JoinEvery   uint64
	SweepEvery  uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	replayCtr atomic.Uint64
	joinCtr   atomic.Uint64
	sweepCtr  atomic.Uint64
}

var _ mpsdk.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) CredentialRefreshed(name, source string, expiresAt time.Time) {
	if h.l == nil {
		return
	}
	h.l.Info("mpsdk.credential_refreshed",
		"name", name,
		"source", source,
		"expires_at", expiresAt)
}

func (h *Hooks) CredentialRefreshFailed(name string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("mpsdk.credential_refresh_failed",
		"name", name,
		"err", err)
}

func (h *Hooks) RefreshSuppressed(name string) {
	if h.l == nil {
		return
	}
	h.l.Debug("mpsdk.refresh_suppressed", "name", name)
}

func (h *Hooks) GenerationSwept(dropped int) {
	if h.l == nil || !sample(h.opts.SweepEvery, &h.sweepCtr) {
		return
	}
	h.l.Debug("mpsdk.generation_swept", "dropped", dropped)
}

func (h *Hooks) ResponseReplayed(key string) {
	if h.l == nil || !sample(h.opts.ReplayEvery, &h.replayCtr) {
		return
	}
	h.l.Info("mpsdk.response_replayed", "key", h.redact(key))
}

func (h *Hooks) ExecutionJoined(key string) {
	if h.l == nil || !sample(h.opts.JoinEvery, &h.joinCtr) {
		return
	}
	h.l.Info("mpsdk.execution_joined", "key", h.redact(key))
}

func (h *Hooks) StoreError(op, key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("mpsdk.store_error",
		"op", op,
		"key", h.redact(key),
		"err", err)
}
