package sloghooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newBuffered(opts Options) (*Hooks, *bytes.Buffer) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(l, opts), &buf
}

func TestKeysAreRedacted(t *testing.T) {
	h, buf := newBuffered(Options{})
	h.ResponseReplayed("webhook:secret-id")
	out := buf.String()
	if !strings.Contains(out, "mpsdk.response_replayed") {
		t.Fatalf("missing event in %q", out)
	}
	if strings.Contains(out, "secret-id") {
		t.Fatalf("key leaked: %q", out)
	}
}

func TestCustomRedactor(t *testing.T) {
	h, buf := newBuffered(Options{Redact: func(string) string { return "xxx" }})
	h.StoreError("set", "resp:ns:k", errors.New("down"))
	if out := buf.String(); !strings.Contains(out, "key=xxx") || !strings.Contains(out, "err=down") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestSampling(t *testing.T) {
	h, buf := newBuffered(Options{JoinEvery: 3})
	for i := 0; i < 6; i++ {
		h.ExecutionJoined("k")
	}
	if n := strings.Count(buf.String(), "mpsdk.execution_joined"); n != 2 {
		t.Fatalf("want 2 sampled lines, got %d", n)
	}
}

func TestNilLoggerIsSilent(t *testing.T) {
	h := New(nil, Options{})
	h.CredentialRefreshFailed("token", errors.New("x"))
	h.GenerationSwept(1)
}
