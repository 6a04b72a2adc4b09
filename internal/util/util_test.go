package util

import (
	"strings"
	"testing"
	"time"
)

func TestDigestStableAndPrefixed(t *testing.T) {
	a := Digest("webhook", []byte("POST"), []byte("/cb"), []byte("<xml/>"))
	b := Digest("webhook", []byte("POST"), []byte("/cb"), []byte("<xml/>"))
	if a != b {
		t.Fatalf("digest not stable: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "webhook:") || len(a) != len("webhook:")+16 {
		t.Fatalf("unexpected digest shape %q", a)
	}
}

func TestDigestPartBoundaries(t *testing.T) {
	x := Digest("p", []byte("ab"), []byte("c"))
	y := Digest("p", []byte("a"), []byte("bc"))
	if x == y {
		t.Fatalf("length prefixing should separate %q and %q", x, y)
	}
}

func TestCoalesce(t *testing.T) {
	if got := Coalesce(time.Duration(0), 15*time.Second); got != 15*time.Second {
		t.Fatalf("zero should take default, got %v", got)
	}
	if got := Coalesce(time.Second, 15*time.Second); got != time.Second {
		t.Fatalf("non-zero should win, got %v", got)
	}
}
