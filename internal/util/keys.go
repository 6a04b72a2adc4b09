package util

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Digest returns prefix + ":" + the first 16 hex chars of SHA-256 over parts.
// Each part is length-prefixed so ("ab","c") and ("a","bc") never collide.
func Digest(prefix string, parts ...[]byte) string {
	h := sha256.New()
	var u8 [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(u8[:], uint64(len(p)))
		h.Write(u8[:])
		h.Write(p)
	}
	sum := h.Sum(nil)
	return prefix + ":" + hex.EncodeToString(sum[:8])
}
