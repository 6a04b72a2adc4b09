// Package codec serializes handler responses for the response cache.
// The coordinator stores encoded bytes as the cached string and decodes them
// again for every replay, so a codec must round-trip its values exactly.
package codec

// Codec encodes/decodes values V to []byte.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
