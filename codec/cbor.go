package codec

import (
	"github.com/fxamacker/cbor/v2"
)

// CBOROptions configure a CBOR codec. The zero value gives compact,
// unsorted encoding and the library's default decode limits.
type CBOROptions struct {
	// Deterministic sorts map keys (RFC 8949 core deterministic), so a reply
	// with the same headers always encodes to the same bytes.
	Deterministic bool
	// MaxNestedLevels bounds decoding of entries read back from a shared
	// provider; 0 => library default (32).
	MaxNestedLevels int
}

// CBOR serializes replies with fxamacker/cbor. Build it with NewCBOR or
// MustCBOR; the zero value has no modes and panics on use.
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[struct{}] = CBOR[struct{}]{}

func NewCBOR[V any](opts CBOROptions) (CBOR[V], error) {
	eo := cbor.PreferredUnsortedEncOptions()
	if opts.Deterministic {
		eo = cbor.CoreDetEncOptions()
	}
	eo.Time = cbor.TimeRFC3339Nano
	em, err := eo.EncMode()
	if err != nil {
		return CBOR[V]{}, err
	}

	dm, err := cbor.DecOptions{MaxNestedLevels: opts.MaxNestedLevels}.DecMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	return CBOR[V]{enc: em, dec: dm}, nil
}

// MustCBOR panics where NewCBOR would fail.
func MustCBOR[V any](opts CBOROptions) CBOR[V] {
	c, err := NewCBOR[V](opts)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR[V]) Encode(v V) ([]byte, error) { return c.enc.Marshal(v) }

func (c CBOR[V]) Decode(b []byte) (v V, err error) {
	err = c.dec.Unmarshal(b, &v)
	return v, err
}
