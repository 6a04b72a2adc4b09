package codec

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack serializes replies with vmihailenco/msgpack/v5 and is the default
// codec for captured webhook responses: []byte bodies stay binary and map
// keys (header names) are sorted, so equal replies encode to equal bytes.
// The zero value is ready to use. Field names follow `msgpack:"..."` tags.
type Msgpack[V any] struct{}

var _ Codec[struct{}] = Msgpack[struct{}]{}

func (Msgpack[V]) Encode(v V) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (Msgpack[V]) Decode(b []byte) (v V, err error) {
	err = msgpack.Unmarshal(b, &v)
	return v, err
}
