package codec

import (
	"errors"

	"google.golang.org/protobuf/proto"
)

var errNoProtoCtor = errors.New("codec: Protobuf needs a message constructor")

// Protobuf stores replies that are already generated protobuf messages.
// Encoding is deterministic so identical replies produce identical entries;
// unknown fields written by a newer replica are dropped on decode.
type Protobuf[T proto.Message] struct {
	ctor func() T
}

// NewProtobuf takes the constructor of an empty reply, e.g.
// func() *pb.Reply { return &pb.Reply{} }.
func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{ctor: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return proto.MarshalOptions{Deterministic: true}.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	if c.ctor == nil {
		var zero T
		return zero, errNoProtoCtor
	}
	m := c.ctor()
	if err := (proto.UnmarshalOptions{DiscardUnknown: true}).Unmarshal(b, m); err != nil {
		var zero T
		return zero, err
	}
	return m, nil
}
