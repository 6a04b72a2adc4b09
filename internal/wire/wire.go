package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

const (
	version      byte = 1
	kindCred     byte = 1
	kindResponse byte = 2

	hdr = 4 + 1 + 1 + 8 + 4
)

var (
	ErrCorrupt = errors.New("mpsdk: corrupt entry")
	magic4     = [...]byte{'M', 'P', 'S', 'K'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Frame: magic(4) | ver(1) | kind(1) | stamp(i64 be, unix nanos) | vlen(u32 be) | payload(vlen)
//
// For credentials stamp is the absolute expiry; for responses it is the store time.
func encode(kind byte, stamp time.Time, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(hdr + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kind)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], uint64(stamp.UnixNano()))
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

func decode(kind byte, b []byte) (time.Time, []byte, error) {
	if len(b) < hdr || !hasMagic(b) || b[4] != version || b[5] != kind {
		return time.Time{}, nil, ErrCorrupt
	}
	off := 6

	stamp := time.Unix(0, int64(binary.BigEndian.Uint64(b[off:off+8])))
	off += 8

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	// strict framing: exactly vlen bytes must follow
	if vlen != len(b)-off {
		return time.Time{}, nil, ErrCorrupt
	}
	return stamp, b[off:], nil
}

// EncodeCredential frames a credential value with its absolute expiry.
func EncodeCredential(value string, expiresAt time.Time) []byte {
	return encode(kindCred, expiresAt, []byte(value))
}

func DecodeCredential(b []byte) (value string, expiresAt time.Time, err error) {
	expiresAt, p, err := decode(kindCred, b)
	if err != nil {
		return "", time.Time{}, err
	}
	return string(p), expiresAt, nil
}

// EncodeResponse frames a published response with the time it was stored.
func EncodeResponse(storedAt time.Time, payload []byte) []byte {
	return encode(kindResponse, storedAt, payload)
}

// DecodeResponse returns a zero-copy payload slice into b.
func DecodeResponse(b []byte) (storedAt time.Time, payload []byte, err error) {
	return decode(kindResponse, b)
}
