// Package wire implements the stateless wire-format primitives shared by the
// chain parsers.
//
// Three encodings are covered:
//   - the prefix-tagged VarInt used by Bitcoin serialization (a leading byte
//     below 0xfd is the value, 0xfd/0xfe/0xff announce 2/4/8 little-endian
//     bytes),
//   - unsigned and signed LEB128 (7 bits per byte, high bit = continuation),
//   - the XRP ledger field header and length-prefix framing.
//
// Every decoder reports failures through an error value. A zero result is
// always a legitimately decoded zero.
//
// References:
//   - https://en.bitcoin.it/wiki/Protocol_documentation#Variable_length_integer
//   - https://en.wikipedia.org/wiki/LEB128
//   - https://xrpl.org/docs/references/protocol/binary-format
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash"

	"github.com/suffix-labs/signcore/pkg/bytestream"
)

// MaxVarIntSize is the longest VarInt encoding (prefix + 8 bytes).
const MaxVarIntSize = 9

var (
	// ErrTruncated is returned when the input ends inside an encoded value.
	ErrTruncated = errors.New("wire: truncated input")

	// ErrOverflow is returned when an encoded value does not fit in 64 bits.
	ErrOverflow = errors.New("wire: value overflows 64 bits")
)

// ReadVarInt decodes a VarInt from the stream.
//
// When h is not nil every consumed byte (prefix and payload) is written to it,
// but only once the whole value was read successfully.
func ReadVarInt(s *bytestream.Stream, h hash.Hash) (uint64, error) {
	var buf [MaxVarIntSize]byte

	if err := s.Read(buf[:1]); err != nil {
		return 0, fmt.Errorf("reading varint prefix: %w", err)
	}

	size := varIntPayloadSize(buf[0])
	if size > 0 {
		if err := s.Read(buf[1 : 1+size]); err != nil {
			return 0, fmt.Errorf("reading varint payload: %w", err)
		}
	}

	if h != nil {
		h.Write(buf[:1+size])
	}
	return varIntValue(buf[0], buf[1:1+size]), nil
}

// VarInt decodes a VarInt from the start of b and returns the value together
// with the number of bytes consumed.
func VarInt(b []byte) (uint64, int, error) {
	if len(b) == 0 {
		return 0, 0, ErrTruncated
	}
	size := varIntPayloadSize(b[0])
	if len(b) < 1+size {
		return 0, 0, fmt.Errorf("%w: varint needs %d bytes, have %d", ErrTruncated, 1+size, len(b))
	}
	return varIntValue(b[0], b[1:1+size]), 1 + size, nil
}

// AppendVarInt appends the shortest VarInt encoding of v to dst.
func AppendVarInt(dst []byte, v uint64) []byte {
	switch {
	case v < 0xfd:
		return append(dst, byte(v))
	case v <= 0xffff:
		return binary.LittleEndian.AppendUint16(append(dst, 0xfd), uint16(v))
	case v <= 0xffffffff:
		return binary.LittleEndian.AppendUint32(append(dst, 0xfe), uint32(v))
	default:
		return binary.LittleEndian.AppendUint64(append(dst, 0xff), v)
	}
}

func varIntPayloadSize(prefix byte) int {
	switch prefix {
	case 0xfd:
		return 2
	case 0xfe:
		return 4
	case 0xff:
		return 8
	default:
		return 0
	}
}

func varIntValue(prefix byte, payload []byte) uint64 {
	switch len(payload) {
	case 2:
		return uint64(binary.LittleEndian.Uint16(payload))
	case 4:
		return uint64(binary.LittleEndian.Uint32(payload))
	case 8:
		return binary.LittleEndian.Uint64(payload)
	default:
		return uint64(prefix)
	}
}
