package wire

import "fmt"

// maxLEB128Size is the longest LEB128 encoding of a 64-bit value.
const maxLEB128Size = 10

// ULEB128 decodes an unsigned LEB128 value from the start of b.
//
// Each byte contributes its low 7 bits at increasing bit positions; the high
// bit marks continuation. Encodings that carry bits past 64 are rejected.
func ULEB128(b []byte) (uint64, int, error) {
	var (
		result uint64
		shift  uint
	)
	for i := 0; i < len(b); i++ {
		if i == maxLEB128Size {
			return 0, 0, fmt.Errorf("%w: leb128 longer than %d bytes", ErrOverflow, maxLEB128Size)
		}
		c := b[i]
		low := uint64(c & 0x7f)
		if shift == 63 && low > 1 {
			return 0, 0, fmt.Errorf("%w: leb128 byte %d", ErrOverflow, i)
		}
		result |= low << shift
		if c&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, fmt.Errorf("%w: unterminated leb128", ErrTruncated)
}

// SLEB128 decodes a signed LEB128 value from the start of b. The value is
// sign-extended from bit 6 of the final byte when fewer than 64 bits were
// consumed.
func SLEB128(b []byte) (int64, int, error) {
	var (
		result int64
		shift  uint
	)
	for i := 0; i < len(b); i++ {
		if i == maxLEB128Size {
			return 0, 0, fmt.Errorf("%w: sleb128 longer than %d bytes", ErrOverflow, maxLEB128Size)
		}
		c := b[i]
		result |= int64(c&0x7f) << shift
		shift += 7
		if c&0x80 == 0 {
			if shift < 64 && c&0x40 != 0 {
				result |= -1 << shift
			}
			return result, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: unterminated sleb128", ErrTruncated)
}

// AppendULEB128 appends the unsigned LEB128 encoding of v to dst.
func AppendULEB128(dst []byte, v uint64) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(dst, c)
		}
		dst = append(dst, c|0x80)
	}
}
