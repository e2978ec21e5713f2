package wire

import (
	"errors"
	"fmt"
)

// ErrInvalidLength is returned for an XRP length prefix outside the three
// defined ranges.
var ErrInvalidLength = errors.New("wire: invalid length prefix")

// FieldHeader decodes an XRP field identifier from the start of b.
//
// The first byte holds the type code in its high nibble and the field code in
// its low nibble. A zero nibble means the code did not fit and follows in the
// next byte, which yields four shapes:
//
//	TF        type and field both < 16       1 byte
//	0F TT     type >= 16                     2 bytes
//	T0 FF     field >= 16                    2 bytes
//	00 TT FF  both >= 16                     3 bytes
func FieldHeader(b []byte) (typeCode, fieldCode uint8, n int, err error) {
	if len(b) == 0 {
		return 0, 0, 0, fmt.Errorf("%w: field header", ErrTruncated)
	}
	high, low := b[0]>>4, b[0]&0x0f

	switch {
	case high != 0 && low != 0:
		return high, low, 1, nil
	case high == 0 && low != 0:
		if len(b) < 2 {
			return 0, 0, 0, fmt.Errorf("%w: field header type code", ErrTruncated)
		}
		return b[1], low, 2, nil
	case high != 0:
		if len(b) < 2 {
			return 0, 0, 0, fmt.Errorf("%w: field header field code", ErrTruncated)
		}
		return high, b[1], 2, nil
	default:
		if len(b) < 3 {
			return 0, 0, 0, fmt.Errorf("%w: field header codes", ErrTruncated)
		}
		return b[1], b[2], 3, nil
	}
}

// XRPLength decodes a variable-length prefix:
//
//	0..192        one byte, the value itself
//	193..240      two bytes, up to 12480
//	241..254      three bytes, up to 918744
func XRPLength(b []byte) (length uint32, n int, err error) {
	if len(b) == 0 {
		return 0, 0, fmt.Errorf("%w: length prefix", ErrTruncated)
	}
	b1 := uint32(b[0])

	switch {
	case b1 <= 192:
		return b1, 1, nil
	case b1 <= 240:
		if len(b) < 2 {
			return 0, 0, fmt.Errorf("%w: two-byte length prefix", ErrTruncated)
		}
		return 193 + (b1-193)*256 + uint32(b[1]), 2, nil
	case b1 <= 254:
		if len(b) < 3 {
			return 0, 0, fmt.Errorf("%w: three-byte length prefix", ErrTruncated)
		}
		return 12481 + (b1-241)*65536 + uint32(b[1])*256 + uint32(b[2]), 3, nil
	default:
		return 0, 0, fmt.Errorf("%w: leading byte 0x%02x", ErrInvalidLength, b[0])
	}
}
