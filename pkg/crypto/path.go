package crypto

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// HardenedOffset is added to an index to mark hardened derivation.
const HardenedOffset uint32 = 0x80000000

// ErrInvalidPath is returned by ParsePath for malformed derivation paths.
var ErrInvalidPath = errors.New("crypto: invalid derivation path")

// Hardened returns the hardened form of i.
func Hardened(i uint32) uint32 { return i | HardenedOffset }

// IsHardened reports whether i is a hardened index.
func IsHardened(i uint32) bool { return i&HardenedOffset != 0 }

// ParsePath parses "m/44'/0'/0'/0/1". Both ' and h mark hardened indexes.
func ParsePath(s string) ([]uint32, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) == 0 || parts[0] != "m" {
		return nil, fmt.Errorf("%w: %q must start with m", ErrInvalidPath, s)
	}

	path := make([]uint32, 0, len(parts)-1)
	for _, p := range parts[1:] {
		hardened := strings.HasSuffix(p, "'") || strings.HasSuffix(p, "h")
		if hardened {
			p = p[:len(p)-1]
		}
		v, err := strconv.ParseUint(p, 10, 31)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidPath, s, err)
		}
		idx := uint32(v)
		if hardened {
			idx = Hardened(idx)
		}
		path = append(path, idx)
	}
	return path, nil
}

// FormatPath renders a path the way ParsePath accepts it.
func FormatPath(path []uint32) string {
	var b strings.Builder
	b.WriteString("m")
	for _, idx := range path {
		b.WriteByte('/')
		b.WriteString(strconv.FormatUint(uint64(idx&^HardenedOffset), 10))
		if IsHardened(idx) {
			b.WriteByte('\'')
		}
	}
	return b.String()
}
