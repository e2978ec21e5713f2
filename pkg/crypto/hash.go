package crypto

import (
	"crypto/sha256"
	"crypto/sha512"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // Hash160 is defined over RIPEMD-160
)

// DoubleSHA256 returns SHA-256(SHA-256(data)).
func DoubleSHA256(data []byte) [32]byte {
	first := sha256.Sum256(data)
	return sha256.Sum256(first[:])
}

// Hash160 returns RIPEMD-160(SHA-256(data)), the Bitcoin public key hash.
func Hash160(data []byte) []byte {
	sum := sha256.Sum256(data)
	h := ripemd160.New()
	h.Write(sum[:])
	return h.Sum(nil)
}

// SHA512Half returns the first 32 bytes of SHA-512(data).
func SHA512Half(data []byte) [32]byte {
	sum := sha512.Sum512(data)
	var out [32]byte
	copy(out[:], sum[:32])
	return out
}

// Zero overwrites b with zeros.
func Zero(b []byte) {
	clear(b)
}
