package crypto

import (
	"crypto/sha256"

	"github.com/btcsuite/btcutil/base58"
)

// xrpAlphabet is the ripple base58 alphabet.
const xrpAlphabet = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"

// btcAlphabet is the bitcoin base58 alphabet used by the base58 package.
const btcAlphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var btcToXRP = func() [256]byte {
	var m [256]byte
	for i := 0; i < len(btcAlphabet); i++ {
		m[btcAlphabet[i]] = xrpAlphabet[i]
	}
	return m
}()

// Base58Check encodes version || payload || checksum, where checksum is the
// first four bytes of the double SHA-256 of version || payload.
func Base58Check(version byte, payload []byte) string {
	data := make([]byte, 0, 1+len(payload)+4)
	data = append(data, version)
	data = append(data, payload...)

	hash1 := sha256.Sum256(data)
	hash2 := sha256.Sum256(hash1[:])
	data = append(data, hash2[:4]...)

	return base58.Encode(data)
}

// XRPBase58Check is Base58Check rendered in the ripple alphabet.
func XRPBase58Check(version byte, payload []byte) string {
	encoded := []byte(Base58Check(version, payload))
	for i, c := range encoded {
		encoded[i] = btcToXRP[c]
	}
	return string(encoded)
}
