// Package crypto implements the key derivation, signature and hash
// collaborators used by the signing flow.
//
// All chains supported by the device sign with secp256k1 ECDSA. They differ
// only in the wire encoding of the signature:
//   - Bitcoin: DER followed by the sighash type byte
//   - XRP: plain DER
//   - ICP: raw 64-byte r || s
//   - EVM: 65-byte r || s || v with the recovery id
//
// Private keys are wrapped so that callers can erase them with Zero once the
// signature was produced.
package crypto

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// SigHashAll is the only Bitcoin sighash type the device produces.
const SigHashAll = 0x01

// Encoding selects the wire format of a signature.
type Encoding int

const (
	// EncodingDER is a strict DER signature.
	EncodingDER Encoding = iota
	// EncodingDERSigHashAll is DER followed by SigHashAll.
	EncodingDERSigHashAll
	// EncodingRaw is the 64-byte r || s concatenation.
	EncodingRaw
	// EncodingRecoverable is r || s || v, with v in {0, 1}.
	EncodingRecoverable
)

func (e Encoding) String() string {
	switch e {
	case EncodingDER:
		return "der"
	case EncodingDERSigHashAll:
		return "der+sighash"
	case EncodingRaw:
		return "raw"
	case EncodingRecoverable:
		return "recoverable"
	default:
		return fmt.Sprintf("encoding(%d)", int(e))
	}
}

// ErrKeyErased is returned when a key is used after Zero.
var ErrKeyErased = errors.New("crypto: private key erased")

// PrivateKey wraps a secp256k1 private key.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// PublicKey wraps a secp256k1 public key.
type PublicKey struct {
	key *secp256k1.PublicKey
}

// PrivateKeyFromBytes creates a private key from raw bytes.
func PrivateKeyFromBytes(keyBytes []byte) (*PrivateKey, error) {
	if len(keyBytes) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(keyBytes))
	}

	key := secp256k1.PrivKeyFromBytes(keyBytes)
	return &PrivateKey{key: key}, nil
}

// Sign signs a 32-byte digest and encodes the result as requested.
func (pk *PrivateKey) Sign(digest []byte, enc Encoding) ([]byte, error) {
	if pk == nil || pk.key == nil {
		return nil, ErrKeyErased
	}
	if len(digest) != 32 {
		return nil, fmt.Errorf("digest must be 32 bytes, got %d", len(digest))
	}

	switch enc {
	case EncodingDER:
		return ecdsa.Sign(pk.key, digest).Serialize(), nil
	case EncodingDERSigHashAll:
		return append(ecdsa.Sign(pk.key, digest).Serialize(), SigHashAll), nil
	case EncodingRaw, EncodingRecoverable:
		// compact form: [27 + recid + 4] || r || s
		compact := ecdsa.SignCompact(pk.key, digest, true)
		out := make([]byte, 0, 65)
		out = append(out, compact[1:]...)
		if enc == EncodingRecoverable {
			out = append(out, compact[0]-27-4)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported signature encoding %s", enc)
	}
}

// PublicKey derives the public key.
func (pk *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{key: pk.key.PubKey()}
}

// Zero overwrites the key material. It is safe to call more than once.
func (pk *PrivateKey) Zero() {
	if pk == nil || pk.key == nil {
		return
	}
	pk.key.Zero()
	pk.key = nil
}

// Bytes returns the compressed public key bytes.
func (pub *PublicKey) Bytes() []byte {
	return pub.key.SerializeCompressed()
}

// Uncompressed returns the 65-byte 0x04 || X || Y encoding.
func (pub *PublicKey) Uncompressed() []byte {
	return pub.key.SerializeUncompressed()
}

// ParsePublicKey parses a compressed or uncompressed public key.
func ParsePublicKey(pubKeyBytes []byte) (*PublicKey, error) {
	pubKey, err := secp256k1.ParsePubKey(pubKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	return &PublicKey{key: pubKey}, nil
}

// VerifyDER verifies a DER signature over a 32-byte digest.
func VerifyDER(pubkey *PublicKey, digest []byte, signature []byte) bool {
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false
	}

	return sig.Verify(digest, pubkey.key)
}

// VerifyRaw verifies a 64-byte r || s signature over a 32-byte digest.
func VerifyRaw(pubkey *PublicKey, digest []byte, signature []byte) bool {
	if len(signature) != 64 {
		return false
	}
	var r, s secp256k1.ModNScalar
	if r.SetByteSlice(signature[:32]) || s.SetByteSlice(signature[32:]) {
		return false
	}
	return ecdsa.NewSignature(&r, &s).Verify(digest, pubkey.key)
}
