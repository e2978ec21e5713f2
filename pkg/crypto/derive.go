package crypto

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

// SeedSize is the size of the seed produced by the reconstruction service.
const SeedSize = 64

// ErrInvalidSeed is returned for a seed of the wrong size.
var ErrInvalidSeed = errors.New("crypto: invalid seed")

// DeriveKey derives the BIP32 private key at path from seed.
//
// Every intermediate extended key is erased before returning. The caller owns
// the returned key and must Zero it once the signature was produced.
func DeriveKey(seed []byte, path []uint32) (*PrivateKey, error) {
	node, err := deriveNode(seed, path)
	if err != nil {
		return nil, err
	}
	defer node.Zero()

	ecKey, err := node.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("extracting private key: %w", err)
	}
	return &PrivateKey{key: ecKey}, nil
}

// ExtendedPublicKey derives the node at path and serializes its public half
// with the given version bytes, e.g. 0x0488b21e for an xpub.
func ExtendedPublicKey(seed []byte, path []uint32, version [4]byte) (string, error) {
	node, err := deriveNode(seed, path)
	if err != nil {
		return "", err
	}
	defer node.Zero()

	// the neutered key shares the chain code with node
	pub, err := node.Neuter()
	if err != nil {
		return "", fmt.Errorf("neutering %s: %w", FormatPath(path), err)
	}
	pub, err = pub.CloneWithVersion(version[:])
	if err != nil {
		return "", err
	}
	return pub.String(), nil
}

func deriveNode(seed []byte, path []uint32) (*hdkeychain.ExtendedKey, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidSeed, SeedSize, len(seed))
	}

	node, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("creating master node: %w", err)
	}

	for depth, index := range path {
		child, err := node.Derive(index)
		node.Zero()
		if err != nil {
			return nil, fmt.Errorf("deriving %s at depth %d: %w", FormatPath(path[:depth+1]), depth, err)
		}
		node = child
	}
	return node, nil
}
