package wallet

import (
	"context"
	"fmt"

	blake2b "github.com/minio/blake2b-simd"

	"github.com/suffix-labs/signcore/pkg/crypto"
)

// seedPersonalization separates simulated seeds from every other use of the
// master secret. BLAKE2b personalization is exactly 16 bytes.
const seedPersonalization = "signcore-seed-v1"

const (
	minSecretSize = 16
	maxSecretSize = 64
)

// DeterministicSeeds stands in for the seed reconstruction service: the seed
// of a wallet is keyed BLAKE2b-512 of its id under a master secret.
type DeterministicSeeds struct {
	secret []byte
}

// NewDeterministicSeeds copies secret, which must be 16 to 64 bytes.
func NewDeterministicSeeds(secret []byte) (*DeterministicSeeds, error) {
	if len(secret) < minSecretSize || len(secret) > maxSecretSize {
		return nil, fmt.Errorf("master secret must be %d to %d bytes, got %d", minSecretSize, maxSecretSize, len(secret))
	}
	return &DeterministicSeeds{secret: append([]byte(nil), secret...)}, nil
}

// ReconstructSeed implements signing.SeedSource. Every call returns a fresh
// slice the caller zeroes.
func (s *DeterministicSeeds) ReconstructSeed(ctx context.Context, walletID [32]byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h, err := blake2b.New(&blake2b.Config{
		Size:   crypto.SeedSize,
		Key:    s.secret,
		Person: []byte(seedPersonalization),
	})
	if err != nil {
		return nil, fmt.Errorf("seed hash: %w", err)
	}
	h.Write(walletID[:])
	return h.Sum(nil), nil
}

// Zero erases the master secret.
func (s *DeterministicSeeds) Zero() {
	crypto.Zero(s.secret)
}
