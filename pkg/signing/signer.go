package signing

import (
	"context"

	"github.com/pkg/errors"

	"github.com/suffix-labs/signcore/pkg/crypto"
)

// Signer turns signing jobs into signatures.
//
// The Signer:
//   - reconstructs the wallet seed
//   - derives one key per job, plus any key a KeyChecker asks for
//   - zeroes the seed before the first digest is computed
//   - signs each digest and zeroes the key right after
//
// All secrets live in the FlowContext so that an abort at any point still
// reaches FlowContext.Close.
type Signer struct {
	seeds SeedSource
}

// NewSigner creates a Signer backed by seeds.
func NewSigner(seeds SeedSource) *Signer {
	return &Signer{seeds: seeds}
}

// Sign produces the signatures for jobs and stores them in fc.
//
// Returns an error if:
//   - the seed cannot be reconstructed
//   - a path cannot be derived
//   - a KeyChecker rejects the derived keys
//   - a digest cannot be computed or signed
//   - ctx is cancelled before the seed is reconstructed or between two
//     steps
func (s *Signer) Sign(ctx context.Context, fc *FlowContext, jobs []Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	seed, err := s.seeds.ReconstructSeed(ctx, fc.Init.WalletID)
	fc.seed = seed
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return NewFlowError(KindUnknown, CodeSigningFailed, errors.Wrap(err, "reconstructing seed"))
	}

	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		key, err := crypto.DeriveKey(fc.seed, job.Path)
		if err != nil {
			return NewFlowError(KindUnknown, CodeSigningFailed, errors.Wrapf(err, "deriving key for job %d", i))
		}
		fc.keys = append(fc.keys, key)
	}

	if kc, ok := fc.Txn.(KeyChecker); ok {
		if err := s.checkKeys(ctx, fc, kc); err != nil {
			return err
		}
	}
	fc.wipeSeed()

	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		sig, err := s.signJob(job, fc.keys[i])
		fc.keys[i].Zero()
		if err != nil {
			return errors.Wrapf(err, "job %d", i)
		}
		fc.signatures = append(fc.signatures, sig)
	}
	fc.wipeKeys()
	return nil
}

func (s *Signer) checkKeys(ctx context.Context, fc *FlowContext, kc KeyChecker) error {
	paths := kc.CheckPaths()
	pubs := make([]*crypto.PublicKey, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		key, err := crypto.DeriveKey(fc.seed, path)
		if err != nil {
			return NewFlowError(KindUnknown, CodeSigningFailed, errors.Wrap(err, "deriving check key"))
		}
		pubs = append(pubs, key.PublicKey())
		key.Zero()
	}
	if err := kc.CheckKeys(pubs); err != nil {
		return InvalidData(err)
	}
	return nil
}

func (s *Signer) signJob(job Job, key *crypto.PrivateKey) ([]byte, error) {
	pub := key.PublicKey()

	digest, err := job.Digest(pub)
	if err != nil {
		var fe *FlowError
		if errors.As(err, &fe) {
			return nil, err
		}
		return nil, NewFlowError(KindUnknown, CodeSigningFailed, errors.Wrap(err, "computing digest"))
	}
	defer crypto.Zero(digest)

	sig, err := key.Sign(digest, job.Encoding)
	if err != nil {
		return nil, NewFlowError(KindUnknown, CodeSigningFailed, err)
	}
	if job.Finish == nil {
		return sig, nil
	}

	out, err := job.Finish(sig, pub)
	crypto.Zero(sig)
	if err != nil {
		return nil, NewFlowError(KindUnknown, CodeSigningFailed, errors.Wrap(err, "encoding signature"))
	}
	return out, nil
}
