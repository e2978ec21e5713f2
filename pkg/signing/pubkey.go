package signing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/suffix-labs/signcore/pkg/crypto"
)

// MaxExportPaths bounds the paths of one public key request.
const MaxExportPaths = 16

// ErrNoExtendedKey is returned when extended keys are requested from a chain
// that has no extended key format.
var ErrNoExtendedKey = errors.New("chain has no extended public key format")

// RunPublicKey executes one public key export flow: request, wallet lookup,
// user confirmation, derivation, then a single reply holding every key.
//
// Failures are reported to the host the same way Run reports them.
func (f *Flow) RunPublicKey(ctx context.Context) (*Outcome, error) {
	fc := newFlowContext(uuid.NewString())
	defer fc.Close()

	log := f.log.With("flow_id", fc.ID, "flow", "public_key")
	out, err := f.runPublicKey(ctx, fc)
	if err != nil {
		return nil, f.fail(log, err)
	}
	log.Info("public keys exported", "chain", out.Chain.String(), "keys", out.PublicKeys)
	return out, nil
}

func (f *Flow) runPublicKey(ctx context.Context, fc *FlowContext) (*Outcome, error) {
	q, err := getQuery(ctx, f.cfg.Transport, QueryPublicKey)
	if err != nil {
		return nil, err
	}
	req := q.PublicKey
	if req == nil || len(req.Paths) == 0 || len(req.Paths) > MaxExportPaths {
		return nil, NewFlowError(KindCorruptData, CodeInvalidRequest, errors.Errorf("public key request needs 1 to %d paths", MaxExportPaths))
	}

	chain, err := f.cfg.Chains.Lookup(req.Chain)
	if err != nil {
		return nil, InvalidData(err)
	}
	check := chain.CheckPath
	if kp, ok := chain.(KeyPathChecker); ok {
		check = kp.CheckKeyPath
	}
	exporter, ok := chain.(KeyExporter)
	if req.Extended {
		if !ok {
			return nil, InvalidData(fmt.Errorf("%w: %s", ErrNoExtendedKey, chain.Name()))
		}
		check = exporter.CheckExtendedPath
	}
	for i, path := range req.Paths {
		if err := check(path); err != nil {
			return nil, InvalidData(errors.Wrapf(err, "derivation path %d", i))
		}
	}

	name, err := f.cfg.Wallets.WalletName(req.WalletID)
	if err != nil {
		return nil, NewFlowError(KindUnknown, CodeWalletNotFound, err)
	}

	msg := fmt.Sprintf("Export %s public keys from %s?", chain.Name(), name)
	if err := confirm(f.cfg.UI.Confirm(ctx, msg)); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seed, err := f.cfg.Seeds.ReconstructSeed(ctx, req.WalletID)
	fc.seed = seed
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, NewFlowError(KindUnknown, CodeSigningFailed, errors.Wrap(err, "reconstructing seed"))
	}

	r := &Result{Tag: ResultPublicKeys}
	for i, path := range req.Paths {
		key, err := crypto.DeriveKey(fc.seed, path)
		if err != nil {
			return nil, NewFlowError(KindUnknown, CodeSigningFailed, errors.Wrapf(err, "deriving key %d", i))
		}
		r.PublicKeys = append(r.PublicKeys, key.PublicKey().Bytes())
		key.Zero()

		if req.Extended {
			xpub, err := exporter.ExtendedKey(fc.seed, path)
			if err != nil {
				return nil, NewFlowError(KindUnknown, CodeSigningFailed, errors.Wrapf(err, "extended key %d", i))
			}
			r.ExtendedKeys = append(r.ExtendedKeys, xpub)
		}
	}
	fc.wipeSeed()

	if err := f.cfg.Transport.SendResult(ctx, r); err != nil {
		return nil, err
	}
	return &Outcome{FlowID: fc.ID, Chain: req.Chain, PublicKeys: len(r.PublicKeys)}, nil
}
