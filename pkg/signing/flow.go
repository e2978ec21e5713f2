// Package signing implements the signing flow state machine shared by all
// chains.
//
// A flow runs these states in order, each terminal on failure:
//
//  1. Initiate - validate the request, resolve the wallet, ask for consent
//  2. Collect - receive the unsigned transaction in acknowledged chunks
//  3. Parse - decode it and prove any referenced prior data
//  4. Review - walk the user through every field that matters
//  5. Sign - reconstruct the seed, derive keys, sign, erase
//  6. Emit - hand each signature out on an explicit host request
//
// There is no way back to an earlier state. Whatever happens, the
// FlowContext is closed before Run returns, which zeroes the seed, the keys
// and the signatures.
package signing

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	blake2b "github.com/minio/blake2b-simd"
	"github.com/pkg/errors"

	"github.com/suffix-labs/signcore/pkg/logger"
)

// ChainLookup resolves the chain variant named by an Initiate request.
type ChainLookup interface {
	Lookup(id ChainID) (Chain, error)
}

// Config wires a Flow to its collaborators.
type Config struct {
	Transport Transport
	UI        UI
	Seeds     SeedSource
	Wallets   WalletDirectory
	Chains    ChainLookup

	// MaxTxnSize bounds the transaction buffer. Zero means unbounded.
	MaxTxnSize uint32

	Logger *logger.Logger
}

// Flow runs signing flows against one host link.
type Flow struct {
	cfg    Config
	signer *Signer
	log    *logger.Logger
}

// Outcome summarises a completed flow.
type Outcome struct {
	FlowID      string
	Chain       ChainID
	Fingerprint []byte
	Signatures  int
	PublicKeys  int
}

// NewFlow creates a Flow.
func NewFlow(cfg Config) *Flow {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Flow{cfg: cfg, signer: NewSigner(cfg.Seeds), log: log}
}

// Run executes one signing flow.
//
// Any failure is reported to the host exactly once as a (kind, code) pair
// and returned. A user rejection is returned as a FlowError of kind
// KindUserRejection.
func (f *Flow) Run(ctx context.Context) (*Outcome, error) {
	fc := newFlowContext(uuid.NewString())
	defer fc.Close()

	log := f.log.With("flow_id", fc.ID)
	out, err := f.run(ctx, fc, log)
	if err != nil {
		return nil, f.fail(log, err)
	}

	log.Zerolog().Info().
		Stringer("chain", out.Chain).
		Int("signatures", out.Signatures).
		Hex("fingerprint", out.Fingerprint).
		Msg("flow complete")
	return out, nil
}

// fail reports err to the host and logs it.
func (f *Flow) fail(log *logger.Logger, err error) error {
	kind, code := Classify(err)
	if sendErr := f.cfg.Transport.SendError(kind, code); sendErr != nil {
		log.Warn("error report not delivered", "error", sendErr.Error())
	}
	if kind == KindUnknown {
		log.Error("flow failed", "code", code.String(), "error", err.Error())
	} else {
		log.Warn("flow aborted", "kind", kind.String(), "code", code.String(), "error", err.Error())
	}
	return err
}

func (f *Flow) run(ctx context.Context, fc *FlowContext, log *logger.Logger) (*Outcome, error) {
	log.Debug("state", "state", "initiate")
	if err := f.initiate(ctx, fc); err != nil {
		return nil, err
	}
	log = log.With("chain", fc.Chain.Name())

	log.Debug("state", "state", "collect", "size", fc.Init.TxnSize)
	fingerprint, err := f.collect(ctx, fc)
	if err != nil {
		return nil, err
	}
	log.Debug("transaction received", "fingerprint", hex.EncodeToString(fingerprint))

	log.Debug("state", "state", "parse")
	if err := f.parse(ctx, fc, log); err != nil {
		return nil, err
	}

	log.Debug("state", "state", "review")
	if err := f.review(ctx, fc); err != nil {
		return nil, err
	}

	jobs, err := fc.Txn.SigningJobs(fc.Init)
	if err != nil {
		return nil, classified(err, InvalidData)
	}

	log.Debug("state", "state", "sign", "jobs", len(jobs))
	if err := f.signer.Sign(ctx, fc, jobs); err != nil {
		return nil, err
	}

	log.Debug("state", "state", "emit")
	if err := f.emit(ctx, fc); err != nil {
		return nil, err
	}

	return &Outcome{
		FlowID:      fc.ID,
		Chain:       fc.Init.Chain,
		Fingerprint: fingerprint,
		Signatures:  len(fc.signatures),
	}, nil
}

// initiate validates the request before asking the user anything.
func (f *Flow) initiate(ctx context.Context, fc *FlowContext) error {
	q, err := getQuery(ctx, f.cfg.Transport, QueryInitiate)
	if err != nil {
		return err
	}
	init := q.Initiate
	if init == nil {
		return NewFlowError(KindCorruptData, CodeInvalidRequest, errors.New("initiate request is empty"))
	}

	chain, err := f.cfg.Chains.Lookup(init.Chain)
	if err != nil {
		return InvalidData(err)
	}
	if err := chain.CheckPath(init.Path); err != nil {
		return InvalidData(errors.Wrap(err, "derivation path"))
	}

	collector, err := NewCollector(init.TxnSize, f.cfg.MaxTxnSize)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return NewFlowError(KindUnknown, CodeResource, err)
		}
		return InvalidData(err)
	}

	name, err := f.cfg.Wallets.WalletName(init.WalletID)
	if err != nil {
		return NewFlowError(KindUnknown, CodeWalletNotFound, err)
	}

	msg := fmt.Sprintf("Send %s from %s?", chain.Name(), name)
	if err := confirm(f.cfg.UI.Confirm(ctx, msg)); err != nil {
		return err
	}

	fc.Init = init
	fc.Chain = chain
	fc.collector = collector
	return f.cfg.Transport.SendResult(ctx, &Result{Tag: ResultConfirmation})
}

// collect assembles the transaction and returns its fingerprint, which is
// also sent with the last chunk ack.
func (f *Flow) collect(ctx context.Context, fc *FlowContext) ([]byte, error) {
	for {
		q, err := getQuery(ctx, f.cfg.Transport, QueryTxnChunk)
		if err != nil {
			return nil, err
		}
		last, err := fc.collector.Add(q.Chunk)
		if err != nil {
			return nil, InvalidData(err)
		}

		ack := &Result{Tag: ResultChunkAccepted, ChunkIndex: q.Chunk.Index}
		if last {
			sum := blake2b.Sum256(fc.Raw())
			ack.Fingerprint = sum[:]
		}
		if err := f.cfg.Transport.SendResult(ctx, ack); err != nil {
			return nil, err
		}
		if last {
			return ack.Fingerprint, nil
		}
	}
}

func (f *Flow) parse(ctx context.Context, fc *FlowContext, log *logger.Logger) error {
	txn, err := fc.Chain.Parse(fc.Init, fc.Raw())
	if err != nil {
		return classified(err, InvalidData)
	}
	fc.Txn = txn

	if rv, ok := txn.(ReferenceVerifier); ok {
		fetch := &chunkFetcher{transport: f.cfg.Transport, log: log.Debug}
		if err := rv.VerifyReferences(ctx, fetch); err != nil {
			return classified(err, InvalidData)
		}
	}
	return nil
}

func (f *Flow) review(ctx context.Context, fc *FlowContext) error {
	for _, item := range fc.Txn.Review() {
		var err error
		if item.Warning {
			err = confirm(f.cfg.UI.Confirm(ctx, item.Body))
		} else {
			err = confirm(f.cfg.UI.ScrollPage(ctx, item.Title, item.Body))
		}
		if err != nil {
			return err
		}
		// an abort raised while the page was shown wins over the answer
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// emit hands out the signatures in job order, one per host request.
// Requests carry no index, so a repeated request gets the next signature.
//
// Each reply carries its own copy: the flow buffers are zeroed by Close
// while the transport may still hold the reply.
func (f *Flow) emit(ctx context.Context, fc *FlowContext) error {
	for i, sig := range fc.signatures {
		if _, err := getQuery(ctx, f.cfg.Transport, QuerySignature); err != nil {
			return err
		}
		r := &Result{Tag: ResultSignature, ChunkIndex: uint32(i), Signature: append([]byte(nil), sig...)}
		if err := f.cfg.Transport.SendResult(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// confirm turns a UI answer into a flow error.
func confirm(ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return NewFlowError(KindUserRejection, CodeRejected, ErrRejected)
	}
	return nil
}

// classified keeps errors that already carry a host-facing classification
// (flow errors and P0 events) and wraps everything else with wrap.
func classified(err error, wrap func(error) *FlowError) error {
	var fe *FlowError
	if errors.As(err, &fe) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return wrap(err)
}
